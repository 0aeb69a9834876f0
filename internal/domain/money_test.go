package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	paise, err := ParseAmount("1500.50")
	require.NoError(t, err)
	assert.Equal(t, int64(150_050), paise)
}

func TestParseAmount_WholeRupees(t *testing.T) {
	paise, err := ParseAmount("500")
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), paise)
}

func TestParseAmount_Rejects(t *testing.T) {
	for _, in := range []string{"0", "-10", "12.345", "abc", ""} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestToRupees(t *testing.T) {
	assert.Equal(t, "200000", ToRupees(20_000_000).String())
}

func TestNewUTR(t *testing.T) {
	utr := NewUTR()
	assert.Len(t, utr, 15)
	assert.True(t, strings.HasPrefix(utr, "UTR"))
	assert.NotEqual(t, utr, NewUTR())
}
