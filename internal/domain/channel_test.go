package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLimits_NEFT(t *testing.T) {
	assert.NoError(t, CheckLimits(ChannelNEFT, 1*PaisePerRupee))
	assert.NoError(t, CheckLimits(ChannelNEFT, 200_000*PaisePerRupee))
	assert.Error(t, CheckLimits(ChannelNEFT, 0))
	assert.Error(t, CheckLimits(ChannelNEFT, 200_001*PaisePerRupee))
}

func TestCheckLimits_RTGSMinimum(t *testing.T) {
	err := CheckLimits(ChannelRTGS, 50_000*PaisePerRupee)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RTGS requires a minimum")

	assert.NoError(t, CheckLimits(ChannelRTGS, 200_000*PaisePerRupee))
	assert.NoError(t, CheckLimits(ChannelRTGS, 2_000_000*PaisePerRupee))
	assert.Error(t, CheckLimits(ChannelRTGS, 2_000_001*PaisePerRupee))
}

func TestCheckLimits_UnknownChannel(t *testing.T) {
	assert.Error(t, CheckLimits("UPI", 100))
}

func TestSupportsScheduling(t *testing.T) {
	assert.False(t, SupportsScheduling(ChannelIMPS))
	assert.True(t, SupportsScheduling(ChannelNEFT))
	assert.True(t, SupportsScheduling(ChannelRTGS))
}

func TestNextBatchWindow(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	at := func(h, m int) time.Time {
		return time.Date(2025, time.March, 14, h, m, 0, 0, ist)
	}

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid first half", at(10, 5), at(10, 30)},
		{"on the hour", at(10, 0), at(10, 30)},
		{"just before half", at(10, 29), at(10, 30)},
		{"on the half hour", at(10, 30), at(11, 0)},
		{"end of hour", at(10, 59), at(11, 0)},
		{"day rollover", at(23, 45), at(23, 45).Add(15 * time.Minute)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, NextBatchWindow(tc.in).Equal(tc.want),
				"got %v, want %v", NextBatchWindow(tc.in), tc.want)
		})
	}
}

func TestNextBatchWindow_DropsSeconds(t *testing.T) {
	in := time.Date(2025, time.March, 14, 10, 29, 59, 0, time.UTC)
	want := time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)
	assert.True(t, NextBatchWindow(in).Equal(want))
}
