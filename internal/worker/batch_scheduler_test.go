package worker

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchScheduleFiresOnHalfHours(t *testing.T) {
	schedule, err := cron.ParseStandard(BatchSchedule)
	require.NoError(t, err)

	at := func(h, m int) time.Time {
		return time.Date(2026, time.August, 30, h, m, 0, 0, time.UTC)
	}

	assert.Equal(t, at(10, 30), schedule.Next(at(10, 5)))
	assert.Equal(t, at(11, 0), schedule.Next(at(10, 30)))
	assert.Equal(t, at(10, 30), schedule.Next(at(10, 29)))
	assert.Equal(t, at(0, 0).AddDate(0, 0, 1), schedule.Next(at(23, 45)))
}
