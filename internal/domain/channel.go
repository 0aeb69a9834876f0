package domain

import (
	"fmt"
	"time"
)

// ChannelLimits holds the inclusive per-transfer bounds for a channel.
// Amounts are in paise.
type ChannelLimits struct {
	Min int64
	Max int64
}

// RBI retail limits: NEFT and IMPS up to 2 lakh, RTGS 2 lakh to 20 lakh.
var channelLimits = map[string]ChannelLimits{
	ChannelNEFT: {Min: 1 * PaisePerRupee, Max: 200_000 * PaisePerRupee},
	ChannelRTGS: {Min: 200_000 * PaisePerRupee, Max: 2_000_000 * PaisePerRupee},
	ChannelIMPS: {Min: 1 * PaisePerRupee, Max: 200_000 * PaisePerRupee},
}

// Flat per-transfer charges by channel, in paise.
var channelCharges = map[string]int64{
	ChannelNEFT: 10 * PaisePerRupee,
	ChannelRTGS: 45 * PaisePerRupee,
	ChannelIMPS: 5 * PaisePerRupee,
}

// LimitsFor returns the configured limits for a channel.
func LimitsFor(channel string) (ChannelLimits, error) {
	limits, ok := channelLimits[channel]
	if !ok {
		return ChannelLimits{}, fmt.Errorf("unknown transfer channel: %s", channel)
	}
	return limits, nil
}

// ChargesFor returns the flat charge for a channel, or zero for unknown channels.
func ChargesFor(channel string) int64 {
	return channelCharges[channel]
}

// IsChannel reports whether the given string is a supported transfer channel.
func IsChannel(channel string) bool {
	_, ok := channelLimits[channel]
	return ok
}

// SupportsScheduling reports whether deferred execution is allowed on a channel.
// IMPS is instant-only.
func SupportsScheduling(channel string) bool {
	return channel != ChannelIMPS
}

// CheckLimits validates an amount against the channel bounds and returns the
// bound that was violated, if any.
func CheckLimits(channel string, amountPaise int64) error {
	limits, err := LimitsFor(channel)
	if err != nil {
		return err
	}
	if amountPaise < limits.Min {
		return fmt.Errorf("%s requires a minimum of %s", channel, FormatPaise(limits.Min))
	}
	if amountPaise > limits.Max {
		return fmt.Errorf("%s allows a maximum of %s", channel, FormatPaise(limits.Max))
	}
	return nil
}

// NextBatchWindow rounds a NEFT execution time forward to the next half-hour
// boundary. A time already on a boundary still moves to the next one, so a
// transfer accepted at 10:00:00 settles in the 10:30 batch.
func NextBatchWindow(t time.Time) time.Time {
	t = t.Truncate(time.Minute)
	if t.Minute() < 30 {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 30, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
}
