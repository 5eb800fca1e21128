package ledger

import "math/bits"

// Tier returns floor(log2(count / threshold)), or -1 when count is below threshold.
func Tier(count, threshold uint64) int {
	if threshold == 0 {
		threshold = 1
	}

	return bits.Len64(count/threshold) - 1
}

// Tier of a message under this configuration.
func (c *Config) Tier(count uint64) int {
	return Tier(count, c.Threshold)
}

// Medal returns the glyph of a tier. Tiers past the end reuse the last medal.
func (c *Config) Medal(tier int) string {
	switch {
	case len(c.Medals) == 0:
		return "?"
	case tier < 0:
		return ""
	case tier >= len(c.Medals):
		return c.Medals[len(c.Medals)-1]
	default:
		return c.Medals[tier]
	}
}
