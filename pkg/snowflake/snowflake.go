// Package snowflake decodes creation timestamps out of provider post ids.
//
// Post ids embed a millisecond timestamp relative to a provider-specific
// epoch, shifted left past the worker/sequence bits. Decoding is pure bit
// arithmetic; no network or clock access is involved.
package snowflake

import (
	"strconv"
	"time"

	"hotcrawl/pkg/config"
)

// Decoder extracts timestamps from snowflake ids
type Decoder struct {
	epochMillis    int64
	timestampShift uint
}

// NewDecoder creates a Decoder from the configured id scheme parameters
func NewDecoder(cfg config.SnowflakeConfig) *Decoder {
	return &Decoder{
		epochMillis:    cfg.EpochMillis,
		timestampShift: cfg.TimestampShift,
	}
}

// Time returns the creation time embedded in id
func (d *Decoder) Time(id int64) time.Time {
	millis := (id >> d.timestampShift) + d.epochMillis
	return time.UnixMilli(millis)
}

// TimeFromString parses a decimal id string and returns its creation time
func (d *Decoder) TimeFromString(id string) (time.Time, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(n), nil
}
