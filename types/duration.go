package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Duration wraps time.Duration with support for JSON and environment decoding. Values are
// written as Go duration strings ("1h30m") and read from either that form or a plain number of
// seconds.
type Duration struct {
	time.Duration
}

// NewDuration wraps a time.Duration with a Duration.
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// Seconds returns a Duration of n whole seconds.
func Seconds(n uint64) Duration {
	if n > math.MaxInt64/uint64(time.Second) {
		return NewDuration(time.Duration(math.MaxInt64))
	}

	return NewDuration(time.Duration(n) * time.Second)
}

// ParseDuration parses a duration string in the time.Duration format, or a whole number of
// seconds.
func ParseDuration(s string) (Duration, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Seconds(n), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return Duration{}, err
	}
	if d < 0 {
		return Duration{}, fmt.Errorf("negative duration: %s", s)
	}

	return NewDuration(d), nil
}

// MustParseDuration parses a duration string in the time.Duration format.
// Panics if the string is invalid.
//
// Useful for tests, but should be avoided in production code.
func MustParseDuration(s string) Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}

	return d
}

// String returns a string representing the duration in the form "72h3m0.5s".
func (d Duration) String() string {
	return d.Duration.String()
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := ParseDuration(value)
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

// MarshalJSON marshals the duration into JSON bytes and implements the json.Marshaler interface.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON unmarshals the duration from JSON bytes and implements the json.Unmarshaler
// interface.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case string:
		return d.Decode(value)
	case float64:
		if value < 0 || value > math.MaxInt64 || value != math.Trunc(value) {
			return fmt.Errorf("invalid duration seconds: %v", value)
		}
		*d = Seconds(uint64(value))

		return nil
	default:
		return fmt.Errorf("invalid duration type: %T", v)
	}
}
