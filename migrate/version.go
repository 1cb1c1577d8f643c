package migrate

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Version is an exact decimal script version, e.g. 3 or 1.0002.
type Version struct {
	d decimal.Decimal
}

// Sentinel values returned by Ledger.Max.
var (
	// VersionNoRow means the ledger query returned no row at all.
	VersionNoRow = NewVersion(-2)
	// VersionUnknown means the stored maximum is NULL or can't be parsed.
	VersionUnknown = NewVersion(-1)
)

// NewVersion returns an integer version.
func NewVersion(v int64) Version {
	return Version{d: decimal.NewFromInt(v)}
}

// ParseVersion parses a decimal version string.
func ParseVersion(s string) (Version, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version '%s': %w", s, err)
	}
	return Version{d: d}, nil
}

// MustParseVersion is like ParseVersion, but panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Cmp compares v and o, returning -1, 0 or +1.
func (v Version) Cmp(o Version) int {
	return v.d.Cmp(o.d)
}

// Equal reports whether v and o are the same number. 2 and 2.0 are equal.
func (v Version) Equal(o Version) bool {
	return v.d.Equal(o.d)
}

// IsPositive reports whether v > 0.
func (v Version) IsPositive() bool {
	return v.d.IsPositive()
}

// String returns the canonical form of v, without trailing zeros.
func (v Version) String() string {
	return v.d.String()
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
