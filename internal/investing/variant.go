package investing

import (
	"fmt"
	"strings"
)

// Variant is the kind of instrument a depot entry tracks.
type Variant uint8

const (
	Stock Variant = iota
	Fund
	Etf
	Bond
	Option
	Commodity
	Crypto
)

var variantNames = [...]string{"Stock", "Fund", "Etf", "Bond", "Option", "Commodity", "Crypto"}

// Variants lists every variant in declaration order.
func Variants() []Variant {
	return []Variant{Stock, Fund, Etf, Bond, Option, Commodity, Crypto}
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// ParseVariant matches tag names case-insensitively. The historical
// spelling "Commoditiy" is accepted as Commodity.
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "commoditiy" {
		return Commodity, nil
	}
	for i, n := range variantNames {
		if strings.ToLower(n) == name {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

func (v Variant) MarshalText() ([]byte, error) {
	if int(v) >= len(variantNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, uint8(v))
	}
	return []byte(variantNames[v]), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
