package money

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a value cannot be interpreted as a monetary amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Minor represents a monetary value stored in integer minor units (cents).
// Every comparison and arithmetic operation on money uses Minor.
type Minor int64

// Display represents a human-facing amount in major units, e.g. 29.99.
// It is reference and presentation data only; convert to Minor before comparing.
type Display struct {
	d decimal.Decimal
}

// NewDisplay wraps a decimal value as a display amount.
func NewDisplay(d decimal.Decimal) Display {
	return Display{d: d}
}

// ParseDisplay parses a decimal string such as "29.99".
func ParseDisplay(value string) (Display, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Display{}, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Display{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return Display{d: d}, nil
}

// MustDisplay behaves like ParseDisplay but panics on error. Intended for static tables and tests.
func MustDisplay(value string) Display {
	d, err := ParseDisplay(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Decimal exposes the underlying decimal value.
func (d Display) Decimal() decimal.Decimal { return d.d }

// Minor converts the display amount into minor units, rounding half away from zero.
func (d Display) Minor() Minor {
	return Minor(d.d.Shift(2).Round(0).IntPart())
}

// String renders the amount with exactly two fractional digits.
func (d Display) String() string { return d.d.StringFixed(2) }

// MarshalJSON renders the display amount as a fixed two-digit decimal string.
func (d Display) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (d *Display) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*d = Display{}
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	parsed, err := ParseDisplay(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FromDisplay converts a display amount into minor units.
func FromDisplay(d Display) Minor { return d.Minor() }

// Display converts minor units back into a display amount.
func (m Minor) Display() Display {
	return Display{d: decimal.New(int64(m), -2)}
}

// String renders minor units as a two-digit decimal string, e.g. 2999 -> "29.99".
func (m Minor) String() string { return m.Display().String() }

// Dollars renders the amount with a currency sign for customer-facing messages.
func (m Minor) Dollars() string { return "$" + m.String() }

// Times multiplies a unit amount by a quantity.
func (m Minor) Times(qty int) Minor { return m * Minor(qty) }

// NonNegative clamps negative amounts to zero.
func (m Minor) NonNegative() Minor {
	if m < 0 {
		return 0
	}
	return m
}

// RoundDecimal rounds half away from zero at the given number of decimal places.
func RoundDecimal(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Round(places)
}

// ParseMinorUnits interprets a storefront price that may arrive either as a
// display decimal ("14.49") or as integer minor units ("1449"). A decimal point
// marks the display form. Negative and non-numeric values are rejected.
func ParseMinorUnits(raw string) (Minor, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	var amount Minor
	if strings.Contains(trimmed, ".") {
		d, err := ParseDisplay(trimmed)
		if err != nil {
			return 0, err
		}
		amount = d.Minor()
	} else {
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
		amount = Minor(v)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative value %q", ErrInvalidAmount, raw)
	}
	return amount, nil
}

// WireAmount decodes a storefront price field in either supported format into minor units.
type WireAmount Minor

// Minor returns the decoded value in minor units.
func (w WireAmount) Minor() Minor { return Minor(w) }

// UnmarshalJSON accepts JSON numbers and quoted strings.
func (w *WireAmount) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("%w: missing value", ErrInvalidAmount)
	}
	value := string(raw)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(value)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, value)
		}
		value = unquoted
	}
	parsed, err := ParseMinorUnits(value)
	if err != nil {
		return err
	}
	*w = WireAmount(parsed)
	return nil
}

// MarshalJSON renders the amount in minor units.
func (w WireAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(w))
}
