package investing

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"finanzbuch/internal/core"
)

// MonthField selects one of the editable values of a Month.
type MonthField uint8

const (
	FieldAmount MonthField = iota
	FieldPricePerUnit
	FieldAdditionalTransactions
)

func (f MonthField) String() string {
	switch f {
	case FieldAmount:
		return "amount"
	case FieldPricePerUnit:
		return "price_per_unit"
	case FieldAdditionalTransactions:
		return "additional_transactions"
	}
	return fmt.Sprintf("MonthField(%d)", uint8(f))
}

// ParseMonthField accepts the document field names and a few short aliases.
func ParseMonthField(s string) (MonthField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amount":
		return FieldAmount, nil
	case "price_per_unit", "price", "priceperunit":
		return FieldPricePerUnit, nil
	case "additional_transactions", "additional", "additionaltransactions":
		return FieldAdditionalTransactions, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f MonthField) MarshalText() ([]byte, error) {
	if f > FieldAdditionalTransactions {
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, uint8(f))
	}
	return []byte(f.String()), nil
}

func (f *MonthField) UnmarshalText(text []byte) error {
	parsed, err := ParseMonthField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Month is one of the twelve slots of a Year. Its number is fixed at
// construction; monetary values are rounded to cents on every write.
type Month struct {
	nr                     uint8
	amount                 float64
	pricePerUnit           float64
	additionalTransactions float64
}

// NewMonth validates nr and sanitizes the monetary values.
// All monetary values are stored as absolute values rounded to cents.
func NewMonth(nr uint8, amount, pricePerUnit, additionalTransactions float64) (Month, error) {
	if nr < 1 || nr > 12 {
		return Month{}, fmt.Errorf("%w: %w: %d", ErrInvalidMonthNr, core.ErrInvalidMonth, nr)
	}
	return Month{
		nr:                     nr,
		amount:                 core.RoundMonetaryAbs(amount),
		pricePerUnit:           core.RoundMonetaryAbs(pricePerUnit),
		additionalTransactions: core.RoundMonetaryAbs(additionalTransactions),
	}, nil
}

func (m Month) Nr() uint8                       { return m.nr }
func (m Month) Amount() float64                 { return m.amount }
func (m Month) PricePerUnit() float64           { return m.pricePerUnit }
func (m Month) AdditionalTransactions() float64 { return m.additionalTransactions }

// Value is amount times price per unit.
func (m Month) Value() float64 { return m.amount * m.pricePerUnit }

func (m *Month) SetAmount(v float64)                 { m.amount = core.RoundMonetaryAbs(v) }
func (m *Month) SetPricePerUnit(v float64)           { m.pricePerUnit = core.RoundMonetaryAbs(v) }
func (m *Month) SetAdditionalTransactions(v float64) { m.additionalTransactions = core.RoundMonetaryAbs(v) }

// Set writes the field selected by f.
func (m *Month) Set(f MonthField, v float64) error {
	switch f {
	case FieldAmount:
		m.SetAmount(v)
	case FieldPricePerUnit:
		m.SetPricePerUnit(v)
	case FieldAdditionalTransactions:
		m.SetAdditionalTransactions(v)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownField, uint8(f))
	}
	return nil
}

// Get reads the field selected by f.
func (m Month) Get(f MonthField) (float64, error) {
	switch f {
	case FieldAmount:
		return m.amount, nil
	case FieldPricePerUnit:
		return m.pricePerUnit, nil
	case FieldAdditionalTransactions:
		return m.additionalTransactions, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownField, uint8(f))
}

type monthDoc struct {
	Nr                     uint8   `yaml:"month_nr"`
	Amount                 float64 `yaml:"amount"`
	PricePerUnit           float64 `yaml:"price_per_unit"`
	AdditionalTransactions float64 `yaml:"additional_transactions"`
}

func (m Month) MarshalYAML() (interface{}, error) {
	return monthDoc{
		Nr:                     m.nr,
		Amount:                 m.amount,
		PricePerUnit:           m.pricePerUnit,
		AdditionalTransactions: m.additionalTransactions,
	}, nil
}

func (m *Month) UnmarshalYAML(value *yaml.Node) error {
	var doc monthDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	month, err := NewMonth(doc.Nr, doc.Amount, doc.PricePerUnit, doc.AdditionalTransactions)
	if err != nil {
		return err
	}
	*m = month
	return nil
}
