// Package investing implements the depot: instruments with savings plans,
// their monthly histories and the ledger derived from both.
package investing

// GrowthRate is a yearly growth in whole percent, used as a comparison line.
type GrowthRate uint8

// Investing is the investing block of the document.
type Investing struct {
	Comparisons []GrowthRate `yaml:"comparisons"`
	Depot       Depot        `yaml:"depot"`
}

func NewInvesting() *Investing {
	return &Investing{Comparisons: []GrowthRate{}, Depot: *NewDepot()}
}

func (inv *Investing) AddComparison(rate GrowthRate) {
	inv.Comparisons = append(inv.Comparisons, rate)
}

// Clone returns a deep copy.
func (inv *Investing) Clone() *Investing {
	return &Investing{
		Comparisons: append([]GrowthRate{}, inv.Comparisons...),
		Depot:       *inv.Depot.Clone(),
	}
}
