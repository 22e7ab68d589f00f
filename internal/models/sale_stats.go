package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// SaleStats accumulates the sale history of one item on one server over a
// window of NDays. NQ and HQ sales are tracked separately.
type SaleStats struct {
	Name   string
	ItemID int
	Server string
	NDays  int

	NQSalesGil      int
	HQSalesGil      int
	NQSalesQuantity int
	HQSalesQuantity int

	Entries []PriceListing
}

func NewSaleStats(name string, itemID int, server string, nDays int) *SaleStats {
	return &SaleStats{Name: name, ItemID: itemID, Server: server, NDays: nDays}
}

// Update folds one sale entry into the totals of its quality tier
func (s *SaleStats) Update(entry PriceListing) {
	if entry.HQ {
		s.HQSalesQuantity += entry.Quantity
		s.HQSalesGil += entry.Total()
	} else {
		s.NQSalesQuantity += entry.Quantity
		s.NQSalesGil += entry.Total()
	}
	s.Entries = append(s.Entries, entry)
}

// Add merges two windows into a new accumulator. A nil operand is the identity.
func (s *SaleStats) Add(other *SaleStats) *SaleStats {
	if other == nil {
		return s
	}
	if s == nil {
		return other
	}
	out := NewSaleStats(s.Name, s.ItemID, s.Server, s.NDays)
	out.NQSalesGil = s.NQSalesGil + other.NQSalesGil
	out.HQSalesGil = s.HQSalesGil + other.HQSalesGil
	out.NQSalesQuantity = s.NQSalesQuantity + other.NQSalesQuantity
	out.HQSalesQuantity = s.HQSalesQuantity + other.HQSalesQuantity
	out.Entries = make([]PriceListing, 0, len(s.Entries)+len(other.Entries))
	out.Entries = append(out.Entries, s.Entries...)
	out.Entries = append(out.Entries, other.Entries...)
	return out
}

func (s *SaleStats) NQAverage() int {
	return roundedAverage(s.NQSalesGil, s.NQSalesQuantity)
}

func (s *SaleStats) HQAverage() int {
	return roundedAverage(s.HQSalesGil, s.HQSalesQuantity)
}

// RemoveOutliers walks the entries in order and drops every entry whose price
// is above threshold times the average of its tier computed without it.
// Tier totals shrink as entries are dropped. The last entry of a tier is kept.
func (s *SaleStats) RemoveOutliers(threshold float64) {
	kept := s.Entries[:0]
	for _, entry := range s.Entries {
		gil, qty := &s.NQSalesGil, &s.NQSalesQuantity
		if entry.HQ {
			gil, qty = &s.HQSalesGil, &s.HQSalesQuantity
		}
		restQty := *qty - entry.Quantity
		restGil := *gil - entry.Total()
		if restQty <= 0 {
			kept = append(kept, entry)
			continue
		}
		adjusted := roundedAverage(restGil, restQty)
		if float64(entry.PricePerUnit) > threshold*float64(adjusted) {
			*gil, *qty = restGil, restQty
			continue
		}
		kept = append(kept, entry)
	}
	s.Entries = kept
}

func (s *SaleStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sale Stats for <%s> over the last %d days on %s:\n", s.Name, s.NDays, s.Server)
	fmt.Fprintf(&b, "  NQ Sales (Gil):        %12s\n", Thousands(s.NQSalesGil))
	fmt.Fprintf(&b, "  NQ Sales (Quantity):   %12s\n", Thousands(s.NQSalesQuantity))
	fmt.Fprintf(&b, "  NQ Sales (Avg. Price): %12s\n\n", Thousands(s.NQAverage()))
	fmt.Fprintf(&b, "  HQ Sales (Gil):        %12s\n", Thousands(s.HQSalesGil))
	fmt.Fprintf(&b, "  HQ Sales (Quantity):   %12s\n", Thousands(s.HQSalesQuantity))
	fmt.Fprintf(&b, "  HQ Sales (Avg. Price): %12s\n", Thousands(s.HQAverage()))
	return b.String()
}

func roundedAverage(gil, qty int) int {
	if qty == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(gil) / float64(qty)))
}

// Thousands formats n with comma separators
func Thousands(n int) string {
	return humanize.Comma(int64(n))
}
