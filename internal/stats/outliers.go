// Package stats holds the numeric helpers of the ranking pipeline: quartile
// based outlier rejection and quantity weighted price averaging.
package stats

import (
	"math"
	"sort"

	"xivmarket/internal/models"
)

// HighSideMultiplier is the IQR multiplier used when pricing listings.
const HighSideMultiplier = 1.2

// Quartiles returns the first and third quartile of values using the lower
// order statistic: the element at floor(q*(n-1)) of the sorted data.
func Quartiles(values []float64) (q1, q3 float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	at := func(q float64) float64 {
		return sorted[int(math.Floor(q*float64(len(sorted)-1)))]
	}
	return at(0.25), at(0.75)
}

// FilterOutliers returns the ascending indices of values lying inside the
// interquartile fences [Q1-f*IQR, Q3+f*IQR]. A disabled side falls back to
// the min or max of the data so it never rejects anything.
func FilterOutliers(values []float64, f float64, filterAbove, filterBelow bool) []int {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return []int{0}
	}

	q1, q3 := Quartiles(values)
	iqr := q3 - q1

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if filterAbove {
		hi = q3 + f*iqr
	}
	if filterBelow {
		lo = q1 - f*iqr
	}

	good := make([]int, 0, len(values))
	for i, v := range values {
		if lo <= v && v <= hi {
			good = append(good, i)
		}
	}
	return good
}

// WeightedAverage prices a set of listings: high-side outliers are dropped
// with multiplier f, the rest is averaged weighted by quantity. The second
// return value reports whether anything was left to average.
func WeightedAverage(listings []models.PriceListing, f float64) (int, bool) {
	if len(listings) == 0 {
		return 0, false
	}
	prices := make([]float64, len(listings))
	for i, l := range listings {
		prices[i] = float64(l.PricePerUnit)
	}

	gil, qty := 0, 0
	for _, i := range FilterOutliers(prices, f, true, false) {
		qty += listings[i].Quantity
		gil += listings[i].Total()
	}
	if qty == 0 {
		return 0, false
	}
	return int(math.RoundToEven(float64(gil) / float64(qty))), true
}

// Round rounds half to even, matching how every derived metric is rounded.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}
