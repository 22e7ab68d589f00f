package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xivmarket/internal/models"
)

func listings(qty []int, price []int) []models.PriceListing {
	out := make([]models.PriceListing, len(qty))
	for i := range qty {
		out[i] = models.PriceListing{Quantity: qty[i], PricePerUnit: price[i]}
	}
	return out
}

func TestFilterOutliersEqualPrices(t *testing.T) {
	values := []float64{42, 42, 42, 42, 42, 42, 42}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, FilterOutliers(values, 1.5, true, true))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, FilterOutliers(values, 0, true, true))
}

func TestFilterOutliersSingleElement(t *testing.T) {
	assert.Equal(t, []int{0}, FilterOutliers([]float64{9000}, 1.2, true, false))
	assert.Empty(t, FilterOutliers(nil, 1.2, true, true))
}

func TestFilterOutliersDropsExpensiveListing(t *testing.T) {
	assert.Equal(t, []int{0, 1}, FilterOutliers([]float64{10, 10, 100}, 1.2, true, false))
	assert.Equal(t, []int{0, 1, 2, 3}, FilterOutliers([]float64{100, 110, 120, 130, 1000}, 1.5, true, true))
}

func TestFilterOutliersSides(t *testing.T) {
	values := []float64{1, 100, 101, 102, 103, 104, 500}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, FilterOutliers(values, 1.5, true, true))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, FilterOutliers(values, 1.5, true, false))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, FilterOutliers(values, 1.5, false, true))
	assert.Len(t, FilterOutliers(values, 1.5, false, false), len(values))
}

func TestQuartiles(t *testing.T) {
	q1, q3 := Quartiles([]float64{7, 1, 5, 3, 9})
	assert.Equal(t, 3.0, q1)
	assert.Equal(t, 7.0, q3)
}

func TestWeightedAverageExample(t *testing.T) {
	price, ok := WeightedAverage(listings([]int{1, 2, 3}, []int{10, 10, 100}), HighSideMultiplier)
	require.True(t, ok)
	assert.Equal(t, 10, price)
}

func TestWeightedAverageWeightsByQuantity(t *testing.T) {
	price, ok := WeightedAverage(listings([]int{1, 3}, []int{100, 120}), HighSideMultiplier)
	require.True(t, ok)
	// The 120 listing sits above Q3 + 1.2*IQR of a two element set, only 100 survives.
	assert.Equal(t, 100, price)

	price, ok = WeightedAverage(listings([]int{1, 3, 2, 2}, []int{100, 110, 100, 110}), HighSideMultiplier)
	require.True(t, ok)
	assert.Equal(t, 106, price)
}

func TestWeightedAverageEmpty(t *testing.T) {
	price, ok := WeightedAverage(nil, HighSideMultiplier)
	assert.False(t, ok)
	assert.Zero(t, price)

	price, ok = WeightedAverage(listings([]int{0}, []int{50}), HighSideMultiplier)
	assert.False(t, ok)
	assert.Zero(t, price)
}

func TestWeightedAverageOrderInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := listings(
		[]int{1, 5, 2, 99, 3, 4, 1, 10, 7},
		[]int{500, 520, 480, 510, 9000, 505, 495, 515, 30000},
	)
	want, ok := WeightedAverage(base, HighSideMultiplier)
	require.True(t, ok)

	for i := 0; i < 50; i++ {
		shuffled := append([]models.PriceListing(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, ok := WeightedAverage(shuffled, HighSideMultiplier)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 600, Round(60*120*5/60.0))
	assert.Equal(t, 2, Round(2.5))
	assert.Equal(t, 4, Round(3.5))
}
