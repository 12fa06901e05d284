package pricing

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SmoothingMethod selects the moving average used to smooth a curve.
type SmoothingMethod string

const (
	SmoothingSMA SmoothingMethod = "sma"
	SmoothingEMA SmoothingMethod = "ema"
)

// CurveStats summarizes a price curve for display and sanity checks.
type CurveStats struct {
	Points int     `json:"points"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// SmoothCurve returns a copy of the curve with prices run through a moving
// average. The warmup prefix (the first window-1 points, where the average is
// not yet defined) keeps its original prices. Curves shorter than the window
// are returned unchanged.
func SmoothCurve(points []PricePoint, window int, method SmoothingMethod) ([]PricePoint, error) {
	if window < 2 {
		return nil, fmt.Errorf("smoothing window must be at least 2, got %d", window)
	}
	if len(points) < window {
		out := make([]PricePoint, len(points))
		copy(out, points)
		return out, nil
	}

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	var smoothed []float64
	switch method {
	case SmoothingEMA:
		smoothed = talib.Ema(prices, window)
	case SmoothingSMA:
		smoothed = talib.Sma(prices, window)
	default:
		return nil, fmt.Errorf("unknown smoothing method %q", method)
	}

	out := make([]PricePoint, len(points))
	copy(out, points)
	for i := window - 1; i < len(out); i++ {
		out[i].Price = smoothed[i]
	}
	return out, nil
}

// Stats summarizes a curve's prices.
func Stats(points []PricePoint) CurveStats {
	if len(points) == 0 {
		return CurveStats{}
	}

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}

	return CurveStats{
		Points: len(points),
		Mean:   stat.Mean(prices, nil),
		StdDev: stat.StdDev(prices, nil),
		Min:    floats.Min(prices),
		Max:    floats.Max(prices),
	}
}
