package debt

// ConstructionEquityOutlays returns the construction-phase equity outlays
// for an asset as negative cash flows, ordered chronologically. These become
// the leading entries of the asset's equity cash flow vector.
//
// With upfront timing the full equity cheque lands in a single period.
// Otherwise it is spread evenly over the construction years, one outlay per
// started year of construction.
func ConstructionEquityOutlays(capex, debtAmount float64, upfront bool, constructionMonths int) []float64 {
	equity := capex - debtAmount
	if equity < 0 {
		equity = 0
	}

	if upfront || constructionMonths <= 0 {
		return []float64{-equity}
	}

	years := (constructionMonths + 11) / 12
	outlays := make([]float64, years)
	perYear := equity / float64(years)
	for i := range outlays {
		outlays[i] = -perYear
	}
	return outlays
}
