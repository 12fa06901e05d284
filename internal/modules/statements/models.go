// Package statements consolidates per-asset profit-and-loss into annual and
// quarterly platform statements with depreciation, interest and tax.
package statements

// Statement is one period's profit-and-loss, per asset or platform-wide.
// Sign convention follows the model: revenue positive, costs negative, so
// each derived line is a straight sum of the lines above it.
type Statement struct {
	Period  string `json:"period"` // "2031" or "2031-Q2"
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"` // 0 for annual statements

	Revenue      float64 `json:"revenue"`
	AssetOpex    float64 `json:"asset_opex"`    // Negative
	PlatformOpex float64 `json:"platform_opex"` // Negative, platform statements only
	EBITDA       float64 `json:"ebitda"`
	Depreciation float64 `json:"depreciation"` // Negative
	EBIT         float64 `json:"ebit"`
	Interest     float64 `json:"interest"`  // Negative
	Principal    float64 `json:"principal"` // Negative, memo line below EBIT
	EBT          float64 `json:"ebt"`
	Tax          float64 `json:"tax"` // Negative when payable
	NPAT         float64 `json:"npat"`
}

// deriveFromLines recomputes EBITDA through NPAT top-down from the primary
// lines, applying tax only to positive EBT.
func (s *Statement) deriveFromLines(taxRate float64) {
	s.EBITDA = s.Revenue + s.AssetOpex + s.PlatformOpex
	s.EBIT = s.EBITDA + s.Depreciation
	s.EBT = s.EBIT + s.Interest
	if s.EBT > 0 {
		s.Tax = -s.EBT * taxRate
	} else {
		s.Tax = 0
	}
	s.NPAT = s.EBT + s.Tax
}

// Output bundles the statements produced by one build.
type Output struct {
	PerAsset          map[string][]Statement `json:"per_asset"` // Annual, keyed by asset name
	PlatformAnnual    []Statement            `json:"platform_annual"`
	PlatformQuarterly []Statement            `json:"platform_quarterly"`
}
