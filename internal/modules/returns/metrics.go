package returns

import "gonum.org/v1/gonum/floats"

// Metrics summarizes an equity cash flow vector for reporting.
type Metrics struct {
	TotalInvested float64  `json:"total_invested"` // Sum of outflows, positive
	TotalReturned float64  `json:"total_returned"` // Sum of inflows
	NetCashFlow   float64  `json:"net_cash_flow"`
	MOIC          float64  `json:"moic"` // Multiple on invested capital
	IRR           *float64 `json:"irr"`  // nil when not meaningful
}

// ComputeMetrics derives summary metrics from an equity vector.
func ComputeMetrics(v EquityCashFlowVector) Metrics {
	var invested, returned float64
	for _, cf := range v.Flows {
		if cf < 0 {
			invested -= cf
		} else {
			returned += cf
		}
	}

	m := Metrics{
		TotalInvested: invested,
		TotalReturned: returned,
		NetCashFlow:   floats.Sum(v.Flows),
		IRR:           v.IRR(),
	}
	if invested > 0 {
		m.MOIC = returned / invested
	}
	return m
}
