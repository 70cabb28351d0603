package models

// FinancialFacts holds the raw statement figures for one entity.
// Every line item is optional: a nil pointer means the figure was not
// reported, which is different from a reported zero.
type FinancialFacts struct {
	Ticker      string `json:"ticker"`
	Source      string `json:"source,omitempty"`       // data source that produced the figures
	Period      string `json:"period,omitempty"`       // e.g., "2025-03-31"
	PriorPeriod string `json:"prior_period,omitempty"` // period of the prior balance sheet
	Currency    string `json:"currency,omitempty"`

	// Balance sheet (latest period)
	CurrentAssets      *float64 `json:"current_assets"`
	CurrentLiabilities *float64 `json:"current_liabilities"`
	Inventory          *float64 `json:"inventory"`
	TotalDebt          *float64 `json:"total_debt"`
	TotalEquity        *float64 `json:"total_equity"`
	Cash               *float64 `json:"cash"`
	TotalAssets        *float64 `json:"total_assets"`

	// Balance sheet (prior period)
	PriorTotalAssets *float64 `json:"prior_total_assets"`
	PriorTotalEquity *float64 `json:"prior_total_equity"`

	// Income statement (latest period)
	TotalRevenue    *float64 `json:"total_revenue"`
	GrossProfit     *float64 `json:"gross_profit"`
	EBIT            *float64 `json:"ebit"`
	EBITDA          *float64 `json:"ebitda"`
	InterestExpense *float64 `json:"interest_expense"`
	NetIncome       *float64 `json:"net_income"`

	// Market data
	SharePrice        *float64 `json:"share_price"`
	EPS               *float64 `json:"eps"`
	MarketCap         *float64 `json:"market_cap"`
	BookValuePerShare *float64 `json:"book_value_per_share"`
}

// IsEmpty reports whether no line item is present.
func (f *FinancialFacts) IsEmpty() bool {
	if f == nil {
		return true
	}
	for _, v := range f.lineItems() {
		if v != nil {
			return false
		}
	}
	return true
}

// Present returns the number of line items that carry a value.
func (f *FinancialFacts) Present() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, v := range f.lineItems() {
		if v != nil {
			n++
		}
	}
	return n
}

func (f *FinancialFacts) lineItems() []*float64 {
	return []*float64{
		f.CurrentAssets, f.CurrentLiabilities, f.Inventory, f.TotalDebt,
		f.TotalEquity, f.Cash, f.TotalAssets, f.PriorTotalAssets,
		f.PriorTotalEquity, f.TotalRevenue, f.GrossProfit, f.EBIT, f.EBITDA,
		f.InterestExpense, f.NetIncome, f.SharePrice, f.EPS, f.MarketCap,
		f.BookValuePerShare,
	}
}

// Float returns a pointer to v for populating optional fields.
func Float(v float64) *float64 {
	return &v
}
