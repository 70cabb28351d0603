package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/ratiobench/pkg/models"
	"github.com/seenimoa/ratiobench/pkg/utils"
)

const screenerBaseURL = "https://www.screener.in"

// crore is the unit Screener.in reports statement figures in.
var crore = decimal.New(1, 7)

// Screener implements FactsSource by scraping Screener.in company pages.
// Screener only lists Indian companies; it does not publish current assets,
// current liabilities, inventory or gross profit, so the ratios built on
// them stay undefined for facts from this source.
type Screener struct {
	http    *fetcher
	baseURL string
}

// NewScreener creates a new Screener.in data source. An empty baseURL uses
// the public site.
func NewScreener(opts Options, baseURL string) *Screener {
	if baseURL == "" {
		baseURL = screenerBaseURL
	}
	return &Screener{
		http:    newFetcher(opts, nil),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the data source name.
func (s *Screener) Name() string { return "screener" }

// --- Public methods ---

// GetFacts scrapes the profit & loss, balance sheet and headline figures
// for ticker. Consolidated statements are preferred over standalone.
func (s *Screener) GetFacts(ctx context.Context, ticker string) (*models.FinancialFacts, error) {
	normalized := utils.NormalizeTicker(ticker)
	base := utils.FromYFinanceTicker(normalized)
	if base == "" || !utils.IsIndianListing(normalized) {
		return nil, fmt.Errorf("%w: screener.in only lists Indian companies: %q", ErrTickerNotFound, ticker)
	}

	doc, err := s.fetchPage(ctx, base)
	if err != nil {
		return nil, err
	}

	pl := parseScreenerTable(doc, "#profit-loss")
	bs := parseScreenerTable(doc, "#balance-sheet")
	top := parseTopRatios(doc)

	if pl.latest() < 0 || bs.latest() < 0 {
		return nil, fmt.Errorf("%w: incomplete financial statements for %s", ErrInsufficientData, normalized)
	}
	cur := bs.latest()
	prev := cur - 1
	if prev < 0 {
		return nil, fmt.Errorf("%w: not enough history for %s to calculate averages", ErrInsufficientData, normalized)
	}
	inc := pl.latest()

	equity := sumPresent(bs.crores("Equity Capital", cur), bs.crores("Reserves", cur))
	if equity == nil {
		return nil, fmt.Errorf("%w: no shareholders' equity for %s", ErrInsufficientData, normalized)
	}

	interest := pl.crores("Interest", inc)
	var ebit *float64
	if pbt := pl.crores("Profit before tax", inc); pbt != nil {
		ebit = sumPresent(pbt, interest)
	}

	// EPS is the trailing-twelve-month figure when Screener shows one.
	eps := pl.value("EPS in Rs", pl.ttm)
	if eps == nil {
		eps = pl.value("EPS in Rs", inc)
	}
	if eps == nil {
		return nil, fmt.Errorf("%w: %s has no EPS (invalid or delisted ticker)", ErrTickerNotFound, normalized)
	}

	facts := &models.FinancialFacts{
		Ticker:      normalized,
		Source:      "screener",
		Period:      bs.periods[cur],
		PriorPeriod: bs.periods[prev],
		Currency:    "INR",

		TotalDebt:   firstPresent(bs.crores("Borrowings", cur), bs.crores("Borrowing", cur)),
		TotalEquity: equity,
		TotalAssets: bs.crores("Total Assets", cur),

		PriorTotalAssets: bs.crores("Total Assets", prev),
		PriorTotalEquity: sumPresent(bs.crores("Equity Capital", prev), bs.crores("Reserves", prev)),

		TotalRevenue:    firstPresent(pl.crores("Sales", inc), pl.crores("Revenue", inc)),
		EBIT:            ebit,
		EBITDA:          firstPresent(pl.crores("Operating Profit", inc), pl.crores("Financing Profit", inc)),
		InterestExpense: interest,
		NetIncome:       pl.crores("Net Profit", inc),

		SharePrice:        top["Current Price"],
		EPS:               eps,
		MarketCap:         top["Market Cap"],
		BookValuePerShare: top["Book Value"],
	}
	return facts, nil
}

// --- Internal helpers ---

// fetchPage downloads and parses the Screener.in company page, falling back
// to the standalone page when no consolidated page exists.
func (s *Screener) fetchPage(ctx context.Context, symbol string) (*goquery.Document, error) {
	headers := map[string]string{"Accept": "text/html"}

	url := fmt.Sprintf("%s/company/%s/consolidated/", s.baseURL, symbol)
	body, err := s.http.get(ctx, url, headers)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		url = fmt.Sprintf("%s/company/%s/", s.baseURL, symbol)
		body, err = s.http.get(ctx, url, headers)
		if err != nil {
			return nil, fmt.Errorf("screener.in %s: %w", symbol, err)
		}
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse screener HTML: %w", err)
	}
	return doc, nil
}

// screenerTable is one statement table: annual period columns in
// chronological order plus an optional trailing-twelve-month column.
type screenerTable struct {
	periods []string
	ttm     int // column index of TTM, or -1
	rows    map[string][]*decimal.Decimal
}

// latest returns the index of the newest annual column, or -1.
func (t screenerTable) latest() int {
	return len(t.periods) - 1
}

func (t screenerTable) value(label string, col int) *float64 {
	d := t.cell(label, col)
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// crores returns the cell converted from crores to rupees.
func (t screenerTable) crores(label string, col int) *float64 {
	d := t.cell(label, col)
	if d == nil {
		return nil
	}
	f := d.Mul(crore).InexactFloat64()
	return &f
}

func (t screenerTable) cell(label string, col int) *decimal.Decimal {
	if col < 0 {
		return nil
	}
	row, ok := t.rows[label]
	if !ok || col >= len(row) {
		return nil
	}
	return row[col]
}

// parseScreenerTable reads the table inside sectionID. Columns are mapped
// by header so the TTM column is kept apart from the annual periods.
func parseScreenerTable(doc *goquery.Document, sectionID string) screenerTable {
	t := screenerTable{ttm: -1, rows: make(map[string][]*decimal.Decimal)}
	section := doc.Find(sectionID)
	if section.Length() == 0 {
		return t
	}

	// colIndex maps a td position to an output column.
	var colIndex []int
	section.Find("table thead th").Each(func(i int, th *goquery.Selection) {
		if i == 0 { // row label column
			return
		}
		header := strings.TrimSpace(th.Text())
		if strings.EqualFold(header, "TTM") {
			colIndex = append(colIndex, -2)
			return
		}
		colIndex = append(colIndex, len(t.periods))
		t.periods = append(t.periods, header)
	})
	for _, c := range colIndex {
		if c == -2 {
			t.ttm = len(t.periods)
		}
	}

	width := len(t.periods)
	if t.ttm >= 0 {
		width++
	}

	section.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		label := normalizeScreenerLabel(row.Find("td").First().Text())
		if label == "" {
			return
		}
		values := make([]*decimal.Decimal, width)
		row.Find("td").Each(func(i int, cell *goquery.Selection) {
			if i == 0 || i-1 >= len(colIndex) {
				return
			}
			col := colIndex[i-1]
			if col == -2 {
				col = t.ttm
			}
			values[col] = parseScreenerDecimal(cell.Text())
		})
		if _, dup := t.rows[label]; !dup {
			t.rows[label] = values
		}
	})
	return t
}

// parseTopRatios reads the headline list (Market Cap, Current Price, Book
// Value). Market Cap is converted from crores.
func parseTopRatios(doc *goquery.Document) map[string]*float64 {
	out := make(map[string]*float64)
	doc.Find("#top-ratios li").Each(func(_ int, sel *goquery.Selection) {
		name := normalizeScreenerLabel(sel.Find(".name").Text())
		d := parseScreenerDecimal(sel.Find(".number").Text())
		if d == nil {
			return
		}
		switch name {
		case "Market Cap":
			f := d.Mul(crore).InexactFloat64()
			out[name] = &f
		case "Current Price", "Book Value":
			f := d.InexactFloat64()
			out[name] = &f
		}
	})
	return out
}

// normalizeScreenerLabel trims the expand marker ("Sales +") and collapses
// internal whitespace.
func normalizeScreenerLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(s, "+")
	return strings.TrimSpace(s)
}

// parseScreenerDecimal parses a Screener.in number, dropping thousands
// separators, the rupee sign, percent signs and the "Cr." unit. Blank or
// unparseable cells return nil.
func parseScreenerDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.TrimSuffix(strings.TrimSpace(s), "Cr.")
	s = strings.TrimSuffix(s, "Cr")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
