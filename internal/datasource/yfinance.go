package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"go.uber.org/zap"

	"github.com/seenimoa/ratiobench/internal/logger"
	"github.com/seenimoa/ratiobench/pkg/models"
	"github.com/seenimoa/ratiobench/pkg/utils"
)

const (
	yahooBaseURL   = "https://query2.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"

	yahooSummaryModules = "balanceSheetHistory,incomeStatementHistory,financialData,defaultKeyStatistics,summaryDetail,price"
)

// EquityQuoter fetches the market quote for a Yahoo symbol.
type EquityQuoter func(symbol string) (*finance.Equity, error)

// YFinance implements FactsSource using Yahoo Finance: annual statements
// from the quoteSummary API and market fields from the equity quote.
type YFinance struct {
	http      *fetcher
	baseURL   string
	cookieURL string
	quoter    EquityQuoter

	mu    sync.Mutex
	crumb string
}

// YFinanceOption customises a YFinance source.
type YFinanceOption func(*YFinance)

// WithYahooEndpoints overrides the API and cookie endpoints.
func WithYahooEndpoints(baseURL, cookieURL string) YFinanceOption {
	return func(y *YFinance) {
		y.baseURL = strings.TrimRight(baseURL, "/")
		y.cookieURL = cookieURL
	}
}

// WithEquityQuoter replaces the market quote lookup.
func WithEquityQuoter(q EquityQuoter) YFinanceOption {
	return func(y *YFinance) { y.quoter = q }
}

// NewYFinance creates a new Yahoo Finance data source.
func NewYFinance(opts Options, options ...YFinanceOption) *YFinance {
	opts = opts.withDefaults()
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Timeout: opts.Timeout, Jar: jar}

	y := &YFinance{
		http:      newFetcher(opts, client),
		baseURL:   yahooBaseURL,
		cookieURL: yahooCookieURL,
		quoter:    equity.Get,
	}
	for _, o := range options {
		o(y)
	}
	return y
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "yfinance" }

// --- Yahoo Finance quoteSummary types ---

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []yfSummaryResult `json:"result"`
		Error  *yfError          `json:"error"`
	} `json:"quoteSummary"`
}

type yfSummaryResult struct {
	BalanceSheetHistory *struct {
		Statements []yfBalanceSheet `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
	IncomeStatementHistory *struct {
		Statements []yfIncomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	FinancialData        *yfFinancialData   `json:"financialData"`
	DefaultKeyStatistics *yfKeyStatistics   `json:"defaultKeyStatistics"`
	SummaryDetail        *yfSummaryDetail   `json:"summaryDetail"`
	Price                *yfPriceModule     `json:"price"`
}

type yfBalanceSheet struct {
	EndDate                 *yfValue `json:"endDate"`
	TotalCurrentAssets      *yfValue `json:"totalCurrentAssets"`
	TotalCurrentLiabilities *yfValue `json:"totalCurrentLiabilities"`
	Inventory               *yfValue `json:"inventory"`
	Cash                    *yfValue `json:"cash"`
	TotalAssets             *yfValue `json:"totalAssets"`
	TotalStockholderEquity  *yfValue `json:"totalStockholderEquity"`
	ShortLongTermDebt       *yfValue `json:"shortLongTermDebt"`
	LongTermDebt            *yfValue `json:"longTermDebt"`
}

type yfIncomeStatement struct {
	EndDate         *yfValue `json:"endDate"`
	TotalRevenue    *yfValue `json:"totalRevenue"`
	GrossProfit     *yfValue `json:"grossProfit"`
	Ebit            *yfValue `json:"ebit"`
	InterestExpense *yfValue `json:"interestExpense"`
	NetIncome       *yfValue `json:"netIncome"`
}

type yfFinancialData struct {
	CurrentPrice      *yfValue `json:"currentPrice"`
	Ebitda            *yfValue `json:"ebitda"`
	TotalDebt         *yfValue `json:"totalDebt"`
	TotalCash         *yfValue `json:"totalCash"`
	FinancialCurrency string   `json:"financialCurrency"`
}

type yfKeyStatistics struct {
	TrailingEps *yfValue `json:"trailingEps"`
	BookValue   *yfValue `json:"bookValue"`
}

type yfSummaryDetail struct {
	PreviousClose *yfValue `json:"previousClose"`
	MarketCap     *yfValue `json:"marketCap"`
	Currency      string   `json:"currency"`
}

type yfPriceModule struct {
	RegularMarketPrice         *yfValue `json:"regularMarketPrice"`
	RegularMarketPreviousClose *yfValue `json:"regularMarketPreviousClose"`
	MarketCap                  *yfValue `json:"marketCap"`
	Currency                   string   `json:"currency"`
}

// yfValue is Yahoo's {"raw": 1.5, "fmt": "1.50"} wrapper. Missing keys and
// empty objects both decode to a nil Raw.
type yfValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v *yfValue) ptr() *float64 {
	if v == nil || v.Raw == nil {
		return nil
	}
	f := *v.Raw
	return &f
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetFacts returns the latest two annual balance sheets, the latest income
// statement and market data for ticker.
func (y *YFinance) GetFacts(ctx context.Context, ticker string) (*models.FinancialFacts, error) {
	sym := utils.ToYFinanceTicker(ticker)
	if sym == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrTickerNotFound)
	}

	summary, err := y.fetchSummary(ctx, sym)
	if err != nil {
		return nil, err
	}

	eq, err := y.fetchEquity(ctx, sym)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The summary modules carry the same market fields.
		logger.FromContext(ctx).Debug("yfinance equity quote failed",
			zap.String("ticker", sym), zap.Error(err))
		eq = nil
	}

	return buildYFFacts(sym, summary, eq)
}

// fetchSummary downloads and decodes the quoteSummary modules, refreshing
// the crumb once if Yahoo rejects it.
func (y *YFinance) fetchSummary(ctx context.Context, sym string) (*yfSummaryResult, error) {
	data, err := y.getSummary(ctx, sym)
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
		y.resetCrumb()
		data, err = y.getSummary(ctx, sym)
	}
	if err != nil {
		return nil, fmt.Errorf("yfinance financials %s: %w", sym, err)
	}

	var resp yfSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance financials: %w", err)
	}

	if e := resp.QuoteSummary.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, fmt.Errorf("%w: %s: %s", ErrTickerNotFound, sym, e.Description)
		}
		return nil, fmt.Errorf("yfinance API error: %s", e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
	}
	return &resp.QuoteSummary.Result[0], nil
}

func (y *YFinance) getSummary(ctx context.Context, sym string) ([]byte, error) {
	crumb, err := y.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s&crumb=%s",
		y.baseURL, url.PathEscape(sym), yahooSummaryModules, url.QueryEscape(crumb))
	body, err := y.http.get(ctx, u, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

// ensureCrumb obtains the session cookie and crumb Yahoo requires on its
// API endpoints. The crumb is reused until Yahoo rejects it.
func (y *YFinance) ensureCrumb(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.crumb != "" {
		return y.crumb, nil
	}

	// The cookie endpoint answers 404 but still sets the session cookie.
	if body, err := y.http.get(ctx, y.cookieURL, map[string]string{"Accept": "text/html"}); err == nil {
		body.Close()
	} else if ctx.Err() != nil {
		return "", ctx.Err()
	}

	body, err := y.http.get(ctx, y.baseURL+"/v1/test/getcrumb", map[string]string{
		"Accept":  "text/plain",
		"Origin":  "https://finance.yahoo.com",
		"Referer": "https://finance.yahoo.com/",
	})
	if err != nil {
		return "", fmt.Errorf("yfinance crumb: %w", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, 256))
	if err != nil {
		return "", fmt.Errorf("read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(raw))
	if crumb == "" || strings.Contains(crumb, "<") {
		return "", errors.New("yfinance crumb: invalid crumb received")
	}
	y.crumb = crumb
	return crumb, nil
}

func (y *YFinance) resetCrumb() {
	y.mu.Lock()
	y.crumb = ""
	y.mu.Unlock()
}

// fetchEquity runs the quote lookup, abandoning it if ctx ends first.
func (y *YFinance) fetchEquity(ctx context.Context, sym string) (*finance.Equity, error) {
	if y.quoter == nil {
		return nil, errors.New("no equity quoter configured")
	}
	type result struct {
		eq  *finance.Equity
		err error
	}
	ch := make(chan result, 1)
	go func() {
		eq, err := y.quoter(sym)
		ch <- result{eq, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err == nil && r.eq == nil {
			return nil, fmt.Errorf("%w: no quote for %s", ErrTickerNotFound, sym)
		}
		return r.eq, r.err
	}
}

// --- Helpers ---

// buildYFFacts maps the Yahoo payloads onto FinancialFacts and applies the
// completeness checks: trailing EPS must exist, both statements must be
// present with stockholders' equity, and two balance sheets are needed for
// the averaged ratios.
func buildYFFacts(sym string, r *yfSummaryResult, eq *finance.Equity) (*models.FinancialFacts, error) {
	if r.FinancialData == nil {
		r.FinancialData = &yfFinancialData{}
	}
	if r.DefaultKeyStatistics == nil {
		r.DefaultKeyStatistics = &yfKeyStatistics{}
	}
	if r.SummaryDetail == nil {
		r.SummaryDetail = &yfSummaryDetail{}
	}
	if r.Price == nil {
		r.Price = &yfPriceModule{}
	}
	fd, ks, sd, pm := r.FinancialData, r.DefaultKeyStatistics, r.SummaryDetail, r.Price

	var eqPrice, eqPrevClose, eqEPS, eqMarketCap, eqBook *float64
	if eq != nil {
		eqPrice = nonZero(eq.RegularMarketPrice)
		eqPrevClose = nonZero(eq.RegularMarketPreviousClose)
		eqEPS = nonZero(eq.EpsTrailingTwelveMonths)
		eqMarketCap = nonZero(float64(eq.MarketCap))
		eqBook = nonZero(eq.BookValue)
	}

	eps := firstPresent(eqEPS, ks.TrailingEps.ptr())
	if eps == nil && eq != nil {
		// The quote loaded, so its zero EPS is a reported value.
		zero := eq.EpsTrailingTwelveMonths
		eps = &zero
	}
	if eps == nil {
		return nil, fmt.Errorf("%w: %s has no trailing EPS (invalid or delisted ticker)", ErrTickerNotFound, sym)
	}

	var bs []yfBalanceSheet
	if r.BalanceSheetHistory != nil {
		bs = r.BalanceSheetHistory.Statements
	}
	var is []yfIncomeStatement
	if r.IncomeStatementHistory != nil {
		is = r.IncomeStatementHistory.Statements
	}
	if len(bs) == 0 || len(is) == 0 || bs[0].TotalStockholderEquity.ptr() == nil {
		return nil, fmt.Errorf("%w: incomplete financial statements for %s", ErrInsufficientData, sym)
	}
	if len(bs) < 2 {
		return nil, fmt.Errorf("%w: not enough history for %s to calculate averages", ErrInsufficientData, sym)
	}

	cur, prev, inc := bs[0], bs[1], is[0]

	facts := &models.FinancialFacts{
		Ticker:      sym,
		Source:      "yfinance",
		Period:      cur.EndDate.fmtString(),
		PriorPeriod: prev.EndDate.fmtString(),
		Currency:    coalesce(fd.FinancialCurrency, pm.Currency, sd.Currency),

		CurrentAssets:      cur.TotalCurrentAssets.ptr(),
		CurrentLiabilities: cur.TotalCurrentLiabilities.ptr(),
		Inventory:          cur.Inventory.ptr(),
		TotalDebt:          firstPresent(sumPresent(cur.ShortLongTermDebt.ptr(), cur.LongTermDebt.ptr()), fd.TotalDebt.ptr()),
		TotalEquity:        cur.TotalStockholderEquity.ptr(),
		Cash:               firstPresent(cur.Cash.ptr(), fd.TotalCash.ptr()),
		TotalAssets:        cur.TotalAssets.ptr(),

		PriorTotalAssets: prev.TotalAssets.ptr(),
		PriorTotalEquity: prev.TotalStockholderEquity.ptr(),

		TotalRevenue:    inc.TotalRevenue.ptr(),
		GrossProfit:     inc.GrossProfit.ptr(),
		EBIT:            inc.Ebit.ptr(),
		EBITDA:          fd.Ebitda.ptr(),
		InterestExpense: absPtr(inc.InterestExpense.ptr()),
		NetIncome:       inc.NetIncome.ptr(),

		SharePrice: firstPresent(
			eqPrice, nonZeroPtr(pm.RegularMarketPrice.ptr()), nonZeroPtr(fd.CurrentPrice.ptr()),
			eqPrevClose, nonZeroPtr(pm.RegularMarketPreviousClose.ptr()), nonZeroPtr(sd.PreviousClose.ptr()),
		),
		EPS:               eps,
		MarketCap:         firstPresent(eqMarketCap, pm.MarketCap.ptr(), sd.MarketCap.ptr()),
		BookValuePerShare: firstPresent(eqBook, ks.BookValue.ptr()),
	}
	return facts, nil
}

func (v *yfValue) fmtString() string {
	if v == nil {
		return ""
	}
	return v.Fmt
}

func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func nonZeroPtr(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func firstPresent(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// sumPresent adds the present values; nil when none is present.
func sumPresent(values ...*float64) *float64 {
	var sum *float64
	for _, v := range values {
		if v == nil {
			continue
		}
		if sum == nil {
			sum = new(float64)
		}
		*sum += *v
	}
	return sum
}

// absPtr normalises sign conventions: Yahoo reports interest expense as a
// negative number in some statements.
func absPtr(v *float64) *float64 {
	if v == nil || *v >= 0 {
		return v
	}
	a := -*v
	return &a
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
