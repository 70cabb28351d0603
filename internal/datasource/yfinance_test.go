package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	finance "github.com/piquette/finance-go"
)

const yfSummaryFixture = `{
  "quoteSummary": {
    "result": [{
      "balanceSheetHistory": {"balanceSheetStatements": [
        {"endDate": {"raw": 1711843200, "fmt": "2024-03-31"},
         "totalCurrentAssets": {"raw": 2000},
         "totalCurrentLiabilities": {"raw": 1000},
         "inventory": {"raw": 300},
         "cash": {"raw": 150},
         "totalAssets": {"raw": 10000},
         "totalStockholderEquity": {"raw": 6000},
         "shortLongTermDebt": {"raw": 200},
         "longTermDebt": {"raw": 800}},
        {"endDate": {"raw": 1680220800, "fmt": "2023-03-31"},
         "totalAssets": {"raw": 9000},
         "totalStockholderEquity": {"raw": 5000}}
      ]},
      "incomeStatementHistory": {"incomeStatementHistory": [
        {"endDate": {"fmt": "2024-03-31"},
         "totalRevenue": {"raw": 8000},
         "grossProfit": {"raw": 3200},
         "ebit": {"raw": 1500},
         "interestExpense": {"raw": -100},
         "netIncome": {"raw": 1100}}
      ]},
      "financialData": {"currentPrice": {"raw": 410}, "ebitda": {"raw": 1900}, "totalDebt": {"raw": 999}, "financialCurrency": "INR"},
      "defaultKeyStatistics": {"trailingEps": {"raw": 21}, "bookValue": {"raw": 55}},
      "summaryDetail": {"previousClose": {"raw": 405}, "marketCap": {"raw": 50000}},
      "price": {"regularMarketPrice": {}, "currency": "INR"}
    }],
    "error": null
  }
}`

type yahooStub struct {
	srv          *httptest.Server
	crumbCalls   atomic.Int32
	summaryCalls atomic.Int32
	rejectFirst  atomic.Bool
	summary      string
}

func newYahooStub(t *testing.T, summary string) *yahooStub {
	t.Helper()
	s := &yahooStub{summary: summary}
	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		s.crumbCalls.Add(1)
		if _, err := r.Cookie("A3"); err != nil {
			http.Error(w, "no cookie", http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, "crumb%d", s.crumbCalls.Load())
	})
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		n := s.summaryCalls.Add(1)
		if s.rejectFirst.Load() && n == 1 {
			http.Error(w, `{"finance":{"error":{"code":"Unauthorized"}}}`, http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("crumb") == "" {
			http.Error(w, "missing crumb", http.StatusUnauthorized)
			return
		}
		if !strings.Contains(r.URL.Query().Get("modules"), "balanceSheetHistory") {
			t.Errorf("modules = %q", r.URL.Query().Get("modules"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, s.summary)
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *yahooStub) source(q EquityQuoter) *YFinance {
	return NewYFinance(Options{}, WithYahooEndpoints(s.srv.URL, s.srv.URL+"/cookie"), WithEquityQuoter(q))
}

func noQuote(string) (*finance.Equity, error) {
	return nil, errors.New("quote service down")
}

func TestYFinanceName(t *testing.T) {
	yf := NewYFinance(Options{})
	if yf.Name() != "yfinance" {
		t.Errorf("Name() = %q, want %q", yf.Name(), "yfinance")
	}
}

func TestYFinanceGetFacts(t *testing.T) {
	stub := newYahooStub(t, yfSummaryFixture)
	yf := stub.source(func(symbol string) (*finance.Equity, error) {
		if symbol != "TCS.NS" {
			t.Errorf("quote symbol = %q", symbol)
		}
		eq := &finance.Equity{}
		eq.RegularMarketPrice = 420
		eq.EpsTrailingTwelveMonths = 20
		eq.MarketCap = 60000
		eq.BookValue = 0 // falls back to defaultKeyStatistics
		return eq, nil
	})

	f, err := yf.GetFacts(context.Background(), "tcs")
	if err != nil {
		t.Fatalf("GetFacts() error: %v", err)
	}

	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"CurrentAssets", f.CurrentAssets, 2000},
		{"CurrentLiabilities", f.CurrentLiabilities, 1000},
		{"Inventory", f.Inventory, 300},
		{"Cash", f.Cash, 150},
		{"TotalDebt", f.TotalDebt, 1000},
		{"TotalEquity", f.TotalEquity, 6000},
		{"TotalAssets", f.TotalAssets, 10000},
		{"PriorTotalAssets", f.PriorTotalAssets, 9000},
		{"PriorTotalEquity", f.PriorTotalEquity, 5000},
		{"TotalRevenue", f.TotalRevenue, 8000},
		{"GrossProfit", f.GrossProfit, 3200},
		{"EBIT", f.EBIT, 1500},
		{"EBITDA", f.EBITDA, 1900},
		{"InterestExpense", f.InterestExpense, 100},
		{"NetIncome", f.NetIncome, 1100},
		{"SharePrice", f.SharePrice, 420},
		{"EPS", f.EPS, 20},
		{"MarketCap", f.MarketCap, 60000},
		{"BookValuePerShare", f.BookValuePerShare, 55},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s is absent, want %v", c.name, c.want)
			continue
		}
		if *c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, *c.got, c.want)
		}
	}

	if f.Ticker != "TCS.NS" || f.Source != "yfinance" || f.Currency != "INR" {
		t.Errorf("unexpected metadata: %q %q %q", f.Ticker, f.Source, f.Currency)
	}
	if f.Period != "2024-03-31" || f.PriorPeriod != "2023-03-31" {
		t.Errorf("periods = %q / %q", f.Period, f.PriorPeriod)
	}
}

func TestYFinanceQuoteFallback(t *testing.T) {
	stub := newYahooStub(t, yfSummaryFixture)
	f, err := stub.source(noQuote).GetFacts(context.Background(), "TCS")
	if err != nil {
		t.Fatalf("GetFacts() error: %v", err)
	}
	// price.regularMarketPrice is empty, so financialData.currentPrice wins.
	if f.SharePrice == nil || *f.SharePrice != 410 {
		t.Errorf("SharePrice = %v, want 410", f.SharePrice)
	}
	if f.EPS == nil || *f.EPS != 21 {
		t.Errorf("EPS = %v, want 21", f.EPS)
	}
	if f.MarketCap == nil || *f.MarketCap != 50000 {
		t.Errorf("MarketCap = %v, want 50000", f.MarketCap)
	}
}

func TestYFinanceZeroEPSFromQuote(t *testing.T) {
	noEPS := strings.Replace(yfSummaryFixture, `"trailingEps": {"raw": 21}`, `"trailingEps": {}`, 1)
	stub := newYahooStub(t, noEPS)
	f, err := stub.source(func(string) (*finance.Equity, error) {
		eq := &finance.Equity{}
		eq.RegularMarketPrice = 420
		return eq, nil
	}).GetFacts(context.Background(), "TCS")
	if err != nil {
		t.Fatalf("GetFacts() error: %v", err)
	}
	if f.EPS == nil || *f.EPS != 0 {
		t.Errorf("EPS = %v, want a reported 0", f.EPS)
	}
}

func TestYFinanceCrumbReused(t *testing.T) {
	stub := newYahooStub(t, yfSummaryFixture)
	yf := stub.source(noQuote)

	for i := 0; i < 2; i++ {
		if _, err := yf.GetFacts(context.Background(), "TCS"); err != nil {
			t.Fatalf("GetFacts() #%d error: %v", i, err)
		}
	}
	if n := stub.crumbCalls.Load(); n != 1 {
		t.Errorf("crumb fetched %d times, want 1", n)
	}
}

func TestYFinanceCrumbRefreshedOnUnauthorized(t *testing.T) {
	stub := newYahooStub(t, yfSummaryFixture)
	stub.rejectFirst.Store(true)

	if _, err := stub.source(noQuote).GetFacts(context.Background(), "TCS"); err != nil {
		t.Fatalf("GetFacts() error: %v", err)
	}
	if n := stub.crumbCalls.Load(); n != 2 {
		t.Errorf("crumb fetched %d times, want 2", n)
	}
	if n := stub.summaryCalls.Load(); n != 2 {
		t.Errorf("summary fetched %d times, want 2", n)
	}
}

func TestYFinanceCompletenessChecks(t *testing.T) {
	noEPS := strings.Replace(yfSummaryFixture, `"trailingEps": {"raw": 21}`, `"trailingEps": {}`, 1)
	onePeriod := `{"quoteSummary":{"result":[{
		"balanceSheetHistory":{"balanceSheetStatements":[{"totalStockholderEquity":{"raw":10}}]},
		"incomeStatementHistory":{"incomeStatementHistory":[{"netIncome":{"raw":1}}]},
		"defaultKeyStatistics":{"trailingEps":{"raw":2}}}]}}`
	noEquity := `{"quoteSummary":{"result":[{
		"balanceSheetHistory":{"balanceSheetStatements":[{"totalAssets":{"raw":10}},{"totalAssets":{"raw":9}}]},
		"incomeStatementHistory":{"incomeStatementHistory":[{"netIncome":{"raw":1}}]},
		"defaultKeyStatistics":{"trailingEps":{"raw":2}}}]}}`
	notFound := `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found for ticker symbol: NOPE.NS"}}}`

	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"no trailing eps", noEPS, ErrTickerNotFound},
		{"single balance sheet", onePeriod, ErrInsufficientData},
		{"no equity", noEquity, ErrInsufficientData},
		{"unknown symbol", notFound, ErrTickerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newYahooStub(t, tt.payload)
			_, err := stub.source(noQuote).GetFacts(context.Background(), "NOPE")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestYFinanceEmptyTicker(t *testing.T) {
	_, err := NewYFinance(Options{}).GetFacts(context.Background(), "  ")
	if !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("expected ErrTickerNotFound, got %v", err)
	}
}

func TestYFValuePtr(t *testing.T) {
	var nilValue *yfValue
	if nilValue.ptr() != nil {
		t.Error("nil value should be absent")
	}
	if (&yfValue{}).ptr() != nil {
		t.Error("empty object should be absent")
	}
	raw := 0.0
	if p := (&yfValue{Raw: &raw}).ptr(); p == nil || *p != 0 {
		t.Error("explicit zero should be present")
	}
}

func TestAbsPtr(t *testing.T) {
	neg := -5.0
	if got := absPtr(&neg); *got != 5 {
		t.Errorf("absPtr(-5) = %v", *got)
	}
	if absPtr(nil) != nil {
		t.Error("absPtr(nil) should be nil")
	}
}
