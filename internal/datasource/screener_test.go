package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const screenerFixture = `<html><body>
<ul id="top-ratios">
  <li><span class="name">Market Cap</span><span class="number">₹ 1,500 Cr.</span></li>
  <li><span class="name">Current Price</span><span class="number">₹ 3,250</span></li>
  <li><span class="name">Book Value</span><span class="number">₹ 310</span></li>
  <li><span class="name">Stock P/E</span><span class="number">28.4</span></li>
</ul>
<section id="profit-loss">
  <table>
    <thead><tr><th></th><th>Mar 2023</th><th>Mar 2024</th><th>TTM</th></tr></thead>
    <tbody>
      <tr><td class="text"><button>Sales&nbsp;<span>+</span></button></td><td>900</td><td>1,000</td><td>1,050</td></tr>
      <tr><td class="text">Operating Profit</td><td>200</td><td>250</td><td>260</td></tr>
      <tr><td class="text">Interest</td><td>8</td><td>10</td><td>11</td></tr>
      <tr><td class="text">Profit before tax</td><td>150</td><td>190</td><td>200</td></tr>
      <tr><td class="text"><button>Net Profit&nbsp;<span>+</span></button></td><td>110</td><td>140</td><td>150</td></tr>
      <tr><td class="text">EPS in Rs</td><td>11.00</td><td>14.00</td><td>15.00</td></tr>
    </tbody>
  </table>
</section>
<section id="balance-sheet">
  <table>
    <thead><tr><th></th><th>Mar 2023</th><th>Mar 2024</th></tr></thead>
    <tbody>
      <tr><td class="text">Equity Capital</td><td>10</td><td>10</td></tr>
      <tr><td class="text">Reserves</td><td>590</td><td>690</td></tr>
      <tr><td class="text"><button>Borrowings&nbsp;<span>+</span></button></td><td>120</td><td>100</td></tr>
      <tr><td class="text">Total Assets</td><td>1,100</td><td>1,300</td></tr>
    </tbody>
  </table>
</section>
</body></html>`

type pathLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *pathLog) add(p string) {
	l.mu.Lock()
	l.paths = append(l.paths, p)
	l.mu.Unlock()
}

func (l *pathLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

func newScreenerStub(t *testing.T, consolidated bool, page string) (*httptest.Server, *pathLog) {
	t.Helper()
	paths := &pathLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths.add(r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/consolidated/") && !consolidated {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)
	return srv, paths
}

func TestScreenerName(t *testing.T) {
	if got := NewScreener(Options{}, "").Name(); got != "screener" {
		t.Errorf("Name() = %q", got)
	}
}

func TestScreenerGetFacts(t *testing.T) {
	srv, paths := newScreenerStub(t, true, screenerFixture)
	s := NewScreener(Options{}, srv.URL)

	f, err := s.GetFacts(context.Background(), "tcs")
	if err != nil {
		t.Fatalf("GetFacts() error: %v", err)
	}
	if got := paths.get(); got[0] != "/company/TCS/consolidated/" {
		t.Errorf("requested %v", got)
	}

	const cr = 1e7
	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"TotalEquity", f.TotalEquity, 700 * cr},
		{"PriorTotalEquity", f.PriorTotalEquity, 600 * cr},
		{"TotalDebt", f.TotalDebt, 100 * cr},
		{"TotalAssets", f.TotalAssets, 1300 * cr},
		{"PriorTotalAssets", f.PriorTotalAssets, 1100 * cr},
		{"TotalRevenue", f.TotalRevenue, 1000 * cr},
		{"EBITDA", f.EBITDA, 250 * cr},
		{"EBIT", f.EBIT, 200 * cr},
		{"InterestExpense", f.InterestExpense, 10 * cr},
		{"NetIncome", f.NetIncome, 140 * cr},
		{"EPS", f.EPS, 15},
		{"SharePrice", f.SharePrice, 3250},
		{"BookValuePerShare", f.BookValuePerShare, 310},
		{"MarketCap", f.MarketCap, 1500 * cr},
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

	for name, v := range map[string]*float64{
		"CurrentAssets":      f.CurrentAssets,
		"CurrentLiabilities": f.CurrentLiabilities,
		"Inventory":          f.Inventory,
		"GrossProfit":        f.GrossProfit,
	} {
		if v != nil {
			t.Errorf("%s should be absent for Screener facts", name)
		}
	}
	if f.Period != "Mar 2024" || f.PriorPeriod != "Mar 2023" {
		t.Errorf("periods = %q / %q", f.Period, f.PriorPeriod)
	}
}

func TestScreenerStandaloneFallback(t *testing.T) {
	srv, paths := newScreenerStub(t, false, screenerFixture)
	s := NewScreener(Options{}, srv.URL)

	if _, err := s.GetFacts(context.Background(), "INFY.NS"); err != nil {
		t.Fatalf("GetFacts() error: %v", err)
	}
	if got := paths.get(); len(got) != 2 || got[1] != "/company/INFY/" {
		t.Errorf("expected standalone fallback, requested %v", got)
	}
}

func TestScreenerRejectsForeignTickers(t *testing.T) {
	s := NewScreener(Options{}, "http://127.0.0.1:0")
	for _, ticker := range []string{"AAPL.L", "AAPL", "BRK.B"} {
		_, err := s.GetFacts(context.Background(), ticker)
		if !errors.Is(err, ErrTickerNotFound) {
			t.Errorf("%s: expected ErrTickerNotFound, got %v", ticker, err)
		}
	}
}

func TestScreenerInsufficientHistory(t *testing.T) {
	page := `<section id="profit-loss"><table><thead><tr><th></th><th>Mar 2024</th></tr></thead>
<tbody><tr><td>EPS in Rs</td><td>5</td></tr></tbody></table></section>
<section id="balance-sheet"><table><thead><tr><th></th><th>Mar 2024</th></tr></thead>
<tbody><tr><td>Reserves</td><td>5</td></tr></tbody></table></section>`
	srv, _ := newScreenerStub(t, true, page)

	_, err := NewScreener(Options{}, srv.URL).GetFacts(context.Background(), "ABC.NS")
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestParseScreenerTableTTM(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(screenerFixture))
	if err != nil {
		t.Fatal(err)
	}
	tbl := parseScreenerTable(doc, "#profit-loss")
	if len(tbl.periods) != 2 || tbl.ttm != 2 {
		t.Fatalf("periods=%v ttm=%d", tbl.periods, tbl.ttm)
	}
	if got := tbl.value("Sales", tbl.latest()); got == nil || *got != 1000 {
		t.Errorf("latest Sales = %v, want 1000", got)
	}
	if got := tbl.value("Sales", tbl.ttm); got == nil || *got != 1050 {
		t.Errorf("TTM Sales = %v, want 1050", got)
	}
	if tbl.value("Missing Row", 0) != nil {
		t.Error("unknown row should be absent")
	}

	missing := parseScreenerTable(doc, "#cash-flow")
	if missing.latest() != -1 || missing.ttm != -1 {
		t.Error("absent section should produce an empty table")
	}
}

func TestParseScreenerDecimal(t *testing.T) {
	tests := []struct {
		input string
		want  string // "" means absent
	}{
		{"1,234.56", "1234.56"},
		{"₹ 1,234.56", "1234.56"},
		{"12.5%", "12.5"},
		{"10Cr", "10"},
		{"5 Cr.", "5"},
		{"-42", "-42"},
		{"", ""},
		{"-", ""},
		{"N/A", ""},
	}
	for _, tt := range tests {
		got := parseScreenerDecimal(tt.input)
		switch {
		case tt.want == "" && got != nil:
			t.Errorf("parseScreenerDecimal(%q) = %v, want absent", tt.input, got)
		case tt.want != "" && (got == nil || got.String() != tt.want):
			t.Errorf("parseScreenerDecimal(%q) = %v, want %s", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeScreenerLabel(t *testing.T) {
	tests := map[string]string{
		"Sales +":           "Sales",
		"  Net   Profit + ": "Net Profit",
		"EPS in Rs":         "EPS in Rs",
	}
	for in, want := range tests {
		if got := normalizeScreenerLabel(in); got != want {
			t.Errorf("normalizeScreenerLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
