// Package report renders comparison results for terminals, documents and
// browsers.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seenimoa/ratiobench/internal/analysis/fundamental"
	"github.com/seenimoa/ratiobench/internal/service"
	"github.com/seenimoa/ratiobench/pkg/models"
	"github.com/seenimoa/ratiobench/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Formats
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatHTML, FormatJSON, FormatYAML}
}

// ParseFormat resolves a format name. "md" and "yml" are accepted as
// aliases; an empty name means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// ContentType returns the MIME type for HTTP responses.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Config controls rendering.
type Config struct {
	Format   Format
	Decimals int    // decimals for ratio values (default: 2)
	Title    string // HTML page title (optional)
}

// DefaultConfig returns text output with two decimals.
func DefaultConfig() Config {
	return Config{Format: FormatText, Decimals: 2}
}

func (c Config) withDefaults() Config {
	if c.Format == "" {
		c.Format = FormatText
	}
	if c.Decimals <= 0 {
		c.Decimals = 2
	}
	return c
}

// ════════════════════════════════════════════════════════════════════
// Display rows
// ════════════════════════════════════════════════════════════════════

// Row is one comparison record flattened into display strings.
type Row struct {
	Ratio     string              `json:"ratio" yaml:"ratio"`
	Label     string              `json:"label" yaml:"label"`
	Company   string              `json:"company" yaml:"company"`
	Benchmark string              `json:"benchmark" yaml:"benchmark"`
	Analysis  string              `json:"analysis" yaml:"analysis"`
	Verdict   fundamental.Verdict `json:"verdict" yaml:"verdict"`
	Class     string              `json:"-" yaml:"-"` // CSS class: good, poor, neutral, missing
}

// Rows converts comparison records to display rows in record order.
func Rows(records []fundamental.ComparisonRecord, decimals int) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = row(rec, decimals)
	}
	return rows
}

func row(rec fundamental.ComparisonRecord, decimals int) Row {
	r := Row{
		Ratio:   rec.Ratio.String(),
		Label:   rec.Label,
		Verdict: rec.Verdict,
		Class:   verdictClass(rec.Verdict),
	}

	switch rec.Verdict {
	case fundamental.VerdictDataMissing:
		r.Company, r.Benchmark, r.Analysis = "N/A", "-", "Data missing"
		return r
	case fundamental.VerdictNoBenchmark:
		r.Company = formatValue(rec.Target, decimals)
		r.Benchmark, r.Analysis = "N/A", "No benchmark data"
		return r
	}

	r.Company = formatValue(rec.Target, decimals)
	r.Benchmark = formatValue(rec.Benchmark, decimals)

	var head string
	switch rec.Verdict {
	case fundamental.VerdictGood:
		head = "GOOD"
	case fundamental.VerdictPoor:
		head = "POOR"
	default:
		head = "Peers"
	}
	if rec.DeviationPct != nil {
		r.Analysis = head + " (" + utils.FormatPct(*rec.DeviationPct, 1) + ")"
	} else {
		r.Analysis = head
	}
	return r
}

func formatValue(v *float64, decimals int) string {
	if v == nil {
		return "N/A"
	}
	return utils.FormatFixed(*v, decimals)
}

func verdictClass(v fundamental.Verdict) string {
	switch v {
	case fundamental.VerdictGood:
		return "good"
	case fundamental.VerdictPoor:
		return "poor"
	case fundamental.VerdictNeutral:
		return "neutral"
	default:
		return "missing"
	}
}

// ════════════════════════════════════════════════════════════════════
// Report model
// ════════════════════════════════════════════════════════════════════

// Document is the format-independent report model. JSON and YAML output
// serialise it directly.
type Document struct {
	ID          string                   `json:"id" yaml:"id"`
	Ticker      string                   `json:"ticker" yaml:"ticker"`
	Name        string                   `json:"name,omitempty" yaml:"name,omitempty"`
	Peers       []string                 `json:"peers" yaml:"peers"` // peers in the benchmark
	Rows        []Row                    `json:"rows" yaml:"rows"`
	Tally       fundamental.Tally        `json:"tally" yaml:"tally"`
	Summary     string                   `json:"summary" yaml:"summary"`
	HealthGrade string                   `json:"health_grade,omitempty" yaml:"health_grade,omitempty"`
	HealthScore float64                  `json:"health_score" yaml:"health_score"`
	Unavailable []service.Unavailability `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
	GeneratedAt string                   `json:"generated_at" yaml:"generated_at"` // IST formatted

	records []fundamental.ComparisonRecord
}

// NewDocument flattens a comparison result.
func NewDocument(res *service.Result, decimals int) Document {
	doc := Document{
		ID:          res.ID,
		Ticker:      res.Ticker,
		Name:        res.Name,
		Rows:        Rows(res.Comparison.Records, decimals),
		Tally:       res.Comparison.Tally,
		Summary:     res.Comparison.Summary,
		HealthGrade: res.Health.Grade,
		HealthScore: res.Health.Score,
		Unavailable: res.Unavailable,
		GeneratedAt: utils.FormatDateTimeIST(res.GeneratedAt),
		records:     res.Comparison.Records,
	}
	for _, p := range res.Comparison.Peers {
		if p.Available {
			doc.Peers = append(doc.Peers, p.Ticker)
		}
	}
	return doc
}

// Heading is the report title line.
func (d Document) Heading() string {
	h := "Analysis for: " + d.Ticker
	if d.Name != "" {
		h += " (" + d.Name + ")"
	}
	return h
}

// Subheading names the peers the benchmark averages.
func (d Document) Subheading() string {
	return "Compared against the average of: " + strings.Join(d.Peers, ", ")
}

// ════════════════════════════════════════════════════════════════════
// Render
// ════════════════════════════════════════════════════════════════════

// Render writes res to w in cfg.Format.
func Render(w io.Writer, res *service.Result, cfg Config) error {
	if res == nil {
		return fmt.Errorf("result is nil")
	}
	cfg = cfg.withDefaults()
	doc := NewDocument(res, cfg.Decimals)

	switch cfg.Format {
	case FormatText:
		return writeText(w, doc)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(doc))
		return err
	case FormatHTML:
		return writeHTML(w, doc, cfg)
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatYAML:
		return writeYAML(w, doc)
	}
	return fmt.Errorf("unknown report format %q", cfg.Format)
}

// RatioRow is one ratio of a single entity.
type RatioRow struct {
	Ratio     string                `json:"ratio" yaml:"ratio"`
	Label     string                `json:"label" yaml:"label"`
	Value     string                `json:"value" yaml:"value"`
	Direction fundamental.Direction `json:"direction" yaml:"direction"`
}

// RatiosDocument is the report model for a single entity's ratio set.
type RatiosDocument struct {
	Ticker      string     `json:"ticker" yaml:"ticker"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Source      string     `json:"source,omitempty" yaml:"source,omitempty"`
	Period      string     `json:"period,omitempty" yaml:"period,omitempty"`
	FiscalYear  string     `json:"fiscal_year,omitempty" yaml:"fiscal_year,omitempty"`
	Figures     []Figure   `json:"figures,omitempty" yaml:"figures,omitempty"`
	Rows        []RatioRow `json:"rows" yaml:"rows"`
	HealthGrade string     `json:"health_grade,omitempty" yaml:"health_grade,omitempty"`
	HealthScore float64    `json:"health_score" yaml:"health_score"`
	Strengths   []string   `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	Weaknesses  []string   `json:"weaknesses,omitempty" yaml:"weaknesses,omitempty"`
	GeneratedAt string     `json:"generated_at" yaml:"generated_at"`
}

// NewRatiosDocument flattens a single-entity result.
func NewRatiosDocument(res *service.RatiosResult, policy fundamental.DirectionPolicy, decimals int) RatiosDocument {
	doc := RatiosDocument{
		Ticker:      res.Ticker,
		Name:        res.Name,
		HealthGrade: res.Health.Grade,
		HealthScore: res.Health.Score,
		Strengths:   res.Health.Strengths,
		Weaknesses:  res.Health.Weaknesses,
		GeneratedAt: utils.FormatDateTimeIST(res.GeneratedAt),
	}
	if f := res.Facts; f != nil {
		doc.Source = f.Source
		doc.Period = f.Period
		if f.Period != "" {
			doc.FiscalYear = utils.FiscalYearLabel(f.Period)
		}
		doc.Figures = keyFigures(f)
	}
	for _, r := range fundamental.AllRatios() {
		doc.Rows = append(doc.Rows, RatioRow{
			Ratio:     r.String(),
			Label:     r.Label(),
			Value:     formatValue(res.Ratios.Value(r), decimals),
			Direction: policy.Direction(r),
		})
	}
	return doc
}

// Figure is one headline statement figure shown next to a ratio set.
type Figure struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// keyFigures lists the reported headline amounts. Rupee amounts use
// compact Indian notation (lakh, crore).
func keyFigures(f *models.FinancialFacts) []Figure {
	items := []struct {
		label string
		v     *float64
	}{
		{"Revenue", f.TotalRevenue},
		{"Net Income", f.NetIncome},
		{"Total Debt", f.TotalDebt},
		{"Shareholders' Equity", f.TotalEquity},
		{"Market Cap", f.MarketCap},
	}
	var out []Figure
	for _, it := range items {
		if it.v != nil {
			out = append(out, Figure{Label: it.label, Value: formatAmount(*it.v, f.Currency)})
		}
	}
	if f.SharePrice != nil {
		value := formatAmount(*f.SharePrice, f.Currency)
		if isRupee(f.Currency) {
			value = utils.FormatINR(*f.SharePrice)
		}
		out = append(out, Figure{Label: "Share Price", Value: value})
	}
	return out
}

func isRupee(currency string) bool {
	return currency == "" || strings.EqualFold(currency, "INR")
}

func formatAmount(v float64, currency string) string {
	if isRupee(currency) {
		return utils.FormatINRCompact(v)
	}
	return fmt.Sprintf("%s %.2f", strings.ToUpper(currency), v)
}

// RenderRatios writes a single entity's ratio set to w. HTML is not
// offered for a single entity and falls back to markdown.
func RenderRatios(w io.Writer, res *service.RatiosResult, policy fundamental.DirectionPolicy, cfg Config) error {
	if res == nil {
		return fmt.Errorf("result is nil")
	}
	cfg = cfg.withDefaults()
	doc := NewRatiosDocument(res, policy, cfg.Decimals)

	switch cfg.Format {
	case FormatText:
		return writeRatiosText(w, doc)
	case FormatMarkdown, FormatHTML:
		_, err := io.WriteString(w, RatiosMarkdown(doc))
		return err
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatYAML:
		return writeYAML(w, doc)
	}
	return fmt.Errorf("unknown report format %q", cfg.Format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
