package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Markdown renders a comparison document as GitHub-flavoured markdown.
func Markdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", mdEscape(doc.Heading()))
	fmt.Fprintf(&b, "%s\n\n", mdEscape(doc.Subheading()))

	b.WriteString("| Ratio | Company Value | Benchmark Avg | Analysis |\n")
	b.WriteString("|---|---:|---:|---|\n")
	for _, r := range doc.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			mdEscape(r.Label), r.Company, r.Benchmark, mdEscape(r.Analysis))
	}

	fmt.Fprintf(&b, "\n**Summary:** %s\n\n", mdEscape(doc.Summary))
	fmt.Fprintf(&b, "Verdicts: %d good, %d poor, %d neutral, %d missing, %d without benchmark.\n",
		doc.Tally.Good, doc.Tally.Poor, doc.Tally.Neutral, doc.Tally.DataMissing, doc.Tally.NoBenchmark)
	if doc.HealthGrade != "" {
		fmt.Fprintf(&b, "\nFinancial health grade **%s** (%.0f/100).\n", doc.HealthGrade, doc.HealthScore)
	}

	if len(doc.Unavailable) > 0 {
		b.WriteString("\n## Excluded from benchmark\n\n")
		for _, u := range doc.Unavailable {
			fmt.Fprintf(&b, "- **%s**: %s\n", mdEscape(u.Ticker), mdEscape(u.Reason))
		}
	}

	fmt.Fprintf(&b, "\n_Generated %s · %s_\n", doc.GeneratedAt, doc.ID)
	return b.String()
}

// RatiosMarkdown renders a single entity's ratio set as markdown.
func RatiosMarkdown(doc RatiosDocument) string {
	var b strings.Builder
	title := "Ratios for: " + doc.Ticker
	if doc.Name != "" {
		title += " (" + doc.Name + ")"
	}
	fmt.Fprintf(&b, "# %s\n\n", mdEscape(title))
	if doc.Source != "" || doc.Period != "" {
		fmt.Fprintf(&b, "Source: %s, period: %s\n\n", orDash(doc.Source), periodText(doc))
	}
	if len(doc.Figures) > 0 {
		b.WriteString("| Figure | Amount |\n|---|---:|\n")
		for _, f := range doc.Figures {
			fmt.Fprintf(&b, "| %s | %s |\n", mdEscape(f.Label), f.Value)
		}
		b.WriteString("\n")
	}

	b.WriteString("| Ratio | Value | Better when |\n")
	b.WriteString("|---|---:|---|\n")
	for _, r := range doc.Rows {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", mdEscape(r.Label), r.Value, directionText(r.Direction))
	}

	if doc.HealthGrade != "" {
		fmt.Fprintf(&b, "\nFinancial health grade **%s** (%.0f/100).\n", doc.HealthGrade, doc.HealthScore)
		for _, s := range doc.Strengths {
			fmt.Fprintf(&b, "- Strength: %s\n", mdEscape(s))
		}
		for _, s := range doc.Weaknesses {
			fmt.Fprintf(&b, "- Weakness: %s\n", mdEscape(s))
		}
	}
	fmt.Fprintf(&b, "\n_Generated %s_\n", doc.GeneratedAt)
	return b.String()
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`)

func mdEscape(s string) string { return mdEscaper.Replace(s) }

// ════════════════════════════════════════════════════════════════════
// HTML
// ════════════════════════════════════════════════════════════════════

// rowClassTransformer sets a class attribute on the body rows of the first
// table in the document, one class per row in order.
type rowClassTransformer struct {
	classes []string
}

func (t *rowClassTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	var table *east.Table
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if tbl, ok := n.(*east.Table); ok && entering {
			table = tbl
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if table == nil {
		return
	}

	i := 0
	for n := table.FirstChild(); n != nil; n = n.NextSibling() {
		row, ok := n.(*east.TableRow)
		if !ok {
			continue
		}
		if i < len(t.classes) {
			row.SetAttributeString("class", []byte(t.classes[i]))
		}
		i++
	}
}

// markdownToHTML converts markdown to an HTML fragment with GFM tables.
// rowClasses, when given, are applied to the first table's body rows.
func markdownToHTML(src string, rowClasses []string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&rowClassTransformer{classes: rowClasses}, 100),
			),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// pageData is the model for ReportTemplate.
type pageData struct {
	Title          string
	Body           template.HTML
	DeviationChart template.HTML
	HealthGauge    template.HTML
	GeneratedAt    string
}

func writeHTML(w io.Writer, doc Document, cfg Config) error {
	classes := make([]string, len(doc.Rows))
	for i, r := range doc.Rows {
		classes[i] = r.Class
	}

	body, err := markdownToHTML(Markdown(doc), classes)
	if err != nil {
		return err
	}

	title := cfg.Title
	if title == "" {
		title = "Peer benchmark: " + doc.Ticker
	}

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}
	// goldmark escapes raw HTML in its input unless WithUnsafe is set.
	data := pageData{
		Title:          title,
		Body:           template.HTML(body),
		DeviationChart: template.HTML(DeviationChart(doc.records, DefaultChartConfig())),
		GeneratedAt:    doc.GeneratedAt,
	}
	if doc.HealthGrade != "" {
		data.HealthGauge = template.HTML(GaugeChart(doc.HealthScore, "Financial health "+doc.HealthGrade, 220))
	}
	return tmpl.Execute(w, data)
}
