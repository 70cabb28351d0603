package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/seenimoa/ratiobench/internal/analysis/fundamental"
)

const banner = "════════════════════════════════════════════════════════════════════"

// writeText renders a terminal table.
func writeText(w io.Writer, doc Document) error {
	var b strings.Builder
	b.WriteString(banner + "\n")
	b.WriteString(" " + doc.Heading() + "\n")
	b.WriteString(" " + doc.Subheading() + "\n")
	b.WriteString(banner + "\n\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RATIO\tCOMPANY VALUE\tBENCHMARK AVG\tANALYSIS")
	fmt.Fprintln(tw, "-----\t-------------\t-------------\t--------")
	for _, r := range doc.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Label, r.Company, r.Benchmark, r.Analysis)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("\n" + doc.Summary + "\n")
	fmt.Fprintf(&b, "Verdicts: %d good, %d poor, %d neutral, %d missing, %d without benchmark\n",
		doc.Tally.Good, doc.Tally.Poor, doc.Tally.Neutral, doc.Tally.DataMissing, doc.Tally.NoBenchmark)
	if doc.HealthGrade != "" {
		fmt.Fprintf(&b, "Financial health: %s (%.0f/100)\n", doc.HealthGrade, doc.HealthScore)
	}

	if len(doc.Unavailable) > 0 {
		b.WriteString("\nExcluded from benchmark:\n")
		for _, u := range doc.Unavailable {
			fmt.Fprintf(&b, "  %s: %s\n", u.Ticker, u.Reason)
		}
	}

	fmt.Fprintf(&b, "\nGenerated %s  [%s]\n", doc.GeneratedAt, doc.ID)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRatiosText(w io.Writer, doc RatiosDocument) error {
	var b strings.Builder
	b.WriteString(banner + "\n")
	title := " Ratios for: " + doc.Ticker
	if doc.Name != "" {
		title += " (" + doc.Name + ")"
	}
	b.WriteString(title + "\n")
	if doc.Source != "" || doc.Period != "" {
		fmt.Fprintf(&b, " Source: %s  Period: %s\n", orDash(doc.Source), periodText(doc))
	}
	b.WriteString(banner + "\n\n")

	if len(doc.Figures) > 0 {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, f := range doc.Figures {
			fmt.Fprintf(tw, "%s\t%s\n", f.Label, f.Value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		b.WriteString("\n")
	}

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RATIO\tVALUE\tBETTER WHEN")
	for _, r := range doc.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Label, r.Value, directionText(r.Direction))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if doc.HealthGrade != "" {
		fmt.Fprintf(&b, "\nFinancial health: %s (%.0f/100)\n", doc.HealthGrade, doc.HealthScore)
		for _, s := range doc.Strengths {
			b.WriteString("  + " + s + "\n")
		}
		for _, s := range doc.Weaknesses {
			b.WriteString("  - " + s + "\n")
		}
	}
	fmt.Fprintf(&b, "\nGenerated %s\n", doc.GeneratedAt)
	_, err := io.WriteString(w, b.String())
	return err
}

func directionText(d fundamental.Direction) string {
	switch d {
	case fundamental.HigherIsBetter:
		return "higher"
	case fundamental.LowerIsBetter:
		return "lower"
	default:
		return "-"
	}
}

// periodText shows the period end with its fiscal year, e.g.
// "2025-03-31 (FY25)".
func periodText(doc RatiosDocument) string {
	if doc.FiscalYear == "" || doc.FiscalYear == doc.Period {
		return orDash(doc.Period)
	}
	return doc.Period + " (" + doc.FiscalYear + ")"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
