package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/ratiobench/internal/analysis/fundamental"
)

// ════════════════════════════════════════════════════════════════════
// SVG charts for the HTML report
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int     // SVG width in pixels (default: 800)
	Height       int     // SVG height in pixels (default: derived from the bar count)
	MarginTop    int     // top margin (default: 40)
	MarginRight  int     // right margin (default: 60)
	MarginBottom int     // bottom margin (default: 20)
	MarginLeft   int     // left margin (default: 150)
	BgColor      string  // background color (default: "#ffffff")
	TextColor    string  // label color (default: "#333333")
	FontSize     int     // label font size (default: 11)
	Title        string  // chart title
	ClampPct     float64 // deviations beyond ±ClampPct are drawn at the edge (default: 100)
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 20,
		MarginLeft:   150,
		BgColor:      "#ffffff",
		TextColor:    "#333333",
		FontSize:     11,
		Title:        "Deviation from peer average (%)",
		ClampPct:     100,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

var verdictColors = map[fundamental.Verdict]string{
	fundamental.VerdictGood:    "#16a34a",
	fundamental.VerdictPoor:    "#dc2626",
	fundamental.VerdictNeutral: "#2563eb",
}

// DeviationChart draws one horizontal bar per comparison record with a
// deviation, centred on zero and coloured by verdict. Records without a
// deviation are skipped.
func DeviationChart(records []fundamental.ComparisonRecord, cfg ChartConfig) string {
	var bars []fundamental.ComparisonRecord
	for _, rec := range records {
		if rec.DeviationPct != nil {
			bars = append(bars, rec)
		}
	}
	if len(bars) == 0 {
		return emptySVG(cfg, "No comparable ratios")
	}

	def := DefaultChartConfig()
	if cfg.Width == 0 {
		cfg = def
	}
	if cfg.ClampPct <= 0 {
		cfg.ClampPct = def.ClampPct
	}
	const barH, gap = 18.0, 8.0
	if cfg.Height == 0 {
		cfg.Height = cfg.MarginTop + cfg.MarginBottom + int(float64(len(bars))*(barH+gap)+gap)
	}

	px, py, pw, ph := cfg.plotArea()
	limit := 0.0
	for _, rec := range bars {
		limit = math.Max(limit, math.Min(math.Abs(*rec.DeviationPct), cfg.ClampPct))
	}
	if limit < 1 {
		limit = 1
	}
	zeroX := float64(px) + float64(pw)/2
	scale := float64(pw) / 2 / limit

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#999" stroke-width="1"/>`,
		zeroX, py, zeroX, py+ph))

	for i, rec := range bars {
		dev := *rec.DeviationPct
		drawn := math.Max(-cfg.ClampPct, math.Min(cfg.ClampPct, dev))
		by := float64(py) + gap + float64(i)*(barH+gap)

		bw := math.Abs(drawn) * scale
		bx := zeroX
		if drawn < 0 {
			bx = zeroX - bw
		}
		color, ok := verdictColors[rec.Verdict]
		if !ok {
			color = "#9ca3af"
		}

		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			bx, by, bw, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(rec.Label)))

		// Value label sits outside the bar end.
		anchor, lx := "start", bx+bw+5
		if drawn < 0 {
			anchor, lx = "end", bx-5
		}
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s" text-anchor="%s">%+.1f</text>`,
			lx, by+barH/2+4, cfg.FontSize, cfg.TextColor, anchor, dev))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// GaugeChart draws a semicircular gauge for a 0-100 score such as the
// financial health score.
func GaugeChart(value float64, label string, width int) string {
	if width == 0 {
		width = 200
	}
	height := width/2 + 30

	cx := float64(width) / 2
	cy := float64(width)/2 - 10
	radius := float64(width)/2 - 20

	value = math.Max(0, math.Min(100, value))

	// 0 maps to 180°, 100 to 0°.
	angle := math.Pi - (value/100)*math.Pi
	needleX := cx + radius*0.85*math.Cos(angle)
	needleY := cy - radius*0.85*math.Sin(angle)

	var color string
	switch {
	case value < 40:
		color = "#dc2626"
	case value < 55:
		color = "#ea580c"
	case value < 70:
		color = "#eab308"
	default:
		color = "#16a34a"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height))
	sb.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, width, height))

	sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="#e0e0e0" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, cx+radius, cy))

	endX := cx + radius*math.Cos(angle)
	endY := cy - radius*math.Sin(angle)
	sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="%s" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, endX, endY, color))

	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" stroke-width="2"/>`,
		cx, cy, needleX, needleY))
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="5" fill="#333"/>`, cx, cy))

	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%.0f</text>`,
		cx, cy+25, color, value))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="11" fill="#666" text-anchor="middle">%s</text>`,
		cx, height-5, escapeXML(label)))

	sb.WriteString("</svg>")
	return sb.String()
}

// ── SVG helpers ──

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeXML(s string) string { return xmlEscaper.Replace(s) }
