package report

// ReportTemplate is the HTML page wrapping a rendered comparison.
// It is embedded as a Go constant; no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); text-align: center; margin-bottom: 4px; }
  h1 + p { text-align: center; color: var(--muted); margin-bottom: 16px; }
  h2 { font-size: 1.1rem; margin: 24px 0 8px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  p { margin: 6px 0; }
  ul { margin: 6px 0 6px 20px; }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th {
    background: var(--section-bg);
    text-align: left;
    padding: 8px;
    font-size: 0.75rem;
    font-weight: 600;
    color: var(--muted);
    text-transform: uppercase;
  }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  td:first-child { font-weight: 500; }
  tr td:last-child { font-weight: 600; }
  tr.good td:last-child { color: var(--green); }
  tr.poor td:last-child { color: var(--red); }
  tr.neutral td:last-child { color: var(--accent); }
  tr.missing td:last-child { color: var(--muted); }

  .charts { display: flex; flex-wrap: wrap; gap: 16px; align-items: flex-start; }
  .chart { overflow-x: auto; max-width: 100%; }
  .chart svg { max-width: 100%; height: auto; }

  .footer {
    margin-top: 24px;
    padding-top: 12px;
    border-top: 1px solid var(--border);
    font-size: 0.75rem;
    color: var(--muted);
    text-align: center;
  }
</style>
</head>
<body>
{{.Body}}
<h2>Charts</h2>
<div class="charts">
  <div class="chart">{{.DeviationChart}}</div>
  {{if .HealthGauge}}<div class="chart gauge">{{.HealthGauge}}</div>{{end}}
</div>
<div class="footer">
  Ratios are computed from the latest annual statements. Benchmarks are the plain average of the listed peers.<br>
  Generated {{.GeneratedAt}}
</div>
</body>
</html>`
