package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateHTML creates a self-contained HTML report. Everything is
// inline so the file can be opened offline or attached to a ticket.
func (g *Generator) GenerateHTML() error {
	datasets := g.collector.GetAllDatasets()
	results := g.collector.GetResults()
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	totalCases := len(results)
	fullyPassed := 0
	failed := 0
	for _, r := range results {
		if r.AllPassed() {
			fullyPassed++
		}
		if !r.Success {
			failed++
		}
	}
	passRate := 0.0
	if totalCases > 0 {
		passRate = float64(fullyPassed) / float64(totalCases) * 100
	}

	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Document Extraction Benchmark Report</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: #f5f5f5;
            color: #333;
            line-height: 1.6;
            padding: 20px;
        }
        .container { max-width: 1100px; margin: 0 auto; }
        h1 { color: #2c3e50; margin-bottom: 10px; }
        h2 { color: #2c3e50; margin-bottom: 20px; padding-bottom: 10px; border-bottom: 2px solid #3498db; }
        h3 { color: #2c3e50; margin: 20px 0 10px; }
        .timestamp { color: #666; margin-bottom: 30px; }
        .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 20px; margin-bottom: 30px; }
        .card { background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .card h3 { color: #666; font-size: 0.9em; text-transform: uppercase; margin: 0 0 10px; }
        .card .value { font-size: 2em; font-weight: bold; color: #2c3e50; }
        .card .subtitle { color: #999; font-size: 0.9em; margin-top: 5px; }
        table { width: 100%; border-collapse: collapse; background: white; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 4px rgba(0,0,0,0.1); margin-bottom: 20px; }
        th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #eee; }
        th { background: #2c3e50; color: white; font-weight: 600; }
        tr:hover { background: #f9f9f9; }
        .success { color: #27ae60; }
        .failure { color: #e74c3c; }
        .reason { color: #7f8c8d; font-size: 0.85em; }
        .section { margin-bottom: 40px; }
        code { background: #eef1f4; padding: 1px 5px; border-radius: 4px; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Document Extraction Benchmark Report</h1>
        <p class="timestamp">Generated: `)
	sb.WriteString(html.EscapeString(timestamp))
	sb.WriteString(` | Endpoint: <code>`)
	sb.WriteString(html.EscapeString(g.endpoint))
	sb.WriteString(`</code></p>

        <div class="section">
            <div class="cards">
                <div class="card">
                    <h3>Total Cases</h3>
                    <div class="value">`)
	fmt.Fprintf(&sb, "%d", totalCases)
	sb.WriteString(`</div>
                    <div class="subtitle">Across `)
	fmt.Fprintf(&sb, "%d", len(datasets))
	sb.WriteString(` datasets</div>
                </div>
                <div class="card">
                    <h3>Fully Passed</h3>
                    <div class="value">`)
	fmt.Fprintf(&sb, "%d", fullyPassed)
	sb.WriteString(`</div>
                    <div class="subtitle">`)
	fmt.Fprintf(&sb, "%.1f%% of cases", passRate)
	sb.WriteString(`</div>
                </div>
                <div class="card">
                    <h3>Extraction Errors</h3>
                    <div class="value">`)
	fmt.Fprintf(&sb, "%d", failed)
	sb.WriteString(`</div>
                    <div class="subtitle">Cases with no scored fields</div>
                </div>
            </div>
        </div>
`)

	// Per-dataset field aggregates
	sb.WriteString(`        <div class="section">
            <h2>Field Results</h2>
`)
	for _, ds := range datasets {
		summary := g.collector.ComputeSummary(ds)
		if summary == nil || len(summary.Fields) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "            <h3>%s</h3>\n", html.EscapeString(ds))
		sb.WriteString(`            <table>
                <tr><th>Field</th><th>Evaluated</th><th>Passed</th><th>Pass Rate</th><th>Mean Score</th></tr>
`)
		for _, f := range summary.Fields {
			fmt.Fprintf(&sb, "                <tr><td>%s</td><td>%d</td><td>%d</td><td>%.1f%%</td><td>%.3f</td></tr>\n",
				html.EscapeString(f.Field), f.Evaluated, f.Passed, f.PassRate, f.MeanScore)
		}
		sb.WriteString("            </table>\n")
	}
	sb.WriteString("        </div>\n")

	// Per-case detail
	sb.WriteString(`        <div class="section">
            <h2>Case Detail</h2>
`)
	for _, ds := range datasets {
		fmt.Fprintf(&sb, "            <h3>%s</h3>\n", html.EscapeString(ds))
		sb.WriteString(`            <table>
                <tr><th>Case</th><th>Field</th><th>Expected</th><th>Actual</th><th>Score</th><th>Status</th></tr>
`)
		for _, r := range g.collector.GetResultsByDataset(ds) {
			caseID := html.EscapeString(r.CaseID)
			if !r.Success {
				fmt.Fprintf(&sb, "                <tr><td>%s</td><td colspan=\"4\" class=\"reason\">%s error: %s</td><td class=\"failure\">✗</td></tr>\n",
					caseID, html.EscapeString(r.ErrorKind), html.EscapeString(r.Error))
				continue
			}
			for _, s := range r.Scores {
				status := `<td class="success">✓</td>`
				if !s.Passed {
					status = `<td class="failure">✗</td>`
				}
				actual := html.EscapeString(s.Actual)
				if s.Reason != "" {
					actual += fmt.Sprintf(` <span class="reason">(%s)</span>`, html.EscapeString(s.Reason))
				}
				fmt.Fprintf(&sb, "                <tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%.3f</td>%s</tr>\n",
					caseID, html.EscapeString(s.Field), html.EscapeString(s.Expected), actual, s.Score, status)
			}
		}
		sb.WriteString("            </table>\n")
	}
	sb.WriteString(`        </div>
    </div>
</body>
</html>
`)

	outputPath := filepath.Join(g.outputDir, "report.html")
	// #nosec G306 - 0640 allows owner/group to read, which is appropriate for report files
	return os.WriteFile(outputPath, []byte(sb.String()), 0640)
}
