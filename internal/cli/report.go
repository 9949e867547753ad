package cli

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sprite-ai/coderefine/internal/api"
	"github.com/sprite-ai/coderefine/internal/model"
	"github.com/sprite-ai/coderefine/internal/view"
)

// format is a report output format.
type format string

const (
	formatText     format = "text"
	formatJSON     format = "json"
	formatMarkdown format = "markdown"
	formatHTML     format = "html"
)

func parseFormat(s string) (format, error) {
	switch f := format(strings.ToLower(strings.TrimSpace(s))); f {
	case formatText, formatJSON, formatMarkdown, formatHTML:
		return f, nil
	case "md":
		return formatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json, markdown or html)", s)
	}
}

// parseCategories turns --category values into categories. Empty input
// means every category.
func parseCategories(names []string) ([]model.Category, error) {
	if len(names) == 0 {
		return model.Categories, nil
	}
	var cats []model.Category
	for _, n := range names {
		c, ok := model.ParseCategory(n)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", n)
		}
		cats = append(cats, c)
	}
	return cats, nil
}

// report is the outcome of analyzing one source.
type report struct {
	Path     string
	Language model.LanguageTag
	Result   *model.AnalysisResult
	Rewrite  *model.RewriteResult
	Err      error
}

// Name titles the report.
func (r report) Name() string {
	if r.Path == "" || r.Path == "-" {
		return "stdin"
	}
	return r.Path
}

// issueCount counts bugs, security and performance findings.
func (r report) issueCount() int {
	if r.Result == nil {
		return 0
	}
	return len(r.Result.Bugs) + len(r.Result.Security) + len(r.Result.Performance)
}

// exitCode is 2 when any report has a critical or high finding, 1 when any
// has a finding or failed, and 0 otherwise.
func exitCode(reps []report) int {
	code := ExitSuccess
	for _, rep := range reps {
		if rep.Err != nil {
			code = max(code, ExitIssues)
			continue
		}
		sev, ok := rep.Result.MaxSeverity()
		switch {
		case ok && sev.Rank() >= model.SeverityHigh.Rank():
			code = ExitHighSeverity
		case ok:
			code = max(code, ExitIssues)
		}
	}
	return code
}

func writeReports(w io.Writer, f format, reps []report, cats []model.Category) error {
	switch f {
	case formatJSON:
		return writeJSON(w, reps)
	case formatMarkdown:
		return writeMarkdown(w, reps, cats)
	case formatHTML:
		return writeHTML(w, reps, cats)
	default:
		return writeText(w, reps, cats)
	}
}

func bandColor(b view.Band) *color.Color {
	switch b {
	case view.BandExcellent:
		return color.New(color.FgGreen)
	case view.BandGood:
		return color.New(color.FgYellow)
	case view.BandFair:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgRed)
	}
}

func severityColor(sev string) *color.Color {
	switch sev {
	case "critical":
		return color.New(color.FgRed, color.Bold)
	case "high":
		return color.New(color.FgRed)
	case "medium":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func writeText(w io.Writer, reps []report, cats []model.Category) error {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	for i, rep := range reps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		bold.Fprint(w, rep.Name())
		fmt.Fprintf(w, " (%s)\n", rep.Language)

		if rep.Err != nil {
			color.New(color.FgRed).Fprintf(w, "  %s\n", api.Message(rep.Err))
			continue
		}

		v := view.Project(rep.Result, model.DefaultCategory)
		bandColor(v.Band).Fprintf(w, "  Score %d/100", v.Score)
		fmt.Fprintf(w, "  Grade %s  (%s)\n", v.Grade, v.Band)
		if v.Summary != "" {
			fmt.Fprintf(w, "  %s\n", v.Summary)
		}
		faint.Fprintf(w, "  %s\n", strings.Join(v.Stats, " · "))

		if rep.Result.Metrics != nil {
			fmt.Fprintln(w)
			for _, m := range v.Metrics {
				fmt.Fprintf(w, "  %-16s %3d  ", m.Name, m.Value)
				bandColor(m.Band).Fprintln(w, m.Band)
			}
		}

		for _, c := range cats {
			cv := view.Project(rep.Result, c)
			fmt.Fprintln(w)
			bold.Fprintf(w, "  %s (%d)\n", c.Label(), countOf(cv, c))
			if cv.Empty != "" {
				faint.Fprintf(w, "    %s\n", cv.Empty)
				continue
			}
			for _, p := range cv.Positives {
				color.New(color.FgGreen).Fprintf(w, "    ✓ %s\n", p)
			}
			for _, card := range cv.Cards {
				severityColor(card.Severity).Fprintf(w, "    [%s]", strings.ToUpper(card.Severity))
				fmt.Fprintf(w, " %s\n", cardHeading(card, true))
				if card.Description != "" {
					fmt.Fprintf(w, "      %s\n", indent(card.Description, "      "))
				}
				if card.Fix != "" {
					color.New(color.FgGreen).Fprintf(w, "      Fix: %s\n", indent(card.Fix, "      "))
				}
			}
		}

		if rep.Rewrite != nil {
			rv := view.ProjectRewrite(rep.Rewrite)
			fmt.Fprintln(w)
			bold.Fprintln(w, "  Optimized code")
			if rv.Explanation != "" {
				fmt.Fprintf(w, "  %s\n", rv.Explanation)
			}
			for _, ch := range rv.Changes {
				fmt.Fprintf(w, "    %s %s\n", ch.Icon, ch.Description)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, strings.TrimRight(rv.Code, "\n"))
		}
	}
	return nil
}

func countOf(v view.ResultView, c model.Category) int {
	for _, cc := range v.Counts {
		if cc.Category == c {
			return cc.Count
		}
	}
	return 0
}

func cardHeading(c view.IssueCard, withLine bool) string {
	var b strings.Builder
	if c.ID != "" {
		b.WriteString(c.ID)
		b.WriteString(" ")
	}
	b.WriteString(c.Title)
	if withLine && c.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", c.Line)
	}
	if c.CWE != "" {
		fmt.Fprintf(&b, " [%s]", c.CWE)
	}
	return b.String()
}

func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}

type jsonReport struct {
	File     string                `json:"file"`
	Language model.LanguageTag     `json:"language"`
	Result   *model.AnalysisResult `json:"analysis,omitempty"`
	Rewrite  *model.RewriteResult  `json:"rewrite,omitempty"`
	Error    string                `json:"error,omitempty"`
}

func writeJSON(w io.Writer, reps []report) error {
	out := make([]jsonReport, 0, len(reps))
	for _, rep := range reps {
		jr := jsonReport{
			File:     rep.Name(),
			Language: rep.Language,
			Result:   rep.Result,
			Rewrite:  rep.Rewrite,
		}
		if rep.Err != nil {
			jr.Error = api.Message(rep.Err)
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(out) == 1 {
		return enc.Encode(out[0])
	}
	return enc.Encode(out)
}

func writeMarkdown(w io.Writer, reps []report, cats []model.Category) error {
	for i, rep := range reps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "## %s\n\n", rep.Name())
		if rep.Err != nil {
			fmt.Fprintf(w, "**Error:** %s\n", mdEscape(api.Message(rep.Err)))
			continue
		}

		v := view.Project(rep.Result, model.DefaultCategory)
		fmt.Fprintf(w, "**Score:** %d/100 | **Grade:** %s | **Language:** %s\n\n", v.Score, v.Grade, rep.Language)
		if v.Summary != "" {
			fmt.Fprintf(w, "%s\n\n", v.Summary)
		}
		fmt.Fprintf(w, "%s\n", strings.Join(v.Stats, " · "))

		if rep.Result.Metrics != nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "| Metric | Value |")
			fmt.Fprintln(w, "|--------|-------|")
			for _, m := range v.Metrics {
				fmt.Fprintf(w, "| %s | %d |\n", m.Name, m.Value)
			}
		}

		for _, c := range cats {
			cv := view.Project(rep.Result, c)
			fmt.Fprintf(w, "\n### %s (%d)\n\n", c.Label(), countOf(cv, c))
			if cv.Empty != "" {
				fmt.Fprintf(w, "_%s_\n", cv.Empty)
				continue
			}
			for _, p := range cv.Positives {
				fmt.Fprintf(w, "- %s\n", mdEscape(p))
			}
			if len(cv.Cards) > 0 {
				fmt.Fprintln(w, "| Severity | Line | Issue | Fix |")
				fmt.Fprintln(w, "|----------|------|-------|-----|")
			}
			for _, card := range cv.Cards {
				line := ""
				if card.Line > 0 {
					line = fmt.Sprint(card.Line)
				}
				fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
					card.Severity, line, mdCell(cardHeading(card, false)), mdCell(card.Fix))
			}
		}

		if rep.Rewrite != nil {
			rv := view.ProjectRewrite(rep.Rewrite)
			fmt.Fprintf(w, "\n### Optimized code\n\n")
			if rv.Explanation != "" {
				fmt.Fprintf(w, "%s\n\n", rv.Explanation)
			}
			for _, ch := range rv.Changes {
				fmt.Fprintf(w, "- %s %s\n", ch.Icon, mdEscape(ch.Description))
			}
			fmt.Fprintf(w, "\n```%s\n%s\n```\n", rep.Language, strings.TrimRight(rv.Code, "\n"))
		}
	}
	return nil
}

func mdEscape(s string) string {
	return strings.NewReplacer("|", `\|`, "<", "&lt;", ">", "&gt;").Replace(s)
}

func mdCell(s string) string {
	return mdEscape(strings.Join(strings.Fields(s), " "))
}

type htmlSection struct {
	view.ResultView
	Label string
	Count int
}

type htmlReport struct {
	Name     string
	Language model.LanguageTag
	Error    string
	View     view.ResultView
	Metrics  bool
	Sections []htmlSection
	Rewrite  *view.RewriteView
}

var htmlReportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>coderefine report</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; background: #282a36; color: #f8f8f2; }
  h1 { color: #bd93f9; }
  h2 { color: #8be9fd; border-bottom: 1px solid #44475a; padding-bottom: 8px; }
  .summary { background: #343746; padding: 16px; border-radius: 8px; margin-bottom: 24px; }
  .summary span { margin-right: 24px; }
  .score { font-size: 1.6em; font-weight: bold; }
  .error { color: #ff5555; }
  .sev-critical { color: #ff5555; font-weight: bold; }
  .sev-high { color: #ff5555; }
  .sev-medium { color: #f1fa8c; }
  .sev-low { color: #8be9fd; }
  table { width: 100%; border-collapse: collapse; margin-bottom: 16px; }
  th { text-align: left; padding: 8px 12px; background: #44475a; color: #f8f8f2; }
  td { padding: 8px 12px; border-bottom: 1px solid #44475a; vertical-align: top; }
  tr:hover { background: #343746; }
  .empty { color: #6272a4; font-style: italic; }
  .positive { color: #50fa7b; }
  pre { background: #343746; padding: 12px; border-radius: 8px; overflow-x: auto; }
  footer { margin-top: 32px; color: #6272a4; font-size: 0.85em; }
</style>
</head>
<body>
<h1>coderefine report</h1>
{{range .}}
<h2>{{.Name}} <small>({{.Language}})</small></h2>
{{if .Error}}<p class="error">{{.Error}}</p>{{else}}
<div class="summary">
  <span class="score" style="color:{{.View.Band.Color}}">{{.View.Score}}/100</span>
  <span>Grade <strong>{{.View.Grade}}</strong></span>
  {{range .View.Stats}}<span>{{.}}</span>{{end}}
  {{if .View.Summary}}<p>{{.View.Summary}}</p>{{end}}
</div>
{{if .Metrics}}<table>
<thead><tr><th>Metric</th><th>Value</th></tr></thead>
<tbody>{{range .View.Metrics}}<tr><td>{{.Name}}</td><td style="color:{{.Band.Color}}">{{.Value}}</td></tr>{{end}}</tbody>
</table>{{end}}
{{range .Sections}}
<h3>{{.Label}} ({{.Count}})</h3>
{{if .Empty}}<p class="empty">{{.Empty}}</p>{{end}}
{{range .Positives}}<p class="positive">✓ {{.}}</p>{{end}}
{{if .Cards}}<table>
<thead><tr><th>Severity</th><th>Line</th><th>Issue</th><th>Fix</th></tr></thead>
<tbody>{{range .Cards}}<tr><td class="sev-{{.Severity}}">{{.Severity}}</td><td>{{if .Line}}{{.Line}}{{end}}</td><td><strong>{{.Title}}</strong>{{if .CWE}} <code>{{.CWE}}</code>{{end}}<br>{{.Description}}</td><td>{{.Fix}}</td></tr>{{end}}</tbody>
</table>{{end}}
{{end}}
{{with .Rewrite}}
<h3>Optimized code</h3>
{{if .Explanation}}<p>{{.Explanation}}</p>{{end}}
<ul>{{range .Changes}}<li>{{.Icon}} {{.Description}}</li>{{end}}</ul>
<pre><code>{{.Code}}</code></pre>
{{end}}
{{end}}
{{end}}
<footer>Generated by <strong>coderefine</strong></footer>
</body>
</html>
`))

func writeHTML(w io.Writer, reps []report, cats []model.Category) error {
	data := make([]htmlReport, 0, len(reps))
	for _, rep := range reps {
		hr := htmlReport{Name: rep.Name(), Language: rep.Language}
		if rep.Err != nil {
			hr.Error = api.Message(rep.Err)
			data = append(data, hr)
			continue
		}
		hr.View = view.Project(rep.Result, model.DefaultCategory)
		hr.Metrics = rep.Result.Metrics != nil
		for _, c := range cats {
			cv := view.Project(rep.Result, c)
			hr.Sections = append(hr.Sections, htmlSection{ResultView: cv, Label: c.Label(), Count: countOf(cv, c)})
		}
		if rep.Rewrite != nil {
			rv := view.ProjectRewrite(rep.Rewrite)
			hr.Rewrite = &rv
		}
		data = append(data, hr)
	}
	return htmlReportTmpl.Execute(w, data)
}
