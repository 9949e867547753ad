// Package model defines the core data types shared across coderefine.
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Severity ranks an issue. The zero value is SeverityMedium so that an
// issue without a recognizable severity renders as medium.
type Severity int

const (
	SeverityMedium Severity = iota
	SeverityLow
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Rank orders severities from low (0) to critical (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 1
	}
}

// ParseSeverity normalizes a severity label case-insensitively.
// Unrecognized or empty labels map to SeverityMedium.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	*s = ParseSeverity(string(b))
	return nil
}

// Issue is one finding in canonical shape. The service sends several
// field-name variants; UnmarshalJSON folds them into this shape.
type Issue struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Line        int      `json:"line,omitempty"`
	Fix         string   `json:"fix,omitempty"`
	CWE         string   `json:"cwe,omitempty"`
}

// wireIssue mirrors every accepted server spelling of an issue.
type wireIssue struct {
	ID             json.RawMessage `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Severity       string          `json:"severity"`
	Impact         string          `json:"impact"`
	Line           json.RawMessage `json:"line"`
	Fix            string          `json:"fix"`
	Suggestion     string          `json:"suggestion"`
	Recommendation string          `json:"recommendation"`
	CWE            *string         `json:"cwe"`
}

// UnmarshalJSON normalizes server field variants: severity over impact,
// and the first non-empty of fix, suggestion, recommendation.
func (i *Issue) UnmarshalJSON(b []byte) error {
	var w wireIssue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	sev := w.Severity
	if sev == "" {
		sev = w.Impact
	}

	fix := w.Fix
	if fix == "" {
		fix = w.Suggestion
	}
	if fix == "" {
		fix = w.Recommendation
	}

	*i = Issue{
		ID:          looseString(w.ID),
		Title:       w.Title,
		Description: w.Description,
		Severity:    ParseSeverity(sev),
		Line:        looseInt(w.Line),
		Fix:         fix,
	}
	if w.CWE != nil && !strings.EqualFold(*w.CWE, "null") {
		i.CWE = *w.CWE
	}
	return nil
}

// looseInt accepts a JSON number, a numeric string, or null.
func looseInt(raw json.RawMessage) int {
	f, _ := looseFloat(raw)
	return int(f)
}

// looseFloat decodes a JSON number or a numeric string. Anything else,
// null included, reports false.
func looseFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// loosePercent rounds a loose number into 0..100.
func loosePercent(raw json.RawMessage) int {
	f, _ := looseFloat(raw)
	return int(math.Round(min(max(f, 0), 100)))
}

// looseCount rounds a loose number, floored at zero.
func looseCount(raw json.RawMessage) int {
	f, _ := looseFloat(raw)
	return int(math.Round(max(f, 0)))
}

// looseString accepts a JSON string or number.
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Metrics are the quality gauges reported with an analysis.
type Metrics struct {
	Maintainability int    `json:"maintainability"`
	Testability     int    `json:"testability"`
	Readability     int    `json:"readability"`
	LinesOfCode     int    `json:"linesOfCode"`
	Complexity      string `json:"complexity,omitempty"`
}

// UnmarshalJSON accepts fractional or quoted gauges. Percentages are
// rounded into 0..100.
func (m *Metrics) UnmarshalJSON(b []byte) error {
	var w struct {
		Maintainability json.RawMessage `json:"maintainability"`
		Testability     json.RawMessage `json:"testability"`
		Readability     json.RawMessage `json:"readability"`
		LinesOfCode     json.RawMessage `json:"linesOfCode"`
		Complexity      json.RawMessage `json:"complexity"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*m = Metrics{
		Maintainability: loosePercent(w.Maintainability),
		Testability:     loosePercent(w.Testability),
		Readability:     loosePercent(w.Readability),
		LinesOfCode:     looseCount(w.LinesOfCode),
		Complexity:      looseString(w.Complexity),
	}
	return nil
}

// AnalysisResult is the structured review returned by /api/analyze.
type AnalysisResult struct {
	OverallScore  int      `json:"overallScore"`
	Grade         string   `json:"grade"`
	Summary       string   `json:"summary"`
	Bugs          []Issue  `json:"bugs"`
	Security      []Issue  `json:"security"`
	Performance   []Issue  `json:"performance"`
	BestPractices []Issue  `json:"bestPractices"`
	Positives     []string `json:"positives"`
	Metrics       *Metrics `json:"metrics,omitempty"`
}

type analysisFields AnalysisResult

// UnmarshalJSON accepts a fractional or quoted overall score, rounded
// into 0..100.
func (r *AnalysisResult) UnmarshalJSON(b []byte) error {
	var w struct {
		analysisFields
		OverallScore json.RawMessage `json:"overallScore"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = AnalysisResult(w.analysisFields)
	r.OverallScore = loosePercent(w.OverallScore)
	return nil
}

// Issues returns the issue list for a category. Positives has no issues.
func (r *AnalysisResult) Issues(c Category) []Issue {
	if r == nil {
		return nil
	}
	switch c {
	case CategoryBugs:
		return r.Bugs
	case CategorySecurity:
		return r.Security
	case CategoryPerformance:
		return r.Performance
	case CategoryBestPractices:
		return r.BestPractices
	default:
		return nil
	}
}

// MaxSeverity returns the highest severity among bugs, security and
// performance issues, and false when there are none.
func (r *AnalysisResult) MaxSeverity() (Severity, bool) {
	found := false
	max := SeverityLow
	for _, c := range []Category{CategoryBugs, CategorySecurity, CategoryPerformance} {
		for _, is := range r.Issues(c) {
			if !found || is.Severity.Rank() > max.Rank() {
				max = is.Severity
			}
			found = true
		}
	}
	return max, found
}

// ChangeType classifies one edit in a rewrite.
type ChangeType string

const (
	ChangeBugFix      ChangeType = "bug_fix"
	ChangePerformance ChangeType = "performance"
	ChangeSecurity    ChangeType = "security"
	ChangeStyle       ChangeType = "style"
	ChangeRefactor    ChangeType = "refactor"
)

// Change is one edit described by the rewrite service.
type Change struct {
	Type        ChangeType `json:"type"`
	Description string     `json:"description"`
}

// RewriteResult is the payload returned by /api/rewrite.
type RewriteResult struct {
	Explanation   string   `json:"explanation"`
	OptimizedCode string   `json:"optimizedCode"`
	Changes       []Change `json:"changes"`
}

// HistoryEntry is a read-only summary of a past analysis.
type HistoryEntry struct {
	ID          string `json:"id,omitempty"`
	Language    string `json:"language"`
	Grade       string `json:"grade"`
	Summary     string `json:"summary"`
	Score       int    `json:"score"`
	IssueCount  int    `json:"issueCount"`
	Timestamp   string `json:"timestamp"`
	CodeSnippet string `json:"codeSnippet,omitempty"`
}

type historyFields HistoryEntry

// UnmarshalJSON accepts the stored score in the same loose forms as an
// analysis.
func (h *HistoryEntry) UnmarshalJSON(b []byte) error {
	var w struct {
		historyFields
		Score      json.RawMessage `json:"score"`
		IssueCount json.RawMessage `json:"issueCount"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*h = HistoryEntry(w.historyFields)
	h.Score = loosePercent(w.Score)
	h.IssueCount = looseCount(w.IssueCount)
	return nil
}

// AnalysisRequest is what the user submits for review.
type AnalysisRequest struct {
	Code     string      `json:"code"`
	Language LanguageTag `json:"language"`
	Model    string      `json:"model,omitempty"`
}

// ReviewContext is the reduced form of an issue sent along with a rewrite.
type ReviewContext struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
