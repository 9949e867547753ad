// Package view derives render-ready view models from analysis payloads.
// Every function here is pure: inputs are never mutated and identical
// inputs yield identical outputs.
package view

import (
	"fmt"

	"github.com/sprite-ai/coderefine/internal/model"
)

// RingCircumference is the length of the score ring stroke.
const RingCircumference = 326.0

// Band is a color/severity tier.
type Band int

const (
	BandExcellent Band = iota
	BandGood
	BandFair
	BandPoor
)

var bandColors = [...]string{
	BandExcellent: "#00cc88",
	BandGood:      "#ffcc00",
	BandFair:      "#4d9fff",
	BandPoor:      "#ff4d6a",
}

// Color is the band's hex color.
func (b Band) Color() string {
	if b < 0 || int(b) >= len(bandColors) {
		return bandColors[BandPoor]
	}
	return bandColors[b]
}

func (b Band) String() string {
	switch b {
	case BandExcellent:
		return "excellent"
	case BandGood:
		return "good"
	case BandFair:
		return "fair"
	default:
		return "poor"
	}
}

// ScoreBand tiers an overall score at 80, 60 and 40.
func ScoreBand(score int) Band {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 60:
		return BandGood
	case score >= 40:
		return BandFair
	default:
		return BandPoor
	}
}

// MetricBand tiers a metric value at 70 and 40. Metrics use three tiers,
// sharing colors with the score bands.
func MetricBand(v int) Band {
	switch {
	case v >= 70:
		return BandExcellent
	case v >= 40:
		return BandGood
	default:
		return BandPoor
	}
}

// RingOffset is the stroke offset of the score ring. It decreases
// monotonically from the full circumference at 0 to zero at 100.
func RingOffset(score int) float64 {
	s := clamp(score)
	return RingCircumference - float64(s)/100*RingCircumference
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// CategoryCount is one selector tab.
type CategoryCount struct {
	Category model.Category
	Label    string
	Count    int
}

// MetricBar is one quality gauge.
type MetricBar struct {
	Name  string
	Value int
	Band  Band
}

// IssueCard is one finding ready to render. All text is sanitized.
type IssueCard struct {
	ID          string
	Title       string
	Description string
	// Severity is the lowercase canonical badge.
	Severity string
	Fix      string
	// Line is zero when the service gave none.
	Line int
	CWE  string
}

// ResultView is the projected result surface.
type ResultView struct {
	Score      int
	Grade      string
	Summary    string
	Band       Band
	RingOffset float64

	// Stats is the summary row: bugs, security, performance, lines.
	Stats   []string
	Counts  []CategoryCount
	Metrics []MetricBar

	Category  model.Category
	Cards     []IssueCard
	Positives []string
	// Empty is the empty-state message when the category has no items.
	Empty string
}

var emptyMessages = map[model.Category]string{
	model.CategoryBugs:          "No bugs detected",
	model.CategorySecurity:      "No security issues",
	model.CategoryPerformance:   "No performance issues",
	model.CategoryBestPractices: "No best practice violations",
	model.CategoryPositives:     "No specific positives listed",
}

// EmptyMessage is the fixed empty-state text of a category.
func EmptyMessage(c model.Category) string {
	if msg, ok := emptyMessages[c]; ok {
		return msg
	}
	return "Nothing to show"
}

// Project builds the result view for r showing category cat.
func Project(r *model.AnalysisResult, cat model.Category) ResultView {
	if r == nil {
		r = &model.AnalysisResult{}
	}
	if !cat.Valid() {
		cat = model.DefaultCategory
	}

	score := clamp(r.OverallScore)
	v := ResultView{
		Score:      score,
		Grade:      orDefault(SanitizeLine(r.Grade), "—"),
		Summary:    Sanitize(r.Summary),
		Band:       ScoreBand(score),
		RingOffset: RingOffset(score),
		Category:   cat,
	}

	lines := "?"
	var metrics model.Metrics
	if r.Metrics != nil {
		metrics = *r.Metrics
		if metrics.LinesOfCode > 0 {
			lines = fmt.Sprint(metrics.LinesOfCode)
		}
	}
	v.Stats = []string{
		fmt.Sprintf("%d Bugs", len(r.Bugs)),
		fmt.Sprintf("%d Security", len(r.Security)),
		fmt.Sprintf("%d Performance", len(r.Performance)),
		lines + " Lines",
	}

	for _, c := range model.Categories {
		n := len(r.Issues(c))
		if c == model.CategoryPositives {
			n = len(r.Positives)
		}
		v.Counts = append(v.Counts, CategoryCount{Category: c, Label: c.Label(), Count: n})
	}

	for _, m := range []struct {
		name  string
		value int
	}{
		{"Maintainability", metrics.Maintainability},
		{"Testability", metrics.Testability},
		{"Readability", metrics.Readability},
	} {
		val := clamp(m.value)
		v.Metrics = append(v.Metrics, MetricBar{Name: m.name, Value: val, Band: MetricBand(val)})
	}

	if cat == model.CategoryPositives {
		for _, p := range r.Positives {
			v.Positives = append(v.Positives, SanitizeLine(p))
		}
		if len(v.Positives) == 0 {
			v.Empty = EmptyMessage(cat)
		}
		return v
	}

	for _, is := range r.Issues(cat) {
		v.Cards = append(v.Cards, Card(is))
	}
	if len(v.Cards) == 0 {
		v.Empty = EmptyMessage(cat)
	}
	return v
}

// Card projects one issue.
func Card(is model.Issue) IssueCard {
	line := is.Line
	if line < 0 {
		line = 0
	}
	return IssueCard{
		ID:          SanitizeLine(is.ID),
		Title:       SanitizeLine(is.Title),
		Description: Sanitize(is.Description),
		Severity:    is.Severity.String(),
		Fix:         Sanitize(is.Fix),
		Line:        line,
		CWE:         SanitizeLine(is.CWE),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
