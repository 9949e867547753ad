package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/sprite-ai/coderefine/internal/model"
)

// EmptyHistoryMessage is shown when a session has no past analyses.
const EmptyHistoryMessage = "No analyses yet. Run your first code review!"

// HistoryRow is one rendered history entry.
type HistoryRow struct {
	Score    int
	Band     Band
	Heading  string
	Summary  string
	Time     string
	Issues   string
	Language string
	Grade    string
}

// timestampLayouts are the shapes the service has used for timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// displayLayout renders timestamps in the viewer's locale-neutral form.
const displayLayout = "Jan 2, 2006 3:04 PM"

// FormatTimestamp renders a service timestamp in loc. Unparseable values
// are returned sanitized as-is; empty values stay empty.
func FormatTimestamp(ts string, loc *time.Location) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.In(loc).Format(displayLayout)
		}
	}
	return SanitizeLine(ts)
}

// ProjectHistory builds history rows in the order given, timestamps
// rendered in loc.
func ProjectHistory(entries []model.HistoryEntry, loc *time.Location) []HistoryRow {
	rows := make([]HistoryRow, 0, len(entries))
	for _, e := range entries {
		score := clamp(e.Score)
		lang := SanitizeLine(e.Language)
		grade := orDefault(SanitizeLine(e.Grade), "?")
		rows = append(rows, HistoryRow{
			Score:    score,
			Band:     ScoreBand(score),
			Heading:  fmt.Sprintf("%s — Grade %s", lang, grade),
			Summary:  SanitizeLine(e.Summary),
			Time:     FormatTimestamp(e.Timestamp, loc),
			Issues:   fmt.Sprintf("%d issues", e.IssueCount),
			Language: lang,
			Grade:    grade,
		})
	}
	return rows
}
