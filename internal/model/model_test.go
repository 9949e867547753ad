package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{SeverityLow, "low"},
		{SeverityMedium, "medium"},
		{SeverityHigh, "high"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}

func TestParseSeverityAnyCase(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"low", SeverityLow},
		{"LOW", SeverityLow},
		{"Medium", SeverityMedium},
		{"hIgH", SeverityHigh},
		{"CRITICAL", SeverityCritical},
		{" critical ", SeverityCritical},
		{"", SeverityMedium},
		{"severe", SeverityMedium},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIssueNormalizesFieldVariants(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantSev Severity
		wantFix string
		line    int
		cwe     string
	}{
		{
			name:    "severity and fix",
			payload: `{"id":"BUG001","title":"t","description":"d","severity":"HIGH","fix":"do x","line":12}`,
			wantSev: SeverityHigh,
			wantFix: "do x",
			line:    12,
		},
		{
			name:    "impact and suggestion",
			payload: `{"id":"PERF001","title":"t","description":"d","impact":"Low","suggestion":"use sum"}`,
			wantSev: SeverityLow,
			wantFix: "use sum",
		},
		{
			name:    "severity preferred over impact",
			payload: `{"severity":"critical","impact":"low"}`,
			wantSev: SeverityCritical,
		},
		{
			name:    "recommendation fallback",
			payload: `{"recommendation":"rename it","line":null}`,
			wantSev: SeverityMedium,
			wantFix: "rename it",
		},
		{
			name:    "fix wins over suggestion",
			payload: `{"fix":"a","suggestion":"b","recommendation":"c"}`,
			wantSev: SeverityMedium,
			wantFix: "a",
		},
		{
			name:    "cwe and string line",
			payload: `{"severity":"high","cwe":"CWE-89","line":"7"}`,
			wantSev: SeverityHigh,
			line:    7,
			cwe:     "CWE-89",
		},
		{
			name:    "null cwe",
			payload: `{"cwe":null}`,
			wantSev: SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var is Issue
			if err := json.Unmarshal([]byte(tt.payload), &is); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if is.Severity != tt.wantSev {
				t.Errorf("severity = %v, want %v", is.Severity, tt.wantSev)
			}
			if is.Fix != tt.wantFix {
				t.Errorf("fix = %q, want %q", is.Fix, tt.wantFix)
			}
			if is.Line != tt.line {
				t.Errorf("line = %d, want %d", is.Line, tt.line)
			}
			if is.CWE != tt.cwe {
				t.Errorf("cwe = %q, want %q", is.CWE, tt.cwe)
			}
		})
	}
}

func TestAnalysisResultDecode(t *testing.T) {
	payload := `{
		"overallScore": 45,
		"grade": "C",
		"summary": "needs work",
		"bugs": [{"id":"BUG001","title":"Division by zero","description":"d","severity":"high"}],
		"security": [],
		"performance": [{"title":"p1","impact":"medium"},{"title":"p2","impact":"low"}],
		"positives": ["clear names"],
		"metrics": {"linesOfCode": 30, "complexity": "medium", "maintainability": 55, "testability": 40, "readability": 70}
	}`

	var r AnalysisResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(r.Bugs) != 1 || len(r.Performance) != 2 {
		t.Fatalf("unexpected counts: bugs=%d perf=%d", len(r.Bugs), len(r.Performance))
	}
	if r.Metrics == nil || r.Metrics.LinesOfCode != 30 {
		t.Errorf("metrics not decoded: %+v", r.Metrics)
	}
	if got := r.Issues(CategoryPerformance)[1].Severity; got != SeverityLow {
		t.Errorf("perf[1] severity = %v, want low", got)
	}
	if r.Issues(CategoryPositives) != nil {
		t.Error("positives should have no issue list")
	}

	max, ok := r.MaxSeverity()
	if !ok || max != SeverityHigh {
		t.Errorf("MaxSeverity() = %v, %v; want high, true", max, ok)
	}
}

func TestLooseScoresAndMetrics(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		score   int
		maint   int
		lines   int
	}{
		{"fractional score", `{"overallScore": 72.5}`, 73, 0, 0},
		{"quoted score", `{"overallScore": "72"}`, 72, 0, 0},
		{"quoted fractional score", `{"overallScore": " 64.4 "}`, 64, 0, 0},
		{"fractional metric", `{"overallScore": 80, "metrics": {"maintainability": 65.5, "linesOfCode": "12"}}`, 80, 66, 12},
		{"out of range", `{"overallScore": 140, "metrics": {"maintainability": -3}}`, 100, 0, 0},
		{"unusable score", `{"overallScore": "high"}`, 0, 0, 0},
		{"null score", `{"overallScore": null}`, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r AnalysisResult
			if err := json.Unmarshal([]byte(tt.payload), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if r.OverallScore != tt.score {
				t.Errorf("OverallScore = %d, want %d", r.OverallScore, tt.score)
			}
			if r.Metrics == nil {
				return
			}
			if r.Metrics.Maintainability != tt.maint {
				t.Errorf("Maintainability = %d, want %d", r.Metrics.Maintainability, tt.maint)
			}
			if r.Metrics.LinesOfCode != tt.lines {
				t.Errorf("LinesOfCode = %d, want %d", r.Metrics.LinesOfCode, tt.lines)
			}
		})
	}
}

func TestAnalysisResultKeepsOtherFields(t *testing.T) {
	payload := `{"overallScore": "90.2", "grade": "A", "summary": "ok",
		"bugs": [{"title": "b", "severity": "low", "line": "7"}],
		"metrics": {"complexity": 3, "readability": "88"}}`

	var r AnalysisResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.OverallScore != 90 || r.Grade != "A" || r.Summary != "ok" {
		t.Errorf("got score=%d grade=%q summary=%q", r.OverallScore, r.Grade, r.Summary)
	}
	if len(r.Bugs) != 1 || r.Bugs[0].Line != 7 {
		t.Errorf("bugs not decoded: %+v", r.Bugs)
	}
	if r.Metrics.Readability != 88 || r.Metrics.Complexity != "3" {
		t.Errorf("metrics = %+v", r.Metrics)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"overallScore":90`) {
		t.Errorf("re-encoded score is not a plain number: %s", out)
	}
}

func TestHistoryEntryLooseScore(t *testing.T) {
	var h HistoryEntry
	if err := json.Unmarshal([]byte(`{"language": "go", "score": 72.5, "issueCount": "4", "timestamp": "t"}`), &h); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if h.Score != 73 || h.IssueCount != 4 || h.Language != "go" || h.Timestamp != "t" {
		t.Errorf("got %+v", h)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"bugs", CategoryBugs, true},
		{"Security", CategorySecurity, true},
		{"bestPractices", CategoryBestPractices, true},
		{"best-practices", CategoryBestPractices, true},
		{"positives", CategoryPositives, true},
		{"style", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCategory(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLanguageCatalog(t *testing.T) {
	if ParseLanguage(" Python ") != "python" {
		t.Errorf("expected canonical python, got %q", ParseLanguage(" Python "))
	}
	if ParseLanguage("Zig") != "Zig" {
		t.Errorf("unknown languages should pass through, got %q", ParseLanguage("Zig"))
	}
	if LanguageTag("cpp").SyntaxMode() != "c++" {
		t.Errorf("cpp syntax mode = %q", LanguageTag("cpp").SyntaxMode())
	}
	if LanguageTag("zig").SyntaxMode() != "zig" {
		t.Errorf("unknown syntax mode should pass through")
	}
	if tag, ok := LanguageForFile("src/Main.JAVA"); !ok || tag != "java" {
		t.Errorf("LanguageForFile = %q, %v", tag, ok)
	}
	if _, ok := LanguageForFile("README"); ok {
		t.Error("expected no language for README")
	}
}
