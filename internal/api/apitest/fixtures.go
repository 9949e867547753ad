package apitest

import (
	"encoding/json"
	"net/http"
)

// SampleAnalysisJSON is a realistic analysis payload using every field
// spelling the service emits.
const SampleAnalysisJSON = `{
  "overallScore": 45,
  "grade": "C",
  "summary": "Works for the happy path but has an injection flaw.",
  "bugs": [
    {"id": "BUG001", "line": 21, "title": "Division by zero", "description": "len(numbers) may be 0", "severity": "HIGH", "fix": "Guard empty input"}
  ],
  "security": [
    {"id": "SEC001", "line": 9, "title": "SQL injection", "description": "Query built with f-string", "severity": "critical", "cwe": "CWE-89", "fix": "Use parameters"},
    {"id": "SEC002", "line": 33, "title": "Hardcoded credential", "description": "password literal", "severity": "high", "cwe": null, "fix": "Read from env"}
  ],
  "performance": [
    {"id": "PERF001", "line": 19, "title": "Manual sum", "description": "Loop accumulates", "impact": "low", "suggestion": "Use sum()"},
    {"id": "PERF002", "line": 25, "title": "Quadratic scan", "description": "Nested loops", "impact": "Medium", "suggestion": "Use a set"}
  ],
  "bestPractices": [
    {"id": "BP001", "line": null, "title": "Unclosed connection", "description": "conn never closed", "category": "structure", "recommendation": "Use a context manager"}
  ],
  "metrics": {"linesOfCode": 34, "complexity": "medium", "maintainability": 55, "testability": 38, "readability": 72},
  "positives": ["Small focused functions", "Descriptive names"]
}`

// SampleRewriteJSON is a realistic rewrite payload.
const SampleRewriteJSON = `{
  "optimizedCode": "def calculate_average(numbers):\n    if not numbers:\n        return 0\n    return sum(numbers) / len(numbers)\n",
  "changes": [
    {"type": "bug_fix", "description": "Handle empty input"},
    {"type": "performance", "description": "Use built-in sum"},
    {"type": "docs", "description": "Unknown change kind"}
  ],
  "explanation": "Guarded the division and simplified the loop."
}`

// AnalyzeOK wraps an analysis payload in the success envelope.
func AnalyzeOK(analysisJSON string) Reply {
	return Reply{Status: http.StatusOK, Body: map[string]any{
		"success":  true,
		"analysis": json.RawMessage(analysisJSON),
	}}
}

// RewriteOK wraps a rewrite payload in the success envelope.
func RewriteOK(rewriteJSON string) Reply {
	return Reply{Status: http.StatusOK, Body: map[string]any{
		"success": true,
		"rewrite": json.RawMessage(rewriteJSON),
	}}
}

// Fail is a failure reply with a {"detail": msg} body.
func Fail(status int, msg string) Reply {
	return Reply{Status: status, Body: Detail(msg)}
}
