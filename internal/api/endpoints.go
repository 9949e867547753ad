package api

import (
	"context"
	"net/http"

	"github.com/sprite-ai/coderefine/internal/model"
)

// --- Analyze ---

type analyzeResponse struct {
	Analysis  *model.AnalysisResult `json:"analysis"`
	SessionID string                `json:"sessionId,omitempty"`
}

// AnalyzeResult is a decoded /api/analyze success.
type AnalyzeResult struct {
	Analysis *model.AnalysisResult
	// SessionID is set when the service assigned or echoed a session.
	SessionID string
}

// Analyze posts code for review.
func (c *Client) Analyze(ctx context.Context, sessionID string, req model.AnalysisRequest) (*AnalyzeResult, error) {
	var resp analyzeResponse
	if err := c.do(ctx, http.MethodPost, PathAnalyze, sessionID, req, &resp); err != nil {
		return nil, err
	}
	if resp.Analysis == nil {
		return nil, &DecodeError{Path: PathAnalyze, Err: errMissingField("analysis")}
	}
	return &AnalyzeResult{Analysis: resp.Analysis, SessionID: resp.SessionID}, nil
}

// --- Rewrite ---

// RewriteRequest is the /api/rewrite body: the analysis request plus the
// findings the rewrite should address.
type RewriteRequest struct {
	Code     string                `json:"code"`
	Language model.LanguageTag     `json:"language"`
	Model    string                `json:"model,omitempty"`
	Issues   []model.ReviewContext `json:"issues"`
}

type rewriteResponse struct {
	Rewrite *model.RewriteResult `json:"rewrite"`
}

// Rewrite asks the service for an optimized version of the code.
func (c *Client) Rewrite(ctx context.Context, sessionID string, req RewriteRequest) (*model.RewriteResult, error) {
	if req.Issues == nil {
		req.Issues = []model.ReviewContext{}
	}
	var resp rewriteResponse
	if err := c.do(ctx, http.MethodPost, PathRewrite, sessionID, req, &resp); err != nil {
		return nil, err
	}
	if resp.Rewrite == nil {
		return nil, &DecodeError{Path: PathRewrite, Err: errMissingField("rewrite")}
	}
	return resp.Rewrite, nil
}

// --- History ---

type historyResponse struct {
	History []model.HistoryEntry `json:"history"`
}

// History lists the session's past analyses, newest first.
func (c *Client) History(ctx context.Context, sessionID string) ([]model.HistoryEntry, error) {
	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, PathHistory, sessionID, nil, &resp); err != nil {
		return nil, err
	}
	if resp.History == nil {
		return []model.HistoryEntry{}, nil
	}
	return resp.History, nil
}

// ClearHistory deletes the session's history. The response body is ignored.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, PathHistory, sessionID, nil, nil)
}
