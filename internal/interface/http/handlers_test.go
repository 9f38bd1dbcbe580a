package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explo-hub/explo-progression-hub/internal/application/command"
	"github.com/explo-hub/explo-progression-hub/internal/application/query"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Stubs
// ─────────────────────────────────────────────────────────────────────────────

type stubSubmit struct {
	got    command.SubmitResponseCommand
	result *command.SubmitResponseResult
	err    error
}

func (s *stubSubmit) Handle(_ context.Context, cmd command.SubmitResponseCommand) (*command.SubmitResponseResult, error) {
	s.got = cmd
	return s.result, s.err
}

type stubRegister struct {
	result *command.RegisterExplorerResult
	err    error
}

func (s *stubRegister) Handle(_ context.Context, _ command.RegisterExplorerCommand) (*command.RegisterExplorerResult, error) {
	return s.result, s.err
}

type stubDrillStats struct {
	err error
}

func (s *stubDrillStats) Handle(_ context.Context, _ query.GetDrillStatsQuery) (*query.DrillStatsView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &query.DrillStatsView{}, nil
}

func newTestServer(deps Dependencies) *Server {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return NewServer(cfg, deps)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestSubmitResponse_DecodesBodyAndPathID(t *testing.T) {
	stub := &stubSubmit{result: &command.SubmitResponseResult{Completed: true, Correct: true}}
	srv := newTestServer(Dependencies{SubmitResponse: stub})

	body := bytes.NewBufferString(`{"module_id":"fractions","defi_id":"halves","selected_option":2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/explorers/exp-1/submissions", body)
	rec := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, shared.ExplorerID("exp-1"), stub.got.ExplorerID)
	assert.Equal(t, shared.ModuleID("fractions"), stub.got.ModuleID)
	require.NotNil(t, stub.got.SelectedOption)
	assert.Equal(t, 2, *stub.got.SelectedOption)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestSubmitResponse_MissingDefiRejectedBeforeHandler(t *testing.T) {
	stub := &stubSubmit{}
	srv := newTestServer(Dependencies{SubmitResponse: stub})

	body := bytes.NewBufferString(`{"module_id":"fractions"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/explorers/exp-1/submissions", body)
	rec := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, stub.got.ExplorerID, "handler must not run on invalid input")
}

func TestSubmitResponse_UnknownFieldRejected(t *testing.T) {
	srv := newTestServer(Dependencies{SubmitResponse: &stubSubmit{}})

	body := bytes.NewBufferString(`{"module_id":"m","defi_id":"d","responseText":"typo"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/explorers/exp-1/submissions", body)
	rec := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrExplorerNotFound, http.StatusNotFound, "not_found"},
		{"locked defi", shared.ErrDefiLocked, http.StatusForbidden, "forbidden"},
		{"entitlement denied", shared.ErrEntitlementDenied, http.StatusForbidden, "forbidden"},
		{"terminal record", shared.ErrRecordTerminal, http.StatusConflict, "invalid_state"},
		{"entitlement unavailable", shared.ErrEntitlementUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"invalid score", shared.ErrInvalidScore, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(Dependencies{SubmitResponse: &stubSubmit{err: tt.err}})

			body := bytes.NewBufferString(`{"module_id":"m","defi_id":"d","response_text":"hi"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/explorers/exp-1/submissions", body)
			rec := httptest.NewRecorder()

			srv.httpServer.Handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestRegisterExplorer_Created(t *testing.T) {
	srv := newTestServer(Dependencies{
		RegisterExplorer: &stubRegister{result: &command.RegisterExplorerResult{}},
	})

	body := bytes.NewBufferString(`{"name":"Ayana","pin":"1234"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/explorers", body)
	rec := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegisterExplorer_Conflict(t *testing.T) {
	srv := newTestServer(Dependencies{
		RegisterExplorer: &stubRegister{err: shared.ErrExplorerAlreadyExists},
	})

	body := bytes.NewBufferString(`{"name":"Ayana","pin":"1234"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/explorers", body)
	rec := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "already_exists", resp.Error.Code)
}

func TestUnconfiguredHandlerReturnsNotImplemented(t *testing.T) {
	srv := newTestServer(Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/explorers/exp-1/drills/stats", nil)
	rec := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestInternalErrorHidesDetails(t *testing.T) {
	srv := newTestServer(Dependencies{
		GetDrillStats: &stubDrillStats{err: shared.WrapError("drill", "List", shared.ErrPersistence, "connection refused to 10.0.0.5", nil)},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/explorers/exp-1/drills/stats", nil)
	rec := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestHealthEndpointWithoutChecker(t *testing.T) {
	srv := newTestServer(Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
