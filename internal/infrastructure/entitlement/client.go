// Package entitlement implements the access gate against the external
// entitlement service. The service is the authority on which locked
// modules and features a family's plan unlocks; everything here is
// about asking it resiliently and failing into a distinguishable
// degraded verdict instead of an open gate.
package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/entitlement"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/pkg/circuitbreaker"
	"github.com/explo-hub/explo-progression-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the entitlement service client.
type ClientConfig struct {
	// BaseURL is the entitlement service base URL.
	BaseURL string

	// APIKey authenticates this backend against the service.
	APIKey string

	// Timeout is the HTTP request timeout per attempt.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP GATE
// ══════════════════════════════════════════════════════════════════════════════

// HTTPGate implements entitlement.Gate against the remote service.
// Transient failures are retried with backoff; sustained failure trips
// the circuit breaker so submissions fail fast into the degraded
// verdict instead of stacking up on timeouts.
type HTTPGate struct {
	config     ClientConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewHTTPGate creates a new HTTPGate.
func NewHTTPGate(config ClientConfig) *HTTPGate {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	logger := config.Logger

	// A clear denial is a healthy answer; only failures to decide may
	// trip the circuit.
	breaker := circuitbreaker.New(
		"entitlement-service",
		circuitbreaker.WithFailureThreshold(3),
		circuitbreaker.WithSuccessThreshold(2),
		circuitbreaker.WithTimeout(30*time.Second),
		circuitbreaker.WithIsFailure(func(err error) bool {
			return !errors.Is(err, shared.ErrEntitlementDenied)
		}),
		circuitbreaker.WithOnStateChange(
			func(name string, from, to circuitbreaker.State) {
				logger.Warn("circuit state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}),
	)

	return &HTTPGate{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		retrier:    retry.EntitlementRetrier(),
		breaker:    breaker,
		logger:     logger,
	}
}

// verdictDTO is the service's answer to one access check.
type verdictDTO struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanAccessModule asks the service whether an explorer may enter a
// locked module.
func (g *HTTPGate) CanAccessModule(ctx context.Context, explorerID shared.ExplorerID, moduleID shared.ModuleID) error {
	path := fmt.Sprintf("/api/v1/access/%s/modules/%s",
		url.PathEscape(explorerID.String()), url.PathEscape(moduleID.String()))
	return g.check(ctx, path)
}

// CanAccessDrills asks the service whether an explorer may use the
// speed drill feature.
func (g *HTTPGate) CanAccessDrills(ctx context.Context, explorerID shared.ExplorerID) error {
	path := fmt.Sprintf("/api/v1/access/%s/drills",
		url.PathEscape(explorerID.String()))
	return g.check(ctx, path)
}

// check runs one access decision through the breaker and the retrier
// and maps the outcome onto the gate contract: a clear "no" is
// ErrEntitlementDenied, every failure to decide is
// ErrEntitlementUnavailable.
func (g *HTTPGate) check(ctx context.Context, path string) error {
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.retrier.Do(ctx, func(ctx context.Context) error {
			return g.fetchVerdict(ctx, path)
		})
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, shared.ErrEntitlementDenied) {
		return shared.ErrEntitlementDenied
	}

	g.logger.Warn("entitlement check failed",
		slog.String("path", path),
		slog.String("error", err.Error()))
	return shared.ErrEntitlementUnavailable
}

// fetchVerdict performs one HTTP attempt. Denials come back as
// permanent errors so the retrier does not hammer a service that has
// already said no.
func (g *HTTPGate) fetchVerdict(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.config.BaseURL+path, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var verdict verdictDTO
		if err := json.Unmarshal(body, &verdict); err != nil {
			return retry.Permanent(fmt.Errorf("parse verdict: %w", err))
		}
		if !verdict.Allowed {
			return retry.Permanent(shared.ErrEntitlementDenied)
		}
		return nil

	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusPaymentRequired:
		return retry.Permanent(shared.ErrEntitlementDenied)

	case resp.StatusCode >= 500,
		resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(fmt.Errorf("service returned status %d", resp.StatusCode))

	default:
		return retry.Permanent(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}
}

var _ entitlement.Gate = (*HTTPGate)(nil)
