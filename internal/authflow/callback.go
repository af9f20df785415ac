package authflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dhawalhost/googlesignin/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// CallbackPath is the backend route that completes the code exchange.
const CallbackPath = "/api/auth/google/callback"

// CallbackRequest is the body posted to the backend.
type CallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// Forwarder relays authorization codes from the redirect callback to the backend.
type Forwarder struct {
	BaseURL    string
	HTTPClient *http.Client

	logger  *zap.Logger
	metrics *observability.Metrics
}

// ForwarderConfig holds configuration for the Forwarder.
type ForwarderConfig struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewForwarder creates a new Forwarder.
func NewForwarder(cfg ForwarderConfig) *Forwarder {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Forwarder{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// HandleGoogleCallback posts code and state to the backend and returns its
// response body unchanged. Transport failures and non-2xx answers come back
// as ErrNetworkOrBackend; nothing is retried.
func (f *Forwarder) HandleGoogleCallback(ctx context.Context, code, state string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "authflow.HandleGoogleCallback")
	defer span.End()

	body, err := f.forward(ctx, code, state)
	if err != nil {
		f.metrics.ObserveCallback("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.Error("Failed to forward Google callback", zap.Error(err))
		return nil, err
	}

	f.metrics.ObserveCallback("ok")
	span.SetAttributes(attribute.Int("callback.response_bytes", len(body)))
	return body, nil
}

func (f *Forwarder) forward(ctx context.Context, code, state string) (json.RawMessage, error) {
	payload, err := json.Marshal(CallbackRequest{Code: code, State: state})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+CallbackPath, bytes.NewReader(payload))
	if err != nil {
		return nil, ErrNetworkOrBackend.wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, ErrNetworkOrBackend.wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrNetworkOrBackend.wrap(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Code:       CodeNetworkOrBackendError,
			Message:    ErrNetworkOrBackend.Message,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	return json.RawMessage(respBody), nil
}
