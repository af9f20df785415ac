package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/dhawalhost/googlesignin/pkg/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultDemoDelay       = 2 * time.Second
	DefaultPollInterval    = 1 * time.Second
	DefaultFallbackTimeout = 5 * time.Second
)

const (
	modeDemo  = "demo"
	modePopup = "popup"
)

var tracer = observability.Tracer("github.com/dhawalhost/googlesignin/internal/authflow")

// Options tunes a Controller. Zero durations fall back to the defaults.
type Options struct {
	// DevMode forces demo mode regardless of the client id.
	DevMode bool

	DemoDelay       time.Duration
	PollInterval    time.Duration
	FallbackTimeout time.Duration

	Clock   clockwork.Clock
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Controller runs Google sign-in attempts. It is safe for concurrent use;
// every Login call owns its own popup and timers.
type Controller struct {
	cfg     AuthConfig
	opener  Opener
	devMode bool

	demoDelay       time.Duration
	pollInterval    time.Duration
	fallbackTimeout time.Duration

	ids     *idSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewController creates a Controller for cfg. opener may be nil when the
// controller only ever runs in demo mode.
func NewController(cfg AuthConfig, opener Opener, opts Options) *Controller {
	if opts.DemoDelay <= 0 {
		opts.DemoDelay = DefaultDemoDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.FallbackTimeout <= 0 {
		opts.FallbackTimeout = DefaultFallbackTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		cfg:             cfg,
		opener:          opener,
		devMode:         opts.DevMode,
		demoDelay:       opts.DemoDelay,
		pollInterval:    opts.PollInterval,
		fallbackTimeout: opts.FallbackTimeout,
		ids:             newIDSource(opts.Clock),
		logger:          opts.Logger,
		metrics:         opts.Metrics,
	}
}

// Config returns the OAuth client registration the controller was built with.
func (c *Controller) Config() AuthConfig {
	return c.cfg
}

// DemoMode reports whether Login simulates the provider instead of opening a popup.
func (c *Controller) DemoMode() bool {
	return c.devMode || c.cfg.Unconfigured()
}

// Login resolves to exactly one user or one error.
//
// In demo mode it returns a synthetic user after the demo delay. Otherwise
// it opens the Google consent popup and races a closure poll against the
// fallback timer: closure fails with ErrPopupClosedByUser, the timer closes
// the popup and returns a fallback user.
func (c *Controller) Login(ctx context.Context) (AuthenticatedUser, error) {
	attemptID := uuid.NewString()
	demo := c.DemoMode()
	mode := modePopup
	if demo {
		mode = modeDemo
	}

	ctx, span := tracer.Start(ctx, "authflow.Login", trace.WithAttributes(
		attribute.String("login.attempt_id", attemptID),
		attribute.String("login.mode", mode),
	))
	defer span.End()

	logger := c.logger.With(zap.String("attempt_id", attemptID), zap.String("mode", mode))
	logger.Info("Google login started")
	start := time.Now()

	var (
		user AuthenticatedUser
		err  error
	)
	if demo {
		user, err = c.simulate(ctx, logger)
	} else {
		user, err = c.runPopup(ctx, logger)
	}

	c.metrics.ObserveLogin(mode, outcome(mode, err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("Google login failed", zap.Error(err))
		return AuthenticatedUser{}, err
	}

	span.SetAttributes(attribute.String("login.user_id", user.ID))
	logger.Info("Google login resolved", zap.String("user_id", user.ID), zap.String("name", user.Name))
	return user, nil
}

func (c *Controller) simulate(ctx context.Context, logger *zap.Logger) (AuthenticatedUser, error) {
	logger.Debug("Demo mode, simulating provider", zap.Duration("delay", c.demoDelay))

	timer := time.NewTimer(c.demoDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return newSyntheticUser(c.ids.next(), demoName), nil
	case <-ctx.Done():
		return AuthenticatedUser{}, ctx.Err()
	}
}

func (c *Controller) runPopup(ctx context.Context, logger *zap.Logger) (AuthenticatedUser, error) {
	state, err := newState()
	if err != nil {
		logger.Error("Failed to generate state", zap.Error(err))
		return AuthenticatedUser{}, err
	}
	authURL := c.cfg.AuthCodeURL(state)

	// State is not checked against the redirect anywhere in this service.
	logger.Debug("Opening Google consent popup",
		zap.String("state", state),
		zap.String("auth_url", authURL),
	)

	if c.opener == nil {
		return AuthenticatedUser{}, ErrPopupBlocked.wrap(errors.New("no popup opener configured"))
	}
	popup, err := c.opener.Open(ctx, authURL, PopupOptions{Width: PopupWidth, Height: PopupHeight})
	if err != nil {
		logger.Error("Failed to open popup", zap.Error(err))
		return AuthenticatedUser{}, ErrPopupBlocked.wrap(err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	closed := make(chan struct{})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		c.watchPopup(watchCtx, popup, closed)
	}()
	// The poll goroutine has exited by the time Login returns.
	defer func() {
		stopWatch()
		<-watchDone
	}()

	fallback := time.NewTimer(c.fallbackTimeout)
	defer fallback.Stop()

	select {
	case <-closed:
		logger.Info("Popup closed by user")
		return AuthenticatedUser{}, ErrPopupClosedByUser
	case <-fallback.C:
		logger.Info("Popup did not complete in time, using fallback identity",
			zap.Duration("timeout", c.fallbackTimeout))
		c.release(popup, logger)
		return newSyntheticUser(c.ids.next(), fallbackName), nil
	case <-ctx.Done():
		c.release(popup, logger)
		return AuthenticatedUser{}, ctx.Err()
	}
}

// watchPopup closes closed once the popup reports closure.
func (c *Controller) watchPopup(ctx context.Context, popup Popup, closed chan<- struct{}) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if popup.Closed() {
				close(closed)
				return
			}
		}
	}
}

func (c *Controller) release(popup Popup, logger *zap.Logger) {
	if popup.Closed() {
		return
	}
	if err := popup.Close(); err != nil {
		logger.Warn("Failed to close popup", zap.Error(err))
	}
}

func outcome(mode string, err error) string {
	switch {
	case err == nil && mode == modePopup:
		return "fallback"
	case err == nil:
		return "success"
	case errors.Is(err, ErrPopupClosedByUser):
		return "popup_closed"
	case errors.Is(err, ErrPopupBlocked):
		return "popup_blocked"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
