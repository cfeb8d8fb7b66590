package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ConnectionState describes the lifecycle of the backend session.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateError        ConnectionState = "error"
)

// IsValid checks if the connection state is a known value.
func (s ConnectionState) IsValid() bool {
	switch s {
	case StateDisconnected, StateConnecting, StateConnected, StateReconnecting, StateError:
		return true
	}
	return false
}

// Config holds the connection and rate-limit settings for the backend
// session.
type Config struct {
	// ServerURL is the base URL of the discovery backend.
	ServerURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after a failed
	// request to a transient error.
	MaxRetries int

	// RetryDelay is the base delay between retry attempts.
	RetryDelay time.Duration

	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64

	// MaxReconnectAttempts bounds a single Reconnect call.
	MaxReconnectAttempts int

	// HealthCheckInterval is how long a successful health probe is
	// considered fresh.
	HealthCheckInterval time.Duration

	// RatePerMinute paces outgoing requests client-side. Zero disables
	// pacing.
	RatePerMinute int

	// MaxConcurrent bounds in-flight requests.
	MaxConcurrent int
}

// DefaultConfig returns the standard connection settings.
func DefaultConfig() Config {
	return Config{
		ServerURL:            "http://localhost:3002",
		Timeout:              30 * time.Second,
		MaxRetries:           3,
		RetryDelay:           time.Second,
		BackoffFactor:        2.0,
		MaxReconnectAttempts: 5,
		HealthCheckInterval:  30 * time.Second,
		RatePerMinute:        60,
		MaxConcurrent:        3,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL must not be empty")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server URL must start with http:// or https://, got %q", c.ServerURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive, got %v", c.RetryDelay)
	}
	if c.BackoffFactor < 1.0 {
		return fmt.Errorf("backoff factor must be at least 1.0, got %v", c.BackoffFactor)
	}
	if c.MaxReconnectAttempts < 1 {
		return fmt.Errorf("max reconnect attempts must be at least 1, got %d", c.MaxReconnectAttempts)
	}
	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive, got %v", c.HealthCheckInterval)
	}
	if c.RatePerMinute < 0 {
		return fmt.Errorf("rate per minute must be non-negative, got %d", c.RatePerMinute)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max concurrent must be at least 1, got %d", c.MaxConcurrent)
	}
	return nil
}

// HealthStatus is a snapshot of the session's connectivity and quota.
type HealthStatus struct {
	State             ConnectionState `json:"state"`
	Healthy           bool            `json:"healthy"`
	LastCheck         time.Time       `json:"last_check"`
	Latency           time.Duration   `json:"latency"`
	Reason            string          `json:"reason,omitempty"`
	ReconnectAttempts int             `json:"reconnect_attempts"`
	RateLimit         RateLimitWindow `json:"rate_limit"`
}

// Manager owns the connection state machine and the rate-limit window
// for a backend session. All state transitions are serialized; reads of
// the current state are cheap and lock-free of the transition mutex.
type Manager struct {
	cfg     Config
	httpc   *http.Client
	logger  *zap.Logger
	limiter *rate.Limiter

	// connMu serializes Connect, Disconnect and Reconnect so that two
	// goroutines cannot race a transition.
	connMu sync.Mutex

	stateMu           sync.RWMutex
	state             ConnectionState
	closed            bool
	reconnectAttempts int

	rlMu   sync.Mutex
	window RateLimitWindow

	healthMu    sync.Mutex
	lastHealthy bool
	lastCheck   time.Time
	lastLatency time.Duration
	lastReason  string

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a Manager with the given configuration. The
// configuration must validate.
func NewManager(cfg Config, logger *zap.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid discovery config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), 1)
	}
	return &Manager{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		limiter: limiter,
		state:   StateDisconnected,
		now:     time.Now,
		sleep:   sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

func (m *Manager) setState(s ConnectionState) {
	m.stateMu.Lock()
	prev := m.state
	m.state = s
	m.stateMu.Unlock()
	if prev != s {
		m.logger.Debug("connection state changed",
			zap.String("from", string(prev)),
			zap.String("to", string(s)))
	}
}

// Connect establishes the session by probing the backend's health
// endpoint. It is a no-op when already connected.
func (m *Manager) Connect(ctx context.Context) error {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if m.isClosed() {
		return fmt.Errorf("session is closed")
	}
	if m.State() == StateConnected {
		return nil
	}

	m.setState(StateConnecting)
	if err := m.probe(ctx); err != nil {
		m.setState(StateError)
		return &ConnectionError{Endpoint: m.cfg.ServerURL, Attempts: 1, Err: err}
	}

	m.stateMu.Lock()
	m.reconnectAttempts = 0
	m.stateMu.Unlock()
	m.setState(StateConnected)
	m.logger.Info("connected to discovery backend", zap.String("server", m.cfg.ServerURL))
	return nil
}

// Disconnect tears the session down. The manager cannot be reused
// afterwards.
func (m *Manager) Disconnect() {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	m.stateMu.Lock()
	m.closed = true
	m.state = StateDisconnected
	m.stateMu.Unlock()

	m.httpc.CloseIdleConnections()
	m.logger.Info("disconnected from discovery backend")
}

func (m *Manager) isClosed() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.closed
}

// EnsureConnected connects if the session is not already established,
// reconnecting with backoff after a prior failure.
func (m *Manager) EnsureConnected(ctx context.Context) error {
	switch m.State() {
	case StateConnected:
		return nil
	case StateError, StateReconnecting:
		return m.Reconnect(ctx)
	default:
		return m.Connect(ctx)
	}
}

// Reconnect retries the connection with exponential backoff. The delay
// before attempt n is RetryDelay * BackoffFactor^(n-1). It returns a
// ConnectionError after MaxReconnectAttempts failures.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.connMu.Lock()
	defer m.connMu.Unlock()

	if m.isClosed() {
		return fmt.Errorf("session is closed")
	}
	if m.State() == StateConnected {
		return nil
	}

	m.setState(StateReconnecting)
	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxReconnectAttempts; attempt++ {
		m.stateMu.Lock()
		m.reconnectAttempts = attempt
		m.stateMu.Unlock()

		delay := backoffDelay(m.cfg.RetryDelay, m.cfg.BackoffFactor, attempt)
		if err := m.sleep(ctx, delay); err != nil {
			m.setState(StateError)
			return err
		}

		if err := m.probe(ctx); err != nil {
			lastErr = err
			m.logger.Warn("reconnect attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", m.cfg.MaxReconnectAttempts),
				zap.Error(err))
			continue
		}

		m.stateMu.Lock()
		m.reconnectAttempts = 0
		m.stateMu.Unlock()
		m.setState(StateConnected)
		m.logger.Info("reconnected to discovery backend", zap.Int("attempts", attempt))
		return nil
	}

	m.setState(StateError)
	return &ConnectionError{
		Endpoint: m.cfg.ServerURL,
		Attempts: m.cfg.MaxReconnectAttempts,
		Err:      lastErr,
	}
}

// backoffDelay computes the delay before the given 1-based attempt.
func backoffDelay(base time.Duration, factor float64, attempt int) time.Duration {
	d := float64(base)
	for i := 1; i < attempt; i++ {
		d *= factor
	}
	return time.Duration(d)
}

// probe issues a GET against the health endpoint and records the
// result with its latency and, on failure, the reason.
func (m *Manager) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.ServerURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}
	if m.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	}

	start := time.Now()
	resp, err := m.httpc.Do(req)
	latency := time.Since(start)
	if err != nil {
		m.recordHealth(false, latency, err.Error())
		return fmt.Errorf("health probe: %w", err)
	}
	defer resp.Body.Close()

	m.recordResponse(resp)
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("health probe returned status %d", resp.StatusCode)
		m.recordHealth(false, latency, err.Error())
		return err
	}
	m.recordHealth(true, latency, "")
	return nil
}

func (m *Manager) recordHealth(healthy bool, latency time.Duration, reason string) {
	m.healthMu.Lock()
	m.lastHealthy = healthy
	m.lastCheck = m.now()
	m.lastLatency = latency
	m.lastReason = reason
	m.healthMu.Unlock()
}

// HealthCheck reports the session health, probing the backend at most
// once per HealthCheckInterval. A fresh prior result is returned
// without touching the network.
func (m *Manager) HealthCheck(ctx context.Context) (HealthStatus, error) {
	m.healthMu.Lock()
	fresh := !m.lastCheck.IsZero() && m.now().Sub(m.lastCheck) < m.cfg.HealthCheckInterval
	m.healthMu.Unlock()

	var probeErr error
	if !fresh && !m.isClosed() {
		probeErr = m.probe(ctx)
	}

	m.healthMu.Lock()
	status := HealthStatus{
		State:     m.State(),
		Healthy:   m.lastHealthy,
		LastCheck: m.lastCheck,
		Latency:   m.lastLatency,
		Reason:    m.lastReason,
		RateLimit: m.RateLimit(),
	}
	m.healthMu.Unlock()

	m.stateMu.RLock()
	status.ReconnectAttempts = m.reconnectAttempts
	m.stateMu.RUnlock()

	return status, probeErr
}

// RateLimit returns a copy of the current rate-limit window.
func (m *Manager) RateLimit() RateLimitWindow {
	m.rlMu.Lock()
	defer m.rlMu.Unlock()
	return m.window
}

// recordResponse folds rate-limit headers from a response into the
// tracked window.
func (m *Manager) recordResponse(resp *http.Response) {
	m.rlMu.Lock()
	m.window = windowFromHeaders(resp.Header, m.window, m.now())
	m.rlMu.Unlock()
}

// WaitForRateLimitReset blocks while the server-reported quota is
// exhausted, polling in short slices so the context can cancel the
// wait promptly.
func (m *Manager) WaitForRateLimitReset(ctx context.Context) error {
	const slice = 500 * time.Millisecond
	for {
		w := m.RateLimit()
		now := m.now()
		if !w.IsLimited(now) {
			return nil
		}
		wait := w.ResetTime.Sub(now)
		if wait > slice {
			wait = slice
		}
		m.logger.Debug("waiting for rate limit window",
			zap.Time("reset", w.ResetTime),
			zap.Int("remaining", w.RequestsRemaining))
		if err := m.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// waitTurn paces the caller through the client-side limiter.
func (m *Manager) waitTurn(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	return m.limiter.Wait(ctx)
}
