// Package gateway checks whether an energy gateway is still reporting data.
//
// The gateway's latest solar reading is fetched from a GraphQL endpoint. A
// gateway whose latest reading is older than the threshold is offline.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/user/mcapvideo/pkg/ports"
)

const (
	// DefaultEndpoint is the GraphQL endpoint queried by default.
	DefaultEndpoint = "https://api.srcful.dev"

	// DefaultGatewayID is the gateway queried by default.
	DefaultGatewayID = "01239e884755621dee"

	// DefaultThreshold is how old the latest reading may be before the
	// gateway counts as offline.
	DefaultThreshold = 5 * time.Minute

	// DefaultTimeout bounds the whole request.
	DefaultTimeout = 30 * time.Second

	// TimestampLayout is the format of the latest reading's timestamp.
	TimestampLayout = "2006-01-02T15:04:05.999999Z"

	timestampPath = "data.derData.solar.latest.ts"
)

var (
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("gateway: unexpected HTTP status")

	// ErrMissingTimestamp is returned when the response has no latest reading.
	ErrMissingTimestamp = errors.New("gateway: latest timestamp missing from response")

	// ErrQuery is returned when the endpoint reports GraphQL errors.
	ErrQuery = errors.New("gateway: query failed")
)

// Status is the gateway state.
type Status string

const (
	StatusOnline  Status = "Online"
	StatusOffline Status = "Offline"
)

// Report is the result of one check.
type Report struct {
	StatusCode int
	Latest     time.Time
	Now        time.Time
	Difference time.Duration
	Status     Status
}

// Monitor queries the endpoint for one gateway.
type Monitor struct {
	client    *http.Client
	endpoint  string
	gatewayID string
	threshold time.Duration
	now       func() time.Time
	logger    ports.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Monitor) {
		m.client = client
	}
}

// WithEndpoint sets the GraphQL endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(m *Monitor) {
		m.endpoint = endpoint
	}
}

// WithGatewayID sets the gateway to query.
func WithGatewayID(id string) Option {
	return func(m *Monitor) {
		m.gatewayID = id
	}
}

// WithThreshold sets the offline threshold.
func WithThreshold(d time.Duration) Option {
	return func(m *Monitor) {
		m.threshold = d
	}
}

// WithClock sets the function returning the current time.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// New creates a Monitor with the default endpoint, gateway and threshold.
func New(logger ports.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		client:    &http.Client{Timeout: DefaultTimeout},
		endpoint:  DefaultEndpoint,
		gatewayID: DefaultGatewayID,
		threshold: DefaultThreshold,
		now:       time.Now,
		logger:    logger.WithComponent("gateway"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Query returns the GraphQL query for a gateway's latest solar reading.
func Query(gatewayID string) string {
	return fmt.Sprintf(`{derData { solar(gwId: %q) { latest { ts } } } }`, gatewayID)
}

// Check fetches the latest reading and compares it with the current time.
func (m *Monitor) Check(ctx context.Context) (Report, error) {
	var report Report

	body, err := json.Marshal(map[string]string{"query": Query(m.gatewayID)})
	if err != nil {
		return report, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return report, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	m.logger.Debug("POST %s for gateway %s", m.endpoint, m.gatewayID)

	resp, err := m.client.Do(req)
	if err != nil {
		return report, fmt.Errorf("query gateway: %w", err)
	}
	defer resp.Body.Close()

	report.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return report, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return report, fmt.Errorf("read response: %w", err)
	}

	latest, err := latestTimestamp(data)
	if err != nil {
		return report, err
	}

	report.Latest = latest
	report.Now = m.now().UTC()
	report.Difference = report.Now.Sub(latest)
	report.Status = StatusAt(latest, report.Now, m.threshold)
	return report, nil
}

func latestTimestamp(data []byte) (time.Time, error) {
	if !gjson.ValidBytes(data) {
		return time.Time{}, fmt.Errorf("%w: invalid JSON", ErrMissingTimestamp)
	}
	if msg := gjson.GetBytes(data, "errors.0.message"); msg.Exists() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrQuery, msg.String())
	}

	ts := gjson.GetBytes(data, timestampPath)
	if !ts.Exists() || ts.String() == "" {
		return time.Time{}, ErrMissingTimestamp
	}
	return ParseTimestamp(ts.String())
}

// ParseTimestamp parses a reading timestamp such as
// "2025-05-02T05:32:47.392000Z" as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// StatusAt reports Offline when the reading at latest is strictly older
// than threshold at now.
func StatusAt(latest, now time.Time, threshold time.Duration) Status {
	if now.Sub(latest) > threshold {
		return StatusOffline
	}
	return StatusOnline
}
