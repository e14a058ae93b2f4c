// Package sink delivers one cycle's record batch to an InfluxDB-compatible
// write endpoint as line protocol.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	pipeerr "dnsflux/internal/errors"
	"dnsflux/internal/metrics"
)

// Influx writes record batches to a single /write endpoint. Delivery is
// fire-and-forget per cycle: one POST, no retry, no cross-cycle queue.
type Influx struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewInflux creates a sink for the given endpoint. precision, when set, is
// forwarded as the write query's precision qualifier ("s" for the
// whole-second timestamps this pipeline emits). The timeout bounds the full
// request, replacing the unbounded external call of the reference setup.
func NewInflux(host string, port int, database, precision string, timeout time.Duration, logger *slog.Logger) *Influx {
	if logger == nil {
		logger = slog.Default()
	}
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/write",
	}
	q := url.Values{}
	q.Set("db", database)
	if precision != "" {
		q.Set("precision", precision)
	}
	u.RawQuery = q.Encode()

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &Influx{
		url: u.String(),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger.With("component", "sink"),
	}
}

// Write serializes the batch and performs the cycle's single write request.
// An empty batch issues no request. A non-2xx response or transport error is
// returned as a delivery error; the records for this cycle are lost either
// way.
func (s *Influx) Write(ctx context.Context, batch []metrics.Record) error {
	if len(batch) == 0 {
		s.logger.Debug("empty batch, skipping write")
		return nil
	}
	body := metrics.MarshalBatch(batch)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return pipeerr.Delivery("sink", "write", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return pipeerr.Delivery("sink", "write", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Small read so the server's reason lands in the log line.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return pipeerr.Delivery("sink", "write",
			fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}

	s.logger.Debug("batch written",
		"records", len(batch),
		"bytes", len(body),
		"latency_ms", time.Since(start).Milliseconds())
	return nil
}

// Close releases idle connections held by the sink's client.
func (s *Influx) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
