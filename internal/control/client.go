// Package control implements the consumer side of the DNS server's local
// statistics interface: request/response exchanges over a Unix domain
// socket, one newline-delimited JSON message per direction.
package control

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"dnsflux/internal/counters"
)

// Commands understood by the statistics interface.
const (
	cmdStats     = "stats"
	cmdZoneStats = "zone-stats"
	cmdEnd       = "end"
)

// request is one command sent to the server.
type request struct {
	Cmd   string `json:"cmd"`
	Flags string `json:"flags,omitempty"`
	Zone  string `json:"zone,omitempty"`
}

// reply is the server's response envelope. Data carries the nested counter
// structure; it is kept raw so decoding can preserve key order.
type reply struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Client is a control-channel connection scoped to one poll cycle. It is
// not safe for concurrent use; one cycle owns it exclusively.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	enc     *json.Encoder
	timeout time.Duration
}

// Dial connects to the control socket. The timeout bounds the dial and each
// subsequent request round-trip.
func Dial(ctx context.Context, socketPath string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("control: dial %s: %w", socketPath, err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Client{
		conn:    conn,
		scanner: scanner,
		enc:     json.NewEncoder(conn),
		timeout: timeout,
	}, nil
}

// Stats requests the process-wide counter families selected by flags.
func (c *Client) Stats(flags string) (*counters.Group, error) {
	return c.query(request{Cmd: cmdStats, Flags: flags})
}

// ZoneStats requests per-zone counters, optionally restricted to one zone.
func (c *Client) ZoneStats(flags, zone string) (*counters.Group, error) {
	return c.query(request{Cmd: cmdZoneStats, Flags: flags, Zone: zone})
}

func (c *Client) query(req request) (*counters.Group, error) {
	raw, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	tree, err := counters.Decode(bytes.NewReader(raw), true)
	if err != nil {
		return nil, fmt.Errorf("control: %s response: %w", req.Cmd, err)
	}
	return tree, nil
}

func (c *Client) roundTrip(req request) (json.RawMessage, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("control: set deadline: %w", err)
	}
	defer c.conn.SetDeadline(time.Time{})

	if err := c.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("control: send %s: %w", req.Cmd, err)
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, fmt.Errorf("control: read %s: %w", req.Cmd, err)
		}
		return nil, fmt.Errorf("control: connection closed during %s", req.Cmd)
	}
	var rep reply
	if err := json.Unmarshal(c.scanner.Bytes(), &rep); err != nil {
		return nil, fmt.Errorf("control: unmarshal %s reply: %w", req.Cmd, err)
	}
	if rep.Error != "" {
		return nil, fmt.Errorf("control: %s refused: %s", req.Cmd, rep.Error)
	}
	return rep.Data, nil
}

// Close sends the end-of-session marker and closes the socket. The marker
// is best effort; the close happens on every path.
func (c *Client) Close() error {
	c.conn.SetDeadline(time.Now().Add(c.timeout))
	_ = c.enc.Encode(request{Cmd: cmdEnd})
	return c.conn.Close()
}
