package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dnsflux/internal/counters"
	pipeerr "dnsflux/internal/errors"
)

// Fetcher retrieves the two counter families for one poll cycle. The
// connection it opens is scoped to a single Fetch call and released on
// every exit path.
type Fetcher struct {
	socketPath string
	timeout    time.Duration
	flags      string
	zone       string
	logger     *slog.Logger
}

// NewFetcher creates a fetcher for the given control socket. flags selects
// which counter families the server reports; zone optionally restricts the
// per-zone query to one zone.
func NewFetcher(socketPath string, timeout time.Duration, flags, zone string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		socketPath: socketPath,
		timeout:    timeout,
		flags:      flags,
		zone:       zone,
		logger:     logger.With("component", "fetcher"),
	}
}

// Fetch retrieves and merges both counter families. Each family degrades to
// an empty result on transport failure; the per-family errors are returned
// alongside the tree so the caller handles the empty-on-failure case
// explicitly instead of it being swallowed. The returned tree may have one
// or both families missing, and a top-level key collision between the two
// families is reported as a malformed-data error.
func (f *Fetcher) Fetch(ctx context.Context) (*counters.Group, []error) {
	merged := counters.NewGroup()

	client, err := Dial(ctx, f.socketPath, f.timeout)
	if err != nil {
		// Neither family is reachable; report one transport failure each.
		return merged, []error{
			pipeerr.Transport("fetcher", cmdStats, err),
			pipeerr.Transport("fetcher", cmdZoneStats, err),
		}
	}
	defer client.Close()

	var errs []error

	global, err := client.Stats(f.flags)
	if err != nil {
		errs = append(errs, pipeerr.Transport("fetcher", cmdStats, err))
		global = counters.NewGroup()
	}

	zones, err := client.ZoneStats(f.flags, f.zone)
	if err != nil {
		errs = append(errs, pipeerr.Transport("fetcher", cmdZoneStats, err))
		zones = counters.NewGroup()
	}

	if err := Merge(merged, global); err != nil {
		errs = append(errs, err)
	}
	if err := Merge(merged, zones); err != nil {
		errs = append(errs, err)
	}
	return merged, errs
}

// Merge copies src's top-level sources into dst. The two counter families
// write disjoint top-level keys; a collision means the server and exporter
// disagree about the counter layout and is reported rather than resolved
// silently.
func Merge(dst, src *counters.Group) error {
	for _, key := range src.Keys() {
		if _, exists := dst.Get(key); exists {
			return pipeerr.Malformed("fetcher", "merge",
				fmt.Sprintf("counter families collide on source %q", key))
		}
		node, _ := src.Get(key)
		dst.Set(key, node)
	}
	return nil
}
