package selfstats_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnsflux/internal/metrics"
	"dnsflux/internal/selfstats"
)

func TestCollect(t *testing.T) {
	t.Parallel()

	c := selfstats.NewCollector("Knot1")

	records, err := c.Collect(context.Background(), 1700000000)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "exporter", rec.Measurement)
	assert.Equal(t, []metrics.Tag{{Key: "instance", Value: "Knot1"}}, rec.Tags)
	assert.Equal(t, int64(1700000000), rec.Timestamp)

	fieldKeys := make(map[string]bool)
	for _, f := range rec.Fields {
		fieldKeys[f.Key] = true
		assert.False(t, f.IsString, "self stats are integer counters")
	}
	assert.True(t, fieldKeys["goroutines"])
	assert.True(t, fieldKeys["uptime-seconds"])
}

func TestName(t *testing.T) {
	t.Parallel()

	c := selfstats.NewCollector("Knot1")
	assert.Equal(t, "selfstats", c.Name())
}
