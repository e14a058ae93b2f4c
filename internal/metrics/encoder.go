package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"dnsflux/internal/counters"
	pipeerr "dnsflux/internal/errors"
)

// Measurement names for the three record groupings.
const (
	MeasurementServer = "server"
	MeasurementModule = "module"
	MeasurementZone   = "zone"
)

// Source names with dedicated flattening rules. Every other top-level source
// is treated as a per-module counter namespace.
const (
	sourceServer = "server"
	sourceZone   = "zone"
)

// Encoder flattens a merged counter tree into one cycle's record batch.
// Encoding is deterministic: the same tree with the same timestamp yields a
// byte-identical batch.
type Encoder struct {
	instance string
	logger   *slog.Logger
	now      func() time.Time
}

// NewEncoder creates an encoder that tags every record with the given
// instance name.
func NewEncoder(instance string, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{
		instance: instance,
		logger:   logger.With("component", "encoder"),
		now:      time.Now,
	}
}

// Encode derives the record batch for one counter tree. All records share a
// timestamp captured once at the start of encoding, truncated to whole
// seconds. A tree without a non-empty "server" group fails the whole batch;
// the server-wide record is mandatory.
func (e *Encoder) Encode(tree *counters.Group) ([]Record, error) {
	ts := e.now().Unix()

	var batch []Record
	serverSeen := false
	for _, source := range tree.Keys() {
		node, _ := tree.Get(source)
		group, ok := node.(*counters.Group)
		if !ok {
			e.logger.Warn("skipping scalar at source level", "source", source)
			continue
		}
		switch source {
		case sourceServer:
			before := len(batch)
			e.walk(MeasurementServer, e.baseTags(), group, 0, ts, &batch)
			serverSeen = len(batch) > before
		case sourceZone:
			e.encodeZones(group, ts, &batch)
		default:
			e.encodeModules(group, ts, &batch)
		}
	}
	if !serverSeen {
		return nil, pipeerr.MissingData("encoder", "encode", `no "server" counter group in tree`)
	}
	return batch, nil
}

func (e *Encoder) baseTags(extra ...Tag) []Tag {
	tags := make([]Tag, 0, 1+len(extra))
	tags = append(tags, Tag{Key: "instance", Value: e.instance})
	return append(tags, extra...)
}

// encodeModules flattens one per-module counter namespace. Scalar children
// each yield a single-field record; group children open a record per group
// combining the group's sibling leaves.
func (e *Encoder) encodeModules(g *counters.Group, ts int64, out *[]Record) {
	for _, key := range g.Keys() {
		node, _ := g.Get(key)
		switch child := node.(type) {
		case counters.Int:
			*out = append(*out, Record{
				Measurement: MeasurementModule,
				Tags:        e.baseTags(),
				Fields:      []Field{IntField(key, int64(child))},
				Timestamp:   ts,
			})
		case counters.Str:
			*out = append(*out, Record{
				Measurement: MeasurementModule,
				Tags:        e.baseTags(),
				Fields:      []Field{StrField(key, string(child))},
				Timestamp:   ts,
			})
		case *counters.Group:
			e.walk(MeasurementModule, e.baseTags(Tag{Key: "group", Value: key}), child, 1, ts, out)
		}
	}
}

// encodeZones flattens the per-zone family. Children of the zone source are
// zone names; a scalar at that level is a shape mismatch and is skipped.
func (e *Encoder) encodeZones(g *counters.Group, ts int64, out *[]Record) {
	for _, name := range g.Keys() {
		node, _ := g.Get(name)
		zoneGroup, ok := node.(*counters.Group)
		if !ok {
			e.logger.Warn("skipping scalar where zone group expected", "zone", name)
			continue
		}
		e.walk(MeasurementZone, e.baseTags(Tag{Key: "zone", Value: name}), zoneGroup, 0, ts, out)
	}
}

// walk combines all leaves of g reachable without crossing another Group
// boundary into one record, then opens further records for each nested
// group, tagged with that level's key. Groups with zero leaves at a level
// produce no record. Depth is unbounded.
func (e *Encoder) walk(measurement string, tags []Tag, g *counters.Group, level int, ts int64, out *[]Record) {
	var fields []Field
	for _, key := range g.Keys() {
		node, _ := g.Get(key)
		switch child := node.(type) {
		case counters.Int:
			fields = append(fields, IntField(key, int64(child)))
		case counters.Str:
			fields = append(fields, StrField(key, string(child)))
		}
	}
	if len(fields) > 0 {
		*out = append(*out, Record{
			Measurement: measurement,
			Tags:        tags,
			Fields:      fields,
			Timestamp:   ts,
		})
	}
	for _, key := range g.Keys() {
		node, _ := g.Get(key)
		child, ok := node.(*counters.Group)
		if !ok {
			continue
		}
		childTags := make([]Tag, len(tags), len(tags)+1)
		copy(childTags, tags)
		childTags = append(childTags, Tag{Key: levelTag(level + 1), Value: key})
		e.walk(measurement, childTags, child, level+1, ts, out)
	}
}

// levelTag names the tag added at the nth Group boundary below a source.
// The monitored server nests at most two levels in practice; deeper levels
// still get a total, unambiguous name.
func levelTag(level int) string {
	switch level {
	case 1:
		return "group"
	case 2:
		return "item"
	default:
		return fmt.Sprintf("l%d", level)
	}
}
