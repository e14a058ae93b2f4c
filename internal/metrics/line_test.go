package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "integer fields",
			rec: Record{
				Measurement: "server",
				Tags:        []Tag{{Key: "instance", Value: "Knot1"}},
				Fields:      []Field{IntField("zone-count", 2)},
				Timestamp:   1700000000,
			},
			want: "server,instance=Knot1 zone-count=2 1700000000",
		},
		{
			name: "string field is quoted",
			rec: Record{
				Measurement: "server",
				Tags:        []Tag{{Key: "instance", Value: "Knot1"}},
				Fields:      []Field{StrField("state", "running")},
				Timestamp:   1700000000,
			},
			want: `server,instance=Knot1 state="running" 1700000000`,
		},
		{
			name: "numeric-looking string stays quoted",
			rec: Record{
				Measurement: "server",
				Tags:        []Tag{{Key: "instance", Value: "Knot1"}},
				Fields:      []Field{StrField("build", "123")},
				Timestamp:   1700000000,
			},
			want: `server,instance=Knot1 build="123" 1700000000`,
		},
		{
			name: "multiple tags and fields keep order",
			rec: Record{
				Measurement: "module",
				Tags: []Tag{
					{Key: "instance", Value: "Knot1"},
					{Key: "group", Value: "qtype"},
				},
				Fields: []Field{
					IntField("SOA", 3),
					IntField("NS", 1),
				},
				Timestamp: 1700000000,
			},
			want: "module,instance=Knot1,group=qtype SOA=3,NS=1 1700000000",
		},
		{
			name: "tag value escapes comma space equals",
			rec: Record{
				Measurement: "zone",
				Tags:        []Tag{{Key: "zone", Value: "a b,c=d"}},
				Fields:      []Field{IntField("serial", 1)},
				Timestamp:   1700000000,
			},
			want: `zone,zone=a\ b\,c\=d serial=1 1700000000`,
		},
		{
			name: "measurement escapes comma and space",
			rec: Record{
				Measurement: "my server",
				Fields:      []Field{IntField("up", 1)},
				Timestamp:   1700000000,
			},
			want: `my\ server up=1 1700000000`,
		},
		{
			name: "string value escapes quote and backslash",
			rec: Record{
				Measurement: "server",
				Fields:      []Field{StrField("note", `say "hi" \now`)},
				Timestamp:   1700000000,
			},
			want: `server note="say \"hi\" \\now" 1700000000`,
		},
		{
			name: "negative integer field",
			rec: Record{
				Measurement: "server",
				Fields:      []Field{IntField("drift", -3)},
				Timestamp:   1700000000,
			},
			want: "server drift=-3 1700000000",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.rec.String())
		})
	}
}

func TestMarshalBatch(t *testing.T) {
	t.Parallel()

	batch := []Record{
		{
			Measurement: "server",
			Tags:        []Tag{{Key: "instance", Value: "Knot1"}},
			Fields:      []Field{IntField("zone-count", 2)},
			Timestamp:   1700000000,
		},
		{
			Measurement: "module",
			Tags: []Tag{
				{Key: "instance", Value: "Knot1"},
				{Key: "group", Value: "qtype"},
			},
			Fields:    []Field{IntField("SOA", 3)},
			Timestamp: 1700000000,
		},
	}

	want := "server,instance=Knot1 zone-count=2 1700000000\n" +
		"module,instance=Knot1,group=qtype SOA=3 1700000000\n"
	assert.Equal(t, want, string(MarshalBatch(batch)))
}

func TestMarshalBatchEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, MarshalBatch(nil))
}
