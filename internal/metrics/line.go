package metrics

import (
	"strconv"
	"strings"
)

// Line-protocol escaping. Measurements escape commas and spaces; tag keys,
// tag values, and field keys additionally escape equals signs; string field
// values are double-quoted with backslash escapes.
var (
	measurementEscaper = strings.NewReplacer(",", `\,`, " ", `\ `)
	tagEscaper         = strings.NewReplacer(",", `\,`, " ", `\ `, "=", `\=`)
	stringFieldEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// AppendLine appends the record's line-protocol representation to b, without
// a trailing newline:
//
//	measurement,tag=v,... field=v,field2=v2 timestamp
func (r *Record) AppendLine(b []byte) []byte {
	b = append(b, measurementEscaper.Replace(r.Measurement)...)
	for _, t := range r.Tags {
		b = append(b, ',')
		b = append(b, tagEscaper.Replace(t.Key)...)
		b = append(b, '=')
		b = append(b, tagEscaper.Replace(t.Value)...)
	}
	b = append(b, ' ')
	for i, f := range r.Fields {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, tagEscaper.Replace(f.Key)...)
		b = append(b, '=')
		if f.IsString {
			b = append(b, '"')
			b = append(b, stringFieldEscaper.Replace(f.Str)...)
			b = append(b, '"')
		} else {
			b = strconv.AppendInt(b, f.Int, 10)
		}
	}
	b = append(b, ' ')
	b = strconv.AppendInt(b, r.Timestamp, 10)
	return b
}

// String returns the record's single line-protocol line.
func (r *Record) String() string {
	return string(r.AppendLine(nil))
}

// MarshalBatch serializes a record batch to the newline-separated wire body
// of one write request. Each record ends with a newline.
func MarshalBatch(batch []Record) []byte {
	var b []byte
	for i := range batch {
		b = batch[i].AppendLine(b)
		b = append(b, '\n')
	}
	return b
}
