// Package metrics provides the flat record model of the export pipeline and
// the flattener that derives one cycle's record batch from a counter tree.
package metrics

// Tag is one indexed key/value label on a record.
type Tag struct {
	Key   string
	Value string
}

// Field is one metric value on a record. A field holds either an integer or
// a string; string fields are quoted on the wire and never reinterpreted as
// numbers.
type Field struct {
	Key      string
	Int      int64
	Str      string
	IsString bool
}

// Record is one line-protocol entry: a measurement with tags, at least one
// field, and the batch's shared timestamp in whole seconds since the epoch.
// The flattener never produces a record with zero fields.
type Record struct {
	Measurement string
	Tags        []Tag
	Fields      []Field
	Timestamp   int64
}

// IntField builds an integer field.
func IntField(key string, value int64) Field {
	return Field{Key: key, Int: value}
}

// StrField builds a string field.
func StrField(key, value string) Field {
	return Field{Key: key, Str: value, IsString: true}
}
