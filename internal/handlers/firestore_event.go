package handlers

import (
	"encoding/json"
	"strings"
	"time"
)

// FirestoreEvent is the body the platform posts for a document write.
// OldValue is empty on create, Value is empty on delete.
type FirestoreEvent struct {
	OldValue   *FirestoreDocument `json:"oldValue,omitempty"`
	Value      *FirestoreDocument `json:"value,omitempty"`
	UpdateMask *UpdateMask        `json:"updateMask,omitempty"`
}

type UpdateMask struct {
	FieldPaths []string `json:"fieldPaths"`
}

// FirestoreDocument is one document image inside a FirestoreEvent.
type FirestoreDocument struct {
	Name       string                    `json:"name"`
	Fields     map[string]FirestoreValue `json:"fields"`
	CreateTime time.Time                 `json:"createTime"`
	UpdateTime time.Time                 `json:"updateTime"`
}

// FirestoreValue is a typed Firestore value. Exactly one field is set.
type FirestoreValue struct {
	NullValue      *string      `json:"nullValue,omitempty"`
	BooleanValue   *bool        `json:"booleanValue,omitempty"`
	IntegerValue   *json.Number `json:"integerValue,omitempty"`
	DoubleValue    *float64     `json:"doubleValue,omitempty"`
	TimestampValue *time.Time   `json:"timestampValue,omitempty"`
	StringValue    *string      `json:"stringValue,omitempty"`
	BytesValue     *string      `json:"bytesValue,omitempty"`
	ReferenceValue *string      `json:"referenceValue,omitempty"`
	GeoPointValue  *GeoPoint    `json:"geoPointValue,omitempty"`
	ArrayValue     *ArrayValue  `json:"arrayValue,omitempty"`
	MapValue       *MapValue    `json:"mapValue,omitempty"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ArrayValue struct {
	Values []FirestoreValue `json:"values"`
}

type MapValue struct {
	Fields map[string]FirestoreValue `json:"fields"`
}

// Interface converts the value to the plain Go value the Firestore client
// would return: int64, float64, bool, string, time.Time, []any, map[string]any
// or nil.
func (v FirestoreValue) Interface() any {
	switch {
	case v.BooleanValue != nil:
		return *v.BooleanValue
	case v.IntegerValue != nil:
		if n, err := v.IntegerValue.Int64(); err == nil {
			return n
		}
		return nil
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.TimestampValue != nil:
		return *v.TimestampValue
	case v.StringValue != nil:
		return *v.StringValue
	case v.BytesValue != nil:
		return *v.BytesValue
	case v.ReferenceValue != nil:
		return *v.ReferenceValue
	case v.GeoPointValue != nil:
		return map[string]any{"latitude": v.GeoPointValue.Latitude, "longitude": v.GeoPointValue.Longitude}
	case v.ArrayValue != nil:
		out := make([]any, 0, len(v.ArrayValue.Values))
		for _, item := range v.ArrayValue.Values {
			out = append(out, item.Interface())
		}
		return out
	case v.MapValue != nil:
		return fieldsToMap(v.MapValue.Fields)
	default:
		return nil
	}
}

// Data returns the document fields as a map, nil when the image is absent.
func (d *FirestoreDocument) Data() map[string]any {
	if d == nil || d.Name == "" {
		return nil
	}
	return fieldsToMap(d.Fields)
}

func fieldsToMap(fields map[string]FirestoreValue) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v.Interface()
	}
	return out
}

// DocumentName returns the full name of whichever image is present.
func (e FirestoreEvent) DocumentName() string {
	if e.Value != nil && e.Value.Name != "" {
		return e.Value.Name
	}
	if e.OldValue != nil {
		return e.OldValue.Name
	}
	return ""
}

// documentPath splits "projects/p/databases/d/documents/a/b/c/d" into
// [a b c d]. Names without the documents root are treated as relative paths.
func documentPath(name string) []string {
	const root = "/documents/"
	if i := strings.Index(name, root); i >= 0 {
		name = name[i+len(root):]
	}
	name = strings.Trim(name, "/")
	if name == "" {
		return nil
	}
	return strings.Split(name, "/")
}
