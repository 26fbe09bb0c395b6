package audit

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// SerializeValue converts a field value into its JSON-compatible audit form.
// References serialize to their display string, times to ISO-8601 text and
// byte slices to UTF-8 with invalid sequences replaced.
func SerializeValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	v = rv.Interface()

	switch t := v.(type) {
	case time.Time:
		return formatTime(t)
	case []byte:
		return strings.ToValidUTF8(string(t), "�")
	case string:
		return t
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		if _, err := json.Marshal(t); err != nil {
			return fmt.Sprint(t)
		}
		return t
	case fmt.Stringer:
		return t.String()
	}

	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}

// SerializeFields applies SerializeValue to every entry.
func SerializeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = SerializeValue(v)
	}
	return out
}

// formatTime renders calendar dates (midnight UTC) as YYYY-MM-DD.
func formatTime(t time.Time) string {
	if _, offset := t.Zone(); offset == 0 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339Nano)
}
