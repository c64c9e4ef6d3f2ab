package portalrpc

import (
	"encoding/json"
	"reflect"
)

// EncodeResult renders a call result as JSON. A nil result or nil pointer is null; byte
// payloads render as lowercase 0x hex through their text marshalers.
func EncodeResult(v any) (json.RawMessage, error) {
	if isNil(v) {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
