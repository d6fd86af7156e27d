package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Wire formats for snapshot payloads
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"

	msgpackContentType = "application/msgpack"
)

// marshalMsgpack encodes v reusing the JSON field names so both formats
// carry identical keys.
func marshalMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalMsgpack is the inverse of marshalMsgpack
func unmarshalMsgpack(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}

// requestFormat picks msgpack when asked for by query or Accept header
func requestFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		if f == FormatMsgpack {
			return FormatMsgpack
		}
		return FormatJSON
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, msgpackContentType) || strings.Contains(accept, "application/x-msgpack") {
		return FormatMsgpack
	}
	return FormatJSON
}
