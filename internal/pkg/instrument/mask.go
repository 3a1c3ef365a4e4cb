package instrument

import (
	"encoding/json"
	"net/http"
	"strings"
)

const masked = "***"

// sensitiveFields are hidden whatever the configuration says.
var sensitiveFields = []string{"otp_code", "code", "code_hash", "token", "cookie", "set-cookie", "authorization"}

// Masker hides the values of sensitive keys in log payloads. Keys compare
// case-insensitively.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker hides the given fields on top of the built-in sensitive ones.
func NewMasker(fields []string) *Masker {
	m := &Masker{keys: make(map[string]struct{}, len(fields)+len(sensitiveFields))}
	for _, list := range [][]string{sensitiveFields, fields} {
		for _, f := range list {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				m.keys[f] = struct{}{}
			}
		}
	}
	return m
}

func (m *Masker) hides(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Value walks decoded JSON and replaces every sensitive value.
func (m *Masker) Value(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			if m.hides(k) {
				out[k] = masked
				continue
			}
			out[k] = m.Value(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = m.Value(inner)
		}
		return out
	}
	return v
}

// JSON decodes raw and masks it. ok is false when raw is not JSON.
func (m *Masker) JSON(raw []byte) (v any, ok bool) {
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil, false
	}
	return m.Value(v), true
}

// Header returns a copy of h with sensitive headers masked.
func (m *Masker) Header(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if m.hides(k) {
			out.Set(k, masked)
		}
	}
	return out
}
