package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

const maxBodyBytes = 10 << 20

var emptyObject = json.RawMessage(`{}`)

// Response is the envelope every pipeline call produces.
// Data is always valid JSON; unparsable bodies degrade to {}.
type Response struct {
	OK     bool            `json:"ok"`
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newResponse(status int, body []byte) *Response {
	data := emptyObject
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && json.Valid(trimmed) {
		data = json.RawMessage(trimmed)
	}
	return &Response{
		OK:     status >= 200 && status < 300,
		Status: status,
		Data:   data,
	}
}

func readResponse(res *http.Response) *Response {
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	return newResponse(res.StatusCode, body)
}

func detailResponse(status int, detail string) *Response {
	data, _ := json.Marshal(map[string]string{"detail": detail})
	return &Response{OK: false, Status: status, Data: data}
}

// SessionExpiredResponse is returned when a 401 cannot be recovered.
func SessionExpiredResponse() *Response {
	return detailResponse(http.StatusUnauthorized, SessionExpiredDetail)
}

// NetworkErrorResponse is returned alongside ErrTransport.
func NetworkErrorResponse() *Response {
	return detailResponse(0, NetworkErrorDetail)
}

// SessionExpired reports whether the call ended in an unrecovered 401.
func (r *Response) SessionExpired() bool {
	return r != nil && r.Status == http.StatusUnauthorized
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}
	return nil
}

// Object returns Data as a JSON object, or nil when Data is not an object.
func (r *Response) Object() map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(r.Data, &obj); err != nil {
		return nil
	}
	return obj
}

// Message extracts the server's message: "detail" first, then the first entry
// of each named field, then "error" and "message". Empty when none is present.
func (r *Response) Message(fields ...string) string {
	obj := r.Object()
	if obj == nil {
		return ""
	}
	if s := firstString(obj["detail"]); s != "" {
		return s
	}
	for _, f := range fields {
		if s := firstString(obj[f]); s != "" {
			return s
		}
	}
	for _, key := range []string{"error", "message"} {
		if s := firstString(obj[key]); s != "" {
			return s
		}
	}
	return ""
}

// FieldErrors returns field-level validation messages keyed by field name.
func (r *Response) FieldErrors() map[string][]string {
	obj := r.Object()
	out := map[string][]string{}
	for k, v := range obj {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if s, ok := item.(string); ok {
				out[k] = append(out[k], s)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Err converts a non-OK envelope into an error. fallback is used when the
// server gave no message.
func (r *Response) Err(fallback string) error {
	if r.OK {
		return nil
	}
	if r.SessionExpired() {
		return ErrSessionExpired
	}
	detail := r.Message()
	fields := r.FieldErrors()
	if detail == "" && len(fields) > 0 {
		detail = describeFields(fields)
	}
	if detail == "" {
		detail = fallback
	}
	return &APIError{Status: r.Status, Detail: detail, Fields: fields}
}

func describeFields(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
