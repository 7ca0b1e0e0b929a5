package api

import "encoding/json"

// envelope is the canonical API response shape. The deployed gateway is
// inconsistent about nesting: some endpoints answer {success, message, data},
// older ones wrap the payload a second time as {success, data: {data: ...}}.
// Every response is normalized to the single-level shape here, at the HTTP
// boundary, so no other package ever sees the legacy nesting.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ok reports whether the envelope indicates success. A missing success flag
// (the list endpoints omit it) counts as success; only an explicit false is
// a refusal.
func (e *envelope) ok() bool {
	return e.Success == nil || *e.Success
}

// normalize unwraps one level of the legacy {data: {data: ...}} nesting.
func (e *envelope) normalize() {
	if len(e.Data) == 0 {
		return
	}

	var inner envelope
	if err := json.Unmarshal(e.Data, &inner); err != nil {
		// Data is an array or scalar; already canonical.
		return
	}
	if len(inner.Data) == 0 {
		return
	}

	e.Data = inner.Data
	if e.Message == "" {
		e.Message = inner.Message
	}
}
