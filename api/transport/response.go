package transport

import "encoding/json"

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// FieldErrors is the error payload of a rejected mutation, keyed by input
// field. Errors not tied to a field use the "_form" key.
type FieldErrors struct {
	Fields map[string][]string `json:"fields"`
}

// ListMeta accompanies collection responses.
type ListMeta struct {
	Count int `json:"count"`
	Limit int `json:"limit,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewList returns a success envelope for a collection of count entries.
func NewList(data interface{}, count, limit int) Envelope {
	return NewSuccess(data, ListMeta{Count: count, Limit: limit})
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// NewValidationError returns an error envelope carrying per-field messages.
func NewValidationError(code string, fields map[string][]string) Envelope {
	return NewError(code, FieldErrors{Fields: fields}, nil)
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
