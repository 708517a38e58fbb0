package gateway

import (
	"bytes"
	"encoding/json"
)

// envelope accepts both response shapes the gateway produces:
// {code, data, error, message} and {success, data, error}.
type envelope struct {
	Code    *int            `json:"code"`
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// ok decides success. An explicit success flag wins, then a code in the 2xx
// range, then the HTTP status.
func (e *envelope) ok(httpStatus int) bool {
	if e.Success != nil {
		return *e.Success
	}
	if e.Code != nil {
		return *e.Code >= 200 && *e.Code < 300
	}
	return httpStatus >= 200 && httpStatus < 300
}

func (e *envelope) code(httpStatus int) int {
	if e.Code != nil {
		return *e.Code
	}
	return httpStatus
}

// errorText returns the error string, falling back to message.
func (e *envelope) errorText() string {
	raw := bytes.TrimSpace(e.Error)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
		} else {
			return string(raw)
		}
	}
	return e.Message
}

func (e *envelope) hasData() bool {
	raw := bytes.TrimSpace(e.Data)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
