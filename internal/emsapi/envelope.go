package emsapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Envelope is the upstream response shape. Endpoints disagree on where the
// payload lives (data, employees, history, employee, ...), so every top-level
// key stays addressable through Field.
type Envelope struct {
	Success bool
	Message string
	Error   string
	Code    string
	Type    string
	Data    json.RawMessage
	Stats   json.RawMessage
	fields  map[string]json.RawMessage
}

func (e *Envelope) UnmarshalJSON(raw []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	e.fields = fields
	e.Success = false
	if value, ok := fields["success"]; ok {
		if err := json.Unmarshal(value, &e.Success); err != nil {
			return fmt.Errorf("success flag: %w", err)
		}
	}
	e.Message = stringField(fields, "message")
	e.Error = stringField(fields, "error")
	e.Code = stringField(fields, "code")
	e.Type = stringField(fields, "type")
	e.Data = fields["data"]
	e.Stats = fields["stats"]
	return nil
}

// Has reports whether the upstream sent the key at all.
func (e *Envelope) Has(name string) bool {
	_, ok := e.fields[name]
	return ok
}

// Field decodes one top-level key into out. A missing or null key leaves out untouched.
func (e *Envelope) Field(name string, out any) error {
	raw, ok := e.fields[name]
	if !ok || isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %q: %w", name, err)
	}
	return nil
}

// FailureText is the message of an unsuccessful envelope. The upstream uses
// "error" on most endpoints and "message" on the attendance ones.
func (e *Envelope) FailureText() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ID accepts identifiers sent either as JSON strings or numbers.
type ID string

func (id *ID) UnmarshalJSON(raw []byte) error {
	if isNull(raw) {
		*id = ""
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		*id = ID(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(number.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Number accepts numeric values sent as JSON numbers or numeric strings.
type Number float64

var errNotNumeric = errors.New("value is not numeric")

func (n *Number) UnmarshalJSON(raw []byte) error {
	if isNull(raw) {
		*n = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return errNotNumeric
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if text == "" {
		*n = 0
		return nil
	}
	parsed, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return errNotNumeric
	}
	*n = Number(parsed)
	return nil
}

func (n Number) Float() float64 {
	return float64(n)
}
