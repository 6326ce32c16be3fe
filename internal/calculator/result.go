package calculator

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	invalidJSONMessage      = "Invalid JSON response from AI"
	processingErrorMessage  = "Error processing image"
	unrecognizedItemMessage = "Unrecognized entry from AI"
)

// Value is an expression result: either a string or a JSON number kept as written.
type Value struct {
	text     string
	isNumber bool
}

// StringValue wraps a string result.
func StringValue(s string) Value { return Value{text: s} }

// NumberValue wraps a numeric result.
func NumberValue(n json.Number) Value { return Value{text: string(n), isNumber: true} }

// IsNumber reports whether the value was a JSON number.
func (v Value) IsNumber() bool { return v.isNumber }

// String returns the string or the number's literal text.
func (v Value) String() string { return v.text }

// MarshalJSON writes numbers bare and strings quoted.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNumber {
		return []byte(v.text), nil
	}
	return json.Marshal(v.text)
}

// Entry is one element of an analysis result.
type Entry interface {
	isEntry()
}

// Solved is an evaluated expression.
type Solved struct {
	Expr   string
	Result Value
}

// Assignment binds Value to the variable Name.
type Assignment struct {
	Name  string
	Value Value
}

// ParseError stands in for a model reply that was not a JSON array. Raw is the reply before cleanup.
type ParseError struct {
	Raw string
}

// ProcessingError stands in for a stored image that could not be prepared for the model.
type ProcessingError struct {
	Message string
}

// Unrecognized is an array element matching none of the documented shapes.
type Unrecognized struct {
	Raw    string
	Reason string
}

func (Solved) isEntry()          {}
func (Assignment) isEntry()      {}
func (ParseError) isEntry()      {}
func (ProcessingError) isEntry() {}
func (Unrecognized) isEntry()    {}

func (e Solved) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Expr   string `json:"expr"`
		Result Value  `json:"result"`
	}{e.Expr, e.Result})
}

func (e Assignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Expr   string `json:"expr"`
		Result Value  `json:"result"`
		Assign bool   `json:"assign"`
	}{e.Name, e.Value, true})
}

func (e ParseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error       string `json:"error"`
		RawResponse string `json:"raw_response"`
	}{invalidJSONMessage, e.Raw})
}

func (e ProcessingError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{processingErrorMessage, e.Message})
}

func (e Unrecognized) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error       string `json:"error"`
		RawResponse string `json:"raw_response"`
		Message     string `json:"message"`
	}{unrecognizedItemMessage, e.Raw, e.Reason})
}

// Result is the ordered list of entries returned to the caller. It always
// encodes as a JSON array, never null.
type Result []Entry

func (r Result) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Entry(r))
}

// UnrecognizedCount returns how many entries matched no documented shape.
func (r Result) UnrecognizedCount() int {
	n := 0
	for _, e := range r {
		if _, ok := e.(Unrecognized); ok {
			n++
		}
	}
	return n
}

var (
	errNotObject     = errors.New("entry is not a JSON object")
	errMissingExpr   = errors.New("expr is missing")
	errExprType      = errors.New("expr must be a string")
	errMissingResult = errors.New("result is missing")
	errResultType    = errors.New("result must be a string or number")
	errAssignType    = errors.New("assign must be a boolean")
)

// decodeResult parses cleaned model text. ok is false when the text is not a
// single JSON array.
func decodeResult(text string) (Result, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil || items == nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	out := make(Result, 0, len(items))
	for _, raw := range items {
		out = append(out, decodeEntry(raw))
	}
	return out, true
}

func decodeEntry(raw json.RawMessage) Entry {
	entry, err := classify(raw)
	if err != nil {
		return Unrecognized{Raw: string(raw), Reason: err.Error()}
	}
	return entry
}

func classify(raw json.RawMessage) (Entry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, errNotObject
	}

	exprRaw, ok := fields["expr"]
	if !ok {
		return nil, errMissingExpr
	}
	var expr string
	if err := json.Unmarshal(exprRaw, &expr); err != nil || isNull(exprRaw) {
		return nil, errExprType
	}

	resultRaw, ok := fields["result"]
	if !ok {
		return nil, errMissingResult
	}
	value, err := decodeValue(resultRaw)
	if err != nil {
		return nil, err
	}

	assign := false
	if assignRaw, ok := fields["assign"]; ok && !isNull(assignRaw) {
		if err := json.Unmarshal(assignRaw, &assign); err != nil {
			return nil, errAssignType
		}
	}
	if assign {
		return Assignment{Name: expr, Value: value}, nil
	}
	return Solved{Expr: expr, Result: value}, nil
}

func decodeValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Value{}, errResultType
	}
	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, errResultType
		}
		return StringValue(s), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return NumberValue(json.Number(trimmed)), nil
	default:
		return Value{}, errResultType
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
