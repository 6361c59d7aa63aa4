// Package backup detects and parses backup payloads and builds the export
// envelopes the restore path reads back.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Tiliavir/maintenance-notebook/internal/table"
)

// FormatName tags envelopes produced from a full store snapshot.
const FormatName = "localStorage-backup"

// Version is the envelope version written by this package.
const Version = 1

// ErrEmptyInput is returned when there is nothing to parse.
var ErrEmptyInput = errors.New("backup text is empty; paste the backup JSON or a table manually")

// FormatError reports a payload that is neither valid JSON nor a recognized
// backup shape.
type FormatError struct {
	Reason string
	Cause  error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return e.Reason
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

const (
	reasonInvalidJSON  = "invalid JSON (the pasted text may be incomplete or truncated)"
	reasonUnrecognized = "unrecognized backup format"
)

// Envelope is the normalized {meta, storage} bag every accepted JSON shape
// reduces to. Storage values are the raw strings to write back.
type Envelope struct {
	Meta    map[string]any    `json:"meta"`
	Storage map[string]string `json:"storage"`
}

// Kind tags the shape a payload was recognized as.
type Kind int

const (
	// KindEnvelope is {meta, storage} or the export form {meta, data}.
	KindEnvelope Kind = iota + 1
	// KindLegacyMap is a bare key to value object.
	KindLegacyMap
	// KindPairArray is an array of {key, value} objects.
	KindPairArray
	// KindTable is tab-separated text pasted from a spreadsheet.
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindEnvelope:
		return "envelope"
	case KindLegacyMap:
		return "legacy-map"
	case KindPairArray:
		return "pair-array"
	case KindTable:
		return "table"
	}
	return "unknown"
}

// Parsed is the result of Detect. Envelope is set for the JSON kinds, Table
// for KindTable.
type Parsed struct {
	Kind     Kind
	Envelope Envelope
	Table    table.Table
}

// Detect classifies text and parses it. JSON is always tried first; the
// table heuristic only applies when JSON parsing fails.
func Detect(text string) (Parsed, error) {
	kind, env, err := parse(text)
	if err == nil {
		return Parsed{Kind: kind, Envelope: env}, nil
	}
	var fe *FormatError
	if errors.As(err, &fe) && table.LooksLikeTable(text) {
		t, terr := table.Parse(text)
		if terr != nil {
			return Parsed{}, terr
		}
		return Parsed{Kind: KindTable, Table: t}, nil
	}
	return Parsed{}, err
}

// ParseBackupText parses a JSON backup in any accepted shape into an Envelope.
func ParseBackupText(text string) (Envelope, error) {
	_, env, err := parse(text)
	return env, err
}

func parse(text string) (Kind, Envelope, error) {
	candidate := extractJSONCandidate(text)
	if candidate == "" {
		return 0, Envelope{}, ErrEmptyInput
	}

	v, err := decode(candidate)
	if err != nil {
		v, err = decode(strings.TrimPrefix(candidate, "\uFEFF"))
		if err != nil {
			return 0, Envelope{}, &FormatError{Reason: reasonInvalidJSON, Cause: err}
		}
	}
	return classify(v)
}

func decode(s string) (any, error) {
	var v any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// classify maps a decoded JSON value onto the tagged union.
func classify(v any) (Kind, Envelope, error) {
	switch x := v.(type) {
	case map[string]any:
		if st, ok := x["storage"].(map[string]any); ok {
			meta, _ := x["meta"].(map[string]any)
			if meta == nil {
				meta = map[string]any{}
			}
			return KindEnvelope, Envelope{Meta: meta, Storage: stringValues(st)}, nil
		}
		if data, ok := x["data"].(map[string]any); ok {
			meta, _ := x["meta"].(map[string]any)
			if meta == nil {
				meta = map[string]any{"format": FormatName}
			}
			return KindEnvelope, Envelope{Meta: meta, Storage: stringValues(data)}, nil
		}
		_, hasMeta := x["meta"]
		if hasMeta && len(x) > 1 {
			return 0, Envelope{}, &FormatError{Reason: reasonUnrecognized}
		}
		return KindLegacyMap, Envelope{Meta: synthesizedMeta(), Storage: stringValues(x)}, nil

	case []any:
		st := map[string]string{}
		for _, it := range x {
			pair, ok := it.(map[string]any)
			if !ok {
				continue
			}
			key, hasKey := pair["key"]
			value, hasValue := pair["value"]
			if !hasKey || !hasValue {
				continue
			}
			st[storageValue(key)] = storageValue(value)
		}
		if len(st) > 0 {
			return KindPairArray, Envelope{Meta: synthesizedMeta(), Storage: st}, nil
		}
	}
	return 0, Envelope{}, &FormatError{Reason: reasonUnrecognized}
}

func synthesizedMeta() map[string]any {
	return map[string]any{"format": FormatName, "version": 0}
}

func stringValues(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = storageValue(v)
	}
	return out
}

// storageValue renders a decoded JSON value as the string written to the
// store. Null becomes "null"; objects and arrays are re-encoded as JSON.
func storageValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// stripCodeFences removes a ``` fence wrapped around pasted text.
func stripCodeFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	lines := strings.Split(strings.ReplaceAll(t, "\r\n", "\n"), "\n")
	if len(lines) < 3 {
		return t
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractJSONCandidate returns the part of s most likely to be the JSON
// payload: the whole text when it already starts like JSON, otherwise the
// outermost {...} span, then the outermost [...] span.
func extractJSONCandidate(s string) string {
	t := stripCodeFences(s)
	if t == "" {
		return ""
	}
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return t
	}
	if first, last := strings.Index(t, "{"), strings.LastIndex(t, "}"); first != -1 && last > first {
		return strings.TrimSpace(t[first : last+1])
	}
	if first, last := strings.Index(t, "["), strings.LastIndex(t, "]"); first != -1 && last > first {
		return strings.TrimSpace(t[first : last+1])
	}
	return t
}
