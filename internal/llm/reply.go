package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyReply means the service returned no payload at all.
	ErrEmptyReply = errors.New("empty model reply")

	// ErrMalformedReply means the reply could not be normalized into the
	// shape the caller asked for. Callers treat it as distinct from
	// transport failures.
	ErrMalformedReply = errors.New("malformed model reply")
)

// Reply holds the raw value the model produced. The service contract only
// guarantees it is valid JSON: a string, an object, or null.
type Reply struct {
	Raw json.RawMessage
}

// IsNull reports whether the model returned the null sentinel.
func (r Reply) IsNull() bool {
	return string(bytes.TrimSpace(r.Raw)) == "null"
}

// Text normalizes the reply to plain text. A JSON string is unquoted; any
// other value is returned verbatim as its JSON encoding.
func (r Reply) Text() (string, error) {
	if len(r.Raw) == 0 || r.IsNull() {
		return "", ErrEmptyReply
	}
	var s string
	if err := json.Unmarshal(r.Raw, &s); err == nil {
		return s, nil
	}
	return string(r.Raw), nil
}

// Decode normalizes the reply into v. An object reply decodes directly; a
// string reply is stripped of code fences first, then parsed. Anything else
// is ErrMalformedReply.
func (r Reply) Decode(v any) error {
	if len(r.Raw) == 0 || r.IsNull() {
		return ErrEmptyReply
	}

	trimmed := bytes.TrimSpace(r.Raw)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, v); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedReply, err)
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fmt.Errorf("%w: neither object nor string", ErrMalformedReply)
	}
	s = StripCodeFences(s)
	if s == "" || s == "null" {
		return ErrEmptyReply
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, leaving the inner text trimmed.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && !strings.ContainsAny(s[:idx], "{}[]") {
		// Drop the language tag line (e.g. ```json)
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
