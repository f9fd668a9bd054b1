package browser

import (
	"encoding/json"
	"strconv"
	"strings"

	"hotcrawl/pkg/errors"
)

// Kind identifies the shape of a parsed control reply
type Kind int

const (
	// KindEmpty means the output carried no payload at all
	KindEmpty Kind = iota
	// KindBool is a bare true/false line
	KindBool
	// KindNumber is a bare integer line
	KindNumber
	// KindString is plain text with no recognizable structure
	KindString
	// KindValue is a decoded JSON document
	KindValue
)

// Reply is the parsed payload of a control command
type Reply struct {
	Kind   Kind
	Bool   bool
	Number int64
	Str    string
	Value  interface{}
}

// decorativePrefixes are the control tool's box-drawing and prompt glyphs.
// Lines starting with any of them are presentation only and never payload.
var decorativePrefixes = []string{"│", "├", "╯", "◇"}

// maxExcerpt bounds how much raw output a parse error message quotes
const maxExcerpt = 200

// ParseOutput turns raw control tool output into a typed Reply.
//
// The tool interleaves decorative framing and diagnostic lines with the
// actual payload, which is one of: a bare boolean line, a bare integer line,
// a JSON document possibly spanning multiple lines, or free text. The scan
// runs line by line: the first recognizable payload line wins, and a JSON
// document is accumulated from its opening line until the accumulated text
// decodes, so trailing diagnostics after the payload are ignored. JSON that
// decodes to a string which itself looks like JSON is decoded again, at most
// twice, because the tool double-encodes evaluate results.
func ParseOutput(raw string) (*Reply, error) {
	lines := payloadLines(raw)
	if len(lines) == 0 {
		return &Reply{Kind: KindEmpty}, nil
	}

	for i, line := range lines {
		switch line {
		case "true":
			return &Reply{Kind: KindBool, Bool: true}, nil
		case "false":
			return &Reply{Kind: KindBool, Bool: false}, nil
		}

		if n, err := strconv.ParseInt(line, 10, 64); err == nil {
			return &Reply{Kind: KindNumber, Number: n}, nil
		}

		if isJSONStart(line) {
			return accumulateJSON(lines[i:])
		}
	}

	return &Reply{Kind: KindString, Str: strings.Join(lines, "\n")}, nil
}

// accumulateJSON grows the candidate document one line at a time from the
// opening line, stopping at the first successful decode. Unparsable output is
// a command failure, same as a non-zero exit, and gets retried as such.
func accumulateJSON(lines []string) (*Reply, error) {
	var doc strings.Builder

	for _, line := range lines {
		if doc.Len() > 0 {
			doc.WriteByte('\n')
		}
		doc.WriteString(line)

		var value interface{}
		if err := json.Unmarshal([]byte(doc.String()), &value); err == nil {
			return &Reply{Kind: KindValue, Value: unwrapNested(value)}, nil
		}
	}

	return nil, errors.New(errors.ErrorTypeCommand,
		"malformed control reply: %s", excerpt(doc.String()))
}

// payloadLines strips decorative framing and blank lines
func payloadLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isDecorative(trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func isDecorative(line string) bool {
	for _, prefix := range decorativePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func isJSONStart(line string) bool {
	return strings.HasPrefix(line, "{") ||
		strings.HasPrefix(line, "[") ||
		strings.HasPrefix(line, `"`)
}

// unwrapNested decodes double-encoded string payloads, at most two levels deep
func unwrapNested(value interface{}) interface{} {
	for depth := 0; depth < 2; depth++ {
		s, ok := value.(string)
		if !ok || !isJSONStart(strings.TrimSpace(s)) {
			return value
		}

		var inner interface{}
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return value
		}
		value = inner
	}
	return value
}

func excerpt(s string) string {
	if len(s) > maxExcerpt {
		return s[:maxExcerpt] + "..."
	}
	return s
}

// StringSlice extracts a slice of strings from a KindValue reply. It returns
// false when the reply is not a JSON array of strings.
func (r *Reply) StringSlice() ([]string, bool) {
	if r.Kind != KindValue {
		return nil, false
	}

	items, ok := r.Value.([]interface{})
	if !ok {
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Truthy reports whether the reply represents a positive boolean outcome
func (r *Reply) Truthy() bool {
	switch r.Kind {
	case KindBool:
		return r.Bool
	case KindNumber:
		return r.Number != 0
	case KindString:
		return strings.EqualFold(r.Str, "true")
	case KindValue:
		if b, ok := r.Value.(bool); ok {
			return b
		}
		return r.Value != nil
	default:
		return false
	}
}
