package browser

import (
	"reflect"
	"testing"

	"hotcrawl/pkg/errors"
)

func TestParseOutputScalars(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *Reply
	}{
		{
			name: "bare true",
			raw:  "true\n",
			want: &Reply{Kind: KindBool, Bool: true},
		},
		{
			name: "bare false with decoration",
			raw:  "│ running evaluate\nfalse\n╯ done\n",
			want: &Reply{Kind: KindBool, Bool: false},
		},
		{
			name: "bare integer",
			raw:  "◇ result\n42\n",
			want: &Reply{Kind: KindNumber, Number: 42},
		},
		{
			name: "plain text",
			raw:  "navigation complete\n",
			want: &Reply{Kind: KindString, Str: "navigation complete"},
		},
		{
			name: "empty output",
			raw:  "│\n├\n\n",
			want: &Reply{Kind: KindEmpty},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(tt.raw)
			if err != nil {
				t.Fatalf("ParseOutput() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOutput() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseOutputJSON(t *testing.T) {
	raw := "│ evaluate\n{\n  \"targetId\": \"ABC123\",\n  \"url\": \"https://x.com/alice\"\n}\n"

	reply, err := ParseOutput(raw)
	if err != nil {
		t.Fatalf("ParseOutput() error = %v", err)
	}
	if reply.Kind != KindValue {
		t.Fatalf("Kind = %v, want KindValue", reply.Kind)
	}

	doc, ok := reply.Value.(map[string]interface{})
	if !ok {
		t.Fatalf("Value is %T, want map", reply.Value)
	}
	if doc["targetId"] != "ABC123" {
		t.Errorf("targetId = %v, want ABC123", doc["targetId"])
	}
}

func TestParseOutputDoubleEncoded(t *testing.T) {
	// A JSON string whose content is itself a JSON array
	raw := `"[\"https://x.com/a/status/1\",\"https://x.com/b/status/2\"]"`

	reply, err := ParseOutput(raw)
	if err != nil {
		t.Fatalf("ParseOutput() error = %v", err)
	}

	urls, ok := reply.StringSlice()
	if !ok {
		t.Fatalf("StringSlice() not ok, reply = %+v", reply)
	}
	if len(urls) != 2 || urls[0] != "https://x.com/a/status/1" {
		t.Errorf("urls = %v", urls)
	}
}

func TestParseOutputMalformedJSON(t *testing.T) {
	_, err := ParseOutput("{ not json at all\n")
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}

	// Unparsable output is a command failure, retried like a non-zero exit
	if errors.TypeOf(err) != errors.ErrorTypeCommand {
		t.Errorf("error type = %v, want command", errors.TypeOf(err))
	}
	if !errors.IsRetryable(errors.TypeOf(err)) {
		t.Error("malformed reply should be retryable")
	}
}

func TestParseOutputTrailingDiagnostics(t *testing.T) {
	raw := "◇ running evaluate\n[\"https://x.com/a/status/1\"]\nDone in 120ms\n"

	reply, err := ParseOutput(raw)
	if err != nil {
		t.Fatalf("ParseOutput() error = %v", err)
	}

	urls, ok := reply.StringSlice()
	if !ok {
		t.Fatalf("StringSlice() not ok, reply = %+v", reply)
	}
	if len(urls) != 1 || urls[0] != "https://x.com/a/status/1" {
		t.Errorf("urls = %v", urls)
	}
}

func TestParseOutputScalarAfterDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *Reply
	}{
		{
			name: "true after plain diagnostic",
			raw:  "Attached to tab\ntrue\n",
			want: &Reply{Kind: KindBool, Bool: true},
		},
		{
			name: "integer after plain diagnostic",
			raw:  "Evaluating script\n7\n",
			want: &Reply{Kind: KindNumber, Number: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(tt.raw)
			if err != nil {
				t.Fatalf("ParseOutput() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOutput() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseOutputMultilineJSONWithTrailer(t *testing.T) {
	raw := "{\n  \"targetId\": \"ABC123\"\n}\nNavigation complete\n"

	reply, err := ParseOutput(raw)
	if err != nil {
		t.Fatalf("ParseOutput() error = %v", err)
	}
	if reply.Kind != KindValue {
		t.Fatalf("Kind = %v, want KindValue", reply.Kind)
	}

	doc, ok := reply.Value.(map[string]interface{})
	if !ok {
		t.Fatalf("Value is %T, want map", reply.Value)
	}
	if doc["targetId"] != "ABC123" {
		t.Errorf("targetId = %v", doc["targetId"])
	}
}

func TestParseOutputIdempotent(t *testing.T) {
	raw := "◇ evaluate\n[\"https://x.com/a/status/1\"]\n"

	first, err := ParseOutput(raw)
	if err != nil {
		t.Fatalf("first parse error = %v", err)
	}
	second, err := ParseOutput(raw)
	if err != nil {
		t.Fatalf("second parse error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("parses differ: %+v vs %+v", first, second)
	}
}

func TestStringSliceRejectsNonArrays(t *testing.T) {
	reply := &Reply{Kind: KindValue, Value: map[string]interface{}{"a": "b"}}
	if _, ok := reply.StringSlice(); ok {
		t.Error("StringSlice() accepted a map")
	}

	reply = &Reply{Kind: KindBool, Bool: true}
	if _, ok := reply.StringSlice(); ok {
		t.Error("StringSlice() accepted a bool")
	}
}

func TestStringSliceEmptyArray(t *testing.T) {
	reply, err := ParseOutput("[]")
	if err != nil {
		t.Fatalf("ParseOutput() error = %v", err)
	}

	urls, ok := reply.StringSlice()
	if !ok {
		t.Fatal("StringSlice() not ok for empty array")
	}
	if len(urls) != 0 {
		t.Errorf("urls = %v, want empty", urls)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name  string
		reply *Reply
		want  bool
	}{
		{"true bool", &Reply{Kind: KindBool, Bool: true}, true},
		{"false bool", &Reply{Kind: KindBool, Bool: false}, false},
		{"nonzero number", &Reply{Kind: KindNumber, Number: 3}, true},
		{"zero number", &Reply{Kind: KindNumber, Number: 0}, false},
		{"true string", &Reply{Kind: KindString, Str: "true"}, true},
		{"other string", &Reply{Kind: KindString, Str: "nope"}, false},
		{"empty", &Reply{Kind: KindEmpty}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.reply.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}
