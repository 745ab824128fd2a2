package flow

import (
	"encoding/json"
	"testing"
)

func TestRescan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		code  string
	}{
		{
			name:  "valid document unchanged",
			input: `{"a":"b","c":[1,2]}`,
			want:  `{"a":"b","c":[1,2]}`,
		},
		{
			name:  "raw newline in string",
			input: "{\"a\":\"line1\nline2\"}",
			want:  `{"a":"line1\nline2"}`,
			code:  "control_characters",
		},
		{
			name:  "carriage return, tab and other controls",
			input: "{\"a\":\"x\r\ty\x01\"}",
			want:  `{"a":"x\r\ty\u0001"}`,
			code:  "control_characters",
		},
		{
			name:  "whitespace outside strings untouched",
			input: "{\n\t\"a\": 1\r\n}",
			want:  "{\n\t\"a\": 1\r\n}",
		},
		{
			name:  "escape sequences are not reinterpreted",
			input: `{"a":"say \"hi\" \\ \n"}`,
			want:  `{"a":"say \"hi\" \\ \n"}`,
		},
		{
			name:  "backslash before raw newline",
			input: "{\"a\":\"x\\\ny\"}",
			want:  `{"a":"x\\\ny"}`,
			code:  "control_characters",
		},
		{
			name:  "unterminated string",
			input: `{"a":"abc`,
			want:  `{"a":"abc"`,
			code:  "unterminated_string",
		},
		{
			name:  "unterminated string ending in backslash",
			input: `{"a":"abc\`,
			want:  `{"a":"abc"`,
			code:  "unterminated_string",
		},
		{
			name:  "close followed by unexpected character",
			input: `{"a":"b"x}`,
			want:  `{"a":"b"x}`,
			code:  "unexpected_after_string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags := Rescan(tt.input)
			if got != tt.want {
				t.Fatalf("Rescan() = %q, want %q", got, tt.want)
			}
			if tt.code != "" && !hasCode(diags, tt.code) {
				t.Fatalf("Rescan() diagnostics = %v, want code %q", diags, tt.code)
			}
			if tt.code == "" && len(diags) != 0 {
				t.Fatalf("Rescan() unexpected diagnostics %v", diags)
			}
		})
	}
}

func TestRescan_UnterminatedOffset(t *testing.T) {
	_, diags := Rescan(`{"a":"abc`)
	for _, d := range diags {
		if d.Code == "unterminated_string" {
			if d.Offset != 5 {
				t.Fatalf("unterminated string offset = %d, want 5", d.Offset)
			}
			return
		}
	}
	t.Fatalf("no unterminated_string diagnostic in %v", diags)
}

func TestRescan_DecodedContent(t *testing.T) {
	out, _ := Rescan("{\"a\":\"line1\nline2\"}")

	var v struct {
		A string `json:"a"`
	}
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("rescanned document does not parse: %v", err)
	}
	if v.A != "line1\nline2" {
		t.Fatalf("decoded content = %q, want %q", v.A, "line1\nline2")
	}
}

func TestRescan_NoRawControlInsideLiterals(t *testing.T) {
	inputs := []string{
		"{\"a\":\"\x00\x01\x02\x1f\"}",
		"{\"a\":\"tab\there\",\n\"b\":\"cr\rhere\"}",
		"{\"a\":\"\\\x07\"}",
		"{\"a\":\"open\n\n",
		"\"\n\"\n\"\n",
		"{\"a\":\"b\"\n,\"c\":\"d\ne\"}",
	}

	for _, input := range inputs {
		out, _ := Rescan(input)
		for _, seg := range splitLiterals(out) {
			if !seg.inString {
				continue
			}
			for i := 0; i < len(seg.text); i++ {
				if seg.text[i] < 0x20 {
					t.Fatalf("raw control byte %#x in literal %q (input %q)", seg.text[i], seg.text, input)
				}
			}
		}
	}
}
