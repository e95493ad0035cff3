package errors

import (
	"strings"
	"testing"
)

func TestSpellError_String(t *testing.T) {
	tests := []struct {
		name     string
		err      *SpellError
		expected string
	}{
		{
			name: "message only",
			err: &SpellError{
				Message: "something went wrong",
			},
			expected: "something went wrong",
		},
		{
			name: "with line and column",
			err: &SpellError{
				Message: "unexpected token",
				Line:    5,
				Column:  10,
			},
			expected: "line 5, column 10: unexpected token",
		},
		{
			name: "with file",
			err: &SpellError{
				Message: "parse error",
				File:    "charms.spell",
				Line:    3,
				Column:  1,
			},
			expected: "charms.spell: line 3, column 1: parse error",
		},
		{
			name: "with hints",
			err: &SpellError{
				Message: "identifier not found: wizzard",
				Line:    1,
				Column:  1,
				Hints:   []string{"Did you mean `wizard`?"},
			},
			expected: "line 1, column 1: identifier not found: wizzard\n  Did you mean `wizard`?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCatalogTemplates(t *testing.T) {
	tests := []struct {
		code     string
		data     map[string]any
		expected string
	}{
		{"LEX-0001", map[string]any{"Char": "@"}, "unknown character '@'"},
		{"PARSE-0001", map[string]any{"Expected": "'('", "Got": "{"}, "expected '(', got '{'"},
		{"TYPE-0004", map[string]any{"Got": "INTEGER"}, "condition must be a boolean, got INTEGER"},
		{"ARITY-0001", map[string]any{"Function": "greet", "Got": 0, "Want": 1},
			"wrong number of arguments to `greet`. got=0, want=1"},
		{"OP-0002", nil, "division by zero"},
		{"INDEX-0001", map[string]any{"Index": 3, "Length": 1}, "index 3 out of range (length 1)"},
		{"KEY-0001", map[string]any{"Key": "Draco"}, "key 'Draco' not found in map"},
		{"CONV-0001", map[string]any{"Value": "seven"}, "cannot convert 'seven' to an integer"},
		{"FATAL-0001", map[string]any{"Depth": 5000}, "call stack exhausted (depth 5000)"},
	}

	for _, tt := range tests {
		err := New(tt.code, tt.data)
		if err.Message != tt.expected {
			t.Errorf("%s: got %q, want %q", tt.code, err.Message, tt.expected)
		}
		if err.Code != tt.code {
			t.Errorf("%s: wrong code %q", tt.code, err.Code)
		}
	}
}

func TestUnknownCatalogCode(t *testing.T) {
	err := New("NOPE-9999", map[string]any{"message": "custom message"})
	if err.Message != "custom message" {
		t.Errorf("got %q", err.Message)
	}
}

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		code  string
		class ErrorClass
	}{
		{"LEX-0001", ClassLex},
		{"PARSE-0002", ClassParse},
		{"TYPE-0003", ClassType},
		{"ARITY-0001", ClassArity},
		{"UNDEF-0001", ClassUndefined},
		{"INDEX-0001", ClassIndex},
		{"KEY-0001", ClassKey},
		{"OP-0001", ClassOperator},
		{"CONV-0001", ClassConversion},
		{"FATAL-0001", ClassFatal},
	}

	for _, tt := range tests {
		err := New(tt.code, nil)
		if err.Class != tt.class {
			t.Errorf("%s: got class %s, want %s", tt.code, err.Class, tt.class)
		}
	}
}

func TestIsFatal(t *testing.T) {
	if !New("FATAL-0001", nil).IsFatal() {
		t.Error("FATAL-0001 should be fatal")
	}
	if New("OP-0002", nil).IsFatal() {
		t.Error("OP-0002 should not be fatal")
	}
}

func TestIsParseError(t *testing.T) {
	if !New("LEX-0001", nil).IsParseError() {
		t.Error("lex errors count as parse errors")
	}
	if !New("PARSE-0001", nil).IsParseError() {
		t.Error("PARSE-0001 should be a parse error")
	}
	if New("TYPE-0001", nil).IsParseError() {
		t.Error("TYPE-0001 should not be a parse error")
	}
}

func TestFindClosestMatch(t *testing.T) {
	candidates := []string{"counter", "greet", "wizard", "potions"}

	tests := []struct {
		input    string
		expected string
	}{
		{"wizzard", "wizard"},
		{"counterr", "counter"},
		{"gret", "greet"},
		{"zzzzzzzz", ""},
	}

	for _, tt := range tests {
		if got := FindClosestMatch(tt.input, candidates); got != tt.expected {
			t.Errorf("FindClosestMatch(%q): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNewUndefinedIdentifierHints(t *testing.T) {
	err := NewUndefinedIdentifier("Illuminat", append([]string{"x", "y"}, SpellKeywords...))
	if err.Code != "UNDEF-0001" {
		t.Fatalf("wrong code %s", err.Code)
	}
	found := false
	for _, hint := range err.Hints {
		if strings.Contains(hint, "Illuminate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a keyword suggestion, got %v", err.Hints)
	}
	if NewUndefinedIdentifier("qqqq", []string{"x"}).Hints != nil {
		t.Error("no hint expected when nothing is close")
	}
}

func TestWithFileAndPosition(t *testing.T) {
	base := New("OP-0002", nil)
	err := base.WithFile("brew.spell").WithPosition(4, 2)

	if err.File != "brew.spell" || err.Line != 4 || err.Column != 2 {
		t.Errorf("got %s:%d:%d", err.File, err.Line, err.Column)
	}
	// The original must stay untouched
	if base.File != "" || base.Line != 0 {
		t.Error("WithFile/WithPosition must not mutate the receiver")
	}
}

func TestPrettyStringHeaders(t *testing.T) {
	tests := []struct {
		err    *SpellError
		header string
	}{
		{New("LEX-0001", map[string]any{"Char": "@"}), "Lex error"},
		{New("PARSE-0002", map[string]any{"Token": "}"}), "Parse error"},
		{New("OP-0002", nil), "Runtime error"},
		{New("FATAL-0001", map[string]any{"Depth": 5000}), "Fatal error"},
	}

	for _, tt := range tests {
		pretty := tt.err.PrettyString()
		if !strings.HasPrefix(pretty, tt.header) {
			t.Errorf("got %q, want prefix %q", pretty, tt.header)
		}
	}
}
