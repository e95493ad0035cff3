package lexer

import (
	"testing"
)

func tokenize(t *testing.T, input string) []Token {
	t.Helper()
	tokens, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("unexpected lex error: %s", err.Message)
	}
	return tokens
}

func TestDeclarationTokens(t *testing.T) {
	input := `Wand counter = 42`

	expected := []struct {
		tokType TokenType
		literal string
	}{
		{KEYWORD, "Wand"},
		{IDENT, "counter"},
		{OPERATOR, "="},
		{NUMBER, "42"},
		{EOF, ""},
	}

	tokens := tokenize(t, input)
	if len(tokens) != len(expected) {
		t.Fatalf("wrong token count. got=%d, want=%d", len(tokens), len(expected))
	}
	for i, exp := range expected {
		if tokens[i].Type != exp.tokType {
			t.Errorf("token %d: wrong type. got=%s, want=%s", i, tokens[i].Type, exp.tokType)
		}
		if tokens[i].Literal != exp.literal {
			t.Errorf("token %d: wrong literal. got=%q, want=%q", i, tokens[i].Literal, exp.literal)
		}
	}
}

func TestKeywordRecognition(t *testing.T) {
	keywords := []string{
		"Wand", "Cauldron", "SpellBooks", "Incantation", "Cast",
		"Illuminate", "Ifar", "Elsear", "Loopus", "Persistus", "Forar",
		"Protego", "Alohomora", "Magical", "Creature", "Bloodline",
		"in", "len", "str", "int",
	}

	for _, kw := range keywords {
		if LookupIdent(kw) != KEYWORD {
			t.Errorf("%q should be a keyword", kw)
		}
	}

	for _, ident := range []string{"wand", "harry", "Wands", "lenx", "_tmp"} {
		if LookupIdent(ident) != IDENT {
			t.Errorf("%q should be an identifier", ident)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `= == != < <= > >= + - * / % && || !`

	expected := []string{
		"=", "==", "!=", "<", "<=", ">", ">=",
		"+", "-", "*", "/", "%", "&&", "||", "!",
	}

	tokens := tokenize(t, input)
	if len(tokens) != len(expected)+1 {
		t.Fatalf("wrong token count. got=%d, want=%d", len(tokens), len(expected)+1)
	}
	for i, op := range expected {
		if tokens[i].Type != OPERATOR {
			t.Errorf("token %d: expected OPERATOR, got %s", i, tokens[i].Type)
		}
		if tokens[i].Literal != op {
			t.Errorf("token %d: got %q, want %q", i, tokens[i].Literal, op)
		}
	}
}

func TestDelimiters(t *testing.T) {
	input := `( ) { } [ ] , . ; :`
	tokens := tokenize(t, input)

	expected := []string{"(", ")", "{", "}", "[", "]", ",", ".", ";", ":"}
	for i, d := range expected {
		if tokens[i].Type != DELIMITER || tokens[i].Literal != d {
			t.Errorf("token %d: got %s %q, want DELIMITER %q", i, tokens[i].Type, tokens[i].Literal, d)
		}
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`'hello'`, "hello"},
		{`"it's"`, "it's"},
		{`'say "hi"'`, `say "hi"`},
		{`"tab\there"`, "tab\there"},
		{`"line\nbreak"`, "line\nbreak"},
		{`"quote\""`, `quote"`},
		{`"back\\slash"`, `back\slash`},
		{`"unknown\qescape"`, "unknownqescape"},
		{`""`, ""},
	}

	for _, tt := range tests {
		tokens := tokenize(t, tt.input)
		if tokens[0].Type != STRING {
			t.Errorf("input %q: expected STRING, got %s", tt.input, tokens[0].Type)
			continue
		}
		if tokens[0].Literal != tt.expected {
			t.Errorf("input %q: got %q, want %q", tt.input, tokens[0].Literal, tt.expected)
		}
	}
}

func TestTripleQuotedStrings(t *testing.T) {
	input := `"""line one
line two"""`

	tokens := tokenize(t, input)
	if tokens[0].Type != STRING {
		t.Fatalf("expected STRING, got %s", tokens[0].Type)
	}
	if tokens[0].Literal != "line one\nline two" {
		t.Errorf("got %q", tokens[0].Literal)
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, input := range []string{`"open`, `"broken
end"`, `"""never closed`} {
		_, err := New(input).Tokenize()
		if err == nil {
			t.Errorf("input %q: expected a lex error", input)
			continue
		}
		if err.Code != "LEX-0002" {
			t.Errorf("input %q: got code %s, want LEX-0002", input, err.Code)
		}
	}
}

func TestComments(t *testing.T) {
	input := `# a full line comment
Wand x = 1 # trailing comment
/* block
   comment */ Wand y = 2`

	tokens := tokenize(t, input)

	var literals []string
	for _, tok := range tokens {
		if tok.Type != EOF {
			literals = append(literals, tok.Literal)
		}
	}

	expected := []string{"Wand", "x", "=", "1", "Wand", "y", "=", "2"}
	if len(literals) != len(expected) {
		t.Fatalf("wrong token count. got=%v", literals)
	}
	for i, lit := range expected {
		if literals[i] != lit {
			t.Errorf("token %d: got %q, want %q", i, literals[i], lit)
		}
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	input := "Wand x = 1\nWand yy = 22"
	tokens := tokenize(t, input)

	// Second-line tokens: Wand yy = 22
	tests := []struct {
		index  int
		line   int
		column int
	}{
		{0, 1, 1},  // Wand
		{1, 1, 6},  // x
		{4, 2, 1},  // Wand
		{5, 2, 6},  // yy
		{7, 2, 11}, // 22
	}

	for _, tt := range tests {
		tok := tokens[tt.index]
		if tok.Line != tt.line || tok.Column != tt.column {
			t.Errorf("token %d (%q): got %d:%d, want %d:%d",
				tt.index, tok.Literal, tok.Line, tok.Column, tt.line, tt.column)
		}
	}
}

func TestUnknownCharacter(t *testing.T) {
	for _, input := range []string{`Wand x = 1 @`, `Wand a = 1 & 2`, `Wand b = 1 | 2`} {
		_, err := New(input).Tokenize()
		if err == nil {
			t.Errorf("input %q: expected a lex error", input)
			continue
		}
		if err.Code != "LEX-0001" {
			t.Errorf("input %q: got code %s, want LEX-0001", input, err.Code)
		}
	}
}

func TestTokenizeAttachesFilename(t *testing.T) {
	_, err := NewWithFilename(`@`, "charms.spell").Tokenize()
	if err == nil {
		t.Fatal("expected a lex error")
	}
	if err.File != "charms.spell" {
		t.Errorf("got file %q, want charms.spell", err.File)
	}
}
