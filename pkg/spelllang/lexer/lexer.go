package lexer

import (
	"fmt"

	"github.com/sambeau/spelllang/pkg/spelllang/errors"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Identifiers and literals
	KEYWORD // Wand, Incantation, Illuminate, ...
	IDENT   // counter, greet, x, y, ...
	NUMBER  // 1343456
	STRING  // "foobar", 'foobar', """multi-line"""

	// Operator and delimiter tokens carry their text in Literal
	OPERATOR  // = ! < > + - * / % == != <= >= && ||
	DELIMITER // ( ) { } [ ] , . ; :
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case KEYWORD:
		return "KEYWORD"
	case IDENT:
		return "IDENT"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case OPERATOR:
		return "OPERATOR"
	case DELIMITER:
		return "DELIMITER"
	default:
		return "UNKNOWN"
	}
}

// keywords is the fixed keyword set of the language. The builtin function
// names are keyword-tagged too, matching how the parser dispatches on them.
var keywords = map[string]bool{
	"Wand":        true,
	"Cauldron":    true,
	"SpellBooks":  true,
	"Incantation": true,
	"Cast":        true,
	"Illuminate":  true,
	"Ifar":        true,
	"Elsear":      true,
	"Loopus":      true,
	"Persistus":   true,
	"Forar":       true,
	"Protego":     true,
	"Alohomora":   true,
	"Magical":     true,
	"Creature":    true,
	"Bloodline":   true,
	"in":          true,
	"len":         true,
	"str":         true,
	"int":         true,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if keywords[ident] {
		return KEYWORD
	}
	return IDENT
}

// twoCharOperators is the greedy lookahead table for two-character operators
var twoCharOperators = map[string]bool{
	"==": true,
	"!=": true,
	"<=": true,
	">=": true,
	"&&": true,
	"||": true,
}

func isSingleOperator(ch byte) bool {
	switch ch {
	case '=', '!', '<', '>', '+', '-', '*', '/', '%':
		return true
	}
	return false
}

func isDelimiter(ch byte) bool {
	switch ch {
	case '(', ')', '{', '}', '[', ']', ',', '.', ';', ':':
		return true
	}
	return false
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Lexer represents the lexical analyzer
type Lexer struct {
	filename     string
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		filename: "<input>",
		input:    input,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

// NewWithFilename creates a new lexer instance with a specific filename
func NewWithFilename(input string, filename string) *Lexer {
	l := New(input)
	l.filename = filename
	return l
}

// Tokenize scans the whole input and returns the token stream, terminated by
// an EOF token. The first lex failure aborts the scan.
func (l *Lexer) Tokenize() ([]Token, *errors.SpellError) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err.WithFile(l.filename)
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL character represents EOF
		l.position = l.readPosition
		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// peekCharN returns the character n positions ahead without advancing position
func (l *Lexer) peekCharN(n int) byte {
	pos := l.readPosition + n - 1
	if pos >= len(l.input) {
		return 0
	}
	return l.input[pos]
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() (Token, *errors.SpellError) {
	l.skipWhitespaceAndComments()

	line := l.line
	column := l.column

	switch {
	case l.ch == 0:
		return Token{Type: EOF, Literal: "", Line: line, Column: column}, nil

	case isLetter(l.ch):
		literal := l.readIdentifier()
		return Token{Type: LookupIdent(literal), Literal: literal, Line: line, Column: column}, nil

	case isDigit(l.ch):
		literal := l.readNumber()
		return Token{Type: NUMBER, Literal: literal, Line: line, Column: column}, nil

	case l.ch == '"' || l.ch == '\'':
		literal, err := l.readString()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: STRING, Literal: literal, Line: line, Column: column}, nil

	case isSingleOperator(l.ch):
		op := string(l.ch)
		if twoCharOperators[op+string(l.peekChar())] {
			op += string(l.peekChar())
			l.readChar()
		}
		l.readChar()
		return Token{Type: OPERATOR, Literal: op, Line: line, Column: column}, nil

	case l.ch == '&' || l.ch == '|':
		// Only the doubled forms exist
		if l.peekChar() == l.ch {
			op := string(l.ch) + string(l.ch)
			l.readChar()
			l.readChar()
			return Token{Type: OPERATOR, Literal: op, Line: line, Column: column}, nil
		}
		return Token{}, errors.NewWithPosition("LEX-0001", line, column,
			map[string]any{"Char": string(l.ch)})

	case isDelimiter(l.ch):
		d := string(l.ch)
		l.readChar()
		return Token{Type: DELIMITER, Literal: d, Line: line, Column: column}, nil

	default:
		return Token{}, errors.NewWithPosition("LEX-0001", line, column,
			map[string]any{"Char": string(l.ch)})
	}
}

// skipWhitespaceAndComments consumes whitespace, '#' line comments and
// '/* ... */' block comments. An unterminated block comment is tolerated:
// scanning simply stops at end of input.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume '/'
			l.readChar() // consume '*'
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume '*'
					l.readChar() // consume '/'
					break
				}
				l.readChar()
			}
		default:
			return
		}
	}
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads an unsigned integer literal. Negative numbers come from
// the unary minus operator in the grammar, not from the lexer.
func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a string literal delimited by matching '"' or '\''.
// A tripled quote opens a multi-line string terminated by the same tripled
// quote; its text keeps embedded newlines verbatim.
func (l *Lexer) readString() (string, *errors.SpellError) {
	quote := l.ch
	startLine := l.line
	startColumn := l.column

	if l.peekChar() == quote && l.peekCharN(2) == quote {
		return l.readTripleString(quote, startLine, startColumn)
	}

	l.readChar() // consume opening quote

	var out []byte
	for l.ch != quote {
		if l.ch == 0 || l.ch == '\n' {
			return "", errors.NewWithPosition("LEX-0002", startLine, startColumn, nil)
		}
		if l.ch == '\\' {
			l.readChar()
			if l.ch == 0 {
				return "", errors.NewWithPosition("LEX-0002", startLine, startColumn, nil)
			}
			out = append(out, unescape(l.ch))
		} else {
			out = append(out, l.ch)
		}
		l.readChar()
	}
	l.readChar() // consume closing quote

	return string(out), nil
}

// readTripleString reads a triple-quoted string spanning multiple lines.
func (l *Lexer) readTripleString(quote byte, startLine, startColumn int) (string, *errors.SpellError) {
	l.readChar() // consume first quote
	l.readChar() // consume second quote
	l.readChar() // consume third quote

	var out []byte
	for {
		if l.ch == 0 {
			return "", errors.NewWithPosition("LEX-0002", startLine, startColumn, nil)
		}
		if l.ch == quote && l.peekChar() == quote && l.peekCharN(2) == quote {
			l.readChar()
			l.readChar()
			l.readChar()
			return string(out), nil
		}
		if l.ch == '\\' {
			l.readChar()
			if l.ch == 0 {
				return "", errors.NewWithPosition("LEX-0002", startLine, startColumn, nil)
			}
			out = append(out, unescape(l.ch))
		} else {
			out = append(out, l.ch)
		}
		l.readChar()
	}
}

// unescape maps an escape character to its value. Unknown escapes keep the
// escaped character itself.
func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case '"':
		return '"'
	case '\'':
		return '\''
	case '\\':
		return '\\'
	default:
		return ch
	}
}
