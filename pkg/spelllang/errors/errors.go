// Package errors provides structured error types for the SpellLang language.
//
// This package defines SpellError, a unified error type that can represent
// lexer, parser and runtime errors with rich metadata for display and
// programmatic handling.
package errors

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassLex        ErrorClass = "lex"        // Lexer errors
	ClassParse      ErrorClass = "parse"      // Parser/syntax errors
	ClassType       ErrorClass = "type"       // Type mismatches
	ClassArity      ErrorClass = "arity"      // Wrong argument count
	ClassUndefined  ErrorClass = "undefined"  // Not found/defined
	ClassIndex      ErrorClass = "index"      // Out of bounds
	ClassKey        ErrorClass = "key"        // Missing map key
	ClassOperator   ErrorClass = "operator"   // Invalid operations
	ClassConversion ErrorClass = "conversion" // Failed value conversion
	ClassFatal      ErrorClass = "fatal"      // Unrecoverable (stack exhaustion)
)

// SpellError represents any error from lexing, parsing or evaluation.
type SpellError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "TYPE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`  // File path (if known)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *SpellError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *SpellError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *SpellError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassLex:
		sb.WriteString("Lex error")
	case ClassParse:
		sb.WriteString("Parse error")
	case ClassFatal:
		sb.WriteString("Fatal error")
	default:
		sb.WriteString("Runtime error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// WithFile returns a copy of the error with the file path set.
func (e *SpellError) WithFile(file string) *SpellError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *SpellError) WithPosition(line, column int) *SpellError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsParseError returns true if this is a lexer or parser error.
func (e *SpellError) IsParseError() bool {
	return e.Class == ClassParse || e.Class == ClassLex
}

// IsFatal returns true if this error cannot be caught by Protego/Alohomora.
func (e *SpellError) IsFatal() bool {
	return e.Class == ClassFatal
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lex errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLex,
		Template: "unknown character '{{.Char}}'",
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "unterminated string",
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected token '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "Protego block requires an Alohomora clause",
		Hints:    []string{"Protego { ... } Alohomora { ... }"},
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "Magical must be followed by Creature",
		Hints:    []string{"Magical Creature Name(params) { ... }"},
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "map keys must be string literals, got '{{.Got}}'",
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "invalid number literal: {{.Literal}}",
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "Loopus header must be 'init; condition; increment'",
		Hints:    []string{"Loopus Wand i = 0; i < 10; i = i + 1 { ... }"},
	},

	// ========================================
	// Type errors (TYPE-0xxx)
	// ========================================
	"TYPE-0001": {
		Class:    ClassType,
		Template: "{{.Function}} expected {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "argument to `{{.Function}}` not supported, got {{.Got}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "cannot call {{.Got}} as a function",
	},
	"TYPE-0004": {
		Class:    ClassType,
		Template: "condition must be a boolean, got {{.Got}}",
	},
	"TYPE-0005": {
		Class:    ClassType,
		Template: "cannot index {{.Got}} with {{.IndexType}}",
	},
	"TYPE-0006": {
		Class:    ClassType,
		Template: "Forar expects a map, got {{.Got}}",
	},
	"TYPE-0007": {
		Class:    ClassType,
		Template: "{{.Type}} has no fields or methods",
	},

	// ========================================
	// Arity errors (ARITY-0xxx)
	// ========================================
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "wrong number of arguments to `{{.Function}}`. got={{.Got}}, want={{.Want}}",
	},

	// ========================================
	// Undefined errors (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "identifier not found: {{.Name}}",
		// Hint "Did you mean `X`?" added dynamically by fuzzy matching
	},
	"UNDEF-0002": {
		Class:    ClassUndefined,
		Template: "undefined method '{{.Method}}' for {{.Class}}",
	},
	"UNDEF-0003": {
		Class:    ClassUndefined,
		Template: "unknown parent class: {{.Name}}",
	},
	"UNDEF-0004": {
		Class:    ClassUndefined,
		Template: "assignment to undefined variable '{{.Name}}'",
		Hints:    []string{"Wand {{.Name}} = ... declares a new variable"},
	},
	"UNDEF-0005": {
		Class:    ClassUndefined,
		Template: "unknown field '{{.Field}}' on {{.Class}}",
	},

	// ========================================
	// Index errors (INDEX-0xxx)
	// ========================================
	"INDEX-0001": {
		Class:    ClassIndex,
		Template: "index {{.Index}} out of range (length {{.Length}})",
	},

	// ========================================
	// Key errors (KEY-0xxx)
	// ========================================
	"KEY-0001": {
		Class:    ClassKey,
		Template: "key '{{.Key}}' not found in map",
	},

	// ========================================
	// Operator errors (OP-0xxx)
	// ========================================
	"OP-0001": {
		Class:    ClassOperator,
		Template: "unknown operator: {{.LeftType}} {{.Operator}} {{.RightType}}",
	},
	"OP-0002": {
		Class:    ClassOperator,
		Template: "division by zero",
	},
	"OP-0003": {
		Class:    ClassOperator,
		Template: "cannot compare {{.LeftType}} and {{.RightType}}",
	},
	"OP-0004": {
		Class:    ClassOperator,
		Template: "unknown operator: {{.Operator}}{{.Type}}",
	},

	// ========================================
	// Conversion errors (CONV-0xxx)
	// ========================================
	"CONV-0001": {
		Class:    ClassConversion,
		Template: "cannot convert '{{.Value}}' to an integer",
	},

	// ========================================
	// Fatal errors (FATAL-0xxx)
	// ========================================
	"FATAL-0001": {
		Class:    ClassFatal,
		Template: "call stack exhausted (depth {{.Depth}})",
	},
}

// New creates a SpellError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *SpellError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &SpellError{
			Class:   ClassType,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &SpellError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a SpellError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *SpellError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *SpellError {
	return &SpellError{
		Class:   class,
		Message: message,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// FuzzyMatch represents a fuzzy match result with its distance.
type FuzzyMatch struct {
	Value    string
	Distance int
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns the best match if the distance is within the threshold, otherwise
// empty string. The threshold is calculated from the length of the input.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	var bestMatch string
	bestDistance := -1

	for _, candidate := range candidates {
		candidateLower := strings.ToLower(candidate)

		dist := levenshteinDistance(inputLower, candidateLower)

		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate // Return original case
		}
	}

	// Short words (1-3): max 1 edit
	// Medium words (4-6): max 2 edits
	// Longer words (7+): max 3 edits
	threshold := 1
	if len(input) >= 4 && len(input) <= 6 {
		threshold = 2
	} else if len(input) >= 7 {
		threshold = 3
	}

	// Don't suggest if distance is 0 (exact match) or over threshold
	if bestDistance <= 0 || bestDistance > threshold {
		return ""
	}

	return bestMatch
}

// FindTopMatches returns the top N closest matches to the input.
func FindTopMatches(input string, candidates []string, n int) []string {
	if len(input) == 0 || len(candidates) == 0 || n <= 0 {
		return nil
	}

	inputLower := strings.ToLower(input)

	var matches []FuzzyMatch
	for _, candidate := range candidates {
		candidateLower := strings.ToLower(candidate)
		dist := levenshteinDistance(inputLower, candidateLower)
		if dist > 0 {
			matches = append(matches, FuzzyMatch{Value: candidate, Distance: dist})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	threshold := 1
	if len(input) >= 4 && len(input) <= 6 {
		threshold = 2
	} else if len(input) >= 7 {
		threshold = 3
	}

	var result []string
	for i := 0; i < len(matches) && i < n; i++ {
		if matches[i].Distance <= threshold {
			result = append(result, matches[i].Value)
		}
	}

	return result
}

// NewUndefinedIdentifier creates an undefined identifier error with optional
// fuzzy matching.
func NewUndefinedIdentifier(name string, availableIdentifiers []string) *SpellError {
	data := map[string]any{"Name": name}
	err := New("UNDEF-0001", data)

	if suggestion := FindClosestMatch(name, availableIdentifiers); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}

// NewUndefinedMethod creates an undefined method error with optional fuzzy
// matching.
func NewUndefinedMethod(method, className string, availableMethods []string) *SpellError {
	data := map[string]any{
		"Method": method,
		"Class":  className,
	}
	err := New("UNDEF-0002", data)

	if suggestion := FindClosestMatch(method, availableMethods); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}

// SpellKeywords lists the reserved keywords, used for fuzzy matching against
// typos.
var SpellKeywords = []string{
	"Wand", "Cauldron", "SpellBooks", "Incantation", "Cast", "Illuminate",
	"Ifar", "Elsear", "Loopus", "Persistus", "Forar", "Protego", "Alohomora",
	"Magical", "Creature", "Bloodline", "in", "len", "str", "int",
}
