package parser

import (
	"testing"

	"github.com/sambeau/spelllang/pkg/spelllang/ast"
	"github.com/sambeau/spelllang/pkg/spelllang/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()

	tokens, lexErr := lexer.New(input).Tokenize()
	if lexErr != nil {
		t.Fatalf("lexer error: %s", lexErr.Message)
	}

	p := New(tokens)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("parser error: %s", errs[0])
	}
	return program
}

func parseError(t *testing.T, input string) string {
	t.Helper()

	tokens, lexErr := lexer.New(input).Tokenize()
	if lexErr != nil {
		t.Fatalf("lexer error: %s", lexErr.Message)
	}

	p := New(tokens)
	p.ParseProgram()
	errs := p.StructuredErrors()
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for %q, got none", input)
	}
	return errs[0].Code
}

func TestVarStatements(t *testing.T) {
	tests := []struct {
		input    string
		kind     ast.DeclKind
		name     string
		valueStr string
	}{
		{`Wand x = 5`, ast.DeclScalar, "x", "5"},
		{`Wand greeting = "hello"`, ast.DeclScalar, "greeting", `"hello"`},
		{`Cauldron xs = [1, 2, 3]`, ast.DeclList, "xs", "[1, 2, 3]"},
		{`SpellBooks ages = {"Harry": 17}`, ast.DeclMap, "ages", `{"Harry": 17}`},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("expected 1 statement, got %d", len(program.Statements))
		}

		stmt, ok := program.Statements[0].(*ast.VarStatement)
		if !ok {
			t.Fatalf("expected *ast.VarStatement, got %T", program.Statements[0])
		}
		if stmt.Kind != tt.kind {
			t.Errorf("wrong declaration kind. got=%s, want=%s", stmt.Kind, tt.kind)
		}
		if stmt.Name.Value != tt.name {
			t.Errorf("wrong name. got=%q, want=%q", stmt.Name.Value, tt.name)
		}
		if stmt.Value.String() != tt.valueStr {
			t.Errorf("wrong value. got=%q, want=%q", stmt.Value.String(), tt.valueStr)
		}
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`Wand x = 1 + 2 * 3`, "(1 + (2 * 3))"},
		{`Wand x = (1 + 2) * 3`, "((1 + 2) * 3)"},
		{`Wand x = 1 < 2 == 3 < 4`, "((1 < 2) == (3 < 4))"},
		{`Wand x = a && b || c`, "((a && b) || c)"},
		{`Wand x = !a && b`, "((!a) && b)"},
		{`Wand x = -1 + 2`, "((-1) + 2)"},
		{`Wand x = 10 % 3 - 1`, "((10 % 3) - 1)"},
		{`Wand x = a + b >= c`, "((a + b) >= c)"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt := program.Statements[0].(*ast.VarStatement)
		if got := stmt.Value.String(); got != tt.expected {
			t.Errorf("input %q: got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestAssignStatements(t *testing.T) {
	tests := []struct {
		input string
		kind  string
	}{
		{`x = 5`, "*ast.AssignStatement"},
		{`xs[0] = 5`, "*ast.IndexAssignStatement"},
		{`self.name = "Harry"`, "*ast.MemberAssignStatement"},
		{`self.pet.name = "Hedwig"`, "*ast.MemberAssignStatement"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("expected 1 statement, got %d", len(program.Statements))
		}
		got := ""
		switch program.Statements[0].(type) {
		case *ast.AssignStatement:
			got = "*ast.AssignStatement"
		case *ast.IndexAssignStatement:
			got = "*ast.IndexAssignStatement"
		case *ast.MemberAssignStatement:
			got = "*ast.MemberAssignStatement"
		}
		if got != tt.kind {
			t.Errorf("input %q: got %s, want %s", tt.input, got, tt.kind)
		}
	}
}

func TestFunctionStatement(t *testing.T) {
	input := `
Incantation greet(name, times) {
	Illuminate(name)
}
`
	program := parseProgram(t, input)
	stmt, ok := program.Statements[0].(*ast.FunctionStatement)
	if !ok {
		t.Fatalf("expected *ast.FunctionStatement, got %T", program.Statements[0])
	}
	if stmt.Name.Value != "greet" {
		t.Errorf("wrong name: %q", stmt.Name.Value)
	}
	if len(stmt.Params) != 2 || stmt.Params[0].Value != "name" || stmt.Params[1].Value != "times" {
		t.Errorf("wrong params: %v", stmt.Params)
	}
	if len(stmt.Body) != 1 {
		t.Errorf("wrong body length: %d", len(stmt.Body))
	}
}

func TestCastStatement(t *testing.T) {
	program := parseProgram(t, `Cast greet("Harry", 3)`)
	stmt, ok := program.Statements[0].(*ast.CastStatement)
	if !ok {
		t.Fatalf("expected *ast.CastStatement, got %T", program.Statements[0])
	}
	callee, ok := stmt.Call.Callee.(*ast.Identifier)
	if !ok || callee.Value != "greet" {
		t.Errorf("wrong callee: %v", stmt.Call.Callee)
	}
	if len(stmt.Call.Arguments) != 2 {
		t.Errorf("wrong argument count: %d", len(stmt.Call.Arguments))
	}
}

func TestCastMethodStatement(t *testing.T) {
	program := parseProgram(t, `Cast harry.introduce()`)
	stmt, ok := program.Statements[0].(*ast.CastStatement)
	if !ok {
		t.Fatalf("expected *ast.CastStatement, got %T", program.Statements[0])
	}
	callee, ok := stmt.Call.Callee.(*ast.MemberExpression)
	if !ok {
		t.Fatalf("expected *ast.MemberExpression callee, got %T", stmt.Call.Callee)
	}
	if callee.Field != "introduce" {
		t.Errorf("wrong method name: %q", callee.Field)
	}
	obj, ok := callee.Object.(*ast.Identifier)
	if !ok || obj.Value != "harry" {
		t.Errorf("wrong receiver: %v", callee.Object)
	}
}

func TestCastChainedCallees(t *testing.T) {
	tests := []struct {
		input  string
		callee string
	}{
		{`Cast wizards[0].greet("Ron")`, "((wizards[0]).greet)"},
		{`Cast school.head.introduce()`, "((school.head).introduce)"},
		{`Cast handlers[1]()`, "(handlers[1])"},
	}
	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt, ok := program.Statements[0].(*ast.CastStatement)
		if !ok {
			t.Fatalf("expected *ast.CastStatement, got %T", program.Statements[0])
		}
		if got := stmt.Call.Callee.String(); got != tt.callee {
			t.Errorf("%s: wrong callee, got %q want %q", tt.input, got, tt.callee)
		}
	}
}

func TestIfStatement(t *testing.T) {
	program := parseProgram(t, `
Ifar x > 5 {
	Illuminate("big")
} Elsear {
	Illuminate("small")
}
`)
	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected *ast.IfStatement, got %T", program.Statements[0])
	}
	if stmt.Condition.String() != "(x > 5)" {
		t.Errorf("wrong condition: %q", stmt.Condition.String())
	}
	if len(stmt.Consequence) != 1 || len(stmt.Alternative) != 1 {
		t.Errorf("wrong branch sizes: %d / %d", len(stmt.Consequence), len(stmt.Alternative))
	}
}

func TestIfWithoutElse(t *testing.T) {
	program := parseProgram(t, `Ifar x > 5 { Illuminate("big") }`)
	stmt := program.Statements[0].(*ast.IfStatement)
	if stmt.Alternative != nil {
		t.Errorf("expected nil alternative, got %v", stmt.Alternative)
	}
}

func TestForStatement(t *testing.T) {
	program := parseProgram(t, `
Loopus Wand i = 0; i < 10; i = i + 1 {
	Illuminate(i)
}
`)
	stmt, ok := program.Statements[0].(*ast.ForStatement)
	if !ok {
		t.Fatalf("expected *ast.ForStatement, got %T", program.Statements[0])
	}
	if _, ok := stmt.Init.(*ast.VarStatement); !ok {
		t.Errorf("expected declaration init, got %T", stmt.Init)
	}
	if stmt.Condition.String() != "(i < 10)" {
		t.Errorf("wrong condition: %q", stmt.Condition.String())
	}
	if _, ok := stmt.Increment.(*ast.AssignStatement); !ok {
		t.Errorf("expected assignment increment, got %T", stmt.Increment)
	}
}

func TestForEachStatement(t *testing.T) {
	program := parseProgram(t, `
Forar name, age in ages {
	Illuminate(name)
}
`)
	stmt, ok := program.Statements[0].(*ast.ForEachStatement)
	if !ok {
		t.Fatalf("expected *ast.ForEachStatement, got %T", program.Statements[0])
	}
	if stmt.Key.Value != "name" || stmt.Value.Value != "age" {
		t.Errorf("wrong loop variables: %q, %q", stmt.Key.Value, stmt.Value.Value)
	}
}

func TestTryStatement(t *testing.T) {
	program := parseProgram(t, `
Protego {
	Wand x = xs[99]
} Alohomora {
	Illuminate(error)
}
`)
	stmt, ok := program.Statements[0].(*ast.TryStatement)
	if !ok {
		t.Fatalf("expected *ast.TryStatement, got %T", program.Statements[0])
	}
	if len(stmt.TryBlock) != 1 || len(stmt.CatchBlock) != 1 {
		t.Errorf("wrong block sizes: %d / %d", len(stmt.TryBlock), len(stmt.CatchBlock))
	}
}

func TestClassStatement(t *testing.T) {
	program := parseProgram(t, `
Magical Creature Wizard(name) {
	self.name = name

	Incantation greet() {
		Illuminate(self.name)
	}
}
`)
	stmt, ok := program.Statements[0].(*ast.ClassStatement)
	if !ok {
		t.Fatalf("expected *ast.ClassStatement, got %T", program.Statements[0])
	}
	if stmt.Name.Value != "Wizard" {
		t.Errorf("wrong name: %q", stmt.Name.Value)
	}
	if stmt.Parent != nil {
		t.Errorf("expected no parent, got %q", stmt.Parent.Value)
	}
	if len(stmt.Body) != 2 {
		t.Errorf("wrong body length: %d", len(stmt.Body))
	}
}

func TestClassWithParent(t *testing.T) {
	program := parseProgram(t, `
Magical Creature Auror(name) Bloodline Wizard {
	self.rank = "Auror"
}
`)
	stmt := program.Statements[0].(*ast.ClassStatement)
	if stmt.Parent == nil || stmt.Parent.Value != "Wizard" {
		t.Errorf("wrong parent: %v", stmt.Parent)
	}
}

func TestCallIndexMemberChains(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`Wand x = xs[0]`, "(xs[0])"},
		{`Wand x = m["key"]`, `(m["key"])`},
		{`Wand x = grid[0][1]`, "((grid[0])[1])"},
		{`Wand x = obj.field`, "(obj.field)"},
		{`Wand x = obj.greet()`, "(obj.greet)()"},
		{`Wand x = len(xs)`, "len(xs)"},
		{`Wand x = str(42)`, "str(42)"},
		{`Wand x = int("42")`, `int("42")`},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		stmt := program.Statements[0].(*ast.VarStatement)
		if got := stmt.Value.String(); got != tt.expected {
			t.Errorf("input %q: got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		code  string
	}{
		{`Wand = 5`, "PARSE-0001"},
		{`Wand x 5`, "PARSE-0001"},
		{`Illuminate "hi"`, "PARSE-0001"},
		{`Protego { Illuminate("hi") }`, "PARSE-0003"},
		{`Magical Wizard(name) { }`, "PARSE-0004"},
		{`Wand m = {name: 1}`, "PARSE-0005"},
		{`Loopus 1; i < 10; i = i + 1 { }`, "PARSE-0007"},
		{`+ 5`, "PARSE-0002"},
	}

	for _, tt := range tests {
		if code := parseError(t, tt.input); code != tt.code {
			t.Errorf("input %q: got error code %s, want %s", tt.input, code, tt.code)
		}
	}
}

func TestFirstErrorOnly(t *testing.T) {
	tokens, lexErr := lexer.New(`Wand = 5
Wand = 6`).Tokenize()
	if lexErr != nil {
		t.Fatalf("lexer error: %s", lexErr.Message)
	}
	p := New(tokens)
	p.ParseProgram()
	if len(p.StructuredErrors()) != 1 {
		t.Fatalf("expected exactly 1 error, got %d", len(p.StructuredErrors()))
	}
}

func TestErrorPositions(t *testing.T) {
	tokens, _ := lexer.New(`Wand x = 5
Wand = 6`).Tokenize()
	p := New(tokens)
	p.ParseProgram()
	errs := p.StructuredErrors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Line != 2 {
		t.Errorf("wrong line: got %d, want 2", errs[0].Line)
	}
}
