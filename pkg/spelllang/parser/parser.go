// Package parser turns the lexer's token stream into an AST.
//
// Statement dispatch is keyword-driven; expressions use a precedence-climbing
// grammar. The first syntax error aborts the whole parse - there is no error
// recovery, so subsequent errors would be cascading noise anyway.
package parser

import (
	"fmt"
	"strconv"

	"github.com/sambeau/spelllang/pkg/spelllang/ast"
	serrors "github.com/sambeau/spelllang/pkg/spelllang/errors"
	"github.com/sambeau/spelllang/pkg/spelllang/lexer"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	EQUALS      // == !=
	LESSGREATER // < > <= >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x or !x
)

// precedences maps operator literals to their precedence
var precedences = map[string]int{
	"||": LOGIC_OR,
	"&&": LOGIC_AND,
	"==": EQUALS,
	"!=": EQUALS,
	"<":  LESSGREATER,
	">":  LESSGREATER,
	"<=": LESSGREATER,
	">=": LESSGREATER,
	"+":  SUM,
	"-":  SUM,
	"*":  PRODUCT,
	"/":  PRODUCT,
	"%":  PRODUCT,
}

// Parser represents the parser
type Parser struct {
	tokens []lexer.Token
	pos    int

	structuredErrors []*serrors.SpellError
}

// New creates a new parser instance over a token stream. The stream must be
// terminated by an EOF token, as produced by lexer.Tokenize.
func New(tokens []lexer.Token) *Parser {
	if len(tokens) == 0 {
		tokens = []lexer.Token{{Type: lexer.EOF}}
	}
	return &Parser{tokens: tokens}
}

// Errors returns parser errors as strings (convenience method for tests).
// Prefer StructuredErrors() for production code.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		if err.Line > 0 {
			result[i] = fmt.Sprintf("line %d, column %d: %s", err.Line, err.Column, err.Message)
		} else {
			result[i] = err.Message
		}
	}
	return result
}

// StructuredErrors returns parser errors as structured SpellError objects.
func (p *Parser) StructuredErrors() []*serrors.SpellError {
	return p.structuredErrors
}

// addError records a structured error from the catalog. Only the first error
// is kept.
func (p *Parser) addError(code string, tok lexer.Token, data map[string]any) {
	if len(p.structuredErrors) > 0 {
		return
	}
	p.structuredErrors = append(p.structuredErrors,
		serrors.NewWithPosition(code, tok.Line, tok.Column, data))
}

// failed reports whether the parse has already hit an error
func (p *Parser) failed() bool {
	return len(p.structuredErrors) > 0
}

// curToken returns the current token without consuming it
func (p *Parser) curToken() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.tokens[len(p.tokens)-1]
}

// peekToken returns the next token without consuming anything
func (p *Parser) peekToken() lexer.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

// advance consumes the current token and returns it
func (p *Parser) advance() lexer.Token {
	tok := p.curToken()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) curIs(t lexer.TokenType, literal string) bool {
	tok := p.curToken()
	if tok.Type != t {
		return false
	}
	return literal == "" || tok.Literal == literal
}

func (p *Parser) peekIs(t lexer.TokenType, literal string) bool {
	tok := p.peekToken()
	if tok.Type != t {
		return false
	}
	return literal == "" || tok.Literal == literal
}

// match consumes the current token if it has the given type and literal
func (p *Parser) match(t lexer.TokenType, literal string) bool {
	if p.curIs(t, literal) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of the given type and literal or records an error
func (p *Parser) expect(t lexer.TokenType, literal, expected string) lexer.Token {
	if p.curIs(t, literal) {
		return p.advance()
	}
	tok := p.curToken()
	got := tok.Literal
	if tok.Type == lexer.EOF {
		got = "end of input"
	}
	p.addError("PARSE-0001", tok, map[string]any{"Expected": expected, "Got": got})
	return tok
}

func (p *Parser) expectDelim(literal string) lexer.Token {
	return p.expect(lexer.DELIMITER, literal, "'"+literal+"'")
}

func (p *Parser) expectOperator(literal string) lexer.Token {
	return p.expect(lexer.OPERATOR, literal, "'"+literal+"'")
}

func (p *Parser) expectKeyword(literal string) lexer.Token {
	return p.expect(lexer.KEYWORD, literal, "'"+literal+"'")
}

func (p *Parser) expectIdent(expected string) *ast.Identifier {
	if p.curIs(lexer.IDENT, "") {
		tok := p.advance()
		return &ast.Identifier{Token: tok, Value: tok.Literal}
	}
	tok := p.curToken()
	got := tok.Literal
	if tok.Type == lexer.EOF {
		got = "end of input"
	}
	p.addError("PARSE-0001", tok, map[string]any{"Expected": expected, "Got": got})
	return &ast.Identifier{Token: tok, Value: tok.Literal}
}

// ParseProgram parses the program and returns the AST
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curIs(lexer.EOF, "") && !p.failed() {
		stmt := p.parseStatement()
		if p.failed() {
			break
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}

	return program
}

// parseStatement dispatches on the leading keyword
func (p *Parser) parseStatement() ast.Statement {
	tok := p.curToken()

	if tok.Type == lexer.KEYWORD {
		switch tok.Literal {
		case "Wand", "Cauldron", "SpellBooks":
			return p.parseVarStatement()
		case "Incantation":
			return p.parseFunctionStatement()
		case "Cast":
			return p.parseCastStatement()
		case "Illuminate":
			return p.parsePrintStatement()
		case "Ifar":
			return p.parseIfStatement()
		case "Loopus":
			return p.parseForStatement()
		case "Persistus":
			return p.parseWhileStatement()
		case "Forar":
			return p.parseForEachStatement()
		case "Protego":
			return p.parseTryStatement()
		case "Magical":
			return p.parseClassStatement()
		}
	}

	if tok.Type == lexer.IDENT {
		return p.parseAssignStatement()
	}

	got := tok.Literal
	if tok.Type == lexer.EOF {
		got = "end of input"
	}
	p.addError("PARSE-0002", tok, map[string]any{"Token": got})
	return nil
}

// parseVarStatement parses 'Wand x = expr' and its Cauldron/SpellBooks forms
func (p *Parser) parseVarStatement() ast.Statement {
	tok := p.advance()

	kind := ast.DeclScalar
	switch tok.Literal {
	case "Cauldron":
		kind = ast.DeclList
	case "SpellBooks":
		kind = ast.DeclMap
	}

	name := p.expectIdent("variable name")
	p.expectOperator("=")
	value := p.parseExpression(LOWEST)

	return &ast.VarStatement{Token: tok, Kind: kind, Name: name, Value: value}
}

// parseAssignStatement parses 'x = expr', 'xs[i] = expr' and
// 'obj.field = expr'. The left side is an identifier followed by any chain
// of index and member accesses; the final link decides the statement kind.
func (p *Parser) parseAssignStatement() ast.Statement {
	identTok := p.advance()
	var target ast.Expression = &ast.Identifier{Token: identTok, Value: identTok.Literal}

	for {
		switch {
		case p.curIs(lexer.DELIMITER, "["):
			lbracket := p.advance()
			index := p.parseExpression(LOWEST)
			p.expectDelim("]")
			target = &ast.IndexExpression{Token: lbracket, Left: target, Index: index}
		case p.curIs(lexer.DELIMITER, "."):
			dot := p.advance()
			field := p.expectIdent("field name")
			target = &ast.MemberExpression{Token: dot, Object: target, Field: field.Value}
		default:
			eq := p.expectOperator("=")
			value := p.parseExpression(LOWEST)

			switch t := target.(type) {
			case *ast.Identifier:
				return &ast.AssignStatement{Token: identTok, Name: t, Value: value}
			case *ast.IndexExpression:
				return &ast.IndexAssignStatement{Token: eq, Left: t.Left, Index: t.Index, Value: value}
			case *ast.MemberExpression:
				return &ast.MemberAssignStatement{Token: eq, Object: t.Object, Field: t.Field, Value: value}
			default:
				p.addError("PARSE-0002", identTok, map[string]any{"Token": identTok.Literal})
				return nil
			}
		}
		if p.failed() {
			return nil
		}
	}
}

// parseFunctionStatement parses 'Incantation name(params) { body }'
func (p *Parser) parseFunctionStatement() ast.Statement {
	tok := p.advance()
	name := p.expectIdent("function name")
	params := p.parseParameterList()
	body := p.parseBlock()

	return &ast.FunctionStatement{Token: tok, Name: name, Params: params, Body: body}
}

// parseParameterList parses '(a, b, c)' into identifiers
func (p *Parser) parseParameterList() []*ast.Identifier {
	p.expectDelim("(")

	params := []*ast.Identifier{}
	if p.match(lexer.DELIMITER, ")") {
		return params
	}

	params = append(params, p.expectIdent("parameter name"))
	for p.match(lexer.DELIMITER, ",") {
		params = append(params, p.expectIdent("parameter name"))
	}
	p.expectDelim(")")

	return params
}

// parseCastStatement parses 'Cast name(args)'
func (p *Parser) parseCastStatement() ast.Statement {
	tok := p.advance()
	var callee ast.Expression = p.expectIdent("function name")

	// The callee may be reached through '.field' and '[index]' links, as in
	// 'Cast harry.introduce()'
	for !p.failed() {
		if p.curIs(lexer.DELIMITER, ".") {
			dot := p.advance()
			field := p.expectIdent("method name")
			callee = &ast.MemberExpression{Token: dot, Object: callee, Field: field.Value}
			continue
		}
		if p.curIs(lexer.DELIMITER, "[") {
			lbracket := p.advance()
			index := p.parseExpression(LOWEST)
			p.expectDelim("]")
			callee = &ast.IndexExpression{Token: lbracket, Left: callee, Index: index}
			continue
		}
		break
	}

	lparen := p.expectDelim("(")
	args := p.parseArgumentList()

	call := &ast.CallExpression{
		Token:     lparen,
		Callee:    callee,
		Arguments: args,
	}
	return &ast.CastStatement{Token: tok, Call: call}
}

// parseArgumentList parses expressions up to and including the closing ')'
// (the opening '(' has already been consumed)
func (p *Parser) parseArgumentList() []ast.Expression {
	args := []ast.Expression{}
	if p.match(lexer.DELIMITER, ")") {
		return args
	}

	args = append(args, p.parseExpression(LOWEST))
	for p.match(lexer.DELIMITER, ",") {
		args = append(args, p.parseExpression(LOWEST))
	}
	p.expectDelim(")")

	return args
}

// parsePrintStatement parses 'Illuminate(expr)'
func (p *Parser) parsePrintStatement() ast.Statement {
	tok := p.advance()
	p.expectDelim("(")
	expr := p.parseExpression(LOWEST)
	p.expectDelim(")")

	return &ast.PrintStatement{Token: tok, Expression: expr}
}

// parseIfStatement parses 'Ifar cond { } [Elsear { }]'
func (p *Parser) parseIfStatement() ast.Statement {
	tok := p.advance()
	condition := p.parseExpression(LOWEST)
	consequence := p.parseBlock()

	var alternative []ast.Statement
	if p.match(lexer.KEYWORD, "Elsear") {
		alternative = p.parseBlock()
	}

	return &ast.IfStatement{
		Token:       tok,
		Condition:   condition,
		Consequence: consequence,
		Alternative: alternative,
	}
}

// parseWhileStatement parses 'Persistus cond { body }'
func (p *Parser) parseWhileStatement() ast.Statement {
	tok := p.advance()
	condition := p.parseExpression(LOWEST)
	body := p.parseBlock()

	return &ast.WhileStatement{Token: tok, Condition: condition, Body: body}
}

// parseForStatement parses 'Loopus init; cond; increment { body }'.
// Init is a declaration or an assignment; increment is an assignment.
func (p *Parser) parseForStatement() ast.Statement {
	tok := p.advance()

	init := p.parseSimpleStatement(true)
	p.expectDelim(";")
	condition := p.parseExpression(LOWEST)
	p.expectDelim(";")
	increment := p.parseSimpleStatement(false)
	body := p.parseBlock()

	return &ast.ForStatement{
		Token:     tok,
		Init:      init,
		Condition: condition,
		Increment: increment,
		Body:      body,
	}
}

// parseSimpleStatement parses the headers of a Loopus loop: a variable
// declaration (when allowDecl) or a plain assignment.
func (p *Parser) parseSimpleStatement(allowDecl bool) ast.Statement {
	tok := p.curToken()

	if allowDecl && tok.Type == lexer.KEYWORD {
		switch tok.Literal {
		case "Wand", "Cauldron", "SpellBooks":
			return p.parseVarStatement()
		}
	}

	if tok.Type == lexer.IDENT {
		return p.parseAssignStatement()
	}

	p.addError("PARSE-0007", tok, nil)
	return nil
}

// parseForEachStatement parses 'Forar k, v in mapExpr { body }'
func (p *Parser) parseForEachStatement() ast.Statement {
	tok := p.advance()
	key := p.expectIdent("loop variable")
	p.expectDelim(",")
	value := p.expectIdent("loop variable")
	p.expectKeyword("in")
	mapExpr := p.parseExpression(LOWEST)
	body := p.parseBlock()

	return &ast.ForEachStatement{Token: tok, Key: key, Value: value, Map: mapExpr, Body: body}
}

// parseTryStatement parses 'Protego { } Alohomora { }'
func (p *Parser) parseTryStatement() ast.Statement {
	tok := p.advance()
	tryBlock := p.parseBlock()

	if !p.curIs(lexer.KEYWORD, "Alohomora") {
		p.addError("PARSE-0003", p.curToken(), nil)
		return nil
	}
	p.advance()
	catchBlock := p.parseBlock()

	return &ast.TryStatement{Token: tok, TryBlock: tryBlock, CatchBlock: catchBlock}
}

// parseClassStatement parses
// 'Magical Creature Name(params) [Bloodline Parent] { body }'
func (p *Parser) parseClassStatement() ast.Statement {
	tok := p.advance()

	if !p.curIs(lexer.KEYWORD, "Creature") {
		p.addError("PARSE-0004", p.curToken(), nil)
		return nil
	}
	p.advance()

	name := p.expectIdent("class name")
	params := p.parseParameterList()

	var parent *ast.Identifier
	if p.match(lexer.KEYWORD, "Bloodline") {
		parent = p.expectIdent("parent class name")
	}

	body := p.parseBlock()

	return &ast.ClassStatement{Token: tok, Name: name, Params: params, Parent: parent, Body: body}
}

// parseBlock parses '{ stmt* }'
func (p *Parser) parseBlock() []ast.Statement {
	p.expectDelim("{")

	statements := []ast.Statement{}
	for !p.curIs(lexer.DELIMITER, "}") && !p.curIs(lexer.EOF, "") && !p.failed() {
		stmt := p.parseStatement()
		if p.failed() {
			return statements
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}
	p.expectDelim("}")

	return statements
}

// parseExpression implements precedence climbing over the operator table
func (p *Parser) parseExpression(precedence int) ast.Expression {
	left := p.parseUnary()

	for !p.failed() {
		tok := p.curToken()
		if tok.Type != lexer.OPERATOR {
			break
		}
		opPrec, ok := precedences[tok.Literal]
		if !ok || opPrec <= precedence {
			break
		}

		p.advance()
		right := p.parseExpression(opPrec)
		left = &ast.InfixExpression{Token: tok, Left: left, Operator: tok.Literal, Right: right}
	}

	return left
}

// parseUnary parses '!expr' and '-expr'
func (p *Parser) parseUnary() ast.Expression {
	if p.curIs(lexer.OPERATOR, "!") || p.curIs(lexer.OPERATOR, "-") {
		tok := p.advance()
		operand := p.parseUnary()
		return &ast.PrefixExpression{Token: tok, Operator: tok.Literal, Right: operand}
	}
	return p.parsePrimary()
}

// parsePrimary parses atoms and their call/index/member postfix chains
func (p *Parser) parsePrimary() ast.Expression {
	tok := p.curToken()

	var expr ast.Expression

	switch {
	case tok.Type == lexer.NUMBER:
		p.advance()
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.addError("PARSE-0006", tok, map[string]any{"Literal": tok.Literal})
			return nil
		}
		expr = &ast.NumberLiteral{Token: tok, Value: value}

	case tok.Type == lexer.STRING:
		p.advance()
		expr = &ast.StringLiteral{Token: tok, Value: tok.Literal}

	case tok.Type == lexer.IDENT:
		p.advance()
		expr = &ast.Identifier{Token: tok, Value: tok.Literal}

	// The builtins are keyword-tagged but call like ordinary functions
	case tok.Type == lexer.KEYWORD && (tok.Literal == "len" || tok.Literal == "str" || tok.Literal == "int"):
		p.advance()
		expr = &ast.Identifier{Token: tok, Value: tok.Literal}

	case p.curIs(lexer.DELIMITER, "("):
		p.advance()
		expr = p.parseExpression(LOWEST)
		p.expectDelim(")")

	case p.curIs(lexer.DELIMITER, "["):
		expr = p.parseListLiteral()

	case p.curIs(lexer.DELIMITER, "{"):
		expr = p.parseMapLiteral()

	default:
		got := tok.Literal
		if tok.Type == lexer.EOF {
			got = "end of input"
		}
		p.addError("PARSE-0002", tok, map[string]any{"Token": got})
		return nil
	}

	return p.parsePostfix(expr)
}

// parsePostfix parses any chain of '(args)', '[index]' and '.field'
func (p *Parser) parsePostfix(expr ast.Expression) ast.Expression {
	for !p.failed() {
		switch {
		case p.curIs(lexer.DELIMITER, "("):
			lparen := p.advance()
			args := p.parseArgumentList()
			expr = &ast.CallExpression{Token: lparen, Callee: expr, Arguments: args}
		case p.curIs(lexer.DELIMITER, "["):
			lbracket := p.advance()
			index := p.parseExpression(LOWEST)
			p.expectDelim("]")
			expr = &ast.IndexExpression{Token: lbracket, Left: expr, Index: index}
		case p.curIs(lexer.DELIMITER, "."):
			dot := p.advance()
			field := p.expectIdent("field name")
			expr = &ast.MemberExpression{Token: dot, Object: expr, Field: field.Value}
		default:
			return expr
		}
	}
	return expr
}

// parseListLiteral parses '[e1, e2, ...]'
func (p *Parser) parseListLiteral() ast.Expression {
	tok := p.advance() // consume '['

	elements := []ast.Expression{}
	if p.match(lexer.DELIMITER, "]") {
		return &ast.ListLiteral{Token: tok, Elements: elements}
	}

	elements = append(elements, p.parseExpression(LOWEST))
	for p.match(lexer.DELIMITER, ",") {
		elements = append(elements, p.parseExpression(LOWEST))
	}
	p.expectDelim("]")

	return &ast.ListLiteral{Token: tok, Elements: elements}
}

// parseMapLiteral parses '{ "key": value, ... }'. Keys must be string
// literals; insertion order is preserved for iteration.
func (p *Parser) parseMapLiteral() ast.Expression {
	tok := p.advance() // consume '{'

	ml := &ast.MapLiteral{
		Token: tok,
		Keys:  []string{},
		Pairs: map[string]ast.Expression{},
	}

	if p.match(lexer.DELIMITER, "}") {
		return ml
	}

	for {
		keyTok := p.curToken()
		if keyTok.Type != lexer.STRING {
			p.addError("PARSE-0005", keyTok, map[string]any{"Got": keyTok.Literal})
			return nil
		}
		p.advance()
		p.expectDelim(":")
		value := p.parseExpression(LOWEST)
		if p.failed() {
			return nil
		}

		if _, exists := ml.Pairs[keyTok.Literal]; !exists {
			ml.Keys = append(ml.Keys, keyTok.Literal)
		}
		ml.Pairs[keyTok.Literal] = value

		if !p.match(lexer.DELIMITER, ",") {
			break
		}
	}
	p.expectDelim("}")

	return ml
}
