// Package ast defines the abstract syntax tree produced by the parser.
//
// Nodes are created once during parsing and are immutable for the remainder
// of execution. Function and class values reference (do not copy) the AST
// subtrees they need, so a declaration's body can outlive the statement that
// produced it.
package ast

import (
	"bytes"
	"strings"

	"github.com/sambeau/spelllang/pkg/spelllang/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
	Pos() (line, column int)
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Program represents the root node of every AST
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer

	for _, s := range p.Statements {
		out.WriteString(s.String())
	}

	return out.String()
}

func (p *Program) Pos() (int, int) {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return 0, 0
}

// DeclKind distinguishes the three declaration keywords
type DeclKind int

const (
	DeclScalar DeclKind = iota // Wand
	DeclList                   // Cauldron
	DeclMap                    // SpellBooks
)

func (k DeclKind) String() string {
	switch k {
	case DeclList:
		return "Cauldron"
	case DeclMap:
		return "SpellBooks"
	default:
		return "Wand"
	}
}

// VarStatement represents declarations like 'Wand x = 5',
// 'Cauldron xs = [1, 2]' or 'SpellBooks ages = {"Harry": 17}'
type VarStatement struct {
	Token lexer.Token // the declaration keyword token
	Kind  DeclKind
	Name  *Identifier
	Value Expression
}

func (vs *VarStatement) statementNode()       {}
func (vs *VarStatement) TokenLiteral() string { return vs.Token.Literal }
func (vs *VarStatement) Pos() (int, int)      { return vs.Token.Line, vs.Token.Column }
func (vs *VarStatement) String() string {
	var out bytes.Buffer
	out.WriteString(vs.TokenLiteral() + " ")
	out.WriteString(vs.Name.String())
	out.WriteString(" = ")
	if vs.Value != nil {
		out.WriteString(vs.Value.String())
	}
	return out.String()
}

// AssignStatement represents assignments like 'x = 5'. Assignment mutates
// the nearest existing binding found by walking the scope chain outward.
type AssignStatement struct {
	Token lexer.Token // the identifier token
	Name  *Identifier
	Value Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) Pos() (int, int)      { return as.Token.Line, as.Token.Column }
func (as *AssignStatement) String() string {
	var out bytes.Buffer
	out.WriteString(as.Name.String())
	out.WriteString(" = ")
	if as.Value != nil {
		out.WriteString(as.Value.String())
	}
	return out.String()
}

// IndexAssignStatement represents assignment through an index like
// 'xs[0] = 5' or 'ages["Harry"] = 18'. The container is mutated in place,
// so the change is visible through every alias of the same list or map.
type IndexAssignStatement struct {
	Token lexer.Token // the '=' token
	Left  Expression  // target container expression
	Index Expression
	Value Expression
}

func (ias *IndexAssignStatement) statementNode()       {}
func (ias *IndexAssignStatement) TokenLiteral() string { return ias.Token.Literal }
func (ias *IndexAssignStatement) Pos() (int, int)      { return ias.Token.Line, ias.Token.Column }
func (ias *IndexAssignStatement) String() string {
	var out bytes.Buffer
	out.WriteString(ias.Left.String())
	out.WriteString("[")
	out.WriteString(ias.Index.String())
	out.WriteString("] = ")
	if ias.Value != nil {
		out.WriteString(ias.Value.String())
	}
	return out.String()
}

// MemberAssignStatement represents assignment to a field like
// 'self.name = n'. Inside a constructor this is what creates an instance
// field; a plain declaration stays a constructor-local temporary.
type MemberAssignStatement struct {
	Token  lexer.Token // the '=' token
	Object Expression
	Field  string
	Value  Expression
}

func (mas *MemberAssignStatement) statementNode()       {}
func (mas *MemberAssignStatement) TokenLiteral() string { return mas.Token.Literal }
func (mas *MemberAssignStatement) Pos() (int, int)      { return mas.Token.Line, mas.Token.Column }
func (mas *MemberAssignStatement) String() string {
	var out bytes.Buffer
	out.WriteString(mas.Object.String())
	out.WriteString(".")
	out.WriteString(mas.Field)
	out.WriteString(" = ")
	if mas.Value != nil {
		out.WriteString(mas.Value.String())
	}
	return out.String()
}

// FunctionStatement represents 'Incantation name(params) { body }'
type FunctionStatement struct {
	Token  lexer.Token // the 'Incantation' token
	Name   *Identifier
	Params []*Identifier
	Body   []Statement
}

func (fs *FunctionStatement) statementNode()       {}
func (fs *FunctionStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *FunctionStatement) Pos() (int, int)      { return fs.Token.Line, fs.Token.Column }
func (fs *FunctionStatement) String() string {
	var out bytes.Buffer
	params := make([]string, 0, len(fs.Params))
	for _, p := range fs.Params {
		params = append(params, p.String())
	}
	out.WriteString("Incantation ")
	out.WriteString(fs.Name.String())
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") { ")
	for _, s := range fs.Body {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// CastStatement represents a top-level invocation like 'Cast greet("Harry")'
type CastStatement struct {
	Token lexer.Token // the 'Cast' token
	Call  *CallExpression
}

func (cs *CastStatement) statementNode()       {}
func (cs *CastStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *CastStatement) Pos() (int, int)      { return cs.Token.Line, cs.Token.Column }
func (cs *CastStatement) String() string {
	return "Cast " + cs.Call.String()
}

// PrintStatement represents 'Illuminate(expr)'
type PrintStatement struct {
	Token      lexer.Token // the 'Illuminate' token
	Expression Expression
}

func (ps *PrintStatement) statementNode()       {}
func (ps *PrintStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PrintStatement) Pos() (int, int)      { return ps.Token.Line, ps.Token.Column }
func (ps *PrintStatement) String() string {
	return "Illuminate(" + ps.Expression.String() + ")"
}

// IfStatement represents 'Ifar cond { } Elsear { }'. Alternative is nil when
// there is no Elsear clause.
type IfStatement struct {
	Token       lexer.Token // the 'Ifar' token
	Condition   Expression
	Consequence []Statement
	Alternative []Statement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Pos() (int, int)      { return is.Token.Line, is.Token.Column }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("Ifar ")
	out.WriteString(is.Condition.String())
	out.WriteString(" { ")
	for _, s := range is.Consequence {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	if is.Alternative != nil {
		out.WriteString(" Elsear { ")
		for _, s := range is.Alternative {
			out.WriteString(s.String())
			out.WriteString(" ")
		}
		out.WriteString("}")
	}
	return out.String()
}

// WhileStatement represents 'Persistus cond { body }'
type WhileStatement struct {
	Token     lexer.Token // the 'Persistus' token
	Condition Expression
	Body      []Statement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Pos() (int, int)      { return ws.Token.Line, ws.Token.Column }
func (ws *WhileStatement) String() string {
	var out bytes.Buffer
	out.WriteString("Persistus ")
	out.WriteString(ws.Condition.String())
	out.WriteString(" { ")
	for _, s := range ws.Body {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// ForStatement represents 'Loopus init; cond; increment { body }'.
// Init and Increment share the loop-level scope, so the induction variable
// persists across iterations; the body gets a fresh child scope each pass.
type ForStatement struct {
	Token     lexer.Token // the 'Loopus' token
	Init      Statement
	Condition Expression
	Increment Statement
	Body      []Statement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) Pos() (int, int)      { return fs.Token.Line, fs.Token.Column }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("Loopus ")
	out.WriteString(fs.Init.String())
	out.WriteString("; ")
	out.WriteString(fs.Condition.String())
	out.WriteString("; ")
	out.WriteString(fs.Increment.String())
	out.WriteString(" { ")
	for _, s := range fs.Body {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// ForEachStatement represents 'Forar k, v in mapExpr { body }', iterating a
// map's entries in insertion order.
type ForEachStatement struct {
	Token lexer.Token // the 'Forar' token
	Key   *Identifier
	Value *Identifier
	Map   Expression
	Body  []Statement
}

func (fes *ForEachStatement) statementNode()       {}
func (fes *ForEachStatement) TokenLiteral() string { return fes.Token.Literal }
func (fes *ForEachStatement) Pos() (int, int)      { return fes.Token.Line, fes.Token.Column }
func (fes *ForEachStatement) String() string {
	var out bytes.Buffer
	out.WriteString("Forar ")
	out.WriteString(fes.Key.String())
	out.WriteString(", ")
	out.WriteString(fes.Value.String())
	out.WriteString(" in ")
	out.WriteString(fes.Map.String())
	out.WriteString(" { ")
	for _, s := range fes.Body {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// ClassStatement represents
// 'Magical Creature Name(params) [Bloodline Parent] { body }'.
// Function declarations in the body become methods; everything else forms
// the constructor body, executed at instantiation time.
type ClassStatement struct {
	Token  lexer.Token // the 'Magical' token
	Name   *Identifier
	Params []*Identifier
	Parent *Identifier // nil when there is no Bloodline clause
	Body   []Statement
}

func (cs *ClassStatement) statementNode()       {}
func (cs *ClassStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ClassStatement) Pos() (int, int)      { return cs.Token.Line, cs.Token.Column }
func (cs *ClassStatement) String() string {
	var out bytes.Buffer
	params := make([]string, 0, len(cs.Params))
	for _, p := range cs.Params {
		params = append(params, p.String())
	}
	out.WriteString("Magical Creature ")
	out.WriteString(cs.Name.String())
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")")
	if cs.Parent != nil {
		out.WriteString(" Bloodline ")
		out.WriteString(cs.Parent.String())
	}
	out.WriteString(" { ")
	for _, s := range cs.Body {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// TryStatement represents 'Protego { try } Alohomora { catch }'. The catch
// clause is mandatory and binds the error message to the fixed name 'error'.
type TryStatement struct {
	Token      lexer.Token // the 'Protego' token
	TryBlock   []Statement
	CatchBlock []Statement
}

func (ts *TryStatement) statementNode()       {}
func (ts *TryStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TryStatement) Pos() (int, int)      { return ts.Token.Line, ts.Token.Column }
func (ts *TryStatement) String() string {
	var out bytes.Buffer
	out.WriteString("Protego { ")
	for _, s := range ts.TryBlock {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("} Alohomora { ")
	for _, s := range ts.CatchBlock {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// Identifier represents identifier expressions
type Identifier struct {
	Token lexer.Token // the lexer.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() (int, int)      { return i.Token.Line, i.Token.Column }
func (i *Identifier) String() string       { return i.Value }

// NumberLiteral represents integer literals
type NumberLiteral struct {
	Token lexer.Token
	Value int64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) Pos() (int, int)      { return nl.Token.Line, nl.Token.Column }
func (nl *NumberLiteral) String() string       { return nl.Token.Literal }

// StringLiteral represents string literals
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Pos() (int, int)      { return sl.Token.Line, sl.Token.Column }
func (sl *StringLiteral) String() string       { return "\"" + sl.Value + "\"" }

// ListLiteral represents list literals like '[1, 2, 3]'. Elements are
// arbitrary expressions evaluated into a genuine ordered sequence.
type ListLiteral struct {
	Token    lexer.Token // the '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) Pos() (int, int)      { return ll.Token.Line, ll.Token.Column }
func (ll *ListLiteral) String() string {
	elements := make([]string, 0, len(ll.Elements))
	for _, e := range ll.Elements {
		elements = append(elements, e.String())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// MapLiteral represents map literals like '{"Harry": 17}'. Keys are string
// literals; Keys preserves source order so iteration is deterministic.
type MapLiteral struct {
	Token lexer.Token // the '{' token
	Keys  []string
	Pairs map[string]Expression
}

func (ml *MapLiteral) expressionNode()      {}
func (ml *MapLiteral) TokenLiteral() string { return ml.Token.Literal }
func (ml *MapLiteral) Pos() (int, int)      { return ml.Token.Line, ml.Token.Column }
func (ml *MapLiteral) String() string {
	pairs := make([]string, 0, len(ml.Keys))
	for _, k := range ml.Keys {
		pairs = append(pairs, "\""+k+"\": "+ml.Pairs[k].String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// PrefixExpression represents unary expressions like '!ok' or '-x'
type PrefixExpression struct {
	Token    lexer.Token // the prefix operator token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Pos() (int, int)      { return pe.Token.Line, pe.Token.Column }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

// InfixExpression represents binary expressions like 'a + b'
type InfixExpression struct {
	Token    lexer.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Pos() (int, int)      { return ie.Token.Line, ie.Token.Column }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// CallExpression represents call expressions like 'greet("Harry")' or
// 'obj.method(x)'. Callee is an Identifier for plain calls and a
// MemberExpression for method calls.
type CallExpression struct {
	Token     lexer.Token // the '(' token
	Callee    Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Pos() (int, int)      { return ce.Token.Line, ce.Token.Column }
func (ce *CallExpression) String() string {
	args := make([]string, 0, len(ce.Arguments))
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	return ce.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// IndexExpression represents index expressions like 'xs[0]' or 'ages["Harry"]'
type IndexExpression struct {
	Token lexer.Token // the '[' token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Pos() (int, int)      { return ie.Token.Line, ie.Token.Column }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

// MemberExpression represents member access like 'self.name' or 'harry.house'
type MemberExpression struct {
	Token  lexer.Token // the '.' token
	Object Expression
	Field  string
}

func (me *MemberExpression) expressionNode()      {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MemberExpression) Pos() (int, int)      { return me.Token.Line, me.Token.Column }
func (me *MemberExpression) String() string {
	return "(" + me.Object.String() + "." + me.Field + ")"
}
