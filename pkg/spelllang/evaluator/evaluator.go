// Package evaluator walks the AST and executes it against an environment
// chain rooted at one global scope per program run.
//
// Runtime failures are *Error objects that propagate up through Eval return
// values; a Protego block intercepts them, except for fatal errors, which
// always reach the top level.
package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sambeau/spelllang/pkg/spelllang/ast"
	serrors "github.com/sambeau/spelllang/pkg/spelllang/errors"
	"github.com/sambeau/spelllang/pkg/spelllang/lexer"
)

// ObjectType represents the type of objects in the language
type ObjectType string

const (
	NULL_OBJ     = "NULL"
	BOOLEAN_OBJ  = "BOOLEAN"
	INTEGER_OBJ  = "INTEGER"
	STRING_OBJ   = "STRING"
	LIST_OBJ     = "LIST"
	MAP_OBJ      = "MAP"
	FUNCTION_OBJ = "FUNCTION"
	BUILTIN_OBJ  = "BUILTIN"
	CLASS_OBJ    = "CLASS"
	INSTANCE_OBJ = "INSTANCE"
	ERROR_OBJ    = "ERROR"
)

// MaxCallDepth bounds user-level recursion. Hitting it is a fatal error that
// Protego cannot catch.
const MaxCallDepth = 5000

// Object represents all values in the language
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Null represents the absence of a value
type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

// Boolean represents boolean objects
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// Integer represents integer objects
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

// String represents string objects
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// List represents list objects. Bindings share the same *List, so index
// assignment through one binding is visible through every alias.
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	elements := make([]string, 0, len(l.Elements))
	for _, e := range l.Elements {
		elements = append(elements, renderElement(e))
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// Map represents map objects with string keys. Keys preserves insertion
// order for iteration and rendering.
type Map struct {
	Keys  []string
	Pairs map[string]Object
}

func (m *Map) Type() ObjectType { return MAP_OBJ }
func (m *Map) Inspect() string {
	pairs := make([]string, 0, len(m.Keys))
	for _, k := range m.Keys {
		pairs = append(pairs, "\""+k+"\": "+renderElement(m.Pairs[k]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Set stores a value under key, recording the key on first insertion
func (m *Map) Set(key string, val Object) {
	if _, exists := m.Pairs[key]; !exists {
		m.Keys = append(m.Keys, key)
	}
	m.Pairs[key] = val
}

// NewMap creates an empty map object
func NewMap() *Map {
	return &Map{Keys: []string{}, Pairs: map[string]Object{}}
}

// renderElement renders a value nested inside a list or map: strings are
// quoted, everything else renders as at top level
func renderElement(obj Object) string {
	if s, ok := obj.(*String); ok {
		return "\"" + s.Value + "\""
	}
	return obj.Inspect()
}

// Function represents user-defined function objects. Env is the environment
// captured at declaration time, not at call time.
type Function struct {
	Name   string
	Params []*ast.Identifier
	Body   []ast.Statement
	Env    *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	params := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, p.Value)
	}
	return "Incantation " + f.Name + "(" + strings.Join(params, ", ") + ")"
}

// Builtin represents built-in function objects
type Builtin struct {
	Name string
	Fn   func(tok lexer.Token, args ...Object) Object
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin " + b.Name }

// Class represents class objects. Methods holds the class's own methods
// only; resolution walks Parent links iteratively.
type Class struct {
	Name    string
	Params  []*ast.Identifier
	Init    []ast.Statement
	Methods map[string]*Function
	Parent  *Class
	Env     *Environment
}

func (c *Class) Type() ObjectType { return CLASS_OBJ }
func (c *Class) Inspect() string  { return "Magical Creature " + c.Name }

// Instance represents instances of classes. Fields is mutated in place by
// self-qualified assignment, so every alias of the instance sees updates.
type Instance struct {
	Class  *Class
	Fields map[string]Object
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string  { return "<" + i.Class.Name + " instance>" }

// Error represents runtime error objects with structured error information
type Error struct {
	Message string
	Line    int
	Column  int
	Class   serrors.ErrorClass
	Code    string
	Hints   []string
	Data    map[string]any
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "ERROR: " + e.Message
}

// ToSpellError converts this Error for structured reporting outside the
// evaluator
func (e *Error) ToSpellError() *serrors.SpellError {
	class := e.Class
	if class == "" {
		class = serrors.ClassType
	}
	return &serrors.SpellError{
		Class:   class,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
		Data:    e.Data,
	}
}

// Printer receives Illuminate output, one line per call
type Printer interface {
	PrintLine(text string)
}

// defaultStdoutPrinter writes Illuminate output to stdout
type defaultStdoutPrinter struct{}

func (p *defaultStdoutPrinter) PrintLine(text string) {
	fmt.Println(text)
}

// DefaultPrinter is the default stdout printer
var DefaultPrinter Printer = &defaultStdoutPrinter{}

// Environment represents a scope frame in the environment chain
type Environment struct {
	store     map[string]Object
	outer     *Environment
	Filename  string
	Printer   Printer
	callDepth *int
}

// NewEnvironment creates a new global environment
func NewEnvironment() *Environment {
	return &Environment{
		store:     make(map[string]Object),
		outer:     nil,
		Printer:   DefaultPrinter,
		callDepth: new(int),
	}
}

// NewEnclosedEnvironment creates a child environment. Filename, printer and
// the call-depth counter are shared with the outer environment.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := &Environment{
		store: make(map[string]Object),
		outer: outer,
	}
	if outer != nil {
		env.Filename = outer.Filename
		env.Printer = outer.Printer
		env.callDepth = outer.callDepth
	} else {
		env.Printer = DefaultPrinter
		env.callDepth = new(int)
	}
	return env
}

// Get retrieves a value, walking the chain outward
func (e *Environment) Get(name string) (Object, bool) {
	value, ok := e.store[name]
	if !ok && e.outer != nil {
		value, ok = e.outer.Get(name)
	}
	return value, ok
}

// Define creates a binding in the current frame, shadowing any outer
// binding of the same name
func (e *Environment) Define(name string, val Object) Object {
	e.store[name] = val
	return val
}

// Assign mutates the nearest existing binding found by walking the chain
// outward. Returns false when no binding exists.
func (e *Environment) Assign(name string, val Object) bool {
	if _, ok := e.store[name]; ok {
		e.store[name] = val
		return true
	}
	if e.outer != nil {
		return e.outer.Assign(name, val)
	}
	return false
}

// AllIdentifiers returns every name visible from this environment, used for
// did-you-mean hints
func (e *Environment) AllIdentifiers() []string {
	seen := make(map[string]bool)
	var names []string
	for env := e; env != nil; env = env.outer {
		for name := range env.store {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Global constants
var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBoolToBoolean(value bool) *Boolean {
	if value {
		return TRUE
	}
	return FALSE
}

// Run executes a program in a fresh global environment, writing Illuminate
// output through printer (stdout when nil). Returns nil on success, the
// uncaught runtime error otherwise.
func Run(program *ast.Program, filename string, printer Printer) *serrors.SpellError {
	env := NewEnvironment()
	env.Filename = filename
	if printer != nil {
		env.Printer = printer
	}

	result := Eval(program, env)
	if err, ok := result.(*Error); ok {
		serr := err.ToSpellError()
		serr.File = filename
		return serr
	}
	return nil
}

// Eval evaluates an AST node against an environment
func Eval(node ast.Node, env *Environment) Object {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return evalProgram(node.Statements, env)

	case *ast.VarStatement:
		val := Eval(node.Value, env)
		if isError(val) {
			return val
		}
		env.Define(node.Name.Value, val)
		return NULL

	case *ast.AssignStatement:
		return evalAssignStatement(node, env)

	case *ast.IndexAssignStatement:
		return evalIndexAssignStatement(node, env)

	case *ast.MemberAssignStatement:
		return evalMemberAssignStatement(node, env)

	case *ast.FunctionStatement:
		fn := &Function{
			Name:   node.Name.Value,
			Params: node.Params,
			Body:   node.Body,
			Env:    env,
		}
		env.Define(node.Name.Value, fn)
		return NULL

	case *ast.CastStatement:
		result := Eval(node.Call, env)
		if isError(result) {
			return result
		}
		return NULL

	case *ast.PrintStatement:
		val := Eval(node.Expression, env)
		if isError(val) {
			return val
		}
		env.Printer.PrintLine(val.Inspect())
		return NULL

	case *ast.IfStatement:
		return evalIfStatement(node, env)

	case *ast.WhileStatement:
		return evalWhileStatement(node, env)

	case *ast.ForStatement:
		return evalForStatement(node, env)

	case *ast.ForEachStatement:
		return evalForEachStatement(node, env)

	case *ast.TryStatement:
		return evalTryStatement(node, env)

	case *ast.ClassStatement:
		return evalClassStatement(node, env)

	// Expressions
	case *ast.NumberLiteral:
		return &Integer{Value: node.Value}

	case *ast.StringLiteral:
		return &String{Value: node.Value}

	case *ast.Identifier:
		return evalIdentifier(node, env)

	case *ast.ListLiteral:
		elements := make([]Object, 0, len(node.Elements))
		for _, e := range node.Elements {
			val := Eval(e, env)
			if isError(val) {
				return val
			}
			elements = append(elements, val)
		}
		return &List{Elements: elements}

	case *ast.MapLiteral:
		m := NewMap()
		for _, k := range node.Keys {
			val := Eval(node.Pairs[k], env)
			if isError(val) {
				return val
			}
			m.Set(k, val)
		}
		return m

	case *ast.PrefixExpression:
		return evalPrefixExpression(node, env)

	case *ast.InfixExpression:
		return evalInfixExpression(node, env)

	case *ast.IndexExpression:
		return evalIndexExpression(node, env)

	case *ast.MemberExpression:
		return evalMemberExpression(node, env)

	case *ast.CallExpression:
		return evalCallExpression(node, env)
	}

	return newError("unknown node type: %T", node)
}

// evalProgram executes top-level statements; the first error stops execution
func evalProgram(statements []ast.Statement, env *Environment) Object {
	for _, stmt := range statements {
		result := Eval(stmt, env)
		if isError(result) {
			return result
		}
	}
	return NULL
}

// evalStatements executes a block's statements against the given scope
func evalStatements(statements []ast.Statement, env *Environment) Object {
	for _, stmt := range statements {
		result := Eval(stmt, env)
		if isError(result) {
			return result
		}
	}
	return NULL
}

func evalAssignStatement(node *ast.AssignStatement, env *Environment) Object {
	val := Eval(node.Value, env)
	if isError(val) {
		return val
	}
	if !env.Assign(node.Name.Value, val) {
		err := newStructuredErrorWithPos("UNDEF-0004", node.Token,
			map[string]any{"Name": node.Name.Value})
		if match := serrors.FindClosestMatch(node.Name.Value, env.AllIdentifiers()); match != "" {
			err.Hints = append(err.Hints, "Did you mean `"+match+"`?")
		}
		return err
	}
	return NULL
}

func evalIndexAssignStatement(node *ast.IndexAssignStatement, env *Environment) Object {
	target := Eval(node.Left, env)
	if isError(target) {
		return target
	}
	index := Eval(node.Index, env)
	if isError(index) {
		return index
	}
	val := Eval(node.Value, env)
	if isError(val) {
		return val
	}

	switch target := target.(type) {
	case *List:
		idx, ok := index.(*Integer)
		if !ok {
			return newStructuredErrorWithPos("TYPE-0005", node.Token,
				map[string]any{"Got": LIST_OBJ, "IndexType": string(index.Type())})
		}
		if idx.Value < 0 || idx.Value >= int64(len(target.Elements)) {
			return newStructuredErrorWithPos("INDEX-0001", node.Token,
				map[string]any{"Index": idx.Value, "Length": len(target.Elements)})
		}
		target.Elements[idx.Value] = val
		return NULL

	case *Map:
		key, ok := index.(*String)
		if !ok {
			return newStructuredErrorWithPos("TYPE-0005", node.Token,
				map[string]any{"Got": MAP_OBJ, "IndexType": string(index.Type())})
		}
		target.Set(key.Value, val)
		return NULL

	default:
		return newStructuredErrorWithPos("TYPE-0005", node.Token,
			map[string]any{"Got": string(target.Type()), "IndexType": string(index.Type())})
	}
}

func evalIdentifier(node *ast.Identifier, env *Environment) Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	if builtin, ok := builtins[node.Value]; ok {
		return builtin
	}
	return newUndefinedIdentifierError(node, env)
}

// newUndefinedIdentifierError builds an undefined-identifier error with
// did-you-mean hints drawn from the visible scope chain
func newUndefinedIdentifierError(node *ast.Identifier, env *Environment) *Error {
	available := append(env.AllIdentifiers(), serrors.SpellKeywords...)
	perr := serrors.NewUndefinedIdentifier(node.Value, available)
	return &Error{
		Message: perr.Message,
		Line:    node.Token.Line,
		Column:  node.Token.Column,
		Class:   perr.Class,
		Code:    perr.Code,
		Hints:   perr.Hints,
		Data:    perr.Data,
	}
}

func evalIfStatement(node *ast.IfStatement, env *Environment) Object {
	condition := Eval(node.Condition, env)
	if isError(condition) {
		return condition
	}

	cond, ok := condition.(*Boolean)
	if !ok {
		return newConditionTypeError(node.Condition, condition)
	}

	if cond.Value {
		return evalStatements(node.Consequence, NewEnclosedEnvironment(env))
	}
	if node.Alternative != nil {
		return evalStatements(node.Alternative, NewEnclosedEnvironment(env))
	}
	return NULL
}

func evalWhileStatement(node *ast.WhileStatement, env *Environment) Object {
	for {
		condition := Eval(node.Condition, env)
		if isError(condition) {
			return condition
		}
		cond, ok := condition.(*Boolean)
		if !ok {
			return newConditionTypeError(node.Condition, condition)
		}
		if !cond.Value {
			return NULL
		}

		// Fresh scope per iteration so body declarations do not leak
		result := evalStatements(node.Body, NewEnclosedEnvironment(env))
		if isError(result) {
			return result
		}
	}
}

func evalForStatement(node *ast.ForStatement, env *Environment) Object {
	// Init, condition and increment share the loop-level scope; the body
	// still gets a fresh child scope per iteration
	loopEnv := NewEnclosedEnvironment(env)

	if result := Eval(node.Init, loopEnv); isError(result) {
		return result
	}

	for {
		condition := Eval(node.Condition, loopEnv)
		if isError(condition) {
			return condition
		}
		cond, ok := condition.(*Boolean)
		if !ok {
			return newConditionTypeError(node.Condition, condition)
		}
		if !cond.Value {
			return NULL
		}

		result := evalStatements(node.Body, NewEnclosedEnvironment(loopEnv))
		if isError(result) {
			return result
		}

		if result := Eval(node.Increment, loopEnv); isError(result) {
			return result
		}
	}
}

func evalForEachStatement(node *ast.ForEachStatement, env *Environment) Object {
	target := Eval(node.Map, env)
	if isError(target) {
		return target
	}

	m, ok := target.(*Map)
	if !ok {
		return newStructuredErrorWithPos("TYPE-0006", node.Token,
			map[string]any{"Got": string(target.Type())})
	}

	// Snapshot the key order so body mutations cannot disturb the walk
	keys := make([]string, len(m.Keys))
	copy(keys, m.Keys)

	for _, key := range keys {
		val, exists := m.Pairs[key]
		if !exists {
			continue
		}
		iterEnv := NewEnclosedEnvironment(env)
		iterEnv.Define(node.Key.Value, &String{Value: key})
		iterEnv.Define(node.Value.Value, val)

		result := evalStatements(node.Body, iterEnv)
		if isError(result) {
			return result
		}
	}
	return NULL
}

func evalTryStatement(node *ast.TryStatement, env *Environment) Object {
	result := evalStatements(node.TryBlock, NewEnclosedEnvironment(env))

	err, failed := result.(*Error)
	if !failed {
		return NULL
	}
	// Stack exhaustion is not recoverable
	if err.Class == serrors.ClassFatal {
		return err
	}

	catchEnv := NewEnclosedEnvironment(env)
	catchEnv.Define("error", &String{Value: err.Message})

	// Errors raised inside the catch block propagate to the caller
	return evalStatements(node.CatchBlock, catchEnv)
}

// newConditionTypeError reports a non-Bool control-flow condition
func newConditionTypeError(cond ast.Expression, got Object) *Error {
	line, column := cond.Pos()
	return newStructuredErrorWithPos("TYPE-0004",
		lexer.Token{Line: line, Column: column},
		map[string]any{"Got": string(got.Type())})
}

// applyFunction invokes a user function. The call environment parents at the
// function's captured closure environment, never the caller's.
func applyFunction(fn *Function, args []Object, tok lexer.Token, env *Environment) Object {
	if len(args) != len(fn.Params) {
		return newStructuredErrorWithPos("ARITY-0001", tok, map[string]any{
			"Function": fn.Name,
			"Got":      len(args),
			"Want":     len(fn.Params),
		})
	}

	*env.callDepth++
	if *env.callDepth > MaxCallDepth {
		*env.callDepth--
		return newStructuredErrorWithPos("FATAL-0001", tok,
			map[string]any{"Depth": MaxCallDepth})
	}
	defer func() { *env.callDepth-- }()

	callEnv := NewEnclosedEnvironment(fn.Env)
	callEnv.callDepth = env.callDepth
	callEnv.Printer = env.Printer
	for i, param := range fn.Params {
		callEnv.Define(param.Value, args[i])
	}

	result := evalStatements(fn.Body, callEnv)
	if isError(result) {
		return result
	}
	// User functions have no return statement and always yield null
	return NULL
}

func evalCallExpression(node *ast.CallExpression, env *Environment) Object {
	// Method calls resolve through the instance's class chain
	if member, ok := node.Callee.(*ast.MemberExpression); ok {
		return evalMethodCall(member, node, env)
	}

	callee := Eval(node.Callee, env)
	if isError(callee) {
		return callee
	}

	args := make([]Object, 0, len(node.Arguments))
	for _, a := range node.Arguments {
		val := Eval(a, env)
		if isError(val) {
			return val
		}
		args = append(args, val)
	}

	switch callee := callee.(type) {
	case *Function:
		return applyFunction(callee, args, node.Token, env)
	case *Builtin:
		return callee.Fn(node.Token, args...)
	case *Class:
		return instantiateClass(callee, args, node.Token, env)
	default:
		return newStructuredErrorWithPos("TYPE-0003", node.Token,
			map[string]any{"Got": string(callee.Type())})
	}
}

// Error helpers

func newError(format string, a ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, a...), Class: serrors.ClassType}
}

// newStructuredError creates a structured error from the catalog
func newStructuredError(code string, data map[string]any) *Error {
	perr := serrors.New(code, data)
	return &Error{
		Class:   perr.Class,
		Code:    perr.Code,
		Message: perr.Message,
		Hints:   perr.Hints,
		Data:    perr.Data,
	}
}

// newStructuredErrorWithPos creates a structured error with position
// information
func newStructuredErrorWithPos(code string, tok lexer.Token, data map[string]any) *Error {
	perr := serrors.New(code, data)
	return &Error{
		Class:   perr.Class,
		Code:    perr.Code,
		Message: perr.Message,
		Hints:   perr.Hints,
		Line:    tok.Line,
		Column:  tok.Column,
		Data:    perr.Data,
	}
}

func isError(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ
	}
	return false
}
