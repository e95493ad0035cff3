package evaluator

import (
	"github.com/sambeau/spelllang/pkg/spelllang/ast"
	serrors "github.com/sambeau/spelllang/pkg/spelllang/errors"
	"github.com/sambeau/spelllang/pkg/spelllang/lexer"
)

// evalClassStatement binds the class name to a Class value. Function
// declarations in the body become methods; every other statement forms the
// constructor body. A Bloodline parent resolves eagerly, so an undefined
// parent fails at declaration time, not at first instantiation.
func evalClassStatement(node *ast.ClassStatement, env *Environment) Object {
	class := &Class{
		Name:    node.Name.Value,
		Params:  node.Params,
		Methods: make(map[string]*Function),
		Env:     env,
	}

	if node.Parent != nil {
		parentObj, ok := env.Get(node.Parent.Value)
		if !ok {
			return newStructuredErrorWithPos("UNDEF-0003", node.Parent.Token,
				map[string]any{"Name": node.Parent.Value})
		}
		parent, ok := parentObj.(*Class)
		if !ok {
			return newStructuredErrorWithPos("UNDEF-0003", node.Parent.Token,
				map[string]any{"Name": node.Parent.Value})
		}
		class.Parent = parent
	}

	for _, stmt := range node.Body {
		if fn, ok := stmt.(*ast.FunctionStatement); ok {
			class.Methods[fn.Name.Value] = &Function{
				Name:   fn.Name.Value,
				Params: fn.Params,
				Body:   fn.Body,
				Env:    env,
			}
			continue
		}
		class.Init = append(class.Init, stmt)
	}

	env.Define(node.Name.Value, class)
	return NULL
}

// instantiateClass constructs a new instance. The constructor runs in a
// fresh environment parented at the class's declaration environment, with
// parameters and self bound; self-qualified assignments create fields while
// plain declarations stay constructor locals.
func instantiateClass(class *Class, args []Object, tok lexer.Token, env *Environment) Object {
	if len(args) != len(class.Params) {
		return newStructuredErrorWithPos("ARITY-0001", tok, map[string]any{
			"Function": class.Name,
			"Got":      len(args),
			"Want":     len(class.Params),
		})
	}

	instance := &Instance{
		Class:  class,
		Fields: make(map[string]Object),
	}

	*env.callDepth++
	if *env.callDepth > MaxCallDepth {
		*env.callDepth--
		return newStructuredErrorWithPos("FATAL-0001", tok,
			map[string]any{"Depth": MaxCallDepth})
	}
	defer func() { *env.callDepth-- }()

	ctorEnv := NewEnclosedEnvironment(class.Env)
	ctorEnv.callDepth = env.callDepth
	ctorEnv.Printer = env.Printer
	for i, param := range class.Params {
		ctorEnv.Define(param.Value, args[i])
	}
	ctorEnv.Define("self", instance)

	result := evalStatements(class.Init, ctorEnv)
	if isError(result) {
		return result
	}
	return instance
}

// resolveMethod walks the class chain upward; the first match wins
func resolveMethod(class *Class, name string) (*Function, bool) {
	for c := class; c != nil; c = c.Parent {
		if method, ok := c.Methods[name]; ok {
			return method, true
		}
	}
	return nil, false
}

// allMethodNames collects method names across the chain for hint matching
func allMethodNames(class *Class) []string {
	seen := make(map[string]bool)
	var names []string
	for c := class; c != nil; c = c.Parent {
		for name := range c.Methods {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// evalMemberExpression handles field reads like 'harry.house'. A name that
// is not a field but is a method resolves to the bound method's function.
func evalMemberExpression(node *ast.MemberExpression, env *Environment) Object {
	obj := Eval(node.Object, env)
	if isError(obj) {
		return obj
	}

	instance, ok := obj.(*Instance)
	if !ok {
		return newStructuredErrorWithPos("TYPE-0007", node.Token,
			map[string]any{"Type": string(obj.Type())})
	}

	if val, exists := instance.Fields[node.Field]; exists {
		return val
	}
	if method, found := resolveMethod(instance.Class, node.Field); found {
		return method
	}

	err := newStructuredErrorWithPos("UNDEF-0005", node.Token, map[string]any{
		"Field": node.Field,
		"Class": instance.Class.Name,
	})
	if match := serrors.FindClosestMatch(node.Field, instanceFieldNames(instance)); match != "" {
		err.Hints = append(err.Hints, "Did you mean `"+match+"`?")
	}
	return err
}

func instanceFieldNames(instance *Instance) []string {
	names := make([]string, 0, len(instance.Fields))
	for name := range instance.Fields {
		names = append(names, name)
	}
	return append(names, allMethodNames(instance.Class)...)
}

// evalMemberAssignStatement handles 'obj.field = value'. Assignment creates
// the field when it does not exist yet; this is how constructors populate
// an instance through self.
func evalMemberAssignStatement(node *ast.MemberAssignStatement, env *Environment) Object {
	obj := Eval(node.Object, env)
	if isError(obj) {
		return obj
	}

	instance, ok := obj.(*Instance)
	if !ok {
		return newStructuredErrorWithPos("TYPE-0007", node.Token,
			map[string]any{"Type": string(obj.Type())})
	}

	val := Eval(node.Value, env)
	if isError(val) {
		return val
	}

	instance.Fields[node.Field] = val
	return NULL
}

// evalMethodCall handles 'obj.method(args)'. The method body runs in an
// environment parented at its defining class's environment, with self bound
// to the receiver so field access goes through the instance.
func evalMethodCall(member *ast.MemberExpression, call *ast.CallExpression, env *Environment) Object {
	obj := Eval(member.Object, env)
	if isError(obj) {
		return obj
	}

	instance, ok := obj.(*Instance)
	if !ok {
		return newStructuredErrorWithPos("TYPE-0007", member.Token,
			map[string]any{"Type": string(obj.Type())})
	}

	method, found := resolveMethod(instance.Class, member.Field)
	if !found {
		err := newStructuredErrorWithPos("UNDEF-0002", member.Token, map[string]any{
			"Method": member.Field,
			"Class":  instance.Class.Name,
		})
		if match := serrors.FindClosestMatch(member.Field, allMethodNames(instance.Class)); match != "" {
			err.Hints = append(err.Hints, "Did you mean `"+match+"`?")
		}
		return err
	}

	args := make([]Object, 0, len(call.Arguments))
	for _, a := range call.Arguments {
		val := Eval(a, env)
		if isError(val) {
			return val
		}
		args = append(args, val)
	}

	if len(args) != len(method.Params) {
		return newStructuredErrorWithPos("ARITY-0001", call.Token, map[string]any{
			"Function": instance.Class.Name + "." + method.Name,
			"Got":      len(args),
			"Want":     len(method.Params),
		})
	}

	*env.callDepth++
	if *env.callDepth > MaxCallDepth {
		*env.callDepth--
		return newStructuredErrorWithPos("FATAL-0001", call.Token,
			map[string]any{"Depth": MaxCallDepth})
	}
	defer func() { *env.callDepth-- }()

	methodEnv := NewEnclosedEnvironment(method.Env)
	methodEnv.callDepth = env.callDepth
	methodEnv.Printer = env.Printer
	for i, param := range method.Params {
		methodEnv.Define(param.Value, args[i])
	}
	methodEnv.Define("self", instance)

	result := evalStatements(method.Body, methodEnv)
	if isError(result) {
		return result
	}
	return NULL
}
