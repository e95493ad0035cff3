package evaluator

import (
	"strings"

	"github.com/sambeau/spelllang/pkg/spelllang/ast"
)

// evalPrefixExpression handles '!expr' and '-expr'. Both are strictly typed:
// '!' wants a boolean, '-' wants an integer.
func evalPrefixExpression(node *ast.PrefixExpression, env *Environment) Object {
	right := Eval(node.Right, env)
	if isError(right) {
		return right
	}

	switch node.Operator {
	case "!":
		if b, ok := right.(*Boolean); ok {
			return nativeBoolToBoolean(!b.Value)
		}
	case "-":
		if i, ok := right.(*Integer); ok {
			return &Integer{Value: -i.Value}
		}
	}

	return newStructuredErrorWithPos("OP-0004", node.Token, map[string]any{
		"Operator": node.Operator,
		"Type":     string(right.Type()),
	})
}

// evalInfixExpression dispatches binary operators. '&&' and '||' short
// circuit, so they evaluate the right operand themselves.
func evalInfixExpression(node *ast.InfixExpression, env *Environment) Object {
	if node.Operator == "&&" || node.Operator == "||" {
		return evalLogicalExpression(node, env)
	}

	left := Eval(node.Left, env)
	if isError(left) {
		return left
	}
	right := Eval(node.Right, env)
	if isError(right) {
		return right
	}

	switch node.Operator {
	case "+":
		return evalPlus(node, left, right)
	case "-", "*", "/", "%":
		return evalArithmetic(node, left, right)
	case "==":
		return nativeBoolToBoolean(objectsEqual(left, right))
	case "!=":
		return nativeBoolToBoolean(!objectsEqual(left, right))
	case "<", ">", "<=", ">=":
		return evalComparison(node, left, right)
	}

	return newOperatorError(node, left, right)
}

// evalLogicalExpression evaluates '&&' and '||' with short-circuiting. The
// right operand is not evaluated when the left side decides the result.
func evalLogicalExpression(node *ast.InfixExpression, env *Environment) Object {
	left := Eval(node.Left, env)
	if isError(left) {
		return left
	}
	leftBool, ok := left.(*Boolean)
	if !ok {
		return newOperatorError(node, left, nil)
	}

	if node.Operator == "&&" && !leftBool.Value {
		return FALSE
	}
	if node.Operator == "||" && leftBool.Value {
		return TRUE
	}

	right := Eval(node.Right, env)
	if isError(right) {
		return right
	}
	rightBool, ok := right.(*Boolean)
	if !ok {
		return newOperatorError(node, left, right)
	}
	return nativeBoolToBoolean(rightBool.Value)
}

// evalPlus handles the overloaded '+': integer addition, string and list
// concatenation, and string+integer gluing in either order
func evalPlus(node *ast.InfixExpression, left, right Object) Object {
	switch left := left.(type) {
	case *Integer:
		switch right := right.(type) {
		case *Integer:
			return &Integer{Value: left.Value + right.Value}
		case *String:
			return &String{Value: left.Inspect() + right.Value}
		}
	case *String:
		switch right := right.(type) {
		case *String:
			return &String{Value: left.Value + right.Value}
		case *Integer:
			return &String{Value: left.Value + right.Inspect()}
		}
	case *List:
		if right, ok := right.(*List); ok {
			elements := make([]Object, 0, len(left.Elements)+len(right.Elements))
			elements = append(elements, left.Elements...)
			elements = append(elements, right.Elements...)
			return &List{Elements: elements}
		}
	}
	return newOperatorError(node, left, right)
}

// evalArithmetic handles '-', '*', '/' and '%', integer operands only
func evalArithmetic(node *ast.InfixExpression, left, right Object) Object {
	l, lok := left.(*Integer)
	r, rok := right.(*Integer)
	if !lok || !rok {
		return newOperatorError(node, left, right)
	}

	switch node.Operator {
	case "-":
		return &Integer{Value: l.Value - r.Value}
	case "*":
		return &Integer{Value: l.Value * r.Value}
	case "/":
		if r.Value == 0 {
			return newStructuredErrorWithPos("OP-0002", node.Token, nil)
		}
		return &Integer{Value: l.Value / r.Value}
	case "%":
		if r.Value == 0 {
			return newStructuredErrorWithPos("OP-0002", node.Token, nil)
		}
		return &Integer{Value: l.Value % r.Value}
	}
	return newOperatorError(node, left, right)
}

// evalComparison handles the ordering operators: integer-integer numeric
// compare or string-string lexicographic compare
func evalComparison(node *ast.InfixExpression, left, right Object) Object {
	if l, ok := left.(*Integer); ok {
		if r, ok := right.(*Integer); ok {
			switch node.Operator {
			case "<":
				return nativeBoolToBoolean(l.Value < r.Value)
			case ">":
				return nativeBoolToBoolean(l.Value > r.Value)
			case "<=":
				return nativeBoolToBoolean(l.Value <= r.Value)
			case ">=":
				return nativeBoolToBoolean(l.Value >= r.Value)
			}
		}
	}
	if l, ok := left.(*String); ok {
		if r, ok := right.(*String); ok {
			cmp := strings.Compare(l.Value, r.Value)
			switch node.Operator {
			case "<":
				return nativeBoolToBoolean(cmp < 0)
			case ">":
				return nativeBoolToBoolean(cmp > 0)
			case "<=":
				return nativeBoolToBoolean(cmp <= 0)
			case ">=":
				return nativeBoolToBoolean(cmp >= 0)
			}
		}
	}

	return newStructuredErrorWithPos("OP-0003", node.Token, map[string]any{
		"LeftType":  string(left.Type()),
		"RightType": string(right.Type()),
	})
}

// objectsEqual implements structural equality. Instances, functions and
// classes compare by identity; everything else compares by content.
func objectsEqual(left, right Object) bool {
	switch left := left.(type) {
	case *Null:
		_, ok := right.(*Null)
		return ok
	case *Boolean:
		r, ok := right.(*Boolean)
		return ok && left.Value == r.Value
	case *Integer:
		r, ok := right.(*Integer)
		return ok && left.Value == r.Value
	case *String:
		r, ok := right.(*String)
		return ok && left.Value == r.Value
	case *List:
		r, ok := right.(*List)
		if !ok || len(left.Elements) != len(r.Elements) {
			return false
		}
		for i, e := range left.Elements {
			if !objectsEqual(e, r.Elements[i]) {
				return false
			}
		}
		return true
	case *Map:
		r, ok := right.(*Map)
		if !ok || len(left.Pairs) != len(r.Pairs) {
			return false
		}
		for k, v := range left.Pairs {
			rv, exists := r.Pairs[k]
			if !exists || !objectsEqual(v, rv) {
				return false
			}
		}
		return true
	default:
		return left == right
	}
}

func newOperatorError(node *ast.InfixExpression, left, right Object) *Error {
	rightType := "?"
	if right != nil {
		rightType = string(right.Type())
	}
	return newStructuredErrorWithPos("OP-0001", node.Token, map[string]any{
		"LeftType":  string(left.Type()),
		"Operator":  node.Operator,
		"RightType": rightType,
	})
}

// evalIndexExpression handles 'xs[i]' and 'm["key"]' reads
func evalIndexExpression(node *ast.IndexExpression, env *Environment) Object {
	left := Eval(node.Left, env)
	if isError(left) {
		return left
	}
	index := Eval(node.Index, env)
	if isError(index) {
		return index
	}

	switch left := left.(type) {
	case *List:
		idx, ok := index.(*Integer)
		if !ok {
			return newStructuredErrorWithPos("TYPE-0005", node.Token,
				map[string]any{"Got": LIST_OBJ, "IndexType": string(index.Type())})
		}
		if idx.Value < 0 || idx.Value >= int64(len(left.Elements)) {
			return newStructuredErrorWithPos("INDEX-0001", node.Token,
				map[string]any{"Index": idx.Value, "Length": len(left.Elements)})
		}
		return left.Elements[idx.Value]

	case *Map:
		key, ok := index.(*String)
		if !ok {
			return newStructuredErrorWithPos("TYPE-0005", node.Token,
				map[string]any{"Got": MAP_OBJ, "IndexType": string(index.Type())})
		}
		val, exists := left.Pairs[key.Value]
		if !exists {
			return newStructuredErrorWithPos("KEY-0001", node.Token,
				map[string]any{"Key": key.Value})
		}
		return val

	default:
		return newStructuredErrorWithPos("TYPE-0005", node.Token,
			map[string]any{"Got": string(left.Type()), "IndexType": string(index.Type())})
	}
}
