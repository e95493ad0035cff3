package evaluator

import (
	"strconv"
	"unicode/utf8"

	"github.com/sambeau/spelllang/pkg/spelllang/lexer"
)

// builtins are looked up after the environment chain, so a user binding of
// the same name would shadow them; the lexer reserves the names as keywords,
// which prevents that in practice.
var builtins = map[string]*Builtin{
	"len": {Name: "len", Fn: builtinLen},
	"str": {Name: "str", Fn: builtinStr},
	"int": {Name: "int", Fn: builtinInt},
}

func builtinLen(tok lexer.Token, args ...Object) Object {
	if len(args) != 1 {
		return newStructuredErrorWithPos("ARITY-0001", tok, map[string]any{
			"Function": "len", "Got": len(args), "Want": 1,
		})
	}

	switch arg := args[0].(type) {
	case *String:
		// Character count, not byte count
		return &Integer{Value: int64(utf8.RuneCountInString(arg.Value))}
	case *List:
		return &Integer{Value: int64(len(arg.Elements))}
	case *Map:
		return &Integer{Value: int64(len(arg.Pairs))}
	default:
		return newStructuredErrorWithPos("TYPE-0002", tok, map[string]any{
			"Function": "len", "Got": string(args[0].Type()),
		})
	}
}

func builtinStr(tok lexer.Token, args ...Object) Object {
	if len(args) != 1 {
		return newStructuredErrorWithPos("ARITY-0001", tok, map[string]any{
			"Function": "str", "Got": len(args), "Want": 1,
		})
	}

	// Inspect is the canonical rendering: integers as decimal digits,
	// booleans as true/false, strings unchanged at top level, containers
	// with nested strings quoted
	return &String{Value: args[0].Inspect()}
}

func builtinInt(tok lexer.Token, args ...Object) Object {
	if len(args) != 1 {
		return newStructuredErrorWithPos("ARITY-0001", tok, map[string]any{
			"Function": "int", "Got": len(args), "Want": 1,
		})
	}

	switch arg := args[0].(type) {
	case *Integer:
		return arg
	case *String:
		value, err := strconv.ParseInt(arg.Value, 10, 64)
		if err != nil {
			return newStructuredErrorWithPos("CONV-0001", tok, map[string]any{
				"Value": arg.Value,
			})
		}
		return &Integer{Value: value}
	default:
		return newStructuredErrorWithPos("TYPE-0002", tok, map[string]any{
			"Function": "int", "Got": string(args[0].Type()),
		})
	}
}
