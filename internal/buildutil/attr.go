// Package buildutil reads the arguments of Starlark call statements parsed
// with buildtools.
//
// Arguments can be given by keyword or by position. Accessors return the
// zero value when an argument is absent and an error when it has the wrong
// type.
package buildutil

import (
	"errors"
	"fmt"

	"github.com/bazelbuild/buildtools/build"
)

// ErrWrongType indicates an argument of an unexpected type.
var ErrWrongType = errors.New("wrong argument type")

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// Line returns the 1-based line an expression starts on.
func Line(expr build.Expr) int {
	start, _ := expr.Span()
	return start.Line
}

// Arg returns the argument called name, or the pos-th positional argument
// when no keyword argument matches. A negative pos disables the positional
// fallback. It returns nil if neither exists.
func Arg(call *build.CallExpr, name string, pos int) build.Expr {
	positional := 0
	var byPos build.Expr
	for _, arg := range call.List {
		if assign, ok := arg.(*build.AssignExpr); ok {
			if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
				return assign.RHS
			}
			continue
		}
		if positional == pos {
			byPos = arg
		}
		positional++
	}
	return byPos
}

// CheckKeywords returns an error for a keyword argument not in allowed, or
// for more than maxPositional positional arguments.
func CheckKeywords(call *build.CallExpr, maxPositional int, allowed ...string) error {
	known := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		known[a] = true
	}
	positional := 0
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			positional++
			continue
		}
		lhs, ok := assign.LHS.(*build.Ident)
		if !ok {
			return fmt.Errorf("%s: keyword argument is not an identifier", FuncName(call))
		}
		if !known[lhs.Name] {
			return fmt.Errorf("%s: unknown argument %q", FuncName(call), lhs.Name)
		}
	}
	if positional > maxPositional {
		return fmt.Errorf("%s: takes at most %d positional arguments, got %d", FuncName(call), maxPositional, positional)
	}
	return nil
}

// String returns a string argument.
func String(call *build.CallExpr, name string, pos int) (string, error) {
	expr := Arg(call, name, pos)
	if expr == nil {
		return "", nil
	}
	str, ok := expr.(*build.StringExpr)
	if !ok {
		return "", fmt.Errorf("%w: %s: %s must be a string", ErrWrongType, FuncName(call), name)
	}
	return str.Value, nil
}

// StringList returns a list of strings argument.
func StringList(call *build.CallExpr, name string, pos int) ([]string, error) {
	expr := Arg(call, name, pos)
	if expr == nil {
		return nil, nil
	}
	list, ok := expr.(*build.ListExpr)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s must be a list", ErrWrongType, FuncName(call), name)
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		str, ok := elem.(*build.StringExpr)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s must contain only strings", ErrWrongType, FuncName(call), name)
		}
		result = append(result, str.Value)
	}
	return result, nil
}

// StringDict returns a dict of strings argument.
func StringDict(call *build.CallExpr, name string, pos int) (map[string]string, error) {
	expr := Arg(call, name, pos)
	if expr == nil {
		return nil, nil
	}
	dict, ok := expr.(*build.DictExpr)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s must be a dict", ErrWrongType, FuncName(call), name)
	}
	result := make(map[string]string, len(dict.List))
	for _, kv := range dict.List {
		key, ok := kv.Key.(*build.StringExpr)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s keys must be strings", ErrWrongType, FuncName(call), name)
		}
		value, ok := kv.Value.(*build.StringExpr)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s values must be strings", ErrWrongType, FuncName(call), name)
		}
		result[key.Value] = value.Value
	}
	return result, nil
}
