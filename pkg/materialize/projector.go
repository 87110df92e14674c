package materialize

import (
	"fmt"
	"reflect"
	"strings"
)

// Identity surfaces the whole result.
func Identity[Res any]() Projector[Res, Res] {
	return func(r Res) Res { return r }
}

// Echo surfaces v regardless of the result, e.g. an input parameter.
func Echo[Res, V any](v V) Projector[Res, V] {
	return func(Res) V { return v }
}

// SelectAll is the selector expression for the whole result.
const SelectAll = "*"

// echoPrefix marks a selector that echoes an input parameter.
const echoPrefix = "^"

// Select compiles a selector expression against the result type Res.
//
// Supported expressions:
//   - "" or "*": the whole result
//   - "Field" or "Field.Nested": an exported field path (case-insensitive fallback)
//   - "^Param": the value of input parameter Param from echo
//
// Unknown fields and parameters are reported as *ConfigError here, before any
// remote call is made.
func Select[Res any](expr string, echo map[string]any) (Projector[Res, any], error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "" || expr == SelectAll:
		return func(r Res) any { return r }, nil

	case strings.HasPrefix(expr, echoPrefix):
		param := strings.TrimPrefix(expr, echoPrefix)
		v, ok := echo[param]
		if !ok {
			return nil, &ConfigError{Name: "select", Reason: fmt.Sprintf("unknown input parameter %q", param)}
		}
		return func(Res) any { return v }, nil
	}

	path, err := compileFieldPath(reflect.TypeOf((*Res)(nil)).Elem(), expr)
	if err != nil {
		return nil, err
	}
	return func(r Res) any { return walkFieldPath(reflect.ValueOf(&r).Elem(), path) }, nil
}

func compileFieldPath(t reflect.Type, expr string) ([][]int, error) {
	parts := strings.Split(expr, ".")
	path := make([][]int, 0, len(parts))
	for _, part := range parts {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return nil, &ConfigError{Name: "select", Reason: fmt.Sprintf("%q: %s has no fields", expr, t)}
		}

		sf, ok := t.FieldByName(part)
		if !ok {
			sf, ok = t.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, part) })
		}
		if !ok || !sf.IsExported() {
			return nil, &ConfigError{Name: "select", Reason: fmt.Sprintf("%q: %s has no field %q", expr, t, part)}
		}

		path = append(path, sf.Index)
		t = sf.Type
	}
	return path, nil
}

func walkFieldPath(v reflect.Value, path [][]int) any {
	for _, idx := range path {
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return nil
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(idx)
	}
	return v.Interface()
}
