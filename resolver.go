package dotted

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

// Resolvers is a nested registry of named callables supplied by the
// host application. Map values are either functions or nested
// namespaces; namespaces flatten internally to dotted names, so
//
//	Resolvers{"math": Resolvers{"divide": divide}}
//
// exposes "math.divide" to computed expressions. Resolver functions may
// take a context.Context as their first parameter; the engine binds the
// caller's context before invocation. Inputs and outputs are otherwise
// untyped at this layer.
type Resolvers map[string]any

// flattenResolvers builds the dotted-name index of a nested registry.
// Built once at construction rather than by runtime introspection.
func flattenResolvers(reg map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, "", reg)

	return flat
}

func flattenInto(flat map[string]any, prefix string, node map[string]any) {
	for name, val := range node {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		switch sub := val.(type) {
		case Resolvers:
			flattenInto(flat, key, sub)
		case map[string]any:
			flattenInto(flat, key, sub)
		default:
			flat[key] = val
		}
	}
}

//nolint:gochecknoglobals
var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// bindContext adapts a context-aware resolver into a plain variadic
// function with the caller's context bound as the first argument.
// Functions that do not take a context are returned unchanged.
func bindContext(ctx context.Context, f any) any {
	fv := reflect.ValueOf(f)

	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() == 0 || ft.In(0) != ctxType {
		return f
	}

	return func(args ...any) (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = ErrEvaluate.Wrap(fmt.Errorf("resolver panic: %v", r))
			}
		}()

		in := make([]reflect.Value, 0, len(args)+1)
		in = append(in, reflect.ValueOf(ctx))

		for i, arg := range args {
			in = append(in, argValue(ft, i+1, arg))
		}

		return callResults(fv.Call(in))
	}
}

// argValue converts a call argument to the reflect.Value expected at
// parameter position pos, honoring variadic tails.
func argValue(ft reflect.Type, pos int, arg any) reflect.Value {
	var want reflect.Type

	switch {
	case ft.IsVariadic() && pos >= ft.NumIn()-1:
		want = ft.In(ft.NumIn() - 1).Elem()
	case pos < ft.NumIn():
		want = ft.In(pos)
	}

	if arg == nil {
		if want != nil {
			return reflect.Zero(want)
		}

		return reflect.Zero(reflect.TypeOf((*any)(nil)).Elem())
	}

	v := reflect.ValueOf(arg)
	if want != nil && v.Type() != want && v.Type().ConvertibleTo(want) {
		return v.Convert(want)
	}

	return v
}

// callResults maps reflect call results onto (value, error).
func callResults(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}

	last := out[len(out)-1]
	if last.Type().Implements(errType) {
		if !last.IsNil() {
			err, ok := last.Interface().(error)
			if ok {
				return nil, err
			}
		}

		out = out[:len(out)-1]
	}

	if len(out) == 0 {
		return nil, nil
	}

	return out[0].Interface(), nil
}

// logResolverNames returns the flattened resolver names as a slog attr
// for trace output.
func logResolverNames(flat map[string]any) slog.Attr {
	return slog.Int("resolvers", len(flat))
}
