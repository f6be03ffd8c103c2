package memo

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"
)

// maxKeyDepth bounds the walk so cyclic pointer graphs still produce a key.
const maxKeyDepth = 32

// DefaultKey serializes the argument list into a deterministic JSON array.
//
//   - string-keyed maps are written as objects with sorted keys; other maps
//     as [key, value] pairs sorted by key, each key tagged with its type;
//   - structs are written as all their fields, exported or not, plus a
//     "$type" member naming the struct type;
//   - pointers and interfaces are followed, nil becomes null;
//   - functions become "func:<symbol>", so different function literals
//     produce different keys (closures over different captured values do not);
//   - channels and unsafe pointers become their type name.
//
// Values implementing json.Marshaler or encoding.TextMarshaler use that encoding.
func DefaultKey(args ...any) string {
	norm := make([]any, len(args))
	for i, a := range args {
		norm[i] = normalize(reflect.ValueOf(a), 0)
	}
	return encode(norm)
}

// encode writes x as compact JSON without HTML escaping.
func encode(x any) string {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(x); err != nil {
		// NaN/Inf floats and failing custom marshalers.
		return fmt.Sprintf("%v", x)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

func normalize(v reflect.Value, depth int) any {
	if !v.IsValid() {
		return nil
	}
	if depth > maxKeyDepth {
		return "<" + v.Type().String() + ">"
	}

	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface && v.CanInterface() {
		t := v.Type()
		if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
			return v.Interface()
		}
	}

	switch v.Kind() {
	case reflect.Func:
		if v.IsNil() {
			return nil
		}
		return "func:" + funcName(v)
	case reflect.Chan, reflect.UnsafePointer:
		return "<" + v.Type().String() + ">"
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return normalize(v.Elem(), depth+1)
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		if v.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, v.Len())
			iter := v.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = normalize(iter.Value(), depth+1)
			}
			return m
		}
		return mapPairs(v, depth)
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes()
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = normalize(v.Index(i), depth+1)
		}
		return out
	case reflect.Struct:
		t := v.Type()
		m := make(map[string]any, t.NumField()+1)
		m["$type"] = t.String()
		for i := 0; i < t.NumField(); i++ {
			m[t.Field(i).Name] = normalize(v.Field(i), depth+1)
		}
		return m
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(v.Complex())
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// mapPairs renders a non-string-keyed map as [key, value] pairs. Keys are
// prefixed with their dynamic type, so 1 and "1" in a map[any]V stay apart,
// and pairs are sorted by encoded key, then value, so equal maps encode alike.
func mapPairs(v reflect.Value, depth int) []any {
	type pair struct{ key, val string }
	pairs := make([]pair, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k := iter.Key()
		typ := k.Type().String()
		if k.Kind() == reflect.Interface {
			typ = "<nil>"
			if !k.IsNil() {
				k = k.Elem()
				typ = k.Type().String()
			}
		}
		pairs = append(pairs, pair{
			key: typ + ":" + encode(normalize(k, depth+1)),
			val: encode(normalize(iter.Value(), depth+1)),
		})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].val < pairs[j].val
	})

	out := make([]any, len(pairs))
	for i, p := range pairs {
		out[i] = []any{p.key, p.val}
	}
	return out
}

func funcName(v reflect.Value) string {
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return fmt.Sprintf("%#x", v.Pointer())
}
