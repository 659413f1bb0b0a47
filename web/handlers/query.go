package handlers

import (
	"encoding"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/theogognf/toi/pkg/types"
)

// Timestamps decode through time.Time's RFC 3339 UnmarshalText.
var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// decodeQuery fills dst, a pointer to a struct, from query parameters keyed
// by the fields' JSON names. Embedded structs are flattened like
// encoding/json does. Slices accept repeated keys or comma-separated values.
func decodeQuery(values url.Values, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return types.Internal(errInvalidQueryTarget)
	}
	if err := decodeStruct(values, v.Elem()); err != nil {
		return err
	}
	return validate(dst)
}

type queryError string

func (e queryError) Error() string { return string(e) }

const errInvalidQueryTarget = queryError("query target must be a struct pointer")

func decodeStruct(values url.Values, v reflect.Value) error {
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := decodeStruct(values, v.Field(i)); err != nil {
				return err
			}
			continue
		}
		name := jsonName(field)
		if name == "" {
			continue
		}
		raw, ok := values[name]
		if !ok || len(raw) == 0 {
			continue
		}
		if err := setField(v.Field(i), raw); err != nil {
			return types.Validation("invalid query parameter %s: %v", name, err)
		}
	}
	return nil
}

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

func setField(f reflect.Value, raw []string) error {
	if f.Kind() == reflect.Slice {
		var parts []string
		for _, r := range raw {
			for p := range strings.SplitSeq(r, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
		}
		out := reflect.MakeSlice(f.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := setScalar(out.Index(i), p); err != nil {
				return err
			}
		}
		f.Set(out)
		return nil
	}
	return setScalar(f, raw[len(raw)-1])
}

func setScalar(f reflect.Value, s string) error {
	if f.Kind() == reflect.Pointer {
		elem := reflect.New(f.Type().Elem())
		if err := setScalar(elem.Elem(), s); err != nil {
			return err
		}
		f.Set(elem)
		return nil
	}

	if f.CanAddr() && f.Addr().Type().Implements(textUnmarshalerType) {
		return f.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		f.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetFloat(n)
	default:
		return queryError("unsupported type " + f.Type().String())
	}
	return nil
}
