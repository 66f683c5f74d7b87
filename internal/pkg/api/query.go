package api

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Query is an insertion ordered set of query parameters. Values are scalars:
// strings, integers, floats, booleans, nil, or pointers to those. Nil
// values, nil pointers and empty strings are left out of the encoded form.
type Query struct {
	params []param
}

type param struct {
	key   string
	value any
}

// NewQuery builds a query from alternating key/value pairs.
func NewQuery(kv ...any) Query {
	var q Query
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("api.NewQuery: key at position %d is %T, not string", i, kv[i]))
		}
		q = q.Set(key, kv[i+1])
	}
	return q
}

// Set returns a copy of the query with key appended. Setting an existing
// key replaces its value in place so the original position is kept.
func (q Query) Set(key string, value any) Query {
	params := make([]param, len(q.params), len(q.params)+1)
	copy(params, q.params)
	for i := range params {
		if params[i].key == key {
			params[i].value = value
			return Query{params: params}
		}
	}
	return Query{params: append(params, param{key: key, value: value})}
}

// Len is the number of keys, including ones that will be omitted.
func (q Query) Len() int {
	return len(q.params)
}

// Encode returns the URL encoded query without a leading "?". Keys keep
// insertion order.
func (q Query) Encode() string {
	var b strings.Builder
	for _, p := range q.params {
		v, ok := stringify(p.value)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	return b.String()
}

// String returns "?" plus the encoded query, or "" when nothing remains.
func (q Query) String() string {
	enc := q.Encode()
	if enc == "" {
		return ""
	}
	return "?" + enc
}

func stringify(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		out := s.String()
		return out, out != ""
	}

	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		return s, s != ""
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	}
	return fmt.Sprint(rv.Interface()), true
}
