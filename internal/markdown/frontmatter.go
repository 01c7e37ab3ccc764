package markdown

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Recognised frontmatter keys.
const (
	KeyTitle     = "title"
	KeySourceURL = "source_url"
	KeyDate      = "date"
	KeyTags      = "tags"
)

// DateLayout is the calendar date format used for the date key.
const DateLayout = "2006-01-02"

// Field is one frontmatter entry.
type Field struct {
	Key   string
	Value any
}

// Frontmatter is an ordered set of metadata fields rendered as a YAML header.
// Fields keep their insertion order; nil values are skipped on output.
type Frontmatter struct {
	fields []Field
}

// NewFrontmatter returns an empty frontmatter.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{}
}

// Set adds key or replaces its value in place.
func (f *Frontmatter) Set(key string, value any) *Frontmatter {
	for i := range f.fields {
		if f.fields[i].Key == key {
			f.fields[i].Value = value
			return f
		}
	}
	f.fields = append(f.fields, Field{Key: key, Value: value})
	return f
}

// Get returns the value stored under key.
func (f *Frontmatter) Get(key string) (any, bool) {
	if f == nil {
		return nil, false
	}
	for _, fd := range f.fields {
		if fd.Key == key {
			return fd.Value, true
		}
	}
	return nil, false
}

// Fields returns the entries that will be rendered, in order.
func (f *Frontmatter) Fields() []Field {
	if f == nil {
		return nil
	}
	var out []Field
	for _, fd := range f.fields {
		if !isNil(fd.Value) {
			out = append(out, fd)
		}
	}
	return out
}

// Empty reports whether Render would produce nothing.
func (f *Frontmatter) Empty() bool {
	return len(f.Fields()) == 0
}

// Render returns the YAML header followed by a blank line, or "" when the
// frontmatter has no renderable field.
func (f *Frontmatter) Render() string {
	fields := f.Fields()
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("---\n")
	for _, fd := range fields {
		b.WriteString(fd.Key)
		b.WriteString(": ")
		b.WriteString(yamlValue(fd.Value))
		b.WriteByte('\n')
	}
	b.WriteString("---\n\n")
	return b.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

func yamlValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(x)
	case fmt.Stringer:
		if t, ok := v.(time.Time); ok {
			return quote(t.Format(DateLayout))
		}
		return quote(x.String())
	case bool:
		return strconv.FormatBool(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return yamlValue(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = yamlValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(items, ", ") + "]"
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return "null"
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		if len(keys) == 0 {
			return "{}"
		}
		sort.Strings(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = k + ": " + yamlValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
		}
		return "{ " + strings.Join(items, ", ") + " }"
	}
	return "null"
}
