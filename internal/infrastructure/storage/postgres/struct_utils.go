package postgres

import (
	"reflect"
	"sync"
)

// Columns returns the db tag names of T, descending into embedded structs.
// Called once per repository at construction time.
func Columns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			cols = append(cols, columnsOf(f.Type)...)
			continue
		}
		if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
			cols = append(cols, tag)
		}
	}
	return cols
}

type fieldInfo struct {
	index int
	col   string
}

type typeMetadata struct {
	fields   []fieldInfo
	embedded []int
}

var typeCache sync.Map // reflect.Type -> *typeMetadata

func metadataFor(t reflect.Type) *typeMetadata {
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}
	meta := &typeMetadata{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			meta.embedded = append(meta.embedded, i)
			continue
		}
		if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
			meta.fields = append(meta.fields, fieldInfo{index: i, col: tag})
		}
	}
	typeCache.Store(t, meta)
	return meta
}

// Values maps db tag names of a struct (or pointer to struct) to field values.
func Values(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	out := make(map[string]any)
	collect(rv, out)
	return out
}

func collect(rv reflect.Value, out map[string]any) {
	meta := metadataFor(rv.Type())
	for _, fi := range meta.fields {
		out[fi.col] = rv.Field(fi.index).Interface()
	}
	for _, idx := range meta.embedded {
		ev := rv.Field(idx)
		if ev.Kind() == reflect.Pointer {
			if ev.IsNil() {
				continue
			}
			ev = ev.Elem()
		}
		if ev.Kind() == reflect.Struct {
			collect(ev, out)
		}
	}
}
