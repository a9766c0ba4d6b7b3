package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the column names from "db" tags of T, following
// embedded structs (entity.Catalog, entity.Document) recursively.
// Called once per repository at construction time.
func ExtractDBColumns[T any]() []string {
	var zero T
	return extractColumnsFromType(reflect.TypeOf(zero))
}

func extractColumnsFromType(t reflect.Type) []string {
	meta := typeMetadataOf(t)
	cols := make([]string, 0, len(meta.fields))
	for _, fi := range meta.fields {
		if fi.embedded {
			cols = append(cols, extractColumnsFromType(fi.typ)...)
			continue
		}
		cols = append(cols, fi.column)
	}
	return cols
}

type fieldInfo struct {
	index    int
	column   string
	embedded bool
	typ      reflect.Type
}

type typeMetadata struct {
	fields []fieldInfo
}

// typeCache maps reflect.Type to *typeMetadata.
var typeCache sync.Map

// typeMetadataOf returns the db-tagged fields of t in declaration order.
func typeMetadataOf(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.fields = append(meta.fields, fieldInfo{index: i, embedded: true, typ: field.Type})
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, column: tag, typ: field.Type})
		}
	}

	typeCache.Store(t, meta)
	return meta
}

// StructToMap converts a struct to a column→value map using "db" tags.
// Fields tagged "-" (such as document lines) are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	res := make(map[string]any)
	structToMap(rv, res)
	return res
}

func structToMap(rv reflect.Value, res map[string]any) {
	for _, fi := range typeMetadataOf(rv.Type()).fields {
		fv := rv.Field(fi.index)
		if fi.embedded {
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			structToMap(fv, res)
			continue
		}
		res[fi.column] = fv.Interface()
	}
}
