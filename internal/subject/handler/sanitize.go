package handler

import (
	"reflect"
	"strings"
)

// sanitize trims whitespace in the string and *string fields of a request
// body struct. Pointers to blank strings are set to nil.
func sanitize(v any) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strings.TrimSpace(field.String()))
		case reflect.Ptr:
			if field.IsNil() || field.Elem().Kind() != reflect.String {
				continue
			}
			trimmed := strings.TrimSpace(field.Elem().String())
			if trimmed == "" {
				field.Set(reflect.Zero(field.Type()))
				continue
			}
			field.Elem().SetString(trimmed)
		}
	}
}
