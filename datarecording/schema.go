package datarecording

import (
	"fmt"
	"reflect"

	"github.com/fatih/structs"
)

type column struct {
	name string
	kind reflect.Kind
}

func isAllowedType(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

// columnsOf lists the fields of a flat struct in declaration order.
func columnsOf(entry any) ([]column, error) {
	if !structs.IsStruct(entry) {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrInvalidEntry, entry)
	}

	fields := structs.Fields(entry)
	cols := make([]column, 0, len(fields))

	for _, field := range fields {
		if !field.IsExported() {
			return nil, fmt.Errorf("%w: field %s of %T is not exported",
				ErrInvalidEntry, field.Name(), entry)
		}

		if !isAllowedType(field.Kind()) {
			return nil, fmt.Errorf("%w: field %s of %T has kind %s",
				ErrInvalidEntry, field.Name(), entry, field.Kind())
		}

		cols = append(cols, column{name: field.Name(), kind: field.Kind()})
	}

	return cols, nil
}

// fieldValues returns the field values of entry, converted to the basic Go
// types the database drivers accept.
func fieldValues(entry any) []any {
	fields := structs.Fields(entry)
	values := make([]any, len(fields))

	for i, field := range fields {
		v := reflect.ValueOf(field.Value())

		switch field.Kind() {
		case reflect.Bool:
			values[i] = v.Bool()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
			reflect.Int64:
			values[i] = v.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
			reflect.Uint64:
			values[i] = v.Uint()
		case reflect.Float32, reflect.Float64:
			values[i] = v.Float()
		case reflect.String:
			values[i] = v.String()
		default:
			values[i] = field.Value()
		}
	}

	return values
}
