package neosocial

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// entityMetadata holds the parsed `crud` tag information for a specific struct type.
// This metadata is cached by the PersistenceManager to avoid costly reflection on every operation.
type entityMetadata struct {
	// Label is the graph node label, defaulting to the struct's name.
	Label string
	// PKField is the name of the struct field marked as the primary key.
	PKField string
	// PKProp is the property name of the primary key in the database.
	PKProp string
	// Mappings maps struct field names to their corresponding database property names.
	Mappings map[string]string
}

// parseTagsFromType inspects a reflect.Type and extracts persistence metadata
// from `crud` struct tags. A `label:Name` component on any field overrides
// the label derived from the struct name.
func parseTagsFromType(typ reflect.Type) (*entityMetadata, error) {
	// If the type is a pointer, get the underlying element's type.
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %s is not a struct", typ.Name())
	}

	meta := &entityMetadata{
		Label:    typ.Name(),
		Mappings: make(map[string]string),
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("crud")

		// Skip fields that are not part of the persistence mapping.
		if tag == "" {
			continue
		}

		isPk := false
		propName := ""

		for _, part := range strings.Split(tag, ",") {
			switch {
			case part == "pk":
				isPk = true
			case strings.HasPrefix(part, "property:"):
				propName = strings.TrimPrefix(part, "property:")
			case strings.HasPrefix(part, "label:"):
				meta.Label = strings.TrimPrefix(part, "label:")
			}
		}

		if propName == "" {
			return nil, fmt.Errorf("field %s is missing 'property' tag component", field.Name)
		}

		if isPk {
			meta.PKField = field.Name
			meta.PKProp = propName
		}
		meta.Mappings[field.Name] = propName
	}

	if meta.PKField == "" {
		return nil, fmt.Errorf("no primary key ('pk') tag defined for struct %s", typ.Name())
	}

	return meta, nil
}

// parseTags is a generic convenience wrapper around parseTagsFromType.
func parseTags[T any]() (*entityMetadata, error) {
	var instance T
	return parseTagsFromType(reflect.TypeOf(instance))
}

// propertyValue converts a struct field into a value the driver accepts:
// nil pointers become null, other pointers are dereferenced and named string
// types lose their name.
func propertyValue(field reflect.Value) any {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return nil
		}
		field = field.Elem()
	}
	if field.Kind() == reflect.String && field.Type() != reflect.TypeOf("") {
		return field.String()
	}
	if t, ok := field.Interface().(time.Time); ok && t.IsZero() {
		return nil
	}
	return field.Interface()
}

// assignProperty stores a node property into field, converting driver types
// (int64, []any, temporal values) into the field's Go type.
func assignProperty(field reflect.Value, prop any) error {
	if prop == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	target := field.Type()
	if target.Kind() == reflect.Ptr {
		elem := reflect.New(target.Elem())
		if err := assignProperty(elem.Elem(), prop); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if v, ok := ValueOf(prop).(Temporal); ok && target == reflect.TypeOf(time.Time{}) {
		field.Set(reflect.ValueOf(time.Time(v)))
		return nil
	}

	if items, ok := prop.([]any); ok && target.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(target, len(items), len(items))
		for i, item := range items {
			if err := assignProperty(slice.Index(i), item); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	value := reflect.ValueOf(prop)
	if value.Type().AssignableTo(target) {
		field.Set(value)
		return nil
	}
	sameFamily := value.Kind() == target.Kind() || (isNumeric(value.Kind()) && isNumeric(target.Kind()))
	if sameFamily && value.Type().ConvertibleTo(target) {
		field.Set(value.Convert(target))
		return nil
	}
	return fmt.Errorf("cannot assign %T to field of type %s", prop, target)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
