package config

import (
	"encoding"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// ApplyDefaults preenche os campos com o valor da tag "envDefault".
func ApplyDefaults(target interface{}) error {
	return walk(target, func(fieldType reflect.StructField) (string, bool) {
		def, ok := fieldType.Tag.Lookup("envDefault")
		return def, ok && def != ""
	})
}

// LoadEnv sobrescreve os campos cuja variável da tag "env" está definida.
// Variáveis ausentes não alteram o campo.
func LoadEnv(target interface{}) error {
	return walk(target, func(fieldType reflect.StructField) (string, bool) {
		name := fieldType.Tag.Get("env")
		if name == "" {
			return "", false
		}
		return os.LookupEnv(name)
	})
}

type valueSource func(reflect.StructField) (string, bool)

func walk(target interface{}, source valueSource) error {
	val := reflect.ValueOf(target)
	if !val.IsValid() || val.Kind() != reflect.Ptr || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		var typ reflect.Type
		if val.IsValid() {
			typ = val.Type()
		}
		return &InvalidTargetError{Value: typ}
	}
	return walkStruct(val.Elem(), source)
}

// walkStruct processa recursivamente uma struct
func walkStruct(val reflect.Value, source valueSource) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && !implementsText(field) {
			if err := walkStruct(field, source); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if err := walkStruct(field.Elem(), source); err != nil {
				return err
			}
			continue
		}

		raw, ok := source(fieldType)
		if !ok {
			continue
		}

		if err := setFieldValue(field, raw); err != nil {
			return &FieldError{
				FieldName: fieldType.Name,
				EnvVar:    fieldType.Tag.Get("env"),
				Value:     raw,
				Err:       err,
			}
		}
	}

	return nil
}

func implementsText(field reflect.Value) bool {
	return field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType)
}

// setFieldValue define o valor de um campo baseado no seu tipo
func setFieldValue(field reflect.Value, value string) error {
	if implementsText(field) {
		return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(value))
	}

	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintValue, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(uintValue)

	case reflect.Bool:
		boolValue, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		field.SetBool(boolValue)

	case reflect.Float32, reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)

	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}

	return nil
}
