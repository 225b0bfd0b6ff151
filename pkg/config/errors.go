// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package config

import (
	"fmt"
	"reflect"
)

// InvalidTargetError é retornado quando LoadEnv recebe algo que não é um
// ponteiro para struct.
type InvalidTargetError struct {
	Value reflect.Type
}

// Exemplo de Retorno: "config: target must be a pointer to struct, got string"
func (e *InvalidTargetError) Error() string {
	if e.Value == nil {
		return "config: target must be a pointer to struct, got nil"
	}
	if e.Value.Kind() != reflect.Ptr {
		return fmt.Sprintf("config: target must be a pointer to struct, got %s", e.Value.Kind())
	}
	return fmt.Sprintf("config: target must be a pointer to struct, got pointer to %s", e.Value.Elem().Kind())
}

// FieldError indica que o valor de uma variável (ou de um envDefault) não
// pôde ser convertido para o tipo do campo.
type FieldError struct {
	// FieldName é o nome do campo da struct (ex: "Timeout").
	FieldName string
	// EnvVar é o nome da variável de ambiente (ex: "SDB_TIMEOUT").
	EnvVar string
	// Value é o valor bruto que causou o erro.
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: error setting field %s from env %s=%s: %v",
		e.FieldName, e.EnvVar, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// UnsupportedTypeError é retornado para campos com tag env cujo tipo não
// tem conversão (ex: map, slice).
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("config: unsupported type %s", e.Type)
}
