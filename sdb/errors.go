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
package sdb

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

var (
	// ErrValidation é a causa de erros detectados antes de qualquer chamada de rede.
	ErrValidation = errors.New("sdb: validation error")
	// ErrTransport é a causa de falhas de conectividade.
	ErrTransport = errors.New("sdb: transport error")
	// ErrUnexpectedStatus é a causa de respostas não-2xx sem documento de erro.
	ErrUnexpectedStatus = errors.New("sdb: unexpected http status")
	// ErrService é a causa de erros reportados pelo SimpleDB em <Errors>.
	ErrService = errors.New("sdb: service error")
	// ErrFailed é retornado nos modos Ignore e Report; os detalhes ficam em LastErrors.
	ErrFailed = errors.New("sdb: operation failed")
)

// Códigos de erro conhecidos do serviço.
const (
	CodeConditionalCheckFailed       = "ConditionalCheckFailed"
	CodeAttributeDoesNotExist        = "AttributeDoesNotExist"
	CodeIncompleteExpectedValues     = "IncompleteExpectedValues"
	CodeNumberSubmittedItemsExceeded = "NumberSubmittedItemsExceeded"
	CodeNoSuchDomain                 = "NoSuchDomain"
	CodeInvalidParameterValue        = "InvalidParameterValue"
	CodeServiceUnavailable           = "ServiceUnavailable"
	CodeInternalError                = "InternalError"
)

// Kind classifica a origem de um Error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindTransport
	KindUnexpectedStatus
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindTransport:
		return "TransportError"
	case KindUnexpectedStatus:
		return "UnexpectedStatusError"
	case KindService:
		return "ServiceError"
	default:
		return "UnknownError"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindTransport:
		return ErrTransport
	case KindUnexpectedStatus:
		return ErrUnexpectedStatus
	case KindService:
		return ErrService
	default:
		return nil
	}
}

// ErrorRecord é uma entrada de erro associada ao método que a gerou.
type ErrorRecord struct {
	Method  string
	Code    string
	Message string
	// Info guarda dados adicionais, por exemplo o BoxUsage de um <Error>.
	Info map[string]string
}

func (r ErrorRecord) String() string {
	return fmt.Sprintf("SimpleDB::%s(): %s %s", r.Method, r.Code, r.Message)
}

// Errors é uma coleção ordenada de ErrorRecord.
type Errors []ErrorRecord

// String formata um registro por linha.
func (e Errors) String() string {
	var b strings.Builder
	for _, r := range e {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// HTML formata os registros como uma lista <ul>.
func (e Errors) HTML() string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, r := range e {
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(r.String()))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// Codes retorna os códigos na ordem dos registros.
func (e Errors) Codes() []string {
	codes := make([]string, len(e))
	for i, r := range e {
		codes[i] = r.Code
	}
	return codes
}

// Error é o erro retornado pelas operações do cliente no modo Raise.
type Error struct {
	Kind       Kind
	Method     string
	StatusCode int
	Records    Errors
	// Err é a causa original, quando existe (ex: erro de rede).
	Err error
}

// Error retorna o primeiro registro e quantos outros existem.
//
// Exemplo de Retorno: "sdb: PutAttributes: ServiceError ConditionalCheckFailed: Conditional check failed"
func (e *Error) Error() string {
	msg := fmt.Sprintf("sdb: %s: %s", e.Method, e.Kind)
	if len(e.Records) > 0 {
		msg += fmt.Sprintf(" %s: %s", e.Records[0].Code, e.Records[0].Message)
	}
	if len(e.Records) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Records)-1)
	}
	return msg
}

// Is permite errors.Is(err, sdb.ErrService) e similares.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasCode informa se algum registro possui o código informado.
func (e *Error) HasCode(code string) bool {
	for _, r := range e.Records {
		if r.Code == code {
			return true
		}
	}
	return false
}

// HasCode informa se err (ou algo que ele encapsula) é um *Error com o código informado.
func HasCode(err error, code string) bool {
	var sdbErr *Error
	if !errors.As(err, &sdbErr) {
		return false
	}
	return sdbErr.HasCode(code)
}

func validationError(method, code, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Method:  method,
		Records: Errors{{Method: method, Code: code, Message: fmt.Sprintf(format, args...)}},
	}
}

func transportError(method string, err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Method:  method,
		Records: Errors{{Method: method, Code: "Transport", Message: err.Error()}},
		Err:     err,
	}
}

// FlushError descreve o resultado de um flush que não foi totalmente aceito.
// Os lotes anteriores ao primeiro erro permanecem gravados no serviço; o
// lote rejeitado e os seguintes continuam na fila (Pending operações).
type FlushError struct {
	Method  string
	Domain  string
	Chunks  []ChunkResult
	Pending int
}

// ChunkResult é o resultado de um lote enviado durante o flush.
type ChunkResult struct {
	Domain string
	Index  int
	Items  []string
	Err    error
}

func (e *FlushError) Error() string {
	failed := 0
	for _, c := range e.Chunks {
		if c.Err != nil {
			failed++
		}
	}
	return fmt.Sprintf("sdb: %s: flush of domain %s failed: %d of %d chunks rejected, %d operations pending",
		e.Method, e.Domain, failed, len(e.Chunks), e.Pending)
}

// Unwrap retorna o erro do primeiro lote rejeitado.
func (e *FlushError) Unwrap() error {
	for _, c := range e.Chunks {
		if c.Err != nil {
			return c.Err
		}
	}
	return nil
}
