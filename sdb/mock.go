package sdb

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPClient é um mock da interface HTTPClient.
//
// Defina `DoFn` para simular o SimpleDB; todas as requisições recebidas
// ficam registradas em `Requests`.
type MockHTTPClient struct {
	DoFn func(req *http.Request) (*http.Response, error)

	mu       sync.Mutex
	Requests []*http.Request
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.DoFn != nil {
		return m.DoFn(req)
	}
	return nil, errors.New("sdb: mock has no DoFn")
}

// Calls retorna quantas requisições foram recebidas.
func (m *MockHTTPClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockResponse monta uma *http.Response com o corpo informado.
func MockResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/xml"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}
