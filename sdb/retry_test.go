package sdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialRetryDelay(t *testing.T) {
	delay := ExponentialRetryDelay(100*time.Millisecond, 300*time.Millisecond)

	assert.Zero(t, delay(0))
	assert.Equal(t, 100*time.Millisecond, delay(1))
	assert.Equal(t, 150*time.Millisecond, delay(2))
	assert.Equal(t, 225*time.Millisecond, delay(3))
	assert.Equal(t, 300*time.Millisecond, delay(4))
	assert.Equal(t, 300*time.Millisecond, delay(10))
}

func TestClient_RetryDelay(t *testing.T) {
	c, err := New(Config{AccessKey: "a", SecretKey: "b"})
	assert.NoError(t, err)
	assert.Zero(t, c.RetryDelay(3))

	c, err = New(Config{AccessKey: "a", SecretKey: "b", RetryDelay: func(n int) time.Duration {
		return time.Duration(n) * time.Second
	}})
	assert.NoError(t, err)
	assert.Equal(t, 3*time.Second, c.RetryDelay(3))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"outro erro", fmt.Errorf("x"), false},
		{"cancelado", transportError("Select", context.Canceled), false},
		{"validação", validationError("Select", CodeInvalidParameterValue, "x"), false},
		{"serviço indisponível", &Error{Kind: KindService, StatusCode: 503, Records: Errors{{Code: CodeServiceUnavailable}}}, true},
		{"erro interno com 200", &Error{Kind: KindService, StatusCode: 200, Records: Errors{{Code: CodeInternalError}}}, true},
		{"condicional", &Error{Kind: KindService, StatusCode: 409, Records: Errors{{Code: CodeConditionalCheckFailed}}}, false},
		{"status 500", &Error{Kind: KindUnexpectedStatus, StatusCode: 500}, true},
		{"embrulhado", fmt.Errorf("ctx: %w", &Error{Kind: KindService, StatusCode: 503}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
