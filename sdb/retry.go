package sdb

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryDelayFunc recebe quantas tentativas já falharam e retorna quanto
// esperar antes da próxima. O cliente nunca repete chamadas sozinho.
type RetryDelayFunc func(retries int) time.Duration

// RetryDelay executa o callback configurado; sem callback retorna 0.
func (c *Client) RetryDelay(retries int) time.Duration {
	if c.cfg.RetryDelay == nil {
		return 0
	}
	return c.cfg.RetryDelay(retries)
}

// ExponentialRetryDelay cria um RetryDelayFunc determinístico: initial na
// primeira tentativa, multiplicado por 1.5 a cada nova tentativa, até max.
func ExponentialRetryDelay(initial, max time.Duration) RetryDelayFunc {
	return func(retries int) time.Duration {
		if retries <= 0 {
			return 0
		}
		boff := backoff.NewExponentialBackOff()
		boff.InitialInterval = initial
		boff.MaxInterval = max
		boff.MaxElapsedTime = 0
		boff.RandomizationFactor = 0
		boff.Reset()

		var d time.Duration
		for i := 0; i < retries; i++ {
			d = boff.NextBackOff()
		}
		return d
	}
}

// IsRetryable informa se o erro é transitório (ServiceUnavailable,
// InternalError, HTTP 5xx ou falha de transporte).
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var sdbErr *Error
	if !errors.As(err, &sdbErr) {
		return false
	}
	switch sdbErr.Kind {
	case KindTransport:
		return sdbErr.Err != nil
	case KindService, KindUnexpectedStatus:
		if sdbErr.HasCode(CodeServiceUnavailable) || sdbErr.HasCode(CodeInternalError) {
			return true
		}
		return sdbErr.StatusCode >= 500
	}
	return false
}
