// Package transport expõe o export como serviço: endpoint HTTP, handler de
// Lambda acionado por SQS e worker de long polling. Os três recebem o mesmo
// pedido JSON e delegam para um Runner novo a cada execução.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raywall/fast-sdb-toolkit/pkg/export"
	"github.com/raywall/fast-sdb-toolkit/sdb"
	"github.com/rs/zerolog"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
)

// ErrBadRequest indica um pedido que nunca vai ter sucesso, seja qual for
// a tentativa.
var ErrBadRequest = errors.New("transport: invalid export request")

// ExportRequest é o corpo aceito pelos três runtimes.
type ExportRequest struct {
	Query      string `json:"query"`
	Consistent bool   `json:"consistent,omitempty"`
	NextToken  string `json:"next_token,omitempty"`
}

func (r ExportRequest) options() []sdb.SelectOption {
	var opts []sdb.SelectOption
	if r.Consistent {
		opts = append(opts, sdb.WithConsistentRead())
	}
	if r.NextToken != "" {
		opts = append(opts, sdb.WithNextToken(r.NextToken))
	}
	return opts
}

// Runner executa um export. *export.Exporter satisfaz a interface.
type Runner interface {
	Run(ctx context.Context, expr string, opts ...sdb.SelectOption) (export.Stats, error)
}

// RunnerFactory cria um Runner por pedido, já que o sink é fechado ao fim
// de cada Run.
type RunnerFactory func(ctx context.Context) (Runner, error)

// Jobs decodifica pedidos e os executa com timeout.
type Jobs struct {
	newRunner RunnerFactory
	timeout   time.Duration
}

func NewJobs(newRunner RunnerFactory, timeout time.Duration) *Jobs {
	return &Jobs{newRunner: newRunner, timeout: timeout}
}

// Decode valida o corpo de um pedido.
func Decode(body []byte) (ExportRequest, error) {
	var req ExportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if req.Query == "" {
		return req, fmt.Errorf("%w: query is required", ErrBadRequest)
	}
	return req, nil
}

// Execute roda um pedido já decodificado.
func (j *Jobs) Execute(ctx context.Context, req ExportRequest) (export.Stats, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	runner, err := j.newRunner(ctx)
	if err != nil {
		return export.Stats{}, err
	}

	zerolog.Ctx(ctx).Debug().Str("query", req.Query).Msg("iniciando export")
	return runner.Run(ctx, req.Query, req.options()...)
}
