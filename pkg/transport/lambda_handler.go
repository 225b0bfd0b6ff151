package transport

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/raywall/fast-sdb-toolkit/pkg/export"
	"github.com/rs/zerolog"
)

// LambdaHandler processa pedidos de export entregues por uma fila SQS.
// Mensagens com falha voltam em BatchItemFailures; pedidos malformados são
// descartados, já que nenhuma nova entrega os corrigiria.
type LambdaHandler struct {
	jobs *Jobs
	log  zerolog.Logger
}

func NewLambdaHandler(jobs *Jobs, log zerolog.Logger) *LambdaHandler {
	return &LambdaHandler{jobs: jobs, log: log.With().Str("component", "lambda").Logger()}
}

// Handle exige ReportBatchItemFailures habilitado no event source mapping.
func (h *LambdaHandler) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, msg := range ev.Records {
		start := time.Now()
		logger := h.log.With().
			Str("correlation_id", correlationID(msg)).
			Str("message_id", msg.MessageId).
			Logger()
		mctx := logger.WithContext(ctx)

		req, err := Decode([]byte(msg.Body))
		if err == nil {
			var stats export.Stats
			stats, err = h.jobs.Execute(mctx, req)
			logger.Info().
				Int("written", stats.Written).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Err(err).
				Msg("mensagem processada")
		}

		switch {
		case err == nil:
		case errors.Is(err, ErrBadRequest):
			logger.Error().Err(err).Msg("pedido inválido descartado")
		default:
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: msg.MessageId,
			})
		}
	}
	return resp, nil
}

func correlationID(msg events.SQSMessage) string {
	if attr, ok := msg.MessageAttributes[HeaderCorrelationID]; ok && attr.StringValue != nil {
		return *attr.StringValue
	}
	if msg.MessageId != "" {
		return msg.MessageId
	}
	return uuid.NewString()
}
