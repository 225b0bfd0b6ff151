package transport

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/raywall/fast-sdb-toolkit/pkg/export"
	"github.com/rs/zerolog"
)

// SQSClient define a interface necessária para o worker (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSWorker consome pedidos de export por long polling. A mensagem só é
// removida após sucesso ou quando o pedido é inválido; nos demais casos ela
// volta à fila ao fim do visibility timeout.
type SQSWorker struct {
	client   SQSClient
	queueURL string
	jobs     *Jobs
	logger   zerolog.Logger

	errorBackoff time.Duration
	sleep        func(context.Context, time.Duration)
}

func NewSQSWorker(client SQSClient, queueURL string, jobs *Jobs, log zerolog.Logger) *SQSWorker {
	return &SQSWorker{
		client:       client,
		queueURL:     queueURL,
		jobs:         jobs,
		logger:       log.With().Str("component", "sqs_worker").Logger(),
		errorBackoff: 5 * time.Second,
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Start bloqueia até ctx ser cancelado.
func (w *SQSWorker) Start(ctx context.Context) {
	w.logger.Info().Str("queue", w.queueURL).Msg("📡 aguardando pedidos de export")

	for {
		if ctx.Err() != nil {
			w.logger.Info().Msg("worker encerrado")
			return
		}

		out, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(w.queueURL),
			MaxNumberOfMessages:   1,
			WaitTimeSeconds:       20, // Long polling
			MessageAttributeNames: []string{HeaderCorrelationID},
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Dur("wait", w.errorBackoff).Msg("erro no SQS, tentando novamente")
			w.sleep(ctx, w.errorBackoff)
			continue
		}

		for _, msg := range out.Messages {
			w.handle(ctx, msg)
		}
	}
}

func (w *SQSWorker) handle(ctx context.Context, msg types.Message) {
	corrID := aws.ToString(msg.MessageId)
	if attr, ok := msg.MessageAttributes[HeaderCorrelationID]; ok && attr.StringValue != nil {
		corrID = *attr.StringValue
	}
	logger := w.logger.With().Str("correlation_id", corrID).Logger()

	req, err := Decode([]byte(aws.ToString(msg.Body)))
	if err == nil {
		var stats export.Stats
		stats, err = w.jobs.Execute(logger.WithContext(ctx), req)
		logger.Info().Int("written", stats.Written).Err(err).Msg("pedido processado")
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrBadRequest):
		logger.Error().Err(err).Msg("pedido inválido descartado")
	default:
		logger.Warn().Err(err).Msg("❌ export falhou, mensagem volta para a fila")
		return
	}

	if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		logger.Error().Err(err).Msg("falha ao remover mensagem")
	}
}
