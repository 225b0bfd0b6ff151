package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/export"
	"github.com/raywall/fast-sdb-toolkit/pkg/transport"
	"github.com/raywall/fast-sdb-toolkit/tools/emulator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu      sync.Mutex
	records []export.Record
}

func (m *memSink) Write(_ context.Context, records []export.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *memSink) Close(context.Context) error { return nil }

func (m *memSink) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type emptyQueue struct {
	cancel   context.CancelFunc
	received int
}

func (q *emptyQueue) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q.received++
	q.cancel()
	return &sqs.ReceiveMessageOutput{}, nil
}

func (q *emptyQueue) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	return &sqs.DeleteMessageOutput{}, nil
}

// setup sobe um emulador com três itens e devolve o sink em memória usado
// por todos os exports.
func setup(t *testing.T, runtime string) *memSink {
	t.Helper()
	ts := httptest.NewServer(emulator.New(emulator.Options{PageSize: 2, Seed: emulator.Seed{
		"jobs": {
			"j1": {"status": {"open"}},
			"j2": {"status": {"done"}},
			"j3": {"status": {"open"}},
		},
	}}))
	t.Cleanup(ts.Close)

	t.Setenv("SDB_HOST", strings.TrimPrefix(ts.URL, "http://"))
	t.Setenv("SDB_DISABLE_SSL", "true")
	t.Setenv("SDB_ACCESS_KEY", "local")
	t.Setenv("SDB_SECRET_KEY", "local")
	t.Setenv("LOG_ENABLED", "false")
	t.Setenv("EXPORT_SINK", "sqs")
	t.Setenv("EXPORT_SQS_QUEUE_URL", "http://localhost:4566/000000000000/out")
	t.Setenv("RUNNER_RUNTIME", runtime)
	t.Setenv("RUNNER_QUEUE_URL", "http://localhost:4566/000000000000/requests")

	sink := &memSink{}
	original := newSink
	t.Cleanup(func() { newSink = original })
	newSink = func(context.Context, config.ExportConf, string) (export.Sink, error) { return sink, nil }
	return sink
}

func TestRun_Local(t *testing.T) {
	sink := setup(t, "local")

	var handler http.Handler
	original := serverStarter
	defer func() { serverStarter = original }()
	serverStarter = func(addr string, h http.Handler, _ zerolog.Logger) error {
		assert.Equal(t, ":8081", addr)
		handler = h
		return nil
	}

	require.NoError(t, run(context.Background(), ""))
	require.NotNil(t, handler)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader(`{"query":"select * from jobs where status = 'open'"}`))
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"Written":2`)
	assert.Equal(t, 2, sink.len())
}

func TestRun_Lambda(t *testing.T) {
	sink := setup(t, "lambda")

	var handle func(context.Context, events.SQSEvent) (events.SQSEventResponse, error)
	original := lambdaStarter
	defer func() { lambdaStarter = original }()
	lambdaStarter = func(h interface{}) {
		handle = h.(func(context.Context, events.SQSEvent) (events.SQSEventResponse, error))
	}

	require.NoError(t, run(context.Background(), ""))
	require.NotNil(t, handle)

	resp, err := handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{
		{MessageId: "m1", Body: `{"query":"select * from jobs"}`},
		{MessageId: "m2", Body: `{"query":"select * from missing"}`},
	}})
	require.NoError(t, err)
	assert.Equal(t, []events.SQSBatchItemFailure{{ItemIdentifier: "m2"}}, resp.BatchItemFailures)
	assert.Equal(t, 3, sink.len())
}

func TestRun_Worker(t *testing.T) {
	setup(t, "worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue := &emptyQueue{cancel: cancel}

	original := newSQSClient
	defer func() { newSQSClient = original }()
	newSQSClient = func(context.Context, string, string) (transport.SQSClient, error) { return queue, nil }

	require.NoError(t, run(ctx, ""))
	assert.Equal(t, 1, queue.received)
}

func TestRun_Errors(t *testing.T) {
	setup(t, "local")

	t.Run("sem sink", func(t *testing.T) {
		t.Setenv("EXPORT_SINK", "")
		assert.ErrorContains(t, run(context.Background(), ""), "EXPORT_SINK")
	})

	t.Run("runtime desconhecido", func(t *testing.T) {
		t.Setenv("RUNNER_RUNTIME", "k8s")
		assert.ErrorContains(t, run(context.Background(), ""), "Runtime")
	})
}
