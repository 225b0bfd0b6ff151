package observability

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/metrics"
	"github.com/rs/zerolog"
)

// NoopProvider é um placeholder para quando métricas estão desabilitadas.
type NoopProvider struct{}

func (n *NoopProvider) Count(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Gauge(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Histogram(name string, value float64, tags []string) error { return nil }

// DatadogProvider adapta a lib oficial do Datadog para nossa interface.
type DatadogProvider struct {
	client statsd.ClientInterface
}

func (d *DatadogProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(value), tags, 1)
}

func (d *DatadogProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, tags, 1)
}

func (d *DatadogProvider) Histogram(name string, value float64, tags []string) error {
	return d.client.Histogram(name, value, tags, 1)
}

// Close descarrega o buffer do statsd.
func (d *DatadogProvider) Close() error {
	return d.client.Close()
}

// LogProvider escreve cada métrica como evento debug. Útil localmente,
// quando não há agente statsd.
type LogProvider struct {
	Logger zerolog.Logger
}

func (l *LogProvider) Count(name string, value float64, tags []string) error {
	l.emit("count", name, value, tags)
	return nil
}

func (l *LogProvider) Gauge(name string, value float64, tags []string) error {
	l.emit("gauge", name, value, tags)
	return nil
}

func (l *LogProvider) Histogram(name string, value float64, tags []string) error {
	l.emit("histogram", name, value, tags)
	return nil
}

func (l *LogProvider) emit(kind, name string, value float64, tags []string) {
	l.Logger.Debug().
		Str("metric_type", kind).
		Str("metric", name).
		Float64("value", value).
		Strs("tags", tags).
		Msg("metric")
}

// SetupMetrics inicializa o provedor correto baseado na configuração.
func SetupMetrics(cfg config.MetricsConf) (metrics.Provider, error) {
	if !cfg.Datadog.Enabled {
		return &NoopProvider{}, nil
	}

	opts := []statsd.Option{
		statsd.WithNamespace(cfg.Datadog.Namespace),
	}

	client, err := statsd.New(cfg.Datadog.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no datadog statsd: %w", err)
	}

	return &DatadogProvider{client: client}, nil
}
