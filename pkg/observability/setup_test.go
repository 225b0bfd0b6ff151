package observability

import (
	"bytes"
	"testing"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMetrics(t *testing.T) {
	t.Run("Disabled returns Noop", func(t *testing.T) {
		provider, err := SetupMetrics(config.MetricsConf{Datadog: config.DatadogConf{Enabled: false}})
		require.NoError(t, err)
		assert.IsType(t, &NoopProvider{}, provider)
		assert.NoError(t, provider.Count("x", 1, nil))
	})

	t.Run("Enabled returns Datadog", func(t *testing.T) {
		provider, err := SetupMetrics(config.MetricsConf{
			Datadog: config.DatadogConf{Enabled: true, Addr: "localhost:8125", Namespace: "sdb."},
		})
		require.NoError(t, err)

		dd, ok := provider.(*DatadogProvider)
		require.True(t, ok, "esperado DatadogProvider, recebido %T", provider)
		assert.NoError(t, dd.Gauge("queue.size", 3, []string{"domain:users"}))
		assert.NoError(t, dd.Close())
	})
}

func TestLogProvider(t *testing.T) {
	var buf bytes.Buffer
	p := &LogProvider{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	require.NoError(t, p.Histogram("sdb.latency_ms", 12.5, []string{"action:Select"}))
	assert.Contains(t, buf.String(), `"metric":"sdb.latency_ms"`)
	assert.Contains(t, buf.String(), `"metric_type":"histogram"`)
	assert.Contains(t, buf.String(), `"tags":["action:Select"]`)
}
