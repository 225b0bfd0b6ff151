package metrics

import (
	"testing"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider guarda cada chamada recebida.
type fakeProvider struct {
	calls []recordedCall
}

type recordedCall struct {
	Type  string
	Name  string
	Value float64
	Tags  []string
}

func (f *fakeProvider) Count(name string, val float64, tags []string) error {
	f.calls = append(f.calls, recordedCall{"count", name, val, tags})
	return nil
}

func (f *fakeProvider) Gauge(name string, val float64, tags []string) error {
	f.calls = append(f.calls, recordedCall{"gauge", name, val, tags})
	return nil
}

func (f *fakeProvider) Histogram(name string, val float64, tags []string) error {
	f.calls = append(f.calls, recordedCall{"histogram", name, val, tags})
	return nil
}

func (f *fakeProvider) last() recordedCall {
	return f.calls[len(f.calls)-1]
}

func TestProcessor_ProcessRules(t *testing.T) {
	rm, err := rules.NewRuleManager()
	require.NoError(t, err)
	provider := &fakeProvider{}

	defs := []config.CustomMetricDefinition{
		{ID: "exported", Name: "export.items", Type: "count"},
		{ID: "total", Name: "export.order_total", Type: "gauge"},
		{ID: "size", Name: "export.attr_count", Type: "histogram"},
	}
	processor := NewProcessor(defs, provider, rm)

	vars := rules.ItemVars("order-1", map[string][]string{
		"currency": {"BRL"},
		"total":    {"150"},
	})

	t.Run("Deve registrar Count com tags dinâmicas", func(t *testing.T) {
		err := processor.ProcessRules([]config.MetricRegistrationRule{{
			MetricID: "exported",
			Value:    "1",
			Tags: map[string]string{
				"env":      "'prod'",
				"currency": "attr.currency",
			},
		}}, vars)
		require.NoError(t, err)

		got := provider.last()
		assert.Equal(t, "count", got.Type)
		assert.Equal(t, "export.items", got.Name)
		assert.Equal(t, 1.0, got.Value)
		assert.Equal(t, []string{"currency:BRL", "env:prod"}, got.Tags)
	})

	t.Run("Deve registrar Gauge com valor de atributo", func(t *testing.T) {
		err := processor.ProcessRules([]config.MetricRegistrationRule{{
			MetricID: "total",
			Value:    "attr.total",
		}}, vars)
		require.NoError(t, err)

		got := provider.last()
		assert.Equal(t, "gauge", got.Type)
		assert.Equal(t, 150.0, got.Value)
	})

	t.Run("Deve registrar Histogram", func(t *testing.T) {
		err := processor.ProcessRules([]config.MetricRegistrationRule{{
			MetricID: "size",
			Value:    "size(attrs)",
		}}, vars)
		require.NoError(t, err)
		assert.Equal(t, recordedCall{"histogram", "export.attr_count", 2, []string{}}, provider.last())
	})

	t.Run("Métrica não definida", func(t *testing.T) {
		err := processor.ProcessRules([]config.MetricRegistrationRule{{MetricID: "nope", Value: "1"}}, vars)
		assert.ErrorContains(t, err, "métrica não definida")
	})

	t.Run("Valor não numérico", func(t *testing.T) {
		err := processor.ProcessRules([]config.MetricRegistrationRule{{MetricID: "total", Value: "attr.currency"}}, vars)
		assert.Error(t, err)
	})
}
