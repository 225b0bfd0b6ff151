package metrics

// Provider recebe as métricas do cliente SimpleDB e do export.
// observability.SetupMetrics escolhe entre Datadog e um Provider que
// descarta tudo; testes usam implementações em memória.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}
