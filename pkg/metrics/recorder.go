package metrics

import (
	"strconv"
	"time"
)

// Nomes das métricas emitidas pelo cliente SimpleDB.
const (
	MetricRequests  = "sdb.requests"
	MetricErrors    = "sdb.errors"
	MetricBoxUsage  = "sdb.box_usage"
	MetricLatencyMs = "sdb.latency_ms"
)

// Call descreve uma troca HTTP com o SimpleDB.
type Call struct {
	Action    string
	Status    int
	Duration  time.Duration
	BoxUsage  float64
	ErrorCode string
}

// Recorder traduz cada Call em métricas do Provider. Falhas do Provider
// são ignoradas: métrica nunca derruba uma chamada.
type Recorder struct {
	provider Provider
}

// NewRecorder aceita provider nil, caso em que nada é enviado.
func NewRecorder(provider Provider) *Recorder {
	return &Recorder{provider: provider}
}

// Record envia requests, latency_ms, box_usage e, em falhas, errors.
func (r *Recorder) Record(c Call) {
	if r == nil || r.provider == nil {
		return
	}

	tags := []string{"action:" + c.Action}
	if c.Status != 0 {
		tags = append(tags, "status:"+strconv.Itoa(c.Status))
	}

	_ = r.provider.Count(MetricRequests, 1, tags)
	_ = r.provider.Histogram(MetricLatencyMs, float64(c.Duration.Microseconds())/1000, tags)
	if c.BoxUsage > 0 {
		_ = r.provider.Histogram(MetricBoxUsage, c.BoxUsage, tags)
	}
	if c.ErrorCode != "" {
		_ = r.provider.Count(MetricErrors, 1, append(tags, "code:"+c.ErrorCode))
	}
}
