package metrics

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/rules"
)

// MetricType é o tipo declarado em metrics.custom_definitions.
type MetricType string

const (
	TypeCount     MetricType = "count"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
)

// MetricDefinition é o nome real e o tipo de uma métrica customizada.
type MetricDefinition struct {
	Name string
	Type MetricType
}

// Processor avalia regras CEL de métricas customizadas (por item exportado)
// e envia o resultado ao Provider.
type Processor struct {
	definitions map[string]MetricDefinition
	provider    Provider
	ruleManager *rules.RuleManager
}

// NewProcessor cria um processador linkando IDs de configuração aos seus tipos reais.
func NewProcessor(conf []config.CustomMetricDefinition, provider Provider, rm *rules.RuleManager) *Processor {
	defs := make(map[string]MetricDefinition)
	for _, d := range conf {
		defs[d.ID] = MetricDefinition{
			Name: d.Name,
			Type: MetricType(d.Type),
		}
	}

	return &Processor{
		definitions: defs,
		provider:    provider,
		ruleManager: rm,
	}
}

// ProcessRules avalia e registra uma lista de regras de métricas. Para na
// primeira regra inválida.
func (p *Processor) ProcessRules(rules []config.MetricRegistrationRule, vars map[string]interface{}) error {
	for _, rule := range rules {
		if err := p.processSingleRule(rule, vars); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processSingleRule(rule config.MetricRegistrationRule, vars map[string]interface{}) error {
	def, exists := p.definitions[rule.MetricID]
	if !exists {
		return fmt.Errorf("métrica não definida: %s", rule.MetricID)
	}

	rawVal, err := p.ruleManager.EvaluateValue(rule.Value, vars)
	if err != nil {
		return fmt.Errorf("erro ao avaliar valor da métrica %s: %w", rule.MetricID, err)
	}

	val, err := toFloat64(rawVal)
	if err != nil {
		return fmt.Errorf("valor da métrica %s inválido: %w", rule.MetricID, err)
	}

	// tags em ordem de chave para que o mesmo item gere a mesma série
	keys := make([]string, 0, len(rule.Tags))
	for k := range rule.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	finalTags := make([]string, 0, len(keys))
	for _, k := range keys {
		tagVal, err := p.ruleManager.EvaluateValue(rule.Tags[k], vars)
		if err != nil {
			return fmt.Errorf("erro ao avaliar tag %s da métrica %s: %w", k, rule.MetricID, err)
		}
		finalTags = append(finalTags, fmt.Sprintf("%s:%v", k, tagVal))
	}

	switch def.Type {
	case TypeCount:
		return p.provider.Count(def.Name, val, finalTags)
	case TypeGauge:
		return p.provider.Gauge(def.Name, val, finalTags)
	case TypeHistogram:
		return p.provider.Histogram(def.Name, val, finalTags)
	default:
		return fmt.Errorf("tipo de métrica desconhecido: %s", def.Type)
	}
}

// toFloat64 converte o retorno do CEL (int64, uint64, double, string).
func toFloat64(v interface{}) (float64, error) {
	switch i := v.(type) {
	case float64:
		return i, nil
	case float32:
		return float64(i), nil
	case int:
		return float64(i), nil
	case int64:
		return float64(i), nil
	case uint64:
		return float64(i), nil
	case string:
		return strconv.ParseFloat(i, 64)
	default:
		return 0, fmt.Errorf("tipo numérico não suportado: %T", v)
	}
}
