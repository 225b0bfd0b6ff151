package rules

import (
	"fmt"
	"strings"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
)

// ValidationReport contém o resultado detalhado da análise.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Analyze compila todas as expressões CEL do export sem avaliá-las.
// Complementa o config.Validate, que só confere a estrutura.
func Analyze(cfg config.ExportConf) (*ValidationReport, error) {
	report := &ValidationReport{Valid: true}

	rm, err := NewRuleManager()
	if err != nil {
		return nil, fmt.Errorf("falha interna ao iniciar analisador de regras: %w", err)
	}

	check := func(where, expr string) {
		if expr == "" {
			return
		}
		if err := rm.Compile(expr); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", where, err))
		}
	}

	check("Export.Filter", cfg.Filter)
	if cfg.Filter != "" && cfg.Sink == "" {
		report.Warnings = append(report.Warnings, "Export.Filter definido sem sink")
	}

	targets := make(map[string]string)
	for _, t := range cfg.Transformations {
		check(fmt.Sprintf("Export.Transform[%s].Condition", t.Name), t.Condition)
		check(fmt.Sprintf("Export.Transform[%s].Value", t.Name), t.Value)
		check(fmt.Sprintf("Export.Transform[%s].ElseValue", t.Name), t.ElseValue)

		attr := strings.TrimPrefix(t.Target, "attrs.")
		if strings.Contains(attr, ".") {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Export.Transform[%s]: alvo '%s' será gravado como o atributo '%s'", t.Name, t.Target, attr))
		}
		if prev, ok := targets[attr]; ok && t.ElseValue == "" && t.Condition == "true" {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Export.Transform[%s]: sobrescreve sempre o atributo '%s' de '%s'", t.Name, attr, prev))
		}
		targets[attr] = t.Name
	}

	for _, m := range cfg.Metrics {
		check(fmt.Sprintf("Export.Metric[%s].Value", m.MetricID), m.Value)
		for k, v := range m.Tags {
			check(fmt.Sprintf("Export.Metric[%s].Tag[%s]", m.MetricID, k), v)
		}
	}

	report.Valid = len(report.Errors) == 0
	return report, nil
}
