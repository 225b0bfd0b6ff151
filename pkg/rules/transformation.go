package rules

import (
	"fmt"
	"strings"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
)

// TransformationResult contém o resultado de uma operação de transformação.
type TransformationResult struct {
	Applied bool
	Target  string
	Value   interface{}
}

// Attribute devolve o nome do atributo alvo, aceitando "attrs.x" ou "x".
func (r *TransformationResult) Attribute() string {
	return strings.TrimPrefix(r.Target, "attrs.")
}

// ExecuteTransformation processa uma regra de transformação completa.
// Verifica a condição e, se atendida, calcula o valor. Se não, verifica o ElseValue.
func (rm *RuleManager) ExecuteTransformation(rule config.TransformationRule, vars map[string]interface{}) (*TransformationResult, error) {
	conditionMet, err := rm.EvaluateBool(rule.Condition, vars)
	if err != nil {
		return nil, fmt.Errorf("falha ao avaliar condição da transformação '%s': %w", rule.Name, err)
	}

	exprToEvaluate := rule.Value
	if !conditionMet {
		if rule.ElseValue == "" {
			return &TransformationResult{Applied: false}, nil
		}
		exprToEvaluate = rule.ElseValue
	}

	val, err := rm.EvaluateValue(exprToEvaluate, vars)
	if err != nil {
		return nil, fmt.Errorf("falha ao calcular valor da transformação '%s': %w", rule.Name, err)
	}

	return &TransformationResult{
		Target:  rule.Target,
		Value:   val,
		Applied: true,
	}, nil
}

// ApplyTransformations executa as regras em ordem sobre os atributos do
// item. Cada resultado aplicado substitui o atributo alvo por um único
// valor, e as regras seguintes já enxergam o valor novo.
func (rm *RuleManager) ApplyTransformations(rules []config.TransformationRule, name string, attrs map[string][]string) (map[string][]string, error) {
	out := make(map[string][]string, len(attrs))
	for k, v := range attrs {
		out[k] = append([]string(nil), v...)
	}

	for _, rule := range rules {
		res, err := rm.ExecuteTransformation(rule, ItemVars(name, out))
		if err != nil {
			return nil, err
		}
		if !res.Applied {
			continue
		}
		out[res.Attribute()] = []string{fmt.Sprint(res.Value)}
	}
	return out, nil
}
