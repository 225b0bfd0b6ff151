package rules

import (
	"testing"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteTransformation(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	vars := ItemVars("order-1", map[string][]string{
		"total":  {"100.0"},
		"status": {"vip"},
	})

	tests := []struct {
		name          string
		rule          config.TransformationRule
		expectApplied bool
		expectValue   interface{}
		expectTarget  string
		expectError   bool
	}{
		{
			name: "Sucesso - Condição Verdadeira com Cálculo",
			rule: config.TransformationRule{
				Name:      "calc_desconto",
				Condition: "double(attr.total) >= 100.0",
				Value:     "double(attr.total) * 0.1",
				Target:    "attrs.desconto",
			},
			expectApplied: true,
			expectValue:   10.0,
			expectTarget:  "attrs.desconto",
		},
		{
			name: "Sucesso - Condição Falsa com Else Value",
			rule: config.TransformationRule{
				Name:      "default_taxa",
				Condition: "attr.status == 'regular'",
				Value:     "15",
				ElseValue: "5",
				Target:    "taxa",
			},
			expectApplied: true,
			expectValue:   int64(5), // literais inteiros no CEL retornam int64
			expectTarget:  "taxa",
		},
		{
			name: "Ignorado - Condição Falsa sem Else",
			rule: config.TransformationRule{
				Name:      "bonus_extra",
				Condition: "double(attr.total) > 1000.0",
				Value:     "500",
				Target:    "bonus",
			},
			expectApplied: false,
		},
		{
			name: "Erro - Condição Inválida",
			rule: config.TransformationRule{
				Name:      "erro_sintaxe",
				Condition: "attr.total > 1",
				Value:     "1",
				Target:    "erro",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rm.ExecuteTransformation(tt.rule, vars)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.expectApplied, res.Applied)
			if tt.expectApplied {
				assert.Equal(t, tt.expectValue, res.Value)
				assert.Equal(t, tt.expectTarget, res.Target)
			}
		})
	}
}

func TestApplyTransformations(t *testing.T) {
	rm, err := NewRuleManager()
	require.NoError(t, err)

	in := map[string][]string{"first": {"Ana"}, "last": {"Silva"}}
	rules := []config.TransformationRule{
		{Name: "full", Condition: "true", Value: "attr.first + ' ' + attr.last", Target: "attrs.full"},
		{Name: "upper", Condition: "'full' in attr", Value: "attr.full.size()", Target: "len"},
	}

	out, err := rm.ApplyTransformations(rules, "u1", in)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ana Silva"}, out["full"])
	assert.Equal(t, []string{"9"}, out["len"])
	// entrada intacta
	assert.NotContains(t, in, "full")
}
