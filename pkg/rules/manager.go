package rules

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// RuleManager gerencia a compilação e avaliação de expressões CEL sobre
// itens do SimpleDB. Programas compilados ficam em cache por expressão.
type RuleManager struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewRuleManager inicializa o ambiente CEL com as variáveis de item.
//
//	name  - nome do item
//	attrs - map nome -> lista de valores
//	attr  - map nome -> primeiro valor
//	env   - variáveis de ambiente do processo
func NewRuleManager() (*RuleManager, error) {
	env, err := cel.NewEnv(
		cel.StdLib(),
		cel.Variable("name", cel.StringType),
		cel.Variable("attrs", cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
		cel.Variable("attr", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("env", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("erro fatal CEL init: %w", err)
	}

	return &RuleManager{env: env, programs: make(map[string]cel.Program)}, nil
}

// EvaluateBool processa regras de filtro (deve retornar true/false).
func (rm *RuleManager) EvaluateBool(expression string, vars map[string]interface{}) (bool, error) {
	if expression == "" {
		return true, nil // Expressão vazia = aprova
	}

	out, err := rm.eval(expression, vars)
	if err != nil {
		return false, err
	}

	if val, ok := out.(bool); ok {
		return val, nil
	}
	return false, fmt.Errorf("resultado não é booleano: %T", out)
}

// EvaluateValue processa regras de transformação (retorna um valor dinâmico).
func (rm *RuleManager) EvaluateValue(expression string, vars map[string]interface{}) (interface{}, error) {
	if expression == "" {
		return nil, nil
	}
	return rm.eval(expression, vars)
}

// Compile valida a expressão sem avaliá-la. Usado na carga da configuração
// para falhar cedo.
func (rm *RuleManager) Compile(expression string) error {
	_, err := rm.program(expression)
	return err
}

func (rm *RuleManager) eval(expression string, vars map[string]interface{}) (interface{}, error) {
	prg, err := rm.program(expression)
	if err != nil {
		return nil, err
	}

	out, _, err := prg.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("erro execução CEL '%s': %w", expression, err)
	}
	return out.Value(), nil
}

func (rm *RuleManager) program(expression string) (cel.Program, error) {
	rm.mu.RLock()
	prg, ok := rm.programs[expression]
	rm.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := rm.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("erro compilação CEL '%s': %w", expression, issues.Err())
	}

	prg, err := rm.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar programa CEL: %w", err)
	}

	rm.mu.Lock()
	rm.programs[expression] = prg
	rm.mu.Unlock()
	return prg, nil
}

var (
	envOnce sync.Once
	envVars map[string]string
)

func processEnv() map[string]string {
	envOnce.Do(func() {
		envVars = make(map[string]string)
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				envVars[k] = v
			}
		}
	})
	return envVars
}

// ItemVars monta as variáveis CEL de um item.
func ItemVars(name string, attrs map[string][]string) map[string]interface{} {
	first := make(map[string]string, len(attrs))
	for k, vs := range attrs {
		if len(vs) > 0 {
			first[k] = vs[0]
		}
	}
	if attrs == nil {
		attrs = map[string][]string{}
	}

	return map[string]interface{}{
		"name":  name,
		"attrs": attrs,
		"attr":  first,
		"env":   processEnv(),
	}
}
