package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load monta as Settings: envDefault, arquivo YAML (opcional, path vazio
// ignora) e variáveis de ambiente, nessa ordem. O resultado é validado.
func Load(path string) (*Settings, error) {
	s := &Settings{}
	if err := ApplyDefaults(s); err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := LoadEnv(s); err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// MustLoad é similar ao Load, mas panic em caso de erro
func MustLoad(path string) *Settings {
	s, err := Load(path)
	if err != nil {
		panic(err)
	}
	return s
}
