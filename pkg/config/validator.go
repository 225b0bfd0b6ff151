package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var sqlIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *Settings) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *Settings) error {
	// 1. Credenciais exigidas por origem
	creds := cfg.Credentials
	switch creds.Source {
	case "static":
		if creds.AccessKey == "" || creds.SecretKey == "" {
			return fmt.Errorf("credentials.source 'static' exige access_key e secret_key")
		}
	case "ssm":
		if creds.AccessKeyParam == "" || creds.SecretKeyParam == "" {
			return fmt.Errorf("credentials.source 'ssm' exige access_key_param e secret_key_param")
		}
	case "secretsmanager":
		if creds.SecretID == "" {
			return fmt.Errorf("credentials.source 'secretsmanager' exige secret_id")
		}
	}

	// 2. Unicidade dos IDs de métricas customizadas
	seenIDs := make(map[string]bool)
	for _, def := range cfg.Metrics.CustomDefinitions {
		if seenIDs[def.ID] {
			return fmt.Errorf("métrica customizada com ID duplicado: '%s'", def.ID)
		}
		seenIDs[def.ID] = true
	}
	for _, rule := range cfg.Export.Metrics {
		if !seenIDs[rule.MetricID] {
			return fmt.Errorf("export.metrics referencia métrica não definida: '%s'", rule.MetricID)
		}
	}

	// 3. Parâmetros obrigatórios do sink escolhido
	exp := cfg.Export
	switch exp.Sink {
	case "dynamodb":
		if exp.DynamoDB.Table == "" {
			return fmt.Errorf("sink 'dynamodb' exige export.dynamodb.table")
		}
	case "s3":
		if exp.S3.Bucket == "" || exp.S3.Key == "" {
			return fmt.Errorf("sink 's3' exige export.s3.bucket e export.s3.key")
		}
	case "sqs":
		if exp.SQS.QueueURL == "" {
			return fmt.Errorf("sink 'sqs' exige export.sqs.queue_url")
		}
	case "redis":
		if exp.Redis.Addr == "" {
			return fmt.Errorf("sink 'redis' exige export.redis.addr")
		}
	case "postgres":
		if exp.Postgres.DSN == "" {
			return fmt.Errorf("sink 'postgres' exige export.postgres.dsn")
		}
		if !sqlIdentifier.MatchString(exp.Postgres.Table) {
			return fmt.Errorf("nome de tabela inválido: '%s'", exp.Postgres.Table)
		}
	}

	return nil
}
