package config

import "time"

// Settings representa a estrutura raiz do arquivo YAML do toolkit.
//
// Os valores são resolvidos em camadas: envDefault, depois o YAML e por
// fim as variáveis de ambiente informadas na tag env.
type Settings struct {
	SimpleDB    SimpleDBConf    `yaml:"simpledb"`
	Credentials CredentialsConf `yaml:"credentials"`
	Logging     LoggingConf     `yaml:"logging"`
	Metrics     MetricsConf     `yaml:"metrics"`
	Export      ExportConf      `yaml:"export"`
	Emulator    EmulatorConf    `yaml:"emulator"`
	Runner      RunnerConf      `yaml:"runner"`
}

// SimpleDBConf contém os parâmetros de conexão com o SimpleDB.
type SimpleDBConf struct {
	Host           string        `yaml:"host" env:"SDB_HOST" envDefault:"sdb.amazonaws.com" validate:"required,hostname|hostname_port"`
	DisableSSL     bool          `yaml:"disable_ssl" env:"SDB_DISABLE_SSL"`
	SkipVerifyPeer bool          `yaml:"skip_verify_peer" env:"SDB_SKIP_VERIFY_PEER"`
	SkipVerifyHost bool          `yaml:"skip_verify_host" env:"SDB_SKIP_VERIFY_HOST"`
	ErrorMode      string        `yaml:"error_mode" env:"SDB_ERROR_MODE" envDefault:"raise" validate:"oneof=raise report ignore"`
	Version        string        `yaml:"version" env:"SDB_API_VERSION" envDefault:"2009-04-15" validate:"required"`
	Timeout        time.Duration `yaml:"timeout" env:"SDB_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	Retry          RetryConf     `yaml:"retry"`
}

// RetryConf alimenta o callback de espera entre tentativas.
type RetryConf struct {
	Enabled         bool          `yaml:"enabled" env:"SDB_RETRY_ENABLED"`
	InitialInterval time.Duration `yaml:"initial_interval" env:"SDB_RETRY_INITIAL" envDefault:"100ms"`
	MaxInterval     time.Duration `yaml:"max_interval" env:"SDB_RETRY_MAX" envDefault:"5s" validate:"gtefield=InitialInterval"`
	MaxAttempts     int           `yaml:"max_attempts" env:"SDB_RETRY_ATTEMPTS" envDefault:"4" validate:"gte=0"`
}

// CredentialsConf define de onde vêm as chaves de acesso.
type CredentialsConf struct {
	Source    string `yaml:"source" env:"SDB_CREDENTIALS_SOURCE" envDefault:"static" validate:"oneof=static aws ssm secretsmanager"`
	AccessKey string `yaml:"access_key" env:"SDB_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SDB_SECRET_KEY"`
	Region    string `yaml:"region" env:"AWS_REGION" envDefault:"us-east-1"`
	// Nomes dos parâmetros no SSM (source=ssm).
	AccessKeyParam string `yaml:"access_key_param" env:"SDB_ACCESS_KEY_PARAM"`
	SecretKeyParam string `yaml:"secret_key_param" env:"SDB_SECRET_KEY_PARAM"`
	// Segredo JSON {"access_key": "...", "secret_key": "..."} (source=secretsmanager).
	SecretID string `yaml:"secret_id" env:"SDB_SECRET_ID"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"LOG_ENABLED" envDefault:"true"`
	Level   string `yaml:"level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

type MetricsConf struct {
	Datadog           DatadogConf              `yaml:"datadog"`
	CustomDefinitions []CustomMetricDefinition `yaml:"custom_definitions" validate:"dive"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" envDefault:"127.0.0.1:8125" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" env:"DD_NAMESPACE" envDefault:"sdb."`
}

type CustomMetricDefinition struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"oneof=count gauge histogram"`
}

// ExportConf descreve a cópia do resultado de um Select para outro destino.
type ExportConf struct {
	Sink string `yaml:"sink" env:"EXPORT_SINK" validate:"omitempty,oneof=dynamodb s3 sqs redis postgres"`
	// Filter é uma expressão CEL booleana avaliada por item.
	Filter          string                   `yaml:"filter" env:"EXPORT_FILTER"`
	Transformations []TransformationRule     `yaml:"transformations" validate:"dive"`
	Metrics         []MetricRegistrationRule `yaml:"metrics" validate:"dive"`
	// Endpoint sobrescreve o endpoint AWS (ex: localstack).
	Endpoint string           `yaml:"endpoint" env:"EXPORT_AWS_ENDPOINT"`
	DynamoDB DynamoDBSinkConf `yaml:"dynamodb"`
	S3       S3SinkConf       `yaml:"s3"`
	SQS      SQSSinkConf      `yaml:"sqs"`
	Redis    RedisSinkConf    `yaml:"redis"`
	Postgres PostgresSinkConf `yaml:"postgres"`
}

type DynamoDBSinkConf struct {
	Table   string `yaml:"table" env:"EXPORT_DYNAMODB_TABLE"`
	HashKey string `yaml:"hash_key" env:"EXPORT_DYNAMODB_HASH_KEY" envDefault:"id"`
	// OnlyNew grava com attribute_not_exists(hash_key), item a item.
	OnlyNew bool `yaml:"only_new" env:"EXPORT_DYNAMODB_ONLY_NEW"`
}

type S3SinkConf struct {
	Bucket string `yaml:"bucket" env:"EXPORT_S3_BUCKET"`
	Key    string `yaml:"key" env:"EXPORT_S3_KEY"`
}

type SQSSinkConf struct {
	QueueURL string `yaml:"queue_url" env:"EXPORT_SQS_QUEUE_URL"`
}

type RedisSinkConf struct {
	Addr      string        `yaml:"addr" env:"EXPORT_REDIS_ADDR" envDefault:"localhost:6379"`
	Password  string        `yaml:"password" env:"EXPORT_REDIS_PASSWORD"`
	DB        int           `yaml:"db" env:"EXPORT_REDIS_DB"`
	KeyPrefix string        `yaml:"key_prefix" env:"EXPORT_REDIS_KEY_PREFIX" envDefault:"sdb:"`
	TTL       time.Duration `yaml:"ttl" env:"EXPORT_REDIS_TTL"`
}

type PostgresSinkConf struct {
	DSN   string `yaml:"dsn" env:"EXPORT_POSTGRES_DSN"`
	Table string `yaml:"table" env:"EXPORT_POSTGRES_TABLE" envDefault:"sdb_items"`
}

// EmulatorConf configura o servidor local compatível com o SimpleDB.
type EmulatorConf struct {
	Addr     string `yaml:"addr" env:"EMULATOR_ADDR" envDefault:":8080"`
	PageSize int    `yaml:"page_size" env:"EMULATOR_PAGE_SIZE" envDefault:"2500" validate:"gte=1,lte=2500"`
	// SeedFile é um JSON domínio -> item -> atributo -> valores.
	SeedFile string `yaml:"seed_file" env:"EMULATOR_SEED_FILE"`
}

// RunnerConf configura o cmd/exportd, que executa exports sob demanda.
type RunnerConf struct {
	// Runtime: local (HTTP), lambda (evento SQS) ou worker (long polling SQS).
	Runtime  string        `yaml:"runtime" env:"RUNNER_RUNTIME" envDefault:"local" validate:"oneof=local lambda worker"`
	Addr     string        `yaml:"addr" env:"RUNNER_ADDR" envDefault:":8081"`
	QueueURL string        `yaml:"queue_url" env:"RUNNER_QUEUE_URL" validate:"required_if=Runtime worker"`
	Timeout  time.Duration `yaml:"timeout" env:"RUNNER_TIMEOUT" envDefault:"5m" validate:"gt=0"`
}

type TransformationRule struct {
	Name      string `yaml:"name" validate:"required"`
	Condition string `yaml:"condition" validate:"required"`
	Value     string `yaml:"value" validate:"required"`
	ElseValue string `yaml:"else_value"`
	Target    string `yaml:"target" validate:"required"`
}

type MetricRegistrationRule struct {
	MetricID string            `yaml:"metric_id" validate:"required"`
	Value    string            `yaml:"value" validate:"required"`
	Tags     map[string]string `yaml:"tags"`
}
