// Package export copia itens de um domínio SimpleDB para outro destino.
//
// O Exporter percorre as páginas de um Select, aplica o filtro CEL e as
// transformações configuradas, registra as métricas customizadas e entrega
// cada página a um Sink (DynamoDB, S3, SQS, Redis ou Postgres).
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/credentials"
)

// Record é um item exportado.
type Record struct {
	Domain     string              `json:"domain" dynamodbav:"domain"`
	Name       string              `json:"name" dynamodbav:"item_name"`
	Attributes map[string][]string `json:"attributes" dynamodbav:"attributes"`
	ExportedAt time.Time           `json:"exported_at" dynamodbav:"exported_at"`
}

// JSON serializa o registro em uma linha.
func (r Record) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// Sink recebe registros em lotes. Close libera conexões e descarrega o que
// estiver em buffer.
type Sink interface {
	Write(ctx context.Context, records []Record) error
	Close(ctx context.Context) error
}

// NewSink cria o sink escolhido em cfg.Sink com clientes reais.
func NewSink(ctx context.Context, cfg config.ExportConf, region string) (Sink, error) {
	switch cfg.Sink {
	case "dynamodb", "s3", "sqs":
		awsCfg, err := credentials.GetAWSConfig(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("export: load aws config: %w", err)
		}
		if cfg.Endpoint != "" {
			awsCfg.BaseEndpoint = &cfg.Endpoint
		}
		switch cfg.Sink {
		case "dynamodb":
			return NewDynamoDBSinkFromConfig(awsCfg, cfg.DynamoDB), nil
		case "s3":
			return NewS3SinkFromConfig(awsCfg, cfg.S3), nil
		default:
			return NewSQSSinkFromConfig(awsCfg, cfg.SQS), nil
		}
	case "redis":
		return NewRedisSinkFromConfig(cfg.Redis), nil
	case "postgres":
		sink, err := OpenPostgresSink(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "":
		return nil, fmt.Errorf("export: no sink configured")
	default:
		return nil, fmt.Errorf("export: unknown sink %q", cfg.Sink)
	}
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
