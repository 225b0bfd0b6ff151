package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
)

// S3Client é o subconjunto do SDK usado pelo sink.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink acumula os registros em JSON lines e grava um único objeto no
// Close.
type S3Sink struct {
	client S3Client
	bucket string
	key    string
	buf    bytes.Buffer
	count  int
}

func NewS3Sink(client S3Client, cfg config.S3SinkConf) *S3Sink {
	return &S3Sink{client: client, bucket: cfg.Bucket, key: cfg.Key}
}

func NewS3SinkFromConfig(awsCfg aws.Config, cfg config.S3SinkConf) *S3Sink {
	return NewS3Sink(s3.NewFromConfig(awsCfg), cfg)
}

func (s *S3Sink) Write(_ context.Context, records []Record) error {
	for _, r := range records {
		line, err := r.JSON()
		if err != nil {
			return fmt.Errorf("export: s3 marshal %s: %w", r.Name, err)
		}
		s.buf.Write(line)
		s.buf.WriteByte('\n')
		s.count++
	}
	return nil
}

// Close envia o objeto. Sem registros nada é gravado.
func (s *S3Sink) Close(ctx context.Context) error {
	if s.count == 0 {
		return nil
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(s.buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("export: s3 put s3://%s/%s: %w", s.bucket, s.key, err)
	}
	s.buf.Reset()
	s.count = 0
	return nil
}
