package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
)

const sqsBatchSize = 10

// SQSClient é o subconjunto do SDK usado pelo sink.
type SQSClient interface {
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// SQSSink publica uma mensagem JSON por item.
type SQSSink struct {
	client   SQSClient
	queueURL string
}

func NewSQSSink(client SQSClient, cfg config.SQSSinkConf) *SQSSink {
	return &SQSSink{client: client, queueURL: cfg.QueueURL}
}

func NewSQSSinkFromConfig(awsCfg aws.Config, cfg config.SQSSinkConf) *SQSSink {
	return NewSQSSink(sqs.NewFromConfig(awsCfg), cfg)
}

func (s *SQSSink) Write(ctx context.Context, records []Record) error {
	for _, batch := range chunks(records, sqsBatchSize) {
		entries := make([]types.SendMessageBatchRequestEntry, 0, len(batch))
		for i, r := range batch {
			body, err := r.JSON()
			if err != nil {
				return fmt.Errorf("export: sqs marshal %s: %w", r.Name, err)
			}
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:          aws.String(strconv.Itoa(i)),
				MessageBody: aws.String(string(body)),
				MessageAttributes: map[string]types.MessageAttributeValue{
					"domain": {DataType: aws.String("String"), StringValue: aws.String(r.Domain)},
				},
			})
		}

		out, err := s.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(s.queueURL),
			Entries:  entries,
		})
		if err != nil {
			return fmt.Errorf("export: sqs send batch: %w", err)
		}
		if len(out.Failed) > 0 {
			f := out.Failed[0]
			return fmt.Errorf("export: sqs rejected %d messages (first: %s %s)",
				len(out.Failed), aws.ToString(f.Code), aws.ToString(f.Message))
		}
	}
	return nil
}

func (s *SQSSink) Close(context.Context) error { return nil }
