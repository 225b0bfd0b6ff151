package credentials

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

var (
	awsMu   sync.Mutex
	awsCfgs = make(map[string]aws.Config)
)

// GetAWSConfig carrega a configuração da AWS (env vars, profile, IAM role)
// uma vez por região.
func GetAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsMu.Lock()
	defer awsMu.Unlock()

	if cfg, ok := awsCfgs[region]; ok {
		return cfg, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	awsCfgs[region] = cfg
	return cfg, nil
}
