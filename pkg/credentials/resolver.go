package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
)

// Fontes aceitas em CredentialsConf.Source.
const (
	SourceStatic         = "static"
	SourceAWS            = "aws"
	SourceSSM            = "ssm"
	SourceSecretsManager = "secretsmanager"
)

// ErrMissingKeys indica que a fonte respondeu sem access key ou secret key.
var ErrMissingKeys = errors.New("credentials: access key and secret key are required")

// Credentials são as chaves usadas na assinatura das chamadas.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// SSMClient abstrai o SDK da AWS (permite mock).
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SecretsClient abstrai o SDK da AWS (permite mock).
type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver busca as credenciais na fonte configurada. Campos nil são
// criados sob demanda a partir de GetAWSConfig.
type Resolver struct {
	SSM      SSMClient
	Secrets  SecretsClient
	Provider aws.CredentialsProvider
}

// Resolve é o atalho com clientes reais.
func Resolve(ctx context.Context, cfg config.CredentialsConf) (Credentials, error) {
	return (&Resolver{}).Resolve(ctx, cfg)
}

// Resolve devolve as credenciais conforme cfg.Source.
func (r *Resolver) Resolve(ctx context.Context, cfg config.CredentialsConf) (Credentials, error) {
	var (
		creds Credentials
		err   error
	)

	switch cfg.Source {
	case "", SourceStatic:
		creds = Credentials{AccessKey: cfg.AccessKey, SecretKey: cfg.SecretKey}
	case SourceAWS:
		creds, err = r.fromChain(ctx, cfg.Region)
	case SourceSSM:
		creds, err = r.fromSSM(ctx, cfg)
	case SourceSecretsManager:
		creds, err = r.fromSecret(ctx, cfg)
	default:
		return Credentials{}, fmt.Errorf("credentials: unknown source %q", cfg.Source)
	}
	if err != nil {
		return Credentials{}, err
	}

	if creds.AccessKey == "" || creds.SecretKey == "" {
		return Credentials{}, fmt.Errorf("%w (source %s)", ErrMissingKeys, cfg.Source)
	}
	return creds, nil
}

func (r *Resolver) fromChain(ctx context.Context, region string) (Credentials, error) {
	provider := r.Provider
	if provider == nil {
		awsCfg, err := GetAWSConfig(ctx, region)
		if err != nil {
			return Credentials{}, fmt.Errorf("credentials: load aws config: %w", err)
		}
		provider = awsCfg.Credentials
	}
	if provider == nil {
		return Credentials{}, errors.New("credentials: no aws credentials provider configured")
	}

	v, err := provider.Retrieve(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("credentials: retrieve from aws chain: %w", err)
	}
	return Credentials{
		AccessKey:    v.AccessKeyID,
		SecretKey:    v.SecretAccessKey,
		SessionToken: v.SessionToken,
	}, nil
}

func (r *Resolver) fromSSM(ctx context.Context, cfg config.CredentialsConf) (Credentials, error) {
	access, err := r.Parameter(ctx, cfg.Region, cfg.AccessKeyParam)
	if err != nil {
		return Credentials{}, err
	}
	secret, err := r.Parameter(ctx, cfg.Region, cfg.SecretKeyParam)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{AccessKey: access, SecretKey: secret}, nil
}

// Parameter lê um parâmetro do SSM, com decriptação.
func (r *Resolver) Parameter(ctx context.Context, region, name string) (string, error) {
	if r.SSM == nil {
		awsCfg, err := GetAWSConfig(ctx, region)
		if err != nil {
			return "", fmt.Errorf("credentials: load aws config: %w", err)
		}
		r.SSM = ssm.NewFromConfig(awsCfg)
	}
	return getParameter(ctx, r.SSM, name)
}

func getParameter(ctx context.Context, client SSMClient, name string) (string, error) {
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("credentials: ssm GetParameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("credentials: ssm parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}

// secretPayload é o formato esperado do segredo.
type secretPayload struct {
	AccessKey    string `json:"access_key"`
	SecretKey    string `json:"secret_key"`
	SessionToken string `json:"session_token"`
}

func (r *Resolver) fromSecret(ctx context.Context, cfg config.CredentialsConf) (Credentials, error) {
	raw, err := r.SecretString(ctx, cfg.Region, cfg.SecretID)
	if err != nil {
		return Credentials{}, err
	}

	var payload secretPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Credentials{}, fmt.Errorf("credentials: secret %s is not valid json: %w", cfg.SecretID, err)
	}
	return Credentials(payload), nil
}

// SecretString devolve o SecretString de um segredo do Secrets Manager.
func (r *Resolver) SecretString(ctx context.Context, region, id string) (string, error) {
	if r.Secrets == nil {
		awsCfg, err := GetAWSConfig(ctx, region)
		if err != nil {
			return "", fmt.Errorf("credentials: load aws config: %w", err)
		}
		r.Secrets = secretsmanager.NewFromConfig(awsCfg)
	}

	out, err := r.Secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", fmt.Errorf("credentials: secretsmanager %s: %w", id, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("credentials: secret %s has no string value", id)
	}
	return *out.SecretString, nil
}
