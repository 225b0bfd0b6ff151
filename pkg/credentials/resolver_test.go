package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockSSM struct {
	mock.Mock
}

func (m *MockSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssm.GetParameterOutput), args.Error(1)
}

type MockSecrets struct {
	mock.Mock
}

func (m *MockSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsmanager.GetSecretValueOutput), args.Error(1)
}

func paramOutput(v string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}
}

func paramNamed(name string) interface{} {
	return mock.MatchedBy(func(in *ssm.GetParameterInput) bool {
		return *in.Name == name && *in.WithDecryption
	})
}

// --- Testes ---

func TestResolve_Static(t *testing.T) {
	creds, err := Resolve(context.Background(), config.CredentialsConf{
		Source: "static", AccessKey: "AKID", SecretKey: "SECRET",
	})
	require.NoError(t, err)
	assert.Equal(t, Credentials{AccessKey: "AKID", SecretKey: "SECRET"}, creds)

	_, err = Resolve(context.Background(), config.CredentialsConf{Source: "static", AccessKey: "AKID"})
	assert.ErrorIs(t, err, ErrMissingKeys)
}

func TestResolve_UnknownSource(t *testing.T) {
	_, err := Resolve(context.Background(), config.CredentialsConf{Source: "vault"})
	assert.ErrorContains(t, err, "unknown source")
}

func TestResolve_SSM(t *testing.T) {
	cfg := config.CredentialsConf{
		Source:         "ssm",
		AccessKeyParam: "/sdb/access",
		SecretKeyParam: "/sdb/secret",
	}

	t.Run("Sucesso", func(t *testing.T) {
		client := new(MockSSM)
		client.On("GetParameter", mock.Anything, paramNamed("/sdb/access")).Return(paramOutput("AKID"), nil)
		client.On("GetParameter", mock.Anything, paramNamed("/sdb/secret")).Return(paramOutput("SECRET"), nil)

		creds, err := (&Resolver{SSM: client}).Resolve(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, "AKID", creds.AccessKey)
		assert.Equal(t, "SECRET", creds.SecretKey)
		client.AssertExpectations(t)
	})

	t.Run("Erro na AWS", func(t *testing.T) {
		client := new(MockSSM)
		client.On("GetParameter", mock.Anything, mock.Anything).Return(nil, errors.New("AWS down"))

		_, err := (&Resolver{SSM: client}).Resolve(context.Background(), cfg)
		assert.ErrorContains(t, err, "/sdb/access")
	})

	t.Run("Parâmetro sem valor", func(t *testing.T) {
		client := new(MockSSM)
		client.On("GetParameter", mock.Anything, mock.Anything).Return(&ssm.GetParameterOutput{}, nil)

		_, err := (&Resolver{SSM: client}).Resolve(context.Background(), cfg)
		assert.ErrorContains(t, err, "has no value")
	})
}

func TestResolve_SecretsManager(t *testing.T) {
	cfg := config.CredentialsConf{Source: "secretsmanager", SecretID: "sdb/keys"}

	t.Run("Sucesso JSON", func(t *testing.T) {
		client := new(MockSecrets)
		client.On("GetSecretValue", mock.Anything, mock.MatchedBy(func(in *secretsmanager.GetSecretValueInput) bool {
			return *in.SecretId == "sdb/keys"
		})).Return(&secretsmanager.GetSecretValueOutput{
			SecretString: aws.String(`{"access_key":"AKID","secret_key":"SECRET"}`),
		}, nil)

		creds, err := (&Resolver{Secrets: client}).Resolve(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, Credentials{AccessKey: "AKID", SecretKey: "SECRET"}, creds)
	})

	t.Run("String pura é rejeitada", func(t *testing.T) {
		client := new(MockSecrets)
		client.On("GetSecretValue", mock.Anything, mock.Anything).Return(&secretsmanager.GetSecretValueOutput{
			SecretString: aws.String("just-a-password"),
		}, nil)

		_, err := (&Resolver{Secrets: client}).Resolve(context.Background(), cfg)
		assert.ErrorContains(t, err, "not valid json")
	})

	t.Run("JSON sem secret_key", func(t *testing.T) {
		client := new(MockSecrets)
		client.On("GetSecretValue", mock.Anything, mock.Anything).Return(&secretsmanager.GetSecretValueOutput{
			SecretString: aws.String(`{"access_key":"AKID"}`),
		}, nil)

		_, err := (&Resolver{Secrets: client}).Resolve(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrMissingKeys)
	})
}

func TestResolve_AWSChain(t *testing.T) {
	provider := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "ASIA", SecretAccessKey: "SECRET", SessionToken: "TOKEN"}, nil
	})

	creds, err := (&Resolver{Provider: provider}).Resolve(context.Background(), config.CredentialsConf{Source: "aws"})
	require.NoError(t, err)
	assert.Equal(t, Credentials{AccessKey: "ASIA", SecretKey: "SECRET", SessionToken: "TOKEN"}, creds)

	failing := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, errors.New("no role")
	})
	_, err = (&Resolver{Provider: failing}).Resolve(context.Background(), config.CredentialsConf{Source: "aws"})
	assert.ErrorContains(t, err, "no role")
}
