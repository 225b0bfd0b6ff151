package injector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/config/injector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Parameter(ctx context.Context, region, name string) (string, error) {
	args := m.Called(ctx, region, name)
	return args.String(0), args.Error(1)
}

func (m *MockLookup) SecretString(ctx context.Context, region, id string) (string, error) {
	args := m.Called(ctx, region, id)
	return args.String(0), args.Error(1)
}

func TestInjector_Settings(t *testing.T) {
	t.Setenv("EXPORT_ENV", "prod")

	lookup := new(MockLookup)
	lookup.On("Parameter", mock.Anything, "sa-east-1", "/sdb/postgres/dsn").Return("postgres://u:p@db/sdb", nil)
	lookup.On("SecretString", mock.Anything, "sa-east-1", "redis-pass").Return("s3cr3t", nil)

	s := &config.Settings{}
	s.Export.Postgres.DSN = "${ssm./sdb/postgres/dsn}"
	s.Export.Redis.Password = "${secret.redis-pass}"
	s.Export.S3.Key = "exports/${env.EXPORT_ENV}/items.ndjson"
	s.Export.Metrics = []config.MetricRegistrationRule{{
		MetricID: "exported",
		Value:    "1",
		Tags:     map[string]string{"env": "${env.EXPORT_ENV}", "fixed": "x"},
	}}

	err := injector.New(lookup, "sa-east-1").Inject(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db/sdb", s.Export.Postgres.DSN)
	assert.Equal(t, "s3cr3t", s.Export.Redis.Password)
	assert.Equal(t, "exports/prod/items.ndjson", s.Export.S3.Key)
	assert.Equal(t, map[string]string{"env": "prod", "fixed": "x"}, s.Export.Metrics[0].Tags)
	lookup.AssertExpectations(t)
}

func TestInjector_InterfaceMap(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")

	target := &struct {
		Meta   map[string]interface{}
		Nested *struct{ URL string }
	}{
		Meta:   map[string]interface{}{"db_host": "${env.DB_HOST}", "timeout": 5000},
		Nested: &struct{ URL string }{URL: "https://${env.DB_HOST}:8080"},
	}

	require.NoError(t, injector.New(nil, "").Inject(context.Background(), target))
	assert.Equal(t, "localhost", target.Meta["db_host"])
	assert.Equal(t, 5000, target.Meta["timeout"])
	assert.Equal(t, "https://localhost:8080", target.Nested.URL)
}

func TestInjector_Errors(t *testing.T) {
	t.Run("alvo inválido", func(t *testing.T) {
		assert.Error(t, injector.New(nil, "").Inject(context.Background(), config.Settings{}))
	})

	t.Run("ssm sem cliente", func(t *testing.T) {
		s := &config.Settings{}
		s.Export.SQS.QueueURL = "${ssm./queue}"
		assert.Error(t, injector.New(nil, "").Inject(context.Background(), s))
	})

	t.Run("falha na busca", func(t *testing.T) {
		boom := errors.New("access denied")
		lookup := new(MockLookup)
		lookup.On("SecretString", mock.Anything, "", "x").Return("", boom)

		s := &config.Settings{}
		s.Credentials.SecretKey = "${secret.x}"
		err := injector.New(lookup, "").Inject(context.Background(), s)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "${secret.x}", s.Credentials.SecretKey)
	})
}
