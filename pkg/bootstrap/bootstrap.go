// Package bootstrap monta um *sdb.Client pronto para uso a partir das
// Settings: credenciais, logger, métricas, modo de erro e espera entre
// tentativas.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/credentials"
	"github.com/raywall/fast-sdb-toolkit/pkg/export"
	"github.com/raywall/fast-sdb-toolkit/pkg/logger"
	"github.com/raywall/fast-sdb-toolkit/pkg/metrics"
	"github.com/raywall/fast-sdb-toolkit/pkg/observability"
	"github.com/raywall/fast-sdb-toolkit/pkg/rules"
	"github.com/raywall/fast-sdb-toolkit/sdb"
	"github.com/rs/zerolog"
)

// Options permite trocar dependências externas nos testes.
type Options struct {
	Resolver   *credentials.Resolver
	HTTPClient sdb.HTTPClient
	Metrics    metrics.Provider
	Logger     *zerolog.Logger
}

// Toolkit agrupa o cliente e o que foi criado junto com ele.
type Toolkit struct {
	Settings *config.Settings
	Client   *sdb.Client
	Metrics  metrics.Provider
	Logger   zerolog.Logger

	maxAttempts int
	sleep       func(time.Duration)
}

// New cria o Toolkit. As Settings já devem ter passado por config.Load.
func New(ctx context.Context, s *config.Settings, opts Options) (*Toolkit, error) {
	lg := logger.Configure(s.Logging)
	if opts.Logger != nil {
		lg = *opts.Logger
	}

	mode, err := sdb.ParseErrorMode(s.SimpleDB.ErrorMode)
	if err != nil {
		return nil, err
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = &credentials.Resolver{}
	}
	creds, err := resolver.Resolve(ctx, s.Credentials)
	if err != nil {
		return nil, err
	}

	provider := opts.Metrics
	if provider == nil {
		if provider, err = observability.SetupMetrics(s.Metrics); err != nil {
			return nil, err
		}
	}

	cfg := sdb.Config{
		AccessKey:      creds.AccessKey,
		SecretKey:      creds.SecretKey,
		SessionToken:   creds.SessionToken,
		Host:           s.SimpleDB.Host,
		DisableSSL:     s.SimpleDB.DisableSSL,
		SkipVerifyPeer: s.SimpleDB.SkipVerifyPeer,
		SkipVerifyHost: s.SimpleDB.SkipVerifyHost,
		ErrorMode:      mode,
		Version:        s.SimpleDB.Version,
		Timeout:        s.SimpleDB.Timeout,
		Logger:         &lg,
		Metrics:        provider,
		HTTPClient:     opts.HTTPClient,
	}
	if s.SimpleDB.Retry.Enabled {
		cfg.RetryDelay = sdb.ExponentialRetryDelay(s.SimpleDB.Retry.InitialInterval, s.SimpleDB.Retry.MaxInterval)
	}

	client, err := sdb.New(cfg)
	if err != nil {
		return nil, err
	}

	lg.Debug().
		Str("host", cfg.Host).
		Str("credentials", s.Credentials.Source).
		Str("error_mode", mode.String()).
		Bool("retry", s.SimpleDB.Retry.Enabled).
		Msg("cliente sdb configurado")

	t := &Toolkit{
		Settings: s,
		Client:   client,
		Metrics:  provider,
		Logger:   lg,
		sleep:    time.Sleep,
	}
	if s.SimpleDB.Retry.Enabled {
		t.maxAttempts = s.SimpleDB.Retry.MaxAttempts
	}
	return t, nil
}

// Retry executa op até ter sucesso, até o erro deixar de ser transitório ou
// até esgotar as tentativas de Retry.MaxAttempts. Com retry desligado op
// roda uma única vez.
func (t *Toolkit) Retry(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = op(ctx); err == nil || !sdb.IsRetryable(err) || attempt >= t.maxAttempts {
			return err
		}

		wait := t.Client.RetryDelay(attempt + 1)
		t.Logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("falha transitória, tentando novamente")

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("bootstrap: %w", ctxErr)
		}
		t.sleep(wait)
	}
}

// SinkFactory cria o destino de um export. export.NewSink é a implementação
// padrão.
type SinkFactory func(ctx context.Context, cfg config.ExportConf, region string) (export.Sink, error)

// Exporter monta um export.Exporter com um sink novo. O Exporter fecha o
// sink ao final do Run, então cada execução precisa de uma chamada.
func (t *Toolkit) Exporter(ctx context.Context, newSink SinkFactory) (*export.Exporter, error) {
	s := t.Settings
	sink, err := newSink(ctx, s.Export, s.Credentials.Region)
	if err != nil {
		return nil, err
	}

	rm, err := rules.NewRuleManager()
	if err != nil {
		_ = sink.Close(ctx)
		return nil, err
	}
	processor := metrics.NewProcessor(s.Metrics.CustomDefinitions, t.Metrics, rm)

	exporter, err := export.NewExporter(t.Client, sink, s.Export, processor, rm, t.Logger)
	if err != nil {
		_ = sink.Close(ctx)
		return nil, err
	}
	return exporter, nil
}

// Close libera o provedor de métricas quando ele mantém conexão.
func (t *Toolkit) Close() error {
	if c, ok := t.Metrics.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
