package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/raywall/fast-sdb-toolkit/pkg/bootstrap"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
	"github.com/raywall/fast-sdb-toolkit/pkg/config/injector"
	"github.com/raywall/fast-sdb-toolkit/pkg/credentials"
	"github.com/raywall/fast-sdb-toolkit/pkg/export"
	"github.com/raywall/fast-sdb-toolkit/pkg/transport"
)

// Variáveis injetáveis para mocking
var (
	serverStarter = transport.StartHTTPServer
	lambdaStarter = lambda.Start
	newToolkit    = func(ctx context.Context, s *config.Settings) (*bootstrap.Toolkit, error) {
		return bootstrap.New(ctx, s, bootstrap.Options{})
	}
	newSink      bootstrap.SinkFactory = export.NewSink
	newSQSClient                       = func(ctx context.Context, region, endpoint string) (transport.SQSClient, error) {
		awsCfg, err := credentials.GetAWSConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		if endpoint != "" {
			awsCfg.BaseEndpoint = &endpoint
		}
		return sqs.NewFromConfig(awsCfg), nil
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv("CONFIG_FILE_PATH")); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, cfgPath string) error {
	settings, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := injector.New(&credentials.Resolver{}, settings.Credentials.Region).Inject(ctx, settings); err != nil {
		return err
	}
	if settings.Export.Sink == "" {
		return fmt.Errorf("exportd: EXPORT_SINK não configurado")
	}

	tk, err := newToolkit(ctx, settings)
	if err != nil {
		return err
	}
	defer tk.Close()

	jobs := transport.NewJobs(func(ctx context.Context) (transport.Runner, error) {
		exporter, err := tk.Exporter(ctx, newSink)
		if err != nil {
			return nil, err
		}
		return exporter, nil
	}, settings.Runner.Timeout)

	switch settings.Runner.Runtime {
	case "lambda":
		lambdaStarter(transport.NewLambdaHandler(jobs, tk.Logger).Handle)
		return nil
	case "worker":
		client, err := newSQSClient(ctx, settings.Credentials.Region, settings.Export.Endpoint)
		if err != nil {
			return fmt.Errorf("exportd: sqs client: %w", err)
		}
		transport.NewSQSWorker(client, settings.Runner.QueueURL, jobs, tk.Logger).Start(ctx)
		return nil
	default:
		return serverStarter(settings.Runner.Addr, transport.NewHTTPHandler(jobs, tk.Logger), tk.Logger)
	}
}
