package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"github.com/vango-dev/gesture/internal/config"
	"github.com/vango-dev/gesture/internal/errors"
	"github.com/vango-dev/gesture/pkg/record"
	"github.com/vango-dev/gesture/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		recordDir  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gesture server",
		Long: `Start the WebSocket gesture server.

Configuration is read from --config, or gestured.json in the working
directory, then overridden by GESTURED_* environment variables.

Endpoints:
  /ws       touch surface WebSocket
  /metrics  Prometheus metrics
  /healthz  liveness probe

Examples:
  gestured serve
  gestured serve --addr=:9090
  gestured serve --config=deploy/gestured.json --record-dir=traces`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if recordDir != "" {
				cfg.Record.Enabled = true
				cfg.Record.Dir = recordDir
				cfg.Record.S3Bucket = ""
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to gestured.json")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&recordDir, "record-dir", "", "Record gesture traces to this directory")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := slog.Default()

	opts := []server.Option{server.WithLogger(logger.With("component", "server"))}

	sink, err := buildSink(cfg, logger)
	if err != nil {
		return err
	}
	if sink != nil {
		opts = append(opts, server.WithSink(sink))
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sink.Close(closeCtx); err != nil {
				logger.Warn("trace queue not drained", "error", err, "dropped", sink.Dropped())
			}
		}()
	}

	srv := server.New(serverConfig(cfg), opts...)

	out := cmd.OutOrStdout()
	success(out, "Listening on %s", cfg.Server.Addr)
	if p := cfg.Path(); p != "" {
		fmt.Fprintf(out, "  config: %s\n", p)
	}
	if cfg.Record.Enabled {
		if cfg.UsesS3() {
			fmt.Fprintf(out, "  recording to s3://%s/%s\n", cfg.Record.S3Bucket, cfg.Record.S3Prefix)
		} else {
			fmt.Fprintf(out, "  recording to %s\n", cfg.Record.Dir)
		}
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		return errors.New("G300").WithDetailf("address %s", cfg.Server.Addr).Wrap(err)
	}
	return nil
}

// serverConfig maps the file configuration onto the server's.
func serverConfig(cfg *config.Config) *server.ServerConfig {
	sc := server.DefaultSessionConfig()
	sc.ReadTimeout = cfg.Server.ReadTimeout.Std()
	sc.WriteTimeout = cfg.Server.WriteTimeout.Std()
	sc.HeartbeatInterval = cfg.Server.HeartbeatInterval.Std()
	sc.Gesture = cfg.GestureConfig()

	return &server.ServerConfig{
		Address:         cfg.Server.Addr,
		CheckOrigin:     server.AllowOrigins(cfg.Server.AllowedOrigins),
		SessionConfig:   sc,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Std(),
		MaxSessions:     cfg.Server.MaxSessions,
	}
}

// buildSink returns the trace sink for cfg, or nil when recording is off.
func buildSink(cfg *config.Config, logger *slog.Logger) (*record.AsyncSink, error) {
	if !cfg.Record.Enabled {
		return nil, nil
	}

	var next record.Sink
	if cfg.UsesS3() {
		next = record.NewS3Sink(newS3Client(cfg.Record), cfg.Record.S3Bucket, cfg.Record.S3Prefix)
	} else {
		dir, err := record.NewDirSink(cfg.Record.Dir)
		if err != nil {
			return nil, errors.New("G201").WithFile(cfg.Record.Dir).Wrap(err)
		}
		next = dir
	}
	return record.NewAsyncSink(next, cfg.Record.QueueSize, logger.With("component", "record")), nil
}

// newS3Client builds a client from the record settings and the standard
// AWS_* credential variables.
func newS3Client(rc config.RecordConfig) *s3.Client {
	opts := s3.Options{
		Region:      rc.S3Region,
		Credentials: aws.NewCredentialsCache(envCredentials()),
	}
	if rc.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(rc.S3Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "gestured environment",
		}, nil
	})
}
