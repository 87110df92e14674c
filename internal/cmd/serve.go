package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gofirehose/internal/observability"
	"github.com/3leaps/gofirehose/internal/server"
	"github.com/3leaps/gofirehose/internal/server/handlers"
	"github.com/3leaps/gofirehose/pkg/firehose"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP record relay",
		Long: `Run an HTTP server that writes records to delivery streams.

Routes:
  GET  /health                     Health probe (also /health/live, /health/ready, /health/startup)
  GET  /version                    Build information
  POST /v1/streams/{name}/records  Request body is one record
  POST /v1/streams/{name}/batch    Request body is newline-delimited records
                                   (?decode=raw|json|base64, ?newline=true, ?select=EXPR)

With --readonly every POST is rejected with 403 READONLY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Server
			if cmd.Flags().Changed("host") {
				sc.Host = host
			}
			if cmd.Flags().Changed("port") {
				sc.Port = port
			}
			return a.runServe(cmd.Context(), sc.Host, sc.Port)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen address (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")
	return cmd
}

func (a *app) runServe(ctx context.Context, host string, port int) error {
	client, err := a.newClient(ctx, a.cfg.AWS.Firehose())
	if err != nil {
		var ce *firehose.ConfigError
		if errors.As(err, &ce) {
			return exitError(exitInvalidArgument, "Invalid AWS configuration", err)
		}
		return exitError(exitExternalServiceUnavailable, "Failed to create Firehose client", err)
	}
	defer func() { _ = client.Close() }()

	hm := handlers.InitHealthManager(versionInfo.Version)
	hm.RegisterChecker("signal", signalHealthChecker{})
	if id := GetAppIdentity(); id != nil {
		hm.RegisterChecker("identity", identityHealthChecker{
			binaryName: id.BinaryName,
			envPrefix:  id.EnvPrefix,
			configName: id.ConfigName,
		})
	}

	sc := a.cfg.Server
	srv := server.New(host, port,
		server.WithClient(client),
		server.WithReadOnly(a.IsReadOnly()),
		server.WithVersion(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate),
		server.WithTimeouts(sc.ReadTimeout, sc.WriteTimeout, sc.IdleTimeout),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return exitError(exitExternalServiceUnavailable, "HTTP relay failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sc.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		observability.CLILogger.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
	return <-errCh
}

// signalHealthChecker always reports healthy.
type signalHealthChecker struct{}

func (signalHealthChecker) CheckHealth(context.Context) error { return nil }

// identityHealthChecker fails when the resolved application identity is incomplete.
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (c identityHealthChecker) CheckHealth(context.Context) error {
	switch {
	case c.binaryName == "":
		return errors.New("app identity missing binary name")
	case c.envPrefix == "":
		return errors.New("app identity missing env prefix")
	case c.configName == "":
		return errors.New("app identity missing config name")
	}
	return nil
}
