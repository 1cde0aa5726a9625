// Command autoreply runs one pass of the applicant acknowledgement flow:
// it reads the account registry, collects each client's unsent applicants,
// and sends the matching template reply.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"mail-autoreply/internal/common/config"
	"mail-autoreply/internal/common/logger"
	"mail-autoreply/internal/mailer"
	"mail-autoreply/internal/models"
	"mail-autoreply/internal/pipeline"
	"mail-autoreply/internal/sheets"
)

var (
	flagConfig      string
	flagDryRun      bool
	flagAccount     string
	flagMetricsAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "autoreply",
		Short: "Send acknowledgement emails to new applicants",
		Long: "autoreply reads the account registry spreadsheet, selects each client's\n" +
			"unsent applicant rows, renders the client's age-bracket template and sends\n" +
			"the reply, marking each row with a sent timestamp.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to config file (default: configs/config.yaml)")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "render replies without sending or marking rows")
	rootCmd.Flags().StringVar(&flagAccount, "account", "", "process only the account with this email address or client name")
	rootCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "override the metrics listen address")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagMetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = flagMetricsAddr
	}

	tee, err := logger.NewTee(cfg.Logging.Dir, cfg.Logging.Level, cfg.Logging.RetentionDays, cfg.App.Location())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer tee.Close()
	log := tee.Logger()

	log.Info("starting run", map[string]interface{}{
		"app":        cfg.App.Name,
		"dryRun":     flagDryRun,
		"searchDays": cfg.Pipeline.SearchDays,
	})

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, log)
	}

	svc, err := sheets.NewGoogleClient(ctx, cfg.Sheets.CredentialsFile, log)
	if err != nil {
		return fmt.Errorf("init sheets client: %w", err)
	}

	factory, err := transportFactory(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithDryRun(flagDryRun),
	}
	if flagAccount != "" {
		opts = append(opts, pipeline.WithAccountFilter(flagAccount))
	}

	result, err := pipeline.New(cfg, svc, factory, log, opts...).Run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	log.Info("done", map[string]interface{}{
		"sent":         result.Sent,
		"skipped":      result.SkippedNoTemplate + result.SkippedEmptyBody,
		"failed":       result.Failed,
		"sentUnmarked": result.SentUnmarked,
	})
	return nil
}

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFromFile(flagConfig)
	}
	return config.Load()
}

// transportFactory picks the delivery path: the SES relay when enabled,
// otherwise per-account SMTP with the provider resolved from the registry.
func transportFactory(ctx context.Context, cfg *config.Config) (pipeline.TransportFactory, error) {
	if cfg.Integrations.AWS.SES.Enabled {
		ses, err := mailer.NewSESTransport(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("init SES transport: %w", err)
		}
		return func(models.Account) mailer.Transport { return ses }, nil
	}

	timeout := cfg.SMTP.Timeout
	return func(acc models.Account) mailer.Transport {
		return mailer.NewSMTPTransport(acc.SMTPHost, acc.SMTPPort, acc.Email, acc.Password, acc.FallbackPassword, timeout)
	}, nil
}

func serveMetrics(addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics listener started", map[string]interface{}{"addr": addr})
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Warn("metrics listener stopped", nil)
	}
}
