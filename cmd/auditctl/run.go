package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/user/audit-service/internal/adapter/chromedp_fetcher"
	"github.com/user/audit-service/internal/adapter/genai_generator"
	"github.com/user/audit-service/internal/adapter/http_fetcher"
	"github.com/user/audit-service/internal/adapter/memory"
	"github.com/user/audit-service/internal/recommend"
	"github.com/user/audit-service/internal/report"
	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/internal/usecase"
	"github.com/user/audit-service/pkg/config"
	"github.com/user/audit-service/pkg/metrics"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Audit a URL and print the report",
		Args:  cobra.ExactArgs(1),
		RunE:  runAudit,
	}
	cmd.Flags().Bool("browser", false, "Render the page in headless Chrome before analysis")
	cmd.Flags().Duration("timeout", 10*time.Second, "Page fetch timeout")
	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	useBrowser, _ := cmd.Flags().GetBool("browser")
	var fetcher repository.PageFetcher = http_fetcher.NewHTTPFetcher(0)
	if useBrowser {
		browser := chromedp_fetcher.NewChromedpFetcher(1, log)
		defer browser.Close()
		fetcher = browser
	}

	var recommender repository.Recommender = recommend.NewFallback(nil)
	if cfg.GenerationEnabled() {
		gen, err := genai_generator.NewGenAIGenerator(ctx, genai_generator.Config{
			APIKey:  cfg.GenAIAPIKey,
			Model:   cfg.GenAIModel,
			Timeout: cfg.GenerationTimeout(),
		})
		if err != nil {
			return err
		}
		recommender = recommend.NewGenerative(gen, nil, log)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	policy := repository.DefaultFetchPolicy
	policy.Timeout = timeout

	reports := memory.NewReportRepo()
	auditor := usecase.NewAuditUseCase(fetcher, recommender, reports, memory.NewCacheRepo(nil),
		metrics.New(prometheus.NewRegistry()), log, usecase.AuditOptions{FetchPolicy: policy})

	id, err := auditor.Audit(ctx, args[0])
	if err != nil {
		if msg := userMessage(err); msg != "" {
			return fmt.Errorf("audit failed: %s", msg)
		}
		return err
	}
	rep, err := reports.Get(ctx, id)
	if err != nil {
		return err
	}

	w, err := report.NewWriter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return w.Write(rep)
}

func userMessage(err error) string {
	var stageErr *usecase.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Message()
	}
	return ""
}

func formatFlag(cmd *cobra.Command) (report.Format, error) {
	raw, _ := cmd.Flags().GetString("format")
	return report.ParseFormat(raw)
}

// newLogger logs to stderr so that stdout carries only the report.
func newLogger(cmd *cobra.Command) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}
