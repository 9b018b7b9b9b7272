package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/hakchin/ppst/internal/config"
	"github.com/hakchin/ppst/internal/dto"
	"github.com/hakchin/ppst/internal/middleware"
	"github.com/hakchin/ppst/internal/observability"
	"github.com/hakchin/ppst/internal/repository"
	"github.com/hakchin/ppst/internal/service"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "contacts-export:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("contacts-export", pflag.ContinueOnError)
	fs.String("dir", "", "directory holding stored inquiries (overrides PPST_CONTACTS_DIR)")
	format := fs.StringP("format", "f", string(dto.ExportNDJSON), "export format: ndjson or json")
	output := fs.StringP("output", "o", "", "write the export to this file instead of stdout")
	issueFor := fs.String("issue-token", "", "print an export bearer token for this subject and exit")
	tokenTTL := fs.Duration("token-ttl", time.Hour, "lifetime of an issued token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := config.NewViper()
	if err := v.BindPFlag("contacts.dir", fs.Lookup("dir")); err != nil {
		return err
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if *issueFor != "" {
		token, err := middleware.IssueExportToken(cfg.ExportJWTSecret, *issueFor, *tokenTTL, time.Now())
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		_, err = fmt.Fprintln(stdout, token)
		return err
	}

	exportFormat, err := dto.ParseExportFormat(*format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLoggerTo(os.Stderr, cfg.LogLevel, cfg.AppEnv).With().Str("component", "contacts_export_cli").Logger()

	exporter := service.NewContactExporter(repository.NewFileContactRepository(cfg.ContactsDir))
	body, err := exporter.Export(ctx, exportFormat)
	if err != nil {
		logger.Error().Err(err).Str("dir", cfg.ContactsDir).Msg("export failed")
		return err
	}

	if *output == "" {
		_, err = io.WriteString(stdout, body)
		return err
	}

	if err := os.WriteFile(*output, []byte(body), 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	logger.Info().Str("path", *output).Str("format", string(exportFormat)).Msg("export written")
	return nil
}
