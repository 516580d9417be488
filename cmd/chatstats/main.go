// Команда chatstats строит отчет по экспорту Telegram локально, без сервера.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"telegram-chat-stats/internal/adapters/archive"
	"telegram-chat-stats/internal/adapters/exporter"
	"telegram-chat-stats/internal/adapters/langdetect"
	"telegram-chat-stats/internal/adapters/parser"
	"telegram-chat-stats/internal/adapters/source"
	"telegram-chat-stats/internal/adapters/stopwords"
	"telegram-chat-stats/internal/cache"
	"telegram-chat-stats/internal/core/services"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/log"
	"telegram-chat-stats/internal/pkg/config"
	"telegram-chat-stats/internal/server/usecase"
)

// Коды выхода.
const (
	exitOK           = 0
	exitFailure      = 1
	exitNoData       = 2
	exitInvalidInput = 3
)

type flags struct {
	owner       string
	ownerID     string
	chatTypes   string
	excludeBots bool
	asJSON      bool
	xlsxPath    string
	maxSizeMB   int64
	logLevel    string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chatstats", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f flags
	fs.StringVar(&f.owner, "owner", "", "Export owner display name (defaults to personal_information)")
	fs.StringVar(&f.ownerID, "owner-id", "", "Export owner id, e.g. user123")
	fs.StringVar(&f.chatTypes, "chat-types", "*", "Comma-separated chat types to include, * for all")
	fs.BoolVar(&f.excludeBots, "exclude-bots", false, "Exclude bots and bot chats")
	fs.BoolVar(&f.asJSON, "json", false, "Print the report as JSON")
	fs.StringVar(&f.xlsxPath, "xlsx", "", "Also write the report to an Excel workbook")
	fs.Int64Var(&f.maxSizeMB, "max-size-mb", config.DefaultMaxUploadSizeMB, "Maximum archive size")
	fs.StringVar(&f.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: chatstats [flags] <export.zip|result.json|->")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitInvalidInput
	}

	logger := log.New(stderr, f.logLevel, "text")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := buildReport(ctx, fs.Arg(0), stdin, f, logger)
	if err != nil {
		fmt.Fprintf(stderr, "chatstats: %v\n", err)
		switch {
		case errors.Is(err, domain.ErrNoData):
			return exitNoData
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, source.ErrTooLarge):
			return exitInvalidInput
		default:
			return exitFailure
		}
	}

	if err := writeReport(report, f, stdout); err != nil {
		fmt.Fprintf(stderr, "chatstats: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func buildReport(ctx context.Context, path string, stdin io.Reader, f flags, logger *slog.Logger) (*domain.Report, error) {
	maxSize := f.maxSizeMB << 20

	var ds = source.NewFileSource(path, maxSize)
	if path == "-" {
		ds = source.NewReaderSource(stdin, maxSize)
	}
	data, err := ds.Fetch()
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		Server:     config.Server{MaxUploadSizeMB: f.maxSizeMB},
		Processing: config.Processing{CacheTTL: config.DefaultCacheTTL},
	}
	pipeline := services.NewPipeline(
		langdetect.NewWhatlangDetector(),
		stopwords.NewSnowballLookup(),
		services.WithLogger(logger),
	)
	uc := usecase.NewProcessChatUseCase(cfg,
		archive.NewZipLoader(maxSize),
		parser.NewJsonParser(),
		pipeline,
		cache.NewCacheStore(),
		nil,
		logger,
	)

	return uc.Run(ctx, data, domain.Options{
		Owner:       domain.Owner{Name: f.owner, ID: f.ownerID},
		ChatPolicy:  domain.ParseChatTypes(f.chatTypes),
		ExcludeBots: f.excludeBots,
	})
}

func writeReport(report *domain.Report, f flags, stdout io.Writer) error {
	if f.xlsxPath != "" {
		out, err := os.Create(f.xlsxPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", f.xlsxPath, err)
		}
		if err := exporter.NewExcelExporter(out).Export(report); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", f.xlsxPath, err)
		}
	}

	if f.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return exporter.NewConsoleExporter(stdout).Export(report)
}
