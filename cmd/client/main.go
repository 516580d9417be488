package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"telegram-chat-stats/internal/adapters/exporter"
	"telegram-chat-stats/internal/apiclient"
	"telegram-chat-stats/internal/domain"
	"telegram-chat-stats/internal/server"
)

func main() {
	var (
		serverAddr  string
		owner       string
		ownerID     string
		chatTypes   string
		excludeBots bool
		hash        string
		asJSON      bool
		interval    time.Duration
		timeout     time.Duration
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.StringVar(&owner, "owner", "", "Export owner display name")
	flag.StringVar(&ownerID, "owner-id", "", "Export owner id, e.g. user123")
	flag.StringVar(&chatTypes, "chat-types", "", "Comma-separated chat types to include, * for all")
	flag.BoolVar(&excludeBots, "exclude-bots", false, "Exclude bots and bot chats")
	flag.StringVar(&hash, "hash", "", "Reuse a report cached for an earlier upload instead of sending a file")
	flag.BoolVar(&asJSON, "json", false, "Print the raw JSON report")
	flag.DurationVar(&interval, "poll", 2*time.Second, "Status polling interval")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall timeout")
	flag.Parse()

	if hash == "" && flag.NArg() != 1 {
		log.Fatal("Usage: client [flags] <export.zip|result.json>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := apiclient.NewServerClient(serverAddr, 30*time.Second)

	// Флаг учитывается, только если задан явно
	var excludePtr *bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "exclude-bots" {
			excludePtr = &excludeBots
		}
	})

	var (
		started *server.ProcessResponse
		err     error
	)
	if hash != "" {
		req := server.ProcessByHashRequest{Hash: hash, Owner: owner, OwnerID: ownerID, ExcludeBots: excludePtr}
		if chatTypes != "" {
			req.ChatTypes = strings.Split(chatTypes, ",")
		}
		started, err = client.StartByHash(ctx, req)
	} else {
		started, err = upload(ctx, client, flag.Arg(0), apiclient.StartOptions{
			Owner:       owner,
			OwnerID:     ownerID,
			ChatTypes:   chatTypes,
			ExcludeBots: excludePtr,
		})
	}
	if err != nil {
		log.Fatalf("Не удалось запустить задачу: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Задача создана с идентификатором: %s (hash %s)\n", started.TaskID, started.Hash)

	status, err := client.WaitForTask(ctx, started.TaskID, interval)
	if err != nil {
		log.Fatalf("Не удалось опросить статус задачи: %v", err)
	}

	switch status.Status {
	case server.TaskStatusCompleted:
		report, err := client.GetTaskResult(ctx, started.TaskID)
		if err != nil {
			log.Fatalf("Не удалось получить результат: %v", err)
		}
		if err := printReport(report, asJSON); err != nil {
			log.Fatalf("Не удалось вывести результат: %v", err)
		}
	case server.TaskStatusNoData:
		fmt.Fprintln(os.Stderr, "В экспорте нет сообщений.")
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Задача не выполнена [%s]: %s\n", status.ErrorCode, status.ErrorMessage)
		os.Exit(1)
	}
}

func upload(ctx context.Context, client *apiclient.ServerClient, path string, opts apiclient.StartOptions) (*server.ProcessResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл %s: %w", path, err)
	}
	defer file.Close()

	return client.StartTask(ctx, apiclient.DocumentFile{Name: filepath.Base(path), Content: file}, opts)
}

func printReport(report *domain.Report, asJSON bool) error {
	if !asJSON {
		return exporter.NewConsoleExporter(os.Stdout).Export(report)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
