package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/notafacil/nfce-collector/internal/api"
	"github.com/notafacil/nfce-collector/internal/feedback"
	"github.com/notafacil/nfce-collector/internal/ingestion"
	"github.com/notafacil/nfce-collector/internal/render"
	"github.com/notafacil/nfce-collector/internal/repository"
)

func main() {
	fs := ff.NewFlagSet("nfce-collector")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "nfce.db", "SQLite database file path")
		renderer      = fs.StringLong("renderer", "chrome", "Page renderer: 'chrome' or 'http'")
		renderTimeout = fs.DurationLong("render-timeout", render.DefaultTimeout, "Max wait for the page results table")
		feedbackCap   = fs.IntLong("feedback-cap", feedback.DefaultCapacity, "Max pending feedback entries")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("NFCE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	slog.Info("initializing database", "path", *dbPath)
	db, err := repository.InitDB(*dbPath)
	if err != nil {
		slog.Error("failed to init db", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	receiptRepo := repository.NewReceiptRepo(db)

	var pageRenderer ingestion.Renderer
	switch *renderer {
	case "chrome":
		pageRenderer = render.NewChrome(*renderTimeout)
	case "http":
		pageRenderer = render.NewHTTPFetcher(*renderTimeout)
	default:
		slog.Error("unknown renderer", "renderer", *renderer)
		os.Exit(1)
	}

	ingestionSvc := ingestion.NewService(pageRenderer, receiptRepo)
	feedbackQueue := feedback.NewQueue(*feedbackCap)

	router := api.NewRouter(ingestionSvc, feedbackQueue)

	slog.Info("NFC-e collector", "port", *port, "renderer", *renderer)
	slog.Info("endpoints: POST /nota, GET /feedback, GET /metrics, GET /")

	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), router); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
