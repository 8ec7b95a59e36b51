package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dukerupert/mealplan/internal/assistant"
	"github.com/dukerupert/mealplan/internal/auth"
	"github.com/dukerupert/mealplan/internal/database"
	"github.com/dukerupert/mealplan/internal/email"
	"github.com/dukerupert/mealplan/internal/logging"
	"github.com/dukerupert/mealplan/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("MEALPLAN_LOG_LEVEL"), os.Getenv("MEALPLAN_LOG_FORMAT"))

	port := os.Getenv("MEALPLAN_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("MEALPLAN_DB_PATH")
	if dbPath == "" {
		dbPath = "mealplan.db"
	}

	baseURL := os.Getenv("MEALPLAN_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	secret := os.Getenv("MEALPLAN_AUTH_SECRET")
	if secret == "" {
		slog.Error("MEALPLAN_AUTH_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(os.Getenv("MEALPLAN_POSTMARK_TOKEN"), os.Getenv("MEALPLAN_EMAIL_FROM"), baseURL)
	if !emailClient.Configured() {
		slog.Warn("MEALPLAN_POSTMARK_TOKEN not set, invitation emails are disabled")
	}

	aiClient := assistant.NewClient(os.Getenv("MEALPLAN_ANTHROPIC_API_KEY"), os.Getenv("MEALPLAN_ANTHROPIC_MODEL"))
	if !aiClient.Configured() {
		slog.Warn("MEALPLAN_ANTHROPIC_API_KEY not set, the assistant is disabled")
	}

	cfg := server.Config{
		Verifier:       auth.NewVerifier(secret, os.Getenv("MEALPLAN_AUTH_ISSUER")),
		Email:          emailClient,
		Assistant:      aiClient,
		OriginPatterns: splitList(os.Getenv("MEALPLAN_ALLOWED_ORIGINS")),
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.Cleanup(cleanupCtx)
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("mealplan starting", "addr", ":"+port, "db", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	srv.Hub().CloseAll()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
