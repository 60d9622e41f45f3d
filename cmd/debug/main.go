package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/events"
	"github.com/charmbracelet/log"
	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/sender"
	"github.com/joho/godotenv"
)

var (
	dataPath string
	sendMail bool
)

func init() {
	flag.StringVar(&dataPath, "data", "", "path to JSON file with test request events")
	flag.BoolVar(&sendMail, "send", false, "deliver the emails instead of logging them")
	flag.Parse()
}

func NewDebugConfig() (*config.Config, error) {
	envpath := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(envpath); err == nil {
		_ = godotenv.Load(envpath)
	}

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	cfg.DebugMode = true
	cfg.AppSendEnabled = sendMail || os.Getenv("APP_SEND_ENABLED") == "true"

	if cfg.DebugDataPath == "" {
		cfg.DebugDataPath = filepath.Join("..", "..", "fixtures", "debug-data.json")
	}
	if dataPath != "" {
		cfg.DebugDataPath = dataPath
	}

	return cfg, nil
}

func main() {
	ctx := context.Background()

	cfg, err := NewDebugConfig()
	if err != nil {
		log.Fatal("failed to debug load config", "error", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.Level(cfg.AppLogLevel)})
	log.SetDefault(logger)
	slog.SetDefault(slog.New(logger))

	if err := cfg.Resolve(ctx); err != nil {
		log.Fatal("failed to resolve config", "error", err)
	}

	s, err := sender.NewSender(ctx, cfg)
	if err != nil {
		log.Fatal("failed to init sender", "error", err)
	}

	data, err := os.ReadFile(cfg.DebugDataPath)
	if err != nil {
		log.Fatal("failed to read data file", "path", cfg.DebugDataPath, "error", err)
	}

	reqs := []events.APIGatewayProxyRequest{}
	if err := json.Unmarshal(data, &reqs); err != nil {
		log.Fatal("failed to parse event file", "error", err)
	}

	failed := 0
	for i, req := range reqs {
		resp, _ := s.Handle(ctx, req)
		if resp.StatusCode >= 500 {
			failed++
			log.Error("iteration failed", "index", i, "status", resp.StatusCode, "body", resp.Body)
			continue
		}
		log.Info("iteration passed", "index", i, "method", req.HTTPMethod, "status", resp.StatusCode, "body", resp.Body)
	}

	if failed > 0 {
		log.Error("integration test failed", "failed", failed, "total", len(reqs))
		os.Exit(1)
	}
	log.Info("integration test passed")
}
