package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/charmbracelet/log"
	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/sender"
)

var (
	cfg *config.Config
	s   *sender.Sender
)

func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if cfg.DebugMode {
		evtJson, err := json.Marshal(req)
		if err != nil {
			log.Error("issue marshalling event", "error", err)
		}
		log.Print(string(evtJson))
	}

	return s.Handle(ctx, req)
}

func main() {
	var err error
	ctx := context.Background()

	cfg, err = config.New()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.Level(cfg.AppLogLevel),
		ReportTimestamp: true,
	})
	log.SetDefault(logger)
	slog.SetDefault(slog.New(logger))

	if err := cfg.Resolve(ctx); err != nil {
		log.Fatal("failed to resolve config", "error", err)
	}

	s, err = sender.NewSender(ctx, cfg)
	if err != nil {
		log.Fatal("failed to init sender", "error", err)
	}

	lambda.Start(Handler)
}
