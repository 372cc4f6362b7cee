package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/Dxtobi/xplus/pkg/config"
	"github.com/Dxtobi/xplus/pkg/gateway"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/payments"
	"github.com/Dxtobi/xplus/pkg/payouts"
	"github.com/Dxtobi/xplus/pkg/review"
	dydbstore "github.com/Dxtobi/xplus/pkg/storage/dynamodb"
	"github.com/Dxtobi/xplus/pkg/websockets"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var (
	paymentSvc *payments.Service
	logger     *slog.Logger
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		logger.Error("unable to load SDK config", "error", err)
		os.Exit(1)
	}
	store := dydbstore.New(dynamodb.NewFromConfig(awsCfg), dydbstore.TableNames(cfg.Tables))

	var publisher websockets.Publisher = &websockets.NoOpPublisher{}
	if cfg.WebSocketAPIEndpoint != "" {
		p, err := websockets.NewPublisher(context.TODO(), store, cfg.WebSocketAPIEndpoint)
		if err != nil {
			logger.Error("failed to create websocket publisher", "error", err)
			os.Exit(1)
		}
		publisher = p
	}
	notifier := websockets.NewBalanceNotifier(store, publisher, logger)

	gw := gateway.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey, &http.Client{Timeout: cfg.GatewayTimeout})
	reviewer := review.NewService(store, notifier, logger)
	payoutSvc := payouts.NewService(store, gw, reviewer, notifier, logger, cfg.GatewayTimeout)
	// No scheduler: events arriving here are settled directly.
	paymentSvc = payments.NewService(store, gw, payoutSvc, logger, payments.WithNotifier(notifier))
}

// HandleRequest settles the gateway events queued by the webhook handler.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		var event models.GatewayEvent
		if err := json.Unmarshal([]byte(message.Body), &event); err != nil {
			// Malformed bodies are dropped, not retried.
			logger.Error("dropping malformed gateway event", "message_id", message.MessageId, "error", err)
			continue
		}

		logger.Info("settling gateway event", "message_id", message.MessageId, "event", event.Event, "reference", event.Data.Reference)
		if err := paymentSvc.ProcessEvent(ctx, &event); err != nil {
			logger.Error("failed to settle gateway event", "message_id", message.MessageId, "reference", event.Data.Reference, "error", err)
			// Returning an error makes SQS redeliver the message.
			return err
		}
	}
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
