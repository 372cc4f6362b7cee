package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Dxtobi/xplus/pkg/config"
	"github.com/Dxtobi/xplus/pkg/gateway"
	"github.com/Dxtobi/xplus/pkg/payouts"
	"github.com/Dxtobi/xplus/pkg/review"
	"github.com/Dxtobi/xplus/pkg/storage"
	dydbstore "github.com/Dxtobi/xplus/pkg/storage/dynamodb"
	"github.com/Dxtobi/xplus/pkg/websockets"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// stuckWithdrawalThreshold is how long a withdrawal may stay pending before
// its transfer is verified with the gateway.
const stuckWithdrawalThreshold = 30 * time.Minute

var (
	store     storage.Storage
	reviewer  *review.Service
	payoutSvc *payouts.Service
	logger    *slog.Logger
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
	dyStore := dydbstore.New(dynamodb.NewFromConfig(awsCfg), dydbstore.TableNames(cfg.Tables))
	store = dyStore

	var publisher websockets.Publisher = &websockets.NoOpPublisher{}
	if cfg.WebSocketAPIEndpoint != "" {
		p, err := websockets.NewPublisher(context.TODO(), dyStore, cfg.WebSocketAPIEndpoint)
		if err != nil {
			logger.Error("failed to create websocket publisher", "error", err)
			os.Exit(1)
		}
		publisher = p
	}
	notifier := websockets.NewBalanceNotifier(store, publisher, logger)

	gw := gateway.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey, &http.Client{Timeout: cfg.GatewayTimeout})
	reviewer = review.NewService(store, notifier, logger)
	payoutSvc = payouts.NewService(store, gw, reviewer, notifier, logger, cfg.GatewayTimeout)
}

// HandleRequest is triggered by an EventBridge Schedule. It approves
// engagements past the review window, settles stuck withdrawals and reports
// transactions that need manual reconciliation.
func HandleRequest(ctx context.Context) error {
	now := time.Now().UTC()

	approved, err := reviewer.AutoApprove(ctx, now)
	if err != nil {
		logger.Error("auto-approval failed", "approved", approved, "error", err)
		return err
	}

	settled, err := payoutSvc.ReconcileStale(ctx, now.Add(-stuckWithdrawalThreshold))
	if err != nil {
		logger.Error("withdrawal reconciliation failed", "settled", settled, "error", err)
		return err
	}

	flagged, err := store.ListTransactionsNeedingReconciliation(ctx)
	if err != nil {
		logger.Error("failed to list flagged transactions", "error", err)
		return err
	}
	for _, tx := range flagged {
		logger.Warn("transaction needs manual reconciliation",
			"transaction_id", tx.ID, "user_id", tx.UserID, "type", tx.Type, "amount", tx.Amount, "status", tx.Status)
	}

	logger.Info("reconciliation finished", "auto_approved", approved, "withdrawals_settled", settled, "flagged", len(flagged))
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
