package websockets

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/users"
	"github.com/Dxtobi/xplus/pkg/websockets"
	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// TokenVerifier resolves a session token to the caller's identity.
type TokenVerifier interface {
	Verify(raw string) (users.Identity, error)
}

// Handler handles WebSocket connections, both behind API Gateway and on the
// local development server.
type Handler struct {
	connManager websockets.ConnectionManager
	verifier    TokenVerifier
	hub         *websockets.Hub
	logger      *slog.Logger
}

// NewHandler creates a Handler for API Gateway WebSocket events.
func NewHandler(connManager websockets.ConnectionManager, verifier TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{connManager: connManager, verifier: verifier, logger: logger}
}

// NewLocalHandler creates a Handler that upgrades connections itself and
// registers them with hub. Requests must already be authenticated.
func NewLocalHandler(hub *websockets.Hub, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// HandleConnect authenticates the access_token query parameter and stores the
// connection under the caller's user ID.
func (h *Handler) HandleConnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := request.RequestContext.ConnectionID
	identity, err := h.verifier.Verify(request.QueryStringParameters["access_token"])
	if err != nil {
		h.logger.Info("rejected websocket connection", "connectionId", connectionID, "error", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized}, nil
	}

	if err := h.connManager.AddConnection(ctx, identity.ID, connectionID); err != nil {
		h.logger.Error("failed to save connection ID", "connectionId", connectionID, "error", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, err
	}

	h.logger.Info("Client connected", "connectionId", connectionID, "user_id", identity.ID)
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

// HandleDisconnect handles client disconnections.
func (h *Handler) HandleDisconnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("Client disconnected", "connectionId", request.RequestContext.ConnectionID)

	if err := h.connManager.RemoveConnection(ctx, request.RequestContext.ConnectionID); err != nil {
		h.logger.Error("failed to delete connection ID", "error", err)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, err
	}

	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

// HandleDefault handles messages sent from a client. Clients are not expected to send any.
func (h *Handler) HandleDefault(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Debug("Received message", "connectionId", request.RequestContext.ConnectionID, "body", request.Body)
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all connections for local development.
		return true
	},
}

// ServeHTTP handles WebSocket requests for the local development server.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		respond.Error(w, h.logger, apperrors.ErrUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	connectionID := uuid.New().String()
	h.hub.Register(userID, connectionID, conn)
	h.logger.Info("Client connected locally", "connectionId", connectionID, "user_id", userID)
	defer func() {
		h.hub.Unregister(userID, connectionID)
		h.logger.Info("Client disconnected locally", "connectionId", connectionID, "user_id", userID)
	}()

	// Reading is how a closed connection is noticed; incoming messages are discarded.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("unexpected close error", "error", err)
			}
			break
		}
	}
}
