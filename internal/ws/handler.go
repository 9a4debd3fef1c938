package ws

import (
	"context"
	"errors"
	"net/http"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/service"

	"github.com/gorilla/websocket"
)

// NewUpgrader only accepts allowedOrigin when it is set.
func NewUpgrader(allowedOrigin string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
}

// MiningOps is the part of service.MiningService the socket exposes.
type MiningOps interface {
	Status(ctx context.Context, userID int64) (mining.Status, error)
	Start(ctx context.Context, userID int64) (*domain.User, error)
	Claim(ctx context.Context, userID int64) (mining.ClaimResult, *domain.User, error)
}

// MiningDispatcher answers status, start and claim. There is no server-side tick; the
// client polls status.
type MiningDispatcher struct {
	ops MiningOps
}

func NewMiningDispatcher(ops MiningOps) *MiningDispatcher {
	return &MiningDispatcher{ops: ops}
}

func (d *MiningDispatcher) Handle(ctx context.Context, userID int64, req Request) Response {
	switch req.Type {
	case MsgStatus:
		st, err := d.ops.Status(ctx, userID)
		if err != nil {
			return failure(req.Type, userID, err)
		}
		return Response{Type: req.Type, Success: true, Data: st}
	case MsgStart:
		u, err := d.ops.Start(ctx, userID)
		if err != nil {
			return failure(req.Type, userID, err)
		}
		return Response{Type: req.Type, Success: true, Data: map[string]any{"user": u}}
	case MsgClaim:
		res, u, err := d.ops.Claim(ctx, userID)
		if err != nil {
			return failure(req.Type, userID, err)
		}
		return Response{Type: req.Type, Success: true, Data: map[string]any{"result": res, "user": u}}
	}
	return Response{Type: MsgError, Message: "unknown message type"}
}

func failure(typ string, userID int64, err error) Response {
	if service.IsExpected(err) {
		return Response{Type: typ, Message: err.Error()}
	}
	if !errors.Is(err, context.Canceled) {
		logger.Error("ws: request failed", "type", typ, "user_id", userID, "error", err)
	}
	return Response{Type: MsgError, Message: "internal server error"}
}
