package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"mining_webapp/internal/db"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository"
	"mining_webapp/internal/service"
	"mining_webapp/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// Smoke test against a running server: registers a user, opens /ws/mining and walks
// status, start and claim. The claim is expected to be refused since no time has passed.
func main() {
	_ = godotenv.Load()
	logger.Init("debug", false)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	reg := service.NewRegistrationService(repository.NewPgStore(pool), mining.DefaultRules())
	u, _, err := reg.Register(context.Background(), service.Registration{ID: 3001, FirstName: "Smoke", Username: "smoke"})
	if err != nil {
		logger.Fatal("register", "error", err)
	}

	q := url.Values{}
	q.Set("userId", strconv.FormatInt(u.ID, 10))
	q.Set("authKey", u.AuthKey)
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws/mining?%s", port, q.Encode())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	read := func() ws.Response {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var resp ws.Response
		if err := conn.ReadJSON(&resp); err != nil {
			logger.Fatal("read", "error", err)
		}
		return resp
	}

	if r := read(); r.Type != ws.MsgReady {
		logger.Fatal("expected ready", "got", r.Type)
	}

	for i, typ := range []string{ws.MsgStatus, ws.MsgStart, ws.MsgClaim, ws.MsgPing} {
		req := ws.Request{Type: typ, ID: strconv.Itoa(i)}
		if err := conn.WriteJSON(req); err != nil {
			logger.Fatal("write", "type", typ, "error", err)
		}
		r := read()
		logger.Info("reply", "request", typ, "type", r.Type, "success", r.Success, "message", r.Message)
	}

	logger.Info("smoke test finished")
}
