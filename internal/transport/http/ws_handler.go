package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/soundwave-fm/realtime-server/internal/proto"
	"github.com/soundwave-fm/realtime-server/internal/realtime"
)

const pingInterval = 20 * time.Second

// WSHandler upgrades HTTP connections, runs the authentication handshake,
// and bridges the socket to the event router.
type WSHandler struct {
	router *realtime.Router
	auth   realtime.Authenticator
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(router *realtime.Router, auth realtime.Authenticator, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{router: router, auth: auth, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	identity, err := h.auth.Verify(ctx, credentialFrom(r))
	if err != nil {
		h.log.Warn().Err(err).Msg("ws authentication failed")
		conn.Close(websocket.StatusPolicyViolation, "authentication failed")
		return
	}

	connID := uuid.NewString()
	client := newWSConn()
	h.router.Connect(connID, identity, client)
	defer func() {
		h.router.Disconnect(connID)
		client.close()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, connID)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", connID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop decodes inbound envelopes and hands commands to the router in
// receive order, so one client's event stream is never reordered.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, connID string) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", connID).Msg("failed to decode inbound")
			return err
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, proto.Outbound{
				Event: realtime.EventError,
				Data:  protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			h.router.HandleCommand(connID, *cmd)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *wsConn) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case outbound, ok := <-client.out:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outbound); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// credentialFrom extracts the bearer credential from the query string or
// the Authorization header. Absent credential means anonymous.
func credentialFrom(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return r.Header.Get("Authorization")
}
