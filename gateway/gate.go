package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const credentialCookie = "accessToken"

// Gate admits websocket connections. The credential is verified before the
// upgrade: an unauthenticated peer is turned away with a status code and never
// reaches the read loop.
type Gate struct {
	log      *slog.Logger
	verifier contract.CredentialVerifier
	presence contract.IPresence
	messages services.IMessageService
	upgrader websocket.Upgrader
}

func NewGate(
	log *slog.Logger,
	verifier contract.CredentialVerifier,
	presence contract.IPresence,
	messages services.IMessageService,
) *Gate {
	return &Gate{
		log:      log,
		verifier: verifier,
		presence: presence,
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (g *Gate) Handle(c *gin.Context) {
	user, err := g.verifier.Verify(c.Request.Context(), extractCredential(c.Request))
	if err != nil {
		c.AbortWithStatusJSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "user", user.ID, "error", err)
		return
	}

	conn := newSocketConn(g.log, ws)
	go conn.writePump()

	g.presence.Register(user.ID, conn)
	g.log.Info("socket admitted", "user", user.ID, "connection", conn.ID())

	defer func() {
		g.presence.Unregister(user.ID, conn.ID())
		conn.close()
		g.log.Info("socket closed", "user", user.ID, "connection", conn.ID())
	}()

	g.readLoop(c.Request.Context(), user, ws)
}

// readLoop consumes inbound frames until the peer goes away. A malformed or
// rejected frame is logged and skipped; it never terminates the connection.
func (g *Gate) readLoop(ctx context.Context, user domain.User, ws *websocket.Conn) {
	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				g.log.Debug("socket read failed", "user", user.ID, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var frame event.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			g.log.Warn("malformed frame", "user", user.ID, "error", err)
			continue
		}

		switch frame.Event {
		case event.NameNewMessage:
			cmd, err := event.DecodeSendMessage(user.ID, frame.Data)
			if err != nil {
				g.log.Warn("malformed send", "user", user.ID, "error", err)
				continue
			}
			if _, err := g.messages.SendMessage(ctx, cmd); err != nil {
				g.log.Warn("send rejected", "user", user.ID, "chat", cmd.ChatID, "error", err)
			}
		default:
			g.log.Warn("unknown event", "user", user.ID, "event", frame.Event)
		}
	}
}

// extractCredential prefers the browser cookie, then the Authorization header.
func extractCredential(r *http.Request) string {
	if cookie, err := r.Cookie(credentialCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
