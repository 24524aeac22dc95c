package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=http://localhost:8080"`
	Username  string `env:"CHAT_USERNAME,required=true"`
	Password  string `env:"CHAT_PASSWORD,required=true"`
	ChatID    string `env:"CHAT_ID,required=true"`
	LogLevel  string `env:"LOG_LEVEL,required=true"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the terminal client lifecycle: login, history load, the socket
// reader and the stdin send loop.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Authenticate and load the newest history page.
	userID, token, err := login(ctx, config.ServerURL, config.Username, config.Password)
	if err != nil {
		return exitRuntime, err
	}

	session := client.NewSession(log, client.NewHTTPFetcher(config.ServerURL, token), userID)
	if _, err := session.SelectChat(ctx, domain.ChatID(config.ChatID)); err != nil {
		return exitRuntime, err
	}
	for _, entry := range session.Entries() {
		printEntry(entry)
	}

	// 4. Open the realtime channel.
	wsURL := strings.Replace(config.ServerURL, "http", "ws", 1) + "/ws"
	header := http.Header{"Authorization": {"Bearer " + token}}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", wsURL, err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer func() {
		log.Info("Closing connection...")
		_ = ws.Close()
	}()

	log.Info(fmt.Sprintf(">>> Connected to %s! Listening on chat %s (Ctrl+C to quit)...",
		config.ServerURL, config.ChatID))

	// 5. Reception loop, runs until the server closes or the context ends.
	readErr := make(chan error, 1)
	go func() { readErr <- receive(ws, session) }()

	// 6. Stdin send loop.
	go send(ctx, ws, session, domain.ChatID(config.ChatID))

	select {
	case <-ctx.Done():
		log.Info("Stopping client...")
		return exitOK, nil
	case err := <-readErr:
		if ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("socket error: %w", err)
	}
}

type pushData struct {
	ChatID  string            `json:"chatId"`
	Message event.WireMessage `json:"message"`
}

func receive(ws *websocket.Conn, session *client.Session) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}

		var frame event.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Event {
		case event.NameNewMessage, event.NameNewAttachment:
			var push pushData
			if err := json.Unmarshal(frame.Data, &push); err != nil {
				continue
			}
			message := event.FromWireMessage(push.Message)
			if frame.Event == event.NameNewMessage {
				session.OnLiveMessage(message)
			} else {
				session.OnLiveAttachment(message)
			}
			printMessage(message)
		case event.NameNewMessageAlert:
			// Activity in another chat; nothing to render here.
		}
	}
}

func send(ctx context.Context, ws *websocket.Conn, session *client.Session, chatID domain.ChatID) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		content := strings.TrimSpace(scanner.Text())
		if content == "" {
			continue
		}

		correlationID := uuid.NewString()
		session.CreatePending(client.PendingEntry{
			TempID:        uuid.NewString(),
			CorrelationID: correlationID,
			Content:       content,
		})

		frame, err := json.Marshal(map[string]any{
			"event": event.NameNewMessage,
			"data": map[string]string{
				"chatId":        string(chatID),
				"content":       content,
				"correlationId": correlationID,
			},
		})
		if err != nil {
			continue
		}
		if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

// login authenticates against the gateway and returns the user id and token.
func login(ctx context.Context, serverURL, username, password string) (string, string, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		serverURL+"/api/v1/users/login", bytes.NewReader(payload))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return "", "", fmt.Errorf("login failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	var body struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", err
	}
	return body.User.ID, body.Token, nil
}

func printEntry(entry client.Entry) {
	if entry.Pending {
		color.Gray.Printf("[sending] %s\n", entry.Message.Content)
		return
	}
	printMessage(entry.Message)
}

func printMessage(m domain.Message) {
	sender := color.Cyan.Sprint(m.Sender.Name)
	line := fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Format(time.TimeOnly), sender, m.Content)
	if len(m.Attachments) > 0 {
		line += color.Yellow.Sprintf(" (%d attachments)", len(m.Attachments))
	}
	fmt.Println(line)
}
