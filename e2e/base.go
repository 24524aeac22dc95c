package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/gateway"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseSuite boots the whole stack in-process: a temp Badger database, the
// realtime runtime under supervision, and the gateway behind an httptest
// server. Scenarios talk to it exactly like a browser would.
type BaseSuite struct {
	suite.Suite
	Config Config

	dbDir  string
	db     *badger.DB
	server *httptest.Server
	chats  repositories.IChatRepository

	cancel  context.CancelFunc
	supDone chan struct{}
}

func (s *BaseSuite) SetupSuite() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)
	s.Config = cfg

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.dbDir, err = os.MkdirTemp("", "chat-relay-e2e-*")
	s.Require().NoError(err)

	s.db, err = badger.Open(badger.DefaultOptions(s.dbDir).
		WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)

	messages := repositories.NewMessageRepository(s.db, log)
	users := repositories.NewUserRepository(s.db)
	s.chats = repositories.NewChatRepository(s.db)

	filesDir := filepath.Join(s.dbDir, "files")
	store, err := storage.NewDiskStore(log, filesDir, "http://localhost/files")
	s.Require().NoError(err)

	presence := runtime.NewPresence(log)
	router := runtime.NewRouter(log, presence, 64)

	sup := workers.NewSupervisor(log)
	sup.Add(router)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.supDone = make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(s.supDone)
	}()

	tokens := auth.NewTokenManager("e2e-secret", time.Hour)
	verifier := auth.NewVerifier(tokens, users)
	authService := services.NewAuthService(users, tokens)
	messageService := services.NewMessageService(log, messages, s.chats, users, store, router)

	handlers := gateway.NewHandlers(log, verifier, authService, messageService, time.Hour)
	gate := gateway.NewGate(log, verifier, presence, messageService)
	s.server = httptest.NewServer(gateway.NewServer(handlers, gate, filesDir))
}

func (s *BaseSuite) TearDownSuite() {
	s.server.Close()
	s.cancel()
	<-s.supDone
	_ = s.db.Close()
	_ = os.RemoveAll(s.dbDir)
}

// RegisterUser creates an account through the public endpoint and returns
// the user id and session token.
func (s *BaseSuite) RegisterUser(username, fullName string) (string, string) {
	payload := fmt.Sprintf(`{"username":%q,"fullName":%q,"password":"E2e-Passw0rd!xyz"}`,
		username, fullName)

	resp, err := http.Post(s.server.URL+"/api/v1/users/register",
		"application/json", strings.NewReader(payload))
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var body struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return body.User.ID, body.Token
}

// CreateChat seeds a chat directly through the repository, the way the
// out-of-scope chat CRUD surface would.
func (s *BaseSuite) CreateChat(name string, members ...string) domain.ChatID {
	chat, err := s.chats.CreateChat(name, len(members) > 2, members)
	s.Require().NoError(err)
	return chat.ID
}

// DialSocket opens an authenticated websocket against the gateway.
func (s *BaseSuite) DialSocket(token string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	header := http.Header{"Authorization": {"Bearer " + token}}
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	s.Require().NoError(err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return ws
}

// AwaitFrame reads frames until one carries the wanted event name, skipping
// interleaved alerts, within the configured receive timeout.
func (s *BaseSuite) AwaitFrame(ws *websocket.Conn, eventName string) event.Frame {
	deadline := time.Now().Add(s.Config.ReceiveTimeout)
	s.Require().NoError(ws.SetReadDeadline(deadline))

	for {
		_, data, err := ws.ReadMessage()
		s.Require().NoError(err, "no %s frame before the receive timeout", eventName)

		var frame event.Frame
		s.Require().NoError(json.Unmarshal(data, &frame))
		if s.Config.DebugFrames {
			s.T().Logf("frame: %s", data)
		}
		if frame.Event == eventName {
			return frame
		}
	}
}

// GetHistory fetches one page through the REST surface.
func (s *BaseSuite) GetHistory(token string, chatID domain.ChatID, page int) (messages []event.WireMessage, total, pages int) {
	url := fmt.Sprintf("%s/api/v1/message/%s?page=%d", s.server.URL, chatID, page)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Messages   []event.WireMessage `json:"messages"`
		TotalCount int                 `json:"totalCount"`
		Pages      int                 `json:"pages"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return body.Messages, body.TotalCount, body.Pages
}

// PostAttachment sends a multipart attachment request and returns the response.
func (s *BaseSuite) PostAttachment(token string, chatID domain.ChatID, caption string, files map[string][]byte) *http.Response {
	body := &bytes.Buffer{}
	writer := newMultipart(s, body, chatID, caption, files)

	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/v1/message/attachment", body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func newMultipart(s *BaseSuite, body *bytes.Buffer, chatID domain.ChatID, caption string, files map[string][]byte) string {
	writer := multipart.NewWriter(body)
	s.Require().NoError(writer.WriteField("chatId", string(chatID)))
	if caption != "" {
		s.Require().NoError(writer.WriteField("content", caption))
	}
	for name, data := range files {
		part, err := writer.CreateFormFile("files", name)
		s.Require().NoError(err)
		_, err = part.Write(data)
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())
	return writer.FormDataContentType()
}
