package gateway

import (
	"io"
	"log/slog"
	"strconv"
	"time"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/services"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserKey     = "authenticatedUser"
	maxAttachments = 5
)

// Handlers carries the HTTP surface: accounts, history and attachment sends.
type Handlers struct {
	log       *slog.Logger
	verifier  contract.CredentialVerifier
	auth      services.IAuthService
	messages  services.IMessageService
	cookieTTL time.Duration
}

func NewHandlers(
	log *slog.Logger,
	verifier contract.CredentialVerifier,
	authService services.IAuthService,
	messages services.IMessageService,
	cookieTTL time.Duration,
) *Handlers {
	return &Handlers{
		log:       log,
		verifier:  verifier,
		auth:      authService,
		messages:  messages,
		cookieTTL: cookieTTL,
	}
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar,omitempty"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type historyResponse struct {
	Messages   []event.WireMessage `json:"messages"`
	TotalCount int                 `json:"totalCount"`
	Pages      int                 `json:"pages"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "malformed request body"})
		return
	}

	user, token, err := h.auth.Register(req.Username, req.FullName, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setSessionCookie(c, string(token))
	c.JSON(201, sessionResponse{User: toUserResponse(user), Token: string(token)})
}

func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "malformed request body"})
		return
	}

	user, token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setSessionCookie(c, string(token))
	c.JSON(200, sessionResponse{User: toUserResponse(user), Token: string(token)})
}

// AuthRequired resolves the credential on protected routes and stores the
// user in the request context. Same fail-closed policy as the socket gate.
func (h *Handlers) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.verifier.Verify(c.Request.Context(), extractCredential(c.Request))
		if err != nil {
			c.AbortWithStatusJSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func (h *Handlers) GetMessages(c *gin.Context) {
	user := currentUser(c)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	messages, total, pages, err := h.messages.GetMessages(domain.HistoryQuery{
		ChatID:      domain.ChatID(c.Param("chatId")),
		RequesterID: user.ID,
		Page:        page,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(200, historyResponse{
		Messages:   event.ToWireMessages(messages),
		TotalCount: total,
		Pages:      pages,
	})
}

func (h *Handlers) SendAttachment(c *gin.Context) {
	user := currentUser(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(400, gin.H{"error": "malformed multipart form"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 || len(files) > maxAttachments {
		c.JSON(400, gin.H{"error": "between 1 and 5 files are required"})
		return
	}

	attachments := make([]domain.Attachment, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			c.JSON(400, gin.H{"error": "unreadable file " + header.Filename})
			return
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			c.JSON(400, gin.H{"error": "unreadable file " + header.Filename})
			return
		}
		attachments = append(attachments, domain.Attachment{Filename: header.Filename, Data: data})
	}

	persisted, err := h.messages.SendAttachment(c.Request.Context(), domain.SendAttachmentCommand{
		ChatID:        domain.ChatID(c.PostForm("chatId")),
		SenderID:      user.ID,
		Content:       c.PostForm("content"),
		CorrelationID: c.PostForm("correlationId"),
		Files:         attachments,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(201, gin.H{"message": event.ToWireMessage(persisted)})
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	status := errors.MapToHTTPStatus(err)
	if status >= 500 {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handlers) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(credentialCookie, token, int(h.cookieTTL.Seconds()), "/", "", false, true)
}

func currentUser(c *gin.Context) domain.User {
	user, _ := c.Get(ctxUserKey)
	typed, _ := user.(domain.User)
	return typed
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}
