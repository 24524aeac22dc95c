package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// HTTPFetcher pages history through the gateway's REST surface.
type HTTPFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPFetcher(baseURL, token string) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type historyBody struct {
	Messages   []event.WireMessage `json:"messages"`
	TotalCount int                 `json:"totalCount"`
	Pages      int                 `json:"pages"`
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, chatID domain.ChatID, page int) (HistoryPage, error) {
	url := fmt.Sprintf("%s/api/v1/message/%s?page=%d", f.baseURL, chatID, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return HistoryPage{}, err
	}
	req.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.client.Do(req)
	if err != nil {
		return HistoryPage{}, fmt.Errorf("fetching page %d of chat %s: %w", page, chatID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return HistoryPage{}, fmt.Errorf("fetching page %d of chat %s: status %d", page, chatID, resp.StatusCode)
	}

	var body historyBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return HistoryPage{}, fmt.Errorf("decoding history page: %w", err)
	}

	messages := make([]domain.Message, 0, len(body.Messages))
	for _, w := range body.Messages {
		messages = append(messages, event.FromWireMessage(w))
	}
	return HistoryPage{Messages: messages, TotalCount: body.TotalCount, Pages: body.Pages}, nil
}
