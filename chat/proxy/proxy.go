// Package proxy forwards chat turns to a secondary chatbot backend
// that carries its own retrieval and generation pipeline. The proxy
// stage is best effort: nil means "backend unavailable, keep going".
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/reply"
	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
)

// Client talks to the secondary chatbot backend over its /api/chat
// contract.
type Client struct {
	baseURL    string
	enabled    bool
	httpClient *http.Client
}

func NewClient(p *profile.Profile) *Client {
	timeout := time.Duration(p.ProxyTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(p.ProxyBaseURL, "/"),
		enabled:    p.ProxyEnabled,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the proxy stage is configured on.
func (c *Client) Enabled() bool {
	return c.enabled
}

type chatRequest struct {
	ConversationID string        `json:"conversationId"`
	User           requestUser   `json:"user"`
	Message        requestText   `json:"message"`
	Client         requestClient `json:"client"`
}

type requestUser struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type requestText struct {
	Text string `json:"text"`
}

type requestClient struct {
	Platform   string `json:"platform"`
	AppVersion string `json:"appVersion"`
	Timezone   string `json:"timezone"`
}

// ForwardChat sends the turn to the secondary backend and adapts its
// answer into a Reply. Returns nil when the backend is disabled,
// unreachable, or answers with anything but 200.
func (c *Client) ForwardChat(ctx context.Context, userID, role, conversationID, text string) *reply.Reply {
	if !c.enabled {
		return nil
	}

	payload, err := json.Marshal(chatRequest{
		ConversationID: conversationID,
		User:           requestUser{UserID: userID, Role: role},
		Message:        requestText{Text: text},
		Client: requestClient{
			Platform:   "android",
			AppVersion: "1.0.0",
			Timezone:   "Asia/Singapore",
		},
	})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("proxy backend unreachable", "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("proxy backend returned non-200", "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return parseResponse(body, conversationID)
}

func parseResponse(body []byte, fallbackConvID string) *reply.Reply {
	var parsed struct {
		ConversationID string `json:"conversationId"`
		Assistant      struct {
			Text      string           `json:"text"`
			Citations []reply.Citation `json:"citations"`
		} `json:"assistant"`
		UIActions []reply.UIAction `json:"uiActions"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.Warn("failed to parse proxy response", "err", err)
		return nil
	}

	convID := parsed.ConversationID
	if convID == "" {
		convID = fallbackConvID
	}

	out := reply.New(convID, parsed.Assistant.Text).WithCitations(parsed.Assistant.Citations)
	for _, action := range parsed.UIActions {
		out.WithUIAction(action)
	}
	return out
}
