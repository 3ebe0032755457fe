// Package llm calls an OpenAI-compatible model server for tool-calling
// intent detection. The model stage is best effort: if the server is
// disabled, unreachable or returns garbage, callers get nil and fall
// back to keyword routing.
package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
)

const systemPrompt = "你是绿色出行助手。优先使用工具完成预订/公交查询/用户修改。" +
	"当且仅当需要调用工具时，输出工具调用；否则直接给出简洁回答。"

// ToolCall is the closed set of tool invocations the model may request.
type ToolCall interface {
	isToolCall()
}

// CreateBookingCall asks for a trip booking with a full slot set.
type CreateBookingCall struct {
	FromName   string
	ToName     string
	DepartAt   string
	Passengers int
}

// GetArrivalsCall asks for bus arrivals at a stop, optionally filtered
// to one route.
type GetArrivalsCall struct {
	StopName string
	Route    string
}

// UpdateUserCall asks for a profile patch on the given user.
type UpdateUserCall struct {
	UserID string
	Patch  map[string]any
}

func (CreateBookingCall) isToolCall() {}
func (GetArrivalsCall) isToolCall()   {}
func (UpdateUserCall) isToolCall()    {}

// Result is a model turn: free text, a tool call, or both.
type Result struct {
	Text string
	Tool ToolCall
}

// Client talks to the tool-calling model server.
type Client struct {
	client  *openai.Client
	model   string
	enabled bool
	timeout time.Duration
}

func NewClient(p *profile.Profile) *Client {
	timeout := time.Duration(p.ModelTimeout) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	clientConfig := openai.DefaultConfig(p.ModelAPIKey)
	clientConfig.BaseURL = strings.TrimRight(p.ModelBaseURL, "/") + "/v1"
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   2 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   p.ModelName,
		enabled: p.ModelEnabled,
		timeout: timeout,
	}
}

// Enabled reports whether the model stage is configured on.
func (c *Client) Enabled() bool {
	return c.enabled
}

var tools = []openai.Tool{
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "create_booking",
			Description: "Create a travel booking and return a deeplink for client navigation.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"fromName": {"type": "string"},
					"toName": {"type": "string"},
					"departAt": {"type": "string"},
					"passengers": {"type": "integer", "minimum": 1, "maximum": 8}
				},
				"required": ["fromName", "toName", "departAt", "passengers"]
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "get_bus_arrivals",
			Description: "Query bus arrivals for a stop/route.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"stopName": {"type": "string"},
					"route": {"type": "string"}
				}
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "update_user",
			Description: "Update a user's profile fields; requires RBAC.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"userId": {"type": "string"},
					"patch": {"type": "object"}
				},
				"required": ["userId", "patch"]
			}`),
		},
	},
}

// CallForTool sends userText through the tool-calling model. Returns
// nil when the model is disabled, unreachable, or the response cannot
// be parsed; the orchestrator treats nil as "try the next stage".
func (c *Client) CallForTool(ctx context.Context, userText string) *Result {
	if !c.enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
		Tools:      tools,
		ToolChoice: "auto",
	})
	if err != nil {
		slog.Debug("model server unreachable", "err", err)
		return nil
	}
	if len(resp.Choices) == 0 {
		return nil
	}

	message := resp.Choices[0].Message
	result := &Result{Text: message.Content}
	if len(message.ToolCalls) == 0 {
		return result
	}

	tool, err := parseToolCall(message.ToolCalls[0])
	if err != nil {
		slog.Debug("failed to parse model tool call", "err", err)
		return nil
	}
	result.Tool = tool
	return result
}

func parseToolCall(tc openai.ToolCall) (ToolCall, error) {
	args := []byte(tc.Function.Arguments)
	switch tc.Function.Name {
	case "create_booking":
		var call struct {
			FromName   string `json:"fromName"`
			ToName     string `json:"toName"`
			DepartAt   string `json:"departAt"`
			Passengers int    `json:"passengers"`
		}
		if err := json.Unmarshal(args, &call); err != nil {
			return nil, err
		}
		return CreateBookingCall(call), nil
	case "get_bus_arrivals":
		var call struct {
			StopName string `json:"stopName"`
			Route    string `json:"route"`
		}
		if err := json.Unmarshal(args, &call); err != nil {
			return nil, err
		}
		return GetArrivalsCall(call), nil
	case "update_user":
		var call struct {
			UserID string         `json:"userId"`
			Patch  map[string]any `json:"patch"`
		}
		if err := json.Unmarshal(args, &call); err != nil {
			return nil, err
		}
		return UpdateUserCall(call), nil
	default:
		return nil, errors.Errorf("unknown tool %q", tc.Function.Name)
	}
}
