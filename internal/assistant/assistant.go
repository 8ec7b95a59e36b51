// Package assistant runs the meal-planning chat assistant on the Anthropic
// Messages API. The model can save suggested dishes to the household library
// through the addDish tool.
package assistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/dish"
	"github.com/dukerupert/mealplan/internal/validate"
)

// maxToolRounds bounds the request/tool_result exchanges for a single turn.
const maxToolRounds = 4

// maxHistory is the longest conversation accepted in one request.
const maxHistory = 100

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=8000"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,max=100,dive"`
}

// Reply is the assistant's answer to one turn.
type Reply struct {
	Message     string       `json:"message"`
	ToolResults []ToolResult `json:"toolResults"`
}

type Assistant struct {
	client *Client
	dishes *dish.Service
	logger *slog.Logger
}

func New(client *Client, dishes *dish.Service, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{client: client, dishes: dishes, logger: logger}
}

// Configured reports whether the provider has credentials.
func (a *Assistant) Configured() bool {
	return a.client.Configured()
}

// Chat answers the last user message of req in the context of the household's
// dish library, running any addDish calls the model makes.
func (a *Assistant) Chat(ctx context.Context, householdID int64, req ChatRequest) (*Reply, error) {
	if !a.Configured() {
		return nil, apperr.New(apperr.Unavailable, "AI assistant is not configured")
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Messages[len(req.Messages)-1].Role != "user" {
		return nil, apperr.New(apperr.Validation, "The last message must be from the user")
	}

	recent, err := a.dishes.Recent(ctx, householdID, contextDishLimit)
	if err != nil {
		return nil, err
	}
	system := systemPrompt(recent)

	msgs := make([]anthropic.MessageParam, 0, len(req.Messages)+2*maxToolRounds)
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}

	reply := &Reply{ToolResults: []ToolResult{}}
	var text []string
	for round := 1; ; round++ {
		resp, err := a.client.CreateMessage(ctx, anthropic.MessageNewParams{
			System:   []anthropic.TextBlockParam{{Text: system}},
			Messages: msgs,
			Tools:    []anthropic.ToolUnionParam{{OfTool: &addDishTool}},
		})
		if err != nil {
			return nil, apperr.Wrap(err, "assistant request failed")
		}

		var results []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				if strings.TrimSpace(block.Text) != "" {
					text = append(text, block.Text)
				}
			case "tool_use":
				result := a.runTool(ctx, householdID, block.Name, block.Input)
				reply.ToolResults = append(reply.ToolResults, result)
				content, err := json.Marshal(result)
				if err != nil {
					return nil, apperr.Wrap(err, "assistant request failed")
				}
				results = append(results, anthropic.NewToolResultBlock(block.ID, string(content), !result.Success))
			}
		}

		if resp.StopReason != anthropic.StopReasonToolUse || len(results) == 0 || round == maxToolRounds {
			break
		}
		msgs = append(msgs, resp.ToParam(), anthropic.NewUserMessage(results...))
	}

	reply.Message = strings.Join(text, "\n\n")
	return reply, nil
}

func (a *Assistant) runTool(ctx context.Context, householdID int64, name string, input json.RawMessage) ToolResult {
	switch name {
	case addDishToolName:
		result := a.addDish(ctx, householdID, input)
		a.logger.Info("assistant tool call", "tool", name, "household_id", householdID, "success", result.Success)
		return result
	default:
		return ToolResult{Error: "Unknown tool: " + name}
	}
}

// Conversation keeps the history of one chat session, such as a WebSocket
// connection, so clients only send the newest message.
type Conversation struct {
	assistant   *Assistant
	householdID int64
	history     []ChatMessage
}

func (a *Assistant) NewConversation(householdID int64) *Conversation {
	return &Conversation{assistant: a, householdID: householdID}
}

// Send adds a user message and returns the reply. A failed turn leaves the
// history unchanged.
func (c *Conversation) Send(ctx context.Context, content string) (*Reply, error) {
	history := append(c.history[:len(c.history):len(c.history)], ChatMessage{Role: "user", Content: content})
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
		// The model expects the conversation to open with a user turn.
		for len(history) > 0 && history[0].Role != "user" {
			history = history[1:]
		}
	}

	reply, err := c.assistant.Chat(ctx, c.householdID, ChatRequest{Messages: history})
	if err != nil {
		return nil, err
	}
	c.history = history
	if reply.Message != "" {
		c.history = append(c.history, ChatMessage{Role: "assistant", Content: reply.Message})
	}
	return reply, nil
}
