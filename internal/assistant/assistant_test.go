package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/database"
	"github.com/dukerupert/mealplan/internal/dish"
	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/store"
)

// wireBlock and friends mirror the Messages API JSON as the fake server sees it.
type wireBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type wireMessage struct {
	Role    string      `json:"role"`
	Content []wireBlock `json:"content"`
}

type wireRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    []wireBlock   `json:"system"`
	Messages  []wireMessage `json:"messages"`
	Tools     []struct {
		Name string `json:"name"`
	} `json:"tools"`
}

type wireResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []wireBlock    `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      map[string]int `json:"usage"`
}

// resultText returns the text of a tool_result block, whose content may be
// a string or a list of text blocks.
func resultText(t *testing.T, b wireBlock) string {
	t.Helper()
	var s string
	if err := json.Unmarshal(b.Content, &s); err == nil {
		return s
	}
	var blocks []wireBlock
	require.NoError(t, json.Unmarshal(b.Content, &blocks))
	var parts []string
	for _, blk := range blocks {
		parts = append(parts, blk.Text)
	}
	return strings.Join(parts, "")
}

func (r wireRequest) systemText() string {
	var parts []string
	for _, b := range r.System {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "")
}

// fakeAnthropic replays canned responses and records every request body.
type fakeAnthropic struct {
	mu        sync.Mutex
	responses []wireResponse
	requests  []wireRequest
	headers   []http.Header
}

func (f *fakeAnthropic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req wireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.requests = append(f.requests, req)
	f.headers = append(f.headers, r.Header.Clone())

	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	resp.ID = fmt.Sprintf("msg_%d", len(f.requests))
	resp.Type = "message"
	resp.Role = "assistant"
	resp.Model = req.Model
	resp.Usage = map[string]int{"input_tokens": 10, "output_tokens": 10}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func textResponse(text string) wireResponse {
	return wireResponse{StopReason: "end_turn", Content: []wireBlock{{Type: "text", Text: text}}}
}

func addDishCall(id string, input string) wireResponse {
	return wireResponse{
		StopReason: "tool_use",
		Content: []wireBlock{
			{Type: "text", Text: "Adding it now."},
			{Type: "tool_use", ID: id, Name: addDishToolName, Input: json.RawMessage(input)},
		},
	}
}

func setupAssistant(t *testing.T, responses ...wireResponse) (*Assistant, *fakeAnthropic, *store.DishStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h, err := store.NewHouseholdStore(db).Create(context.Background(), "Test Household")
	require.NoError(t, err)

	fake := &fakeAnthropic{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := NewClient("test-key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	return New(client, dish.NewService(db), nil), fake, store.NewDishStore(db), h.ID
}

func userTurn(text string) ChatRequest {
	return ChatRequest{Messages: []ChatMessage{{Role: "user", Content: text}}}
}

func TestChatPlainReply(t *testing.T) {
	a, fake, _, hh := setupAssistant(t, textResponse("Try a frittata."))

	reply, err := a.Chat(context.Background(), hh, userTurn("What can I make with eggs?"))
	require.NoError(t, err)
	require.Equal(t, "Try a frittata.", reply.Message)
	require.Empty(t, reply.ToolResults)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	require.Equal(t, DefaultModel, req.Model)
	require.Equal(t, defaultMaxTokens, req.MaxTokens)
	require.Len(t, req.Tools, 1)
	require.Equal(t, addDishToolName, req.Tools[0].Name)
	require.Contains(t, req.systemText(), "library is currently empty")

	h := fake.headers[0]
	require.Equal(t, "test-key", h.Get("x-api-key"))
	require.Equal(t, "2023-06-01", h.Get("anthropic-version"))
}

func TestChatAddDishTool(t *testing.T) {
	a, fake, dishes, hh := setupAssistant(t,
		addDishCall("toolu_1", `{"name":" Shakshuka ","description":"Eggs in spicy tomato sauce","ingredients":["eggs"," ","tomatoes"],"category":"breakfast"}`),
		textResponse("Saved Shakshuka to your library."),
	)

	reply, err := a.Chat(context.Background(), hh, userTurn("Yes, add it"))
	require.NoError(t, err)
	require.Equal(t, "Adding it now.\n\nSaved Shakshuka to your library.", reply.Message)
	require.Len(t, reply.ToolResults, 1)
	require.True(t, reply.ToolResults[0].Success)
	require.Equal(t, "Shakshuka", reply.ToolResults[0].Dish.Name)

	saved, err := dishes.List(context.Background(), hh, nil)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, []string{"eggs", "tomatoes"}, saved[0].Ingredients)
	require.Equal(t, model.CategoryBreakfast, *saved[0].Category)

	// The second request carries the tool call and its result.
	require.Len(t, fake.requests, 2)
	msgs := fake.requests[1].Messages
	require.Len(t, msgs, 3)
	require.Equal(t, "assistant", msgs[1].Role)
	require.Equal(t, "user", msgs[2].Role)
	result := msgs[2].Content[0]
	require.Equal(t, "tool_result", result.Type)
	require.Equal(t, "toolu_1", result.ToolUseID)
	require.False(t, result.IsError)
	require.Contains(t, resultText(t, result), `"success":true`)
}

func TestChatAddDishDuplicate(t *testing.T) {
	a, fake, dishes, hh := setupAssistant(t,
		addDishCall("toolu_1", `{"name":"pancakes","ingredients":["flour"],"category":"breakfast"}`),
		textResponse("You already have that one."),
	)
	_, err := dishes.Create(context.Background(), hh, store.DishParams{Name: "Pancakes"})
	require.NoError(t, err)

	reply, err := a.Chat(context.Background(), hh, userTurn("add pancakes"))
	require.NoError(t, err)
	require.Len(t, reply.ToolResults, 1)
	require.False(t, reply.ToolResults[0].Success)
	require.Equal(t, `A dish named "pancakes" already exists in your library.`, reply.ToolResults[0].Error)

	result := fake.requests[1].Messages[2].Content[0]
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "already exists")
}

func TestChatAddDishBadCategory(t *testing.T) {
	a, _, dishes, hh := setupAssistant(t,
		addDishCall("toolu_1", `{"name":"Soup","ingredients":[],"category":"brunch"}`),
		textResponse("ok"),
	)

	reply, err := a.Chat(context.Background(), hh, userTurn("add soup"))
	require.NoError(t, err)
	require.False(t, reply.ToolResults[0].Success)

	saved, err := dishes.List(context.Background(), hh, nil)
	require.NoError(t, err)
	require.Empty(t, saved)
}

func TestChatStopsAfterMaxRounds(t *testing.T) {
	a, fake, _, hh := setupAssistant(t,
		addDishCall("toolu_1", `{"name":"Dish","ingredients":[],"category":"any"}`),
	)

	reply, err := a.Chat(context.Background(), hh, userTurn("add everything"))
	require.NoError(t, err)
	require.Len(t, fake.requests, maxToolRounds)
	require.Len(t, reply.ToolResults, maxToolRounds)
	require.True(t, reply.ToolResults[0].Success)
	require.False(t, reply.ToolResults[1].Success, "later calls hit the duplicate-name check")
}

func TestChatSystemPromptListsRecentDishes(t *testing.T) {
	a, fake, dishes, hh := setupAssistant(t, textResponse("hi"))
	ctx := context.Background()
	dinner := model.CategoryDinner
	_, err := dishes.Create(ctx, hh, store.DishParams{
		Name:        "Chili",
		Category:    &dinner,
		Ingredients: []string{"beans", "beef", "onion", "tomato", "cumin", "chili powder"},
	})
	require.NoError(t, err)

	_, err = a.Chat(ctx, hh, userTurn("hello"))
	require.NoError(t, err)
	require.Contains(t, fake.requests[0].systemText(), "- Chili (dinner): beans, beef, onion, tomato, cumin...")
}

func TestChatErrors(t *testing.T) {
	a, _, _, hh := setupAssistant(t, textResponse("unused"))
	ctx := context.Background()

	tests := []struct {
		name string
		req  ChatRequest
	}{
		{"empty", ChatRequest{}},
		{"bad role", ChatRequest{Messages: []ChatMessage{{Role: "system", Content: "x"}}}},
		{"empty content", ChatRequest{Messages: []ChatMessage{{Role: "user", Content: ""}}}},
		{"ends with assistant", ChatRequest{Messages: []ChatMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Chat(ctx, hh, tt.req)
			require.True(t, apperr.Is(err, apperr.Validation), "err = %v", err)
		})
	}

	unconfigured := New(NewClient("", ""), nil, nil)
	_, err := unconfigured.Chat(ctx, hh, userTurn("hi"))
	require.True(t, apperr.Is(err, apperr.Unavailable))
}

func TestChatProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer srv.Close()

	client := NewClient("k", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	_, err := client.CreateMessage(context.Background(), anthropic.MessageNewParams{
		Messages: []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("hi"))},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 400")

	var apiErr *anthropic.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = NewClient("", "").CreateMessage(context.Background(), anthropic.MessageNewParams{})
	require.ErrorContains(t, err, "not configured")
}

func TestConversationKeepsHistory(t *testing.T) {
	a, fake, _, hh := setupAssistant(t, textResponse("first"), textResponse("second"))
	conv := a.NewConversation(hh)
	ctx := context.Background()

	r, err := conv.Send(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, "first", r.Message)

	_, err = conv.Send(ctx, "and then?")
	require.NoError(t, err)

	msgs := fake.requests[1].Messages
	require.Len(t, msgs, 3)
	require.Equal(t, "hello", msgs[0].Content[0].Text)
	require.Equal(t, "first", msgs[1].Content[0].Text)
	require.Equal(t, "and then?", msgs[2].Content[0].Text)
}

func TestConversationFailedTurnKeepsHistory(t *testing.T) {
	a, _, _, hh := setupAssistant(t, textResponse("ok"))
	conv := a.NewConversation(hh)

	_, err := conv.Send(context.Background(), strings.Repeat("x", 9000))
	require.True(t, apperr.Is(err, apperr.Validation))
	require.Empty(t, conv.history)
}
