package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChatServer answers every chat completion with content
func newChatServer(t *testing.T, content string, captured *openai.ChatCompletionRequest) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAIService(srv *httptest.Server) *AIService {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	cfg.HTTPClient = srv.Client()
	return NewAIServiceWithConfig(cfg, "")
}

func TestAIService_SuggestTasks(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := newChatServer(t, "```json\n[{\"title\":\"Draft calendar\",\"description\":\"Plan posts\",\"deadline\":\"2030-05-01T00:00:00Z\"},{\"title\":\"Audit ads\",\"description\":\"\",\"deadline\":null}]\n```", &req)

	tasks, err := newTestAIService(srv).SuggestTasks(context.Background(), "Client: Acme\n\nProject ideas:\nspring launch")
	require.NoError(t, err)

	require.Len(t, tasks, 2)
	assert.Equal(t, "Draft calendar", tasks[0].Title)
	require.NotNil(t, tasks[0].Deadline)
	assert.Equal(t, 2030, tasks[0].Deadline.Year())
	assert.Nil(t, tasks[1].Deadline)

	assert.Equal(t, openai.GPT4o, req.Model)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "spring launch")
}

func TestAIService_SuggestTasks_InvalidJSON(t *testing.T) {
	srv := newChatServer(t, "Sure! Here are some ideas.", nil)

	_, err := newTestAIService(srv).SuggestTasks(context.Background(), "Client: Acme")

	assert.ErrorContains(t, err, "failed to parse AI response")
}

func TestAIService_SuggestTasks_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	_, err := newTestAIService(srv).SuggestTasks(context.Background(), "Client: Acme")

	assert.ErrorContains(t, err, "OpenAI API error")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[]`, stripCodeFence("```json\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("```\n[]\n```"))
	assert.Equal(t, `[{"a":1}]`, stripCodeFence(`  [{"a":1}]  `))
}
