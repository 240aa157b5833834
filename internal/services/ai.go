package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// TaskSuggester drafts tasks from a free-form client brief
type TaskSuggester interface {
	SuggestTasks(ctx context.Context, brief string) ([]SuggestedTask, error)
}

type AIService struct {
	client *openai.Client
	model  string
}

type SuggestedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

func NewAIService(apiKey, model string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewAIServiceWithConfig allows pointing the client at another base URL
func NewAIServiceWithConfig(cfg openai.ClientConfig, model string) *AIService {
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// SuggestTasks asks the chat model for concrete next tasks for a client
func (s *AIService) SuggestTasks(ctx context.Context, brief string) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := time.Now().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You are a project assistant for a marketing agency. Read the client brief below and propose concrete next tasks for the agency team.

Current time: %s

Client brief:
%s

Return a JSON array of tasks in this format:
[
  {
    "title": "short task title",
    "description": "what needs to be done",
    "deadline": "deadline in RFC3339 format, e.g. 2025-10-28T23:59:59Z, or null when there is no natural deadline"
  }
]

Rules:
- Return an empty array [] when the brief gives nothing to act on
- Return at most 10 tasks
- Convert relative dates such as "next week" into absolute timestamps
- Return JSON only, without any explanation`, currentTime, brief)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
