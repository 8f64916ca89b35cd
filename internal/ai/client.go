package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Intent is the structured form of a free-text command.
type Intent struct {
	Action      string            `json:"action"`
	Parameters  map[string]string `json:"parameters"`
	Confidence  float64           `json:"confidence"`
	Reply       string            `json:"reply"`
	RawResponse string            `json:"-"`
}

const systemPromptTemplate = `You are the assistant of a reminder app. The user keeps named lists of tasks, each task has a time of day, and tasks fire as notifications. Convert the user's message into one structured intent.

Current time: %s

Available actions:
- add_task: add a task to the active list
- delete_task: delete a task
- list_tasks: show the active list's tasks
- schedule: (re)schedule all notifications for the active list
- cancel_all: cancel every notification
- unknown: anything else

Parameters by action:
- add_task: "time" (strict 24-hour HH:MM, zero-padded) and "task" (the label)
- delete_task: "task" (label or fragment the user referred to)

Rules:
1. Relative times like "in two hours" or "at nine in the evening" must be resolved against the current time and output as zero-padded HH:MM.
2. If the message is not about tasks or reminders, use action unknown and put a short friendly answer in "reply".
3. "reply" is optional for other actions; keep it to one short sentence when present.`

func getSystemPrompt() string {
	now := time.Now()
	return fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04 (Monday)"))
}

// JSON Schema for structured output
var intentSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["add_task", "delete_task", "list_tasks", "schedule", "cancel_all", "unknown"],
			"description": "The action to perform"
		},
		"parameters": {
			"type": "object",
			"additionalProperties": {
				"type": "string"
			},
			"description": "Parameters for the action"
		},
		"confidence": {
			"type": "number",
			"minimum": 0,
			"maximum": 1,
			"description": "Confidence score between 0 and 1"
		},
		"reply": {
			"type": "string",
			"description": "Optional short message to show the user"
		}
	},
	"required": ["action", "confidence"],
	"additionalProperties": false
}`)

func (c *Client) ParseIntent(ctx context.Context, userMessage string) (*Intent, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: getSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMessage,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "intent",
				Schema: intentSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	content := resp.Choices[0].Message.Content
	intent := &Intent{RawResponse: content}

	if err := json.Unmarshal([]byte(content), intent); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return intent, nil
}
