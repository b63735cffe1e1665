package openai

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// ChatCompletionRequest mirrors the subset of the OpenAI chat completions
// request body the proxy understands. Other fields are ignored.
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat requests structured output. Only type "json_schema" is acted on.
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema carries the schema verbatim so its key order survives.
type JSONSchema struct {
	Name   string          `json:"name,omitempty"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

// Message is a single chat message.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// UnmarshalJSON accepts entries that are not objects; they decode with an
// empty role, which prompt.Build drops.
func (m *Message) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	m.Role = r.Get("role").String()
	return m.Content.UnmarshalJSON([]byte(r.Get("content").Raw))
}

// Content is message text. On input it also accepts the array-of-parts form,
// keeping only the text parts.
type Content string

func (c *Content) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	switch {
	case r.Type == gjson.String:
		*c = Content(r.Str)
	case r.Type == gjson.Null:
		*c = ""
	case r.IsArray():
		var parts []string
		r.ForEach(func(_, part gjson.Result) bool {
			if part.Type == gjson.String {
				parts = append(parts, part.Str)
			} else if t := part.Get("text"); t.Exists() {
				parts = append(parts, t.String())
			}
			return true
		})
		*c = Content(strings.Join(parts, "\n"))
	default:
		*c = Content(r.Raw)
	}
	return nil
}

// ChatCompletionResponse is the blocking OpenAI response format.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice wraps a single completion result.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage holds estimated token counts; they are not produced by a tokenizer.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
