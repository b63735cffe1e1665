package openai

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	apierrors "github.com/zhengjr9/cli-agent/internal/errors"
	"github.com/zhengjr9/cli-agent/internal/prompt"
)

// ParseRequest decodes a chat completions request body. A body that is not
// JSON yields *errors.ParseError; a missing or non-array "messages" field
// yields *errors.ValidationError. Fields of an unexpected type are read
// leniently rather than rejected.
func ParseRequest(body []byte) (*ChatCompletionRequest, error) {
	if !gjson.ValidBytes(body) {
		return nil, &apierrors.ParseError{Err: errors.New("body is not valid JSON")}
	}
	root := gjson.ParseBytes(body)
	messages := root.Get("messages")
	if !messages.IsArray() {
		return nil, &apierrors.ValidationError{Reason: "messages must be an array"}
	}

	req := &ChatCompletionRequest{Model: root.Get("model").String()}
	for _, raw := range messages.Array() {
		var m Message
		if err := m.UnmarshalJSON([]byte(raw.Raw)); err != nil {
			return nil, &apierrors.ParseError{Err: err}
		}
		req.Messages = append(req.Messages, m)
	}
	req.ResponseFormat = parseResponseFormat(root.Get("response_format"))
	return req, nil
}

// parseResponseFormat returns nil unless rf is an object.
func parseResponseFormat(rf gjson.Result) *ResponseFormat {
	if !rf.IsObject() {
		return nil
	}
	out := &ResponseFormat{Type: rf.Get("type").String()}
	if js := rf.Get("json_schema"); js.IsObject() {
		out.JSONSchema = &JSONSchema{Name: js.Get("name").String()}
		if schema := js.Get("schema"); schema.Exists() {
			out.JSONSchema.Schema = json.RawMessage(schema.Raw)
		}
	}
	return out
}

// Schema returns the formatted JSON schema hint, or "" when the request does
// not ask for json_schema output.
func (r *ChatCompletionRequest) Schema() string {
	rf := r.ResponseFormat
	if rf == nil || rf.Type != "json_schema" || rf.JSONSchema == nil {
		return ""
	}
	return prompt.SchemaText(gjson.ParseBytes(rf.JSONSchema.Schema))
}

// Prompt flattens the request into the text written to the CLI.
func (r *ChatCompletionRequest) Prompt() string {
	msgs := make([]prompt.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, prompt.Message{Role: m.Role, Content: string(m.Content)})
	}
	return prompt.Build(msgs, r.Schema())
}

// NewResponse wraps a completion into the single-choice response envelope.
func NewResponse(model, promptText, completion string) *ChatCompletionResponse {
	promptTokens := prompt.EstimateTokens(promptText)
	completionTokens := prompt.EstimateTokens(completion)
	return &ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      Message{Role: prompt.RoleAssistant, Content: Content(completion)},
				FinishReason: "stop",
			},
		},
		Usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}

// WriteBlockingResponse encodes resp with a 200 status.
func WriteBlockingResponse(w http.ResponseWriter, resp *ChatCompletionResponse) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
