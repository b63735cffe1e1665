package openai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/zhengjr9/cli-agent/internal/errors"
)

func TestParseRequest_Valid(t *testing.T) {
	body := `{"model":"gpt-4","messages":[{"role":"user","content":"hi"}],"max_tokens":100,"stream":false}`

	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, Content("hi"), req.Messages[0].Content)
	assert.Nil(t, req.ResponseFormat)
}

func TestParseRequest_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		validation bool
	}{
		{"empty object", `{}`, true},
		{"messages string", `{"messages":"hi"}`, true},
		{"messages object", `{"messages":{"role":"user"}}`, true},
		{"messages null", `{"messages":null}`, true},
		{"truncated json", `{"messages":[`, false},
		{"not json", `hello`, false},
		{"empty body", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tt.body))
			require.Error(t, err)

			var verr *apierrors.ValidationError
			var perr *apierrors.ParseError
			if tt.validation {
				assert.ErrorAs(t, err, &verr)
				assert.Equal(t, "Invalid request: messages must be an array", err.Error())
			} else {
				assert.ErrorAs(t, err, &perr)
			}
		})
	}
}

func TestParseRequest_EmptyMessagesIsValid(t *testing.T) {
	req, err := ParseRequest([]byte(`{"messages":[]}`))
	require.NoError(t, err)
	assert.Empty(t, req.Messages)
	assert.Equal(t, "", req.Prompt())
}

func TestParseRequest_LenientFieldTypes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantModel string
		wantHint  bool
	}{
		{
			name:      "numeric model",
			body:      `{"model":123,"messages":[{"role":"user","content":"hi"}]}`,
			wantModel: "123",
		},
		{
			name: "string response_format",
			body: `{"messages":[{"role":"user","content":"hi"}],"response_format":"text"}`,
		},
		{
			name:     "numeric json_schema name",
			body:     `{"messages":[{"role":"user","content":"hi"}],"response_format":{"type":"json_schema","json_schema":{"name":5,"schema":{"type":"object"}}}}`,
			wantHint: true,
		},
		{
			name: "numeric max_tokens and stream string",
			body: `{"messages":[{"role":"user","content":"hi"}],"max_tokens":"lots","stream":"no"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.body))
			require.NoError(t, err)

			assert.Equal(t, tt.wantModel, req.Model)
			require.Len(t, req.Messages, 1)
			if tt.wantHint {
				assert.True(t, strings.HasPrefix(req.Prompt(), "You must respond with valid JSON"))
			} else {
				assert.Equal(t, "hi", req.Prompt())
			}
		})
	}
}

func TestParseRequest_ContentForms(t *testing.T) {
	body := `{"messages":[
		{"role":"user","content":[{"type":"text","text":"part one"},{"type":"image_url","image_url":{"url":"x"}},{"type":"text","text":"part two"}]},
		{"role":"assistant","content":null},
		"not an object",
		{"role":"user","content":42}
	]}`

	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)
	require.Len(t, req.Messages, 4)

	assert.Equal(t, Content("part one\npart two"), req.Messages[0].Content)
	assert.Equal(t, Content(""), req.Messages[1].Content)
	assert.Equal(t, "", req.Messages[2].Role)
	assert.Equal(t, Content("42"), req.Messages[3].Content)
}

func TestPrompt(t *testing.T) {
	body := `{"messages":[
		{"role":"system","content":"You are a helpful assistant that responds in exactly 3 words."},
		{"role":"user","content":"How are you?"},
		{"role":"tool","content":"dropped"}
	]}`
	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)

	assert.Equal(t,
		"<system>You are a helpful assistant that responds in exactly 3 words.</system>\n\nHow are you?",
		req.Prompt())
}

func TestSchema(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "json_schema",
			body: `{"messages":[],"response_format":{"type":"json_schema","json_schema":{"name":"person","schema":{"type":"object","required":["name"]}}}}`,
			want: "{\n  \"type\": \"object\",\n  \"required\": [\n    \"name\"\n  ]\n}",
		},
		{
			name: "json_object ignored",
			body: `{"messages":[],"response_format":{"type":"json_object"}}`,
		},
		{
			name: "missing schema",
			body: `{"messages":[],"response_format":{"type":"json_schema","json_schema":{"name":"person"}}}`,
		},
		{
			name: "null schema",
			body: `{"messages":[],"response_format":{"type":"json_schema","json_schema":{"schema":null}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Schema())
		})
	}
}

func TestPrompt_WithSchema(t *testing.T) {
	body := `{"messages":[{"role":"user","content":"Extract: John is 30 years old"}],
		"response_format":{"type":"json_schema","json_schema":{"schema":{"type":"object"}}}}`
	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)

	got := req.Prompt()
	assert.True(t, strings.HasPrefix(got, "You must respond with valid JSON matching this schema:\n\n{\n  \"type\": \"object\"\n}"))
	assert.True(t, strings.HasSuffix(got, "Extract: John is 30 years old"))
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse("gpt-4", "abcdefghi", "hello")

	assert.True(t, strings.HasPrefix(resp.ID, "chatcmpl-"))
	assert.Equal(t, "chat.completion", resp.Object)
	assert.Equal(t, "gpt-4", resp.Model)
	assert.NotZero(t, resp.Created)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, 0, resp.Choices[0].Index)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.Equal(t, Content("hello"), resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)

	assert.Equal(t, 3, resp.Usage.PromptTokens)
	assert.Equal(t, 2, resp.Usage.CompletionTokens)
	assert.Equal(t, 5, resp.Usage.TotalTokens)

	other := NewResponse("gpt-4", "", "")
	assert.NotEqual(t, resp.ID, other.ID)
}

func TestResponseJSONShape(t *testing.T) {
	raw, err := json.Marshal(NewResponse("m", "p", "<b>c</b>"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"id", "object", "created", "model", "choices", "usage"} {
		assert.Contains(t, decoded, key)
	}
	usage := decoded["usage"].(map[string]any)
	assert.Contains(t, usage, "total_tokens")
}
