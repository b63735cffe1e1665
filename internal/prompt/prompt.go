// Package prompt flattens chat messages into the single text prompt consumed
// by the external CLI, and cleans up what comes back.
package prompt

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Roles understood by Build. Messages with any other role are dropped.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const schemaPreamble = "You must respond with valid JSON matching this schema:\n\n"

const schemaSuffix = "\n\nRespond ONLY with the JSON, no other text. Not even json formatting back tick structure.\n\n"

// Message is one role-tagged chat message.
type Message struct {
	Role    string
	Content string
}

// Build renders msgs in order, separated by blank lines, and prepends the
// JSON-only instruction block when schema is non-empty. Content is not escaped.
func Build(msgs []Message, schema string) string {
	var sb strings.Builder
	if schema != "" {
		sb.WriteString(schemaPreamble)
		sb.WriteString(schema)
		sb.WriteString(schemaSuffix)
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			sb.WriteString("<system>")
			sb.WriteString(m.Content)
			sb.WriteString("</system>")
		case RoleUser:
			sb.WriteString(m.Content)
		case RoleAssistant:
			sb.WriteString("Assistant: ")
			sb.WriteString(m.Content)
		default:
			continue
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// SchemaText formats a raw JSON schema value with two-space indentation,
// keeping the key order of the input. It returns "" for an absent, null or
// falsy value.
func SchemaText(schema gjson.Result) string {
	switch {
	case !schema.Exists(), schema.Type == gjson.Null, schema.Type == gjson.False:
		return ""
	case schema.Type == gjson.Number && schema.Float() == 0:
		return ""
	case schema.Type == gjson.String && schema.Str == "":
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(schema.Raw), "", "  "); err != nil {
		return schema.Raw
	}
	return buf.String()
}
