package a2a

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/zhengjr9/cli-agent/internal/prompt"
)

// Runner produces a completion for a flattened prompt.
type Runner interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// AgentConfig holds the configuration for the CLI-backed A2A agent.
type AgentConfig struct {
	// Name is the agent name exposed via A2A AgentCard.
	Name string
	// Description is exposed via A2A AgentCard.
	Description string
	// Runner executes the external CLI.
	Runner Runner
}

// New returns an agent.Agent whose Run logic sends the caller's text to the
// external CLI and reports its output as a single final event.
func New(cfg AgentConfig) (agent.Agent, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("a2a agent: Name must not be empty")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("a2a agent: Runner must not be nil")
	}

	return agent.New(agent.Config{
		Name:        cfg.Name,
		Description: cfg.Description,
		Run:         runFunc(cfg),
	})
}

// runFunc returns the Run closure that drives one agent invocation.
func runFunc(cfg AgentConfig) func(agent.InvocationContext) iter.Seq2[*session.Event, error] {
	return func(ctx agent.InvocationContext) iter.Seq2[*session.Event, error] {
		return func(yield func(*session.Event, error) bool) {
			query := extractQuery(ctx.UserContent())
			if query == "" {
				ev := session.NewEvent(ctx.InvocationID())
				ev.Author = cfg.Name
				ev.LLMResponse = model.LLMResponse{
					Content: textContent("(empty input)"),
				}
				yield(ev, nil)
				return
			}

			answer, err := complete(ctx, cfg.Runner, query)
			if err != nil {
				yield(nil, err)
				return
			}

			finalEv := session.NewEvent(ctx.InvocationID())
			finalEv.Author = cfg.Name
			finalEv.Branch = ctx.Branch()
			finalEv.LLMResponse = model.LLMResponse{
				Content: textContent(answer),
				Partial: false,
			}
			yield(finalEv, nil)
		}
	}
}

// complete treats query as a single user message and runs it through the CLI.
func complete(ctx context.Context, runner Runner, query string) (string, error) {
	p := prompt.Build([]prompt.Message{{Role: prompt.RoleUser, Content: query}}, "")
	out, err := runner.Run(ctx, p)
	if err != nil {
		return "", fmt.Errorf("cli run failed: %w", err)
	}
	return prompt.StripJSONFence(out), nil
}

// extractQuery pulls the plain-text content from the genai.Content that ADK
// puts in the InvocationContext when the caller sends a message.
func extractQuery(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// textContent is a small helper that wraps a string into a *genai.Content.
func textContent(text string) *genai.Content {
	return &genai.Content{
		Role:  genai.RoleModel,
		Parts: []*genai.Part{{Text: text}},
	}
}
