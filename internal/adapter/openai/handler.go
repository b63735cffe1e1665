package openai

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/zhengjr9/cli-agent/internal/errors"
	"github.com/zhengjr9/cli-agent/internal/httputil"
	"github.com/zhengjr9/cli-agent/internal/prompt"
)

// Runner produces a completion for a flattened prompt.
type Runner interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Handler implements the OpenAI chat completions endpoint.
type Handler struct {
	runner       Runner
	defaultModel string
}

// NewHandler constructs a Handler.
func NewHandler(runner Runner, defaultModel string) *Handler {
	return &Handler{runner: runner, defaultModel: defaultModel}
}

// ServeHTTP handles POST /v1/chat/completions.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := httputil.ReadBody(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	req, err := ParseRequest(body)
	if err != nil {
		h.fail(w, err)
		return
	}

	promptText := req.Prompt()
	slog.Debug("sending prompt to cli", "prompt", promptText)

	out, err := h.runner.Run(r.Context(), promptText)
	if err != nil {
		h.fail(w, err)
		return
	}
	content := prompt.StripJSONFence(out)
	slog.Debug("received completion from cli", "content", content)

	model := req.Model
	if model == "" {
		model = h.defaultModel
	}
	if err := WriteBlockingResponse(w, NewResponse(model, promptText, content)); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status, errType := apierrors.Classify(err)
	slog.Error("chat completion failed", "status", status, "error", err)
	apierrors.WriteJSONError(w, status, errType, err.Error())
}
