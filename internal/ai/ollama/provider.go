package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/jobdesk/internal/ai/llm"
	"github.com/kiranshivaraju/jobdesk/internal/config"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

// Provider implements models.AIProvider using Ollama's chat endpoint.
type Provider struct {
	cfg    config.OllamaConfig
	client *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{cfg: cfg, client: &http.Client{}}
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (models.Completion, error) {
	body := chatRequest{
		Model:  p.cfg.Model,
		Stream: false,
		Options: chatOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	if req.System != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: req.Prompt})

	var resp chatResponse
	if err := llm.PostJSON(ctx, p.client, p.cfg.BaseURL+"/api/chat", nil, body, &resp); err != nil {
		return models.Completion{}, err
	}
	if resp.Error != "" {
		return models.Completion{}, fmt.Errorf("%w: %s", llm.ErrInvalidResponse, resp.Error)
	}

	model := resp.Model
	if model == "" {
		model = p.cfg.Model
	}
	return models.Completion{Text: resp.Message.Content, Model: model}, nil
}

type chatRequest struct {
	Model    string      `json:"model"`
	Messages []message   `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  chatOptions `json:"options"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string  `json:"model"`
	Message message `json:"message"`
	Error   string  `json:"error"`
}

var _ models.AIProvider = (*Provider)(nil)
