// Package gemini generates answers with Google's Gemini models, either
// through the Gemini API (API key) or through Vertex AI (project and
// location, application default credentials).
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sonnes/lekhak/core"
	"google.golang.org/genai"
)

// Backends.
const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-1.5-flash"

// Config selects the backend and model.
type Config struct {
	Backend  string // BackendGemini or BackendVertex
	APIKey   string // Gemini API
	Project  string // Vertex AI
	Location string // Vertex AI
	Model    string
}

// ClientConfig converts c into a genai client configuration.
func (c Config) ClientConfig() (*genai.ClientConfig, error) {
	switch c.Backend {
	case "", BackendGemini:
		if c.APIKey == "" {
			return nil, errors.New("gemini: api key is required")
		}
		return &genai.ClientConfig{APIKey: c.APIKey, Backend: genai.BackendGeminiAPI}, nil
	case BackendVertex:
		if c.Project == "" || c.Location == "" {
			return nil, errors.New("gemini: vertex backend needs a project and a location")
		}
		return &genai.ClientConfig{Project: c.Project, Location: c.Location, Backend: genai.BackendVertexAI}, nil
	default:
		return nil, fmt.Errorf("gemini: unknown backend %q", c.Backend)
	}
}

// Generator implements provider.Generator.
type Generator struct {
	client *genai.Client
	model  string
	name   string
	logger *log.Logger
}

// New creates a Generator for the configured backend.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Generator, error) {
	cc, err := cfg.ClientConfig()
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	name := BackendGemini
	if cfg.Backend == BackendVertex {
		name = BackendVertex
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{client: client, model: model, name: name, logger: logger}, nil
}

// Name identifies the backend in errors and logs.
func (g *Generator) Name() string { return g.name }

// Generate sends prompt as a single user turn and returns the text of the
// first candidate.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("generating answer", "backend", g.name, "model", g.model, "prompt_chars", len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &core.ProviderError{Provider: g.name, Op: "generate", Retryable: retryable(err), Err: err}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &core.ProviderError{Provider: g.name, Op: "generate", Err: errors.New("empty response")}
	}
	return text, nil
}

// retryable reports whether the API rejected the call for a transient
// reason: rate limiting or a server-side failure.
func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}
