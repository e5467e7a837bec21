// Package llm defines the narrow interface the evaluation engine uses to
// invoke a model, plus a factory that wires the configured provider behind
// it. The engine is agnostic to which backend answers.
package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/skillforge/skillforge/internal/azure"
	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/loggy"
	"github.com/skillforge/skillforge/internal/ollama"
)

// Message is a chat message with role and content
type Message struct {
	Role    string `json:"role"` // user, assistant, or system
	Content string `json:"content"`
}

// ChatRequest is a provider-independent chat request
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatResponse is a provider-independent chat response
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Client is the model-invocation collaborator: one blocking call per
// example. Implementations retry transient failures internally up to their
// configured bound; an error from GenerateChat means retries are exhausted.
type Client interface {
	GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ClientType identifies a provider
type ClientType string

const (
	// Ollama client type
	Ollama ClientType = "ollama"

	// Azure OpenAI-compatible client type
	Azure ClientType = "azure"
)

// Factory creates rate-limited LLM clients from configuration
type Factory struct {
	config *config.Config
	ollama *ollama.Client
	azure  *azure.Client
	logger *loggy.Logger

	ollamaLimiter *rate.Limiter
	azureLimiter  *rate.Limiter
}

// newLimiter builds a limiter from requests-per-minute and burst. RPM <= 0
// disables limiting.
func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// NewFactory creates a new LLM client factory
func NewFactory(cfg *config.Config, logger *loggy.Logger) *Factory {
	f := &Factory{config: cfg, logger: logger}

	if cfg.Ollama.Endpoint != "" {
		f.ollama = ollama.NewClient(cfg.Ollama)
		f.ollamaLimiter = newLimiter(cfg.Ollama.RequestsPerMinute, cfg.Ollama.BurstLimit)
		loggy.Info("initialized Ollama client", "endpoint", cfg.Ollama.Endpoint, "model", cfg.Ollama.Model)
	}

	if cfg.Azure.APIKey != "" {
		f.azure = azure.NewClient(cfg.Azure)
		f.azureLimiter = newLimiter(cfg.Azure.RequestsPerMinute, cfg.Azure.BurstLimit)
		loggy.Info("initialized Azure client", "endpoint", cfg.Azure.Endpoint, "deployment", cfg.Azure.Deployment)
	}

	return f
}

// GetClient returns a client of the given type.
func (f *Factory) GetClient(clientType ClientType) (Client, error) {
	switch clientType {
	case Ollama:
		if f.ollama == nil {
			return nil, fmt.Errorf("ollama client not initialized - check configuration")
		}
		return &limitedClient{provider: Ollama, invoke: f.invokeOllama, limiter: f.ollamaLimiter}, nil
	case Azure:
		if f.azure == nil {
			return nil, fmt.Errorf("azure client not initialized - check configuration")
		}
		return &limitedClient{provider: Azure, invoke: f.invokeAzure, limiter: f.azureLimiter}, nil
	default:
		return nil, fmt.Errorf("unknown client type: %s", clientType)
	}
}

// GetDefaultClient returns the configured default provider, falling back to
// whichever provider is available.
func (f *Factory) GetDefaultClient() (Client, ClientType, error) {
	defaultType := ClientType(f.config.DefaultProvider)

	client, err := f.GetClient(defaultType)
	if err == nil {
		return client, defaultType, nil
	}

	f.logger.Warn("default LLM provider not available, falling back", "default", defaultType, "error", err)

	if f.ollama != nil {
		client, _ := f.GetClient(Ollama)
		return client, Ollama, nil
	}
	if f.azure != nil {
		client, _ := f.GetClient(Azure)
		return client, Azure, nil
	}
	return nil, "", fmt.Errorf("no LLM clients initialized - check configuration")
}

func (f *Factory) invokeOllama(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]ollama.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ollama.Message{Role: m.Role, Content: m.Content})
	}
	resp, err := f.ollama.GenerateChat(ctx, ollama.ChatRequest{
		Model:    req.Model,
		Messages: messages,
		Options: ollama.Options{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		},
	})
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Content: resp.Message.Content, Model: resp.Model}, nil
}

func (f *Factory) invokeAzure(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]azure.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, azure.Message{Role: m.Role, Content: m.Content})
	}
	resp, err := f.azure.ChatCompletion(ctx, azure.ChatRequest{
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Content: resp.Content(), Model: resp.Model}, nil
}

// limitedClient enforces the provider rate limit and normalizes failures
// into InvocationErrors.
type limitedClient struct {
	provider ClientType
	invoke   func(context.Context, ChatRequest) (*ChatResponse, error)
	limiter  *rate.Limiter
}

func (c *limitedClient) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &InvocationError{Provider: string(c.provider), Err: err}
		}
	}
	resp, err := c.invoke(ctx, req)
	if err != nil {
		return nil, &InvocationError{Provider: string(c.provider), Err: err}
	}
	return resp, nil
}
