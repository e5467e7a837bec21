package skill

import (
	"context"
	"fmt"

	"github.com/skillforge/skillforge/internal/corpus"
	"github.com/skillforge/skillforge/internal/llm"
	"github.com/skillforge/skillforge/internal/loggy"
)

// Module couples a skill with an LLM client. A module with no
// demonstrations is a baseline; bootstrapping produces a compiled module
// carrying demonstrations.
type Module struct {
	skill  *Skill
	client llm.Client
	demos  []Demonstration

	model       string
	maxTokens   int
	temperature float64

	logger *loggy.Logger
}

// ModuleOption configures a Module
type ModuleOption func(*Module)

// WithGeneration sets model name and generation parameters
func WithGeneration(model string, maxTokens int, temperature float64) ModuleOption {
	return func(m *Module) {
		m.model = model
		m.maxTokens = maxTokens
		m.temperature = temperature
	}
}

// WithDemonstrations attaches few-shot demonstrations
func WithDemonstrations(demos []Demonstration) ModuleOption {
	return func(m *Module) {
		m.demos = demos
	}
}

// NewModule creates a module for the given skill and client
func NewModule(s *Skill, client llm.Client, logger *loggy.Logger, opts ...ModuleOption) *Module {
	if logger == nil {
		logger = loggy.NewNoopLogger()
	}
	m := &Module{skill: s, client: client, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Skill returns the underlying skill
func (m *Module) Skill() *Skill { return m.skill }

// Demonstrations returns the attached demonstrations
func (m *Module) Demonstrations() []Demonstration { return m.demos }

// WithDemos returns a copy of the module carrying the given demonstrations.
// The receiver is not modified; bootstrapping builds candidate modules this
// way without disturbing the baseline.
func (m *Module) WithDemos(demos []Demonstration) *Module {
	clone := *m
	clone.demos = append([]Demonstration(nil), demos...)
	return &clone
}

// Invoke sends one review request for the example and returns the raw model
// text. Parsing is the extractor's job; a module never interprets the
// response.
func (m *Module) Invoke(ctx context.Context, ex corpus.TrainingExample) (string, error) {
	messages, err := BuildMessageList(m.skill, m.demos, ex)
	if err != nil {
		return "", fmt.Errorf("assembling prompt: %w", err)
	}

	m.logger.Debug("invoking skill",
		"skill", m.skill.Name,
		"example", ex.ID,
		"demos", len(m.demos),
	)

	resp, err := m.client.GenerateChat(ctx, llm.ChatRequest{
		Model:       m.model,
		Messages:    messages,
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
