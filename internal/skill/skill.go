// Package skill models a code-review skill: a natural-language instruction
// prompt plus the few-shot demonstrations attached to it. A Module couples a
// skill with an LLM client so the evaluation engine can invoke it per
// training example.
package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Skill is a markdown instruction prompt for reviewing code
type Skill struct {
	Name         string
	Instructions string
}

// Demonstration is one few-shot example attached to a skill: an input code
// sample and the review response shown to the model as a prior turn.
// Bootstrapped demonstrations carry a model-generated response that scored
// above threshold; labeled ones carry the ground truth rendered in the
// response format.
type Demonstration struct {
	ID        string
	ExampleID string
	Code      string
	Language  string
	Response  string
	Labeled   bool
	Score     float64
}

// Load reads a skill from a markdown file. The skill name is the file name
// without extension.
func Load(path string) (*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skill file: %w", err)
	}

	instructions := strings.TrimSpace(string(data))
	if instructions == "" {
		return nil, fmt.Errorf("skill file %s is empty", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Skill{Name: name, Instructions: instructions}, nil
}

// Default returns the built-in code-review skill used when no skill file is
// given. It asks for the JSON format the extractor parses first.
func Default() *Skill {
	return &Skill{Name: "code-review", Instructions: defaultInstructions}
}

const defaultInstructions = `You are a senior code reviewer. Analyze the provided code and report every genuine issue you find.

Respond with a JSON object using this schema:

{
  "issues": [
    {
      "severity": "critical|high|medium|low",
      "title": "Short issue title",
      "description": "What is wrong and why it matters",
      "location": "function_name:line",
      "suggestion": "How to fix it",
      "code_snippet": "Corrected code"
    }
  ]
}

Guidelines:
- Pay special attention to security issues such as SQL injection, command injection, path traversal, and hardcoded credentials. These are critical.
- Report real defects only. Do not pad the list with stylistic nitpicks.
- Choose severity by impact: critical for exploitable or data-loss defects, high for likely runtime failures, medium for correctness risks, low for maintainability concerns.
- Include the enclosing function name and line number in "location" when you can determine them.
- If the code has no issues, respond with {"issues": []}.`
