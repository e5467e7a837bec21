package skill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/skillforge/skillforge/internal/corpus"
	"github.com/skillforge/skillforge/internal/issue"
	"github.com/skillforge/skillforge/internal/llm"
)

const reviewRequestTemplate = `Please review the following code:

## Code to Review ({{.Language}}):

` + "```{{.Tag}}\n{{.Code}}\n```" + `
`

// BuildReviewRequest renders the user turn for one training example
func BuildReviewRequest(code, language string) (string, error) {
	tmpl, err := template.New("request").Parse(reviewRequestTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"Language": language,
		"Tag":      fenceTag(language),
		"Code":     code,
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildMessageList assembles the chat messages for one invocation: system
// instructions, demonstration turns oldest-first, then the example under
// review. Demonstrations appear as prior user/assistant exchanges so the
// model sees the expected response format in action.
func BuildMessageList(s *Skill, demos []Demonstration, ex corpus.TrainingExample) ([]llm.Message, error) {
	messages := make([]llm.Message, 0, 2*len(demos)+2)
	messages = append(messages, llm.Message{Role: "system", Content: s.Instructions})

	for _, demo := range demos {
		request, err := BuildReviewRequest(demo.Code, demo.Language)
		if err != nil {
			return nil, fmt.Errorf("building demonstration request: %w", err)
		}
		messages = append(messages,
			llm.Message{Role: "user", Content: request},
			llm.Message{Role: "assistant", Content: demo.Response},
		)
	}

	request, err := BuildReviewRequest(ex.Code, ex.Language)
	if err != nil {
		return nil, fmt.Errorf("building review request: %w", err)
	}
	messages = append(messages, llm.Message{Role: "user", Content: request})

	return messages, nil
}

// labeledIssue is the response schema used when rendering ground truth as a
// demonstration response. It mirrors the format the instructions request.
type labeledIssue struct {
	Severity   string `json:"severity"`
	Title      string `json:"title"`
	Location   string `json:"location,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// LabeledResponse renders an example's expected issues in the JSON response
// format, for use as a labeled demonstration.
func LabeledResponse(expected []issue.ExpectedIssue) (string, error) {
	issues := make([]labeledIssue, 0, len(expected))
	for _, exp := range expected {
		li := labeledIssue{
			Severity:   string(exp.Severity),
			Title:      exp.Title,
			Suggestion: exp.Fix,
		}
		if len(exp.Locations) > 0 {
			li.Location = exp.Locations[0]
		}
		issues = append(issues, li)
	}

	data, err := json.MarshalIndent(map[string][]labeledIssue{"issues": issues}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering labeled response: %w", err)
	}
	return string(data), nil
}

func fenceTag(language string) string {
	switch language {
	case "", "unknown":
		return ""
	default:
		// enry names like "C++" or "Objective-C" are fine as fence tags
		return language
	}
}
