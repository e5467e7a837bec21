// Package corpus loads the training and validation examples the evaluator
// and bootstrapper run against. A corpus is a JSON manifest plus the code
// files it references; it is loaded once per run and treated as read-only.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-enry/go-enry/v2"

	"github.com/skillforge/skillforge/internal/issue"
)

// TrainingExample is one unit of training or evaluation: input code, its
// language, and the ordered ground-truth issues a good review must find.
type TrainingExample struct {
	ID       string                `json:"id"`
	Code     string                `json:"code"`
	Language string                `json:"language"`
	Expected []issue.ExpectedIssue `json:"expected_issues"`
}

// CriticalCount returns the number of expected issues with critical severity.
func (e *TrainingExample) CriticalCount() int {
	n := 0
	for _, exp := range e.Expected {
		if exp.Severity == issue.SeverityCritical {
			n++
		}
	}
	return n
}

// manifest is the on-disk corpus format: a list of records, each either
// carrying code inline or referencing a file relative to the manifest.
type manifest struct {
	Cases []manifestCase `json:"cases"`
}

type manifestCase struct {
	ID       string                `json:"id"`
	File     string                `json:"file,omitempty"`
	Code     string                `json:"code,omitempty"`
	Language string                `json:"language,omitempty"`
	Expected []issue.ExpectedIssue `json:"expected_issues"`
}

// Load reads a corpus manifest and resolves referenced code files. The
// returned slice preserves manifest order, which downstream components rely
// on for deterministic selection.
func Load(manifestPath string) ([]TrainingExample, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading corpus manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing corpus manifest %s: %w", manifestPath, err)
	}

	baseDir := filepath.Dir(manifestPath)
	examples := make([]TrainingExample, 0, len(m.Cases))

	for i, c := range m.Cases {
		ex := TrainingExample{
			ID:       c.ID,
			Code:     c.Code,
			Language: c.Language,
			Expected: c.Expected,
		}
		if ex.ID == "" {
			ex.ID = fmt.Sprintf("case_%d", i+1)
		}

		if c.File != "" {
			code, err := os.ReadFile(filepath.Join(baseDir, c.File))
			if err != nil {
				return nil, fmt.Errorf("reading code file for %s: %w", ex.ID, err)
			}
			ex.Code = string(code)
			if ex.Language == "" {
				ex.Language = detectLanguage(c.File, code)
			}
		}

		if ex.Code == "" {
			return nil, fmt.Errorf("case %s has neither code nor file", ex.ID)
		}
		if ex.Language == "" {
			ex.Language = detectLanguage("", []byte(ex.Code))
		}

		if err := validateExample(&ex); err != nil {
			return nil, err
		}

		examples = append(examples, ex)
	}

	return examples, nil
}

// validateExample enforces the corpus invariants: severities are defined
// levels and (title, severity) pairs are unique within one example.
func validateExample(ex *TrainingExample) error {
	seen := make(map[string]struct{}, len(ex.Expected))
	for _, exp := range ex.Expected {
		if exp.Title == "" {
			return fmt.Errorf("case %s: expected issue with empty title", ex.ID)
		}
		if !exp.Severity.Valid() {
			return fmt.Errorf("case %s: invalid severity %q for issue %q", ex.ID, exp.Severity, exp.Title)
		}
		key := exp.Title + "\x00" + string(exp.Severity)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("case %s: duplicate expected issue (%q, %s)", ex.ID, exp.Title, exp.Severity)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// detectLanguage infers the language tag from the filename and content.
func detectLanguage(filename string, content []byte) string {
	lang := enry.GetLanguage(filepath.Base(filename), content)
	if lang == "" {
		return "text"
	}
	return lang
}
