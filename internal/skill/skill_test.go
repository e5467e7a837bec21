package skill

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/internal/corpus"
	"github.com/skillforge/skillforge/internal/issue"
	"github.com/skillforge/skillforge/internal/llm"
	"github.com/skillforge/skillforge/internal/loggy"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "security-review.md")
	require.NoError(t, os.WriteFile(path, []byte("Review the code for security flaws.\n"), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "security-review", s.Name)
	assert.Equal(t, "Review the code for security flaws.", s.Instructions)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.md"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(empty, []byte("  \n\t\n"), 0644))
	_, err = Load(empty)
	assert.ErrorContains(t, err, "empty")
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, "code-review", s.Name)
	assert.Contains(t, s.Instructions, `{"issues": []}`)
}

func TestBuildReviewRequest(t *testing.T) {
	request, err := BuildReviewRequest("func main() {}", "Go")
	require.NoError(t, err)

	assert.Contains(t, request, "## Code to Review (Go):")
	assert.Contains(t, request, "```Go\nfunc main() {}\n```")
}

func TestBuildReviewRequestUnknownLanguage(t *testing.T) {
	request, err := BuildReviewRequest("SELECT 1", "unknown")
	require.NoError(t, err)

	// No fence tag when the language is unknown.
	assert.Contains(t, request, "```\nSELECT 1\n```")
}

func TestBuildMessageList(t *testing.T) {
	s := Default()
	demos := []Demonstration{
		{ExampleID: "ex-1", Code: "func a() {}", Language: "Go", Response: `{"issues": []}`},
		{ExampleID: "ex-2", Code: "def b(): pass", Language: "Python", Response: `{"issues": []}`},
	}
	ex := corpus.TrainingExample{ID: "val-1", Code: "func c() {}", Language: "Go"}

	messages, err := BuildMessageList(s, demos, ex)
	require.NoError(t, err)
	require.Len(t, messages, 6)

	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, s.Instructions, messages[0].Content)

	// Each demonstration contributes a user/assistant pair, in order.
	assert.Equal(t, "user", messages[1].Role)
	assert.Contains(t, messages[1].Content, "func a() {}")
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "user", messages[3].Role)
	assert.Contains(t, messages[3].Content, "def b(): pass")
	assert.Equal(t, "assistant", messages[4].Role)

	// The example under review is the final user turn.
	assert.Equal(t, "user", messages[5].Role)
	assert.Contains(t, messages[5].Content, "func c() {}")
}

func TestBuildMessageListNoDemos(t *testing.T) {
	messages, err := BuildMessageList(Default(), nil, corpus.TrainingExample{Code: "x", Language: "Go"})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
}

func TestLabeledResponse(t *testing.T) {
	response, err := LabeledResponse([]issue.ExpectedIssue{
		{
			Title:     "SQL injection in user lookup",
			Severity:  issue.SeverityCritical,
			Fix:       "use parameterized query",
			Locations: []string{"lookupuser:12", "lookupuser:15"},
		},
		{Title: "Unchecked error", Severity: issue.SeverityLow},
	})
	require.NoError(t, err)

	assert.Contains(t, response, `"severity": "critical"`)
	assert.Contains(t, response, `"title": "SQL injection in user lookup"`)
	assert.Contains(t, response, `"suggestion": "use parameterized query"`)
	// Only the first location is rendered.
	assert.Contains(t, response, `"location": "lookupuser:12"`)
	assert.NotContains(t, response, "lookupuser:15")
}

func TestLabeledResponseEmpty(t *testing.T) {
	response, err := LabeledResponse(nil)
	require.NoError(t, err)
	assert.Contains(t, response, `"issues": []`)
}

func TestExportMarkdown(t *testing.T) {
	s := &Skill{Name: "security-review", Instructions: "Find the bugs."}
	demos := []Demonstration{
		{Code: "func a() {}", Language: "Go", Response: `{"issues": []}`},
		{Code: "func b() {}", Language: "Go", Response: `{"issues": []}`, Labeled: true},
	}

	markdown, err := ExportMarkdown(s, demos)
	require.NoError(t, err)

	assert.Contains(t, markdown, "# Skill: security-review")
	assert.Contains(t, markdown, "Find the bugs.")
	assert.Contains(t, markdown, "## Examples")
	assert.Contains(t, markdown, "### Example 1\n")
	assert.Contains(t, markdown, "### Example 2 (curated)")
	assert.Contains(t, markdown, "```Go\nfunc a() {}\n```")
}

func TestExportMarkdownNoDemos(t *testing.T) {
	markdown, err := ExportMarkdown(&Skill{Name: "bare", Instructions: "Review."}, nil)
	require.NoError(t, err)
	assert.Contains(t, markdown, "# Skill: bare")
	assert.NotContains(t, markdown, "## Examples")
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exported.md")
	err := WriteMarkdown(path, &Skill{Name: "exported", Instructions: "Review."}, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Skill: exported")
}

// echoClient returns the last user message so tests can inspect what the
// module sent.
type echoClient struct {
	lastRequest llm.ChatRequest
}

func (c *echoClient) GenerateChat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	c.lastRequest = req
	return &llm.ChatResponse{Content: `{"issues": []}`, Model: req.Model}, nil
}

func TestModuleInvoke(t *testing.T) {
	client := &echoClient{}
	module := NewModule(Default(), client, loggy.NewNoopLogger(),
		WithGeneration("test-model", 1024, 0.2),
		WithDemonstrations([]Demonstration{
			{Code: "func a() {}", Language: "Go", Response: `{"issues": []}`},
		}),
	)

	response, err := module.Invoke(context.Background(), corpus.TrainingExample{
		ID: "val-1", Code: "func c() {}", Language: "Go",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"issues": []}`, response)

	assert.Equal(t, "test-model", client.lastRequest.Model)
	require.Len(t, client.lastRequest.Messages, 4)
	assert.Equal(t, "system", client.lastRequest.Messages[0].Role)
}

func TestModuleWithDemos(t *testing.T) {
	client := &echoClient{}
	base := NewModule(Default(), client, loggy.NewNoopLogger())
	assert.Empty(t, base.Demonstrations())

	demos := []Demonstration{{ExampleID: "ex-1", Code: "x", Language: "Go", Response: "{}"}}
	derived := base.WithDemos(demos)

	assert.Empty(t, base.Demonstrations())
	require.Len(t, derived.Demonstrations(), 1)

	// The derived module holds its own copy.
	demos[0].ExampleID = "mutated"
	assert.Equal(t, "ex-1", derived.Demonstrations()[0].ExampleID)
}
