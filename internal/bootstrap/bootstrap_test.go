package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillforge/internal/corpus"
	"github.com/skillforge/skillforge/internal/extractor"
	"github.com/skillforge/skillforge/internal/issue"
	"github.com/skillforge/skillforge/internal/llm"
	"github.com/skillforge/skillforge/internal/loggy"
	"github.com/skillforge/skillforge/internal/match"
	"github.com/skillforge/skillforge/internal/scoring"
	"github.com/skillforge/skillforge/internal/skill"
)

// scriptedClient answers by looking the example's code up in its script. It
// is safe for concurrent use and tracks the peak number of in-flight calls.
type scriptedClient struct {
	script map[string]string // code marker -> canned response
	fail   map[string]bool   // code marker -> invocation error
	delay  time.Duration

	mu       sync.Mutex
	calls    []string
	inFlight int32
	maxSeen  int32
}

func (c *scriptedClient) GenerateChat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	current := atomic.AddInt32(&c.inFlight, 1)
	defer atomic.AddInt32(&c.inFlight, -1)

	c.mu.Lock()
	if current > c.maxSeen {
		c.maxSeen = current
	}
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	last := req.Messages[len(req.Messages)-1].Content
	for marker, response := range c.script {
		if strings.Contains(last, marker) {
			c.mu.Lock()
			c.calls = append(c.calls, marker)
			c.mu.Unlock()
			if c.fail[marker] {
				return nil, fmt.Errorf("connection refused")
			}
			return &llm.ChatResponse{Content: response, Model: "test-model"}, nil
		}
	}
	return nil, fmt.Errorf("no scripted response for request")
}

func testTrainset() []corpus.TrainingExample {
	return []corpus.TrainingExample{
		{
			ID:       "ex-1",
			Code:     "query := \"SELECT * FROM users WHERE name = '\" + name + \"'\" // MARKER_ONE",
			Language: "Go",
			Expected: []issue.ExpectedIssue{
				{Title: "SQL injection in user lookup", Severity: issue.SeverityCritical, Fix: "use parameterized query"},
			},
		},
		{
			ID:       "ex-2",
			Code:     "password := \"hunter2\" // MARKER_TWO",
			Language: "Go",
			Expected: []issue.ExpectedIssue{
				{Title: "Hardcoded password", Severity: issue.SeverityCritical, Fix: "read the password from the environment"},
			},
		},
		{
			ID:       "ex-3",
			Code:     "go update(counter) // MARKER_THREE",
			Language: "Go",
			Expected: []issue.ExpectedIssue{
				{Title: "Race condition on counter update", Severity: issue.SeverityHigh, Fix: "guard the counter with a mutex"},
			},
		},
	}
}

// Canned responses: MARKER_ONE is a perfect review, MARKER_TWO misses the
// point entirely, MARKER_THREE finds the issue but with the wrong severity
// and no fix.
func testScript() map[string]string {
	return map[string]string{
		"MARKER_ONE": `{"issues": [{"severity": "critical", "title": "SQL injection in user lookup", "description": "Concatenating name into the query allows an attacker to inject SQL.", "suggestion": "use parameterized query"}]}`,
		"MARKER_TWO": `{"issues": [{"severity": "low", "title": "Line exceeds preferred width"}]}`,
		"MARKER_THREE": `{"issues": [{"severity": "low", "title": "Race condition on counter update"}]}`,
	}
}

func testConfig() Config {
	return Config{
		Threshold:       0.5,
		MaxBootstrapped: 4,
		MaxLabeled:      4,
		Concurrency:     2,
		Timeout:         time.Minute,
	}
}

func newTestBootstrapper(t *testing.T, cfg Config) *Bootstrapper {
	t.Helper()
	logger := loggy.NewNoopLogger()
	scorer, err := scoring.New(scoring.DefaultWeights())
	require.NoError(t, err)
	b, err := New(cfg, extractor.New(logger), match.New(match.DefaultConfig()), scorer, logger)
	require.NoError(t, err)
	return b
}

func newTestModule(client llm.Client) *skill.Module {
	return skill.NewModule(skill.Default(), client, loggy.NewNoopLogger())
}

func TestBootstrapSelectsAboveThreshold(t *testing.T) {
	b := newTestBootstrapper(t, testConfig())
	client := &scriptedClient{script: testScript(), fail: map[string]bool{}}

	result, err := b.Bootstrap(context.Background(), newTestModule(client), testTrainset())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempted)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 2, result.Bootstrapped)
	assert.Equal(t, 1, result.Labeled)
	require.Len(t, result.Demos, 3)

	// Best score first, then the labeled backfill.
	assert.Equal(t, "ex-1", result.Demos[0].ExampleID)
	assert.False(t, result.Demos[0].Labeled)
	assert.Equal(t, "ex-3", result.Demos[1].ExampleID)
	assert.False(t, result.Demos[1].Labeled)
	assert.Greater(t, result.Demos[0].Score, result.Demos[1].Score)

	assert.Equal(t, "ex-2", result.Demos[2].ExampleID)
	assert.True(t, result.Demos[2].Labeled)
	assert.Contains(t, result.Demos[2].Response, "Hardcoded password")
}

func TestBootstrapIsDeterministic(t *testing.T) {
	// Selection order must not depend on invocation completion order.
	cfg := testConfig()
	cfg.Concurrency = 3
	b := newTestBootstrapper(t, cfg)

	var previous []string
	for i := 0; i < 3; i++ {
		client := &scriptedClient{script: testScript(), fail: map[string]bool{}}
		result, err := b.Bootstrap(context.Background(), newTestModule(client), testTrainset())
		require.NoError(t, err)

		var ids []string
		for _, demo := range result.Demos {
			ids = append(ids, demo.ExampleID)
		}
		if previous != nil {
			assert.Equal(t, previous, ids)
		}
		previous = ids
	}
}

func TestBootstrapCapsDemos(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBootstrapped = 1
	cfg.MaxLabeled = 2
	b := newTestBootstrapper(t, cfg)
	client := &scriptedClient{script: testScript(), fail: map[string]bool{}}

	result, err := b.Bootstrap(context.Background(), newTestModule(client), testTrainset())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Bootstrapped)
	assert.Equal(t, 1, result.Labeled)
	require.Len(t, result.Demos, 2)
	assert.Equal(t, "ex-1", result.Demos[0].ExampleID)

	// The evicted candidate is eligible for labeled backfill again; trainset
	// order puts ex-2 first.
	assert.Equal(t, "ex-2", result.Demos[1].ExampleID)
	assert.True(t, result.Demos[1].Labeled)
}

func TestBootstrapSkipsFailedInvocations(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLabeled = 0
	b := newTestBootstrapper(t, cfg)
	client := &scriptedClient{
		script: testScript(),
		fail:   map[string]bool{"MARKER_ONE": true},
	}

	result, err := b.Bootstrap(context.Background(), newTestModule(client), testTrainset())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Demos, 1)
	assert.Equal(t, "ex-3", result.Demos[0].ExampleID)
}

func TestBootstrapHonorsConcurrencyLimit(t *testing.T) {
	b := newTestBootstrapper(t, testConfig())
	client := &scriptedClient{script: testScript(), fail: map[string]bool{}, delay: 20 * time.Millisecond}

	// Six examples cycling through the scripted markers.
	base := testTrainset()
	trainset := make([]corpus.TrainingExample, 0, 6)
	for i := 0; i < 6; i++ {
		ex := base[i%len(base)]
		ex.ID = fmt.Sprintf("%s-copy-%d", ex.ID, i)
		trainset = append(trainset, ex)
	}

	result, err := b.Bootstrap(context.Background(), newTestModule(client), trainset)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Attempted)
	assert.LessOrEqual(t, client.maxSeen, int32(2))
}

func TestBootstrapTimeoutSkipsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 30 * time.Millisecond
	cfg.MaxLabeled = 0
	b := newTestBootstrapper(t, cfg)
	client := &scriptedClient{script: testScript(), fail: map[string]bool{}, delay: time.Second}

	// Expired invocations are skipped as failures; the pass still completes.
	result, err := b.Bootstrap(context.Background(), newTestModule(client), testTrainset())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 3, result.Failed)
	assert.Zero(t, result.Bootstrapped)
	assert.Empty(t, result.Demos)
}

func TestBootstrapCancelledContext(t *testing.T) {
	b := newTestBootstrapper(t, testConfig())
	client := &scriptedClient{script: testScript(), fail: map[string]bool{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Every invocation fails against the dead context, but the ground-truth
	// backfill needs no model and still runs.
	result, err := b.Bootstrap(ctx, newTestModule(client), testTrainset())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Failed)
	assert.Zero(t, result.Bootstrapped)
	require.Len(t, result.Demos, 3)
	for _, demo := range result.Demos {
		assert.True(t, demo.Labeled)
	}
}

func TestBootstrapRejectsBadConfig(t *testing.T) {
	logger := loggy.NewNoopLogger()
	scorer, err := scoring.New(scoring.DefaultWeights())
	require.NoError(t, err)

	newWith := func(cfg Config) error {
		_, err := New(cfg, extractor.New(logger), match.New(match.DefaultConfig()), scorer, logger)
		return err
	}

	assert.Error(t, newWith(Config{Threshold: 1.5, Concurrency: 2, Timeout: time.Minute}))
	assert.Error(t, newWith(Config{Threshold: 0.5, MaxBootstrapped: -1, Concurrency: 2, Timeout: time.Minute}))
	assert.Error(t, newWith(Config{Threshold: 0.5, Concurrency: 0, Timeout: time.Minute}))
	assert.Error(t, newWith(Config{Threshold: 0.5, Concurrency: 2, Timeout: 0}))
}
