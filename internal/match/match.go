// Package match aligns predicted issues with the ground-truth issues of a
// single example. Matching is fuzzy: a weighted similarity over title,
// description, and location decides pairings, resolved greedily from the
// globally most similar pair down.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/skillforge/skillforge/internal/issue"
)

// Config holds the matching parameters. Severity never participates in the
// similarity itself; a mismatch is recorded on the pair and only penalizes
// severity accuracy downstream.
type Config struct {
	// Threshold is the minimum similarity for a pairing to count
	Threshold float64
	// TextWeight scales the title/description token overlap component
	TextWeight float64
	// LocationWeight scales the location overlap component
	LocationWeight float64
}

// DefaultConfig returns the default matching parameters.
func DefaultConfig() Config {
	return Config{
		Threshold:      0.3,
		TextWeight:     0.7,
		LocationWeight: 0.3,
	}
}

// Pair is one matched (predicted, expected) pairing.
type Pair struct {
	Predicted     issue.PredictedIssue
	Expected      issue.ExpectedIssue
	Similarity    float64
	SeverityMatch bool
}

// Result partitions both issue sets exhaustively: every predicted issue is
// either in a Pair or a false positive, every expected issue either in a
// Pair or a false negative.
type Result struct {
	Pairs          []Pair
	FalsePositives []issue.PredictedIssue
	FalseNegatives []issue.ExpectedIssue
}

// Matched returns the number of matched pairs.
func (r *Result) Matched() int {
	return len(r.Pairs)
}

// PredictedCount returns the total number of predicted issues.
func (r *Result) PredictedCount() int {
	return len(r.Pairs) + len(r.FalsePositives)
}

// ExpectedCount returns the total number of expected issues.
func (r *Result) ExpectedCount() int {
	return len(r.Pairs) + len(r.FalseNegatives)
}

// Matcher performs greedy bipartite assignment of predicted to expected
// issues.
type Matcher struct {
	cfg Config
}

// New creates a Matcher with the given configuration.
func New(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// candidate is a potential pairing during resolution.
type candidate struct {
	predIdx    int
	expIdx     int
	similarity float64
}

// Match pairs predicted against expected issues. Resolution fixes the
// globally highest-similarity pair above threshold first and repeats; ties
// prefer the higher-severity expected issue so critical findings are never
// starved by coincidental matches, then fall back to input order for
// determinism.
func (m *Matcher) Match(predicted []issue.PredictedIssue, expected []issue.ExpectedIssue) *Result {
	candidates := make([]candidate, 0, len(predicted)*len(expected))
	for pi, p := range predicted {
		for ei, e := range expected {
			sim := m.Similarity(p, e)
			if sim >= m.cfg.Threshold {
				candidates = append(candidates, candidate{predIdx: pi, expIdx: ei, similarity: sim})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.similarity != b.similarity {
			return a.similarity > b.similarity
		}
		sa := expected[a.expIdx].Severity.Rank()
		sb := expected[b.expIdx].Severity.Rank()
		if sa != sb {
			return sa > sb
		}
		if a.expIdx != b.expIdx {
			return a.expIdx < b.expIdx
		}
		return a.predIdx < b.predIdx
	})

	usedPred := make(map[int]bool, len(predicted))
	usedExp := make(map[int]bool, len(expected))
	result := &Result{}

	for _, c := range candidates {
		if usedPred[c.predIdx] || usedExp[c.expIdx] {
			continue
		}
		usedPred[c.predIdx] = true
		usedExp[c.expIdx] = true

		p := predicted[c.predIdx]
		e := expected[c.expIdx]
		result.Pairs = append(result.Pairs, Pair{
			Predicted:     p,
			Expected:      e,
			Similarity:    c.similarity,
			SeverityMatch: p.Severity == e.Severity,
		})
	}

	for pi, p := range predicted {
		if !usedPred[pi] {
			result.FalsePositives = append(result.FalsePositives, p)
		}
	}
	for ei, e := range expected {
		if !usedExp[ei] {
			result.FalseNegatives = append(result.FalseNegatives, e)
		}
	}

	return result
}

// Similarity scores one (predicted, expected) pairing in [0,1]: token
// overlap on title+description weighted against location overlap. When one
// side carries no location hints the text component carries the full
// weight, so location-less reviews are not penalized structurally.
func (m *Matcher) Similarity(p issue.PredictedIssue, e issue.ExpectedIssue) float64 {
	text := jaccard(
		tokenize(p.Title+" "+p.Description),
		tokenize(e.Title+" "+e.Fix),
	)

	textW := m.cfg.TextWeight
	locW := m.cfg.LocationWeight

	if len(p.Locations) == 0 || len(e.Locations) == 0 {
		return text
	}

	loc := locationOverlap(p.Locations, e.Locations)
	total := textW + locW
	if total == 0 {
		return 0
	}
	return (textW*text + locW*loc) / total
}

var tokenRe = regexp.MustCompile(`[a-z0-9_]+`)

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range tokenRe.FindAllString(strings.ToLower(s), -1) {
		if tok == issue.UnknownField {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// locationOverlap reports the fraction of expected locations hit by a
// predicted hint, where a hit is an exact match or a prefix match on the
// function part (a prediction naming the right function but an approximate
// line still counts).
func locationOverlap(predicted, expected []string) float64 {
	if len(expected) == 0 {
		return 0
	}
	hits := 0
	for _, e := range expected {
		for _, p := range predicted {
			if locationsMatch(p, e) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(expected))
}

func locationsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return true
	}
	fa := locationFunc(a)
	fb := locationFunc(b)
	return fa != "" && fa == fb
}

func locationFunc(loc string) string {
	if i := strings.Index(loc, ":"); i >= 0 {
		return loc[:i]
	}
	return loc
}
