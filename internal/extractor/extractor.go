// Package extractor turns free-form model review output into structured
// predicted issues. Models answer in whatever shape they like: JSON when
// the skill asks nicely, otherwise numbered lists, bold markdown headers,
// or loose prose with severity labels. Extraction is heuristic and
// never fails hard: malformed fragments either yield nothing or an issue
// with unknown-sentinel fields.
package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/skillforge/skillforge/internal/issue"
	"github.com/skillforge/skillforge/internal/loggy"
)

// Extractor parses raw model output into predicted issues.
type Extractor struct {
	logger *loggy.Logger
}

// New creates a new Extractor
func New(logger *loggy.Logger) *Extractor {
	return &Extractor{logger: logger}
}

var (
	fencedJSONRe   = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	fencedCodeRe   = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\\n(.*?)```")
	numberedRe     = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.*)$`)
	boldTitleRe    = regexp.MustCompile(`^\s*(?:[-*]\s+)?\*\*(.+?)\*\*:?\s*(.*)$`)
	issueMarkerRe  = regexp.MustCompile(`(?i)^\s*(?:[-*]\s+)?(?:issue|problem|finding)\s*#?\d*\s*[:.]?\s*(.*)$`)
	severityLineRe = regexp.MustCompile(`(?i)severity\s*[:\-]\s*\**\s*(critical|high|medium|low)`)
	inlineSevRe    = regexp.MustCompile(`(?i)[\[(]?\b(critical|high|medium|low)\b[\])]?`)
	locationRe     = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*):(\d+)\b`)
	lineRefRe      = regexp.MustCompile(`(?i)\bline\s+(\d+)(?:\s+(?:in|of)\s+` + "`?" + `([A-Za-z_][A-Za-z0-9_]*)` + "`?" + `)?`)
	fixLabelRe     = regexp.MustCompile(`(?i)^\s*(?:[-*]\s+)?\**(?:fix|suggestion|recommendation)\**\s*[:\-]\s*(.*)$`)
	impactRe       = regexp.MustCompile(`(?i)\b(impact|allows|enables|leads to|can result|could (?:allow|lead|expose)|attacker|exposes|causes|risks?\b)`)
)

// Extract parses one block of model output. It is a pure function of the
// text; zero issues with a clean parse is the "no problems found" signal,
// not an error.
func (e *Extractor) Extract(text string) Extraction {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Extraction{Status: StatusFull}
	}

	if issues, ok := e.extractJSON(trimmed); ok {
		return finishExtraction(issues)
	}

	issues := e.extractMarkdown(trimmed)
	if len(issues) == 0 {
		// The text mentioned severities but nothing could be structured:
		// report it as unparseable rather than a clean "no issues".
		if severityLineRe.MatchString(trimmed) || issueMarkerRe.MatchString(trimmed) {
			e.logger.Debug("review text resembled issues but could not be structured", "length", len(trimmed))
			return Extraction{Status: StatusUnparseable}
		}
		return Extraction{Status: StatusFull}
	}

	return finishExtraction(issues)
}

func finishExtraction(issues []issue.PredictedIssue) Extraction {
	status := StatusFull
	for _, is := range issues {
		if is.Title == issue.UnknownField || is.Severity == issue.SeverityUnknown {
			status = StatusPartial
			break
		}
	}
	return Extraction{Status: status, Issues: issues}
}

// extractJSON handles the structured happy path: a fenced json block or a
// bare object containing an "issues" array.
func (e *Extractor) extractJSON(text string) ([]issue.PredictedIssue, bool) {
	var candidates []string

	for _, m := range fencedJSONRe.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if obj := balancedObject(text); obj != "" {
		candidates = append(candidates, obj)
	}

	for _, candidate := range candidates {
		if !strings.Contains(candidate, `"issues"`) {
			continue
		}
		var review jsonReview
		if err := json.Unmarshal([]byte(candidate), &review); err != nil {
			e.logger.Debug("discarding invalid JSON candidate", "error", err)
			continue
		}
		issues := make([]issue.PredictedIssue, 0, len(review.Issues))
		for _, ji := range review.Issues {
			issues = append(issues, fromJSONIssue(ji))
		}
		return issues, true
	}

	return nil, false
}

func fromJSONIssue(ji jsonIssue) issue.PredictedIssue {
	p := issue.PredictedIssue{
		Title:       strings.TrimSpace(ji.Title),
		Severity:    issue.ParseSeverity(ji.Severity),
		Description: strings.TrimSpace(ji.Description),
		FixSnippet:  firstNonEmpty(ji.CodeSnippet, ji.Fix, ji.Suggestion),
	}
	if p.Title == "" {
		p.Title = issue.UnknownField
	}

	if ji.Location != "" {
		p.Locations = append(p.Locations, normalizeLocation(ji.Location))
	}
	for _, loc := range ji.Locations {
		p.Locations = append(p.Locations, normalizeLocation(loc))
	}
	if len(p.Locations) == 0 {
		if line := asLine(ji.LineStart); line != "" {
			p.Locations = append(p.Locations, normalizeLocation(fmt.Sprintf("%s:%s", ji.Function, line)))
		}
	}

	p.HasImpact = strings.TrimSpace(ji.Impact) != "" || impactRe.MatchString(p.Description)
	return p
}

// extractMarkdown segments prose into issue blocks and structures each one.
func (e *Extractor) extractMarkdown(text string) []issue.PredictedIssue {
	blocks := splitBlocks(text)
	issues := make([]issue.PredictedIssue, 0, len(blocks))
	for _, block := range blocks {
		if p, ok := parseBlock(block); ok {
			issues = append(issues, p)
		}
	}
	return issues
}

// block is a candidate issue: a header line plus its following lines.
type block struct {
	header string
	body   []string
}

// splitBlocks scans line by line for issue starts: numbered items, bold
// titles, or explicit issue markers. Fenced code never starts a block.
func splitBlocks(text string) []block {
	var blocks []block
	var current *block
	inFence := false

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			if current != nil {
				current.body = append(current.body, line)
			}
			continue
		}
		if inFence {
			if current != nil {
				current.body = append(current.body, line)
			}
			continue
		}

		if isBlockStart(line) {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &block{header: line}
			continue
		}

		if current != nil {
			current.body = append(current.body, line)
		}
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	return blocks
}

func isBlockStart(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	if numberedRe.MatchString(line) {
		return true
	}
	if boldTitleRe.MatchString(line) {
		return true
	}
	if m := issueMarkerRe.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
		return true
	}
	// A bullet only starts an issue when it names a severity.
	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return inlineSevRe.MatchString(trimmed)
	}
	return false
}

// parseBlock structures one candidate block. Blocks that carry neither a
// usable title nor a severity signal are dropped; blocks that strongly
// resemble an issue but miss fields keep unknown sentinels instead.
func parseBlock(b block) (issue.PredictedIssue, bool) {
	title := blockTitle(b.header)
	body := strings.Join(b.body, "\n")
	full := b.header + "\n" + body

	sev := issue.SeverityUnknown
	if m := severityLineRe.FindStringSubmatch(full); m != nil {
		sev = issue.ParseSeverity(m[1])
	} else if m := inlineSevRe.FindStringSubmatch(b.header); m != nil {
		sev = issue.ParseSeverity(m[1])
		title = stripSeverityTag(title)
	}

	if title == "" && sev == issue.SeverityUnknown {
		return issue.PredictedIssue{}, false
	}
	if title == "" {
		title = issue.UnknownField
	}

	p := issue.PredictedIssue{
		Title:       title,
		Severity:    sev,
		Description: blockDescription(b.body),
		Locations:   blockLocations(full),
		FixSnippet:  blockFix(b.body, body),
		HasImpact:   impactRe.MatchString(full),
	}
	return p, true
}

func blockTitle(header string) string {
	if m := boldTitleRe.FindStringSubmatch(header); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := numberedRe.FindStringSubmatch(header); m != nil {
		return cleanTitle(m[2])
	}
	if m := issueMarkerRe.FindStringSubmatch(header); m != nil {
		return cleanTitle(m[1])
	}
	trimmed := strings.TrimLeft(strings.TrimSpace(header), "-* ")
	return cleanTitle(trimmed)
}

func cleanTitle(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "*_")
	// Keep titles single-clause: cut at the first sentence break.
	if i := strings.IndexAny(s, ".;"); i > 0 {
		s = s[:i]
	}
	return stripSeverityTag(strings.TrimSpace(s))
}

// stripSeverityTag removes leading/trailing severity decorations like
// "[Critical]" or "(high)" from a title.
func stripSeverityTag(s string) string {
	for _, sev := range []string{"critical", "high", "medium", "low"} {
		for _, pattern := range []string{"[" + sev + "]", "(" + sev + ")", sev + ":"} {
			if idx := strings.Index(strings.ToLower(s), pattern); idx >= 0 {
				s = s[:idx] + s[idx+len(pattern):]
			}
		}
	}
	return strings.Trim(strings.TrimSpace(s), "-: ")
}

func blockDescription(body []string) string {
	var lines []string
	inFence := false
	for _, line := range body {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence || fixLabelRe.MatchString(line) || severityLineRe.MatchString(line) {
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, " ")
}

func blockLocations(text string) []string {
	seen := make(map[string]struct{})
	var locs []string
	add := func(loc string) {
		if _, dup := seen[loc]; !dup {
			seen[loc] = struct{}{}
			locs = append(locs, loc)
		}
	}

	for _, m := range locationRe.FindAllStringSubmatch(text, -1) {
		add(normalizeLocation(m[1] + ":" + m[2]))
	}
	for _, m := range lineRefRe.FindAllStringSubmatch(text, -1) {
		add(normalizeLocation(m[2] + ":" + m[1]))
	}
	return locs
}

func blockFix(body []string, joined string) string {
	if m := fencedCodeRe.FindStringSubmatch(joined); m != nil {
		return strings.TrimSpace(m[1])
	}
	for _, line := range body {
		if m := fixLabelRe.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// balancedObject returns the first balanced top-level JSON object in the
// text, or "" when none exists.
func balancedObject(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func normalizeLocation(loc string) string {
	return strings.ToLower(strings.TrimSpace(loc))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func asLine(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%d", int(n))
	case string:
		return strings.TrimSpace(n)
	default:
		return ""
	}
}
