// Package ulid provides prefixed, sortable identifiers backed by
// github.com/oklog/ulid/v2. Prefixes make IDs self-describing in logs and
// database rows (e.g. "run-01AN4Z07BY79KA1307SR9X4MV3").
package ulid

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes for the different entities in the system
const (
	// PrefixRun for evaluation run ULIDs
	PrefixRun = "run"

	// PrefixExample for per-example result ULIDs
	PrefixExample = "ex"

	// PrefixDemo for demonstration ULIDs
	PrefixDemo = "demo"

	// PrefixDemoSet for demonstration set ULIDs
	PrefixDemoSet = "dset"

	// PrefixSkill for skill ULIDs
	PrefixSkill = "skill"

	// PrefixSeparator is used to separate the prefix from the ULID
	PrefixSeparator = "-"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// Generate creates a new ULID string with the current timestamp.
func Generate() string {
	return NewWithTime(time.Now())
}

// GenerateWithPrefix creates a new prefixed ULID string with the current timestamp.
func GenerateWithPrefix(prefix string) string {
	return prefix + PrefixSeparator + NewWithTime(time.Now())
}

// NewWithTime creates a new ULID string with a specific timestamp.
func NewWithTime(t time.Time) string {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	entropyLock.Unlock()
	return id.String()
}

// Validate checks whether a string is a valid ULID, with or without a prefix.
func Validate(id string) bool {
	raw := id
	if i := strings.Index(id, PrefixSeparator); i >= 0 {
		raw = id[i+1:]
	}
	_, err := ulid.Parse(raw)
	return err == nil
}

// Prefix returns the prefix of a prefixed ULID, or "" when there is none.
func Prefix(id string) string {
	if i := strings.Index(id, PrefixSeparator); i >= 0 {
		return id[:i]
	}
	return ""
}

// RunID generates a ULID for an evaluation run
func RunID() string {
	return GenerateWithPrefix(PrefixRun)
}

// ExampleID generates a ULID for a per-example result
func ExampleID() string {
	return GenerateWithPrefix(PrefixExample)
}

// DemoID generates a ULID for a demonstration
func DemoID() string {
	return GenerateWithPrefix(PrefixDemo)
}

// DemoSetID generates a ULID for a demonstration set
func DemoSetID() string {
	return GenerateWithPrefix(PrefixDemoSet)
}

// SkillID generates a ULID for a skill
func SkillID() string {
	return GenerateWithPrefix(PrefixSkill)
}
