package ulid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateWithPrefix(t *testing.T) {
	id := RunID()
	assert.True(t, Validate(id))
	assert.Equal(t, PrefixRun, Prefix(id))

	id = DemoID()
	assert.True(t, Validate(id))
	assert.Equal(t, PrefixDemo, Prefix(id))
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(Generate()))
	assert.False(t, Validate("not-a-ulid"))
	assert.False(t, Validate(""))
}

func TestNewWithTimeIsSortable(t *testing.T) {
	earlier := NewWithTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	later := NewWithTime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Less(t, earlier, later)
}
