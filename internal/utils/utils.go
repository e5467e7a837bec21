package utils

import (
	"strings"
	"time"

	"github.com/goombaio/namegenerator"
)

// GenerateRunName creates a random, memorable run name using namegenerator
func GenerateRunName() string {
	seed := time.Now().UTC().UnixNano()
	nameGenerator := namegenerator.NewNameGenerator(seed)

	// Generate a name like "wispy-dust"
	name := nameGenerator.Generate()

	// Some names might have underscores; convert to hyphens for consistency
	name = strings.ReplaceAll(name, "_", "-")

	return name
}
