package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/mod/semver"
)

func TestVersionIsSemantic(t *testing.T) {
	if Version == "unknown" {
		t.Skip("Version is injected through ldflags; nothing to check in a plain test build")
	}
	assert.Truef(t, semver.IsValid(Version), "Version %s is not a valid semantic version", Version)
}
