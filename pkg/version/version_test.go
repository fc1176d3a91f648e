package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsTrimmedVersion(t *testing.T) {
	assert.Equal(t, strings.TrimSpace(Version), Get())
}

func TestVersionNotEmptyAndPrefixed(t *testing.T) {
	s := Get()
	assert.NotEmpty(t, s)
	assert.True(t, strings.HasPrefix(s, "v"))
	assert.NotContains(t, s, "\n")
}
