package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForProjectName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"My Repo.Name", "my-repo-name"},
		{"already-clean", "already-clean"},
		{"lots   of   spaces", "lots-of-spaces"},
		{"Trailing.", "trailing"},
		{"__weird__", "weird"},
		{"", ""},
		{"Ünïcode!", "n-code"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ForProjectName(tt.input))
		})
	}
}

func TestForFileName(t *testing.T) {
	assert.Equal(t, "agent_output", ForFileName("agent output"))
	assert.Equal(t, "a_b_c", ForFileName("a/b/c"))
	assert.Equal(t, "", ForFileName(""))
}
