package namegen

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+$`)
	for i := 0; i < 100; i++ {
		name := Generate(nil)
		assert.Regexp(t, pattern, name)
	}
}

func TestGenerateAvoidsTakenNames(t *testing.T) {
	taken := make(map[string]bool)
	for i := 0; i < 500; i++ {
		name := Generate(taken)
		assert.False(t, taken[name], "generated a name already in use: %s", name)
		taken[name] = true
	}
}

func TestGenerateFallsBackWhenExhausted(t *testing.T) {
	// Mark every combination as taken; the generator must still
	// terminate with a suffixed name.
	taken := make(map[string]bool)
	for _, a := range adjectives {
		for _, b := range animals {
			taken[fmt.Sprintf("%s-%s", a, b)] = true
		}
	}

	name := Generate(taken)
	assert.NotEmpty(t, name)
	assert.False(t, taken[name])
}

func TestGenerateDeterministic(t *testing.T) {
	calls := 0
	intn := func(n int) int {
		calls++
		return 0
	}

	name := generate(nil, intn)
	assert.Equal(t, "able-badger", name)
}
