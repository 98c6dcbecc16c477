package rand_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/restbase/restbase.go/internal/rand"
)

func TestRefLength(t *testing.T) {
	assert.Len(t, rand.Ref(16), 16)
	assert.Len(t, rand.Ref(1), 1)
	assert.Empty(t, rand.Ref(0))
}

func TestRefUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := rand.Ref(16)
		assert.False(t, seen[ref], "duplicate ref %q", ref)
		seen[ref] = true
	}
}
