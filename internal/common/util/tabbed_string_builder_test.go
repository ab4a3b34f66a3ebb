package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTabbedStringBuilder_Simple(t *testing.T) {
	w := NewTabbedStringBuilder(1, 1, 1, ' ', 0)
	w.Writef("a:\t%s", "b")
	assert.Equal(t, "a: b", w.String())
}

func TestTabbedStringBuilder_MultiRow(t *testing.T) {
	w := NewTabbedStringBuilder(1, 1, 1, ' ', 0)
	w.Writef("Load tests:\t%d\n", 3)
	w.Writef("Failed:\t%d\n", 1)
	assert.Equal(t, "Load tests: 3\nFailed:     1\n", w.String())
}
