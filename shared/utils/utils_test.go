package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "9xQe..VFin", ShortenAddress("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"))
	assert.Equal(t, "short", ShortenAddress("short"))
	assert.Equal(t, "abc", ShortenAddress("  abc  "))
}

func TestTruncateToDay(t *testing.T) {
	input := time.Date(2026, 3, 14, 15, 9, 26, 535, time.UTC)
	truncated := TruncateToDay(input)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), truncated)
	assert.Equal(t, input.Location(), truncated.Location())
}
