package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "42")
	t.Setenv("CFG_TEST_BOOL", "true")
	t.Setenv("CFG_TEST_DUR", "90s")
	t.Setenv("CFG_TEST_SECS", "15")
	t.Setenv("CFG_TEST_LIST", " 0, 1 ,,2")

	assert.Equal(t, 42, Int("CFG_TEST_INT", 7))
	assert.Equal(t, 7, Int("CFG_TEST_MISSING", 7))
	assert.True(t, Bool("CFG_TEST_BOOL", false))
	assert.Equal(t, 90*time.Second, Duration("CFG_TEST_DUR", time.Second))
	assert.Equal(t, 15*time.Second, Duration("CFG_TEST_SECS", time.Second))
	assert.Equal(t, []string{"0", "1", "2"}, List("CFG_TEST_LIST"))
	assert.Equal(t, "fallback", Default("CFG_TEST_MISSING", "fallback"))
}

func TestRBACModelEmbedded(t *testing.T) {
	assert.Contains(t, RBACModel, "[matchers]")
}
