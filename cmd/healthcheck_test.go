package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthcheck(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("GA4_ANALYST_API_KEY", "")

	t.Run("fresh directory without key", func(t *testing.T) {
		dir := setupCLI(t, newStubModel())

		out, err := execute(t, dir, "healthcheck")
		require.NoError(t, err)
		assert.Contains(t, out, "GA4 Analyst Health Check")
		assert.Contains(t, out, "Data directory detected")
		assert.Contains(t, out, "No config file")
		assert.Contains(t, out, "Gemini API key not configured")
		assert.Contains(t, out, "Session store opened (sqlite)")
		assert.Contains(t, out, "No stored sessions yet")
		assert.Contains(t, out, "chat is disabled until an API key is set")
		assert.NotContains(t, out, "Base path:")
	})

	t.Run("stored session with key and verbose", func(t *testing.T) {
		dir := setupCLI(t, newStubModel())
		_, err := execute(t, dir, "load", "json", writeReport(t), "--no-suggest")
		require.NoError(t, err)

		out, err := execute(t, dir, "healthcheck", "--api-key", "test-key", "--verbose")
		require.NoError(t, err)
		assert.Contains(t, out, "Base path: "+dir)
		assert.Contains(t, out, "Gemini API key configured")
		assert.Contains(t, out, "default: GA4 JSON")
		assert.Contains(t, out, "Found 1 session(s)")
		assert.Contains(t, out, "Health check passed!")
	})

	t.Run("file store", func(t *testing.T) {
		dir := setupCLI(t, newStubModel())

		out, err := execute(t, dir, "healthcheck", "--store", "file")
		require.NoError(t, err)
		assert.Contains(t, out, "Session store opened (file)")
	})
}
