package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var templateFiles = []string{
	"../../internal/renderer/views/layouts/base.html",
	"../../internal/renderer/views/pages/browser.html",
}

func TestTemplatesUsePinnedCDNVersions(t *testing.T) {
	for _, file := range templateFiles {
		contentBytes, err := os.ReadFile(file)
		require.NoError(t, err)
		content := string(contentBytes)

		assert.NotContains(t, content, "@latest", file)
		assert.NotContains(t, content, `src="https://cdn.tailwindcss.com"`, file)
	}
}

func TestBrowserScriptsSendCSRFHeader(t *testing.T) {
	contentBytes, err := os.ReadFile("../../internal/renderer/views/pages/browser.html")
	require.NoError(t, err)
	content := string(contentBytes)

	assert.Contains(t, content, `"X-CSRF-Token": csrf`)
	assert.Contains(t, content, `meta[name="csrf-token"]`)
}

func TestBrowserUploadsUseSignedURLWithMatchingContentType(t *testing.T) {
	contentBytes, err := os.ReadFile("../../internal/renderer/views/pages/browser.html")
	require.NoError(t, err)
	content := string(contentBytes)

	assert.Contains(t, content, `contentType: type`)
	assert.Contains(t, content, `method: "PUT", headers: { "Content-Type": type }`)
}
