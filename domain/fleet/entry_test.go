package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicEntries(t *testing.T) {
	text := "fsx01.example.com,arn:aws:secretsmanager:us-east-1:123:secret:fsx01\n" +
		"# a comment\n\n" +
		"fsx02.example.com,arn:aws:secretsmanager:us-east-1:123:secret:fsx02,webhookSeverity=WARNING\n"

	entries, warnings := Parse(text)
	require.Len(t, entries, 2)
	assert.Empty(t, warnings)

	assert.Equal(t, "fsx01.example.com", entries[0].Host)
	assert.Equal(t, "fsx02.example.com", entries[1].Host)
	assert.Equal(t, "WARNING", entries[1].Overrides["webhookSeverity"])
}

func TestParseSkipsShortLines(t *testing.T) {
	entries, warnings := Parse("onlyhost\n")
	assert.Empty(t, entries)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Line)
}

func TestParseIgnoresUnknownOverrideKeys(t *testing.T) {
	entries, warnings := Parse("host,secret,bogusKey=1\n")
	require.Len(t, entries, 1)
	require.Len(t, warnings, 1)
	_, present := entries[0].Overrides["bogusKey"]
	assert.False(t, present)
}

func TestParseIgnoresMalformedOverride(t *testing.T) {
	entries, warnings := Parse("host,secret,noequalssign\n")
	require.Len(t, entries, 1)
	require.Len(t, warnings, 1)
}
