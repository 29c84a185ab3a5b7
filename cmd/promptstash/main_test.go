package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/snapshot"
)

func TestSnapshotLoader(t *testing.T) {
	t.Parallel()

	assert.Nil(t, snapshotLoader(""))

	l := snapshotLoader("https://example.com/templates-cache.json")
	hl, ok := l.(*snapshot.HTTPLoader)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/templates-cache.json", hl.URL)

	assert.Equal(t, snapshot.FileLoader("/var/lib/promptstash/snapshot.json"), snapshotLoader("/var/lib/promptstash/snapshot.json"))
}

func TestTemplateMarkdown(t *testing.T) {
	t.Parallel()
	tpl := &promptstash.Template{
		ID:          "abc123",
		Name:        "Code Review",
		Description: "Review a change",
		Category:    "development",
		Tags:        []string{"code", "review"},
		Body:        "Review {{code}}",
		Placeholders: []promptstash.Placeholder{
			{Name: "code", Required: true, Description: "the diff"},
			{Name: "focus"},
		},
		LastUpdated: "3 Mar 2025",
	}

	md := templateMarkdown(tpl, map[string]string{"focus": "tests"})
	assert.Contains(t, md, "# Code Review\n")
	assert.Contains(t, md, "**Tags:** code, review")
	assert.Contains(t, md, "- `code` (required): the diff\n")
	assert.Contains(t, md, "- `focus` [saved: \"tests\"]\n")
	assert.Contains(t, md, "```\nReview {{code}}\n```\n")
}

func TestFormatList(t *testing.T) {
	t.Parallel()
	out := formatList(promptstash.Collection{
		{ID: "a", Name: "First", Category: "dev", Description: "one"},
		{ID: "b", Name: "Second", Category: "ops", Favorite: true},
	})
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "  one\n")
	assert.Contains(t, out, "Second")
	assert.Contains(t, out, "★")
}
