package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/catalog"
)

func TestTemplates(t *testing.T) {
	t.Parallel()
	col, err := Templates(context.Background())
	require.NoError(t, err)
	require.Len(t, col, 3)

	for _, tpl := range col {
		assert.Equal(t, promptstash.OriginBuiltin, tpl.Origin)
		assert.Len(t, tpl.ID, 40)
		assert.Equal(t, promptstash.UnknownDate, tpl.LastUpdated)
		assert.NotEmpty(t, tpl.Body)
		assert.NotEmpty(t, tpl.Placeholders)
	}

	review, ok := catalog.FindByPath(col, "development/code-review")
	require.True(t, ok)
	assert.Equal(t, "Development", review.Category)
	assert.Contains(t, review.Tags, "development")
	assert.True(t, promptstash.RequiredSatisfied(review.Placeholders, map[string]string{"language": "Go", "code": "x"}))

	meeting, ok := catalog.FindByPath(col, "productivity/meeting-summary.yaml")
	require.True(t, ok)
	assert.Equal(t, "productivity", meeting.Category)
	assert.Equal(t, promptstash.PlaceholdersFromLegacy, meeting.PlaceholderSource)
	assert.Equal(t, []string{"notes", "meeting_name"}, promptstash.MissingRequired(meeting.Placeholders, nil))
}
