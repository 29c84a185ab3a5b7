package promptstash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pruneTemplate() *Template {
	return &Template{
		Name: "pruning",
		Body: "A: {{x}}\nB: fixed\nC: {{y}}",
		Placeholders: []Placeholder{
			{Name: "x", Required: true},
			{Name: "y"},
		},
	}
}

func TestRender_PrunesUnfilledLines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "B: fixed", Render(pruneTemplate(), map[string]string{}))
	assert.Equal(t, "B: fixed", Render(pruneTemplate(), nil))
}

func TestRender_SubstitutesFilledValues(t *testing.T) {
	t.Parallel()
	got := Render(pruneTemplate(), map[string]string{"x": "1", "y": "2"})
	assert.Equal(t, "A: 1\nB: fixed\nC: 2", got)
}

func TestRender_EmptyValueCountsAsUnfilled(t *testing.T) {
	t.Parallel()
	got := Render(pruneTemplate(), map[string]string{"x": "1", "y": ""})
	assert.Equal(t, "A: 1\nB: fixed", got)
}

func TestRender_Idempotent(t *testing.T) {
	t.Parallel()
	tpl := pruneTemplate()
	values := map[string]string{"x": "first"}
	first := Render(tpl, values)
	second := Render(tpl, values)
	assert.Equal(t, first, second)
	assert.Equal(t, "A: first\nB: fixed", first)
}

func TestRender_UndeclaredMarkersAreInert(t *testing.T) {
	t.Parallel()
	tpl := &Template{Body: "{{undeclared}} stays"}
	assert.Equal(t, "{{undeclared}} stays", Render(tpl, map[string]string{"undeclared": "v"}))

	withDeclared := &Template{
		Body:         "{{undeclared}} stays\n{{x}} goes",
		Placeholders: []Placeholder{{Name: "x"}},
	}
	assert.Equal(t, "{{undeclared}} stays", Render(withDeclared, map[string]string{"undeclared": "v"}))
}

func TestRender_MixedLineDroppedWhole(t *testing.T) {
	t.Parallel()
	tpl := &Template{
		Body:         "Write about {{topic}} for {{audience}}\nEnd",
		Placeholders: []Placeholder{{Name: "topic"}, {Name: "audience"}},
	}
	assert.Equal(t, "End", Render(tpl, map[string]string{"topic": "Go"}))
}

func TestRender_AllOccurrencesReplaced(t *testing.T) {
	t.Parallel()
	tpl := &Template{
		Body:         "{{lang}} and {{lang}}\n{{ lang }} too",
		Placeholders: []Placeholder{{Name: "lang"}},
	}
	assert.Equal(t, "Go and Go\nGo too", Render(tpl, map[string]string{"lang": "Go"}))
}

func TestRender_ValuesAreNotReexpanded(t *testing.T) {
	t.Parallel()
	tpl := &Template{
		Body:         "{{a}} {{b}}",
		Placeholders: []Placeholder{{Name: "a"}, {Name: "b"}},
	}
	got := Render(tpl, map[string]string{"a": "{{b}}", "b": "B"})
	assert.Equal(t, "{{b}} B", got)
}

func TestRender_EmptyBody(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Render(&Template{Placeholders: []Placeholder{{Name: "x"}}}, nil))
	assert.Empty(t, Render(nil, nil))
}

func TestRender_MultilineValue(t *testing.T) {
	t.Parallel()
	tpl := &Template{
		Body:         "Code:\n{{code}}\nDone",
		Placeholders: []Placeholder{{Name: "code", Required: true}},
	}
	assert.Equal(t, "Code:\nfunc main() {}\n// x\nDone", Render(tpl, map[string]string{"code": "func main() {}\n// x"}))
}

func TestPrependProfile(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "body", PrependProfile("body", ""))
	assert.Equal(t, "body", PrependProfile("body", "  \n "))
	assert.Equal(t, "# Your Profile\nSenior engineer\n\n\nbody", PrependProfile("body", "Senior engineer"))
}

func TestMissingRequired(t *testing.T) {
	t.Parallel()
	ps := []Placeholder{{Name: "a", Required: true}}
	assert.Equal(t, []string{"a"}, MissingRequired(ps, map[string]string{}))
	assert.False(t, RequiredSatisfied(ps, map[string]string{}))
	assert.Empty(t, MissingRequired(ps, map[string]string{"a": "x"}))
	assert.True(t, RequiredSatisfied(ps, map[string]string{"a": "x"}))

	ordered := []Placeholder{{Name: "b", Required: true}, {Name: "opt"}, {Name: "a", Required: true}}
	assert.Equal(t, []string{"b", "a"}, MissingRequired(ordered, map[string]string{"opt": ""}))
}

func TestCheckRequired(t *testing.T) {
	t.Parallel()
	tpl := &Template{Name: "Code review", Placeholders: []Placeholder{{Name: "code", Required: true}}}
	err := CheckRequired(tpl, nil)
	require.ErrorIs(t, err, ErrMissingRequired)
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"code"}, missing.Names)
	assert.Contains(t, err.Error(), "code")

	require.NoError(t, CheckRequired(tpl, map[string]string{"code": "x"}))
}

func TestCollection_CloneIsDeep(t *testing.T) {
	t.Parallel()
	col := Collection{{ID: "1", Tags: []string{"a"}, Placeholders: []Placeholder{{Name: "x"}}}}
	cp := col.Clone()
	cp[0].Tags[0] = "changed"
	cp[0].Placeholders[0].Name = "y"
	assert.Equal(t, "a", col[0].Tags[0])
	assert.Equal(t, "x", col[0].Placeholders[0].Name)
	assert.Nil(t, Collection(nil).Clone())
}

func TestShortSHA(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abcdef1", ShortSHA("abcdef1234567"))
	assert.Equal(t, "abc", ShortSHA("abc"))
}
