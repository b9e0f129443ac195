package diagram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, payload, typeStr string) Result {
	t.Helper()
	return Validate(json.RawMessage(payload), typeStr)
}

func TestValidateFlowchart(t *testing.T) {
	t.Parallel()

	good := `{"nodes":[{"id":"A","label":"Start"},{"id":"B","label":"End"}],"edges":[{"from":"A","to":"B"}]}`
	res := validate(t, good, "flowchart")
	require.True(t, res.IsValid)
	require.Empty(t, res.Errors)

	dangling := `{"nodes":[{"id":"A","label":"Start"}],"edges":[{"from":"A","to":"Z"}]}`
	res = validate(t, dangling, "flowchart")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], `non-existent node: "Z"`)

	missing := `{"edges":[]}`
	res = validate(t, missing, "flowchart")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], `"nodes"`)

	noEdges := `{"nodes":["A","B","C"],"edges":[]}`
	res = validate(t, noEdges, "flowchart")
	require.True(t, res.IsValid)
	require.NotEmpty(t, res.Warnings)
}

func TestValidateSequence(t *testing.T) {
	t.Parallel()

	good := `{"messages":[
		{"from":"User","to":"API","message":"POST /login"},
		{"from":"API","to":"User","message":"200 OK"}]}`
	res := validate(t, good, "sequence")
	require.True(t, res.IsValid)

	onePart := `{"messages":[{"from":"User","to":"User","message":"noop"}]}`
	res = validate(t, onePart, "sequence")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], "at least 2 participants")
}

func TestValidateClass(t *testing.T) {
	t.Parallel()

	good := `{"classes":[
		{"name":"Component","attributes":["props"],"methods":["render"]},
		{"name":"UserProfile","methods":["fetchUser"]}],
		"relations":[{"from":"Component","to":"UserProfile","type":"extends"}]}`
	res := validate(t, good, "class")
	require.True(t, res.IsValid)

	badRel := `{"classes":[{"name":"A","methods":["x"]}],"relations":[{"from":"A","to":"Missing"}]}`
	res = validate(t, badRel, "class")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], `non-existent class: "Missing"`)

	dup := `{"classes":[{"name":"A","methods":["x"]},{"name":"A","methods":["y"]}]}`
	res = validate(t, dup, "class")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], "duplicate class name")
}

func TestValidateER(t *testing.T) {
	t.Parallel()

	good := `{"entities":[
		{"name":"User","fields":[{"type":"int","name":"id"},{"type":"string","name":"email"}]},
		{"name":"Blog","fields":[{"type":"int","name":"id"}]}],
		"relations":[{"from":"User","to":"Blog","label":"writes"}]}`
	res := validate(t, good, "er")
	require.True(t, res.IsValid)

	noID := `{"entities":[{"name":"User","fields":[{"type":"string","name":"email"}]}]}`
	res = validate(t, noID, "er")
	require.True(t, res.IsValid)
	require.Contains(t, res.Warnings[0], `"id" field`)

	noFields := `{"entities":[{"name":"User"}]}`
	res = validate(t, noFields, "er")
	require.False(t, res.IsValid)
}

func TestValidateERAliases(t *testing.T) {
	t.Parallel()

	payload := `{"entities":[{"name":"User","fields":[{"type":"int","name":"id"}]}]}`
	for _, alias := range []string{"er", "ER", "entity", "Entity Relationship"} {
		res := validate(t, payload, alias)
		require.True(t, res.IsValid, "alias %q", alias)
	}
}

func TestValidateState(t *testing.T) {
	t.Parallel()

	good := `{"states":[{"name":"Pending"},{"name":"Ready"}],
		"transitions":[{"from":"Pending","to":"Ready","label":"promote"}]}`
	res := validate(t, good, "state")
	require.True(t, res.IsValid)

	dangling := `{"states":[{"name":"Pending"}],"transitions":[{"from":"Pending","to":"Gone","label":"x"}]}`
	res = validate(t, dangling, "state")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], `non-existent state: "Gone"`)

	noLabel := `{"states":["A","B"],"transitions":[{"from":"A","to":"B"}]}`
	res = validate(t, noLabel, "state")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], `"label"`)
}

func TestValidateMindmap(t *testing.T) {
	t.Parallel()

	good := `{"root":{"text":"React 19","children":[{"text":"New APIs","children":[{"text":"use() hook"}]}]}}`
	res := validate(t, good, "mindmap")
	require.True(t, res.IsValid)

	noText := `{"root":{"children":[{"text":"orphan"}]}}`
	res = validate(t, noText, "mindmap")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], `"text"`)

	badChildren := `{"root":{"text":"Top","children":"nope"}}`
	res = validate(t, badChildren, "mindmap")
	require.False(t, res.IsValid)
}

func TestValidatePie(t *testing.T) {
	t.Parallel()

	good := `{"title":"Share","slices":[{"label":"Chrome","value":65},{"label":"Other","value":35}]}`
	res := validate(t, good, "pie")
	require.True(t, res.IsValid)

	negative := `{"slices":[{"label":"A","value":-1},{"label":"B","value":5}]}`
	res = validate(t, negative, "pie")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], "positive")
}

func TestValidateTimeline(t *testing.T) {
	t.Parallel()

	good := `{"events":[{"date":"2026-01","title":"RC out"},{"year":"2026","title":"Stable"}]}`
	res := validate(t, good, "timeline")
	require.True(t, res.IsValid)

	noDate := `{"events":[{"title":"floating event"}]}`
	res = validate(t, noDate, "timeline")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], `"date" or "year"`)

	badFormat := `{"events":[{"date":"Jan 2026","title":"odd"},{"year":"26","title":"short"}]}`
	res = validate(t, badFormat, "timeline")
	require.True(t, res.IsValid)
	require.Len(t, res.Warnings, 2)
}

func TestValidateUnknownType(t *testing.T) {
	t.Parallel()

	res := validate(t, `{"nodes":[]}`, "hologram")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], "unsupported diagram type")
}

func TestValidateMalformedPayload(t *testing.T) {
	t.Parallel()

	res := validate(t, `not json`, "flowchart")
	require.False(t, res.IsValid)

	res = validate(t, `[1,2,3]`, "flowchart")
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], "must be an object")
}

func TestEveryKindHasPromptAndValidator(t *testing.T) {
	t.Parallel()

	kinds := []Kind{
		KindFlowchart, KindSequence, KindClass, KindER,
		KindState, KindMindmap, KindPie, KindTimeline,
	}
	require.Len(t, kindPrompts, len(kinds))
	require.Len(t, kindValidators, len(kinds))
	for _, k := range kinds {
		prompt, ok := GenerationPrompt(k, "content", "summary")
		require.True(t, ok, "kind %s missing prompt", k)
		require.Contains(t, prompt, "summary")
		_, ok = kindValidators[k]
		require.True(t, ok, "kind %s missing validator", k)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, ok := ParseKind(" Gantt ")
	require.True(t, ok)
	require.Equal(t, KindTimeline, k)

	_, ok = ParseKind("venn")
	require.False(t, ok)
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	fenced := "```json\n{\"a\":1}\n```"
	require.Equal(t, `{"a":1}`, extractJSON(fenced))

	bare := "```\n{\"a\":1}\n```"
	require.Equal(t, `{"a":1}`, extractJSON(bare))

	plain := ` {"a":1} `
	require.Equal(t, `{"a":1}`, extractJSON(plain))
}
