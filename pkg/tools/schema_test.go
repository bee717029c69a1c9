package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionSchema(t *testing.T, name string, eligible []string) map[string]any {
	t.Helper()

	target, err := Build(name, eligible)
	require.NoError(t, err)
	require.Equal(t, name, target.Name)

	assert.Equal(t, "function", target.OpenAISchema["type"])
	fn, ok := target.OpenAISchema["function"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, name, fn["name"])
	assert.Equal(t, true, fn["strict"])
	assert.NotEmpty(t, fn["description"])

	params, ok := fn["parameters"].(map[string]any)
	require.True(t, ok)
	return params
}

func TestBuildReasoningIsFirstRequired(t *testing.T) {
	for _, name := range Names() {
		params := functionSchema(t, name, []string{"agent_1", "agent_2"})

		required, ok := params["required"].([]string)
		require.True(t, ok, "tool %s", name)
		require.NotEmpty(t, required, "tool %s", name)
		assert.Equal(t, "reasoning", required[0], "tool %s", name)

		props, ok := params["properties"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, props, "reasoning")

		// Strict schemas list every property in required.
		assert.Len(t, required, len(props), "tool %s", name)
		assert.Equal(t, false, params["additionalProperties"], "tool %s", name)
	}
}

func TestBuildNarrowsAgentIDEnum(t *testing.T) {
	params := functionSchema(t, PickFirstMate, []string{"agent_1", "agent_3"})

	props := params["properties"].(map[string]any)
	agentID := props["agent_id"].(map[string]any)

	assert.Equal(t, []any{"agent_1", "agent_3"}, agentID["enum"])
}

func TestBuildWithoutEligibleSkipsEnum(t *testing.T) {
	params := functionSchema(t, PickFirstMate, nil)

	props := params["properties"].(map[string]any)
	agentID := props["agent_id"].(map[string]any)
	_, hasEnum := agentID["enum"]
	assert.False(t, hasEnum)
}

func TestBuildNullableDirectedTargetKeepsNullInEnum(t *testing.T) {
	params := functionSchema(t, AskSpeak, []string{"agent_0", "agent_2"})

	props := params["properties"].(map[string]any)
	directed := props["ask_directed_question_to_agent_id"].(map[string]any)

	enum, ok := directed["enum"].([]any)
	require.True(t, ok)
	assert.Contains(t, enum, "agent_0")
	assert.Contains(t, enum, "agent_2")
	assert.Contains(t, enum, nil)

	// Optional properties become nullable under strict mode.
	assert.ElementsMatch(t, []any{"string", "null"}, directed["type"])
}

func TestBuildCardIndexBounds(t *testing.T) {
	params := functionSchema(t, CaptainDiscardCard, nil)
	props := params["properties"].(map[string]any)
	cardIndex := props["card_index"].(map[string]any)
	assert.NotNil(t, cardIndex["minimum"])
	assert.NotNil(t, cardIndex["maximum"])
}

func TestBuildUnknownTool(t *testing.T) {
	_, err := Build("launch_missiles", nil)
	assert.Error(t, err)
}

func TestNamesCoversVocabulary(t *testing.T) {
	assert.ElementsMatch(t, []string{
		PickFirstMate,
		VoteYesNo,
		CaptainDiscardCard,
		FirstMatePlayCard,
		AskSpeak,
		AnswerDirectedQuestion,
		ChooseAgentToEject,
	}, Names())
}
