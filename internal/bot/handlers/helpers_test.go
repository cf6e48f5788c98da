package handlers

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdmsharpe/discord-grok/internal/conversation"
)

func TestChunkText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		size   int
		chunks int
	}{
		{name: "empty", input: "", size: 10, chunks: 0},
		{name: "fits in one chunk", input: "short", size: 10, chunks: 1},
		{name: "exact boundary", input: strings.Repeat("a", 10), size: 10, chunks: 1},
		{name: "two chunks", input: strings.Repeat("a", 15), size: 10, chunks: 2},
		{name: "many chunks", input: strings.Repeat("a", 35), size: 10, chunks: 4},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			chunks := chunkText(tc.input, tc.size)
			assert.Len(t, chunks, tc.chunks)

			var rebuilt strings.Builder
			for _, c := range chunks {
				assert.LessOrEqual(t, len([]rune(c)), tc.size)
				rebuilt.WriteString(c)
			}
			assert.Equal(t, tc.input, rebuilt.String())
		})
	}

	t.Run("prefers newline breaks", func(t *testing.T) {
		t.Parallel()

		input := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
		chunks := chunkText(input, 10)
		require.Len(t, chunks, 2)
		assert.Equal(t, strings.Repeat("a", 8)+"\n", chunks[0])
		assert.Equal(t, strings.Repeat("b", 8), chunks[1])
	})
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncateText("short", 10))

	long := strings.Repeat("x", 50)
	got := truncateText(long, 10)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("x", 10)))
	assert.Contains(t, got, "truncated")
}

func TestBuildResponseEmbeds(t *testing.T) {
	t.Parallel()

	t.Run("content only", func(t *testing.T) {
		t.Parallel()

		embeds := buildResponseEmbeds("hello", "", "No response.")
		require.Len(t, embeds, 1)
		assert.Equal(t, "hello", embeds[0].Description)
	})

	t.Run("reasoning is spoilered and leads", func(t *testing.T) {
		t.Parallel()

		embeds := buildResponseEmbeds("answer", "thinking", "No response.")
		require.Len(t, embeds, 2)
		assert.Equal(t, "Reasoning", embeds[0].Title)
		assert.Equal(t, "||thinking||", embeds[0].Description)
		assert.Equal(t, "answer", embeds[1].Description)
	})

	t.Run("empty content falls back to placeholder", func(t *testing.T) {
		t.Parallel()

		embeds := buildResponseEmbeds("", "", "No response.")
		require.Len(t, embeds, 1)
		assert.Equal(t, "No response.", embeds[0].Description)
	})

	t.Run("long content is chunked", func(t *testing.T) {
		t.Parallel()

		embeds := buildResponseEmbeds(strings.Repeat("a", embedChunkSize*2), "", "No response.")
		assert.Len(t, embeds, 2)
	})
}

func TestCustomIDRoundTrip(t *testing.T) {
	t.Parallel()

	id := conversationCustomID("12345", actionRegenerate)
	assert.Equal(t, "conv:12345:regen", id)

	conversationID, action, ok := parseCustomID(id)
	require.True(t, ok)
	assert.Equal(t, "12345", conversationID)
	assert.Equal(t, actionRegenerate, action)
}

func TestParseCustomIDRejectsForeignIDs(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "conv", "conv:123", "other:123:regen", "conv::regen", "conv:123:"} {
		_, _, ok := parseCustomID(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestConversationView(t *testing.T) {
	t.Parallel()

	components := conversationView("c1", false, []conversation.Tool{conversation.ToolXSearch}, false)
	require.Len(t, components, 2)

	buttons, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, buttons.Components, 3)

	pause, ok := buttons.Components[1].(discordgo.Button)
	require.True(t, ok)
	assert.Equal(t, "Pause", pause.Label)

	selectRow, ok := components[1].(discordgo.ActionsRow)
	require.True(t, ok)
	menu, ok := selectRow.Components[0].(discordgo.SelectMenu)
	require.True(t, ok)
	require.Len(t, menu.Options, len(conversation.AvailableTools))
	for _, opt := range menu.Options {
		assert.Equal(t, opt.Value == string(conversation.ToolXSearch), opt.Default)
	}

	paused := conversationView("c1", true, nil, false)
	pausedButtons := paused[0].(discordgo.ActionsRow)
	assert.Equal(t, "Resume", pausedButtons.Components[1].(discordgo.Button).Label)

	disabled := conversationView("c1", false, nil, true)
	disabledButtons := disabled[0].(discordgo.ActionsRow)
	for _, c := range disabledButtons.Components {
		assert.True(t, c.(discordgo.Button).Disabled)
	}
}

func TestImageURLsFromAttachments(t *testing.T) {
	t.Parallel()

	attachments := []*discordgo.MessageAttachment{
		{URL: "https://cdn.example/a.png", ContentType: "image/png"},
		{URL: "https://cdn.example/b.jpg", ContentType: "image/jpeg; charset=binary"},
		{URL: "https://cdn.example/c.pdf", ContentType: "application/pdf"},
		{URL: "https://cdn.example/d.webp", ContentType: "IMAGE/WEBP"},
		nil,
	}

	urls := imageURLsFromAttachments(attachments)
	assert.Equal(t, []string{
		"https://cdn.example/a.png",
		"https://cdn.example/b.jpg",
		"https://cdn.example/d.webp",
	}, urls)
}
