package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miulabs/miu-linebot-go/internal/storage"
)

func TestParseInputTriggers(t *testing.T) {
	got := ParseInput("他にも翻訳する")
	assert.Equal(t, InputTrigger, got.Kind)
	assert.Equal(t, TriggerMoreTranslation, got.Trigger)

	got = ParseInput("  もっと詳しくMiuにきく  ")
	assert.Equal(t, InputTrigger, got.Kind)
	assert.Equal(t, TriggerAskDetail, got.Trigger)
}

func TestParseInputCommands(t *testing.T) {
	tests := []struct {
		text    string
		command CommandKind
		arg     string
	}{
		{"/mode translate", CmdMode, "translate"},
		{"/mode   image  ", CmdMode, "image"},
		{"/reply_style senior", CmdReplyStyle, "senior"},
		{"/anime_style fujiko-touch", CmdAnimeStyle, "fujiko-touch"},
		{"/image_size landscape", CmdImageSize, "landscape"},
		{"/set_level_beginner", CmdSetLevel, "beginner"},
	}
	for _, tt := range tests {
		got := ParseInput(tt.text)
		require.Equal(t, InputCommand, got.Kind, tt.text)
		assert.Equal(t, tt.command, got.Command, tt.text)
		assert.Equal(t, tt.arg, got.Arg, tt.text)
	}
}

func TestParseInputFreeText(t *testing.T) {
	tests := []string{
		"こんにちは",
		"/mode",       // no trailing space, not a command
		"/modetrans",  // prefix without separator
		"/unknown x",  // unrecognized command falls through
		"翻訳してください /mode", // command token not at start
	}
	for _, text := range tests {
		got := ParseInput(text)
		assert.Equal(t, InputFreeText, got.Kind, text)
	}
}

func TestResolveModeAliases(t *testing.T) {
	tests := []struct {
		arg  string
		want storage.Mode
	}{
		{"standard", storage.ModeStandard},
		{"translate", storage.ModeTranslate},
		{"miu-chat", storage.ModeMiuChat},
		{"miu_chat", storage.ModeMiuChat},
		{"reply", storage.ModeReply},
		{"homework", storage.ModeHomework},
		{"report", storage.ModeReport},
		{"image", storage.ModeImageAnime},
		{"image_anime", storage.ModeImageAnime},
	}
	for _, tt := range tests {
		got, ok := ResolveMode(tt.arg)
		require.True(t, ok, tt.arg)
		assert.Equal(t, tt.want, got)
	}

	_, ok := ResolveMode("draw")
	assert.False(t, ok)
}

func TestResolveReplyStyleHyphens(t *testing.T) {
	got, ok := ResolveReplyStyle("best-friend")
	require.True(t, ok)
	assert.Equal(t, storage.StyleBestFriend, got)

	got, ok = ResolveReplyStyle("pirate")
	require.True(t, ok)
	assert.Equal(t, storage.StylePirate, got)

	_, ok = ResolveReplyStyle("robot")
	assert.False(t, ok)
}

func TestResolveAnimeStyle(t *testing.T) {
	got, ok := ResolveAnimeStyle("ninja-battle")
	require.True(t, ok)
	assert.Equal(t, "ninja-battle", got)

	_, ok = ResolveAnimeStyle("oil-painting")
	assert.False(t, ok)
}

func TestResolveImageSize(t *testing.T) {
	got, ok := ResolveImageSize("portrait")
	require.True(t, ok)
	assert.Equal(t, storage.SizePortrait, got)

	_, ok = ResolveImageSize("banner")
	assert.False(t, ok)
}

func TestResolveLevel(t *testing.T) {
	got, ok := ResolveLevel("advanced")
	require.True(t, ok)
	assert.Equal(t, storage.LevelAdvanced, got)

	_, ok = ResolveLevel("native")
	assert.False(t, ok)
}
