package bot

import (
	"strings"

	"github.com/miulabs/miu-linebot-go/internal/storage"
)

// InputKind classifies a sanitized text message before dispatch.
type InputKind int

const (
	// InputFreeText is ordinary content handled by the active mode.
	InputFreeText InputKind = iota
	// InputCommand is a recognized slash command.
	InputCommand
	// InputTrigger is a fixed structured trigger (quick-reply chip text).
	InputTrigger
)

// CommandKind identifies a slash command family.
type CommandKind int

const (
	CmdMode CommandKind = iota
	CmdReplyStyle
	CmdAnimeStyle
	CmdImageSize
	CmdSetLevel
)

// TriggerKind identifies a structured trigger.
type TriggerKind int

const (
	// TriggerMoreTranslation re-enters translate mode for another item.
	TriggerMoreTranslation TriggerKind = iota
	// TriggerAskDetail digs deeper into the last assistant response.
	TriggerAskDetail
)

// Trigger chip texts. These exact strings arrive when the user taps the
// followup chips attached to translate/chat responses.
const (
	triggerMoreTranslationText = "他にも翻訳する"
	triggerAskDetailText       = "もっと詳しくMiuにきく"
)

// ParsedInput is the tagged classification of an inbound text message.
type ParsedInput struct {
	Kind    InputKind
	Command CommandKind // valid when Kind == InputCommand
	Arg     string      // raw command argument, trimmed
	Trigger TriggerKind // valid when Kind == InputTrigger
	Text    string      // original sanitized text
}

// commandPrefixes maps a reserved prefix to its command kind. The trailing
// space is part of the prefix: "/mode" alone is not a command.
var commandPrefixes = []struct {
	prefix string
	kind   CommandKind
}{
	{"/mode ", CmdMode},
	{"/reply_style ", CmdReplyStyle},
	{"/anime_style ", CmdAnimeStyle},
	{"/image_size ", CmdImageSize},
}

// ParseInput classifies text into trigger, command or free text. Unknown
// slash prefixes fall through to free text so the LLM can answer messages
// that merely start with "/".
func ParseInput(text string) ParsedInput {
	trimmed := strings.TrimSpace(text)

	switch trimmed {
	case triggerMoreTranslationText:
		return ParsedInput{Kind: InputTrigger, Trigger: TriggerMoreTranslation, Text: trimmed}
	case triggerAskDetailText:
		return ParsedInput{Kind: InputTrigger, Trigger: TriggerAskDetail, Text: trimmed}
	}

	for _, cp := range commandPrefixes {
		if strings.HasPrefix(trimmed, cp.prefix) {
			arg := strings.TrimSpace(strings.TrimPrefix(trimmed, cp.prefix))
			return ParsedInput{Kind: InputCommand, Command: cp.kind, Arg: arg, Text: trimmed}
		}
	}

	if arg, ok := strings.CutPrefix(trimmed, "/set_level_"); ok {
		return ParsedInput{Kind: InputCommand, Command: CmdSetLevel, Arg: strings.TrimSpace(arg), Text: trimmed}
	}

	return ParsedInput{Kind: InputFreeText, Text: trimmed}
}

// modeAliases maps command arguments to modes. The command surface uses
// shorter names than the stored enum ("image", "miu-chat"); the stored
// names are accepted too so postback data can carry either form.
var modeAliases = map[string]storage.Mode{
	"standard":    storage.ModeStandard,
	"translate":   storage.ModeTranslate,
	"miu-chat":    storage.ModeMiuChat,
	"miu_chat":    storage.ModeMiuChat,
	"reply":       storage.ModeReply,
	"homework":    storage.ModeHomework,
	"report":      storage.ModeReport,
	"image":       storage.ModeImageAnime,
	"image_anime": storage.ModeImageAnime,
}

// ResolveMode maps a /mode argument to a mode. ok is false for unknown
// arguments, which produce the mode help listing.
func ResolveMode(arg string) (storage.Mode, bool) {
	m, ok := modeAliases[arg]
	return m, ok
}

// ResolveReplyStyle maps a /reply_style argument to a tone. Hyphens are
// accepted in place of underscores.
func ResolveReplyStyle(arg string) (storage.ReplyStyle, bool) {
	s := storage.ReplyStyle(strings.ReplaceAll(arg, "-", "_"))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// ResolveAnimeStyle maps an /anime_style argument to a catalog key.
func ResolveAnimeStyle(arg string) (string, bool) {
	if _, ok := AnimeStyles[arg]; ok {
		return arg, true
	}
	return "", false
}

// ResolveImageSize maps an /image_size argument to a size.
func ResolveImageSize(arg string) (storage.ImageSize, bool) {
	s := storage.ImageSize(arg)
	if s.Valid() {
		return s, true
	}
	return "", false
}

// ResolveLevel maps a /set_level_ suffix to a proficiency level.
func ResolveLevel(arg string) (storage.JapaneseLevel, bool) {
	l := storage.JapaneseLevel(arg)
	if l.Valid() {
		return l, true
	}
	return "", false
}
