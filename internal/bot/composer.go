package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/miulabs/miu-linebot-go/internal/lineutil"
	"github.com/miulabs/miu-linebot-go/internal/storage"
	"github.com/miulabs/miu-linebot-go/internal/stringutil"
)

// Section colors for the bilingual bubble. Green marks Japanese, red marks
// Vietnamese (the flag colors users already associate with each language).
const (
	colorJapanese   = "#1DB446"
	colorVietnamese = "#DA251D"
	colorAccent     = "#fab536"
	colorMuted      = "#999999"
	colorFaint      = "#aaaaaa"
	colorBody       = "#666666"
)

const pricingURL = "https://liff.line.me/2008551240-vWN36gzR"
const officialAccountURL = "https://line.me/R/ti/p/@687hoviz"

// Followup is one suggested next question attached to a translation.
type Followup struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// BilingualResponse is the parsed model output for bilingual modes.
type BilingualResponse struct {
	JA        string     `json:"ja"`
	VI        string     `json:"vi"`
	Followups []Followup `json:"followups,omitempty"`
}

// ParseBilingual extracts the bilingual JSON payload from raw model output.
// Models wrap JSON in code fences or prose despite instructions, so the
// parser strips fences and falls back to the outermost brace pair. Returns
// ok=false when no object with both languages could be recovered; callers
// then render the raw text as-is.
func ParseBilingual(raw string) (*BilingualResponse, bool) {
	cleaned := stringutil.StripCodeFence(raw)

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end <= start {
		return nil, false
	}

	var resp BilingualResponse
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &resp); err != nil {
		return nil, false
	}
	if resp.JA == "" || resp.VI == "" {
		return nil, false
	}
	if len(resp.Followups) > 2 {
		resp.Followups = resp.Followups[:2]
	}
	return &resp, true
}

// markdownSpans converts **bold** markup into flex spans. Everything else
// passes through as regular-weight spans.
func markdownSpans(text string) []messaging_api.FlexSpan {
	var spans []messaging_api.FlexSpan
	for len(text) > 0 {
		open := strings.Index(text, "**")
		if open < 0 {
			spans = append(spans, lineutil.NewFlexSpan(text, "", ""))
			break
		}
		rest := text[open+2:]
		end := strings.Index(rest, "**")
		if end < 0 {
			spans = append(spans, lineutil.NewFlexSpan(text, "", ""))
			break
		}
		if open > 0 {
			spans = append(spans, lineutil.NewFlexSpan(text[:open], "", ""))
		}
		if bold := rest[:end]; bold != "" {
			spans = append(spans, lineutil.NewFlexSpan(bold, "bold", ""))
		}
		text = rest[end+2:]
	}
	if len(spans) == 0 {
		spans = append(spans, lineutil.NewFlexSpan(text, "", ""))
	}
	return spans
}

// BuildBilingualMessage renders the two-section flex bubble. The input
// language leads: Japanese input shows the Japanese section first,
// Vietnamese input the reverse. Followups become quick reply chips.
func BuildBilingualMessage(resp *BilingualResponse, japaneseFirst bool) *messaging_api.FlexMessage {
	type section struct {
		label string
		color string
		spans []messaging_api.FlexSpan
	}

	ja := section{label: "🟢 日本語", color: colorJapanese, spans: markdownSpans(resp.JA)}
	vi := section{label: "🔴 Tiếng Việt", color: colorVietnamese, spans: markdownSpans(resp.VI)}

	sections := []section{ja, vi}
	if !japaneseFirst {
		sections = []section{vi, ja}
	}

	var body []messaging_api.FlexComponentInterface
	for i, sec := range sections {
		labelMargin := "none"
		if i > 0 {
			body = append(body, lineutil.NewFlexSeparator().WithMargin("lg").FlexSeparator)
			labelMargin = "lg"
		}
		body = append(body,
			lineutil.NewFlexText(sec.label).WithWeight("bold").WithSize("sm").WithColor(sec.color).WithMargin(labelMargin).FlexText,
			func() messaging_api.FlexComponentInterface {
				t := lineutil.NewFlexTextSpans(sec.spans...)
				t.Wrap = true
				t.Margin = "md"
				return t.FlexText
			}(),
		)
	}

	bubble := lineutil.NewFlexBubble(nil, nil, lineutil.NewFlexBox("vertical", body...), nil)
	msg := lineutil.NewFlexMessage("Miuの返信", bubble.FlexBubble)

	if len(resp.Followups) > 0 {
		items := make([]lineutil.QuickReplyItem, 0, len(resp.Followups))
		for _, f := range resp.Followups {
			label := f.Label
			if label == "" {
				label = "質問する"
			}
			text := f.Text
			if text == "" {
				text = label
			}
			items = append(items, lineutil.QuickReplyItem{Action: lineutil.NewMessageAction(label, text)})
		}
		msg.QuickReply = lineutil.NewQuickReply(items)
	}

	return msg
}

// BuildLevelPrompt is the onboarding question sent until the user picks a
// Japanese proficiency level.
func BuildLevelPrompt() *messaging_api.TextMessage {
	msg := lineutil.NewTextMessage("はじめまして!Miuだよ😊\n\nあなたの日本語レベルをおしえてね💕")
	msg.QuickReply = lineutil.NewQuickReply([]lineutil.QuickReplyItem{
		{Action: lineutil.NewMessageAction("ほとんどわからない", "/set_level_beginner")},
		{Action: lineutil.NewMessageAction("ゆっくりならだいたいわかる", "/set_level_middle")},
		{Action: lineutil.NewMessageAction("ふつうの日本語でだいじょうぶ", "/set_level_advanced")},
	})
	return msg
}

// levelLabels are the friendly names echoed in the level-set confirmation.
var levelLabels = map[storage.JapaneseLevel]string{
	storage.LevelBeginner: "かんたんな日本語",
	storage.LevelMiddle:   "ふつうか少しむずかしい日本語",
	storage.LevelAdvanced: "ふつうの日本語",
}

// LevelSetConfirmation is the reply after onboarding completes.
func LevelSetConfirmation(level storage.JapaneseLevel) string {
	label, ok := levelLabels[level]
	if !ok {
		label = levelLabels[storage.LevelBeginner]
	}
	return fmt.Sprintf("日本語レベルを「%s」に設定したよ✨\n\nこれからは、そのレベルに合わせて\nやさしい日本語(🟢)で答えるね💚", label)
}

// BuildUsageLimitMessage is the quota-exhausted bubble with the upsell
// button. used/limit shows the counter that tripped the gate; upgradeURL
// overrides the default pricing page when non-empty.
func BuildUsageLimitMessage(plan storage.Plan, used, limit int, upgradeURL string) *messaging_api.FlexMessage {
	if upgradeURL == "" {
		upgradeURL = pricingURL
	}
	infoRow := func(label, value string) messaging_api.FlexComponentInterface {
		box := lineutil.NewFlexBox("baseline",
			lineutil.NewFlexText(label).WithSize("sm").WithColor(colorFaint).WithFlex(2).FlexText,
			lineutil.NewFlexText(value).WithSize("sm").WithColor(colorBody).WithFlex(3).FlexText,
		).WithSpacing("sm")
		return box.FlexBox
	}

	info := lineutil.NewFlexBox("vertical",
		infoRow("現在のプラン", string(plan)),
		infoRow("本日の利用回数", fmt.Sprintf("%d/%d", used, limit)),
	).WithMargin("lg").WithSpacing("sm")

	body := lineutil.NewFlexBox("vertical",
		lineutil.NewFlexText("利用上限に達しました🙏").WithWeight("bold").WithSize("xl").WithColor(colorVietnamese).WithWrap(true).FlexText,
		info.FlexBox,
		lineutil.NewFlexSeparator().WithMargin("lg").FlexSeparator,
		lineutil.NewFlexText("プレミアムプランなら無制限でご利用いただけます✨").WithWrap(true).WithColor(colorBody).WithSize("sm").WithMargin("lg").FlexText,
	)

	footer := lineutil.NewFlexBox("vertical",
		lineutil.NewFlexButton(lineutil.NewURIAction("料金プランを見る💰", upgradeURL)).WithStyle("primary").WithHeight("sm").WithColor(colorAccent).FlexButton,
		lineutil.NewFlexButton(lineutil.NewURIAction("明日また来てね🌸", officialAccountURL)).WithStyle("link").WithHeight("sm").FlexButton,
	).WithSpacing("sm")

	bubble := lineutil.NewFlexBubble(nil, nil, body, footer)
	return lineutil.NewFlexMessage("利用上限に達しました", bubble.FlexBubble)
}

// ModeHelpText lists the /mode arguments for unknown-argument replies.
const ModeHelpText = "切り替えできるモード:\n" +
	"/mode standard → お悩みモード\n" +
	"/mode translate → 翻訳モード\n" +
	"/mode miu-chat → Miu雑談\n" +
	"/mode reply → 返信文作成\n" +
	"/mode homework → 宿題モード\n" +
	"/mode report → レポートモード\n" +
	"/mode image → 画像生成モード"

// AnimeStyleHelpText lists the selectable touches.
const AnimeStyleHelpText = "選択できるタッチ:\n🔵 藤子タッチ\n🔍 推理マンガタッチ\n🥷 忍者バトルタッチ\n🏴‍☠️ 冒険マンガタッチ\n🌿 ファンタジー水彩タッチ"

// ImageSizeHelpText lists the selectable aspects.
const ImageSizeHelpText = "選択できるサイズ:\n🟦 正方形(1:1)\n🟥 横長(16:9)\n🟩 縦長(9:16)"

// ReplyStyleHelpText lists the selectable reply tones.
const ReplyStyleHelpText = "選択できるスタイル:\nしんゆう、ともだち、せんぱい、忍者風、冒険者風"

// textInputChips are the quick replies attached to modes that accept either
// typed text or a photo.
func textInputChips(messageText string) []lineutil.QuickReplyItem {
	return []lineutil.QuickReplyItem{
		{Action: lineutil.NewMessageAction("テキストから", messageText)},
		{Action: lineutil.NewCameraAction("カメラから")},
		{Action: lineutil.NewCameraRollAction("アルバムから")},
	}
}

// BuildModeSwitchMessage confirms a mode change. Input-method chips are
// attached for the modes that accept photos.
func BuildModeSwitchMessage(mode storage.Mode) *messaging_api.TextMessage {
	label := ModeLabels[mode]

	var text string
	var chips []lineutil.QuickReplyItem

	switch mode {
	case storage.ModeTranslate:
		text = fmt.Sprintf("モードを「%s」に変更しました🌸\n\n難しい日本語の文書や写真を送ってね✨\nベトナム語と、やさしい日本語で説明するよ💚", label)
		chips = textInputChips("テキストで翻訳を送る")
	case storage.ModeHomework:
		text = fmt.Sprintf("モードを「%s」に変更しました📝\n\n宿題を送る方法を選んでね💕", label)
		chips = textInputChips("テキストで宿題を送る")
	case storage.ModeReport:
		text = fmt.Sprintf("モードを「%s」に変更しました📄\n\nレポートを送る方法を選んでね💕", label)
		chips = textInputChips("テキストでレポート内容を送る")
	case storage.ModeStandard:
		text = fmt.Sprintf("モードを「%s」に変更しました💚\n\n日本での困りごとを相談してね🍀", label)
	case storage.ModeMiuChat:
		text = fmt.Sprintf("モードを「%s」に変更しました🐱💕\n\nMiuとおしゃべりしよう✨\n日本での生活、どう?😊", label)
	default:
		text = fmt.Sprintf("モードを「%s」に変更しました💚", label)
	}

	msg := lineutil.NewTextMessage(text)
	if len(chips) > 0 {
		msg.QuickReply = lineutil.NewQuickReply(chips)
	}
	return msg
}

// BuildTranslateInputPrompt re-prompts for the next item to translate after
// the "他にも翻訳する" chip.
func BuildTranslateInputPrompt() *messaging_api.TextMessage {
	msg := lineutil.NewTextMessage("つぎに翻訳したいものをえらんでね💚")
	msg.QuickReply = lineutil.NewQuickReply(textInputChips("テキストで翻訳を送る"))
	return msg
}

// replyStyleOrder fixes the selection bubble order (maps do not).
var replyStyleOrder = []storage.ReplyStyle{
	storage.StyleBestFriend,
	storage.StyleFriend,
	storage.StyleSenior,
	storage.StyleNinja,
	storage.StylePirate,
}

// BuildReplyStyleSelection is the tone picker shown on entering reply mode.
func BuildReplyStyleSelection() *messaging_api.FlexMessage {
	contents := []messaging_api.FlexComponentInterface{
		lineutil.NewFlexText("返信文作成モード✏️").WithWeight("bold").WithSize("xl").WithColor(colorJapanese).FlexText,
		lineutil.NewFlexText("どんな話し方で返信する?").WithSize("sm").WithColor(colorMuted).WithMargin("md").FlexText,
		lineutil.NewFlexSeparator().WithMargin("lg").FlexSeparator,
	}
	for _, key := range replyStyleOrder {
		style := ReplyStyles[key]
		contents = append(contents,
			lineutil.NewFlexButton(lineutil.NewMessageAction(style.Label, "/reply_style "+string(key))).
				WithStyle("link").WithHeight("sm").FlexButton,
		)
	}

	bubble := lineutil.NewFlexBubble(nil, nil, lineutil.NewFlexBox("vertical", contents...), nil)
	return lineutil.NewFlexMessage("返信スタイルを選んでね", bubble.FlexBubble)
}

// ReplyStyleConfirmation is the reply after a tone is selected.
func ReplyStyleConfirmation(style storage.ReplyStyle) string {
	info, ok := ReplyStyles[style]
	if !ok {
		info = ReplyStyles[storage.StyleFriend]
	}
	return fmt.Sprintf("返信スタイルを「%s」に設定したよ✨\n\n返信してほしいメッセージを送ってね😊", info.Label)
}

// animeStyleOrder fixes the touch picker order.
var animeStyleOrder = []string{
	"fujiko-touch",
	"mystery-manga",
	"ninja-battle",
	"adventure-manga",
	"fantasy-watercolor",
}

// BuildAnimeStyleSelection is the touch picker shown on entering image mode.
// Each entry is a button plus a small description line.
func BuildAnimeStyleSelection() *messaging_api.FlexMessage {
	contents := []messaging_api.FlexComponentInterface{
		lineutil.NewFlexText("🎨 絵のタッチを選んでね").WithWeight("bold").WithSize("xl").WithColor(colorAccent).WithWrap(true).FlexText,
		lineutil.NewFlexText("どの作品の世界観で描く?").WithSize("sm").WithColor(colorMuted).WithMargin("md").WithWrap(true).FlexText,
		lineutil.NewFlexSeparator().WithMargin("lg").FlexSeparator,
	}
	for i, key := range animeStyleOrder {
		style := AnimeStyles[key]
		margin := "md"
		if i == 0 {
			margin = "lg"
		}
		entry := lineutil.NewFlexBox("vertical",
			lineutil.NewFlexButton(lineutil.NewMessageAction(style.Label, "/anime_style "+key)).
				WithStyle("link").WithHeight("sm").FlexButton,
			lineutil.NewFlexText(style.Description).WithSize("xxs").WithColor(colorMuted).WithWrap(true).WithMargin("xs").FlexText,
		).WithMargin(margin)
		contents = append(contents, entry.FlexBox)
	}

	bubble := lineutil.NewFlexBubble(nil, nil, lineutil.NewFlexBox("vertical", contents...), nil)
	return lineutil.NewFlexMessage("アニメスタイルを選んでね", bubble.FlexBubble)
}

// AnimeStyleConfirmMessage confirms a touch selection and prompts for the
// photo, with camera chips attached.
func AnimeStyleConfirmMessage(styleKey string) *messaging_api.TextMessage {
	style, ok := AnimeStyles[styleKey]
	if !ok {
		style = AnimeStyles[DefaultAnimeStyle]
	}
	msg := lineutil.NewTextMessage(fmt.Sprintf(
		"%s を選択しました✨\n\n【このタッチの特徴】\n%s\n\n📸 変換したい写真を送ってね！\n写真を受け取ったら、サイズを選べるよ😊",
		style.Label, style.Description,
	))
	msg.QuickReply = lineutil.NewQuickReply([]lineutil.QuickReplyItem{
		{Action: lineutil.NewCameraAction("📷 写真を撮る")},
		{Action: lineutil.NewCameraRollAction("🖼️ アルバムから")},
	})
	return msg
}

// sizeButton styling per aspect.
var sizeButtons = []struct {
	size  storage.ImageSize
	label string
	color string
	hint  string
}{
	{storage.SizeSquare, "🟦 正方形 (1:1)", "#5B9BD5", "Instagram投稿、プロフィール画像向け"},
	{storage.SizeLandscape, "🟥 横長 (16:9)", "#E06666", "YouTube、風景画、ワイド画面向け"},
	{storage.SizePortrait, "🟩 縦長 (9:16)", "#93C47D", "Instagram Stories、TikTok、スマホ向け"},
}

// BuildImageSizeSelection is the aspect picker shown after a photo arrives
// with a touch already chosen.
func BuildImageSizeSelection(styleKey string) *messaging_api.FlexMessage {
	style, ok := AnimeStyles[styleKey]
	if !ok {
		style = AnimeStyles[DefaultAnimeStyle]
	}

	contents := []messaging_api.FlexComponentInterface{
		lineutil.NewFlexText(style.Label + " を選択✨").WithWeight("bold").WithSize("lg").WithColor(colorJapanese).WithWrap(true).FlexText,
		lineutil.NewFlexText(style.Description).WithSize("xs").WithColor(colorMuted).WithMargin("sm").WithWrap(true).FlexText,
		lineutil.NewFlexSeparator().WithMargin("lg").FlexSeparator,
		lineutil.NewFlexText("📐 画像の比率を選んでね").WithWeight("bold").WithSize("md").WithColor(colorAccent).WithMargin("lg").FlexText,
	}
	for i, btn := range sizeButtons {
		margin := "sm"
		if i == 0 {
			margin = "md"
		}
		entry := lineutil.NewFlexBox("vertical",
			lineutil.NewFlexButton(lineutil.NewMessageAction(btn.label, "/image_size "+string(btn.size))).
				WithStyle("primary").WithHeight("sm").WithColor(btn.color).FlexButton,
			lineutil.NewFlexText(btn.hint).WithSize("xxs").WithColor(colorMuted).WithWrap(true).WithMargin("xs").FlexText,
		).WithMargin(margin)
		contents = append(contents, entry.FlexBox)
	}

	bubble := lineutil.NewFlexBubble(nil, nil, lineutil.NewFlexBox("vertical", contents...), nil)
	return lineutil.NewFlexMessage("画像サイズを選んでね", bubble.FlexBubble)
}

// TextToImageReadyMessage confirms style+size with no buffered photo; the
// user can type a scene description instead.
func TextToImageReadyMessage(styleKey string, size storage.ImageSize) *messaging_api.TextMessage {
	style, ok := AnimeStyles[styleKey]
	if !ok {
		style = AnimeStyles[DefaultAnimeStyle]
	}
	msg := lineutil.NewTextMessage(fmt.Sprintf(
		"✅ 設定完了!\n\n【タッチ】%s\n【サイズ】%s\n\n説明文を送ってね✨\n\n例: 「桜の下で笑顔の女の子」",
		style.Label, ImageSizes[size].Label,
	))
	msg.QuickReply = lineutil.NewQuickReply([]lineutil.QuickReplyItem{
		{Action: lineutil.NewMessageAction("例文を試す", "桜の下で笑顔の女の子")},
	})
	return msg
}

// GenerationSuccessCaption is the text sent alongside a generated image.
func GenerationSuccessCaption(styleKey string, size storage.ImageSize) string {
	style, ok := AnimeStyles[styleKey]
	if !ok {
		style = AnimeStyles[DefaultAnimeStyle]
	}
	return fmt.Sprintf(
		"🎨 %s × %s で変換しました✨\n\n元の写真の特徴を活かしながら、選択されたアニメ風イラストにしたよ💕",
		style.Label, ImageSizes[size].Label,
	)
}

// User-facing error and edge-case texts.
const (
	NoRecentTranslationText  = "直近の翻訳が見つかりませんでした💦\n\nもう一度翻訳したい内容を送ってください😊"
	ProcessingErrorText      = "処理中にエラーが発生しました💦\n\nもう一度試してみてください😊"
	ImageGenerationErrorText = "画像生成中にエラーが発生しました💦\n\nもう一度写真を送ってみてください😊"
	AudioErrorText           = "音声がうまく聞き取れなかったよ💦\n\nもう一度送ってみてね😊"
	BusyText                 = "ただいま混み合っています💦\n\n少し待ってからもう一度送ってね🙏"
)
