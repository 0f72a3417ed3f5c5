// Package bot implements the per-user conversation state machine: mode
// routing, onboarding, quota gating, command handling, the image
// style-transfer workflow and bilingual response composition.
package bot

import (
	"strings"

	"github.com/miulabs/miu-linebot-go/internal/genai"
	"github.com/miulabs/miu-linebot-go/internal/storage"
)

// ModeLabels are the Japanese display names shown in mode-switch
// confirmations.
var ModeLabels = map[storage.Mode]string{
	storage.ModeStandard:   "お悩みモード",
	storage.ModeTranslate:  "翻訳モード",
	storage.ModeMiuChat:    "Miu雑談モード",
	storage.ModeReply:      "返信文作成モード",
	storage.ModeHomework:   "宿題モード",
	storage.ModeReport:     "レポートモード",
	storage.ModeImageAnime: "画像→アニメ風変換",
}

// ReplyStyleInfo describes one reply-drafting tone.
type ReplyStyleInfo struct {
	Label       string
	Description string
	Prompt      string
}

// ReplyStyles is the reply-drafting tone catalog.
var ReplyStyles = map[storage.ReplyStyle]ReplyStyleInfo{
	storage.StyleBestFriend: {
		Label:       "🤗 親友",
		Description: "タメ口、絵文字多め、フレンドリー",
		Prompt: `【親友スタイル (best_friend)】
**トーン**: 超フランク、遠慮なし、親しみ最大
**語彙**: タメ口、省略形多用、若者言葉OK
**絵文字**: 😂🤣💕✨🔥など感情豊か
**文末**: 〜じゃん、〜だよね、〜！！、〜笑
**話し方**: 「マジで！？」「それな！」「超わかる〜」など`,
	},
	storage.StyleFriend: {
		Label:       "😊 友達",
		Description: "タメ口、適度な絵文字、気軽",
		Prompt: `【友達スタイル (friend)】
**トーン**: フランクだけど節度あり、明るく気軽
**語彙**: タメ口、でも過激すぎない
**絵文字**: 😊😄👍✨など適度に使用
**文末**: 〜だよ、〜だね、〜かも、〜！
**話し方**: 「いいね！」「そうそう」「わかるよ」など`,
	},
	storage.StyleSenior: {
		Label:       "🙇 先輩・目上",
		Description: "敬語、丁寧、礼儀正しい",
		Prompt: `【先輩スタイル (senior)】
**トーン**: 丁寧で頼りになる、アドバイス的
**語彙**: です・ます調、敬語、サポート表現
**絵文字**: 💪📝✅など控えめで実用的
**文末**: 〜ですよ、〜ましょう、〜ですね、〜！`,
	},
	storage.StyleNinja: {
		Label:       "🥷 元気な忍者風",
		Description: "熱血、まっすぐ、仲間思い",
		Prompt: `【忍者スタイル (ninja)】
**トーン**: 熱血、まっすぐ、あきらめない
**語彙**: 「オレ」「〜だってばよ」風の元気な言い回し
**絵文字**: 🔥💪🥷など
**話し方**: 短く力強く、仲間を励ます`,
	},
	storage.StylePirate: {
		Label:       "🏴‍☠️ 自由な冒険者風",
		Description: "明るく自由、仲間思い",
		Prompt: `【冒険者スタイル (pirate)】
**トーン**: 超シンプル、自由奔放、まっすぐ、楽観的
**語彙**: 一人称は「おれ」、難しい言葉を使わない
**絵文字**: 🏴‍☠️🍖☀️など
**話し方**: 1〜2文で言い切る、複雑な説明はしない`,
	},
}

// AnimeStyleInfo describes one image style-transfer touch.
type AnimeStyleInfo struct {
	Label       string
	Description string
	Prompt      string
}

// DefaultAnimeStyle is used when generation runs with no explicit selection.
const DefaultAnimeStyle = "fujiko-touch"

// AnimeStyles is the style-transfer catalog. Prompt is the fixed English
// template prepended to the subject description.
var AnimeStyles = map[string]AnimeStyleInfo{
	"fujiko-touch": {
		Label:       "🔵 藤子タッチ",
		Description: "丸くて優しい線、温かい日常の雰囲気、昭和レトロな世界観",
		Prompt:      "Fujiko Fujio manga art style, round soft shapes, warm everyday life atmosphere, gentle curved lines, simple clean design, bright pastel colors, nostalgic Showa-era Japan feeling, heartwarming slice-of-life scenes, characteristic simple rounded character designs",
	},
	"mystery-manga": {
		Label:       "🔍 推理マンガタッチ",
		Description: "鋭い線、ミステリアスな雰囲気、都会的でスタイリッシュな世界観",
		Prompt:      "Detective mystery manga art style, sharp precise lines, dramatic shadows and lighting, urban modern setting, intellectual atmosphere, realistic proportions with manga stylization, noir aesthetic, suspenseful mood, detailed backgrounds",
	},
	"ninja-battle": {
		Label:       "🥷 忍者バトルタッチ",
		Description: "躍動感ある線、エネルギッシュな世界観、熱血アクション",
		Prompt:      "Shounen ninja manga art style, clean sharp linework with dynamic motion, expressive large eyes with detailed highlights, spiky hair with precise angular shapes, detailed fabric folds and movement, dramatic action poses with speed lines, high-contrast shading, 2000s shounen manga aesthetic, ninja theme with explosive energy effects, professional manga illustration quality",
	},
	"adventure-manga": {
		Label:       "🏴‍☠️ 冒険マンガタッチ",
		Description: "大胆でダイナミックな線、明るく元気な世界観、海賊冒険",
		Prompt:      "Pirate adventure manga art style, highly exaggerated cartoon proportions, bright sunny tropical colors, bold dynamic thick lines, extremely energetic cheerful expressions with wide grins, deformed character design with large heads, ocean adventure pirate theme, freedom and friendship aesthetic, comedic action poses",
	},
	"fantasy-watercolor": {
		Label:       "🌿 ファンタジー水彩タッチ",
		Description: "繊細な手描き感、自然光と緑豊かな世界観、夢のような雰囲気",
		Prompt:      "Fantasy watercolor anime art style, soft hand-painted aesthetic, lush detailed nature backgrounds, gentle natural lighting, dreamy peaceful atmosphere, realistic environmental details, nostalgic countryside feeling, detailed clouds and foliage, warm earth tones",
	},
}

// ImageSizeInfo maps a size key to its label and pixel dimensions.
type ImageSizeInfo struct {
	Label string
	Dims  genai.ImageDimensions
}

// ImageSizes is the output size catalog.
var ImageSizes = map[storage.ImageSize]ImageSizeInfo{
	storage.SizeSquare:    {Label: "🟦 正方形(1:1)", Dims: genai.DimensionsSquare},
	storage.SizeLandscape: {Label: "🟥 横長(16:9)", Dims: genai.DimensionsLandscape},
	storage.SizePortrait:  {Label: "🟩 縦長(9:16)", Dims: genai.DimensionsPortrait},
}

// imagePromptSuffix is appended to every composed generation prompt.
const imagePromptSuffix = ". High quality anime illustration, professional art, detailed and expressive."

// maxImagePromptLen caps the composed prompt at the DALL-E 3 limit.
const maxImagePromptLen = 4000

// visionDescribePrompt asks the vision model for the subject description fed
// into image generation.
const visionDescribePrompt = "Describe this image in detail in English. Include: person features, expressions, clothing, background, atmosphere. Be concise."

// promptTranslateSystem turns free-text Japanese scene descriptions into
// English image prompts for the text-to-image path.
const promptTranslateSystem = "あなたは日本語を英語に翻訳する専門家です。ユーザーの説明を、画像生成用の詳細な英語プロンプトに変換してください。"

// ComposeImagePrompt builds the final generation prompt from a style
// template and a subject description, hard-capped at the provider limit.
func ComposeImagePrompt(styleKey, subject string) string {
	style, ok := AnimeStyles[styleKey]
	if !ok {
		style = AnimeStyles[DefaultAnimeStyle]
	}

	prompt := style.Prompt + ". Subject: " + subject + imagePromptSuffix
	if len(prompt) > maxImagePromptLen {
		prompt = prompt[:maxImagePromptLen]
	}
	return prompt
}

// detailPromptBody steers the follow-up deep-dive by content category.
const detailPromptBody = `【あなたの役割】
この内容について、ユーザーが本当に知りたいことを考えて、詳しく説明してください。

【内容に応じて説明すること】

▼ 食品・飲料・お菓子の場合：
- どんな味か、どんな時に飲む/食べるものか
- 日本でどれくらい人気か、誰に人気か
- ベトナムの似た商品と比べてどう違うか
- おすすめの食べ方・飲み方
- 賞味期限や保存方法で気をつけること
- アレルギー成分（あれば）

▼ 書類・契約・請求書の場合：
- この書類で一番大事なポイント
- いつまでに何をしないといけないか
- お金を払う必要があるか、いくらか
- サインや返送が必要か
- 気をつけるべきリスクや注意点
- わからない時に誰に相談すればいいか

▼ マニュアル・説明書の場合：
- 手順の要約（何をすればいいか）
- よく間違えやすいポイント
- 安全に気をつけること
- トラブルが起きた時の対処法

▼ ポスター・看板・広告の場合：
- 何の宣伝・お知らせか
- 期限や条件があるか
- お得な情報や注意点
- 参加方法や問い合わせ先

▼ その他の場合：
- ユーザーが知りたいであろう追加情報
- 文化的な背景や日本の習慣
- 関連する豆知識

【重要】
- やさしい日本語とベトナム語の両方で説明してください
- 必ずJSON形式で返してください: {"ja": "...", "vi": "..."}`

// DetailPrompt builds the user message for the "ask Miu for more detail"
// trigger. lastContent is the previous translation; withImage notes that the
// buffered photo rides along in the same request.
func DetailPrompt(lastContent string, withImage bool) string {
	var sb strings.Builder
	if withImage {
		sb.WriteString("以下の画像について、もっと詳しく教えてください：\n\n")
	} else {
		sb.WriteString("以下の内容について、もっと詳しく教えてください：\n\n")
	}
	sb.WriteString("【翻訳した内容】\n")
	sb.WriteString(lastContent)
	sb.WriteString("\n\n")
	sb.WriteString(detailPromptBody)
	if withImage {
		sb.WriteString("\n- 画像から読み取れる具体的な情報を最大限活用してください")
	}
	return sb.String()
}

// visionModePrompt is the user text attached to a photo processed in the
// text-based modes (translate, homework, report, standard).
const visionModePrompt = "画像内のテキストを認識して処理してください。"

// levelInstructions tune output difficulty per onboarding level.
var levelInstructions = map[storage.JapaneseLevel]string{
	storage.LevelBeginner: "- 日本語は**ひらがな中心**で、漢字には必ず(ふりがな)をつける\n- 文は**短く**、簡単な語だけを使う",
	storage.LevelMiddle:   "- 日本語は**中学生レベル**の漢字と文法\n- 少し難しい語には説明を添える",
	storage.LevelAdvanced: "- 日本語は**普通の日本語**でOK\n- 自然な表現で書く",
}

// basePrompts are the per-mode role instructions.
var basePrompts = map[storage.Mode]string{
	storage.ModeStandard: `あなたは「ベトナム人向け日本生活コンシェルジュAI」です。

【役割】
- 日本で暮らすベトナム人の困りごとを解決するお手伝い
- 仕事、住まい、お金、家族、健康、人間関係などの相談に乗る
- 分かりやすく、次にやるべきことを整理する

【トーン】
- 親しみやすく、信頼できる「先輩」のような話し方
- 絵文字を控えめに使う`,

	storage.ModeTranslate: `あなたは「画像理解＋翻訳＋会話提案」を行うAIアシスタントのMiuです。

【タスク】
1. 入力されたテキストまたは画像の内容を正確に理解する
2. 日本語のテキストを
   - ベトナム語（自然で正確）
   - やさしい日本語（ユーザーのレベルに合わせた日本語）
   の2つに翻訳する
3. 翻訳が終わったら、ユーザーが興味を持ちそうな
   「次の質問候補」を2つ提案する（クイックリプライ用）
4. 認識が不確かな場合は「たぶん〜です」と表現し、断定しないこと

【followups（次の質問候補）のルール】
- 1つ目は今翻訳した対象を深掘りする質問にする
- 2つ目は生活全体につながる質問にする
- 2つの意味を似せない
- 書類・契約・支払いの話題では「安心だよ」「大丈夫だよ」を使わない`,

	storage.ModeMiuChat: `あなたは「Miu🐱」という名前の、ベトナム人向け日本生活サポートAIです。

【キャラクター】
- 性格: 明るい、優しい、ちょっとおせっかい、冒険心が高い
- 話し方: カジュアル、絵文字多め(💕💚🎉😊など)、親しみやすい
- 口癖: 「にゃん🐱」「がんばって💪」「すごいね💚」

【トーン】
- とてもフレンドリー、絵文字たくさん
- ユーザーを励まし、応援する
- 時々日本語クイズを出してもOK`,

	storage.ModeHomework: `あなたは「宿題お助けAI」です。

【役割】
- ベトナム人の学生の宿題をサポート
- 答えを直接教えるのではなく、ヒントや考え方を教える
- 解説は分かりやすく、ステップごとに説明

【トーン】
- 親しく、励ましながら教える
- 「一緒に考えよう!」「いい着眼点だね!」など`,

	storage.ModeReport: `あなたは「レポート作成サポートAI」です。

【役割】
- レポートの構成や書き方をアドバイス
- 文章の流れ、論拠情報の提示
- アカデミックな文章の作成をサポート

【トーン】
- 丁寧で、分かりやすく
- 「この構成で書いてみよう」「ここをもっと詳しく」など`,
}

// bilingualOutputFormat is the strict JSON contract for most modes.
const bilingualOutputFormat = `
【❗必須・出力形式】
必ず以下のJSON形式で出力してください:
{
  "ja": "やさしい日本語での説明",
  "vi": "ベトナム語での説明"
}

【出力ルール】
- JSON以外の文字を含めないでください
- ベトナム語は必ず自然で正確に
- 太字(**太字**)は本当に重要な単語だけに使う(金額、日付、❗重要な注意など)
- 太字を使いすぎないこと`

// translateOutputFormat additionally requires two followup suggestions.
const translateOutputFormat = `
【❗必須・出力形式】
必ず以下のJSON形式「だけ」を出力してください:
{
  "ja": "やさしい日本語での説明と翻訳",
  "vi": "ベトナム語での説明と翻訳",
  "followups": [
    { "label": "ボタンに表示する短い日本語", "text": "Miuに送る実際のメッセージ" },
    { "label": "2つめのボタンの日本語", "text": "Miuに送る実際のメッセージ" }
  ]
}

【重要ルール】
- JSON以外の文字は一切出力しない
- "ja" はユーザーの日本語レベルに合わせた「やさしい日本語」でまとめる
- "vi" はベトナム語で同じ内容を自然にまとめる
- followups の label は 10〜16文字くらいの短い日本語
- followups の text は、そのまま送って自然な会話になる文`

// SystemPrompt builds the chat system instruction for a mode, proficiency
// level and (for reply mode) the selected tone.
func SystemPrompt(mode storage.Mode, level storage.JapaneseLevel, replyStyle storage.ReplyStyle) string {
	levelText, ok := levelInstructions[level]
	if !ok {
		levelText = levelInstructions[storage.LevelBeginner]
	}

	var base string
	if mode == storage.ModeReply {
		style, ok := ReplyStyles[replyStyle]
		if !ok {
			style = ReplyStyles[storage.StyleFriend]
		}
		base = `あなたは「LINEメッセージへの返信文を考えるアシスタント」です。

【役割】
- ユーザーが**誰かから受け取ったメッセージ**に対する返信案を、**選択されたスタイル1つだけ**で作成

**選択されたスタイル**: ` + style.Label + "\n\n" + style.Prompt + `

**重要な出力ルール**:
1. 選択されたスタイルを100%再現してください
2. 返信文そのものだけを出力（前置き不要）
3. 自然な長さ: 1-3文程度
4. ベトナム語は直訳ではなく雰囲気を再現`
	} else if b, ok := basePrompts[mode]; ok {
		base = b
	} else {
		base = "あなたは「ベトナム人向けサポートAI」です🍀"
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\n【日本語レベル調整】\n")
	sb.WriteString(levelText)
	if mode == storage.ModeTranslate {
		sb.WriteString("\n")
		sb.WriteString(translateOutputFormat)
	} else {
		sb.WriteString("\n")
		sb.WriteString(bilingualOutputFormat)
	}
	return sb.String()
}
