package lineutil

import (
	"math"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// FlexBubble wrapper
type FlexBubble struct {
	*messaging_api.FlexBubble
}

// NewFlexBubble creates a Flex Bubble container. header, body and footer may
// be nil.
func NewFlexBubble(header *FlexBox, hero messaging_api.FlexComponentInterface, body *FlexBox, footer *FlexBox) *FlexBubble {
	bubble := &messaging_api.FlexBubble{}
	if header != nil {
		bubble.Header = header.FlexBox
	}
	if hero != nil {
		bubble.Hero = hero
	}
	if body != nil {
		bubble.Body = body.FlexBox
	}
	if footer != nil {
		bubble.Footer = footer.FlexBox
	}
	return &FlexBubble{bubble}
}

// NewFlexCarousel creates a Flex Carousel from a slice of bubbles. Bubbles
// beyond the LINE limit are dropped.
func NewFlexCarousel(bubbles []messaging_api.FlexBubble) *messaging_api.FlexCarousel {
	if len(bubbles) > MaxFlexCarouselBubbleCount {
		bubbles = bubbles[:MaxFlexCarouselBubbleCount]
	}
	return &messaging_api.FlexCarousel{
		Contents: bubbles,
	}
}

// FlexBox wrapper for messaging_api.FlexBox with fluent API.
type FlexBox struct {
	*messaging_api.FlexBox
}

// NewFlexBox creates a new FlexBox with the specified layout and contents.
func NewFlexBox(layout string, contents ...messaging_api.FlexComponentInterface) *FlexBox {
	return &FlexBox{&messaging_api.FlexBox{
		Layout:   messaging_api.FlexBoxLAYOUT(layout),
		Contents: contents,
	}}
}

// WithSpacing sets the spacing between components.
func (b *FlexBox) WithSpacing(spacing string) *FlexBox {
	b.Spacing = spacing
	return b
}

// WithMargin sets the margin of the box.
func (b *FlexBox) WithMargin(margin string) *FlexBox {
	b.Margin = margin
	return b
}

// WithPaddingBottom sets the bottom padding of the box.
func (b *FlexBox) WithPaddingBottom(padding string) *FlexBox {
	b.PaddingBottom = padding
	return b
}

// WithPaddingAll sets the padding for all sides of the box.
func (b *FlexBox) WithPaddingAll(padding string) *FlexBox {
	b.PaddingAll = padding
	return b
}

// WithBackgroundColor sets the background color of the box.
func (b *FlexBox) WithBackgroundColor(color string) *FlexBox {
	b.BackgroundColor = color
	return b
}

// WithCornerRadius sets the corner radius of the box.
func (b *FlexBox) WithCornerRadius(radius string) *FlexBox {
	b.CornerRadius = radius
	return b
}

// FlexText wrapper for messaging_api.FlexText with fluent API.
type FlexText struct {
	*messaging_api.FlexText
}

// NewFlexText creates a new FlexText with the specified text.
func NewFlexText(text string) *FlexText {
	return &FlexText{&messaging_api.FlexText{
		Text: text,
	}}
}

// NewFlexTextSpans creates a FlexText composed of styled spans. Used for
// mixed-weight lines, e.g. a bold Japanese sentence followed by plain
// Vietnamese.
func NewFlexTextSpans(spans ...messaging_api.FlexSpan) *FlexText {
	return &FlexText{&messaging_api.FlexText{
		Contents: spans,
	}}
}

// NewFlexSpan creates a span for use in NewFlexTextSpans.
func NewFlexSpan(text, weight, color string) messaging_api.FlexSpan {
	span := messaging_api.FlexSpan{Text: text}
	if weight != "" {
		span.Weight = messaging_api.FlexSpanWEIGHT(weight)
	}
	if color != "" {
		span.Color = color
	}
	return span
}

// WithWeight sets the font weight (regular/bold).
func (t *FlexText) WithWeight(weight string) *FlexText {
	t.Weight = messaging_api.FlexTextWEIGHT(weight)
	return t
}

// WithSize sets the font size.
func (t *FlexText) WithSize(size string) *FlexText {
	t.Size = size
	return t
}

// WithColor sets the text color.
func (t *FlexText) WithColor(color string) *FlexText {
	t.Color = color
	return t
}

// WithWrap enables or disables text wrapping.
func (t *FlexText) WithWrap(wrap bool) *FlexText {
	t.Wrap = wrap
	return t
}

// WithFlex sets the flex factor for the text component.
func (t *FlexText) WithFlex(flex int) *FlexText {
	if flex < 0 {
		flex = 0
	}
	if flex > math.MaxInt32 {
		flex = math.MaxInt32
	}
	t.Flex = int32(flex)
	return t
}

// WithAlign sets the text alignment (start/end/center).
func (t *FlexText) WithAlign(align string) *FlexText {
	t.Align = messaging_api.FlexTextALIGN(align)
	return t
}

// WithMargin sets the margin of the text component.
func (t *FlexText) WithMargin(margin string) *FlexText {
	t.Margin = margin
	return t
}

// WithLineSpacing sets the spacing between lines.
func (t *FlexText) WithLineSpacing(spacing string) *FlexText {
	t.LineSpacing = spacing
	return t
}

// FlexButton wrapper for messaging_api.FlexButton with fluent API.
type FlexButton struct {
	*messaging_api.FlexButton
}

// NewFlexButton creates a new FlexButton with the specified action.
func NewFlexButton(action messaging_api.ActionInterface) *FlexButton {
	return &FlexButton{&messaging_api.FlexButton{
		Action: action,
	}}
}

// WithStyle sets the button style (link/primary/secondary).
func (b *FlexButton) WithStyle(style string) *FlexButton {
	b.Style = messaging_api.FlexButtonSTYLE(style)
	return b
}

// WithColor sets the button color.
func (b *FlexButton) WithColor(color string) *FlexButton {
	b.Color = color
	return b
}

// WithHeight sets the button height (sm/md).
func (b *FlexButton) WithHeight(height string) *FlexButton {
	b.Height = messaging_api.FlexButtonHEIGHT(height)
	return b
}

// WithMargin sets the margin of the button.
func (b *FlexButton) WithMargin(margin string) *FlexButton {
	b.Margin = margin
	return b
}

// FlexSeparator wrapper for messaging_api.FlexSeparator.
type FlexSeparator struct {
	*messaging_api.FlexSeparator
}

// NewFlexSeparator creates a new FlexSeparator.
func NewFlexSeparator() *FlexSeparator {
	return &FlexSeparator{&messaging_api.FlexSeparator{}}
}

// WithMargin sets the margin of the separator.
func (s *FlexSeparator) WithMargin(margin string) *FlexSeparator {
	s.Margin = margin
	return s
}

// TruncateRunes truncates text by rune count (not byte count) to properly
// handle multi-byte text. Appends "..." when the text was cut.
func TruncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// NewHeroBox creates a hero box with the LINE green background, a bold white
// title and an optional subtitle.
func NewHeroBox(title, subtitle string) *FlexBox {
	contents := []messaging_api.FlexComponentInterface{
		NewFlexText(title).WithWeight("bold").WithSize("xl").WithColor(ColorHeroText).WithWrap(true).WithLineSpacing(LineSpacingLarge).FlexText,
	}
	// LINE API rejects empty text components.
	if subtitle != "" {
		contents = append(contents, NewFlexText(subtitle).WithSize("xs").WithColor(ColorHeroText).WithMargin("md").WithWrap(true).FlexText)
	}
	box := NewFlexBox("vertical", contents...)
	box.BackgroundColor = ColorHeroBg
	box.PaddingAll = SpacingXXL
	box.PaddingBottom = SpacingXL
	return box
}

// NewButtonRow creates a horizontal box of buttons with equal width
// distribution.
func NewButtonRow(buttons ...*FlexButton) *FlexBox {
	contents := make([]messaging_api.FlexComponentInterface, 0, len(buttons))
	for _, btn := range buttons {
		if btn != nil {
			btnBox := NewFlexBox("vertical", btn.FlexButton)
			btnBox.Flex = 1
			contents = append(contents, btnBox.FlexBox)
		}
	}
	return NewFlexBox("horizontal", contents...).WithSpacing("sm")
}
