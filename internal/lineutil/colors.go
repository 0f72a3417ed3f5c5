package lineutil

// Spacing values follow a 4-point grid for consistent visual rhythm.
const (
	SpacingNone = "none"
	SpacingXS   = "4px"
	SpacingS    = "8px"
	SpacingM    = "12px"
	SpacingL    = "16px"
	SpacingXL   = "20px"
	SpacingXXL  = "24px"

	LineSpacingNormal = "6px"
	LineSpacingLarge  = "8px"
)

// Colors follow LINE's design guidelines (minimum 3.0:1 contrast for text).
// Reference: https://designsystem.line.me/LDSM/foundation/color/line-color-guide-ex-en
const (
	ColorLineGreen = "#06C755" // LINE Green, primary brand color

	ColorWhite     = "#FFFFFF"
	ColorGray300   = "#DFDFDF" // Separator, divider
	ColorGray500   = "#949494" // Label text
	ColorGray600   = "#777777" // Secondary text
	ColorGray900   = "#111111" // Primary text
	ColorBlue500   = "#638DFF" // Secondary actions, links
	ColorRed400    = "#FF334B" // Errors, warnings
	ColorAmber     = "#FFB400" // Upsell accents

	// Semantic aliases
	ColorPrimary   = ColorLineGreen
	ColorSecondary = ColorBlue500
	ColorDanger    = ColorRed400

	ColorText      = ColorGray900
	ColorLabel     = "#666666"
	ColorSubtext   = ColorGray600
	ColorSeparator = ColorGray300

	ColorHeroBg   = ColorLineGreen
	ColorHeroText = ColorWhite
)
