package storage

import "time"

// Plan is the user's subscription tier.
type Plan string

// Subscription tiers.
const (
	PlanFree    Plan = "free"
	PlanTrial   Plan = "trial"
	PlanPremium Plan = "premium"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanTrial, PlanPremium:
		return true
	}
	return false
}

// Mode is the user's active conversational behavior profile.
type Mode string

// Conversation modes.
const (
	ModeStandard   Mode = "standard"
	ModeTranslate  Mode = "translate"
	ModeMiuChat    Mode = "miu_chat"
	ModeReply      Mode = "reply"
	ModeHomework   Mode = "homework"
	ModeReport     Mode = "report"
	ModeImageAnime Mode = "image_anime"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeStandard, ModeTranslate, ModeMiuChat, ModeReply, ModeHomework, ModeReport, ModeImageAnime:
		return true
	}
	return false
}

// JapaneseLevel is the user's self-assessed Japanese proficiency.
// The empty value means onboarding is incomplete; it maps to NULL in the
// store and gates all content processing until set.
type JapaneseLevel string

// Proficiency levels.
const (
	LevelBeginner JapaneseLevel = "beginner"
	LevelMiddle   JapaneseLevel = "middle"
	LevelAdvanced JapaneseLevel = "advanced"
)

// Valid reports whether l is a known level.
func (l JapaneseLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelMiddle, LevelAdvanced:
		return true
	}
	return false
}

// IsSet reports whether onboarding has completed.
func (l JapaneseLevel) IsSet() bool { return l != "" }

// ReplyStyle is the tone used in reply-drafting mode.
type ReplyStyle string

// Reply-drafting tones.
const (
	StyleBestFriend ReplyStyle = "best_friend"
	StyleFriend     ReplyStyle = "friend"
	StyleSenior     ReplyStyle = "senior"
	StyleNinja      ReplyStyle = "ninja"
	StylePirate     ReplyStyle = "pirate"
)

// Valid reports whether s is a known reply style.
func (s ReplyStyle) Valid() bool {
	switch s {
	case StyleBestFriend, StyleFriend, StyleSenior, StyleNinja, StylePirate:
		return true
	}
	return false
}

// ImageSize is the output aspect for generated images.
// The empty value means not yet selected (NULL in the store).
type ImageSize string

// Generated image aspects.
const (
	SizeSquare    ImageSize = "square"
	SizeLandscape ImageSize = "landscape"
	SizePortrait  ImageSize = "portrait"
)

// Valid reports whether s is a known size.
func (s ImageSize) Valid() bool {
	switch s {
	case SizeSquare, SizeLandscape, SizePortrait:
		return true
	}
	return false
}

// IsSet reports whether a size has been selected.
func (s ImageSize) IsSet() bool { return s != "" }

// HistoryEntry is one conversation turn.
type HistoryEntry struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// History entry roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User is the per-user bot state, one row per LINE user id.
//
// Optional fields use the empty value as "unset"; the repository maps them
// to NULL columns. No other sentinel is ever stored.
type User struct {
	ID          string
	DisplayName string

	Plan          Plan
	TodayCount    int
	VisionCount   int
	LastResetDate string // YYYY-MM-DD in JST

	Mode          Mode
	JapaneseLevel JapaneseLevel // empty until onboarding completes
	ReplyStyle    ReplyStyle
	AnimeStyle    string    // catalog key, empty = unselected
	ImageSize     ImageSize // empty = unselected

	PendingImageID string    // buffer file id, empty = none
	PendingImageAt time.Time // zero = none

	History []HistoryEntry

	StripeCustomerID string
	SubscriptionID   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPendingImage reports whether a buffered image is waiting for a
// style/size selection and is still fresh enough to use.
func (u *User) HasPendingImage(maxAge time.Duration) bool {
	if u.PendingImageID == "" || u.PendingImageAt.IsZero() {
		return false
	}
	return time.Since(u.PendingImageAt) <= maxAge
}
