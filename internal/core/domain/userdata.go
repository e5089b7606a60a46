package domain

import "time"

// Auxiliary per-user documents. Each is keyed by the owning user's id and
// created with defaults on first login; EnsureUserData self-heals accounts
// created before a given document type existed.

// UserSettings holds account-level preferences.
type UserSettings struct {
	UserID               string `json:"user_id" bson:"_id"`
	NotificationsEnabled bool   `json:"notifications_enabled" bson:"notifications_enabled"`
	ReminderHour         int    `json:"reminder_hour" bson:"reminder_hour"`
	Timezone             string `json:"timezone" bson:"timezone"`
}

// ContentPreferences holds feed personalisation choices.
type ContentPreferences struct {
	UserID   string   `json:"user_id" bson:"_id"`
	Topics   []string `json:"topics" bson:"topics"`
	Language string   `json:"language" bson:"language"`
}

// UserContext tracks where the user is in the product lifecycle.
type UserContext struct {
	UserID         string    `json:"user_id" bson:"_id"`
	OnboardingStep string    `json:"onboarding_step" bson:"onboarding_step"`
	LastSeenAt     time.Time `json:"last_seen_at" bson:"last_seen_at"`
}

// UserRewards accumulates engagement points and streaks.
type UserRewards struct {
	UserID     string `json:"user_id" bson:"_id"`
	Points     int    `json:"points" bson:"points"`
	StreakDays int    `json:"streak_days" bson:"streak_days"`
}

// DefaultSettings returns the settings document created for a new account.
func DefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:               userID,
		NotificationsEnabled: true,
		ReminderHour:         9,
		Timezone:             "UTC",
	}
}

// DefaultContentPreferences returns the preferences document for a new account.
func DefaultContentPreferences(userID string) *ContentPreferences {
	return &ContentPreferences{
		UserID:   userID,
		Topics:   []string{},
		Language: "en",
	}
}

// DefaultUserContext returns the context document for a new account.
func DefaultUserContext(userID string) *UserContext {
	return &UserContext{
		UserID:         userID,
		OnboardingStep: "welcome",
		LastSeenAt:     time.Now().UTC(),
	}
}

// DefaultRewards returns the rewards document for a new account.
func DefaultRewards(userID string) *UserRewards {
	return &UserRewards{UserID: userID}
}
