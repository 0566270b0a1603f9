package constants

import "time"

const (
	// Settings keys (config.yaml)
	SettingTimezone        = "timezone"
	SettingPlanningOpens   = "planning.opens"
	SettingReviewOpens     = "review.opens"
	SettingReviewCloses    = "review.closes"
	SettingProgressBackend = "progress.backend"
	SettingProgressDir     = "progress.dir"

	SettingNotificationsEnabled = "notifications.enabled"

	// Default Settings Values
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultPlanningOpensDay     = time.Sunday
	DefaultPlanningOpensTime    = "18:00"
	DefaultReviewOpensDay       = time.Friday
	DefaultReviewOpensTime      = "18:00"
	DefaultReviewClosesDay      = time.Sunday
	DefaultReviewClosesTime     = "23:59"
	DefaultProgressBackend      = ProgressBackendDB
	DefaultNotificationsEnabled = true
)
