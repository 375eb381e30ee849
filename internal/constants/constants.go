package constants

import "time"

const (
	// Slot granularity for the booking calendar.
	SlotIntervalMinutes = 5

	// Boathouse operating hours.
	DayStartHour = 6
	DayEndHour   = 22

	// XP credited for a completed outing.
	OutingXP = 50
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// Inactivity window before point decay applies.
	DecayThresholdMonths = 3

	// Only the top N leaderboard ranks are recomputed per refresh;
	// ranks outside the window go stale until a member re-enters it.
	LeaderboardSize = 100
)
