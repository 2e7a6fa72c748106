package domain

import "time"

// User is a registered bot user. Created once when the registration
// questionnaire completes; immutable afterwards.
type User struct {
	TelegramID int64
	Surname    string
	Name       string
	Patronymic string
	CreatedAt  time.Time // UTC
}

// Stats holds per-user query validation counters. One row per user,
// created zeroed together with the user.
type Stats struct {
	TelegramID int64
	Correct    int
	Incorrect  int
}

// ScheduleEntry records a user's desired statistics notification cadence.
// At most one entry per user.
type ScheduleEntry struct {
	TelegramID      int64
	IntervalMinutes int
}
