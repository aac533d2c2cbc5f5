package domain

import "context"

// ReviewStore is an append-only log of review records.
type ReviewStore interface {
	InitializeIfAbsent(ctx context.Context) error
	Append(ctx context.Context, r ReviewRecord) error
	LoadAll(ctx context.Context) ([]ReviewRecord, error)
}

// TokenCounter is implemented by stores that can count a token's rows without
// loading the whole log.
type TokenCounter interface {
	CountByToken(ctx context.Context, token string) (int, error)
}

// SessionStore binds one throttling token to each interactive session.
type SessionStore interface {
	GetOrCreateToken(ctx context.Context, sessionID string) (string, error)
}

type Directory interface {
	All() []Employee
	Search(query string) []Employee
	Lookup(id string) (Employee, bool)
}

type RosterSource interface {
	FetchRoster(ctx context.Context) ([]Employee, error)
}

// Read models

type ReviewRow struct {
	ReviewRecord
	TimestampFormatted string `json:"timestamp_formatted"`
}

type EmployeeStats struct {
	Employee      string             `json:"employee"`
	CategoryMeans map[string]float64 `json:"category_means"`
	TotalScore    float64            `json:"total_score"`
	Reviews       int                `json:"reviews"`
}

type SurveyState struct {
	Token         string      `json:"session_token"`
	Submitted     int         `json:"submitted"`
	Cap           int         `json:"cap"`
	Remaining     int         `json:"remaining"`
	Categories    CategorySet `json:"categories"`
	DefaultRating int         `json:"default_rating"`
}
