package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 3
)

// DefaultCategories is the category set used when none is configured.
var DefaultCategories = CategorySet{
	"Behavior",
	"Communication",
	"Technical Knowledge",
	"Team Contribution",
	"Initiative",
	"Leadership (Optional)",
}

// CategorySet is the fixed, ordered list of rating categories.
type CategorySet []string

func (c CategorySet) Contains(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

type ReviewRecord struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	EmployeeID   string         `json:"employee_id"`
	EmployeeName string         `json:"employee_name"`
	SessionToken string         `json:"session_token,omitempty"` // empty on legacy, non-throttled rows
	Ratings      map[string]int `json:"ratings"`
	Comment      string         `json:"comment"`
}

// NewReviewRecord builds a record and checks that every category of cats has a
// rating in [MinRating, MaxRating] and that no rating falls outside cats.
func NewReviewRecord(cats CategorySet, id string, now time.Time, emp Employee, token string, ratings map[string]int, comment string) (ReviewRecord, error) {
	if id == "" {
		return ReviewRecord{}, fmt.Errorf("%w: review id is required", ErrValidation)
	}
	if emp.ID == "" {
		return ReviewRecord{}, fmt.Errorf("%w: no employee selected", ErrValidation)
	}
	if err := ValidateRatings(cats, ratings); err != nil {
		return ReviewRecord{}, err
	}
	rs := make(map[string]int, len(cats))
	for _, c := range cats {
		rs[c] = ratings[c]
	}
	return ReviewRecord{
		ID:           id,
		Timestamp:    now,
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		SessionToken: token,
		Ratings:      rs,
		Comment:      strings.TrimSpace(comment),
	}, nil
}

func ValidateRatings(cats CategorySet, ratings map[string]int) error {
	for _, c := range cats {
		v, ok := ratings[c]
		if !ok {
			return fmt.Errorf("%w: missing rating for %q", ErrValidation, c)
		}
		if v < MinRating || v > MaxRating {
			return fmt.Errorf("%w: rating for %q must be between %d and %d, got %d", ErrValidation, c, MinRating, MaxRating, v)
		}
	}
	for k := range ratings {
		if !cats.Contains(k) {
			return fmt.Errorf("%w: unknown category %q", ErrValidation, k)
		}
	}
	return nil
}

// Overall is the unweighted mean of the record's category ratings.
func (r ReviewRecord) Overall(cats CategorySet) float64 {
	if len(cats) == 0 {
		return 0
	}
	sum := 0
	for _, c := range cats {
		sum += r.Ratings[c]
	}
	return float64(sum) / float64(len(cats))
}
