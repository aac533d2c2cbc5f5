package domain_test

import (
	"errors"
	"testing"
	"time"

	"peer_review/internal/domain"
)

func fullRatings(v int) map[string]int {
	m := map[string]int{}
	for _, c := range domain.DefaultCategories {
		m[c] = v
	}
	return m
}

func TestNewReviewRecord_Valid(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	emp := domain.Employee{ID: "7", Name: "Ana"}
	r, err := domain.NewReviewRecord(domain.DefaultCategories, "id-1", now, emp, "ABC123", fullRatings(4), "  Great teammate \n")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if r.Comment != "Great teammate" {
		t.Fatalf("comment not trimmed: %q", r.Comment)
	}
	if r.EmployeeID != "7" || r.EmployeeName != "Ana" || r.SessionToken != "ABC123" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if got := r.Overall(domain.DefaultCategories); got != 4.0 {
		t.Fatalf("overall: %v", got)
	}
}

func TestNewReviewRecord_Rejects(t *testing.T) {
	emp := domain.Employee{ID: "7", Name: "Ana"}
	missing := fullRatings(3)
	delete(missing, "Initiative")
	outOfRange := fullRatings(3)
	outOfRange["Behavior"] = 6
	zero := fullRatings(3)
	zero["Communication"] = 0
	extra := fullRatings(3)
	extra["Punctuality"] = 3

	cases := map[string]struct {
		emp     domain.Employee
		ratings map[string]int
	}{
		"missing category": {emp, missing},
		"above max":        {emp, outOfRange},
		"below min":        {emp, zero},
		"unknown category": {emp, extra},
		"no employee":      {domain.Employee{}, fullRatings(3)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := domain.NewReviewRecord(domain.DefaultCategories, "id", time.Now(), tc.emp, "", tc.ratings, "")
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestEmployeeDisplay(t *testing.T) {
	if got := (domain.Employee{ID: "7", Name: "Ana"}).Display(); got != "7 - Ana" {
		t.Fatalf("display: %q", got)
	}
}
