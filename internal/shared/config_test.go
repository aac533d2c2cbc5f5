package shared

import (
	"testing"
	"time"

	"peer_review/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("REVIEW_CATEGORIES", "")
	t.Setenv("SUBMISSION_CAP", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("SESSION_TTL_SECONDS", "")
	c := Load()
	if c.SubmissionCap != 10 {
		t.Fatalf("cap: %d", c.SubmissionCap)
	}
	if len(c.Categories) != len(domain.DefaultCategories) || c.Categories[5] != "Leadership (Optional)" {
		t.Fatalf("categories: %v", c.Categories)
	}
	if c.StoreBackend != "csv" || c.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REVIEW_CATEGORIES", " Speed, Quality ,Speed,")
	t.Setenv("SUBMISSION_CAP", "3")
	t.Setenv("STORE_BACKEND", "MySQL")
	c := Load()
	if len(c.Categories) != 2 || c.Categories[0] != "Speed" || c.Categories[1] != "Quality" {
		t.Fatalf("categories: %v", c.Categories)
	}
	if c.SubmissionCap != 3 || c.StoreBackend != "mysql" {
		t.Fatalf("unexpected: %+v", c)
	}
}

func TestLoad_RejectsReservedCategoryNames(t *testing.T) {
	t.Setenv("REVIEW_CATEGORIES", "id,Speed, comment ,session_token,timestamp_formatted")
	c := Load()
	if len(c.Categories) != 1 || c.Categories[0] != "Speed" {
		t.Fatalf("categories: %v", c.Categories)
	}

	t.Setenv("REVIEW_CATEGORIES", "employee_name,timestamp")
	if c := Load(); len(c.Categories) != len(domain.DefaultCategories) {
		t.Fatalf("all reserved should fall back to defaults, got %v", c.Categories)
	}
}
