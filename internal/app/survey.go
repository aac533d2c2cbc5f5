package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"peer_review/internal/adapters/observability"
	"peer_review/internal/domain"
)

// Settings are fixed at startup and shared by the survey and admin services.
type Settings struct {
	Categories    domain.CategorySet
	SubmissionCap int
}

type SubmitRequest struct {
	EmployeeID string         `json:"employee_id"`
	Ratings    map[string]int `json:"ratings"`
	Comment    string         `json:"comment"`
}

type SurveyService struct {
	store    domain.ReviewStore
	sessions domain.SessionStore
	dir      domain.Directory
	cats     domain.CategorySet
	cap      int

	now   func() time.Time
	newID func() string
}

func NewSurveyService(store domain.ReviewStore, sessions domain.SessionStore, dir domain.Directory, s Settings) *SurveyService {
	if s.SubmissionCap <= 0 {
		s.SubmissionCap = DefaultSubmissionCap
	}
	if len(s.Categories) == 0 {
		s.Categories = domain.DefaultCategories
	}
	return &SurveyService{
		store:    store,
		sessions: sessions,
		dir:      dir,
		cats:     s.Categories,
		cap:      s.SubmissionCap,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Start issues or recovers the session token and reports the remaining quota.
// When the quota is used up the state is still returned alongside
// ErrThrottleExceeded.
func (s *SurveyService) Start(ctx context.Context, sessionID string) (domain.SurveyState, error) {
	tok, err := s.sessions.GetOrCreateToken(ctx, sessionID)
	if err != nil {
		return domain.SurveyState{}, fmt.Errorf("session token: %w", err)
	}
	n, err := countPersisted(ctx, s.store, tok)
	if err != nil {
		return domain.SurveyState{}, err
	}
	st := domain.SurveyState{
		Token:         tok,
		Submitted:     n,
		Cap:           s.cap,
		Remaining:     max(s.cap-n, 0),
		Categories:    s.cats,
		DefaultRating: domain.DefaultRating,
	}
	if n >= s.cap {
		observability.ObserveSurvey("throttled")
		return st, fmt.Errorf("%w: %d of %d reviews used", domain.ErrThrottleExceeded, n, s.cap)
	}
	return st, nil
}

// SearchEmployees returns the candidates for query. No match is a
// validation error so the caller re-prompts.
func (s *SurveyService) SearchEmployees(query string) ([]domain.Employee, error) {
	out := s.dir.Search(query)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no employees found for this search", domain.ErrValidation)
	}
	return out, nil
}

// Submit validates and appends one review. The throttle is checked again
// against persisted state so a stale form cannot exceed the cap.
func (s *SurveyService) Submit(ctx context.Context, sessionID string, req SubmitRequest) (domain.ReviewRecord, error) {
	st, err := s.Start(ctx, sessionID)
	if err != nil {
		return domain.ReviewRecord{}, err
	}
	empID := strings.TrimSpace(req.EmployeeID)
	if empID == "" {
		return domain.ReviewRecord{}, fmt.Errorf("%w: no employee selected", domain.ErrValidation)
	}
	emp, ok := s.dir.Lookup(empID)
	if !ok {
		return domain.ReviewRecord{}, fmt.Errorf("%w: unknown employee %q", domain.ErrValidation, empID)
	}
	rec, err := domain.NewReviewRecord(s.cats, s.newID(), s.now(), emp, st.Token, req.Ratings, req.Comment)
	if err != nil {
		return domain.ReviewRecord{}, err
	}
	if err := s.store.Append(ctx, rec); err != nil {
		return domain.ReviewRecord{}, err
	}
	observability.ObserveSurvey("submitted")
	return rec, nil
}

func (s *SurveyService) Categories() domain.CategorySet { return s.cats }
