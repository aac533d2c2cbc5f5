package app

import (
	"bytes"
	"context"
	"crypto/subtle"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"peer_review/internal/adapters/observability"
	"peer_review/internal/domain"
	"peer_review/internal/storage/csvstore"
)

const (
	ExportFilename    = "peer_reviews.csv"
	ExportContentType = "text/csv"
)

type Credentials struct {
	Username     string
	PasswordHash string // bcrypt
}

type AdminService struct {
	store domain.ReviewStore
	cats  domain.CategorySet
	user  []byte
	hash  []byte
}

func NewAdminService(store domain.ReviewStore, creds Credentials, s Settings) *AdminService {
	if len(s.Categories) == 0 {
		s.Categories = domain.DefaultCategories
	}
	return &AdminService{
		store: store,
		cats:  s.Categories,
		user:  []byte(creds.Username),
		hash:  []byte(creds.PasswordHash),
	}
}

// Authenticate checks both fields on every call so a wrong username costs the
// same bcrypt comparison as a wrong password.
func (s *AdminService) Authenticate(username, password string) bool {
	if len(s.user) == 0 || len(s.hash) == 0 || password == "" {
		observability.ObserveSurvey("auth_failed")
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), s.user) == 1
	pwOK := bcrypt.CompareHashAndPassword(s.hash, []byte(password)) == nil
	if userOK && pwOK {
		observability.ObserveSurvey("auth_ok")
		return true
	}
	observability.ObserveSurvey("auth_failed")
	return false
}

// Reviews returns the table rows, optionally limited to the given employee names.
func (s *AdminService) Reviews(ctx context.Context, names []string) ([]domain.ReviewRow, error) {
	recs, err := s.filtered(ctx, names)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReviewRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.ReviewRow{
			ReviewRecord:       r,
			TimestampFormatted: r.Timestamp.Format(csvstore.FormattedLayout),
		})
	}
	return out, nil
}

func (s *AdminService) Summary(ctx context.Context, names []string) ([]domain.EmployeeStats, error) {
	recs, err := s.filtered(ctx, names)
	if err != nil {
		return nil, err
	}
	return Aggregate(s.cats, recs), nil
}

// EmployeeNames lists the distinct reviewed names in first-seen order.
func (s *AdminService) EmployeeNames(ctx context.Context) ([]string, error) {
	recs, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, r := range recs {
		if !seen[r.EmployeeName] {
			seen[r.EmployeeName] = true
			out = append(out, r.EmployeeName)
		}
	}
	return out, nil
}

// Export renders the (optionally filtered) store as CSV.
func (s *AdminService) Export(ctx context.Context, names []string) ([]byte, error) {
	recs, err := s.filtered(ctx, names)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := csvstore.Export(&buf, s.cats, recs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *AdminService) filtered(ctx context.Context, names []string) ([]domain.ReviewRecord, error) {
	recs, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByEmployee(recs, names), nil
}

// FilterByEmployee keeps records whose employee name is in names; no names
// keeps everything.
func FilterByEmployee(recs []domain.ReviewRecord, names []string) []domain.ReviewRecord {
	if len(names) == 0 {
		return recs
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []domain.ReviewRecord
	for _, r := range recs {
		if want[r.EmployeeName] {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate groups records by employee name and computes per-category means.
// TotalScore is the unweighted mean of the category means. Results are sorted
// by TotalScore descending; ties keep first-seen order.
func Aggregate(cats domain.CategorySet, recs []domain.ReviewRecord) []domain.EmployeeStats {
	type acc struct {
		sums map[string]int
		n    int
	}
	var order []string
	groups := map[string]*acc{}
	for _, r := range recs {
		g, ok := groups[r.EmployeeName]
		if !ok {
			g = &acc{sums: make(map[string]int, len(cats))}
			groups[r.EmployeeName] = g
			order = append(order, r.EmployeeName)
		}
		for _, c := range cats {
			g.sums[c] += r.Ratings[c]
		}
		g.n++
	}

	out := make([]domain.EmployeeStats, 0, len(order))
	for _, name := range order {
		g := groups[name]
		st := domain.EmployeeStats{Employee: name, CategoryMeans: make(map[string]float64, len(cats)), Reviews: g.n}
		var total float64
		for _, c := range cats {
			m := float64(g.sums[c]) / float64(g.n)
			st.CategoryMeans[c] = m
			total += m
		}
		if len(cats) > 0 {
			st.TotalScore = total / float64(len(cats))
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	return out
}
