// Package roster loads the employee directory once and serves lookups from
// memory for the rest of the process lifetime.
package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"peer_review/internal/domain"
)

const (
	ColID   = "Employee ID"
	ColName = "Employee Name"
)

// ParseCSV reads a roster with "Employee ID" and "Employee Name" columns.
// Other columns are ignored; blank IDs are skipped.
func ParseCSV(in io.Reader) ([]domain.Employee, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("roster: empty input")
		}
		return nil, fmt.Errorf("roster: read header: %w", err)
	}
	idCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case strings.ToLower(ColID):
			idCol = i
		case strings.ToLower(ColName):
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("roster: header must contain %q and %q", ColID, ColName)
	}

	var out []domain.Employee
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("roster: %w", err)
		}
		if idCol >= len(row) || nameCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		out = append(out, domain.Employee{ID: id, Name: strings.TrimSpace(row[nameCol])})
	}
}

// FileSource reads the roster from a local CSV file.
type FileSource struct{ Path string }

func (f FileSource) FetchRoster(ctx context.Context) ([]domain.Employee, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	defer fh.Close()
	return ParseCSV(fh)
}

// Directory is an immutable, in-memory employee directory.
type Directory struct {
	list []domain.Employee
	byID map[string]domain.Employee
}

var _ domain.Directory = (*Directory)(nil)

func NewDirectory(emps []domain.Employee) *Directory {
	d := &Directory{byID: make(map[string]domain.Employee, len(emps))}
	for _, e := range emps {
		if _, dup := d.byID[e.ID]; dup {
			continue
		}
		d.byID[e.ID] = e
		d.list = append(d.list, e)
	}
	return d
}

// Load fetches the roster once. The result is never refreshed.
func Load(ctx context.Context, src domain.RosterSource) (*Directory, error) {
	emps, err := src.FetchRoster(ctx)
	if err != nil {
		return nil, err
	}
	return NewDirectory(emps), nil
}

func (d *Directory) All() []domain.Employee {
	return append([]domain.Employee(nil), d.list...)
}

func (d *Directory) Len() int { return len(d.list) }

// Search matches query case-insensitively against names and as a substring of
// IDs. An empty query returns the whole roster in roster order.
func (d *Directory) Search(query string) []domain.Employee {
	q := strings.TrimSpace(query)
	if q == "" {
		return d.All()
	}
	lq := strings.ToLower(q)
	var out []domain.Employee
	for _, e := range d.list {
		if strings.Contains(strings.ToLower(e.Name), lq) || strings.Contains(e.ID, q) {
			out = append(out, e)
		}
	}
	return out
}

func (d *Directory) Lookup(id string) (domain.Employee, bool) {
	e, ok := d.byID[strings.TrimSpace(id)]
	return e, ok
}
