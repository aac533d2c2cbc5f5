package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"peer_review/internal/domain"
)

const (
	colID           = "id"
	colTimestamp    = "timestamp"
	colEmployeeID   = "employee_id"
	colEmployeeName = "employee_name"
	colSessionToken = "session_token"
	colComment      = "comment"
	colFormatted    = "timestamp_formatted"

	// FormattedLayout is the admin table timestamp format.
	FormattedLayout = "2006-01-02 15:04"
)

// accepted on read; rows written by this package always use RFC3339Nano
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	FormattedLayout,
}

// Header returns the store schema for the given categories.
func Header(cats domain.CategorySet) []string {
	h := []string{colID, colTimestamp, colEmployeeID, colEmployeeName, colSessionToken}
	h = append(h, cats...)
	return append(h, colComment)
}

// Reserved reports whether name is a fixed column of the store or export
// schema and therefore cannot be used as a category.
func Reserved(name string) bool {
	switch strings.TrimSpace(name) {
	case colID, colTimestamp, colEmployeeID, colEmployeeName, colSessionToken, colComment, colFormatted:
		return true
	}
	return false
}

type columns map[string]int

func indexHeader(h []string) columns {
	idx := make(columns, len(h))
	for i, name := range h {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

func (c columns) get(row []string, name string) string {
	if i, ok := c[name]; ok && i < len(row) {
		return row[i]
	}
	return ""
}

// check verifies that a header can hold every field of cats.
func (c columns) check(cats domain.CategorySet) error {
	for _, name := range append([]string{colID, colTimestamp, colEmployeeID, colEmployeeName}, cats...) {
		if _, ok := c[name]; !ok {
			return fmt.Errorf("header is missing column %q", name)
		}
	}
	return nil
}

// encode lays r out in header order. Columns the header does not know are
// rejected rather than silently dropped.
func encode(header []string, c columns, cats domain.CategorySet, r domain.ReviewRecord) ([]string, error) {
	if r.SessionToken != "" {
		if _, ok := c[colSessionToken]; !ok {
			return nil, errors.New("header has no session_token column")
		}
	}
	if r.Comment != "" {
		if _, ok := c[colComment]; !ok {
			return nil, errors.New("header has no comment column")
		}
	}
	if err := c.check(cats); err != nil {
		return nil, err
	}
	row := make([]string, len(header))
	row[c[colID]] = r.ID
	row[c[colTimestamp]] = r.Timestamp.Format(time.RFC3339Nano)
	row[c[colEmployeeID]] = r.EmployeeID
	row[c[colEmployeeName]] = r.EmployeeName
	if i, ok := c[colSessionToken]; ok {
		row[i] = r.SessionToken
	}
	for _, cat := range cats {
		row[c[cat]] = strconv.Itoa(r.Ratings[cat])
	}
	if i, ok := c[colComment]; ok {
		row[i] = r.Comment
	}
	if i, ok := c[colFormatted]; ok {
		row[i] = r.Timestamp.Format(FormattedLayout)
	}
	return row, nil
}

func decode(c columns, cats domain.CategorySet, row []string) (domain.ReviewRecord, error) {
	r := domain.ReviewRecord{
		ID:           c.get(row, colID),
		EmployeeID:   c.get(row, colEmployeeID),
		EmployeeName: c.get(row, colEmployeeName),
		SessionToken: c.get(row, colSessionToken),
		Comment:      c.get(row, colComment),
		Ratings:      make(map[string]int, len(cats)),
	}
	ts, err := parseTimestamp(c.get(row, colTimestamp))
	if err != nil {
		return domain.ReviewRecord{}, err
	}
	r.Timestamp = ts
	for _, cat := range cats {
		v, err := parseRating(c.get(row, cat))
		if err != nil {
			return domain.ReviewRecord{}, fmt.Errorf("category %q: %w", cat, err)
		}
		r.Ratings[cat] = v
	}
	return r, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// parseRating accepts "4" and the float form "4.0".
func parseRating(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid rating %q", s)
	}
	return int(f), nil
}

// Decode reads a header-led CSV stream. Legacy streams without a
// session_token column decode with empty tokens; unknown columns are ignored.
func Decode(in io.Reader, cats domain.CategorySet) ([]domain.ReviewRecord, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	c := indexHeader(header)
	if err := c.check(cats); err != nil {
		return nil, err
	}
	var out []domain.ReviewRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		r, err := decode(c, cats, row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, r)
	}
}

// Export writes rows in store schema followed by the derived
// timestamp_formatted column.
func Export(w io.Writer, cats domain.CategorySet, rows []domain.ReviewRecord) error {
	header := append(Header(cats), colFormatted)
	c := indexHeader(header)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row, err := encode(header, c, cats, r)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
