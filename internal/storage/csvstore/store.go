// Package csvstore keeps review records in a comma separated file, one row
// per review, behind a header line.
//
// Append writes exactly one row with O_APPEND under a process-wide mutex, so
// prior rows are never rewritten. Writers in other processes are not
// coordinated; use the MySQL store for multi-writer deployments.
package csvstore

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"peer_review/internal/adapters/observability"
	"peer_review/internal/domain"
)

const backend = "csv"

type Store struct {
	path string
	cats domain.CategorySet

	mu     sync.Mutex
	header []string // cached on first read; the header is never rewritten
}

var _ domain.ReviewStore = (*Store)(nil)

func New(path string, cats domain.CategorySet) *Store {
	return &Store{path: path, cats: cats}
}

func (s *Store) Path() string { return s.path }

func (s *Store) InitializeIfAbsent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	err := s.initLocked()
	observability.ObserveStore(backend, "init", err, time.Since(start))
	return err
}

func (s *Store) initLocked() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return ioErr("create", s.path, err)
	}
	cw := csv.NewWriter(f)
	_ = cw.Write(Header(s.cats))
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return ioErr("write header", s.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return ioErr("sync", s.path, err)
	}
	if err := f.Close(); err != nil {
		return ioErr("close", s.path, err)
	}
	s.header = Header(s.cats)
	return nil
}

func (s *Store) Append(ctx context.Context, r domain.ReviewRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	err := s.appendLocked(r)
	observability.ObserveStore(backend, "append", err, time.Since(start))
	return err
}

func (s *Store) appendLocked(r domain.ReviewRecord) error {
	if err := s.initLocked(); err != nil {
		return err
	}
	header, err := s.headerLocked()
	if err != nil {
		return err
	}
	row, err := encode(header, indexHeader(header), s.cats, r)
	if err != nil {
		return ioErr("encode", s.path, err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return ioErr("open", s.path, err)
	}
	cw := csv.NewWriter(f)
	_ = cw.Write(row)
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return ioErr("write", s.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return ioErr("sync", s.path, err)
	}
	if err := f.Close(); err != nil {
		return ioErr("close", s.path, err)
	}
	return nil
}

func (s *Store) headerLocked() ([]string, error) {
	if s.header != nil {
		return s.header, nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, ioErr("open", s.path, err)
	}
	defer f.Close()
	h, err := csv.NewReader(bufio.NewReader(f)).Read()
	if err != nil {
		return nil, ioErr("read header", s.path, err)
	}
	s.header = h
	return h, nil
}

func (s *Store) LoadAll(ctx context.Context) ([]domain.ReviewRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	out, err := s.loadLocked()
	observability.ObserveStore(backend, "load_all", err, time.Since(start))
	return out, err
}

func (s *Store) loadLocked() ([]domain.ReviewRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ioErr("open", s.path, err)
	}
	defer f.Close()
	out, err := Decode(bufio.NewReader(f), s.cats)
	if err != nil {
		return nil, ioErr("decode", s.path, err)
	}
	return out, nil
}

func ioErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", domain.ErrStoreIO, op, path, err)
}
