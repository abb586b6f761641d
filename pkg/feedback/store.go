package feedback

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/analogy/pkg/errors"
)

/*
Store appends feedback entries to a CSV file. Appends are serialized, the
header is written with the first entry, and rows are never rewritten.
*/
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (store *Store) Path() string {
	return store.path
}

/*
Append validates the entry and writes it as one row.
*/
func (store *Store) Append(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return errors.ErrPersistence.Wrap(err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	dir := filepath.Dir(store.path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.ErrPersistence.WithMessagef("cannot create %s", dir).Wrap(err)
	}

	file, err := os.OpenFile(store.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.ErrPersistence.WithMessagef("cannot open %s", store.path).Wrap(err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return errors.ErrPersistence.Wrap(err)
	}

	writer := csv.NewWriter(file)

	if info.Size() == 0 {
		if err := writer.Write(Header); err != nil {
			return errors.ErrPersistence.Wrap(err)
		}
	}

	if err := writer.Write(entry.row()); err != nil {
		return errors.ErrPersistence.Wrap(err)
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return errors.ErrPersistence.Wrap(err)
	}

	if err := file.Sync(); err != nil {
		return errors.ErrPersistence.Wrap(err)
	}

	log.Debug("feedback stored", "path", store.path, "target", entry.TargetDomain)
	return nil
}

// Entries reads back every stored entry, oldest first.
func (store *Store) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	err := store.scan(ctx, func(record []string) error {
		entry, err := parseRow(record)
		if err != nil {
			return err
		}

		entries = append(entries, entry)
		return nil
	})

	return entries, err
}

// Count returns the number of stored entries.
func (store *Store) Count(ctx context.Context) (int, error) {
	count := 0

	err := store.scan(ctx, func([]string) error {
		count++
		return nil
	})

	return count, err
}

func (store *Store) scan(ctx context.Context, fn func([]string) error) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	file, err := os.Open(store.path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return errors.ErrPersistence.WithMessagef("cannot open %s", store.path).Wrap(err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(Header)

	for header := true; ; header = false {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return errors.ErrPersistence.WithMessagef("corrupt feedback file %s", store.path).Wrap(err)
		}

		if header {
			continue
		}

		if err := fn(record); err != nil {
			return err
		}
	}
}
