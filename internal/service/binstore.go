package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/idgen"
	"github.com/sakif/sourcebin/internal/model"
	"github.com/sakif/sourcebin/internal/repository"
)

// DefaultStorageKey is the key the whole collection is stored under.
const DefaultStorageKey = "sourcebin-lite-v2"

// Option customises the clock and identifier source of a BinStore or an
// EditorService. Tests use it to make ids and timestamps deterministic.
type Option func(*deps)

type deps struct {
	newID idgen.Generator
	now   func() time.Time
}

func defaultDeps(opts []Option) deps {
	d := deps{newID: idgen.NewBinID, now: time.Now}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func WithIDGenerator(g idgen.Generator) Option {
	return func(d *deps) { d.newID = g }
}

func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// BinStore reads and writes the full bin collection as one JSON array under
// a single key.
type BinStore struct {
	kv     repository.KVStore
	key    string
	logger *slog.Logger
	deps   deps
}

func NewBinStore(kv repository.KVStore, key string, logger *slog.Logger, opts ...Option) *BinStore {
	if key == "" {
		key = DefaultStorageKey
	}
	return &BinStore{
		kv:     kv,
		key:    key,
		logger: logger,
		deps:   defaultDeps(opts),
	}
}

// Load returns the persisted collection. It never fails: a missing,
// unreadable or empty collection is replaced by one freshly seeded bin.
// Bins with a missing or duplicate id get a new one, bins without files get
// a placeholder file, and nameless files get the default name and language.
func (s *BinStore) Load(ctx context.Context) []model.Bin {
	raw, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		s.logger.Info("no stored bins, seeding default", slog.String("key", s.key))
		return s.seed()
	case err != nil:
		s.logger.Error("reading stored bins failed, seeding default",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return s.seed()
	}

	var bins []model.Bin
	if err := json.Unmarshal(raw, &bins); err != nil {
		s.logger.Warn("stored bins are corrupt, seeding default",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return s.seed()
	}
	if len(bins) == 0 {
		return s.seed()
	}
	return s.repair(bins)
}

// Save overwrites the stored collection with bins.
func (s *BinStore) Save(ctx context.Context, bins []model.Bin) error {
	if len(bins) == 0 {
		return errors.New("binstore: refusing to save an empty collection")
	}
	data, err := json.Marshal(bins)
	if err != nil {
		return fmt.Errorf("binstore: encoding bins: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("binstore: writing bins: %w", err)
	}
	return nil
}

func (s *BinStore) seed() []model.Bin {
	return []model.Bin{defaultBin(s.deps)}
}

func defaultBin(d deps) model.Bin {
	return model.NewDefaultBin(d.newID(), d.now())
}

func (s *BinStore) repair(bins []model.Bin) []model.Bin {
	seen := make(map[string]bool, len(bins))
	for i := range bins {
		b := &bins[i]
		if b.ID == "" || seen[b.ID] {
			old := b.ID
			b.ID = s.deps.newID()
			s.logger.Warn("reassigned bin id", slog.String("old", old), slog.String("new", b.ID))
		}
		seen[b.ID] = true
		if len(b.Files) == 0 {
			b.Files = []model.File{{}}
			s.logger.Warn("bin had no files, added placeholder", slog.String("id", b.ID))
		}
		for j := range b.Files {
			b.Files[j] = b.Files[j].WithDefaults()
		}
	}
	return bins
}
