// Package statefile persists cart state as per-owner JSON files in a local
// directory. It is the server-side analog of the storefront's browser
// key-value storage: read at startup, rewritten after every mutation, and
// discarded rather than repaired when a file cannot be parsed.
package statefile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/omii/storefront/internal/domain/cart"
)

// schemaVersion is bumped whenever the on-disk envelope changes shape.
// Files with a different version are treated like corrupt files: dropped
// and replaced on the next save.
const schemaVersion = 1

// envelope is the on-disk representation of a cart state.
type envelope struct {
	SchemaVersion int        `json:"schemaVersion"`
	Cart          cart.State `json:"cart"`
}

var _ cart.Store = (*Store)(nil)

// Store is a file-backed cart.Store. One file per owner, atomically
// replaced on save.
type Store struct {
	dir string
	lg  *zap.Logger
}

// New creates the directory if needed and returns a Store over it.
func New(dir string, lg *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create state dir")
	}
	return &Store{dir: dir, lg: lg}, nil
}

// Load reads the owner's cart file. A missing, unreadable, or
// version-mismatched file yields an empty state: persisted cart state is a
// convenience, not a source of truth worth failing over.
func (s *Store) Load(_ context.Context, owner string) (*cart.State, error) {
	data, err := os.ReadFile(s.path(owner))
	if err != nil {
		if !os.IsNotExist(err) {
			s.lg.Warn("cart state unreadable, starting empty",
				zap.String("owner", owner),
				zap.Error(err),
			)
		}
		return &cart.State{}, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.lg.Warn("cart state corrupt, discarding",
			zap.String("owner", owner),
			zap.Error(err),
		)
		return &cart.State{}, nil
	}
	if env.SchemaVersion != schemaVersion {
		s.lg.Warn("cart state schema mismatch, discarding",
			zap.String("owner", owner),
			zap.Int("found", env.SchemaVersion),
			zap.Int("want", schemaVersion),
		)
		return &cart.State{}, nil
	}

	return &env.Cart, nil
}

// Save writes the owner's cart atomically: marshal, write to a temp file in
// the same directory, rename over the target.
func (s *Store) Save(_ context.Context, owner string, st *cart.State) error {
	data, err := json.MarshalIndent(envelope{SchemaVersion: schemaVersion, Cart: *st}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal cart state")
	}

	target := s.path(owner)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmp.Name())
		if werr != nil {
			return errors.Wrap(werr, "write cart state")
		}
		return errors.Wrap(cerr, "close cart state")
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, "replace cart state")
	}
	return nil
}

// Delete removes the owner's cart file. A missing file is not an error.
func (s *Store) Delete(_ context.Context, owner string) error {
	err := os.Remove(s.path(owner))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete cart state")
	}
	return nil
}

// path maps an owner ID to a file name, replacing separators so a crafted
// owner ID cannot escape the state directory.
func (s *Store) path(owner string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', ':':
			return '_'
		}
		return r
	}, owner)
	return filepath.Join(s.dir, "cart-"+safe+".json")
}
