package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/samber/lo"
	"github.com/takutakahashi/push-registry/internal/domain/entities"
	"github.com/takutakahashi/push-registry/internal/usecases/ports/repositories"
	"github.com/takutakahashi/push-registry/pkg/utils"
)

var _ repositories.SubscriptionRepository = (*FileSubscriptionRepository)(nil)

// FileSubscriptionRepository keeps the identity -> push token registry in memory
// and writes the full registry through to a JSON file after every mutation.
// An empty path runs the repository in memory-only mode.
type FileSubscriptionRepository struct {
	path     string
	fileLock *flock.Flock
	logger   *slog.Logger

	// mu is held for writing across "mutate map -> persist" so that
	// concurrent mutations cannot interleave their file writes.
	mu      sync.RWMutex
	records map[string]*tokenSet
}

// NewFileSubscriptionRepository creates a repository backed by the file at path
func NewFileSubscriptionRepository(path string, logger *slog.Logger) *FileSubscriptionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	r := &FileSubscriptionRepository{
		path:    path,
		logger:  logger,
		records: make(map[string]*tokenSet),
	}
	if path != "" {
		r.fileLock = flock.New(path + ".lock")
	}
	return r
}

// Path returns the backing file path, empty in memory-only mode
func (r *FileSubscriptionRepository) Path() string {
	return r.path
}

// Load replaces the in-memory registry with the contents of the backing file.
// A missing file yields an empty registry. Malformed content is an error.
func (r *FileSubscriptionRepository) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.path == "" {
		r.logger.Info("subscription store running in memory-only mode")
		return nil
	}

	// The lock file lives next to the store, so check for a fresh install
	// before trying to create it in a directory that may not exist yet.
	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("subscriptions file not found, starting empty", "path", r.path)
		r.mu.Lock()
		r.records = make(map[string]*tokenSet)
		r.mu.Unlock()
		return nil
	}

	// Creating the lock file needs a writable directory. A read-only store
	// can still be loaded, it just fails on the first mutation.
	locked := true
	if err := r.fileLock.RLock(); err != nil {
		if !isReadOnlyError(err) {
			return &entities.PersistenceError{Op: "lock", Path: r.path, Err: err}
		}
		r.logger.Warn("subscriptions directory is not writable, loading without a lock", "path", r.path, "error", err)
		locked = false
	}
	data, err := os.ReadFile(r.path)
	if locked {
		if unlockErr := r.fileLock.Unlock(); unlockErr != nil {
			r.logger.Warn("failed to release subscriptions file lock", "path", r.path, "error", unlockErr)
		}
	}
	if err != nil {
		return &entities.PersistenceError{Op: "read", Path: r.path, Err: err}
	}

	decoded, err := DecodeSubscriptionRecords(data)
	if err != nil {
		return &entities.PersistenceError{Op: "load", Path: r.path, Err: err}
	}

	records := make(map[string]*tokenSet, len(decoded))
	for _, rec := range decoded {
		set, ok := records[rec.Identity]
		if !ok {
			set = newTokenSet()
			records[rec.Identity] = set
		}
		for _, token := range rec.Tokens {
			set.add(token)
		}
	}

	r.mu.Lock()
	r.records = records
	r.mu.Unlock()

	identities, tokens := r.Stats(ctx)
	r.logger.Info("loaded subscriptions", "path", r.path, "identities", identities, "tokens", tokens)
	return nil
}

// Register adds the push token to the identity's set and persists the registry
func (r *FileSubscriptionRepository) Register(ctx context.Context, reg entities.Registration) (entities.RegisterResult, error) {
	if err := reg.Validate(); err != nil {
		return entities.RegisterResult{}, err
	}
	reg = reg.Normalized()

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.records[reg.Identity]
	if !ok {
		set = newTokenSet()
		r.records[reg.Identity] = set
	}
	added := set.add(reg.PushToken)

	if err := r.persistLocked(); err != nil {
		return entities.RegisterResult{}, err
	}

	return entities.RegisterResult{
		IsNewToken:  added,
		TotalTokens: set.len(),
	}, nil
}

// Unregister removes the push token from the identity's set. Unknown
// identities and tokens are a no-op and do not touch the backing file.
func (r *FileSubscriptionRepository) Unregister(ctx context.Context, reg entities.Registration) (entities.UnregisterResult, error) {
	if err := reg.Validate(); err != nil {
		return entities.UnregisterResult{}, err
	}
	reg = reg.Normalized()

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.records[reg.Identity]
	if !ok {
		return entities.UnregisterResult{Removed: false, TotalTokens: 0}, nil
	}

	if !set.remove(reg.PushToken) {
		return entities.UnregisterResult{Removed: false, TotalTokens: set.len()}, nil
	}
	if set.len() == 0 {
		delete(r.records, reg.Identity)
	}

	if err := r.persistLocked(); err != nil {
		return entities.UnregisterResult{}, err
	}

	return entities.UnregisterResult{
		Removed:     true,
		TotalTokens: set.len(),
	}, nil
}

// GetAll returns a snapshot of every record sorted by identity
func (r *FileSubscriptionRepository) GetAll(ctx context.Context) ([]entities.SubscriptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshotLocked(), nil
}

// Stats returns the number of identities and tokens currently registered
func (r *FileSubscriptionRepository) Stats(ctx context.Context) (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := 0
	for _, set := range r.records {
		tokens += set.len()
	}
	return len(r.records), tokens
}

func (r *FileSubscriptionRepository) snapshotLocked() []entities.SubscriptionRecord {
	identities := lo.Keys(r.records)
	sort.Strings(identities)

	snapshot := make([]entities.SubscriptionRecord, 0, len(identities))
	for _, identity := range identities {
		snapshot = append(snapshot, entities.SubscriptionRecord{
			Identity: identity,
			Tokens:   r.records[identity].values(),
		})
	}
	return snapshot
}

// persistLocked rewrites the whole backing file. Callers must hold mu for writing.
func (r *FileSubscriptionRepository) persistLocked() error {
	if r.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return &entities.PersistenceError{Op: "write", Path: r.path, Err: err}
	}

	if err := r.fileLock.Lock(); err != nil {
		return &entities.PersistenceError{Op: "lock", Path: r.path, Err: err}
	}
	defer func() {
		if err := r.fileLock.Unlock(); err != nil {
			r.logger.Warn("failed to release subscriptions file lock", "path", r.path, "error", err)
		}
	}()

	if err := utils.WriteJSONFile(r.path, r.snapshotLocked(), "  "); err != nil {
		return &entities.PersistenceError{Op: "write", Path: r.path, Err: err}
	}
	return nil
}

// DecodeSubscriptionRecords parses and validates the persisted registry format.
// Identities and tokens are normalized, empty tokens are dropped and duplicate
// tokens collapse. Entries left without any token are rejected.
func DecodeSubscriptionRecords(data []byte) ([]entities.SubscriptionRecord, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	entries, ok := raw.([]any)
	if !ok {
		return nil, errors.New("top-level value must be an array")
	}

	records := make([]entities.SubscriptionRecord, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d must be an object", i)
		}

		rawIdentity, ok := obj["identity"].(string)
		if !ok {
			return nil, fmt.Errorf("entry %d: identity must be a string", i)
		}
		identity := entities.NormalizeIdentity(rawIdentity)
		if identity == "" {
			return nil, fmt.Errorf("entry %d: identity must not be empty", i)
		}

		rawTokens, ok := obj["tokens"].([]any)
		if !ok {
			return nil, fmt.Errorf("entry %d (%s): tokens must be an array", i, identity)
		}
		tokens := make([]string, 0, len(rawTokens))
		for j, rawToken := range rawTokens {
			token, ok := rawToken.(string)
			if !ok {
				return nil, fmt.Errorf("entry %d (%s): token %d must be a string", i, identity, j)
			}
			tokens = append(tokens, entities.NormalizeToken(token))
		}
		tokens = lo.Uniq(lo.Compact(tokens))
		if len(tokens) == 0 {
			return nil, fmt.Errorf("entry %d (%s): must contain at least one non-empty token", i, identity)
		}

		records = append(records, entities.SubscriptionRecord{Identity: identity, Tokens: tokens})
	}

	return records, nil
}

func isReadOnlyError(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EROFS)
}

// tokenSet is an insertion-ordered set of push tokens
type tokenSet struct {
	order []string
	index map[string]struct{}
}

func newTokenSet() *tokenSet {
	return &tokenSet{index: make(map[string]struct{})}
}

func (s *tokenSet) add(token string) bool {
	if _, exists := s.index[token]; exists {
		return false
	}
	s.index[token] = struct{}{}
	s.order = append(s.order, token)
	return true
}

func (s *tokenSet) remove(token string) bool {
	if _, exists := s.index[token]; !exists {
		return false
	}
	delete(s.index, token)
	if i := slices.Index(s.order, token); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

func (s *tokenSet) len() int {
	return len(s.order)
}

func (s *tokenSet) values() []string {
	return slices.Clone(s.order)
}
