// Package archive persists rule acquisition snapshots for debugging
// drift between what a community published and what the engine saw.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/iterator"

	"github.com/DJSwig/redup-demo/pkg/redup"
)

// Snapshot is one acquisition result frozen at fetch time.
type Snapshot struct {
	FetchedAt    time.Time               `json:"fetched_at"`
	Requirements *redup.PostRequirements `json:"post_requirements,omitempty"`
	Community    string                  `json:"community"`
	Strategy     string                  `json:"strategy"`
	Profile      redup.CommunityProfile  `json:"profile"`
	Rules        []redup.RawRule         `json:"rules"`
}

// Store writes snapshots to Cloud Storage, or to a local directory when
// one is configured. The local path wins when both are set.
type Store struct {
	client    *storage.Client
	logger    *slog.Logger
	localPath string
	bucket    string
}

// New creates a snapshot store.
func New(client *storage.Client, bucket, localPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger, localPath: localPath, bucket: bucket}
}

// SnapshotKey builds a stable object name for a community snapshot.
// Community names pass through ShortName first, which leaves only
// lowercase word characters, so the key is path-safe by construction.
// An empty key means the name was unusable.
func SnapshotKey(community string) string {
	short := redup.ShortName(community)
	if short == "" {
		return ""
	}
	for _, c := range short {
		safe := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
		if !safe {
			return ""
		}
	}
	return fmt.Sprintf("rules-%s.json", short)
}

// Save writes one snapshot, overwriting any previous snapshot for the
// same community.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	key := SnapshotKey(snap.Community)
	if key == "" {
		return errors.New("invalid community name")
	}
	s.logger.Debug("Saving snapshot", "key", key, "community", snap.Community, "rule_count", len(snap.Rules))

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if s.localPath != "" {
		filePath := filepath.Join(s.localPath, key)
		if err := os.WriteFile(filePath, data, 0o600); err != nil {
			return fmt.Errorf("write to local storage: %w", err)
		}
		s.logger.Info("Snapshot saved to local storage", "path", filePath, "community", snap.Community)
		return nil
	}

	err = retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
			if _, writeErr := w.Write(data); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("Failed to close writer after error", "error", closeErr)
				}
				return fmt.Errorf("write to storage: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close storage writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, retryErr error) {
			s.logger.Info("Retrying save operation after error", "attempt", n, "key", key, "error", retryErr)
		}),
	)
	if err != nil {
		return fmt.Errorf("save after retries: %w", err)
	}

	s.logger.Info("Snapshot saved", "key", key, "community", snap.Community, "rule_count", len(snap.Rules))
	return nil
}

// Load reads the latest snapshot for a community.
func (s *Store) Load(ctx context.Context, community string) (*Snapshot, error) {
	key := SnapshotKey(community)
	if key == "" {
		return nil, errors.New("storage: object doesn't exist")
	}
	return s.load(ctx, key)
}

func (s *Store) load(ctx context.Context, key string) (*Snapshot, error) {
	var data []byte

	if s.localPath != "" {
		var err error
		filePath := filepath.Join(s.localPath, key)
		data, err = os.ReadFile(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.New("storage: object doesn't exist")
			}
			return nil, fmt.Errorf("read from local storage: %w", err)
		}
	} else {
		var readData []byte
		err := retry.Do(
			func() error {
				r, openErr := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
				if openErr != nil {
					if errors.Is(openErr, storage.ErrObjectNotExist) {
						return retry.Unrecoverable(fmt.Errorf("open storage reader: %w", openErr))
					}
					return fmt.Errorf("open storage reader: %w", openErr)
				}
				defer func() {
					if closeErr := r.Close(); closeErr != nil {
						s.logger.Warn("Failed to close storage reader", "error", closeErr)
					}
				}()

				var readErr error
				readData, readErr = io.ReadAll(r)
				if readErr != nil {
					return fmt.Errorf("read from storage: %w", readErr)
				}
				return nil
			},
			retry.Attempts(3),
			retry.Delay(time.Second),
			retry.MaxDelay(2*time.Minute),
			retry.MaxJitter(10*time.Second),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, retryErr error) {
				s.logger.Info("Retrying load operation after error", "attempt", n, "key", key, "error", retryErr)
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("load after retries: %w", err)
		}
		data = readData
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// List returns every stored snapshot.
func (s *Store) List(ctx context.Context) ([]*Snapshot, error) {
	var snaps []*Snapshot

	if s.localPath != "" {
		entries, err := os.ReadDir(s.localPath)
		if err != nil {
			return nil, fmt.Errorf("read local storage directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), "rules-") || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			snap, err := s.load(ctx, entry.Name())
			if err != nil {
				s.logger.Warn("Failed to load snapshot", "file", entry.Name(), "error", err)
				continue
			}
			snaps = append(snaps, snap)
		}
		return snaps, nil
	}

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix: "rules-",
	})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate storage: %w", err)
		}
		snap, err := s.load(ctx, attrs.Name)
		if err != nil {
			s.logger.Warn("Failed to load snapshot", "key", attrs.Name, "error", err)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// IsNotFound checks if an error indicates a missing snapshot.
func IsNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "storage: object doesn't exist")
}
