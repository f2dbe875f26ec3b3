// internal/store/bolt.go
//
// BoltDB implementation of the Store interface.
// Sessions live in a single bucket keyed by id; Commit and Load run in
// bbolt Update/View transactions.

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/robalobadob/tictactoe/internal/game"
)

const sessionBucket = "sessions"

type boltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) a BoltDB-backed store at path.
func OpenBolt(path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Load(ctx context.Context, id string) (*game.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkID(id); err != nil {
		return nil, err
	}
	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if b == nil {
			return fmt.Errorf("session bucket is missing")
		}
		v := b.Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction.
		blob = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decode(blob)
}

func (s *boltStore) Commit(ctx context.Context, id string, sess *game.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	payload, err := encode(sess)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if b == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return b.Put([]byte(id), payload)
	})
}

// List walks the bucket cursor; bbolt keys are already byte-sorted.
func (s *boltStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if b == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return b.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *boltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
