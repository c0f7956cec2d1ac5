// Package cache is the client's local bbolt database. It remembers, per
// file, the last seen version and owner, the unwrapped symmetric key and the
// last verified ciphertext, so a user does not have to re-accept an invite
// on every run and can still unlock a local copy with the server gone.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketFiles = []byte("files")
	bucketKeys  = []byte("filekeys")
	bucketBlobs = []byte("ciphertexts")
)

// ErrNotFound is returned when the cache has no entry for a file.
var ErrNotFound = errors.New("not found in cache")

// Entry is the cached metadata for one file.
type Entry struct {
	Name         string    `json:"name"`
	Owner        string    `json:"owner"`
	Version      int       `json:"version"`
	LastModifier string    `json:"last_modifier"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Cache wraps the bbolt database.
type Cache struct {
	db *bbolt.DB
}

// Open opens (or creates) the cache database at dbPath.
func Open(dbPath string) (*Cache, error) {
	db, err := bbolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketFiles, bucketKeys, bucketBlobs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// PutEntry stores the metadata for a file.
func (c *Cache) PutEntry(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(entry.Name), data)
	})
}

// GetEntry retrieves the metadata for a file.
func (c *Cache) GetEntry(name string) (*Entry, error) {
	var entry Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(name))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns all cached file entries.
func (c *Cache) ListEntries() ([]Entry, error) {
	var entries []Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(_, data []byte) error {
			var entry Entry
			if err := json.Unmarshal(data, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// PutFileKey stores the symmetric key for a file. The key arrives here only
// after being unwrapped with the user's private key, and the database lives
// in the user's own home directory.
func (c *Cache) PutFileKey(name string, key []byte) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKeys).Put([]byte(name), key)
	})
}

// GetFileKey retrieves the symmetric key for a file.
func (c *Cache) GetFileKey(name string) ([]byte, error) {
	var key []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketKeys).Get([]byte(name))
		if data == nil {
			return ErrNotFound
		}
		key = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

// PutCiphertext stores the last verified ciphertext of a file. The copy must
// match the entry's last modifier, whose username derives the decryption IV.
func (c *Cache) PutCiphertext(name string, data []byte) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlobs).Put([]byte(name), data)
	})
}

// GetCiphertext retrieves the locally kept ciphertext of a file.
func (c *Cache) GetCiphertext(name string) ([]byte, error) {
	var data []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		stored := tx.Bucket(bucketBlobs).Get([]byte(name))
		if stored == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), stored...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteCiphertext drops the local ciphertext copy, used when the cached
// file key rotates and the copy encrypted under the old key goes stale.
func (c *Cache) DeleteCiphertext(name string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlobs).Delete([]byte(name))
	})
}
