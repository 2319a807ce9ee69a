package server

import (
	stderrors "errors"

	bolt "go.etcd.io/bbolt"

	"github.com/okriek/inkwell/document"
	"github.com/okriek/inkwell/errors"
)

var documentsBucket = []byte("documents")

// ErrNotFound is returned when no document exists under a key.
var ErrNotFound = stderrors.New("document not found")

// Store persists documents to a BoltDB file on disk, keyed by document key.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (or creates) a BoltDB database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open document store at %s", path)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to create documents bucket")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes the document under its own key, overwriting any previous
// version.
func (s *Store) Put(doc *document.Document) error {
	raw, err := doc.MarshalStored()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Put([]byte(doc.Key), raw)
	})
}

// Get reads the document stored under key. Returns ErrNotFound when the
// key is absent.
func (s *Store) Get(key string) (*document.Document, error) {
	var doc *document.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(documentsBucket).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		var err error
		doc, err = document.UnmarshalStored(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Keys lists all stored document keys.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
