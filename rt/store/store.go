// Package store keeps edited chunks that have scrolled out of the window.
//
// Chunks are keyed by a world namespace and their voxel origin. Opening a
// save file starts a new namespace so stale edits from the previous world
// never leak into the loaded one.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var ErrClosed = errors.New("store: closed")

type Store interface {
	Get(ns uuid.UUID, origin [3]int) ([]byte, bool, error)
	Put(ns uuid.UUID, origin [3]int, data []byte) error
	// Drop deletes every chunk in a namespace.
	Drop(ns uuid.UUID) error
	Close() error
}

func prefix(ns uuid.UUID) string {
	return "chunk/" + ns.String() + "/"
}

func key(ns uuid.UUID, origin [3]int) []byte {
	return []byte(fmt.Sprintf("%s%d/%d/%d", prefix(ns), origin[0], origin[1], origin[2]))
}

// LevelDB is a Store backed by an on-disk LevelDB. Values are zstd frames.
type LevelDB struct {
	db  *leveldb.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}
	return &LevelDB{db: db, enc: enc, dec: dec}, nil
}

func (s *LevelDB) Get(ns uuid.UUID, origin [3]int) ([]byte, bool, error) {
	raw, err := s.db.Get(key(ns, origin), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := s.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, false, fmt.Errorf("store: chunk %v: %w", origin, err)
	}
	return data, true, nil
}

func (s *LevelDB) Put(ns uuid.UUID, origin [3]int, data []byte) error {
	return s.db.Put(key(ns, origin), s.enc.EncodeAll(data, nil), nil)
}

func (s *LevelDB) Drop(ns uuid.UUID) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix(ns))), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}

func (s *LevelDB) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// Memory is a Store that lives only as long as the process.
type Memory struct {
	mu     sync.RWMutex
	chunks map[string][]byte
	closed bool
}

func NewMemory() *Memory {
	return &Memory{chunks: map[string][]byte{}}
}

func (s *Memory) Get(ns uuid.UUID, origin [3]int) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	data, ok := s.chunks[string(key(ns, origin))]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *Memory) Put(ns uuid.UUID, origin [3]int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.chunks[string(key(ns, origin))] = append([]byte(nil), data...)
	return nil
}

func (s *Memory) Drop(ns uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := prefix(ns)
	for k := range s.chunks {
		if len(k) >= len(p) && k[:len(p)] == p {
			delete(s.chunks, k)
		}
	}
	return nil
}

func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Namespace binds a Store to one world so it can back a streaming manager.
type Namespace struct {
	Store Store
	ID    uuid.UUID
}

func NewNamespace(s Store) *Namespace {
	return &Namespace{Store: s, ID: uuid.New()}
}

func (n *Namespace) LoadChunk(origin [3]int) ([]byte, bool, error) {
	return n.Store.Get(n.ID, origin)
}

func (n *Namespace) SaveChunk(origin [3]int, data []byte) error {
	return n.Store.Put(n.ID, origin, data)
}
