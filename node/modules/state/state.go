package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// KVStore is the minimal read/write access every record repository needs.
// Get returns nil without an error for missing keys.
type KVStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// KVCacheWrap buffers writes over a parent store. Write flushes them to the
// parent in one step, Discard drops them.
type KVCacheWrap interface {
	KVStore
	CacheWrap() KVCacheWrap
	Write() error
	Discard()
}

// State is the node's durable state (signers, operations, balances, transfer
// requests). All mutations go through a cache wrap so that a failed call
// leaves nothing behind.
type State interface {
	KVStore
	CacheWrap() KVCacheWrap
	Close() error
}

var _ State = (*LevelDBState)(nil)

type LevelDBState struct {
	sync.Mutex
	stateDb     *leveldb.DB
	stateDbPath string
}

func NewLevelDBState(stateDbPath string) (*LevelDBState, error) {
	db, err := leveldb.OpenFile(stateDbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open stateDB: %w", err)
	}

	return &LevelDBState{
		stateDb:     db,
		stateDbPath: stateDbPath,
	}, nil
}

func (s *LevelDBState) Get(key string) ([]byte, error) {
	s.Lock()
	defer s.Unlock()
	value, err := s.stateDb.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get value with key {%s} from leveldb storage: %w", key, err)
	}
	return value, nil
}

func (s *LevelDBState) Set(key string, value []byte) error {
	s.Lock()
	defer s.Unlock()
	if err := s.stateDb.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("failed to save value with key %s: %w", key, err)
	}
	return nil
}

func (s *LevelDBState) Delete(key string) error {
	s.Lock()
	defer s.Unlock()

	err := s.stateDb.Delete([]byte(key), nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return fmt.Errorf("failed to delete value with key {%s}: %w", key, err)
	}
	return nil
}

// CacheWrap returns a savepoint whose Write commits all buffered changes in a
// single leveldb batch.
func (s *LevelDBState) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(s, s.commit)
}

func (s *LevelDBState) commit(ops []Op) error {
	batch := new(leveldb.Batch)
	for _, op := range ops {
		if op.Deleted {
			batch.Delete([]byte(op.Key))
		} else {
			batch.Put([]byte(op.Key), op.Value)
		}
	}

	s.Lock()
	defer s.Unlock()
	if err := s.stateDb.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to write batch of %d ops: %w", len(ops), err)
	}
	return nil
}

func (s *LevelDBState) Path() string {
	return s.stateDbPath
}

func (s *LevelDBState) Close() error {
	return s.stateDb.Close()
}

func MakeCompositeKeyString(prefix, key string) string {
	return fmt.Sprintf("%s_%s", prefix, key)
}
