package state

import (
	"sync"

	"github.com/google/btree"
)

const btreeDegree = 2

// Op is a single buffered change: a value to store or a key to delete.
type Op struct {
	Key     string
	Value   []byte
	Deleted bool
}

// Less orders ops by key so the btree keeps the latest change per key.
func (o Op) Less(than btree.Item) bool {
	return o.Key < than.(Op).Key
}

// CommitFunc receives the final change set of a cache wrap, ordered by key.
type CommitFunc func(ops []Op) error

// BTreeCacheWrap places a btree cache over a KVStore. Reads fall through to
// the parent for keys the cache has not touched.
type BTreeCacheWrap struct {
	bt     *btree.BTree
	back   KVStore
	commit CommitFunc
}

var _ KVCacheWrap = (*BTreeCacheWrap)(nil)

func NewBTreeCacheWrap(back KVStore, commit CommitFunc) *BTreeCacheWrap {
	return &BTreeCacheWrap{
		bt:     btree.New(btreeDegree),
		back:   back,
		commit: commit,
	}
}

func (b *BTreeCacheWrap) Get(key string) ([]byte, error) {
	if res := b.bt.Get(Op{Key: key}); res != nil {
		op := res.(Op)
		if op.Deleted {
			return nil, nil
		}
		return op.Value, nil
	}
	return b.back.Get(key)
}

func (b *BTreeCacheWrap) Set(key string, value []byte) error {
	b.bt.ReplaceOrInsert(Op{Key: key, Value: value})
	return nil
}

func (b *BTreeCacheWrap) Delete(key string) error {
	b.bt.ReplaceOrInsert(Op{Key: key, Deleted: true})
	return nil
}

// CacheWrap layers another btree on top of this one. Its Write lands in this
// cache, not in the durable state.
func (b *BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.apply)
}

func (b *BTreeCacheWrap) apply(ops []Op) error {
	for _, op := range ops {
		b.bt.ReplaceOrInsert(op)
	}
	return nil
}

// Write hands the buffered change set to the parent and resets the cache.
func (b *BTreeCacheWrap) Write() error {
	ops := b.ops()
	b.Discard()
	if len(ops) == 0 {
		return nil
	}
	return b.commit(ops)
}

func (b *BTreeCacheWrap) Discard() {
	b.bt = btree.New(btreeDegree)
}

func (b *BTreeCacheWrap) ops() []Op {
	ops := make([]Op, 0, b.bt.Len())
	b.bt.Ascend(func(i btree.Item) bool {
		ops = append(ops, i.(Op))
		return true
	})
	return ops
}

var _ State = (*MemState)(nil)

// MemState keeps everything in a btree. There is no persistence here; it
// backs tests and the "memory" backend.
type MemState struct {
	sync.Mutex
	bt *btree.BTree
}

func NewMemState() *MemState {
	return &MemState{bt: btree.New(btreeDegree)}
}

func (m *MemState) Get(key string) ([]byte, error) {
	m.Lock()
	defer m.Unlock()
	if res := m.bt.Get(Op{Key: key}); res != nil {
		return res.(Op).Value, nil
	}
	return nil, nil
}

func (m *MemState) Set(key string, value []byte) error {
	m.Lock()
	defer m.Unlock()
	m.bt.ReplaceOrInsert(Op{Key: key, Value: value})
	return nil
}

func (m *MemState) Delete(key string) error {
	m.Lock()
	defer m.Unlock()
	m.bt.Delete(Op{Key: key})
	return nil
}

func (m *MemState) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(m, m.commit)
}

func (m *MemState) commit(ops []Op) error {
	m.Lock()
	defer m.Unlock()
	for _, op := range ops {
		if op.Deleted {
			m.bt.Delete(Op{Key: op.Key})
		} else {
			m.bt.ReplaceOrInsert(op)
		}
	}
	return nil
}

func (m *MemState) Close() error {
	return nil
}
