package repository

import (
    "context"
    "sync"
    "time"

    "github.com/iliyamo/zenpod/internal/model"
)

// MemorySessionStore keeps sessions in process memory.  It backs
// SESSION_STORE=memory for local runs without MySQL and is used by the
// service and handler tests.  Each session has its own mutex, so updates
// on one id are serialized while other sessions proceed independently.
type MemorySessionStore struct {
    mu     sync.RWMutex
    nextID uint64
    rows   map[uint64]*memSession
    refs   map[string]uint64
}

type memSession struct {
    mu sync.Mutex
    s  model.Session
}

// NewMemorySessionStore returns an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
    return &MemorySessionStore{
        rows: make(map[uint64]*memSession),
        refs: make(map[string]uint64),
    }
}

func (m *MemorySessionStore) Create(ctx context.Context, s *model.Session) error {
    if err := s.Validate(); err != nil {
        return err
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.refs[s.OrderRef]; ok {
        return ErrDuplicateOrderRef
    }
    m.nextID++
    s.ID = m.nextID
    if s.CreatedAt.IsZero() {
        s.CreatedAt = time.Now().UTC()
    }
    m.rows[s.ID] = &memSession{s: s.Clone()}
    m.refs[s.OrderRef] = s.ID
    return nil
}

func (m *MemorySessionStore) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
    row := m.row(id)
    if row == nil {
        return nil, ErrSessionNotFound
    }
    row.mu.Lock()
    defer row.mu.Unlock()
    out := row.s.Clone()
    return &out, nil
}

func (m *MemorySessionStore) Update(ctx context.Context, id uint64, fn UpdateFunc) (*model.Session, error) {
    row := m.row(id)
    if row == nil {
        return nil, ErrSessionNotFound
    }
    row.mu.Lock()
    defer row.mu.Unlock()
    work := row.s.Clone()
    changed, err := fn(&work)
    if err != nil {
        return nil, err
    }
    if changed {
        if err := checkUpdate(&row.s, &work); err != nil {
            return nil, err
        }
        row.s = work.Clone()
    }
    return &work, nil
}

func (m *MemorySessionStore) row(id uint64) *memSession {
    m.mu.RLock()
    defer m.mu.RUnlock()
    return m.rows[id]
}
