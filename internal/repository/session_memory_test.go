package repository

import (
    "context"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/zenpod/internal/model"
)

func TestMemorySessionStore_CreateAndGet(t *testing.T) {
    store := NewMemorySessionStore()
    ctx := context.Background()

    a := &model.Session{DurationHours: 1, OrderRef: "a"}
    b := &model.Session{DurationHours: 2, OrderRef: "b"}
    require.NoError(t, store.Create(ctx, a))
    require.NoError(t, store.Create(ctx, b))
    assert.NotEqual(t, a.ID, b.ID)

    got, err := store.GetByID(ctx, b.ID)
    require.NoError(t, err)
    assert.Equal(t, "b", got.OrderRef)

    _, err = store.GetByID(ctx, 1000)
    assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStore_DuplicateOrderRef(t *testing.T) {
    store := NewMemorySessionStore()
    ctx := context.Background()
    require.NoError(t, store.Create(ctx, &model.Session{DurationHours: 1, OrderRef: "dup"}))
    err := store.Create(ctx, &model.Session{DurationHours: 1, OrderRef: "dup"})
    assert.ErrorIs(t, err, ErrDuplicateOrderRef)
}

func TestMemorySessionStore_ReturnsCopies(t *testing.T) {
    store := NewMemorySessionStore()
    ctx := context.Background()
    s := &model.Session{DurationHours: 1, OrderRef: "c"}
    require.NoError(t, store.Create(ctx, s))

    got, err := store.GetByID(ctx, s.ID)
    require.NoError(t, err)
    got.IsPaid = true

    again, err := store.GetByID(ctx, s.ID)
    require.NoError(t, err)
    assert.False(t, again.IsPaid)
}

func TestMemorySessionStore_UpdateValidates(t *testing.T) {
    store := NewMemorySessionStore()
    ctx := context.Background()
    s := &model.Session{DurationHours: 1, OrderRef: "v"}
    require.NoError(t, store.Create(ctx, s))

    _, err := store.Update(ctx, s.ID, func(s *model.Session) (bool, error) {
        s.IsActive = true
        return true, nil
    })
    assert.ErrorIs(t, err, model.ErrInvalidSession)

    _, err = store.Update(ctx, s.ID, func(s *model.Session) (bool, error) {
        s.OrderRef = "other"
        return true, nil
    })
    assert.ErrorIs(t, err, ErrImmutableField)

    got, err := store.GetByID(ctx, s.ID)
    require.NoError(t, err)
    assert.False(t, got.IsActive)
    assert.Equal(t, "v", got.OrderRef)
}

func TestMemorySessionStore_UpdateIsSerializedPerSession(t *testing.T) {
    store := NewMemorySessionStore()
    ctx := context.Background()
    s := &model.Session{DurationHours: 1, OrderRef: "race"}
    require.NoError(t, store.Create(ctx, s))

    var (
        wg          sync.WaitGroup
        activations int32
    )
    for i := 0; i < 32; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            _, err := store.Update(ctx, s.ID, func(s *model.Session) (bool, error) {
                if s.IsActive {
                    return false, nil
                }
                now := time.Now().UTC()
                s.IsPaid = true
                s.IsActive = true
                s.StartTime = &now
                atomic.AddInt32(&activations, 1)
                return true, nil
            })
            assert.NoError(t, err)
        }()
    }
    wg.Wait()
    assert.Equal(t, int32(1), activations)
}
