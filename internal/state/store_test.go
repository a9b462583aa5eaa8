package state

import (
	"encoding/json"
	"sync"
	"testing"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpdateDoesNotTouchPublishedSnapshot(t *testing.T) {
	store := New()
	listing := &entity.Listing{ID: uuid.New(), Title: "Bike", IsActive: true}
	store.Update(func(next *Snapshot) {
		next.Catalog.Public = []*entity.Listing{listing}
	})
	before := store.Snapshot()

	store.Update(func(next *Snapshot) {
		next.Catalog.Public = append(next.Catalog.Public, &entity.Listing{ID: uuid.New()})
		next.Favorites.IDs[listing.ID] = struct{}{}
	})

	assert.Len(t, before.Catalog.Public, 1)
	assert.Empty(t, before.Favorites.IDs)
	assert.Len(t, store.Snapshot().Catalog.Public, 2)
	assert.Equal(t, before.Version+1, store.Snapshot().Version)
}

func TestStore_UpdateIfAbortKeepsVersion(t *testing.T) {
	store := New()
	snap, committed := store.UpdateIf(func(next *Snapshot) bool {
		next.Unread = 7

		return false
	})

	assert.False(t, committed)
	assert.Zero(t, snap.Unread)
	assert.Zero(t, store.Snapshot().Version)
}

func TestStore_SubscribeCoalescesToLatest(t *testing.T) {
	store := New()
	ch, cancel := store.Subscribe()
	defer cancel()

	for i := 1; i <= 5; i++ {
		store.Update(func(next *Snapshot) { next.Unread = i })
	}

	snap := <-ch
	assert.Equal(t, 5, snap.Unread)
}

func TestStore_CancelClosesChannel(t *testing.T) {
	store := New()
	ch, cancel := store.Subscribe()
	<-ch
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	store := New()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Update(func(next *Snapshot) { next.Unread++ })
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Snapshot().Unread)
	assert.Equal(t, uint64(50), store.Snapshot().Version)
}

func TestSnapshot_ClearUserData(t *testing.T) {
	store := New()
	convID := uuid.New()
	store.Update(func(next *Snapshot) {
		next.Session.User = &entity.User{ID: uuid.New()}
		next.Favorites.IDs[uuid.New()] = struct{}{}
		next.Chat.ActiveID = &convID
		next.Chat.Messages = []*entity.Message{{ID: uuid.New()}}
		next.Unread = 3
		next.Catalog.Public = []*entity.Listing{{ID: uuid.New(), IsActive: true}}
		next.Catalog.Owned = []*entity.Listing{{ID: uuid.New()}}
	})

	snap := store.Update(func(next *Snapshot) { next.ClearUserData() })

	assert.Nil(t, snap.Session.User)
	assert.Empty(t, snap.Favorites.IDs)
	assert.Nil(t, snap.Chat.ActiveID)
	assert.Empty(t, snap.Chat.Messages)
	assert.Zero(t, snap.Unread)
	assert.Empty(t, snap.Catalog.Owned)
	assert.Len(t, snap.Catalog.Public, 1)
}

func TestFavoriteState_MarshalJSON(t *testing.T) {
	id := uuid.New()
	state := FavoriteState{IDs: map[uuid.UUID]struct{}{id: {}}}

	raw, err := json.Marshal(state)
	require.NoError(t, err)

	var decoded struct {
		IDs []uuid.UUID `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []uuid.UUID{id}, decoded.IDs)
}
