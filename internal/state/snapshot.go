package state

import (
	"encoding/json"
	"maps"
	"slices"
	"sort"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// Snapshot is one consistent view of every client-side cache. Published snapshots are
// immutable: writers receive a cloned copy and must replace entities rather than mutate them.
type Snapshot struct {
	Version    uint64             `json:"version"`
	Session    SessionState       `json:"session"`
	Language   entity.Language    `json:"language"`
	Categories []*entity.Category `json:"categories"`
	Catalog    CatalogState       `json:"catalog"`
	Favorites  FavoriteState      `json:"favorites"`
	Chat       ChatState          `json:"chat"`
	Unread     int                `json:"unread"`
	Profile    ProfileState       `json:"profile"`
	Admin      AdminState         `json:"admin"`
}

type SessionState struct {
	User           *entity.User `json:"user"`
	Resolved       bool         `json:"resolved"` // At least one resolution finished.
	AuthPromptOpen bool         `json:"authPromptOpen"`
}

// CatalogState holds the listing caches. Public and Owned are distinct because Owned
// contains hidden listings the public query never returns.
type CatalogState struct {
	Filter   entity.ListingFilter `json:"filter"`
	Public   []*entity.Listing    `json:"public"`
	Owned    []*entity.Listing    `json:"owned"`
	Current  *entity.Listing      `json:"current"`
	Loading  bool                 `json:"loading"`
	Err      string               `json:"error,omitempty"`      // Last public catalog failure.
	OwnedErr string               `json:"ownedError,omitempty"` // Last owned listing failure.
}

// FavoriteState is the favorite set. Owner is the account the set was last
// reconciled with; uuid.Nil marks a set built while signed out.
type FavoriteState struct {
	IDs      map[uuid.UUID]struct{} `json:"-"`
	Owner    uuid.UUID              `json:"owner"`
	Listings []*entity.Listing      `json:"listings"`
	Err      string                 `json:"error,omitempty"`
}

type ChatState struct {
	Conversations []*entity.Conversation                  `json:"conversations"`
	ActiveID      *uuid.UUID                              `json:"activeId"`
	Statuses      map[uuid.UUID]entity.ConversationStatus `json:"statuses"`
	Messages      []*entity.Message                       `json:"messages"`
	Loading       bool                                    `json:"loading"`
	Err           string                                  `json:"error,omitempty"`
}

type ProfileState struct {
	User     *entity.User      `json:"user"`
	Listings []*entity.Listing `json:"listings"`
	Reviews  []*entity.Review  `json:"reviews"`
}

type AdminState struct {
	Users   []*entity.User    `json:"users"`
	Reviews []*entity.Review  `json:"reviews"`
	Stats   entity.AdminStats `json:"stats"`
}

// MarshalJSON renders the favorite set as a sorted id list.
func (f FavoriteState) MarshalJSON() ([]byte, error) {
	type plain FavoriteState

	return json.Marshal(struct {
		IDs []uuid.UUID `json:"ids"`
		plain
	}{IDs: f.FavoriteIDs(), plain: plain(f)})
}

// FavoriteIDs returns the favorite set as a sorted slice.
func (f FavoriteState) FavoriteIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(f.IDs))
	for id := range f.IDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	return ids
}

// Has reports membership in the favorite set.
func (f FavoriteState) Has(id uuid.UUID) bool {
	_, ok := f.IDs[id]

	return ok
}

// IsActive reports whether id is the active conversation.
func (c ChatState) IsActive(id uuid.UUID) bool {
	return c.ActiveID != nil && *c.ActiveID == id
}

// Status returns the lifecycle state of a conversation.
func (c ChatState) Status(id uuid.UUID) entity.ConversationStatus {
	if status, ok := c.Statuses[id]; ok {
		return status
	}

	return entity.ConversationAbsent
}

// UserID returns the signed-in user's id or uuid.Nil.
func (s *Snapshot) UserID() uuid.UUID {
	if s.Session.User == nil {
		return uuid.Nil
	}

	return s.Session.User.ID
}

// clone copies every container so the callback of Update can modify slices and maps in place.
func (s *Snapshot) clone() *Snapshot {
	next := *s
	next.Categories = slices.Clone(s.Categories)
	next.Catalog.Public = slices.Clone(s.Catalog.Public)
	next.Catalog.Owned = slices.Clone(s.Catalog.Owned)
	next.Favorites.IDs = maps.Clone(s.Favorites.IDs)
	next.Favorites.Listings = slices.Clone(s.Favorites.Listings)
	next.Chat.Conversations = slices.Clone(s.Chat.Conversations)
	next.Chat.Statuses = maps.Clone(s.Chat.Statuses)
	next.Chat.Messages = slices.Clone(s.Chat.Messages)
	if s.Chat.ActiveID != nil {
		id := *s.Chat.ActiveID
		next.Chat.ActiveID = &id
	}
	next.Profile.Listings = slices.Clone(s.Profile.Listings)
	next.Profile.Reviews = slices.Clone(s.Profile.Reviews)
	next.Admin.Users = slices.Clone(s.Admin.Users)
	next.Admin.Reviews = slices.Clone(s.Admin.Reviews)

	if next.Favorites.IDs == nil {
		next.Favorites.IDs = make(map[uuid.UUID]struct{})
	}
	if next.Chat.Statuses == nil {
		next.Chat.Statuses = make(map[uuid.UUID]entity.ConversationStatus)
	}

	return &next
}

// ClearUserData drops every per-user cache. Public catalog, categories and language survive.
func (s *Snapshot) ClearUserData() {
	s.Session.User = nil
	s.Catalog.Owned = nil
	s.Catalog.OwnedErr = ""
	if s.Catalog.Current != nil && !s.Catalog.Current.IsActive {
		s.Catalog.Current = nil
	}
	s.Favorites = FavoriteState{IDs: make(map[uuid.UUID]struct{})}
	s.Chat = ChatState{Statuses: make(map[uuid.UUID]entity.ConversationStatus)}
	s.Unread = 0
	s.Profile = ProfileState{}
	s.Admin = AdminState{}
}

// SortConversations orders conversations by most recent update first.
func SortConversations(conversations []*entity.Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
}

// RemoveListing drops id from a listing slice, returning a new slice.
func RemoveListing(listings []*entity.Listing, id uuid.UUID) []*entity.Listing {
	return slices.DeleteFunc(slices.Clone(listings), func(l *entity.Listing) bool { return l.ID == id })
}

// ReplaceListing swaps the listing with the same id, returning a new slice.
func ReplaceListing(listings []*entity.Listing, updated *entity.Listing) []*entity.Listing {
	out := slices.Clone(listings)
	for i, l := range out {
		if l.ID == updated.ID {
			out[i] = updated
		}
	}

	return out
}
