package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"devconnector/internal/cache"
	"devconnector/internal/model"
)

// MemoryStore is an in-memory implementation of the user, profile and post
// repositories. It applies the same version checks as the Postgres store.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[int64]model.User
	profiles map[int64]model.Profile // keyed by user id
	posts    map[int64]model.Post
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]model.User),
		profiles: make(map[int64]model.Profile),
		posts:    make(map[int64]model.Post),
		now:      time.Now,
	}
}

// Users returns the store's UserRepository view.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Profiles returns the store's ProfileRepository view.
func (s *MemoryStore) Profiles() ProfileRepository { return memoryProfiles{s} }

// Posts returns the store's PostRepository view.
func (s *MemoryStore) Posts() PostRepository { return memoryPosts{s} }

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// tick returns a strictly increasing timestamp so ordering by date is total.
func (s *MemoryStore) tick() time.Time {
	return s.now().Add(time.Duration(s.nextID) * time.Millisecond)
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return model.ErrEmailExists
		}
	}
	u.ID = r.s.id()
	u.Date = r.s.tick()
	r.s.users[u.ID] = *u
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return &u, nil
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r memoryUsers) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

type memoryProfiles struct{ s *MemoryStore }

// withUser clones p and attaches the owner summary. Caller holds the lock.
func (r memoryProfiles) withUser(p model.Profile) model.Profile {
	p.Skills = slices.Clone(p.Skills)
	p.Experience = slices.Clone(p.Experience)
	p.Education = slices.Clone(p.Education)
	if u, ok := r.s.users[p.UserID]; ok {
		p.User = u.Summary()
	}
	return p
}

func (r memoryProfiles) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	p = r.withUser(p)
	return &p, nil
}

func (r memoryProfiles) List(ctx context.Context) ([]model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	profiles := make([]model.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		profiles = append(profiles, r.withUser(p))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (r memoryProfiles) Create(ctx context.Context, p *model.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[p.UserID]; ok {
		return model.ErrConcurrentUpdate
	}
	p.ID = r.s.id()
	p.Date = r.s.tick()
	p.Version = 1
	r.s.profiles[p.UserID] = r.withUser(*p)
	return nil
}

func (r memoryProfiles) Update(ctx context.Context, p *model.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.profiles[p.UserID]
	if !ok || stored.Version != p.Version {
		return model.ErrConcurrentUpdate
	}
	p.Version++
	r.s.profiles[p.UserID] = r.withUser(*p)
	return nil
}

func (r memoryProfiles) DeleteByUserID(ctx context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[userID]; !ok {
		return model.ErrProfileNotFound
	}
	delete(r.s.profiles, userID)
	return nil
}

type memoryPosts struct{ s *MemoryStore }

func clonePost(p model.Post) model.Post {
	p.Likes = slices.Clone(p.Likes)
	p.Comments = slices.Clone(p.Comments)
	if p.Likes == nil {
		p.Likes = model.Likes{}
	}
	if p.Comments == nil {
		p.Comments = model.Comments{}
	}
	return p
}

// newestFirst orders posts by date, then id, descending.
func newestFirst(posts []model.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].ID > posts[j].ID
	})
}

func (r memoryPosts) Create(ctx context.Context, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p.ID = r.s.id()
	p.Date = r.s.tick()
	p.Version = 1
	p.Likes = model.Likes{}
	p.Comments = model.Comments{}
	r.s.posts[p.ID] = clonePost(*p)
	return nil
}

func (r memoryPosts) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	p = clonePost(p)
	return &p, nil
}

func (r memoryPosts) GetByIDs(ctx context.Context, postIDs []int64) ([]model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := make([]model.Post, 0, len(postIDs))
	for _, id := range postIDs {
		if p, ok := r.s.posts[id]; ok {
			posts = append(posts, clonePost(p))
		}
	}
	return posts, nil
}

func (r memoryPosts) List(ctx context.Context) ([]model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := make([]model.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		posts = append(posts, clonePost(p))
	}
	newestFirst(posts)
	return posts, nil
}

func (r memoryPosts) ListRecent(ctx context.Context, limit int) ([]cache.PostScore, error) {
	posts, _ := r.List(ctx)
	if len(posts) > limit {
		posts = posts[:limit]
	}
	scores := make([]cache.PostScore, len(posts))
	for i, p := range posts {
		scores[i] = cache.PostScore{PostID: p.ID, Timestamp: p.Date.UnixMilli()}
	}
	return scores, nil
}

func (r memoryPosts) UpdateEngagement(ctx context.Context, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.posts[p.ID]
	if !ok {
		return model.ErrPostNotFound
	}
	if stored.Version != p.Version {
		return model.ErrConcurrentUpdate
	}
	stored.Likes = p.Likes
	stored.Comments = p.Comments
	stored.Version++
	p.Version = stored.Version
	r.s.posts[p.ID] = clonePost(stored)
	return nil
}

func (r memoryPosts) Delete(ctx context.Context, postID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return model.ErrPostNotFound
	}
	if p.UserID != userID {
		return model.ErrNotPostOwner
	}
	delete(r.s.posts, postID)
	return nil
}

func (r memoryPosts) DeleteByUser(ctx context.Context, userID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := []int64{}
	for id, p := range r.s.posts {
		if p.UserID == userID {
			ids = append(ids, id)
			delete(r.s.posts, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
