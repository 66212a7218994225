package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"polychat-backend/internal/models"
	"polychat-backend/internal/providers"
	"polychat-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memStore is an in-memory store.Store with the same owner scoping and versioning rules as the SQL backends.
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]models.User
	conversations map[uuid.UUID]models.Conversation
	clock         time.Time
	writes        int
	failWrites    error
	// beforeUpdate runs under the lock against the stored row, before the version check.
	beforeUpdate func(stored *models.Conversation)
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]models.User{},
		conversations: map[uuid.UUID]models.Conversation{},
		clock:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func cloneConversation(c models.Conversation) models.Conversation {
	c.Messages = append([]models.Message{}, c.Messages...)
	return c
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	now := m.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) CreateConversation(_ context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	now := m.tick()
	conv.Version, conv.CreatedAt, conv.UpdatedAt = 1, now, now
	m.conversations[conv.ID] = cloneConversation(*conv)
	m.writes++
	return nil
}

func (m *memStore) GetConversationByID(_ context.Context, id, ownerID uuid.UUID) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	c = cloneConversation(c)
	return &c, nil
}

func (m *memStore) ListConversationSummaries(_ context.Context, ownerID uuid.UUID) ([]models.ConversationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []models.ConversationSummary{}
	for _, c := range m.conversations {
		if c.OwnerID == ownerID {
			items = append(items, c.Summary())
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UpdatedAt.After(items[j].UpdatedAt) })
	return items, nil
}

func (m *memStore) UpdateConversation(_ context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	stored, ok := m.conversations[conv.ID]
	if !ok || stored.OwnerID != conv.OwnerID {
		return store.ErrNotFound
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(&stored)
		m.conversations[conv.ID] = stored
	}
	if stored.Version != conv.Version {
		return store.ErrConflict
	}
	conv.Version++
	conv.UpdatedAt = m.tick()
	m.conversations[conv.ID] = cloneConversation(*conv)
	m.writes++
	return nil
}

func (m *memStore) DeleteConversation(_ context.Context, id, ownerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.conversations, id)
	return nil
}

// stubProvider is a scripted providers.Provider that records what it was sent.
type stubProvider struct {
	name    models.ModelProvider
	reply   string
	genErr  error
	catalog []models.ModelDescriptor
	listErr error

	mu         sync.Mutex
	histories  [][]models.CanonicalMessage
	modelNames []string
}

var _ providers.Provider = (*stubProvider)(nil)

func (p *stubProvider) Name() models.ModelProvider { return p.name }

func (p *stubProvider) GenerateResponse(_ context.Context, history []models.CanonicalMessage, modelName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histories = append(p.histories, append([]models.CanonicalMessage{}, history...))
	p.modelNames = append(p.modelNames, modelName)
	if p.genErr != nil {
		return "", p.genErr
	}
	return p.reply, nil
}

func (p *stubProvider) ListModels(context.Context) ([]models.ModelDescriptor, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.catalog, nil
}

func (p *stubProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.histories)
}

var errProviderDown = &providers.UpstreamError{Provider: "OpenAI", Op: providers.OpGenerate, Cause: errors.New("503 from upstream")}

func newTestRegistry(ps ...*stubProvider) *providers.Registry {
	reg := providers.NewRegistry(zap.NewNop())
	for _, p := range ps {
		reg.Register(p)
	}
	return reg
}
