package session

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"testagent/internal/events"
	"testagent/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func sampleProject() *models.Project {
	return &models.Project{
		ID:                "65f0c1",
		ProjectID:         "proj-42",
		Name:              "Checkout",
		Description:       "Checkout service",
		Repository:        "https://github.com/acme/checkout",
		FRDDocuments:      []string{"frd.pdf"},
		UserStories:       []string{"As a buyer I can pay"},
		PostmanCollection: "collection.json",
		ProjectURL:        "https://checkout.acme.test",
		UserID:            "u-1",
		IsActive:          true,
		CreatedAt:         time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC),
	}
}

func TestStore_ProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store := New(NewFileStorage(dir))
	want := sampleProject()
	require.NoError(t, store.SetProject(want))

	fresh := New(NewFileStorage(dir))
	assert.Equal(t, want, fresh.Project())
}

func TestStore_UserRoundTrip(t *testing.T) {
	storage := NewMemoryStorage()

	store := New(storage)
	want := &models.UserProfile{ID: "u-1", Email: "dev@acme.test", Name: "Dev"}
	require.NoError(t, store.SetUser(want))

	assert.Equal(t, want, New(storage).User())
}

func TestStore_MalformedHydratesToNil(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"truncated json", `{"id": "x", "name": `},
		{"wrong type", `[1, 2, 3]`},
		{"empty", ``},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			require.NoError(t, storage.Set(KeyProject, []byte(tt.value)))
			require.NoError(t, storage.Set(KeyUser, []byte(tt.value)))

			var store *Store
			require.NotPanics(t, func() { store = New(storage) })
			assert.Nil(t, store.Project())
			assert.Nil(t, store.User())
		})
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := New(NewMemoryStorage())
	require.NoError(t, store.SetProject(sampleProject()))

	p := store.Project()
	p.Name = "mutated"

	assert.Equal(t, "Checkout", store.Project().Name)
}

func TestStore_Token(t *testing.T) {
	dir := t.TempDir()
	store := New(NewFileStorage(dir))

	assert.False(t, store.Authenticated())
	assert.Nil(t, store.Token())

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetToken(&oauth2.Token{AccessToken: "secret", Expiry: expiry}))
	assert.True(t, store.Authenticated())

	raw, err := os.ReadFile(filepath.Join(dir, KeyToken))
	require.NoError(t, err)
	assert.Equal(t, "secret", string(raw))

	info, err := os.Stat(filepath.Join(dir, KeyToken))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	fresh := New(NewFileStorage(dir))
	tok := fresh.Token()
	require.NotNil(t, tok)
	assert.Equal(t, "secret", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.True(t, expiry.Equal(tok.Expiry))

	require.NoError(t, store.SetToken(nil))
	assert.False(t, store.Authenticated())
	assert.False(t, New(NewFileStorage(dir)).Authenticated())
}

func TestStore_LogoutPurgesCredentialsAndPublishesOnce(t *testing.T) {
	storage := NewMemoryStorage()
	store := New(storage)
	require.NoError(t, store.SetToken(&oauth2.Token{AccessToken: "secret"}))
	require.NoError(t, store.SetUser(&models.UserProfile{ID: "u-1"}))
	require.NoError(t, store.SetProject(sampleProject()))

	var got []events.LogoutEvent
	store.OnLogout(func(e events.LogoutEvent) { got = append(got, e) })

	require.NoError(t, store.Logout(events.LogoutUnauthorized))

	_, ok, _ := storage.Get(KeyToken)
	assert.False(t, ok, "auth_token must be removed")
	_, ok, _ = storage.Get(KeyUser)
	assert.False(t, ok, "user must be removed")
	_, ok, _ = storage.Get(KeyProject)
	assert.True(t, ok, "project survives a logout")

	assert.False(t, store.Authenticated())
	assert.Nil(t, store.User())
	require.Len(t, got, 1)
	assert.Equal(t, events.LogoutUnauthorized, got[0].Reason)
}

func TestStore_RepeatedUnauthorizedLogoutPublishesOnce(t *testing.T) {
	store := New(NewMemoryStorage())
	require.NoError(t, store.SetToken(&oauth2.Token{AccessToken: "expired"}))

	var published int32
	store.OnLogout(func(events.LogoutEvent) { atomic.AddInt32(&published, 1) })

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Logout(events.LogoutUnauthorized))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&published))

	require.NoError(t, store.Logout(events.LogoutUser))
	assert.Equal(t, int32(2), atomic.LoadInt32(&published), "an explicit logout always publishes")
}

func TestStore_Clear(t *testing.T) {
	storage := NewMemoryStorage()
	store := New(storage)
	require.NoError(t, store.SetToken(&oauth2.Token{AccessToken: "secret"}))
	require.NoError(t, store.SetUser(&models.UserProfile{ID: "u-1"}))
	require.NoError(t, store.SetProject(sampleProject()))

	published := 0
	store.OnLogout(func(events.LogoutEvent) { published++ })

	require.NoError(t, store.Clear())

	for _, key := range []string{KeyToken, KeyUser, KeyProject} {
		_, ok, _ := storage.Get(key)
		assert.False(t, ok, "%s must be removed", key)
	}
	assert.Nil(t, store.Project())
	assert.Equal(t, 0, published)
}

func TestStore_SetNilRemovesKey(t *testing.T) {
	storage := NewMemoryStorage()
	store := New(storage)
	require.NoError(t, store.SetProject(sampleProject()))
	require.NoError(t, store.SetProject(nil))

	_, ok, _ := storage.Get(KeyProject)
	assert.False(t, ok)
	assert.Nil(t, store.Project())
}
