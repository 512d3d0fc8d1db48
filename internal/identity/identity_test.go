package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/nexaforge/internal/errs"
	"github.com/spigell/nexaforge/internal/i18n"
	"github.com/spigell/nexaforge/internal/storage"
)

func TestLoginPersistsAndRestores(t *testing.T) {
	store := storage.NewMemoryStore()
	session := New(store, nil)

	user, err := session.Login(LoginRequest{Email: "jane.doe@example.com", Password: "secret", RememberMe: true})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe", user.Name)
	assert.Equal(t, DefaultAvatar, user.Avatar)
	assert.Equal(t, RoleCandidate, user.Role)

	restored := New(store, nil).Restore()
	require.True(t, restored.Authenticated)
	assert.Equal(t, "jane.doe@example.com", restored.User.Email)
}

func TestLoginWithoutRememberMeDoesNotSurviveRestore(t *testing.T) {
	store := storage.NewMemoryStore()
	session := New(store, nil)

	_, err := session.Login(LoginRequest{Name: "Jane", Email: "jane@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, session.Snapshot().Authenticated)

	_, ok, err := store.Load(UserKey)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, New(store, nil).Restore().Authenticated)
}

func TestLoginValidation(t *testing.T) {
	session := New(storage.NewMemoryStore(), nil)

	_, err := session.Login(LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.False(t, session.Snapshot().Authenticated)
}

func TestRestoreWithCorruptUser(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(AuthKey, []byte("true")))
	require.NoError(t, store.Save(UserKey, []byte("{broken")))

	snap := New(store, nil).Restore()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
}

func TestLogoutClearsStore(t *testing.T) {
	store := storage.NewMemoryStore()
	session := New(store, nil)

	_, err := session.Login(LoginRequest{Email: "jane@example.com", Password: "secret", RememberMe: true})
	require.NoError(t, err)
	require.NoError(t, session.Logout())

	for _, key := range []string{AuthKey, UserKey} {
		_, ok, err := store.Load(key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	assert.False(t, session.Snapshot().Authenticated)
}

func TestSetLocale(t *testing.T) {
	session := New(storage.NewMemoryStore(), nil)

	lang, err := session.SetLocale("ar")
	require.NoError(t, err)
	assert.Equal(t, i18n.Arabic, lang)
	assert.True(t, session.Snapshot().RTL)

	_, err = session.SetLocale("klingon")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, i18n.Arabic, session.Locale())
}

func TestRandomAvatar(t *testing.T) {
	assert.NotEqual(t, RandomAvatar(), RandomAvatar())
	assert.Contains(t, RandomAvatar(), "api.dicebear.com")
}
