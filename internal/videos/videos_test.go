package videos

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/nexaforge/internal/errs"
)

func TestVaultStartsWithShowcase(t *testing.T) {
	list := NewVault(nil).List()
	require.Len(t, list, 2)
	assert.Equal(t, "React Performance Talk", list[0].Title)
	assert.Equal(t, "Leadership Demo", list[1].Title)
}

func TestAddPrepends(t *testing.T) {
	v := NewVault(nil)

	added, err := v.Add(Upload{Title: " New Skill Showcase ", Duration: "0:30", Tags: []string{"AI", "Python"}})
	require.NoError(t, err)
	assert.Equal(t, "New Skill Showcase", added.Title)

	id, err := uuid.Parse(added.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	list := v.List()
	require.Len(t, list, 3)
	assert.Equal(t, added.ID, list[0].ID)
}

func TestAddValidation(t *testing.T) {
	v := NewVault(nil)

	_, err := v.Add(Upload{Title: "   "})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	_, err = v.Add(Upload{Title: "Demo", Tags: []string{"ok", ""}})
	assert.True(t, errs.IsValidation(err))

	assert.Len(t, v.List(), 2)
}

func TestRemove(t *testing.T) {
	v := NewVault(nil)

	assert.True(t, v.Remove("1"))
	assert.False(t, v.Remove("1"))

	list := v.List()
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].ID)
}
