package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/rungroop/models"
)

func newRace(title, city string) *models.Race {
	return &models.Race{
		Title:         title,
		Description:   title + " description",
		ImageURL:      "https://cdn.example.com/races/" + title + ".jpg",
		ImagePublicID: "races/" + title + ".jpg",
		Category:      models.CategoryTenK,
		Address:       models.Address{Street: "1 Main St", City: city, State: "IL"},
	}
}

func TestRacesAddAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRaces(newTestDB(t))

	owner := int64(42)
	race := newRace("lakefront", "Chicago")
	race.AppUserID = &owner

	ok, err := repo.Add(ctx, race)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotZero(t, race.ID)

	got, err := repo.GetByID(ctx, race.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, race.Title, got.Title)
	assert.Equal(t, race.Address, got.Address)
	assert.Equal(t, race.ImagePublicID, got.ImagePublicID)
	require.NotNil(t, got.AppUserID)
	assert.Equal(t, owner, *got.AppUserID)
}

func TestRacesGetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewRaces(newTestDB(t))

	got, err := repo.GetByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, found, err := repo.GetSnapshot(ctx, 99)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRacesSnapshotIsDetached(t *testing.T) {
	ctx := context.Background()
	repo := NewRaces(newTestDB(t))

	race := newRace("river", "Springfield")
	_, err := repo.Add(ctx, race)
	require.NoError(t, err)

	snap, found, err := repo.GetSnapshot(ctx, race.ID)
	require.NoError(t, err)
	require.True(t, found)

	snap.Title = "changed locally"

	got, err := repo.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, "river", got.Title)
}

func TestRacesUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewRaces(newTestDB(t))

	race := newRace("old", "Boston")
	_, err := repo.Add(ctx, race)
	require.NoError(t, err)

	updated := newRace("new", "Cambridge")
	updated.ID = race.ID
	ok, err := repo.Update(ctx, updated)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "Cambridge", got.Address.City)

	missing := newRace("ghost", "Nowhere")
	missing.ID = race.ID + 100
	ok, err = repo.Update(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRacesDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRaces(newTestDB(t))

	race := newRace("gone", "Austin")
	_, err := repo.Add(ctx, race)
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, race)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err = repo.Delete(ctx, race)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRacesFindByCity(t *testing.T) {
	ctx := context.Background()
	repo := NewRaces(newTestDB(t))

	for _, r := range []*models.Race{
		newRace("a", "Springfield"),
		newRace("b", "West Springfield"),
		newRace("c", "SPRINGFIELD"),
		newRace("d", "Shelbyville"),
		newRace("e", "Spring_field"),
	} {
		_, err := repo.Add(ctx, r)
		require.NoError(t, err)
	}

	collect := func(city string) []string {
		races, err := repo.FindByCity(ctx, city)
		require.NoError(t, err)
		out := make([]string, 0, len(races))
		for _, r := range races {
			out = append(out, r.Title)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, collect("springfield"))
	assert.Equal(t, []string{"d"}, collect("shelby"))
	// An underscore matches only itself.
	assert.Equal(t, []string{"e"}, collect("g_f"))
	assert.Empty(t, collect("%"))
	assert.Len(t, collect(""), 5)
}

func TestRacesGetAllAndListByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewRaces(newTestDB(t))

	alice, bob := int64(1), int64(2)
	for i, owner := range []*int64{&alice, &bob, &alice, nil} {
		r := newRace(string(rune('a'+i)), "Denver")
		r.AppUserID = owner
		_, err := repo.Add(ctx, r)
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a", mine[0].Title)
	assert.Equal(t, "c", mine[1].Title)
}

func TestRacesStoresLongText(t *testing.T) {
	ctx := context.Background()
	repo := NewRaces(newTestDB(t))

	race := newRace("long", "Chicago")
	race.Description = strings.Repeat("d", 4000)
	race.ImageURL = "https://cdn.example.com/races/" + strings.Repeat("u", 400) + ".jpg"

	ok, err := repo.Add(ctx, race)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, race.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, race.Description, got.Description)
	assert.Equal(t, race.ImageURL, got.ImageURL)
}
