package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmatch/internal/database"
	"bookmatch/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())
	return db
}

func TestChildRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewChildRepository(db)

	ada, err := repo.CreateChild("Ada", 8)
	require.NoError(t, err)
	assert.NotZero(t, ada.ID)
	assert.False(t, ada.HasProfile())

	_, err = repo.CreateChild("Ben", 11)
	require.NoError(t, err)

	got, err := repo.GetChildByID(ada.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, 8, got.Age)

	missing, err := repo.GetChildByID(9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.UpdateProfile(ada.ID, `{"mode":"grid"}`))
	require.NoError(t, repo.UpdateChild(ada.ID, "Ada L.", 9))

	got, err = repo.GetChildByID(ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, 9, got.Age)
	assert.True(t, got.HasProfile())

	all, err := repo.GetAllChildren()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ada.ID, all[0].ID)

	assert.ErrorIs(t, repo.UpdateProfile(9999, "{}"), ErrNotFound)

	require.NoError(t, repo.DeleteChild(ada.ID))
	assert.ErrorIs(t, repo.DeleteChild(ada.ID), ErrNotFound)
}

func TestReadingRepository(t *testing.T) {
	db := newTestDB(t)
	child, err := NewChildRepository(db).CreateChild("Ada", 8)
	require.NoError(t, err)

	repo := NewReadingRepository(db)
	records := []models.ReadingRecord{
		{Title: "Matilda", Author: "Roald Dahl", Genre: "humor", BorrowDate: "2024-01-10"},
		{Title: "Wonder", Author: "R. J. Palacio", Genre: "growing-up", BorrowDate: "2024-02-01"},
	}
	require.NoError(t, repo.ReplaceHistory(child.ID, records))

	history, err := repo.GetHistory(child.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Matilda", history[0].Title)
	assert.Equal(t, child.ID, history[0].ChildID)
	assert.False(t, history[0].IsRated())
	assert.Nil(t, history[0].RatedAt)

	ratedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveRatings(child.ID, map[int64]int{history[0].ID: 5}, ratedAt))

	history, err = repo.GetHistory(child.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, history[0].Rating)
	require.NotNil(t, history[0].RatedAt)
	assert.True(t, history[0].RatedAt.Equal(ratedAt))
	assert.Equal(t, 0, history[1].Rating)

	require.NoError(t, repo.ReplaceHistory(child.ID, records[:1]))
	count, err := repo.CountHistory(child.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGameRepository(t *testing.T) {
	db := newTestDB(t)
	child, err := NewChildRepository(db).CreateChild("Ada", 8)
	require.NoError(t, err)

	repo := NewGameRepository(db)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, mode := range []string{"grid", "comparison"} {
		rec := &models.GameRecord{
			SessionID:     mode + "-session",
			ChildID:       child.ID,
			Mode:          mode,
			ElapsedMs:     int64(60000 * (i + 1)),
			Efficiency:    "fast",
			SelectedBooks: []int64{3, 1, 4},
			Profile:       `{"mode":"` + mode + `"}`,
			CompletedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.RecordGame(rec))
		assert.NotZero(t, rec.ID)
	}

	games, err := repo.GetChildGames(child.ID, 0)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "comparison", games[0].Mode, "newest first")
	assert.Equal(t, []int64{3, 1, 4}, games[0].SelectedBooks)

	limited, err := repo.GetChildGames(child.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	dup := &models.GameRecord{SessionID: "grid-session", ChildID: child.ID, Mode: "grid", Profile: "{}", CompletedAt: base}
	assert.Error(t, repo.RecordGame(dup), "session ids are unique")
}

func TestSavedSessionRepositoryRetention(t *testing.T) {
	db := newTestDB(t)
	child, err := NewChildRepository(db).CreateChild("Ada", 8)
	require.NoError(t, err)

	repo := NewSavedSessionRepository(db)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		s := &models.SavedSession{
			ID:              string(rune('a' + i)),
			Kind:            models.SessionKindIndividual,
			ChildID:         &child.ID,
			Label:           "Ada",
			Recommendations: "[]",
			SavedAt:         base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.SaveSession(s, 10))
	}

	sessions, err := repo.GetSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 10)
	assert.Equal(t, "l", sessions[0].ID, "newest first")
	assert.Equal(t, "c", sessions[9].ID, "two oldest pruned")

	gone, err := repo.GetSession("a")
	require.NoError(t, err)
	assert.Nil(t, gone)

	shared := &models.SavedSession{ID: "shared", Kind: models.SessionKindShared, Label: "Ada & Ben", Recommendations: "[]", SavedAt: base.Add(time.Hour)}
	require.NoError(t, repo.SaveSession(shared, 10))

	got, err := repo.GetSession("shared")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.ChildID)
	assert.Equal(t, models.SessionKindShared, got.Kind)

	require.NoError(t, repo.DeleteSession("shared"))
	assert.ErrorIs(t, repo.DeleteSession("shared"), ErrNotFound)
}
