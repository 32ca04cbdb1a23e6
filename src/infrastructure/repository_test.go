package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommender/src/domain"
)

func memoryRepo(t *testing.T) *SQLiteMovieRepository {
	t.Helper()

	repo, err := NewSQLiteMovieRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndGetMovies(t *testing.T) {
	repo := memoryRepo(t)

	movies := []domain.Movie{
		{
			ID:       "m1",
			Title:    "Space Hero",
			Overview: "space adventure hero",
			Genres:   []domain.Tag{{Name: "SciFi"}, {Name: "Action"}},
			Keywords: []domain.Tag{{Name: "space"}},
		},
		{ID: "m2", Title: "Sweet Bakery", Overview: "cooking dessert"},
	}
	require.NoError(t, repo.SaveMovies(movies))

	loaded, err := repo.GetAllMovies()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Порядок корпуса сохраняется: индексы матрицы сходств от него зависят
	assert.Equal(t, "m1", loaded[0].ID)
	assert.Equal(t, "m2", loaded[1].ID)
	assert.Equal(t, "space adventure hero", loaded[0].Overview)
	assert.Equal(t, []domain.Tag{{Name: "SciFi"}, {Name: "Action"}}, loaded[0].Genres)
	assert.Equal(t, []domain.Tag{{Name: "space"}}, loaded[0].Keywords)
	assert.Empty(t, loaded[1].Genres)
}

func TestSaveMoviesUpsert(t *testing.T) {
	repo := memoryRepo(t)

	require.NoError(t, repo.SaveMovies([]domain.Movie{{ID: "m1", Title: "Old Title"}}))
	require.NoError(t, repo.SaveMovies([]domain.Movie{{ID: "m1", Title: "New Title"}}))

	loaded, err := repo.GetAllMovies()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "New Title", loaded[0].Title)
}

func TestDeleteMovie(t *testing.T) {
	repo := memoryRepo(t)

	require.NoError(t, repo.SaveMovies([]domain.Movie{
		{ID: "m1", Title: "First"},
		{ID: "m2", Title: "Second"},
	}))
	require.NoError(t, repo.DeleteMovie("m1"))

	loaded, err := repo.GetAllMovies()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "m2", loaded[0].ID)

	// Удаление несуществующего ID не ошибка
	assert.NoError(t, repo.DeleteMovie("нет такого"))
}

func TestGetAllMoviesEmpty(t *testing.T) {
	repo := memoryRepo(t)

	loaded, err := repo.GetAllMovies()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
