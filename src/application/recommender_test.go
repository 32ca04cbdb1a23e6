package application

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommender/src/domain"
	"movie-recommender/src/engine"
)

func builtService(t *testing.T) *RecommenderService {
	t.Helper()

	movies := []domain.Movie{
		{ID: "m1", Title: "Space Hero", Overview: "space adventure hero"},
		{ID: "m2", Title: "Space Villain", Overview: "space adventure villain"},
		{ID: "m3", Title: "Sweet Bakery", Overview: "cooking recipe dessert"},
	}

	features := engine.ComposeAll(movies, []string{"overview"})
	v := engine.NewVectorizer(plainOptions())
	vectors, err := v.FitTransform(features)
	require.NoError(t, err)

	service := NewRecommenderService()
	require.NoError(t, service.Rebuild(movies, engine.NewVectorizerBundle(v, vectors)))
	return service
}

func TestServiceNotReady(t *testing.T) {
	service := NewRecommenderService()
	assert.False(t, service.Ready())

	_, err := service.Recommend("anything", 5)
	assert.True(t, errors.Is(err, domain.ErrEngineNotReady))

	_, _, err = service.ListMovies(0, 10, "")
	assert.True(t, errors.Is(err, domain.ErrEngineNotReady))
}

func TestRecommend(t *testing.T) {
	service := builtService(t)
	assert.True(t, service.Ready())

	// Поиск по подстроке без учета регистра
	result, err := service.Recommend("space hero", 2)
	require.NoError(t, err)

	assert.Equal(t, "Space Hero", result.QueryTitle)
	assert.Equal(t, 3, result.TotalMovies)
	require.Len(t, result.Recommendations, 2)

	// Сам фильм-запрос исключен, ближайший — лексический сосед
	first := result.Recommendations[0]
	assert.Equal(t, "Space Villain", first.Title)
	assert.NotEqual(t, "Space Hero", first.Title)

	// Оценки округлены до 4 знаков и убывают
	for i, rec := range result.Recommendations {
		assert.InDelta(t, rec.SimilarityScore, math.Round(rec.SimilarityScore*10000)/10000, 1e-12)
		if i > 0 {
			assert.LessOrEqual(t, rec.SimilarityScore, result.Recommendations[i-1].SimilarityScore)
		}
	}
}

func TestRecommendErrors(t *testing.T) {
	service := builtService(t)

	_, err := service.Recommend("space hero", 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	_, err = service.Recommend("неизвестный фильм", 5)
	assert.True(t, errors.Is(err, domain.ErrMovieNotFound))
}

func TestRecommendTruncatesToCorpus(t *testing.T) {
	service := builtService(t)

	// Запрошено больше, чем есть соседей: возвращаются все кроме самого фильма
	result, err := service.Recommend("bakery", 10)
	require.NoError(t, err)
	assert.Len(t, result.Recommendations, 2)
}

func TestRebuildValidation(t *testing.T) {
	service := NewRecommenderService()

	v := engine.NewVectorizer(plainOptions())
	vectors, err := v.FitTransform([]string{"aa bb", "aa cc"})
	require.NoError(t, err)
	bundle := engine.NewVectorizerBundle(v, vectors)

	// Пустой корпус
	assert.True(t, errors.Is(service.Rebuild(nil, bundle), domain.ErrInsufficientData))

	// Матрица 2x2 не соответствует трем фильмам
	movies := []domain.Movie{{Title: "A"}, {Title: "B"}, {Title: "C"}}
	assert.True(t, errors.Is(service.Rebuild(movies, bundle), domain.ErrInvalidArgument))
	assert.False(t, service.Ready())
}

func TestSearchTitles(t *testing.T) {
	service := builtService(t)

	// Поиск по подстроке без учета регистра, порядок корпуса сохраняется
	titles, err := service.SearchTitles("SPACE", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Space Hero", "Space Villain"}, titles)

	// Результат усекается до limit
	titles, err = service.SearchTitles("space", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Space Hero"}, titles)

	// Пустой запрос совпадает со всеми названиями
	titles, err = service.SearchTitles("", 10)
	require.NoError(t, err)
	assert.Len(t, titles, 3)

	// Нет совпадений — пустой список, не ошибка
	titles, err = service.SearchTitles("нет такого", 10)
	require.NoError(t, err)
	assert.Empty(t, titles)

	_, err = service.SearchTitles("space", 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestSearchTitlesNotReady(t *testing.T) {
	service := NewRecommenderService()

	_, err := service.SearchTitles("space", 10)
	assert.True(t, errors.Is(err, domain.ErrEngineNotReady))
}

func TestListMovies(t *testing.T) {
	service := builtService(t)

	// Страница без фильтра
	page, total, err := service.ListMovies(0, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Space Hero", page[0].Title)

	// Смещение за пределы последней страницы
	page, total, err = service.ListMovies(5, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, page)

	// Фильтр по подстроке названия
	page, total, err = service.ListMovies(0, 10, "space")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 2)

	_, _, err = service.ListMovies(-1, 10, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}
