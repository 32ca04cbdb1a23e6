package application

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommender/src/domain"
)

func searchCorpus() []string {
	return []string{
		"space adventure hero",
		"space adventure villain",
		"space cooking recipe",
		"adventure cooking dessert",
	}
}

func TestSearchEnumeratesFullGrid(t *testing.T) {
	grid := Grid{
		MaxTerms:    []int{10, 20, 30},
		NGramRanges: [][2]int{{1, 1}, {1, 2}},
		MinDF:       []int{1, 2},
	}

	selector := NewModelSelector(plainOptions())
	best, candidates, err := selector.Search(searchCorpus(), grid)
	require.NoError(t, err)

	// Запись на каждую комбинацию: 3 * 2 * 2
	require.Len(t, candidates, 12)
	require.NotNil(t, best)

	// Лучший не хуже любого обучившегося кандидата
	for _, c := range candidates {
		require.False(t, c.Skipped)
		assert.GreaterOrEqual(t, best.Score, c.Score)
	}

	// Составная оценка: 0.7*avg_similarity + 0.3*density
	assert.InDelta(t, 0.7*best.AvgSimilarity+0.3*best.Density, best.Score, 1e-9)
	assert.Contains(t, best.Parameters, "max_f=")
	assert.Contains(t, best.Parameters, "min_df=")
}

func TestSearchRecordsFailures(t *testing.T) {
	grid := Grid{
		MaxTerms:    []int{10},
		NGramRanges: [][2]int{{1, 1}},
		MinDF:       []int{1, 100},
	}

	selector := NewModelSelector(plainOptions())
	best, candidates, err := selector.Search(searchCorpus(), grid)
	require.NoError(t, err)
	require.NotNil(t, best)

	// Ошибка одной комбинации не фатальна: она записана и пропущена
	require.Len(t, candidates, 2)
	assert.False(t, candidates[0].Skipped)
	assert.True(t, candidates[1].Skipped)
	assert.NotEmpty(t, candidates[1].Error)
	assert.True(t, strings.Contains(candidates[1].Parameters, "min_df=100"))
}

func TestSearchAllCandidatesFail(t *testing.T) {
	grid := Grid{
		MaxTerms:    []int{10},
		NGramRanges: [][2]int{{1, 1}},
		MinDF:       []int{100},
	}

	selector := NewModelSelector(plainOptions())
	best, candidates, err := selector.Search([]string{"aa bb"}, grid)

	assert.Nil(t, best)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Skipped)
}

func TestSearchEmptyCorpus(t *testing.T) {
	selector := NewModelSelector(plainOptions())

	_, _, err := selector.Search(nil, DefaultGrid())
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestSearchEmptyGridFallsBackToBase(t *testing.T) {
	base := plainOptions()
	base.MaxTerms = 50

	selector := NewModelSelector(base)
	best, candidates, err := selector.Search(searchCorpus(), Grid{})
	require.NoError(t, err)

	// Пустая сетка дает единственную комбинацию из базовых параметров
	require.Len(t, candidates, 1)
	assert.Equal(t, 50, best.Options.MaxTerms)
}

func TestBestCandidateBundle(t *testing.T) {
	grid := Grid{
		MaxTerms:    []int{10},
		NGramRanges: [][2]int{{1, 1}},
		MinDF:       []int{1},
	}

	selector := NewModelSelector(plainOptions())
	best, _, err := selector.Search(searchCorpus(), grid)
	require.NoError(t, err)

	bundle := best.Bundle()
	assert.Equal(t, 4, bundle.SimilarityMatrix().Rows())
	assert.NotNil(t, bundle.Vectorizer())
}

func TestCompareConfigurations(t *testing.T) {
	narrow := plainOptions()
	narrow.MaxTerms = 2

	broken := plainOptions()
	broken.MinDF = 100

	configs := []NamedOptions{
		{Name: "baseline", Options: plainOptions()},
		{Name: "narrow", Options: narrow},
		{Name: "broken", Options: broken},
	}

	summaries, winner, err := CompareConfigurations(searchCorpus(), configs, 10)
	require.NoError(t, err)

	// Необучившаяся конфигурация пропущена, остальные получили сводки
	require.Len(t, summaries, 2)
	assert.Equal(t, "baseline", summaries[0].Name)
	assert.Equal(t, "narrow", summaries[1].Name)

	// Победитель не хуже любой сводки; при равенстве — встретившийся раньше
	for _, s := range summaries {
		assert.GreaterOrEqual(t, winner.SuccessRate, s.SuccessRate)
	}
	if summaries[0].SuccessRate >= summaries[1].SuccessRate {
		assert.Equal(t, "baseline", winner.Name)
	}
}

func TestCompareConfigurationsErrors(t *testing.T) {
	_, _, err := CompareConfigurations(nil, []NamedOptions{{Name: "baseline", Options: plainOptions()}}, 10)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))

	// Все конфигурации не обучились — сравнивать нечего
	broken := plainOptions()
	broken.MinDF = 100
	_, _, err = CompareConfigurations(searchCorpus(), []NamedOptions{{Name: "broken", Options: broken}}, 10)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestCompareModels(t *testing.T) {
	best, err := CompareModels([]ModelSummary{
		{Name: "baseline", SuccessRate: 0.6},
		{Name: "custom", SuccessRate: 0.8},
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", best.Name)

	// При равенстве побеждает встретившаяся раньше
	best, err = CompareModels([]ModelSummary{
		{Name: "baseline", SuccessRate: 0.7},
		{Name: "custom", SuccessRate: 0.7},
	})
	require.NoError(t, err)
	assert.Equal(t, "baseline", best.Name)

	_, err = CompareModels(nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}
