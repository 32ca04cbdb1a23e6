package application

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"movie-recommender/src/domain"
	"movie-recommender/src/engine"
)

// engineSnapshot неизменяемый снимок загруженной модели: корпус фильмов
// и матрица попарных сходств. Никогда не изменяется после создания.
type engineSnapshot struct {
	movies []domain.Movie
	matrix engine.Matrix
}

// RecommenderService сервис рекомендаций. Снимок движка хранится за
// атомарным указателем и подменяется целиком при перестроении — обработчики
// запросов всегда видят согласованное состояние.
type RecommenderService struct {
	snapshot atomic.Pointer[engineSnapshot]
}

// NewRecommenderService создает сервис без загруженной модели
func NewRecommenderService() *RecommenderService {
	return &RecommenderService{}
}

// Ready сообщает, загружен ли снимок движка
func (s *RecommenderService) Ready() bool {
	return s.snapshot.Load() != nil
}

// Rebuild строит новый снимок из корпуса фильмов и обученного бандла
// и атомарно подменяет текущий
func (s *RecommenderService) Rebuild(movies []domain.Movie, bundle *engine.ModelBundle) error {
	if len(movies) == 0 {
		return fmt.Errorf("%w: пустой корпус фильмов", domain.ErrInsufficientData)
	}

	matrix := bundle.SimilarityMatrix()
	if matrix.Rows() != len(movies) {
		return fmt.Errorf("%w: матрица %dx%d не соответствует корпусу из %d фильмов",
			domain.ErrInvalidArgument, matrix.Rows(), matrix.Cols(), len(movies))
	}

	s.snapshot.Store(&engineSnapshot{
		movies: movies,
		matrix: matrix,
	})
	return nil
}

// Recommend возвращает topN фильмов, наиболее похожих на фильм с указанным
// названием. Поиск названия — по подстроке без учета регистра, берется
// первое совпадение. Отсутствие фильма (ErrMovieNotFound) отличается от
// незагруженного движка (ErrEngineNotReady).
func (s *RecommenderService) Recommend(title string, topN int) (*domain.RecommendationResult, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top_n=%d", domain.ErrInvalidArgument, topN)
	}

	snap := s.snapshot.Load()
	if snap == nil {
		return nil, domain.ErrEngineNotReady
	}

	query := strings.ToLower(strings.TrimSpace(title))
	idx := -1
	for i, movie := range snap.movies {
		if strings.Contains(strings.ToLower(movie.Title), query) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrMovieNotFound, title)
	}

	top, err := engine.TopN(snap.matrix, idx, topN, true)
	if err != nil {
		return nil, err
	}

	recommendations := make([]domain.RankedRecommendation, len(top))
	for i, col := range top {
		movie := snap.movies[col.Index]
		recommendations[i] = domain.RankedRecommendation{
			ItemID:          movie.ID,
			Title:           movie.Title,
			SimilarityScore: round4(col.Score),
			Overview:        movie.Overview,
			Genres:          movie.Genres,
		}
	}

	return &domain.RecommendationResult{
		QueryTitle:      snap.movies[idx].Title,
		Recommendations: recommendations,
		TotalMovies:     len(snap.movies),
	}, nil
}

// SearchTitles возвращает не более limit названий фильмов, содержащих
// подстроку q без учета регистра, в порядке корпуса. Пустой запрос
// совпадает со всеми названиями.
func (s *RecommenderService) SearchTitles(q string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit=%d", domain.ErrInvalidArgument, limit)
	}

	snap := s.snapshot.Load()
	if snap == nil {
		return nil, domain.ErrEngineNotReady
	}

	query := strings.ToLower(strings.TrimSpace(q))
	var titles []string
	for _, movie := range snap.movies {
		if strings.Contains(strings.ToLower(movie.Title), query) {
			titles = append(titles, movie.Title)
			if len(titles) == limit {
				break
			}
		}
	}
	return titles, nil
}

// ListMovies возвращает страницу фильмов с опциональным фильтром по
// подстроке названия и общее число совпадений
func (s *RecommenderService) ListMovies(offset, limit int, search string) ([]domain.Movie, int, error) {
	if offset < 0 || limit < 0 {
		return nil, 0, fmt.Errorf("%w: offset=%d, limit=%d", domain.ErrInvalidArgument, offset, limit)
	}

	snap := s.snapshot.Load()
	if snap == nil {
		return nil, 0, domain.ErrEngineNotReady
	}

	matched := snap.movies
	if search != "" {
		q := strings.ToLower(search)
		matched = nil
		for _, movie := range snap.movies {
			if strings.Contains(strings.ToLower(movie.Title), q) {
				matched = append(matched, movie)
			}
		}
	}

	total := len(matched)
	if offset >= total {
		return []domain.Movie{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// round4 округляет оценку до 4 знаков для представления
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
