package application

import "movie-recommender/src/domain"

// RecommendationService интерфейс сервиса рекомендаций для внешних слоев
// (HTTP-обработчики, отчеты)
type RecommendationService interface {
	// Ready сообщает, загружен ли снимок движка
	Ready() bool

	// Recommend возвращает ранжированные рекомендации по названию фильма
	Recommend(title string, topN int) (*domain.RecommendationResult, error)

	// SearchTitles возвращает названия фильмов по подстроке запроса
	SearchTitles(q string, limit int) ([]string, error)

	// ListMovies возвращает страницу фильмов с фильтром по названию
	ListMovies(offset, limit int, search string) ([]domain.Movie, int, error)
}
