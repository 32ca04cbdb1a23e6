package domain

// MovieRepository интерфейс хранилища фильмов. Ядро системы работает
// с выборками в памяти; репозиторий — граница слоя загрузки данных.
type MovieRepository interface {
	// SaveMovies сохраняет набор фильмов
	SaveMovies(movies []Movie) error

	// GetAllMovies возвращает все фильмы в порядке вставки
	GetAllMovies() ([]Movie, error)

	// DeleteMovie удаляет фильм по ID
	DeleteMovie(id string) error
}
