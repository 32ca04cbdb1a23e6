package infrastructure

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"movie-recommender/src/domain"
)

// SQLiteMovieRepository реализация хранилища фильмов на SQLite
type SQLiteMovieRepository struct {
	db *sqlx.DB
}

// NewSQLiteMovieRepository создает новый экземпляр репозитория
func NewSQLiteMovieRepository(dbPath string) (*SQLiteMovieRepository, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	repo := &SQLiteMovieRepository{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("не удалось инициализировать схему: %w", err)
	}

	return repo, nil
}

// initSchema инициализирует схему базы данных
func (r *SQLiteMovieRepository) initSchema() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			overview TEXT NOT NULL DEFAULT '',
			genres TEXT NOT NULL DEFAULT '[]',
			keywords TEXT NOT NULL DEFAULT '[]',
			rowpos INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Индекс для поиска по названию
		`CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title)`,
	}

	for _, tableSQL := range tables {
		if _, err := r.db.Exec(tableSQL); err != nil {
			log.Printf("Ошибка выполнения SQL: %s, ошибка: %v", tableSQL, err)
			return fmt.Errorf("ошибка при создании таблицы: %w", err)
		}
	}

	return nil
}

// SaveMovies сохраняет набор фильмов одной транзакцией.
// Порядок вставки фиксируется в rowpos: индексы строк матрицы сходств
// должны совпадать с порядком корпуса.
func (r *SQLiteMovieRepository) SaveMovies(movies []domain.Movie) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO movies (id, title, overview, genres, keywords, rowpos)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("не удалось подготовить SQL для фильма: %w", err)
	}
	defer stmt.Close()

	for i, movie := range movies {
		genres, err := json.Marshal(movie.Genres)
		if err != nil {
			return fmt.Errorf("не удалось сериализовать жанры фильма %s: %w", movie.ID, err)
		}
		keywords, err := json.Marshal(movie.Keywords)
		if err != nil {
			return fmt.Errorf("не удалось сериализовать ключевые слова фильма %s: %w", movie.ID, err)
		}

		if _, err := stmt.Exec(movie.ID, movie.Title, movie.Overview, string(genres), string(keywords), i); err != nil {
			return fmt.Errorf("не удалось вставить фильм %s: %w", movie.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}

	return nil
}

// GetAllMovies возвращает все фильмы в порядке вставки
func (r *SQLiteMovieRepository) GetAllMovies() ([]domain.Movie, error) {
	rows, err := r.db.Queryx("SELECT id, title, overview, genres, keywords FROM movies ORDER BY rowpos")
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var movies []domain.Movie
	for rows.Next() {
		var movie domain.Movie
		var genres, keywords string
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.Overview, &genres, &keywords); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}

		if err := json.Unmarshal([]byte(genres), &movie.Genres); err != nil {
			return nil, fmt.Errorf("не удалось разобрать жанры фильма %s: %w", movie.ID, err)
		}
		if err := json.Unmarshal([]byte(keywords), &movie.Keywords); err != nil {
			return nil, fmt.Errorf("не удалось разобрать ключевые слова фильма %s: %w", movie.ID, err)
		}

		movies = append(movies, movie)
	}

	return movies, nil
}

// DeleteMovie удаляет фильм по ID
func (r *SQLiteMovieRepository) DeleteMovie(id string) error {
	if _, err := r.db.Exec("DELETE FROM movies WHERE id=?", id); err != nil {
		return fmt.Errorf("ошибка удаления фильма: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных
func (r *SQLiteMovieRepository) Close() error {
	return r.db.Close()
}
