package infrastructure

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"movie-recommender/src/domain"
)

// LoadMoviesCSV читает фильмы из CSV файла. Ожидаются колонки id, title,
// overview, genres, keywords; жанры и ключевые слова — JSON-массивы
// объектов с полем name (формат выгрузки TMDB). Отсутствующие колонки
// дают пустые значения.
func LoadMoviesCSV(path string) ([]domain.Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть CSV файл: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать заголовок CSV: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		return nil, fmt.Errorf("%w: в CSV нет колонки title", domain.ErrInvalidArgument)
	}

	var movies []domain.Movie
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения строки CSV: %w", err)
		}

		movie := domain.Movie{
			ID:       cell(row, columns, "id"),
			Title:    cell(row, columns, "title"),
			Overview: cell(row, columns, "overview"),
		}
		if movie.ID == "" {
			movie.ID = fmt.Sprintf("movie_%d", len(movies)+1)
		}

		movie.Genres = parseTags(cell(row, columns, "genres"))
		movie.Keywords = parseTags(cell(row, columns, "keywords"))

		movies = append(movies, movie)
	}

	return movies, nil
}

// cell возвращает значение колонки строки или пустую строку
func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseTags разбирает JSON-массив именованных сущностей; некорректный
// или пустой JSON дает пустой список
func parseTags(raw string) []domain.Tag {
	if raw == "" {
		return nil
	}
	var tags []domain.Tag
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}
