package engine

import (
	"fmt"
	"sort"
	"strings"

	"movie-recommender/src/domain"
)

// CanonicalFields канонический порядок текстовых полей фильма.
// Признаки всегда склеиваются в этом порядке независимо от порядка
// включённых полей.
var CanonicalFields = []string{"title", "overview", "genres", "keywords"}

// Compose собирает из полей фильма одну нормализованную строку признаков.
// enabledFields — поля, реально присутствующие в исходной таблице
// (подмножество CanonicalFields). Функция чистая и детерминированная:
// одинаковый вход всегда даёт побайтово одинаковую строку, отсутствующие
// поля дают пустую строку.
func Compose(movie domain.Movie, enabledFields []string) string {
	enabled := make(map[string]bool, len(enabledFields))
	for _, f := range enabledFields {
		enabled[f] = true
	}

	parts := make([]string, 0, len(CanonicalFields))
	for _, field := range CanonicalFields {
		if !enabled[field] {
			continue
		}
		parts = append(parts, composeField(fieldValue(movie, field)))
	}

	return strings.Join(parts, " ")
}

// ComposeAll собирает строки признаков для всего корпуса, сохраняя порядок строк
func ComposeAll(movies []domain.Movie, enabledFields []string) []string {
	features := make([]string, len(movies))
	for i, movie := range movies {
		features[i] = Compose(movie, enabledFields)
	}
	return features
}

// fieldValue возвращает значение канонического поля фильма
func fieldValue(movie domain.Movie, field string) any {
	switch field {
	case "title":
		return movie.Title
	case "overview":
		return movie.Overview
	case "genres":
		return movie.Genres
	case "keywords":
		return movie.Keywords
	default:
		return nil
	}
}

// composeField приводит значение поля к текстовому виду. Поддерживается
// закрытое множество форм: скалярный текст, последовательность именованных
// сущностей и произвольное отображение. Пустые и отсутствующие значения
// дают пустую строку.
func composeField(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []domain.Tag:
		names := make([]string, len(v))
		for i, tag := range v {
			names[i] = tag.Name
		}
		return strings.Join(names, " ")
	case []string:
		return strings.Join(v, " ")
	case map[string]string:
		// Порядок ключей фиксируем сортировкой, иначе результат недетерминирован
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]string, len(keys))
		for i, k := range keys {
			values[i] = v[k]
		}
		return strings.Join(values, " ")
	default:
		return fmt.Sprint(v)
	}
}
