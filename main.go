package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"movie-recommender/src/application"
	"movie-recommender/src/domain"
	"movie-recommender/src/engine"
	"movie-recommender/src/infrastructure"
)

func main() {
	// Определяем флаги командной строки
	configPath := flag.String("config", "config/config.yaml", "Путь к файлу конфигурации")
	dbPath := flag.String("db", "", "Путь к файлу базы данных (перекрывает конфигурацию)")
	action := flag.String("action", "demo", "Действие: import, recommend, evaluate, automl, compare, demo")
	csvPath := flag.String("csv", "", "Путь к CSV с фильмами (для действия import)")
	title := flag.String("title", "", "Название фильма (для действия recommend)")
	topN := flag.Int("top", 5, "Число рекомендаций (для действия recommend)")

	flag.Parse()

	// Загружаем конфигурацию
	config, err := infrastructure.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Конфигурация не загружена (%v), используются значения по умолчанию", err)
		config = infrastructure.DefaultConfig()
	}
	if *dbPath != "" {
		config.Data.DBPath = *dbPath
	}

	// Создаем репозиторий
	repo, err := infrastructure.NewSQLiteMovieRepository(config.Data.DBPath)
	if err != nil {
		log.Fatalf("Ошибка инициализации репозитория: %v", err)
	}
	defer repo.Close()

	switch *action {
	case "import":
		if *csvPath == "" {
			log.Fatal("Для действия 'import' требуется указать путь к CSV (-csv)")
		}
		if err := handleImport(repo, *csvPath); err != nil {
			log.Fatalf("Ошибка импорта фильмов: %v", err)
		}
	case "recommend":
		if *title == "" {
			log.Fatal("Для действия 'recommend' требуется указать название фильма (-title)")
		}
		if err := handleRecommend(repo, config, *title, *topN); err != nil {
			log.Fatalf("Ошибка получения рекомендаций: %v", err)
		}
	case "evaluate":
		if err := handleEvaluate(repo, config); err != nil {
			log.Fatalf("Ошибка оценки модели: %v", err)
		}
	case "automl":
		if err := handleAutoML(repo, config); err != nil {
			log.Fatalf("Ошибка перебора гиперпараметров: %v", err)
		}
	case "compare":
		if err := handleCompare(repo, config); err != nil {
			log.Fatalf("Ошибка сравнения моделей: %v", err)
		}
	case "demo":
		fallthrough
	default:
		if err := runDemo(); err != nil {
			log.Fatalf("Ошибка демонстрации: %v", err)
		}
	}
}

// handleImport загружает фильмы из CSV в базу данных
func handleImport(repo domain.MovieRepository, csvPath string) error {
	fmt.Printf("Импортируем фильмы из %s...\n", csvPath)

	movies, err := infrastructure.LoadMoviesCSV(csvPath)
	if err != nil {
		return fmt.Errorf("ошибка чтения CSV: %w", err)
	}
	if err := repo.SaveMovies(movies); err != nil {
		return fmt.Errorf("ошибка сохранения фильмов: %w", err)
	}

	fmt.Printf("Импортировано %d фильмов\n", len(movies))
	return nil
}

// handleRecommend строит модель по корпусу и печатает рекомендации
func handleRecommend(repo domain.MovieRepository, config infrastructure.Config, title string, topN int) error {
	movies, err := repo.GetAllMovies()
	if err != nil {
		return fmt.Errorf("ошибка загрузки корпуса: %w", err)
	}

	service, err := buildService(movies, config.ModelOptions())
	if err != nil {
		return err
	}

	result, err := service.Recommend(title, topN)
	if errors.Is(err, domain.ErrMovieNotFound) {
		fmt.Printf("Фильм '%s' не найден в корпусе\n", title)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Рекомендации для '%s':\n", result.QueryTitle)
	for i, rec := range result.Recommendations {
		fmt.Printf("  %d. [%.4f] %s\n", i+1, rec.SimilarityScore, rec.Title)
	}
	return nil
}

// handleEvaluate проводит полный цикл оценки: кросс-валидация, оценка на
// отложенной выборке, важность признаков и запись версии модели в журнал
func handleEvaluate(repo domain.MovieRepository, config infrastructure.Config) error {
	movies, err := repo.GetAllMovies()
	if err != nil {
		return fmt.Errorf("ошибка загрузки корпуса: %w", err)
	}

	features := engine.ComposeAll(movies, engine.CanonicalFields)
	titles := make([]string, len(movies))
	for i, movie := range movies {
		titles[i] = movie.Title
	}

	opts := config.ModelOptions()
	evaluator := application.NewEvaluator(opts, config.Evaluation.KValues)

	fmt.Printf("Кросс-валидация (K=%d) на %d фильмах...\n", config.Evaluation.NSplits, len(features))
	cv, err := evaluator.CrossValidate(features, config.Evaluation.NSplits)
	if err != nil {
		return fmt.Errorf("ошибка кросс-валидации: %w", err)
	}
	fmt.Printf("Recall@5 по фолдам: %.4f\n", cv.Averaged.Recall[5])

	// Отложенная выборка: детерминированное перемешивание с фиксированным зерном
	trainF, testF, trainT, testT := splitHoldout(features, titles, config.Evaluation.TestRatio)

	fmt.Printf("Оценка на отложенной выборке (%d train / %d test)...\n", len(trainF), len(testF))
	holdout, err := evaluator.EvaluateHoldout(trainF, testF, trainT, testT)
	if err != nil {
		return fmt.Errorf("ошибка оценки на отложенной выборке: %w", err)
	}

	for _, tc := range holdout.TestCases {
		fmt.Printf("  '%s' -> %v\n", tc.QueryTitle, tc.Recommendations)
	}

	// Важность признаков считается по модели, обученной на полном корпусе
	vectorizer := engine.NewVectorizer(opts)
	vectors, err := vectorizer.FitTransform(features)
	if err != nil {
		return fmt.Errorf("ошибка обучения модели для важности признаков: %w", err)
	}
	importance, err := application.FeatureImportance(vectors, vectorizer.Vocabulary(), 20)
	if err != nil {
		return fmt.Errorf("ошибка вычисления важности признаков: %w", err)
	}

	record := application.BuildModelRecord(cv, holdout, importance, "baseline_tfidf_cosine_similarity", "baseline_v1.0")
	if err := infrastructure.AppendModelVersion(config.Data.VersionsCSV, record); err != nil {
		return fmt.Errorf("ошибка записи версии модели: %w", err)
	}

	fmt.Printf("Версия модели %s записана в %s\n", record.Version, config.Data.VersionsCSV)
	return nil
}

// handleAutoML перебирает сетку гиперпараметров и печатает результаты
func handleAutoML(repo domain.MovieRepository, config infrastructure.Config) error {
	movies, err := repo.GetAllMovies()
	if err != nil {
		return fmt.Errorf("ошибка загрузки корпуса: %w", err)
	}

	features := engine.ComposeAll(movies, engine.CanonicalFields)

	selector := application.NewModelSelector(config.ModelOptions())
	best, candidates, err := selector.Search(features, application.DefaultGrid())
	if err != nil {
		return fmt.Errorf("ошибка перебора: %w", err)
	}

	fmt.Printf("Перебрано %d комбинаций:\n", len(candidates))
	for _, c := range candidates {
		if c.Skipped {
			fmt.Printf("  [пропущен] %s: %s\n", c.Parameters, c.Error)
			continue
		}
		fmt.Printf("  [%.4f] %s (avg_sim=%.4f, density=%.4f)\n", c.Score, c.Parameters, c.AvgSimilarity, c.Density)
	}

	fmt.Printf("Лучшая комбинация: %s (score=%.4f)\n", best.Parameters, best.Score)
	fmt.Printf("Доля успешных запросов: %.2f\n", application.SuccessRate(best.Matrix, 10))
	return nil
}

// handleCompare сравнивает базовую и расширенную модели с лучшей комбинацией
// перебора по доле успешных запросов и печатает победителя
func handleCompare(repo domain.MovieRepository, config infrastructure.Config) error {
	movies, err := repo.GetAllMovies()
	if err != nil {
		return fmt.Errorf("ошибка загрузки корпуса: %w", err)
	}

	features := engine.ComposeAll(movies, engine.CanonicalFields)

	// Лучшая комбинация перебора участвует в сравнении наравне с
	// фиксированными конфигурациями
	selector := application.NewModelSelector(config.ModelOptions())
	best, _, err := selector.Search(features, application.DefaultGrid())
	if err != nil {
		return fmt.Errorf("ошибка перебора: %w", err)
	}

	configs := []application.NamedOptions{
		{Name: "baseline", Options: application.BaselineOptions()},
		{Name: "custom", Options: application.CustomOptions()},
		{Name: "automl", Options: best.Options},
	}

	summaries, winner, err := application.CompareConfigurations(features, configs, 10)
	if err != nil {
		return fmt.Errorf("ошибка сравнения моделей: %w", err)
	}

	fmt.Println("Сравнение моделей по доле успешных запросов:")
	for _, s := range summaries {
		fmt.Printf("  %s: %.2f\n", s.Name, s.SuccessRate)
	}
	fmt.Printf("Лучшая модель: %s (%.2f)\n", winner.Name, winner.SuccessRate)
	return nil
}

// runDemo запускает демо-сессию на встроенном наборе фильмов
func runDemo() error {
	fmt.Println("=== Демонстрация рекомендательной системы ===")

	movies := []domain.Movie{
		{
			ID:       "m1",
			Title:    "Звёздный рубеж",
			Overview: "space adventure about a hero crew exploring distant galaxy worlds",
			Genres:   []domain.Tag{{Name: "SciFi"}, {Name: "Adventure"}},
		},
		{
			ID:       "m2",
			Title:    "Тёмная орбита",
			Overview: "space adventure where a villain threatens the galaxy fleet",
			Genres:   []domain.Tag{{Name: "SciFi"}, {Name: "Thriller"}},
		},
		{
			ID:       "m3",
			Title:    "Кухня мечты",
			Overview: "cooking story about dessert recipes and a small family bakery",
			Genres:   []domain.Tag{{Name: "Drama"}},
		},
		{
			ID:       "m4",
			Title:    "Галактический дозор",
			Overview: "crew of the galaxy fleet patrols distant worlds on a space mission",
			Genres:   []domain.Tag{{Name: "SciFi"}, {Name: "Adventure"}},
		},
	}

	service, err := buildService(movies, engine.DefaultOptions())
	if err != nil {
		return err
	}

	for _, query := range []string{"Звёздный рубеж", "Кухня мечты"} {
		result, err := service.Recommend(query, 3)
		if err != nil {
			return fmt.Errorf("ошибка рекомендации для '%s': %w", query, err)
		}
		fmt.Printf("\nЗапрос: %s\n", result.QueryTitle)
		for i, rec := range result.Recommendations {
			fmt.Printf("  %d. [%.4f] %s\n", i+1, rec.SimilarityScore, rec.Title)
		}
	}

	return nil
}

// buildService обучает модель на корпусе и создает сервис рекомендаций
func buildService(movies []domain.Movie, opts engine.Options) (*application.RecommenderService, error) {
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: корпус фильмов пуст, выполните import", domain.ErrInsufficientData)
	}

	features := engine.ComposeAll(movies, engine.CanonicalFields)

	vectorizer := engine.NewVectorizer(opts)
	vectors, err := vectorizer.FitTransform(features)
	if err != nil {
		return nil, fmt.Errorf("ошибка обучения модели: %w", err)
	}

	bundle := engine.NewVectorizerBundle(vectorizer, vectors)
	service := application.NewRecommenderService()
	if err := service.Rebuild(movies, bundle); err != nil {
		return nil, fmt.Errorf("ошибка построения снимка движка: %w", err)
	}
	return service, nil
}

// splitHoldout детерминированно делит корпус на обучающую и отложенную выборки
func splitHoldout(features, titles []string, testRatio float64) (trainF, testF, trainT, testT []string) {
	perm := rand.New(rand.NewSource(application.KFoldSeed)).Perm(len(features))

	nTest := int(float64(len(features)) * testRatio)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= len(features) {
		nTest = len(features) - 1
	}

	for i, idx := range perm {
		if i < nTest {
			testF = append(testF, features[idx])
			testT = append(testT, titles[idx])
		} else {
			trainF = append(trainF, features[idx])
			trainT = append(trainT, titles[idx])
		}
	}
	return trainF, testF, trainT, testT
}
