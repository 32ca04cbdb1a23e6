package domain

import "time"

// Tag именованная сущность фильма (жанр, ключевое слово)
type Tag struct {
	Name string `json:"name"`
}

// Movie представляет фильм — единицу рекомендации в системе
type Movie struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Overview string `json:"overview"`
	Genres   []Tag  `json:"genres,omitempty"`
	Keywords []Tag  `json:"keywords,omitempty"`
}

// RankedRecommendation одна позиция в ранжированном списке рекомендаций
type RankedRecommendation struct {
	ItemID          string  `json:"item_id"`
	Title           string  `json:"title"`
	SimilarityScore float64 `json:"similarity_score"` // Округлено до 4 знаков
	Overview        string  `json:"overview,omitempty"`
	Genres          []Tag   `json:"genres,omitempty"`
}

// RecommendationResult результат запроса рекомендаций
type RecommendationResult struct {
	QueryTitle      string                 `json:"query_movie"`
	Recommendations []RankedRecommendation `json:"recommendations"`
	TotalMovies     int                    `json:"total_movies_in_db"`
}

// MetricSet метрики качества ранжирования одного прогона оценки.
// Карты ключуются запрошенным значением K; само вычисление идет по K,
// усеченному до числа столбцов матрицы.
type MetricSet struct {
	Recall        map[int]float64 `json:"recall"`
	NDCG          map[int]float64 `json:"ndcg"`
	MAP           map[int]float64 `json:"map"`
	AvgSimilarity float64         `json:"avg_similarity"`
	MaxSimilarity float64         `json:"max_similarity"`
	MinSimilarity float64         `json:"min_similarity"`
}

// CandidateResult запись одного кандидата перебора гиперпараметров
type CandidateResult struct {
	Parameters    string  `json:"parameters"`
	Score         float64 `json:"score"`
	AvgSimilarity float64 `json:"avg_similarity"`
	Density       float64 `json:"density"`
	Skipped       bool    `json:"skipped,omitempty"` // Кандидат не обучился
	Error         string  `json:"error,omitempty"`
}

// CrossValidationReport результат K-fold кросс-валидации
type CrossValidationReport struct {
	FoldMetrics   []MetricSet `json:"fold_metrics"`
	Averaged      MetricSet   `json:"averaged_metrics"`
	StdSimilarity float64     `json:"std_similarity"`
	NSplits       int         `json:"n_splits"`
	TotalSamples  int         `json:"total_samples"`
}

// TestCase пример рекомендаций для одного тестового фильма (для отчётов)
type TestCase struct {
	QueryTitle      string    `json:"query_movie"`
	Recommendations []string  `json:"recommendations"`
	Scores          []float64 `json:"similarity_scores"`
}

// HoldoutReport результат финальной оценки на отложенной выборке
type HoldoutReport struct {
	Metrics     MetricSet  `json:"test_metrics"`
	TestCases   []TestCase `json:"test_cases"`
	TestSize    int        `json:"test_set_size"`
	TrainSize   int        `json:"train_set_size"`
	EvaluatedAt time.Time  `json:"evaluation_timestamp"`
}

// FeatureWeight терм словаря со средним tf-idf весом по корпусу
type FeatureWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// FeatureImportanceReport важность признаков обученной модели
type FeatureImportanceReport struct {
	TopFeatures    []FeatureWeight `json:"top_features"`
	VocabularySize int             `json:"total_features_vocabulary"`
	MeanWeight     float64         `json:"mean_tfidf_weight"`
	StdWeight      float64         `json:"std_tfidf_weight"`
}

// ModelRecord неизменяемая сводка обученной модели: метрики кросс-валидации
// и отложенной выборки, важность признаков и метаданные версии.
// При внешнем сохранении записи только дописываются.
type ModelRecord struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Version      string          `json:"version"`
	ModelName    string          `json:"model_name"`
	ModelType    string          `json:"model_type"`
	CV           MetricSet       `json:"cv_metrics"`
	CVStdSim     float64         `json:"cv_std_similarity"`
	Test         MetricSet       `json:"test_metrics"`
	TopFeatures  []FeatureWeight `json:"top_features"`
	TotalVocab   int             `json:"total_vocabulary"`
	TrainSetSize int             `json:"train_set_size"`
	TestSetSize  int             `json:"test_set_size"`
}
