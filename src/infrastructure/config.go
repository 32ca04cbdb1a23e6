package infrastructure

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"movie-recommender/src/engine"
)

// Config конфигурация рекомендательной системы
type Config struct {
	Model struct {
		MaxTerms    int     `yaml:"max_terms"`
		StopWords   string  `yaml:"stop_words"` // "english" или пусто
		NGramMin    int     `yaml:"ngram_min"`
		NGramMax    int     `yaml:"ngram_max"`
		MinDF       int     `yaml:"min_df"`
		MaxDF       float64 `yaml:"max_df"`
		SublinearTF bool    `yaml:"sublinear_tf"`
		SmoothIDF   bool    `yaml:"smooth_idf"`
	} `yaml:"model"`
	Evaluation struct {
		KValues   []int   `yaml:"k_values"`
		NSplits   int     `yaml:"n_splits"`
		TestRatio float64 `yaml:"test_ratio"`
	} `yaml:"evaluation"`
	Data struct {
		DBPath      string `yaml:"db_path"`
		VersionsCSV string `yaml:"versions_csv"`
	} `yaml:"data"`
}

// DefaultConfig конфигурация по умолчанию: параметры базовой модели
func DefaultConfig() Config {
	var config Config
	config.Model.MaxTerms = 1500
	config.Model.StopWords = "english"
	config.Model.NGramMin = 1
	config.Model.NGramMax = 1
	config.Model.MinDF = 1
	config.Model.SmoothIDF = true
	config.Evaluation.KValues = []int{5, 10, 20}
	config.Evaluation.NSplits = 5
	config.Evaluation.TestRatio = 0.2
	config.Data.DBPath = "./movies.db"
	config.Data.VersionsCSV = "data/model_versions.csv"
	return config
}

// LoadConfig загружает конфигурацию из YAML файла, дополняя отсутствующие
// поля значениями по умолчанию
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	if config.Evaluation.NSplits < 2 {
		config.Evaluation.NSplits = 5
	}
	if len(config.Evaluation.KValues) == 0 {
		config.Evaluation.KValues = []int{5, 10, 20}
	}
	if config.Evaluation.TestRatio <= 0 || config.Evaluation.TestRatio >= 1 {
		config.Evaluation.TestRatio = 0.2
	}

	return config, nil
}

// ModelOptions переводит конфигурацию в параметры векторизатора
func (c Config) ModelOptions() engine.Options {
	opts := engine.Options{
		MaxTerms:    c.Model.MaxTerms,
		NGramMin:    c.Model.NGramMin,
		NGramMax:    c.Model.NGramMax,
		MinDF:       c.Model.MinDF,
		MaxDF:       c.Model.MaxDF,
		SublinearTF: c.Model.SublinearTF,
		SmoothIDF:   c.Model.SmoothIDF,
	}
	if c.Model.StopWords == "english" {
		opts.Stopwords = engine.EnglishStopwords
	}
	return opts
}
