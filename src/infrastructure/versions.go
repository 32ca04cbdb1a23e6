package infrastructure

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"movie-recommender/src/domain"
)

// versionColumns фиксированный порядок колонок журнала версий
var versionColumns = []string{
	"id", "timestamp", "version", "model_name", "model_type",
	"cv_recall_5", "cv_recall_10", "cv_recall_20",
	"cv_ndcg_5", "cv_ndcg_10",
	"cv_map_5", "cv_map_10",
	"cv_avg_similarity", "cv_std_similarity",
	"test_recall_5", "test_recall_10", "test_recall_20",
	"test_ndcg_5", "test_ndcg_10",
	"test_map_5", "test_map_10",
	"test_avg_similarity",
	"train_set_size", "test_set_size", "total_vocabulary",
	"top_feature_1", "top_feature_2", "top_feature_3",
}

// AppendModelVersion дописывает запись о версии модели в CSV-журнал.
// Журнал только пополняется; при первом обращении создается файл с заголовком.
func AppendModelVersion(path string, record domain.ModelRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("не удалось создать каталог журнала: %w", err)
		}
	}

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("не удалось открыть журнал версий: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(versionColumns); err != nil {
			return fmt.Errorf("не удалось записать заголовок журнала: %w", err)
		}
	}
	if err := w.Write(versionRow(record)); err != nil {
		return fmt.Errorf("не удалось записать строку журнала: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("не удалось сохранить журнал версий: %w", err)
	}
	return nil
}

// versionRow раскладывает запись модели в строку по порядку versionColumns
func versionRow(record domain.ModelRecord) []string {
	return []string{
		record.ID,
		record.Timestamp.Format(time.RFC3339),
		record.Version,
		record.ModelName,
		record.ModelType,
		formatMetric(record.CV.Recall, 5),
		formatMetric(record.CV.Recall, 10),
		formatMetric(record.CV.Recall, 20),
		formatMetric(record.CV.NDCG, 5),
		formatMetric(record.CV.NDCG, 10),
		formatMetric(record.CV.MAP, 5),
		formatMetric(record.CV.MAP, 10),
		formatFloat(record.CV.AvgSimilarity),
		formatFloat(record.CVStdSim),
		formatMetric(record.Test.Recall, 5),
		formatMetric(record.Test.Recall, 10),
		formatMetric(record.Test.Recall, 20),
		formatMetric(record.Test.NDCG, 5),
		formatMetric(record.Test.NDCG, 10),
		formatMetric(record.Test.MAP, 5),
		formatMetric(record.Test.MAP, 10),
		formatFloat(record.Test.AvgSimilarity),
		strconv.Itoa(record.TrainSetSize),
		strconv.Itoa(record.TestSetSize),
		strconv.Itoa(record.TotalVocab),
		topFeature(record, 0),
		topFeature(record, 1),
		topFeature(record, 2),
	}
}

// formatMetric форматирует метрику для ключа K; отсутствующий ключ дает 0
func formatMetric(values map[int]float64, k int) string {
	return formatFloat(values[k])
}

// formatFloat форматирует число с шестью знаками после запятой
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// topFeature возвращает терм с позиции i списка важности или пустую строку
func topFeature(record domain.ModelRecord, i int) string {
	if i >= len(record.TopFeatures) {
		return ""
	}
	return record.TopFeatures[i].Term
}
