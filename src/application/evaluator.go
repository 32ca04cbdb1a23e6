package application

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"movie-recommender/src/domain"
	"movie-recommender/src/engine"
)

// RelevanceThreshold порог сходства, выше которого рекомендация считается
// релевантной. Единый для всей системы.
const RelevanceThreshold = 0.3

// DensityThreshold порог для плотности матрицы и эвристики доли успешных запросов
const DensityThreshold = 0.1

// KFoldSeed фиксированное зерно перемешивания фолдов для воспроизводимости
const KFoldSeed int64 = 42

// DefaultKValues значения K, для которых считаются метрики ранжирования
var DefaultKValues = []int{5, 10, 20}

// Evaluator оценивает качество ранжирования модели: метрики по матрице
// сходств, K-fold кросс-валидация и финальная оценка на отложенной выборке
type Evaluator struct {
	opts    engine.Options
	kValues []int
}

// NewEvaluator создает оценщик с параметрами модели и значениями K.
// При пустом kValues используются DefaultKValues.
func NewEvaluator(opts engine.Options, kValues []int) *Evaluator {
	if len(kValues) == 0 {
		kValues = DefaultKValues
	}
	return &Evaluator{opts: opts, kValues: append([]int(nil), kValues...)}
}

// Relevant сообщает, считается ли рекомендация с данной оценкой релевантной
func Relevant(score float64) bool {
	return score > RelevanceThreshold
}

// ComputeMetrics вычисляет Recall@K, NDCG@K и MAP@K по матрице сходств.
// excludeSelf задается явно: true для матрицы корпуса против самого себя
// (диагональ исключается из ранжирования), false для отложенной выборки
// против обучающей — там совпадений с самим собой нет. Значения K больше
// числа столбцов вычисляются по усеченному K, но в картах метрик ключуются
// запрошенным значением: на малом корпусе K=10 и K=20 дают отдельные записи
// и не затирают друг друга.
func ComputeMetrics(matrix engine.Matrix, kValues []int, excludeSelf bool) (domain.MetricSet, error) {
	if matrix.Rows() == 0 || matrix.Cols() == 0 {
		return domain.MetricSet{}, fmt.Errorf("%w: пустая матрица сходств", domain.ErrInsufficientData)
	}

	metrics := domain.MetricSet{
		Recall: make(map[int]float64),
		NDCG:   make(map[int]float64),
		MAP:    make(map[int]float64),
	}

	rows := matrix.Rows()
	for _, kReq := range kValues {
		if kReq <= 0 {
			return domain.MetricSet{}, fmt.Errorf("%w: k=%d", domain.ErrInvalidArgument, kReq)
		}
		k := kReq
		if k > matrix.Cols() {
			k = matrix.Cols()
		}

		// IDCG одинаков для всех строк: все k позиций релевантны
		var idcg float64
		for r := 0; r < k; r++ {
			idcg += 1.0 / math.Log2(float64(r)+2)
		}

		var recallSum, ndcgSum, mapSum float64
		for i := 0; i < rows; i++ {
			top, err := engine.TopN(matrix, i, k, excludeSelf)
			if err != nil {
				return domain.MetricSet{}, err
			}

			var relevant int
			var dcg float64
			var precisions []float64
			for rank, col := range top {
				if Relevant(col.Score) {
					relevant++
					dcg += 1.0 / math.Log2(float64(rank)+2)
					precisions = append(precisions, float64(len(precisions)+1)/float64(rank+1))
				}
			}

			recallSum += float64(relevant) / float64(k)
			if idcg > 0 {
				ndcgSum += dcg / idcg
			}
			if len(precisions) > 0 {
				mapSum += mean(precisions)
			}
		}

		metrics.Recall[kReq] = recallSum / float64(rows)
		metrics.NDCG[kReq] = ndcgSum / float64(rows)
		metrics.MAP[kReq] = mapSum / float64(rows)
	}

	metrics.AvgSimilarity = matrix.Mean()
	metrics.MaxSimilarity = matrix.Max()
	metrics.MinSimilarity = matrix.Min()
	return metrics, nil
}

// KFoldIndices разбивает n элементов на nSplits перемешанных
// непересекающихся фолдов. Первые n % nSplits фолдов получают на один
// элемент больше. Разбиение детерминировано при фиксированном зерне.
func KFoldIndices(n, nSplits int, seed int64) [][]int {
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	folds := make([][]int, nSplits)
	base := n / nSplits
	rem := n % nSplits
	start := 0
	for f := 0; f < nSplits; f++ {
		size := base
		if f < rem {
			size++
		}
		folds[f] = perm[start : start+size]
		start += size
	}
	return folds
}

// CrossValidate проводит K-fold кросс-валидацию: на каждом фолде модель
// обучается заново на остальных фолдах, отложенный фолд оценивается против
// обучающих векторов. Ошибка одного фолда логируется и пропускается.
func (e *Evaluator) CrossValidate(corpus []string, nSplits int) (*domain.CrossValidationReport, error) {
	n := len(corpus)
	if n == 0 {
		return nil, fmt.Errorf("%w: пустой корпус", domain.ErrInsufficientData)
	}
	if nSplits < 2 {
		return nil, fmt.Errorf("%w: n_splits=%d", domain.ErrInvalidArgument, nSplits)
	}
	if nSplits > n {
		return nil, fmt.Errorf("%w: %d фолдов при %d документах", domain.ErrInsufficientData, nSplits, n)
	}

	folds := KFoldIndices(n, nSplits, KFoldSeed)
	results := make([]*domain.MetricSet, nSplits)
	failures := make([]error, nSplits)

	// Фолды независимы: каждый пишет только в свой слот
	var g errgroup.Group
	for f := range folds {
		f := f
		g.Go(func() error {
			ms, err := e.evaluateFold(corpus, folds, f)
			if err != nil {
				failures[f] = err
				return nil
			}
			results[f] = &ms
			return nil
		})
	}
	_ = g.Wait()

	var foldMetrics []domain.MetricSet
	for f := range folds {
		if failures[f] != nil {
			log.Printf("фолд %d/%d пропущен: %v", f+1, nSplits, failures[f])
			continue
		}
		foldMetrics = append(foldMetrics, *results[f])
	}
	if len(foldMetrics) == 0 {
		return nil, fmt.Errorf("%w: ни один фолд не удалось оценить", domain.ErrInsufficientData)
	}

	averaged, stdSim := averageMetrics(foldMetrics)
	return &domain.CrossValidationReport{
		FoldMetrics:   foldMetrics,
		Averaged:      averaged,
		StdSimilarity: stdSim,
		NSplits:       nSplits,
		TotalSamples:  n,
	}, nil
}

// evaluateFold обучает модель на всех фолдах кроме f и оценивает фолд f
func (e *Evaluator) evaluateFold(corpus []string, folds [][]int, f int) (domain.MetricSet, error) {
	inVal := make(map[int]bool, len(folds[f]))
	for _, idx := range folds[f] {
		inVal[idx] = true
	}

	var trainFeatures []string
	for i, doc := range corpus {
		if !inVal[i] {
			trainFeatures = append(trainFeatures, doc)
		}
	}
	valFeatures := make([]string, len(folds[f]))
	for i, idx := range folds[f] {
		valFeatures[i] = corpus[idx]
	}

	vectorizer := engine.NewVectorizer(e.opts)
	trainVectors, err := vectorizer.FitTransform(trainFeatures)
	if err != nil {
		return domain.MetricSet{}, err
	}
	valVectors, err := vectorizer.Transform(valFeatures)
	if err != nil {
		return domain.MetricSet{}, err
	}

	matrix := engine.PairwiseSimilarity(valVectors, trainVectors)
	return ComputeMetrics(matrix, e.kValues, false)
}

// EvaluateHoldout обучает модель на обучающем корпусе и оценивает отложенную
// выборку против него. Вместе с метриками возвращает до пяти примеров
// с топ-5 рекомендованных названий для выборочной проверки отчётов.
func (e *Evaluator) EvaluateHoldout(trainFeatures, testFeatures, trainTitles, testTitles []string) (*domain.HoldoutReport, error) {
	if len(trainFeatures) == 0 || len(testFeatures) == 0 {
		return nil, fmt.Errorf("%w: пустая обучающая или тестовая выборка", domain.ErrInsufficientData)
	}

	vectorizer := engine.NewVectorizer(e.opts)
	trainVectors, err := vectorizer.FitTransform(trainFeatures)
	if err != nil {
		return nil, err
	}
	testVectors, err := vectorizer.Transform(testFeatures)
	if err != nil {
		return nil, err
	}

	matrix := engine.PairwiseSimilarity(testVectors, trainVectors)
	metrics, err := ComputeMetrics(matrix, e.kValues, false)
	if err != nil {
		return nil, err
	}

	sampleCount := 5
	if len(testFeatures) < sampleCount {
		sampleCount = len(testFeatures)
	}
	testCases := make([]domain.TestCase, 0, sampleCount)
	for i := 0; i < sampleCount; i++ {
		top, err := engine.TopN(matrix, i, 5, false)
		if err != nil {
			return nil, err
		}
		tc := domain.TestCase{QueryTitle: titleAt(testTitles, i)}
		for _, col := range top {
			tc.Recommendations = append(tc.Recommendations, titleAt(trainTitles, col.Index))
			tc.Scores = append(tc.Scores, col.Score)
		}
		testCases = append(testCases, tc)
	}

	return &domain.HoldoutReport{
		Metrics:     metrics,
		TestCases:   testCases,
		TestSize:    len(testFeatures),
		TrainSize:   len(trainFeatures),
		EvaluatedAt: time.Now(),
	}, nil
}

// SuccessRate эвристика сравнения моделей: доля первых sampleSize строк
// матрицы, у которых вторая по величине оценка превышает DensityThreshold.
// Это отдельный сигнал отбора моделей, не взаимозаменяемый с Recall/NDCG/MAP.
func SuccessRate(matrix engine.Matrix, sampleSize int) float64 {
	cases := matrix.Rows()
	if sampleSize < cases {
		cases = sampleSize
	}
	if cases <= 0 {
		return 0
	}

	success := 0
	for i := 0; i < cases; i++ {
		row := append([]float64(nil), matrix[i]...)
		sort.Sort(sort.Reverse(sort.Float64Slice(row)))
		if len(row) >= 2 && row[1] > DensityThreshold {
			success++
		}
	}
	return float64(success) / float64(cases)
}

// FeatureImportance считает средний tf-idf вес каждого терма по векторам
// корпуса и возвращает topN термов с наибольшим средним весом
func FeatureImportance(vectors []engine.DocumentVector, vocab *engine.Vocabulary, topN int) (*domain.FeatureImportanceReport, error) {
	if vocab == nil {
		return nil, fmt.Errorf("%w: словарь отсутствует", domain.ErrUnfittedModel)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: нет векторов", domain.ErrInsufficientData)
	}

	meanWeights := make([]float64, vocab.Size())
	for _, vec := range vectors {
		for i, idx := range vec.Indices {
			meanWeights[idx] += vec.Values[i]
		}
	}
	for i := range meanWeights {
		meanWeights[i] /= float64(len(vectors))
	}

	order := make([]int, len(meanWeights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return meanWeights[order[a]] > meanWeights[order[b]]
	})

	if topN > len(order) {
		topN = len(order)
	}
	top := make([]domain.FeatureWeight, topN)
	for i := 0; i < topN; i++ {
		top[i] = domain.FeatureWeight{Term: vocab.Terms[order[i]], Weight: meanWeights[order[i]]}
	}

	return &domain.FeatureImportanceReport{
		TopFeatures:    top,
		VocabularySize: vocab.Size(),
		MeanWeight:     mean(meanWeights),
		StdWeight:      std(meanWeights),
	}, nil
}

// BuildModelRecord собирает неизменяемую сводку обученной модели
// для журнала версий
func BuildModelRecord(cv *domain.CrossValidationReport, holdout *domain.HoldoutReport, importance *domain.FeatureImportanceReport, modelName, version string) domain.ModelRecord {
	return domain.ModelRecord{
		ID:           uuid.NewString(),
		Timestamp:    time.Now(),
		Version:      version,
		ModelName:    modelName,
		ModelType:    "content_based_recommender",
		CV:           cv.Averaged,
		CVStdSim:     cv.StdSimilarity,
		Test:         holdout.Metrics,
		TopFeatures:  importance.TopFeatures,
		TotalVocab:   importance.VocabularySize,
		TrainSetSize: holdout.TrainSize,
		TestSetSize:  holdout.TestSize,
	}
}

// averageMetrics усредняет метрики фолдов по каждому ключу K и считает
// стандартное отклонение средней похожести между фолдами
func averageMetrics(folds []domain.MetricSet) (domain.MetricSet, float64) {
	avg := domain.MetricSet{
		Recall: make(map[int]float64),
		NDCG:   make(map[int]float64),
		MAP:    make(map[int]float64),
	}

	counts := make(map[int]int)
	var avgSims []float64
	for _, ms := range folds {
		for k, v := range ms.Recall {
			avg.Recall[k] += v
			counts[k]++
		}
		for k, v := range ms.NDCG {
			avg.NDCG[k] += v
		}
		for k, v := range ms.MAP {
			avg.MAP[k] += v
		}
		avg.AvgSimilarity += ms.AvgSimilarity
		avg.MaxSimilarity += ms.MaxSimilarity
		avg.MinSimilarity += ms.MinSimilarity
		avgSims = append(avgSims, ms.AvgSimilarity)
	}

	for k := range avg.Recall {
		c := float64(counts[k])
		avg.Recall[k] /= c
		avg.NDCG[k] /= c
		avg.MAP[k] /= c
	}
	n := float64(len(folds))
	avg.AvgSimilarity /= n
	avg.MaxSimilarity /= n
	avg.MinSimilarity /= n

	return avg, std(avgSims)
}

// titleAt возвращает название по индексу или заполнитель, когда названия
// не переданы
func titleAt(titles []string, i int) string {
	if i >= 0 && i < len(titles) {
		return titles[i]
	}
	return fmt.Sprintf("#%d", i)
}

// mean среднее арифметическое
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// std стандартное отклонение (популяционное)
func std(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}
