package application

import (
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"movie-recommender/src/domain"
	"movie-recommender/src/engine"
)

// Grid сетка гиперпараметров перебора. Пустое измерение заменяется
// значением из базовых параметров селектора.
type Grid struct {
	MaxTerms    []int
	NGramRanges [][2]int
	MinDF       []int
}

// DefaultGrid стандартная сетка перебора
func DefaultGrid() Grid {
	return Grid{
		MaxTerms:    []int{500, 2000, 5000},
		NGramRanges: [][2]int{{1, 1}, {1, 2}},
		MinDF:       []int{1, 3, 5},
	}
}

// BaselineOptions параметры базовой модели
func BaselineOptions() engine.Options {
	return engine.Options{
		MaxTerms:  1500,
		Stopwords: engine.EnglishStopwords,
		NGramMin:  1,
		NGramMax:  1,
		MinDF:     1,
		SmoothIDF: true,
	}
}

// CustomOptions параметры расширенной модели
func CustomOptions() engine.Options {
	return engine.Options{
		MaxTerms:    8000,
		Stopwords:   engine.EnglishStopwords,
		NGramMin:    1,
		NGramMax:    2,
		MinDF:       3,
		MaxDF:       0.7,
		SublinearTF: true,
		SmoothIDF:   true,
	}
}

// FittedCandidate лучший кандидат перебора: обученный векторизатор,
// векторы корпуса и предвычисленная матрица сходств
type FittedCandidate struct {
	Parameters    string
	Options       engine.Options
	Vectorizer    *engine.Vectorizer
	Vectors       []engine.DocumentVector
	Matrix        engine.Matrix
	Score         float64
	AvgSimilarity float64
	Density       float64
}

// Bundle упаковывает кандидата в модельный бандл с матрицей
func (c *FittedCandidate) Bundle() *engine.ModelBundle {
	return engine.NewMatrixBundle(c.Vectorizer, c.Vectors, c.Matrix)
}

// ModelSelector перебирает комбинации гиперпараметров векторизатора
// и выбирает лучшую по составной оценке качества
type ModelSelector struct {
	base engine.Options
}

// NewModelSelector создает селектор; base задает параметры, не входящие
// в сетку (стоп-слова, сглаживание idf и т.п.)
func NewModelSelector(base engine.Options) *ModelSelector {
	return &ModelSelector{base: base}
}

// Search перебирает все комбинации сетки. Для каждой комбинации модель
// обучается на полном корпусе, считается матрица попарных сходств и оценка
// score = 0.7*avg_similarity + 0.3*density. Записи сохраняются для всех
// комбинаций; необучившиеся кандидаты помечаются пропущенными и не
// участвуют в выборе лучшего. Равные оценки разрешаются в пользу
// встретившейся раньше комбинации.
func (s *ModelSelector) Search(corpus []string, grid Grid) (*FittedCandidate, []domain.CandidateResult, error) {
	if len(corpus) == 0 {
		return nil, nil, fmt.Errorf("%w: пустой корпус", domain.ErrInsufficientData)
	}

	combos := s.enumerate(grid)
	fitted := make([]*FittedCandidate, len(combos))
	failures := make([]error, len(combos))

	// Кандидаты независимы: каждый пишет только в свой слот
	var g errgroup.Group
	for i := range combos {
		i := i
		g.Go(func() error {
			candidate, err := s.fitCandidate(corpus, combos[i])
			if err != nil {
				failures[i] = &domain.CandidateFitError{Parameters: combos[i].Parameters, Err: err}
				return nil
			}
			fitted[i] = candidate
			return nil
		})
	}
	_ = g.Wait()

	// Лучший выбирается последовательным проходом в порядке перечисления,
	// чтобы при равных оценках победил встретившийся раньше
	var best *FittedCandidate
	candidates := make([]domain.CandidateResult, 0, len(combos))
	for i := range combos {
		if failures[i] != nil {
			log.Printf("перебор гиперпараметров: %v", failures[i])
			candidates = append(candidates, domain.CandidateResult{
				Parameters: combos[i].Parameters,
				Skipped:    true,
				Error:      failures[i].Error(),
			})
			continue
		}
		c := fitted[i]
		candidates = append(candidates, domain.CandidateResult{
			Parameters:    c.Parameters,
			Score:         c.Score,
			AvgSimilarity: c.AvgSimilarity,
			Density:       c.Density,
		})
		if best == nil || c.Score > best.Score {
			best = c
		}
	}

	if best == nil {
		return nil, candidates, fmt.Errorf("%w: ни один кандидат перебора не обучился", domain.ErrInsufficientData)
	}
	return best, candidates, nil
}

// combo одна комбинация гиперпараметров
type combo struct {
	Options    engine.Options
	Parameters string
}

// enumerate разворачивает сетку в список комбинаций в фиксированном порядке
func (s *ModelSelector) enumerate(grid Grid) []combo {
	maxTerms := grid.MaxTerms
	if len(maxTerms) == 0 {
		maxTerms = []int{s.base.MaxTerms}
	}
	ngrams := grid.NGramRanges
	if len(ngrams) == 0 {
		ngrams = [][2]int{{s.base.NGramMin, s.base.NGramMax}}
	}
	minDF := grid.MinDF
	if len(minDF) == 0 {
		minDF = []int{s.base.MinDF}
	}

	var combos []combo
	for _, mt := range maxTerms {
		for _, ng := range ngrams {
			for _, md := range minDF {
				opts := s.base
				opts.MaxTerms = mt
				opts.NGramMin = ng[0]
				opts.NGramMax = ng[1]
				opts.MinDF = md
				combos = append(combos, combo{
					Options:    opts,
					Parameters: fmt.Sprintf("max_f=%d, ngram=(%d, %d), min_df=%d", mt, ng[0], ng[1], md),
				})
			}
		}
	}
	return combos
}

// fitCandidate обучает и оценивает одну комбинацию
func (s *ModelSelector) fitCandidate(corpus []string, c combo) (*FittedCandidate, error) {
	vectorizer := engine.NewVectorizer(c.Options)
	vectors, err := vectorizer.FitTransform(corpus)
	if err != nil {
		return nil, err
	}

	matrix := engine.PairwiseSimilarity(vectors, vectors)
	avgSim := matrix.Mean()
	density := matrix.Density(DensityThreshold)

	return &FittedCandidate{
		Parameters:    c.Parameters,
		Options:       c.Options,
		Vectorizer:    vectorizer,
		Vectors:       vectors,
		Matrix:        matrix,
		Score:         0.7*avgSim + 0.3*density,
		AvgSimilarity: avgSim,
		Density:       density,
	}, nil
}

// ModelSummary сводка одной модели для сравнения по доле успешных запросов
type ModelSummary struct {
	Name        string
	SuccessRate float64
}

// NamedOptions именованная конфигурация модели для сравнения
type NamedOptions struct {
	Name    string
	Options engine.Options
}

// CompareConfigurations обучает каждую конфигурацию на корпусе, считает
// по её матрице сходств долю успешных запросов и выбирает победителя.
// Необучившаяся конфигурация логируется и пропускается; ошибка возвращается
// только когда сравнивать нечего.
func CompareConfigurations(corpus []string, configs []NamedOptions, sampleSize int) ([]ModelSummary, ModelSummary, error) {
	if len(corpus) == 0 {
		return nil, ModelSummary{}, fmt.Errorf("%w: пустой корпус", domain.ErrInsufficientData)
	}

	var summaries []ModelSummary
	for _, cfg := range configs {
		vectorizer := engine.NewVectorizer(cfg.Options)
		vectors, err := vectorizer.FitTransform(corpus)
		if err != nil {
			log.Printf("сравнение моделей: %s не обучилась: %v", cfg.Name, err)
			continue
		}
		matrix := engine.PairwiseSimilarity(vectors, vectors)
		summaries = append(summaries, ModelSummary{
			Name:        cfg.Name,
			SuccessRate: SuccessRate(matrix, sampleSize),
		})
	}

	winner, err := CompareModels(summaries)
	if err != nil {
		return summaries, ModelSummary{}, err
	}
	return summaries, winner, nil
}

// CompareModels выбирает модель с наибольшей долей успешных запросов;
// при равенстве побеждает встретившаяся раньше
func CompareModels(summaries []ModelSummary) (ModelSummary, error) {
	if len(summaries) == 0 {
		return ModelSummary{}, fmt.Errorf("%w: нечего сравнивать", domain.ErrInvalidArgument)
	}
	best := summaries[0]
	for _, s := range summaries[1:] {
		if s.SuccessRate > best.SuccessRate {
			best = s
		}
	}
	return best, nil
}
