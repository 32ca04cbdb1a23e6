package engine

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"movie-recommender/src/domain"
)

// tokenRegex выделяет токены: последовательности букв и цифр длиной от 2 символов
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}]{2,}`)

// Options параметры векторизатора TF-IDF
type Options struct {
	// MaxTerms ограничение размера словаря; 0 — без ограничения.
	// При превышении отбираются термы с наибольшей корпусной частотой,
	// при равенстве частот — встретившиеся раньше.
	MaxTerms int

	// Stopwords термы, исключаемые независимо от частоты
	Stopwords map[string]struct{}

	// NGramMin и NGramMax диапазон длин n-грамм (в токенах)
	NGramMin int
	NGramMax int

	// MinDF минимальная документная частота терма (абсолютная)
	MinDF int

	// MaxDF максимальная доля документов, содержащих терм; 0 — без ограничения
	MaxDF float64

	// SublinearTF заменяет сырую частоту терма на 1 + ln(tf)
	SublinearTF bool

	// SmoothIDF добавляет 1 к документной частоте и размеру корпуса
	// перед логарифмом: idf = ln((1+N)/(1+df)) + 1
	SmoothIDF bool
}

// DefaultOptions параметры по умолчанию: без ограничения словаря,
// униграммы, английские стоп-слова, сглаженный idf
func DefaultOptions() Options {
	return Options{
		Stopwords: EnglishStopwords,
		NGramMin:  1,
		NGramMax:  1,
		MinDF:     1,
		SmoothIDF: true,
	}
}

// Vocabulary словарь термов с idf-весами. Неизменяем после обучения.
type Vocabulary struct {
	Index map[string]int // терм -> позиция в векторе
	Terms []string       // позиция -> терм
	IDF   []float64      // позиция -> idf-вес
}

// Size возвращает размер словаря
func (v *Vocabulary) Size() int {
	if v == nil {
		return 0
	}
	return len(v.Terms)
}

// DocumentVector разреженный tf-idf вектор документа. Индексы упорядочены
// по возрастанию, вектор L2-нормирован и не изменяется после создания.
type DocumentVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// IsZero сообщает, не распознан ли в документе ни один терм словаря
func (d DocumentVector) IsZero() bool {
	return len(d.Indices) == 0
}

// Dot скалярное произведение двух разреженных векторов.
// Для нормированных векторов совпадает с косинусным сходством.
func (d DocumentVector) Dot(other DocumentVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(d.Indices) && j < len(other.Indices) {
		switch {
		case d.Indices[i] == other.Indices[j]:
			sum += d.Values[i] * other.Values[j]
			i++
			j++
		case d.Indices[i] < other.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Vectorizer модель векторного пространства: обучает словарь на корпусе
// строк признаков и переводит строки в tf-idf векторы
type Vectorizer struct {
	opts  Options
	vocab *Vocabulary
}

// NewVectorizer создает векторизатор с заданными параметрами
func NewVectorizer(opts Options) *Vectorizer {
	if opts.NGramMin <= 0 {
		opts.NGramMin = 1
	}
	if opts.NGramMax < opts.NGramMin {
		opts.NGramMax = opts.NGramMin
	}
	if opts.MinDF <= 0 {
		opts.MinDF = 1
	}
	return &Vectorizer{opts: opts}
}

// Vocabulary возвращает обученный словарь или nil до обучения
func (v *Vectorizer) Vocabulary() *Vocabulary {
	return v.vocab
}

// Fit строит словарь по корпусу строк признаков
func (v *Vectorizer) Fit(corpus []string) (*Vocabulary, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w: пустой корпус", domain.ErrInsufficientData)
	}

	// Документные и корпусные частоты, порядок первого вхождения
	df := make(map[string]int)
	cf := make(map[string]int)
	firstSeen := make(map[string]int)

	for _, doc := range corpus {
		terms := v.extractTerms(doc)
		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			cf[term]++
			if _, ok := firstSeen[term]; !ok {
				firstSeen[term] = len(firstSeen)
			}
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	// Фильтрация по документной частоте
	n := len(corpus)
	candidates := make([]string, 0, len(df))
	for term, count := range df {
		if count < v.opts.MinDF {
			continue
		}
		if v.opts.MaxDF > 0 && float64(count) > v.opts.MaxDF*float64(n) {
			continue
		}
		candidates = append(candidates, term)
	}

	// Порядок первого вхождения — основной порядок словаря
	sort.Slice(candidates, func(i, j int) bool {
		return firstSeen[candidates[i]] < firstSeen[candidates[j]]
	})

	// Ограничение словаря: отбор по корпусной частоте,
	// при равенстве — по порядку первого вхождения
	if v.opts.MaxTerms > 0 && len(candidates) > v.opts.MaxTerms {
		sort.SliceStable(candidates, func(i, j int) bool {
			return cf[candidates[i]] > cf[candidates[j]]
		})
		candidates = candidates[:v.opts.MaxTerms]
		sort.Slice(candidates, func(i, j int) bool {
			return firstSeen[candidates[i]] < firstSeen[candidates[j]]
		})
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: словарь пуст после фильтрации", domain.ErrInsufficientData)
	}

	vocab := &Vocabulary{
		Index: make(map[string]int, len(candidates)),
		Terms: candidates,
		IDF:   make([]float64, len(candidates)),
	}
	for i, term := range candidates {
		vocab.Index[term] = i
		vocab.IDF[i] = v.idf(df[term], n)
	}

	v.vocab = vocab
	return vocab, nil
}

// idf вычисляет обратную документную частоту терма
func (v *Vectorizer) idf(df, n int) float64 {
	if v.opts.SmoothIDF {
		return math.Log(float64(1+n)/float64(1+df)) + 1
	}
	return math.Log(float64(n)/float64(df)) + 1
}

// Transform переводит документы в tf-idf векторы по обученному словарю.
// Термы вне словаря молча отбрасываются — словарь при применении модели
// никогда не расширяется, в этом смысл разделения train/test.
func (v *Vectorizer) Transform(docs []string) ([]DocumentVector, error) {
	if v.vocab == nil {
		return nil, fmt.Errorf("%w: вызовите Fit перед Transform", domain.ErrUnfittedModel)
	}

	vectors := make([]DocumentVector, len(docs))
	for i, doc := range docs {
		vectors[i] = v.transformOne(doc)
	}
	return vectors, nil
}

// FitTransform обучает словарь и сразу векторизует корпус
func (v *Vectorizer) FitTransform(corpus []string) ([]DocumentVector, error) {
	if _, err := v.Fit(corpus); err != nil {
		return nil, err
	}
	return v.Transform(corpus)
}

// transformOne векторизует один документ. Документ без распознанных термов
// дает нулевой вектор.
func (v *Vectorizer) transformOne(doc string) DocumentVector {
	counts := make(map[int]float64)
	for _, term := range v.extractTerms(doc) {
		if idx, ok := v.vocab.Index[term]; ok {
			counts[idx]++
		}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var sumSquares float64
	for i, idx := range indices {
		tf := counts[idx]
		if v.opts.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * v.vocab.IDF[idx]
		values[i] = w
		sumSquares += w * w
	}

	// L2-нормировка: после неё косинусное сходство сводится к скалярному произведению
	if sumSquares > 0 {
		norm := math.Sqrt(sumSquares)
		for i := range values {
			values[i] /= norm
		}
	}

	return DocumentVector{Indices: indices, Values: values, Dim: len(v.vocab.Terms)}
}

// extractTerms токенизирует документ и разворачивает токены в n-граммы
func (v *Vectorizer) extractTerms(doc string) []string {
	tokens := tokenRegex.FindAllString(strings.ToLower(doc), -1)

	if len(v.opts.Stopwords) > 0 {
		filtered := tokens[:0]
		for _, tok := range tokens {
			if _, stop := v.opts.Stopwords[tok]; !stop {
				filtered = append(filtered, tok)
			}
		}
		tokens = filtered
	}

	if v.opts.NGramMin == 1 && v.opts.NGramMax == 1 {
		return tokens
	}

	var terms []string
	for n := v.opts.NGramMin; n <= v.opts.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
