package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-recommender/src/domain"
)

// plainOptions параметры без стоп-слов для предсказуемых словарей
func plainOptions() Options {
	return Options{NGramMin: 1, NGramMax: 1, MinDF: 1, SmoothIDF: true}
}

func TestFitEmptyCorpus(t *testing.T) {
	v := NewVectorizer(plainOptions())

	_, err := v.Fit(nil)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestTransformBeforeFit(t *testing.T) {
	v := NewVectorizer(plainOptions())

	_, err := v.Transform([]string{"aa bb"})
	assert.True(t, errors.Is(err, domain.ErrUnfittedModel))
}

func TestFitVocabularyOrderAndIDF(t *testing.T) {
	v := NewVectorizer(plainOptions())

	vocab, err := v.Fit([]string{"aa bb", "aa cc"})
	require.NoError(t, err)

	// Термы в порядке первого вхождения
	assert.Equal(t, []string{"aa", "bb", "cc"}, vocab.Terms)

	// Сглаженный idf: ln((1+N)/(1+df)) + 1
	assert.InDelta(t, 1.0, vocab.IDF[vocab.Index["aa"]], 1e-9)
	assert.InDelta(t, math.Log(3.0/2.0)+1, vocab.IDF[vocab.Index["bb"]], 1e-9)
}

func TestTransformWeightsAndNormalization(t *testing.T) {
	v := NewVectorizer(plainOptions())

	vectors, err := v.FitTransform([]string{"aa bb", "aa cc"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	// Вектор L2-нормирован
	var sumSquares float64
	for _, val := range vectors[0].Values {
		sumSquares += val * val
	}
	assert.InDelta(t, 1.0, sumSquares, 1e-9)

	// Отношение весов до нормировки сохраняется: w(bb)/w(aa) = idf(bb)/idf(aa)
	vocab := v.Vocabulary()
	idfRatio := vocab.IDF[vocab.Index["bb"]] / vocab.IDF[vocab.Index["aa"]]
	assert.InDelta(t, idfRatio, vectors[0].Values[1]/vectors[0].Values[0], 1e-9)
}

func TestTransformDropsUnknownTerms(t *testing.T) {
	v := NewVectorizer(plainOptions())

	_, err := v.FitTransform([]string{"aa bb", "aa cc"})
	require.NoError(t, err)

	// Термы вне словаря молча отбрасываются, словарь не расширяется
	vectors, err := v.Transform([]string{"zz qq aa"})
	require.NoError(t, err)
	require.Len(t, vectors[0].Indices, 1)
	assert.Equal(t, v.Vocabulary().Index["aa"], vectors[0].Indices[0])
	assert.Equal(t, 3, v.Vocabulary().Size())
}

func TestTransformZeroVector(t *testing.T) {
	v := NewVectorizer(plainOptions())

	_, err := v.FitTransform([]string{"aa bb"})
	require.NoError(t, err)

	// Документ без распознанных термов дает нулевой вектор
	vectors, err := v.Transform([]string{"zz qq"})
	require.NoError(t, err)
	assert.True(t, vectors[0].IsZero())
	assert.InDelta(t, 0.0, vectors[0].Dot(vectors[0]), 1e-9)
}

func TestMaxTermsCapWithTies(t *testing.T) {
	opts := plainOptions()
	opts.MaxTerms = 2
	v := NewVectorizer(opts)

	// Корпусные частоты: xx=2, yy=1, zz=1 — при равенстве побеждает
	// встретившийся раньше (yy)
	vocab, err := v.Fit([]string{"xx yy zz", "xx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"xx", "yy"}, vocab.Terms)
}

func TestMinDocumentFrequency(t *testing.T) {
	opts := plainOptions()
	opts.MinDF = 2
	v := NewVectorizer(opts)

	vocab, err := v.Fit([]string{"aa bb", "aa cc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa"}, vocab.Terms)
}

func TestMaxDocumentFrequency(t *testing.T) {
	opts := plainOptions()
	opts.MaxDF = 0.5
	v := NewVectorizer(opts)

	// aa встречается во всех документах и исключается
	vocab, err := v.Fit([]string{"aa bb", "aa cc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bb", "cc"}, vocab.Terms)
}

func TestStopwordsExcluded(t *testing.T) {
	opts := plainOptions()
	opts.Stopwords = EnglishStopwords
	v := NewVectorizer(opts)

	vocab, err := v.Fit([]string{"the galaxy and the hero"})
	require.NoError(t, err)
	assert.Equal(t, []string{"galaxy", "hero"}, vocab.Terms)
}

func TestNGramExtraction(t *testing.T) {
	opts := plainOptions()
	opts.NGramMax = 2
	v := NewVectorizer(opts)

	vocab, err := v.Fit([]string{"aa bb cc"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aa", "bb", "cc", "aa bb", "bb cc"}, vocab.Terms)
}

func TestSublinearTermFrequency(t *testing.T) {
	opts := plainOptions()
	opts.SublinearTF = true
	v := NewVectorizer(opts)

	vectors, err := v.FitTransform([]string{"aa aa bb", "cc"})
	require.NoError(t, err)

	vocab := v.Vocabulary()
	iAA := vocab.Index["aa"]
	iBB := vocab.Index["bb"]

	// tf(aa) = 1 + ln(2) вместо 2; отношение весов проверяем до нормировки
	expected := (1 + math.Log(2)) * vocab.IDF[iAA] / vocab.IDF[iBB]
	var vAA, vBB float64
	for i, idx := range vectors[0].Indices {
		switch idx {
		case iAA:
			vAA = vectors[0].Values[i]
		case iBB:
			vBB = vectors[0].Values[i]
		}
	}
	assert.InDelta(t, expected, vAA/vBB, 1e-9)
}

func TestVocabularyCollapseIsError(t *testing.T) {
	opts := plainOptions()
	opts.MinDF = 100
	v := NewVectorizer(opts)

	_, err := v.Fit([]string{"aa bb", "cc"})
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestUnsmoothedIDF(t *testing.T) {
	opts := plainOptions()
	opts.SmoothIDF = false
	v := NewVectorizer(opts)

	vocab, err := v.Fit([]string{"aa bb", "aa cc"})
	require.NoError(t, err)

	// Без сглаживания: ln(N/df) + 1
	assert.InDelta(t, math.Log(2.0/2.0)+1, vocab.IDF[vocab.Index["aa"]], 1e-9)
	assert.InDelta(t, math.Log(2.0/1.0)+1, vocab.IDF[vocab.Index["bb"]], 1e-9)
}
