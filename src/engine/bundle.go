package engine

// BundleKind вид содержимого модельного бандла
type BundleKind int

const (
	// BundleVectorizerOnly бандл содержит только обученный векторизатор и векторы
	BundleVectorizerOnly BundleKind = iota
	// BundleVectorizerWithMatrix бандл содержит также предвычисленную матрицу сходств
	BundleVectorizerWithMatrix
)

// ModelBundle обученная модель с явно помеченным составом. Закрытый набор
// вариантов исключает невозможные комбинации вроде матрицы без векторизатора.
type ModelBundle struct {
	kind       BundleKind
	vectorizer *Vectorizer
	vectors    []DocumentVector
	matrix     Matrix
}

// NewVectorizerBundle создает бандл без предвычисленной матрицы
func NewVectorizerBundle(vectorizer *Vectorizer, vectors []DocumentVector) *ModelBundle {
	return &ModelBundle{
		kind:       BundleVectorizerOnly,
		vectorizer: vectorizer,
		vectors:    vectors,
	}
}

// NewMatrixBundle создает бандл с предвычисленной матрицей сходств
func NewMatrixBundle(vectorizer *Vectorizer, vectors []DocumentVector, matrix Matrix) *ModelBundle {
	return &ModelBundle{
		kind:       BundleVectorizerWithMatrix,
		vectorizer: vectorizer,
		vectors:    vectors,
		matrix:     matrix,
	}
}

// Kind возвращает вид бандла
func (b *ModelBundle) Kind() BundleKind {
	return b.kind
}

// Vectorizer возвращает обученный векторизатор
func (b *ModelBundle) Vectorizer() *Vectorizer {
	return b.vectorizer
}

// Vectors возвращает векторы корпуса
func (b *ModelBundle) Vectors() []DocumentVector {
	return b.vectors
}

// SimilarityMatrix возвращает матрицу попарных сходств корпуса,
// вычисляя её, если бандл содержит только векторизатор
func (b *ModelBundle) SimilarityMatrix() Matrix {
	if b.kind == BundleVectorizerWithMatrix {
		return b.matrix
	}
	return PairwiseSimilarity(b.vectors, b.vectors)
}
