package engine

import (
	"fmt"
	"sort"

	"movie-recommender/src/domain"
)

// Matrix матрица попарных сходств. Строка i содержит сходство элемента i
// со всеми элементами второго набора; значения лежат в [0, 1].
type Matrix [][]float64

// Rows возвращает число строк матрицы
func (m Matrix) Rows() int {
	return len(m)
}

// Cols возвращает число столбцов матрицы
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// IsSquare сообщает, квадратная ли матрица
func (m Matrix) IsSquare() bool {
	return m.Rows() > 0 && m.Rows() == m.Cols()
}

// Mean среднее значение по всем элементам матрицы
func (m Matrix) Mean() float64 {
	var sum float64
	var count int
	for _, row := range m {
		for _, v := range row {
			sum += v
		}
		count += len(row)
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Max максимальное значение матрицы
func (m Matrix) Max() float64 {
	first := true
	var max float64
	for _, row := range m {
		for _, v := range row {
			if first || v > max {
				max = v
				first = false
			}
		}
	}
	return max
}

// Min минимальное значение матрицы
func (m Matrix) Min() float64 {
	first := true
	var min float64
	for _, row := range m {
		for _, v := range row {
			if first || v < min {
				min = v
				first = false
			}
		}
	}
	return min
}

// Density доля элементов матрицы, превышающих порог
func (m Matrix) Density(threshold float64) float64 {
	var above, count int
	for _, row := range m {
		for _, v := range row {
			if v > threshold {
				above++
			}
		}
		count += len(row)
	}
	if count == 0 {
		return 0
	}
	return float64(above) / float64(count)
}

// PairwiseSimilarity вычисляет матрицу попарных сходств двух наборов
// нормированных векторов как скалярные произведения. При a == b матрица
// симметрична, диагональ равна 1 для ненулевых векторов и 0 для нулевых.
func PairwiseSimilarity(a, b []DocumentVector) Matrix {
	matrix := make(Matrix, len(a))
	for i, va := range a {
		row := make([]float64, len(b))
		for j, vb := range b {
			row[j] = va.Dot(vb)
		}
		matrix[i] = row
	}
	return matrix
}

// ScoredColumn пара (индекс столбца, оценка сходства)
type ScoredColumn struct {
	Index int
	Score float64
}

// TopN возвращает n столбцов строки row с наибольшим сходством, по убыванию
// оценки; равные оценки упорядочены по возрастанию индекса столбца.
// При excludeSelf и квадратной матрице собственный индекс строки исключается
// до усечения независимо от его оценки. Длина результата — min(n, число
// доступных кандидатов).
func TopN(m Matrix, row, n int, excludeSelf bool) ([]ScoredColumn, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: top_n=%d", domain.ErrInvalidArgument, n)
	}
	if row < 0 || row >= m.Rows() {
		return nil, fmt.Errorf("%w: строка %d при %d строках", domain.ErrIndexOutOfRange, row, m.Rows())
	}

	skipSelf := excludeSelf && m.IsSquare()
	candidates := make([]ScoredColumn, 0, m.Cols())
	for j, score := range m[row] {
		if skipSelf && j == row {
			continue
		}
		candidates = append(candidates, ScoredColumn{Index: j, Score: score})
	}

	// Кандидаты идут по возрастанию индекса, поэтому стабильная сортировка
	// по убыванию оценки сохраняет нужный порядок при равных оценках
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if n < len(candidates) {
		candidates = candidates[:n]
	}
	return candidates, nil
}
