package domain

import (
	"errors"
	"fmt"
)

// Ошибки ядра рекомендательной системы. Агрегирующие операции
// (кросс-валидация, перебор гиперпараметров) изолируют ошибки отдельных
// фолдов и кандидатов; эти ошибки возвращаются только когда бессмысленна
// вся запрошенная операция.
var (
	// ErrInvalidArgument некорректный аргумент вызова (top_n <= 0, k <= 0 и т.п.)
	ErrInvalidArgument = errors.New("некорректный аргумент")

	// ErrUnfittedModel попытка применить модель до обучения
	ErrUnfittedModel = errors.New("модель не обучена")

	// ErrInsufficientData корпус пуст или слишком мал для запрошенной операции
	ErrInsufficientData = errors.New("недостаточно данных")

	// ErrIndexOutOfRange индекс строки вне границ матрицы сходств
	ErrIndexOutOfRange = errors.New("индекс вне границ матрицы")

	// ErrMovieNotFound фильм с указанным названием отсутствует в корпусе.
	// Отличается от ErrEngineNotReady: корпус загружен, но совпадений нет.
	ErrMovieNotFound = errors.New("фильм не найден")

	// ErrEngineNotReady движок рекомендаций ещё не инициализирован
	ErrEngineNotReady = errors.New("движок рекомендаций не готов")
)

// CandidateFitError ошибка обучения одного кандидата перебора гиперпараметров.
// Фиксируется в списке кандидатов и не прерывает перебор.
type CandidateFitError struct {
	Parameters string
	Err        error
}

func (e *CandidateFitError) Error() string {
	return fmt.Sprintf("кандидат %s не обучился: %v", e.Parameters, e.Err)
}

func (e *CandidateFitError) Unwrap() error {
	return e.Err
}
