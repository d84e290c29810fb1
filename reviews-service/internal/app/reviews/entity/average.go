package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 5
)

var ErrScoreOutOfRange = errors.New("score must be between 1 and 5")

// MeanTolerance - допустимое расхождение среднего при сверке
const MeanTolerance = 1e-9

func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// ScoreHistogram хранит количество оценок 1..5 (индекс = оценка - 1).
// В БД и JSON представлен как {"1":n1,...,"5":n5}
type ScoreHistogram [MaxScore]int

func (h ScoreHistogram) Get(score int) int {
	if !ValidScore(score) {
		return 0
	}
	return h[score-1]
}

func (h *ScoreHistogram) Inc(score int) {
	h[score-1]++
}

// Total - сумма по всем оценкам, должна совпадать с Count агрегата
func (h ScoreHistogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Mean - среднее, посчитанное напрямую из гистограммы
func (h ScoreHistogram) Mean() float64 {
	total, sum := 0, 0
	for i, n := range h {
		total += n
		sum += (i + 1) * n
	}
	if total == 0 {
		return 0
	}
	return float64(sum) / float64(total)
}

func (h ScoreHistogram) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, MaxScore)
	for i, n := range h {
		m[strconv.Itoa(i+1)] = n
	}
	return json.Marshal(m)
}

func (h *ScoreHistogram) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	var out ScoreHistogram
	for k, n := range m {
		score, err := strconv.Atoi(k)
		if err != nil || !ValidScore(score) {
			return fmt.Errorf("invalid histogram key %q", k)
		}
		out[score-1] = n
	}
	*h = out
	return nil
}

// Value сохраняет гистограмму в jsonb
func (h ScoreHistogram) Value() (driver.Value, error) {
	data, err := h.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (h *ScoreHistogram) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*h = ScoreHistogram{}
		return nil
	case []byte:
		return h.UnmarshalJSON(v)
	case string:
		return h.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into ScoreHistogram", src)
	}
}

// NewReviewAverage создает агрегат по первой оценке пары
func NewReviewAverage(artistID, eventID uuid.UUID, score int) *ReviewAverage {
	avg := &ReviewAverage{
		ArtistID:  artistID,
		EventID:   eventID,
		Value:     float64(score),
		Count:     1,
		UpdatedAt: time.Now().UTC(),
	}
	avg.Detail.Inc(score)
	return avg
}

// Record учитывает новую оценку инкрементально:
// newValue = value + (score - value) / newCount
func (a *ReviewAverage) Record(score int) error {
	if !ValidScore(score) {
		return ErrScoreOutOfRange
	}

	newCount := a.Count + 1
	a.Value = a.Value + (float64(score)-a.Value)/float64(newCount)
	a.Count = newCount
	a.Detail.Inc(score)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// AverageFromHistogram пересчитывает агрегат с нуля (используется сверкой)
func AverageFromHistogram(artistID, eventID uuid.UUID, h ScoreHistogram) *ReviewAverage {
	return &ReviewAverage{
		ArtistID:  artistID,
		EventID:   eventID,
		Value:     h.Mean(),
		Count:     h.Total(),
		Detail:    h,
		UpdatedAt: time.Now().UTC(),
	}
}

// SameAs сравнивает агрегаты с допуском на накопленную ошибку float
func (a *ReviewAverage) SameAs(other *ReviewAverage) bool {
	if a == nil || other == nil {
		return a == nil && other == nil
	}
	return a.Count == other.Count &&
		a.Detail == other.Detail &&
		math.Abs(a.Value-other.Value) <= MeanTolerance
}
