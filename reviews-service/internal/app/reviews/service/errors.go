package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrAlreadyRated          = errors.New("review already rated")
	ErrReviewNotFound        = errors.New("review not found")
	ErrReviewPendingRating   = errors.New("review pending rating")
	ErrRatingRequired        = errors.New("comment requires a rating")
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrAverageNotFound       = errors.New("review average not found")
	ErrCouldNotRate          = errors.New("could not rate")
	ErrInvalidReaction       = errors.New("unknown reaction")
	ErrCouldNotReact         = errors.New("could not react")
	ErrReactionCreateFailed  = errors.New("could not create reaction")
	ErrReactionUpdateFailed  = errors.New("could not update reaction")
	ErrReactionDisableFailed = errors.New("could not disable reaction")
)

// ErrorKind - класс ошибки для транспортного слоя
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConflict
	KindNotFound
	KindBadRule
	KindUnprocessable
)

func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindBadRule:
		return "bad_rule"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "unknown"
	}
}

// KindOf классифицирует ошибку сервиса. Незнакомые ошибки - KindUnknown
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrAlreadyRated):
		return KindConflict
	case errors.Is(err, ErrReviewNotFound), errors.Is(err, ErrAverageNotFound):
		return KindNotFound
	case errors.Is(err, ErrReviewPendingRating),
		errors.Is(err, ErrRatingRequired),
		errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrInvalidReaction):
		return KindBadRule
	case errors.Is(err, ErrCouldNotRate),
		errors.Is(err, ErrCouldNotReact),
		errors.Is(err, ErrReactionCreateFailed),
		errors.Is(err, ErrReactionUpdateFailed),
		errors.Is(err, ErrReactionDisableFailed):
		return KindUnprocessable
	default:
		return KindUnknown
	}
}
