package entity

// ReviewState - состояние отзыва по ключу (покупатель, артист, событие)
type ReviewState int

const (
	ReviewAbsent ReviewState = iota
	ReviewUnrated
	ReviewRated
)

func (s ReviewState) String() string {
	switch s {
	case ReviewAbsent:
		return "absent"
	case ReviewUnrated:
		return "unrated"
	case ReviewRated:
		return "rated"
	default:
		return "unknown"
	}
}

// StateOf определяет состояние по найденной строке (nil - строки нет)
func StateOf(review *Review) ReviewState {
	switch {
	case review == nil:
		return ReviewAbsent
	case review.IsRated:
		return ReviewRated
	default:
		return ReviewUnrated
	}
}

// SubmissionKind - что прислал покупатель
type SubmissionKind int

const (
	// SubmissionIntent - ни оценки, ни комментария: только намерение оставить отзыв
	SubmissionIntent SubmissionKind = iota
	SubmissionRating
)

// LifecycleAction - действие, которое нужно выполнить над хранилищем
type LifecycleAction int

const (
	ActionAcknowledge LifecycleAction = iota
	ActionCreatePlaceholder
	ActionPromotePlaceholder
	ActionCreateRated
	ActionRejectAlreadyRated
)

func (a LifecycleAction) String() string {
	switch a {
	case ActionAcknowledge:
		return "acknowledge"
	case ActionCreatePlaceholder:
		return "create_placeholder"
	case ActionPromotePlaceholder:
		return "promote_placeholder"
	case ActionCreateRated:
		return "create_rated"
	case ActionRejectAlreadyRated:
		return "reject_already_rated"
	default:
		return "unknown"
	}
}

// NextAction - таблица переходов жизненного цикла отзыва.
// Оценка записывается ровно один раз, после этого строка не меняется
func NextAction(state ReviewState, kind SubmissionKind) LifecycleAction {
	if kind == SubmissionIntent {
		if state == ReviewAbsent {
			return ActionCreatePlaceholder
		}
		return ActionAcknowledge
	}

	switch state {
	case ReviewAbsent:
		return ActionCreateRated
	case ReviewUnrated:
		return ActionPromotePlaceholder
	default:
		return ActionRejectAlreadyRated
	}
}
