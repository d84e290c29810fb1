package entity

import "fmt"

type ReactionType string

const (
	ReactionNone    ReactionType = "none"
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

func ParseReaction(s string) (ReactionType, error) {
	switch ReactionType(s) {
	case ReactionNone, ReactionLike, ReactionDislike:
		return ReactionType(s), nil
	default:
		return "", fmt.Errorf("unknown reaction %q", s)
	}
}

// Scan нужен для my_reaction в выборке (NULL = нет реакции)
func (r *ReactionType) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = ReactionNone
	case string:
		*r = ReactionType(v)
	case []byte:
		*r = ReactionType(v)
	default:
		return fmt.Errorf("cannot scan %T into ReactionType", src)
	}
	return nil
}

// ReactionAction - операция над строкой реакции
type ReactionAction int

const (
	ReactionNoop ReactionAction = iota
	ReactionInsert
	ReactionUpdate
	ReactionRemove
)

// ReactionOutcome - что произошло с реакцией, возвращается клиенту
type ReactionOutcome string

const (
	OutcomeUnchanged ReactionOutcome = "unchanged"
	OutcomeCreated   ReactionOutcome = "created"
	OutcomeUpdated   ReactionOutcome = "updated"
	OutcomeDisabled  ReactionOutcome = "disabled"
)

func (a ReactionAction) Outcome() ReactionOutcome {
	switch a {
	case ReactionInsert:
		return OutcomeCreated
	case ReactionUpdate:
		return OutcomeUpdated
	case ReactionRemove:
		return OutcomeDisabled
	default:
		return OutcomeUnchanged
	}
}

// NextReaction - переключатель реакции.
// Повтор той же реакции или запрос "none" снимают реакцию
func NextReaction(current, requested ReactionType) (ReactionAction, ReactionType) {
	if current == "" {
		current = ReactionNone
	}

	switch {
	case current == ReactionNone && requested == ReactionNone:
		return ReactionNoop, ReactionNone
	case current == ReactionNone:
		return ReactionInsert, requested
	case requested == ReactionNone || requested == current:
		return ReactionRemove, ReactionNone
	default:
		return ReactionUpdate, requested
	}
}
