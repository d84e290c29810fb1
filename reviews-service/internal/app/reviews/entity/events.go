package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeReviewIntent    = "REVIEW_INTENT"
	EventTypeReviewRated     = "REVIEW_RATED"
	EventTypeReactionChanged = "REACTION_CHANGED"
)

// ReviewEvent - событие в топике review_events
type ReviewEvent struct {
	EventType  string       `json:"event_type"`
	ReviewID   uuid.UUID    `json:"review_id"`
	ArtistID   uuid.UUID    `json:"artist_id"`
	EventID    uuid.UUID    `json:"event_id"`
	CustomerID uuid.UUID    `json:"customer_id"`
	Rating     int          `json:"rating,omitempty"`
	Average    float64      `json:"average,omitempty"`
	Count      int          `json:"count,omitempty"`
	Reaction   ReactionType `json:"reaction,omitempty"`
	Outcome    string       `json:"outcome,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// PartitionKey - события одной пары попадают в одну партицию
func (e ReviewEvent) PartitionKey() string {
	if e.EventType == EventTypeReactionChanged {
		return e.ReviewID.String()
	}
	return e.ArtistID.String() + ":" + e.EventID.String()
}

// AggregateAudit - запись о сверке агрегата, хранится в MongoDB
type AggregateAudit struct {
	ArtistID   string         `json:"artist_id" bson:"artist_id"`
	EventID    string         `json:"event_id" bson:"event_id"`
	Stored     *AuditSnapshot `json:"stored,omitempty" bson:"stored,omitempty"`
	Recomputed AuditSnapshot  `json:"recomputed" bson:"recomputed"`
	Repaired   bool           `json:"repaired" bson:"repaired"`
	CheckedAt  time.Time      `json:"checked_at" bson:"checked_at"`
}

type AuditSnapshot struct {
	Value  float64 `json:"value" bson:"value"`
	Count  int     `json:"count" bson:"count"`
	Detail []int   `json:"detail" bson:"detail"`
}

func SnapshotOf(avg *ReviewAverage) AuditSnapshot {
	detail := make([]int, len(avg.Detail))
	copy(detail, avg.Detail[:])
	return AuditSnapshot{Value: avg.Value, Count: avg.Count, Detail: detail}
}

// ReconcileReport - итог одного прогона сверки
type ReconcileReport struct {
	Checked  int       `json:"checked"`
	Drifted  int       `json:"drifted"`
	Repaired int       `json:"repaired"`
	Failed   int       `json:"failed"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}
