package service

import (
	"context"
	"errors"
	"sync"

	"stagereviews/reviews-service/internal/app/reviews/entity"
	"stagereviews/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
)

// memStore - хранилище в памяти с транзакциями "все или ничего".
// Транзакция держит мьютекс, работает на копии состояния и подменяет его при коммите
type memStore struct {
	mu    sync.Mutex
	state *memState

	// failAverageWrite имитирует сбой записи агрегата внутри транзакции
	failAverageWrite bool
}

type memState struct {
	reviews   map[uuid.UUID]*entity.Review
	averages  map[entity.PairKey]*entity.ReviewAverage
	reactions map[[2]uuid.UUID]entity.ReactionType
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		reviews:   map[uuid.UUID]*entity.Review{},
		averages:  map[entity.PairKey]*entity.ReviewAverage{},
		reactions: map[[2]uuid.UUID]entity.ReactionType{},
	}}
}

func (s *memState) clone() *memState {
	out := &memState{
		reviews:   make(map[uuid.UUID]*entity.Review, len(s.reviews)),
		averages:  make(map[entity.PairKey]*entity.ReviewAverage, len(s.averages)),
		reactions: make(map[[2]uuid.UUID]entity.ReactionType, len(s.reactions)),
	}
	for id, r := range s.reviews {
		cp := *r
		out.reviews[id] = &cp
	}
	for k, a := range s.averages {
		cp := *a
		out.averages[k] = &cp
	}
	for k, v := range s.reactions {
		out.reactions[k] = v
	}
	return out
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(reviews repository.ReviewRepository, averages repository.AverageRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone()
	if err := fn(&memReviews{store: s, tx: tx}, &memAverages{store: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = tx
	return nil
}

func (s *memStore) reviews() *memReviews {
	return &memReviews{store: s}
}

func (s *memStore) averages() *memAverages {
	return &memAverages{store: s}
}

func (s *memStore) average(artistID, eventID uuid.UUID) *entity.ReviewAverage {
	s.mu.Lock()
	defer s.mu.Unlock()
	avg, ok := s.state.averages[entity.PairKey{ArtistID: artistID, EventID: eventID}]
	if !ok {
		return nil
	}
	cp := *avg
	return &cp
}

func (s *memStore) ratedCount(customerID, artistID, eventID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.state.reviews {
		if r.CreatedBy == customerID && r.ArtistID == artistID && r.EventID == eventID && r.IsRated {
			n++
		}
	}
	return n
}

func view(store *memStore, tx *memState) (*memState, func()) {
	if tx != nil {
		return tx, func() {}
	}
	store.mu.Lock()
	return store.state, store.mu.Unlock
}

type memReviews struct {
	store *memStore
	tx    *memState
}

func findByKey(st *memState, customerID, artistID, eventID uuid.UUID) *entity.Review {
	for _, r := range st.reviews {
		if r.CreatedBy == customerID && r.ArtistID == artistID && r.EventID == eventID {
			return r
		}
	}
	return nil
}

func (r *memReviews) GetByKey(ctx context.Context, customerID, artistID, eventID uuid.UUID) (*entity.Review, error) {
	st, done := view(r.store, r.tx)
	defer done()
	found := findByKey(st, customerID, artistID, eventID)
	if found == nil {
		return nil, repository.ErrReviewNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *memReviews) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	st, done := view(r.store, r.tx)
	defer done()
	found, ok := st.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *memReviews) insert(review *entity.Review) (bool, error) {
	st, done := view(r.store, r.tx)
	defer done()
	if findByKey(st, review.CreatedBy, review.ArtistID, review.EventID) != nil {
		return false, nil
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	cp := *review
	st.reviews[review.ID] = &cp
	return true, nil
}

func (r *memReviews) CreatePlaceholder(ctx context.Context, review *entity.Review) (bool, error) {
	review.Value = nil
	review.IsRated = false
	return r.insert(review)
}

func (r *memReviews) CreateRated(ctx context.Context, review *entity.Review) (bool, error) {
	review.IsRated = true
	return r.insert(review)
}

func (r *memReviews) PromoteToRated(ctx context.Context, review *entity.Review) (bool, error) {
	st, done := view(r.store, r.tx)
	defer done()
	found, ok := st.reviews[review.ID]
	if !ok || found.IsRated {
		return false, nil
	}
	review.IsRated = true
	cp := *review
	st.reviews[review.ID] = &cp
	return true, nil
}

func (r *memReviews) ListRatedByPair(ctx context.Context, artistID, eventID, viewerID uuid.UUID) ([]entity.ReviewWithReactions, error) {
	return nil, errors.New("not implemented")
}

func (r *memReviews) ListByAuthor(ctx context.Context, customerID uuid.UUID) ([]entity.Review, error) {
	return nil, errors.New("not implemented")
}

func (r *memReviews) ListRatedPairs(ctx context.Context) ([]entity.PairKey, error) {
	st, done := view(r.store, r.tx)
	defer done()
	seen := map[entity.PairKey]bool{}
	var pairs []entity.PairKey
	for _, rv := range st.reviews {
		key := entity.PairKey{ArtistID: rv.ArtistID, EventID: rv.EventID}
		if rv.IsRated && !seen[key] {
			seen[key] = true
			pairs = append(pairs, key)
		}
	}
	return pairs, nil
}

func (r *memReviews) ScoreCounts(ctx context.Context, artistID, eventID uuid.UUID) (entity.ScoreHistogram, error) {
	st, done := view(r.store, r.tx)
	defer done()
	var hist entity.ScoreHistogram
	for _, rv := range st.reviews {
		if rv.ArtistID == artistID && rv.EventID == eventID && rv.IsRated {
			hist.Inc(rv.Rating())
		}
	}
	return hist, nil
}

type memAverages struct {
	store *memStore
	tx    *memState
}

func (a *memAverages) Get(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	st, done := view(a.store, a.tx)
	defer done()
	avg, ok := st.averages[entity.PairKey{ArtistID: artistID, EventID: eventID}]
	if !ok {
		return nil, repository.ErrAverageNotFound
	}
	cp := *avg
	return &cp, nil
}

func (a *memAverages) GetForUpdate(ctx context.Context, artistID, eventID uuid.UUID) (*entity.ReviewAverage, error) {
	return a.Get(ctx, artistID, eventID)
}

func (a *memAverages) Create(ctx context.Context, avg *entity.ReviewAverage) (bool, error) {
	if a.store.failAverageWrite {
		return false, errors.New("disk full")
	}
	st, done := view(a.store, a.tx)
	defer done()
	key := entity.PairKey{ArtistID: avg.ArtistID, EventID: avg.EventID}
	if _, ok := st.averages[key]; ok {
		return false, nil
	}
	cp := *avg
	st.averages[key] = &cp
	return true, nil
}

func (a *memAverages) Update(ctx context.Context, avg *entity.ReviewAverage) error {
	if a.store.failAverageWrite {
		return errors.New("disk full")
	}
	st, done := view(a.store, a.tx)
	defer done()
	key := entity.PairKey{ArtistID: avg.ArtistID, EventID: avg.EventID}
	if _, ok := st.averages[key]; !ok {
		return repository.ErrAverageNotFound
	}
	cp := *avg
	st.averages[key] = &cp
	return nil
}

func (a *memAverages) Save(ctx context.Context, avg *entity.ReviewAverage) error {
	st, done := view(a.store, a.tx)
	defer done()
	cp := *avg
	st.averages[entity.PairKey{ArtistID: avg.ArtistID, EventID: avg.EventID}] = &cp
	return nil
}

// memReactions - реакции в памяти, отсутствие ключа = none
type memReactions struct {
	store *memStore
}

func (s *memStore) reactions() *memReactions { return &memReactions{store: s} }

func (r *memReactions) Get(ctx context.Context, reviewID, customerID uuid.UUID) (*entity.ReviewReaction, error) {
	st, done := view(r.store, nil)
	defer done()
	reaction, ok := st.reactions[[2]uuid.UUID{reviewID, customerID}]
	if !ok {
		return nil, repository.ErrReactionNotFound
	}
	return &entity.ReviewReaction{ReviewID: reviewID, CustomerID: customerID, Reaction: reaction}, nil
}

func (r *memReactions) Create(ctx context.Context, reaction *entity.ReviewReaction) error {
	st, done := view(r.store, nil)
	defer done()
	key := [2]uuid.UUID{reaction.ReviewID, reaction.CustomerID}
	if _, ok := st.reactions[key]; ok {
		return repository.ErrReactionExists
	}
	st.reactions[key] = reaction.Reaction
	return nil
}

func (r *memReactions) Update(ctx context.Context, reaction *entity.ReviewReaction) error {
	st, done := view(r.store, nil)
	defer done()
	key := [2]uuid.UUID{reaction.ReviewID, reaction.CustomerID}
	if _, ok := st.reactions[key]; !ok {
		return repository.ErrReactionNotFound
	}
	st.reactions[key] = reaction.Reaction
	return nil
}

func (r *memReactions) Delete(ctx context.Context, reviewID, customerID uuid.UUID) error {
	st, done := view(r.store, nil)
	defer done()
	key := [2]uuid.UUID{reviewID, customerID}
	if _, ok := st.reactions[key]; !ok {
		return repository.ErrReactionNotFound
	}
	delete(st.reactions, key)
	return nil
}

func (r *memReactions) current(reviewID, customerID uuid.UUID) entity.ReactionType {
	st, done := view(r.store, nil)
	defer done()
	reaction, ok := st.reactions[[2]uuid.UUID{reviewID, customerID}]
	if !ok {
		return entity.ReactionNone
	}
	return reaction
}
