package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"stagereviews/reviews-service/internal/app/reviews/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ReactionRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  ReactionRepository
	sqlDB *sql.DB
}

func TestReactionRepositorySuite(t *testing.T) {
	suite.Run(t, new(ReactionRepositoryTestSuite))
}

func (s *ReactionRepositoryTestSuite) SetupTest() {
	s.db, s.mock, s.sqlDB = newMockDB(s.T())
	s.repo = NewReactionRepository(s.db)
}

func (s *ReactionRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

func (s *ReactionRepositoryTestSuite) TestGet_Found() {
	ctx := context.Background()
	reviewID, customerID := uuid.New(), uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"review_id", "customer_id", "reaction", "created_at", "updated_at"}).
		AddRow(reviewID.String(), customerID.String(), "dislike", now, now)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT review_id, customer_id, reaction, created_at, updated_at FROM review_reactions WHERE review_id = $1 AND customer_id = $2`)).
		WithArgs(reviewID, customerID).
		WillReturnRows(rows)

	reaction, err := s.repo.Get(ctx, reviewID, customerID)

	s.NoError(err)
	s.Require().NotNil(reaction)
	s.Equal(entity.ReactionDislike, reaction.Reaction)
	s.Equal(reviewID, reaction.ReviewID)
}

func (s *ReactionRepositoryTestSuite) TestGet_NotFound() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM review_reactions`)).
		WillReturnRows(sqlmock.NewRows([]string{"review_id", "customer_id", "reaction", "created_at", "updated_at"}))

	reaction, err := s.repo.Get(context.Background(), uuid.New(), uuid.New())

	s.ErrorIs(err, ErrReactionNotFound)
	s.Nil(reaction)
}

func (s *ReactionRepositoryTestSuite) TestCreate_Success() {
	reaction := &entity.ReviewReaction{ReviewID: uuid.New(), CustomerID: uuid.New(), Reaction: entity.ReactionLike}

	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO review_reactions (review_id, customer_id, reaction, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs(reaction.ReviewID, reaction.CustomerID, "like", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.repo.Create(context.Background(), reaction)

	s.NoError(err)
	s.False(reaction.CreatedAt.IsZero())
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReactionRepositoryTestSuite) TestCreate_UniqueViolation() {
	reaction := &entity.ReviewReaction{ReviewID: uuid.New(), CustomerID: uuid.New(), Reaction: entity.ReactionLike}

	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO review_reactions`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.repo.Create(context.Background(), reaction)

	s.ErrorIs(err, ErrReactionExists)
}

func (s *ReactionRepositoryTestSuite) TestCreate_DBError() {
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO review_reactions`)).
		WillReturnError(sql.ErrConnDone)

	err := s.repo.Create(context.Background(), &entity.ReviewReaction{Reaction: entity.ReactionLike})

	s.Error(err)
	s.NotErrorIs(err, ErrReactionExists)
}

func (s *ReactionRepositoryTestSuite) TestUpdate() {
	reaction := &entity.ReviewReaction{ReviewID: uuid.New(), CustomerID: uuid.New(), Reaction: entity.ReactionDislike}

	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE review_reactions SET reaction = $1, updated_at = $2 WHERE review_id = $3 AND customer_id = $4`)).
		WithArgs("dislike", sqlmock.AnyArg(), reaction.ReviewID, reaction.CustomerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Update(context.Background(), reaction))
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReactionRepositoryTestSuite) TestUpdate_Missing() {
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE review_reactions`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.repo.Update(context.Background(), &entity.ReviewReaction{Reaction: entity.ReactionLike})

	s.ErrorIs(err, ErrReactionNotFound)
}

func (s *ReactionRepositoryTestSuite) TestDelete() {
	reviewID, customerID := uuid.New(), uuid.New()

	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM review_reactions WHERE review_id = $1 AND customer_id = $2`)).
		WithArgs(reviewID, customerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Delete(context.Background(), reviewID, customerID))
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReactionRepositoryTestSuite) TestDelete_Missing() {
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM review_reactions`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.repo.Delete(context.Background(), uuid.New(), uuid.New())

	s.ErrorIs(err, ErrReactionNotFound)
}
