package repository

import (
	"context"

	"stagereviews/pkg/metrics"

	"gorm.io/gorm"
)

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor возвращает Transactor поверх GORM.
// Ошибка fn (или отмена контекста) откатывает всю транзакцию
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(reviews ReviewRepository, averages AverageRepository) error) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewReviewRepository(tx), NewAverageRepository(tx))
	})

	metrics.RecordTransaction(err == nil)
	return err
}
