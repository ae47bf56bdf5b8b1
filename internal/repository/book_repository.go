package repository

import (
	"context"
	"errors"

	"bookvault/internal/domain"
	"bookvault/internal/observability"

	"gorm.io/gorm"
)

var ErrBookNotFound = errors.New("book not found")

type BookRepository interface {
	List() ([]domain.Book, error)
	FindByID(id uint) (*domain.Book, error)
	Create(book *domain.Book) error
	Update(book *domain.Book) error
	Delete(id uint) error
}

type GormBookRepository struct{ db *gorm.DB }

func NewBookRepository(db *gorm.DB) BookRepository { return &GormBookRepository{db: db} }

func (r *GormBookRepository) List() ([]domain.Book, error) {
	var books []domain.Book
	err := r.db.Order("title ASC").Find(&books).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "book", "list", "error")
		return books, err
	}
	observability.RecordRepositoryOperation(context.Background(), "book", "list", "success")
	return books, nil
}

func (r *GormBookRepository) FindByID(id uint) (*domain.Book, error) {
	var b domain.Book
	err := r.db.First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "book", "find_by_id", "not_found")
			return nil, ErrBookNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "book", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "book", "find_by_id", "success")
	return &b, nil
}

func (r *GormBookRepository) Create(book *domain.Book) error {
	err := r.db.Create(book).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "book", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "book", "create", "success")
	return nil
}

func (r *GormBookRepository) Update(book *domain.Book) error {
	err := r.db.Save(book).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "book", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "book", "update", "success")
	return nil
}

func (r *GormBookRepository) Delete(id uint) error {
	res := r.db.Delete(&domain.Book{}, id)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "book", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), "book", "delete", "not_found")
		return ErrBookNotFound
	}
	observability.RecordRepositoryOperation(context.Background(), "book", "delete", "success")
	return nil
}
