package repository

import (
	"errors"
	"labelmarket_backend/internal/model"

	"gorm.io/gorm"
)

// rotationCursorID 游标单行记录的固定主键
const rotationCursorID uint = 1

type CursorRepository struct {
	DB *gorm.DB
}

func NewCursorRepository(db *gorm.DB) *CursorRepository {
	return &CursorRepository{DB: db}
}

// Ensure 保证游标行存在，启动时调用一次
func (r *CursorRepository) Ensure() error {
	var cursor model.RotationCursor
	err := r.DB.First(&cursor, rotationCursorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(&model.RotationCursor{ID: rotationCursorID, Value: 0}).Error
	}
	return err
}

func (r *CursorRepository) Get() (uint, error) {
	var cursor model.RotationCursor
	err := r.DB.First(&cursor, rotationCursorID).Error
	return cursor.Value, err
}
