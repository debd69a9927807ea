package repository

import (
	"labelmarket_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

// EligibleTaggers 按ID升序返回全部标注者（含封禁标记），轮转选择在此序列上进行
func (r *UserRepository) EligibleTaggers() ([]model.User, error) {
	var taggers []model.User
	err := r.DB.Where("role = ?", model.Tagger).Order("id ASC").Find(&taggers).Error
	return taggers, err
}

func (r *UserRepository) CountTaggers() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("role = ?", model.Tagger).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountBannedTaggers() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).
		Where("role = ? AND is_banned = ?", model.Tagger, true).
		Count(&count).Error
	return count, err
}

func (r *UserRepository) SetBanned(id uint, banned bool) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Update("is_banned", banned).Error
}
