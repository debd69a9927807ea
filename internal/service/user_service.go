package service

import (
	"errors"
	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/repository"
	"labelmarket_backend/internal/util"

	"gorm.io/gorm"
)

// UserService 用户档案与积分台账。Debit/Credit/PayReward 必须在调用方的
// 事务内执行，保证与状态机变更同进退。
type UserService struct {
	UserRepo *repository.UserRepository
	DB       *gorm.DB
}

func NewUserService(userRepo *repository.UserRepository, db *gorm.DB) *UserService {
	return &UserService{UserRepo: userRepo, DB: db}
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// Debit 余额充足时原子扣减，否则返回 ErrInsufficientScore
func (s *UserService) Debit(tx *gorm.DB, userID uint, amount int) error {
	if amount <= 0 {
		return nil
	}
	res := tx.Model(&model.User{}).
		Where("id = ? AND score >= ?", userID, amount).
		UpdateColumn("score", gorm.Expr("score - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrInsufficientScore
	}
	return nil
}

func (s *UserService) Credit(tx *gorm.DB, userID uint, amount int) error {
	if amount <= 0 {
		return nil
	}
	return tx.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("score", gorm.Expr("score + ?", amount)).Error
}

// PayReward 标注报酬入账：积分、标注积分、VIP成长值同步增长
func (s *UserService) PayReward(tx *gorm.DB, taggerID uint, amount int) error {
	if amount <= 0 {
		return nil
	}
	return tx.Model(&model.User{}).
		Where("id = ?", taggerID).
		UpdateColumns(map[string]interface{}{
			"score":      gorm.Expr("score + ?", amount),
			"tag_score":  gorm.Expr("tag_score + ?", amount),
			"vip_growth": gorm.Expr("vip_growth + ?", amount),
		}).Error
}
