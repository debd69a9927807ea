package service

import (
	"context"
	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/repository"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	poolCountKey       = "tagger_pool:count"
	poolBannedCountKey = "tagger_pool:banned_count"
	poolCacheTTL       = 30 * time.Second
)

// PoolService 标注者池索引：按ID升序的可选标注者序列、封禁统计与轮转位置。
// 数量统计走Redis短缓存，封禁变更时失效。
type PoolService struct {
	UserRepo   *repository.UserRepository
	CursorRepo *repository.CursorRepository
	Redis      *redis.Client
}

func NewPoolService(userRepo *repository.UserRepository, cursorRepo *repository.CursorRepository, rdb *redis.Client) *PoolService {
	return &PoolService{UserRepo: userRepo, CursorRepo: cursorRepo, Redis: rdb}
}

// EligibleTaggers 全部标注者，ID升序，含封禁标记；轮转走此序列
func (s *PoolService) EligibleTaggers() ([]model.User, error) {
	return s.UserRepo.EligibleTaggers()
}

// CursorValue 当前轮转游标位置，即上一次被选中的标注者ID
func (s *PoolService) CursorValue() (uint, error) {
	return s.CursorRepo.Get()
}

func (s *PoolService) Count(ctx context.Context) (int64, error) {
	return s.cachedCount(ctx, poolCountKey, s.UserRepo.CountTaggers)
}

func (s *PoolService) BannedCount(ctx context.Context) (int64, error) {
	return s.cachedCount(ctx, poolBannedCountKey, s.UserRepo.CountBannedTaggers)
}

func (s *PoolService) cachedCount(ctx context.Context, key string, load func() (int64, error)) (int64, error) {
	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, key).Result(); err == nil {
			if n, convErr := strconv.ParseInt(val, 10, 64); convErr == nil {
				return n, nil
			}
		}
	}

	n, err := load()
	if err != nil {
		return 0, err
	}
	if s.Redis != nil {
		s.Redis.Set(ctx, key, strconv.FormatInt(n, 10), poolCacheTTL)
	}
	return n, nil
}

// SetBanned 封禁/解封标注者并使缓存失效
func (s *PoolService) SetBanned(ctx context.Context, taggerID uint, banned bool) error {
	if err := s.UserRepo.SetBanned(taggerID, banned); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

func (s *PoolService) Invalidate(ctx context.Context) {
	if s.Redis != nil {
		s.Redis.Del(ctx, poolCountKey, poolBannedCountKey)
	}
}
