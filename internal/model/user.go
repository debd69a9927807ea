package model

import (
	"time"
)

type UserRole string

const (
	Tagger    UserRole = "tagger"
	Publisher UserRole = "publisher"
	Admin     UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name        string    `gorm:"size:100;not null" json:"name"`
	Email       string    `gorm:"size:100;unique;not null" json:"email"`
	Password    string    `gorm:"size:100;not null" json:"-"`
	Role        UserRole  `gorm:"size:20;default:'tagger';index" json:"role"`
	Score       int       `gorm:"default:0" json:"score"`         // 积分余额，发布方扣除、标注者获得
	TagScore    int       `gorm:"default:0" json:"tagScore"`      // 累计标注所得积分
	CreditScore int       `gorm:"default:100" json:"creditScore"` // 信用分，决定每日可接任务数
	VipGrowth   int       `gorm:"default:0" json:"vipGrowth"`     // VIP成长值
	IsBanned    bool      `gorm:"default:false;index" json:"isBanned"`
	LastLogin   time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

// DailyAcceptLimit 每日可接任务数：信用分/10，至少1个
func (u *User) DailyAcceptLimit() int {
	limit := u.CreditScore / 10
	if limit < 1 {
		limit = 1
	}
	return limit
}

// TaggerCategoryStat 标注者在各任务分类下的接单计数，供后续分发加权使用
type TaggerCategoryStat struct {
	BaseModel
	TaggerID    uint   `gorm:"uniqueIndex:idx_tagger_category" json:"taggerId"`
	Category    string `gorm:"size:50;uniqueIndex:idx_tagger_category" json:"category"`
	AcceptCount int    `gorm:"default:0" json:"acceptCount"`
}

func (TaggerCategoryStat) TableName() string {
	return "tagger_category_stats"
}
