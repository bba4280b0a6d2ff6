package referral

import (
	"context"

	"github.com/yunhetech/crypto-invest-backend/internal/models"
	"github.com/yunhetech/crypto-invest-backend/internal/repository"
)

// UplineService 上线链解析服务
type UplineService struct {
	userRepo *repository.UserRepository
}

// NewUplineService 创建上线链解析服务
func NewUplineService(userRepo *repository.UserRepository) *UplineService {
	return &UplineService{userRepo: userRepo}
}

// ResolveUpline 从投资人出发逐级解析上线，最多 MaxLevel 级。
// 返回切片下标 0 为一级上线。某级推荐码悬空（查不到用户）即截断，
// 不跳级继续；自引用同样截断，防止构造环。
func (s *UplineService) ResolveUpline(ctx context.Context, investor *models.User) ([]*models.User, error) {
	upline := make([]*models.User, 0, MaxLevel)
	seen := map[int64]bool{investor.ID: true}

	current := investor
	for level := 1; level <= MaxLevel; level++ {
		if current.ReferrerCode == nil || *current.ReferrerCode == "" {
			break
		}
		parent, err := s.userRepo.GetByReferralCode(ctx, *current.ReferrerCode)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			// 推荐码悬空，链到此为止
			break
		}
		if seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		upline = append(upline, parent)
		current = parent
	}

	return upline, nil
}
