package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitalcircle/vitalcircle/models"
	"github.com/vitalcircle/vitalcircle/utils"
)

// StreakMilestones are the consecutive-day counts that earn an achievement.
var StreakMilestones = []int{3, 7, 14, 30, 60, 100}

// MilestoneTitle is the achievement title for a streak milestone.
func MilestoneTitle(days int) string {
	return fmt.Sprintf("%d-day logging streak", days)
}

// AchievementService awards achievements once per user and title.
type AchievementService struct {
	db       *gorm.DB
	notifier Notifier
}

// NewAchievementService creates an AchievementService. notifier may be nil.
func NewAchievementService(db *gorm.DB, notifier Notifier) *AchievementService {
	return &AchievementService{db: db, notifier: notifier}
}

// AwardStreakMilestones grants every milestone reached by the current streak that the user
// does not hold yet, and returns the new ones.
func (s *AchievementService) AwardStreakMilestones(ctx context.Context, userID uint, streak StreakState) ([]models.Achievement, error) {
	awarded := make([]models.Achievement, 0)
	for _, m := range StreakMilestones {
		if streak.CurrentStreak < m {
			break
		}
		a := models.Achievement{
			UserID:      userID,
			Title:       MilestoneTitle(m),
			Description: fmt.Sprintf("Logged health data %d days in a row.", m),
			AchievedAt:  time.Now().UTC(),
		}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&a)
		if res.Error != nil {
			return awarded, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		awarded = append(awarded, a)
		if s.notifier != nil {
			s.notifier.Publish(userID, EventAchievement, a)
		}
		utils.Sugar.Infow("achievement awarded", "user_id", userID, "title", a.Title)
	}
	return awarded, nil
}

// Recent lists the user's achievements, newest first. limit <= 0 means all.
func (s *AchievementService) Recent(ctx context.Context, userID uint, limit int) ([]models.Achievement, error) {
	out := make([]models.Achievement, 0)
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("achieved_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
