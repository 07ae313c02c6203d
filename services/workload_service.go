package services

import (
	"errors"
	"os"
	"strconv"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

const (
	// overloadBufferDays pads the earliest active due date when estimating
	// when an overloaded reviewer frees up.
	overloadBufferDays = 7
	// leaveFallbackDays is the horizon used for unavailable/on_leave
	// reviewers; no return date is tracked, so this is a heuristic.
	leaveFallbackDays = 30
	// metricsWindowMonths is the trailing window for performance aggregates.
	metricsWindowMonths = 6
)

// DefaultTurnaroundDays is the platform default used when a reviewer profile
// does not specify a preferred turnaround.
func DefaultTurnaroundDays() int {
	if raw := os.Getenv("DEFAULT_TURNAROUND_DAYS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 14
}

// Availability is the result of an availability check.
type Availability struct {
	Available         bool       `json:"available"`
	CapacityRemaining int        `json:"capacity_remaining"`
	ActiveAssignments int        `json:"active_assignments"`
	NextAvailableDate *time.Time `json:"next_available_date,omitempty"`
	Reason            string     `json:"reason,omitempty"`
}

// ReviewerMetrics are read-only aggregates over completed assignments within
// the trailing window. They inform reviewer choice; nothing enforces them.
type ReviewerMetrics struct {
	CompletedReviews  int     `json:"completed_reviews"`
	AverageTurnaround float64 `json:"average_turnaround_days"`
	OnTimeRate        float64 `json:"on_time_rate"`
	DeclinedInvites   int     `json:"declined_invites"`
	ExpiredInvites    int     `json:"expired_invites"`
}

// ReviewerSettingsInput updates the workload facet of a reviewer profile.
type ReviewerSettingsInput struct {
	AvailabilityStatus      *string `json:"availability_status"`
	MaxReviewsPerMonth      *int    `json:"max_reviews_per_month"`
	PreferredTurnaroundDays *int    `json:"preferred_turnaround_days"`
}

// WorkloadService computes reviewer availability and performance.
type WorkloadService struct {
	db *gorm.DB
}

// NewWorkloadService constructs a WorkloadService.
func NewWorkloadService(db *gorm.DB) *WorkloadService {
	if db == nil {
		db = config.DB
	}
	return &WorkloadService{db: db}
}

// Profile loads a reviewer profile by user id.
func (s *WorkloadService) Profile(reviewerID int) (*models.ReviewerProfile, error) {
	var profile models.ReviewerProfile
	if err := s.db.Where("user_id = ?", reviewerID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("reviewer profile for user %d not found", reviewerID)
		}
		return nil, err
	}
	return &profile, nil
}

// activeAssignmentCount counts invited, accepted and in_progress assignments.
func (s *WorkloadService) activeAssignmentCount(reviewerID int) (int, error) {
	var count int64
	err := s.db.Model(&models.ReviewAssignment{}).
		Where("reviewer_id = ? AND status IN ?", reviewerID, models.ActiveAssignmentStatuses).
		Count(&count).Error
	return int(count), err
}

// IsAvailable reports whether the reviewer can take a new assignment. A
// reviewer is available iff their status is "available" and their active
// assignments plus pending invitations sit below max_reviews_per_month.
func (s *WorkloadService) IsAvailable(reviewerID int) (*Availability, error) {
	profile, err := s.Profile(reviewerID)
	if err != nil {
		return nil, err
	}

	active, err := s.activeAssignmentCount(reviewerID)
	if err != nil {
		return nil, err
	}

	remaining := profile.MaxReviewsPerMonth - active
	if remaining < 0 {
		remaining = 0
	}

	result := &Availability{
		CapacityRemaining: remaining,
		ActiveAssignments: active,
	}

	if profile.AvailabilityStatus == models.AvailabilityUnavailable ||
		profile.AvailabilityStatus == models.AvailabilityOnLeave {
		next := time.Now().AddDate(0, 0, leaveFallbackDays)
		result.NextAvailableDate = &next
		result.Reason = "reviewer marked " + profile.AvailabilityStatus
		return result, nil
	}

	if profile.AvailabilityStatus != models.AvailabilityAvailable {
		result.Reason = "reviewer marked " + profile.AvailabilityStatus
		return result, nil
	}

	if remaining == 0 {
		next, estErr := s.estimateNextFree(reviewerID)
		if estErr != nil {
			return nil, estErr
		}
		result.NextAvailableDate = next
		result.Reason = "monthly review capacity reached"
		return result, nil
	}

	result.Available = true
	return result, nil
}

// estimateNextFree is the earliest active due date plus the overload buffer.
func (s *WorkloadService) estimateNextFree(reviewerID int) (*time.Time, error) {
	var earliest models.ReviewAssignment
	err := s.db.Where("reviewer_id = ? AND status IN ?", reviewerID, models.ActiveAssignmentStatuses).
		Order("due_date ASC").First(&earliest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	next := earliest.DueDate.AddDate(0, 0, overloadBufferDays)
	return &next, nil
}

// UpdateSettings persists workload settings for a reviewer. Existing
// assignments keep their original due dates.
func (s *WorkloadService) UpdateSettings(actor Actor, reviewerID int, input ReviewerSettingsInput) (*models.ReviewerProfile, error) {
	if actor.UserID != reviewerID && !actor.IsAdmin() {
		return nil, forbiddenError("reviewers may only update their own settings")
	}

	profile, err := s.Profile(reviewerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.AvailabilityStatus != nil {
		if !models.ValidAvailabilityStatus(*input.AvailabilityStatus) {
			return nil, validationError("invalid availability status %q", *input.AvailabilityStatus)
		}
		updates["availability_status"] = *input.AvailabilityStatus
		profile.AvailabilityStatus = *input.AvailabilityStatus
	}
	if input.MaxReviewsPerMonth != nil {
		if *input.MaxReviewsPerMonth < 0 {
			return nil, validationError("max_reviews_per_month must not be negative")
		}
		updates["max_reviews_per_month"] = *input.MaxReviewsPerMonth
		profile.MaxReviewsPerMonth = *input.MaxReviewsPerMonth
	}
	if input.PreferredTurnaroundDays != nil {
		if *input.PreferredTurnaroundDays <= 0 {
			return nil, validationError("preferred_turnaround_days must be positive")
		}
		updates["preferred_turnaround_days"] = *input.PreferredTurnaroundDays
		profile.PreferredTurnaroundDays = *input.PreferredTurnaroundDays
	}
	if len(updates) == 0 {
		return profile, nil
	}

	now := time.Now()
	updates["update_at"] = now
	if err := s.db.Model(&models.ReviewerProfile{}).
		Where("user_id = ?", reviewerID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	profile.UpdateAt = &now
	return profile, nil
}

// PerformanceMetrics aggregates the reviewer's completed assignments over the
// trailing six months.
func (s *WorkloadService) PerformanceMetrics(reviewerID int) (*ReviewerMetrics, error) {
	windowStart := time.Now().AddDate(0, -metricsWindowMonths, 0)

	var completed []models.ReviewAssignment
	if err := s.db.Where(
		"reviewer_id = ? AND status = ? AND completed_at >= ?",
		reviewerID, models.AssignmentCompleted, windowStart,
	).Find(&completed).Error; err != nil {
		return nil, err
	}

	metrics := &ReviewerMetrics{CompletedReviews: len(completed)}
	if len(completed) > 0 {
		var totalDays float64
		onTime := 0
		for _, a := range completed {
			if a.CompletedAt == nil {
				continue
			}
			totalDays += a.CompletedAt.Sub(a.InvitedAt).Hours() / 24
			if !a.CompletedAt.After(a.DueDate) {
				onTime++
			}
		}
		metrics.AverageTurnaround = totalDays / float64(len(completed))
		metrics.OnTimeRate = float64(onTime) / float64(len(completed))
	}

	var declined int64
	if err := s.db.Model(&models.ReviewAssignment{}).
		Where("reviewer_id = ? AND status = ? AND responded_at >= ?",
			reviewerID, models.AssignmentDeclined, windowStart).
		Count(&declined).Error; err != nil {
		return nil, err
	}
	metrics.DeclinedInvites = int(declined)

	var expired int64
	if err := s.db.Model(&models.ReviewAssignment{}).
		Where("reviewer_id = ? AND status = ? AND due_date >= ?",
			reviewerID, models.AssignmentExpired, windowStart).
		Count(&expired).Error; err != nil {
		return nil, err
	}
	metrics.ExpiredInvites = int(expired)

	return metrics, nil
}
