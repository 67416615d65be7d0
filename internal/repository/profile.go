package repository

import (
	"context"
	"errors"

	"devlink/internal/cache"
	"devlink/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles and their
// embedded experience/education entries.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	DeleteByUserID(ctx context.Context, userID uint) error
	AddExperience(ctx context.Context, profile *models.Profile, entry *models.Experience) error
	RemoveExperience(ctx context.Context, profile *models.Profile, entryID uint) error
	AddEducation(ctx context.Context, profile *models.Profile, entry *models.Education) error
	RemoveEducation(ctx context.Context, profile *models.Profile, entryID uint) error
}

type profileRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB, c *cache.Cache) ProfileRepository {
	return &profileRepository{db: db, cache: c}
}

// withEntries preloads the owner's public fields and both entry lists,
// most-recent-first.
func withEntries(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "avatar")
		}).
		Preload("Experience", func(db *gorm.DB) *gorm.DB {
			return db.Order("id DESC")
		}).
		Preload("Education", func(db *gorm.DB) *gorm.DB {
			return db.Order("id DESC")
		})
}

// GetByUserID returns the profile owned by userID, or (nil, nil) when the
// user has no profile. Hits are served cache-aside; misses are never cached.
func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	key := cache.ProfileKey(userID)

	err := r.cache.Aside(ctx, key, &profile, cache.ProfileTTL, func() error {
		return withEntries(r.db.WithContext(ctx)).
			Where("user_id = ?", userID).
			First(&profile).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := withEntries(r.db.WithContext(ctx)).Order("id").Find(&profiles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update persists the whole profile row. Single-document write; last write
// wins under concurrent updates.
func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).
		Omit("Experience", "Education", "User").
		Save(profile).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.cache.InvalidateProfile(ctx, profile.UserID)
	return nil
}

func (r *profileRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	profile, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}
	tx := r.db.WithContext(ctx)
	if err := tx.Where("profile_id = ?", profile.ID).Delete(&models.Experience{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := tx.Where("profile_id = ?", profile.ID).Delete(&models.Education{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := tx.Delete(&models.Profile{}, profile.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.cache.InvalidateProfile(ctx, userID)
	return nil
}

func (r *profileRepository) AddExperience(ctx context.Context, profile *models.Profile, entry *models.Experience) error {
	entry.ProfileID = profile.ID
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.cache.InvalidateProfile(ctx, profile.UserID)
	return nil
}

// RemoveExperience deletes the entry by its sub-identifier. Unknown ids fail
// with not-found; the remaining entries are never touched.
func (r *profileRepository) RemoveExperience(ctx context.Context, profile *models.Profile, entryID uint) error {
	res := r.db.WithContext(ctx).
		Where("profile_id = ? AND id = ?", profile.ID, entryID).
		Delete(&models.Experience{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Experience entry not found.")
	}
	r.cache.InvalidateProfile(ctx, profile.UserID)
	return nil
}

func (r *profileRepository) AddEducation(ctx context.Context, profile *models.Profile, entry *models.Education) error {
	entry.ProfileID = profile.ID
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.cache.InvalidateProfile(ctx, profile.UserID)
	return nil
}

func (r *profileRepository) RemoveEducation(ctx context.Context, profile *models.Profile, entryID uint) error {
	res := r.db.WithContext(ctx).
		Where("profile_id = ? AND id = ?", profile.ID, entryID).
		Delete(&models.Education{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Education entry not found.")
	}
	r.cache.InvalidateProfile(ctx, profile.UserID)
	return nil
}
