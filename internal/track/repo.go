package track

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, t *Track) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Track, error) {
	var t Track
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByUser returns the user's tracks, newest first. Empty for an unknown
// user id.
func (r *Repo) ListByUser(ctx context.Context, userID uint64) ([]Track, error) {
	var tracks []Track
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tracks).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]Track, error) {
	var tracks []Track
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&tracks).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *Repo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&Track{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Track{}, "id = ?", id).Error
}

// FinalizeIfProcessing flips processing -> live and assigns the platform
// set in one conditional update. The WHERE clause is the liveness check: a
// track deleted, rejected, or already live in the meantime is left alone.
func (r *Repo) FinalizeIfProcessing(ctx context.Context, id string, platforms Platforms) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Track{}).
		Where("id = ? AND status = ?", id, StatusProcessing).
		Updates(map[string]any{
			"status":    StatusLive,
			"platforms": platforms,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Job CRUD
func (r *Repo) CreateJob(ctx context.Context, job *DistributionJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*DistributionJob, error) {
	var j DistributionJob
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&DistributionJob{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&DistributionJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobSucceeded,
			"error":  nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&DistributionJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobFailed,
			"error":  errMsg,
		}).Error
}
