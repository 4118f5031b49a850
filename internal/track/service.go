package track

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/soundrift/soundrift/internal/sched"
)

var (
	ErrNotOwner      = errors.New("track: not owned by caller")
	ErrInvalidStatus = errors.New("track: invalid status")
	ErrNotLive       = errors.New("track: stats only apply to live tracks")
	ErrNegativeStats = errors.New("track: streams and earnings must be non-negative")
)

// JobPublisher hands a distribution job to the out-of-process worker.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID, trackID string) error
}

type Service struct {
	repo      *Repo
	publisher JobPublisher // nil -> in-process fallback via scheduler
	scheduler sched.Scheduler
	delay     time.Duration
}

func NewService(repo *Repo, publisher JobPublisher, scheduler sched.Scheduler, delay time.Duration) *Service {
	if scheduler == nil {
		scheduler = sched.NewReal()
	}
	return &Service{repo: repo, publisher: publisher, scheduler: scheduler, delay: delay}
}

type NewTrackInput struct {
	Title      string
	Artist     string
	Album      string
	Genre      string
	ArtworkURL string
}

// AddTrack creates the track in processing state with zeroed stats and an
// empty platform set, then enqueues its distribution job. With a publisher
// configured the worker owns the delay; otherwise the scheduler finalizes
// in-process.
func (s *Service) AddTrack(ctx context.Context, userID uint64, in NewTrackInput) (*Track, error) {
	t := &Track{
		ID:         NewID(),
		UserID:     userID,
		Title:      in.Title,
		Artist:     in.Artist,
		Album:      in.Album,
		Genre:      in.Genre,
		ArtworkURL: in.ArtworkURL,
		Status:     StatusProcessing,
		Platforms:  Platforms{},
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	job := &DistributionJob{
		ID:      NewID(),
		TrackID: t.ID,
		Status:  JobQueued,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishJob(ctx, job.ID, t.ID); err != nil {
			_ = s.repo.MarkJobFailed(ctx, job.ID, err.Error())
			return nil, err
		}
		return t, nil
	}

	jobID := job.ID
	s.scheduler.AfterFunc(s.delay, func() {
		// fresh context: the request that scheduled this is long gone
		ctx := context.Background()
		if err := s.RunJob(ctx, jobID); err != nil {
			_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		}
	})
	return t, nil
}

// RunJob drives one distribution job to a terminal state. Shared by the
// in-process scheduler path and the RabbitMQ worker. The finalize step is a
// conditional update, so a track deleted or rejected since upload is left
// untouched and the job still completes.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	if err := s.repo.UpdateJobStatusRunning(ctx, jobID); err != nil {
		return err
	}
	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	if _, err := s.repo.FinalizeIfProcessing(ctx, j.TrackID, DefaultPlatforms()); err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}
	return s.repo.MarkJobSucceeded(ctx, jobID)
}

type UpdateTrackInput struct {
	Title      *string
	Artist     *string
	Album      *string
	Genre      *string
	ArtworkURL *string
}

// UpdateTrack shallow-merges the provided fields into the caller's track.
func (s *Service) UpdateTrack(ctx context.Context, userID uint64, id string, in UpdateTrackInput) (*Track, error) {
	t, err := s.ownedTrack(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Artist != nil {
		fields["artist"] = *in.Artist
	}
	if in.Album != nil {
		fields["album"] = *in.Album
	}
	if in.Genre != nil {
		fields["genre"] = *in.Genre
	}
	if in.ArtworkURL != nil {
		fields["artwork_url"] = *in.ArtworkURL
	}
	if len(fields) == 0 {
		return t, nil
	}
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// DeleteTrack removes the caller's track. Any pending distribution job
// becomes a no-op at finalize time.
func (s *Service) DeleteTrack(ctx context.Context, userID uint64, id string) error {
	if _, err := s.ownedTrack(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetTrack(ctx context.Context, userID uint64, id string) (*Track, error) {
	return s.ownedTrack(ctx, userID, id)
}

func (s *Service) GetUserTracks(ctx context.Context, userID uint64) ([]Track, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]Track, error) {
	return s.repo.ListAll(ctx)
}

// RejectTrack is the moderation path: only a processing track can be
// rejected; live and rejected are terminal for moderators.
func (s *Service) RejectTrack(ctx context.Context, id string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != StatusProcessing {
		return ErrInvalidStatus
	}
	return s.repo.UpdateFields(ctx, id, map[string]any{"status": StatusRejected})
}

// OverrideStatus is the admin escape hatch from terminal states. Moving a
// track out of live zeroes its stats and platform set so the live-only
// stats invariant holds.
func (s *Service) OverrideStatus(ctx context.Context, id string, status Status) (*Track, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{"status": status}
	if status == StatusLive {
		fields["platforms"] = DefaultPlatforms()
	} else {
		fields["streams"] = int64(0)
		fields["earnings_cents"] = int64(0)
		fields["platforms"] = Platforms{}
	}
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// RecordStats sets stream and earnings counters on a live track. Negative
// values are rejected outright.
func (s *Service) RecordStats(ctx context.Context, id string, streams, earningsCents int64) error {
	if streams < 0 || earningsCents < 0 {
		return ErrNegativeStats
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != StatusLive {
		return ErrNotLive
	}
	return s.repo.UpdateFields(ctx, id, map[string]any{
		"streams":        streams,
		"earnings_cents": earningsCents,
	})
}

func (s *Service) ownedTrack(ctx context.Context, userID uint64, id string) (*Track, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		// hide other users' tracks entirely
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}
