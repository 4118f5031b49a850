package track

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusLive       Status = "live"
	StatusRejected   Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusLive, StatusRejected:
		return true
	}
	return false
}

// Platforms is stored as a JSON array in a text column.
type Platforms []string

func (p Platforms) Value() (driver.Value, error) {
	if p == nil {
		p = Platforms{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Platforms) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Platforms{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("platforms: unsupported scan type %T", src)
	}
}

// DefaultPlatforms is the distribution set every track goes out to once it
// clears processing.
func DefaultPlatforms() Platforms {
	return Platforms{"Spotify", "Apple Music", "YouTube Music", "Amazon Music", "Deezer", "Tidal"}
}

type Track struct {
	ID            string    `gorm:"primaryKey;size:26" json:"id"`
	UserID        uint64    `gorm:"index;not null" json:"-"`
	Title         string    `gorm:"type:varchar(200);not null" json:"title"`
	Artist        string    `gorm:"type:varchar(200);not null" json:"artist"`
	Album         string    `gorm:"type:varchar(200)" json:"album"`
	Genre         string    `gorm:"type:varchar(64);index" json:"genre"`
	ArtworkURL    string    `gorm:"type:varchar(512)" json:"artwork_url,omitempty"`
	Status        Status    `gorm:"type:varchar(16);index;not null" json:"status"`
	Streams       int64     `gorm:"not null;default:0" json:"streams"`
	EarningsCents int64     `gorm:"not null;default:0" json:"earnings_cents"`
	Platforms     Platforms `gorm:"type:text" json:"platforms"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Track) TableName() string { return "tracks" }

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// DistributionJob tracks one asynchronous processing -> live transition.
type DistributionJob struct {
	ID      string `gorm:"primaryKey;size:26"` // ULID length
	TrackID string `gorm:"size:26;index;not null"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewID returns a ULID suitable for track and job primary keys.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
