package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrActivityNameEmpty   = errors.New("activity name cannot be empty")
	ErrActivityNameTooLong = errors.New("activity name is too long (max 100 chars)")
	ErrActivityNoStyle     = errors.New("activity must enable at least one reporting style")
)

const MaxActivityNameLen = 100

// Activity is a reusable template describing how progress is reported.
// The reporting styles are independent and non-exclusive.
type Activity struct {
	ID           string `json:"id" db:"id"`
	HomeschoolID string `json:"homeschool_id" db:"homeschool_id"`
	Name         string `json:"name" db:"name"`

	TrackPercentage bool `json:"track_percentage" db:"track_percentage"`
	TrackTime       bool `json:"track_time" db:"track_time"`
	TrackCount      bool `json:"track_count" db:"track_count"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func NewActivity(homeschoolID, name string, trackPercentage, trackTime, trackCount bool) (*Activity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrActivityNameEmpty
	}
	if len(name) > MaxActivityNameLen {
		return nil, ErrActivityNameTooLong
	}
	if !trackPercentage && !trackTime && !trackCount {
		return nil, ErrActivityNoStyle
	}

	now := time.Now().UTC()
	return &Activity{
		ID:              uuid.NewString(),
		HomeschoolID:    homeschoolID,
		Name:            name,
		TrackPercentage: trackPercentage,
		TrackTime:       trackTime,
		TrackCount:      trackCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (a *Activity) Update(name string, trackPercentage, trackTime, trackCount bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrActivityNameEmpty
	}
	if len(name) > MaxActivityNameLen {
		return ErrActivityNameTooLong
	}
	if !trackPercentage && !trackTime && !trackCount {
		return ErrActivityNoStyle
	}

	a.Name = name
	a.TrackPercentage = trackPercentage
	a.TrackTime = trackTime
	a.TrackCount = trackCount
	a.UpdatedAt = time.Now().UTC()
	return nil
}
