// Package videos keeps the candidate's showcase videos in memory.
package videos

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/errs"
)

type Video struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Duration string   `json:"duration"`
	Tags     []string `json:"tags"`
	Insights string   `json:"insights"`
}

// Upload is what a new video is created from.
type Upload struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Duration string   `json:"duration" validate:"omitempty,max=16"`
	Tags     []string `json:"tags" validate:"max=20,dive,required"`
	Insights string   `json:"insights"`
}

func seed() []Video {
	return []Video{
		{ID: "1", Title: "React Performance Talk", Duration: "0:45", Tags: []string{"React", "Frontend"}, Insights: "Strong technical explanation of DOM reconciliation."},
		{ID: "2", Title: "Leadership Demo", Duration: "1:20", Tags: []string{"Soft Skills", "Management"}, Insights: "Exhibits confident posture and clear articulation."},
	}
}

type Vault struct {
	validate *validator.Validate
	logger   *zap.Logger

	mu     sync.Mutex
	videos []Video
}

// NewVault returns a vault holding the two showcase videos.
func NewVault(logger *zap.Logger) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		videos:   seed(),
	}
}

func (v *Vault) List() []Video {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.videos)
}

// Add puts a new video in front of the list.
func (v *Vault) Add(in Upload) (Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := v.validate.Struct(in); err != nil {
		return Video{}, validationError(err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Video{}, fmt.Errorf("generate video id: %w", err)
	}

	video := Video{
		ID:       id.String(),
		Title:    in.Title,
		Duration: in.Duration,
		Tags:     slices.Clone(in.Tags),
		Insights: in.Insights,
	}
	if video.Tags == nil {
		video.Tags = []string{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.videos = append([]Video{video}, v.videos...)

	v.logger.Info("video added", zap.String("video_id", video.ID), zap.String("title", video.Title))
	return video, nil
}

// Remove deletes the video with id. Removing an unknown id reports false.
func (v *Vault) Remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	before := len(v.videos)
	v.videos = slices.DeleteFunc(v.videos, func(video Video) bool {
		return video.ID == id
	})
	return len(v.videos) != before
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errs.Validation(strings.ToLower(fe.Field()), fmt.Sprintf("failed %q check", fe.Tag()))
	}
	return errs.Validation("", err.Error())
}
