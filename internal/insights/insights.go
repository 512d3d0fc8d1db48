// Package insights is the university analytics view-model: a placement dataset and the career
// insights generated from it.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/errs"
)

type Priority string

const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

type Insight struct {
	Title    string   `json:"title" validate:"required"`
	Insight  string   `json:"insight" validate:"required"`
	Priority Priority `json:"priority" validate:"oneof=Low Medium High"`
}

// Department is one row of the placement dataset.
type Department struct {
	Name   string `json:"name"`
	Placed int    `json:"placed"`
	Total  int    `json:"total"`
}

// Rate is the placed share in percent, rounded to one decimal.
func (d Department) Rate() float64 {
	if d.Total <= 0 {
		return 0
	}
	return math.Round(float64(d.Placed)/float64(d.Total)*1000) / 10
}

type IndustryShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Placements returns the department placement figures.
func Placements() []Department {
	return []Department{
		{Name: "Eng", Placed: 450, Total: 500},
		{Name: "Biz", Placed: 320, Total: 400},
		{Name: "Arts", Placed: 180, Total: 300},
		{Name: "Sci", Placed: 290, Total: 350},
	}
}

// Industries returns where graduates were placed, in percent.
func Industries() []IndustryShare {
	return []IndustryShare{
		{Name: "AI/Tech", Value: 45},
		{Name: "FinTech", Value: 25},
		{Name: "BioHealth", Value: 15},
		{Name: "Others", Value: 15},
	}
}

// Generator turns a serialized dataset into career insights.
type Generator interface {
	CareerInsights(ctx context.Context, dataset string) ([]Insight, error)
}

type DepartmentView struct {
	Department
	Rate float64 `json:"rate"`
}

type State struct {
	Placements   []DepartmentView `json:"placements"`
	Industries   []IndustryShare  `json:"industries"`
	Insights     []Insight        `json:"insights"`
	IsGenerating bool             `json:"isGenerating"`
}

type Dashboard struct {
	generator  Generator
	placements []Department
	industries []IndustryShare
	logger     *zap.Logger

	mu         sync.Mutex
	insights   []Insight
	generating bool
}

func NewDashboard(generator Generator, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		generator:  generator,
		placements: Placements(),
		industries: Industries(),
		logger:     logger,
		insights:   []Insight{},
	}
}

func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Dashboard) stateLocked() State {
	views := make([]DepartmentView, 0, len(d.placements))
	for _, p := range d.placements {
		views = append(views, DepartmentView{Department: p, Rate: p.Rate()})
	}
	return State{
		Placements:   views,
		Industries:   slices.Clone(d.industries),
		Insights:     slices.Clone(d.insights),
		IsGenerating: d.generating,
	}
}

// Generate replaces the insights with ones generated from the placement dataset. On failure the
// previous insights stay.
func (d *Dashboard) Generate(ctx context.Context) (State, error) {
	d.mu.Lock()
	if d.generating {
		defer d.mu.Unlock()
		return d.stateLocked(), nil
	}
	d.generating = true
	dataset, err := json.Marshal(d.placements)
	d.mu.Unlock()

	var generated []Insight
	if err != nil {
		err = fmt.Errorf("encode placement dataset: %w", err)
	} else {
		generated, err = d.generator.CareerInsights(ctx, string(dataset))
		if err != nil {
			err = errs.Capability("career insights", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.generating = false

	if err != nil {
		d.logger.Warn("career insights generation failed", zap.Error(err))
		return d.stateLocked(), err
	}

	if generated == nil {
		generated = []Insight{}
	}
	d.insights = generated
	d.logger.Info("career insights generated", zap.Int("insights", len(generated)))

	return d.stateLocked(), nil
}
