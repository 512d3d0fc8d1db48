// Package recruiter ranks the talent pool against a job description. Every candidate is matched
// by its own capability call; the calls run concurrently and a failed one only leaves that
// candidate as it was.
package recruiter

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/nexaforge/internal/errs"
)

type Candidate struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Experience string  `json:"exp"`
	Match      float64 `json:"match"`
	HasVideo   bool    `json:"video"`
	School     string  `json:"school"`
	Insights   string  `json:"insights,omitempty"`
}

// Match is the outcome of pairing one candidate with a job description.
type Match struct {
	Score    float64 `json:"score"`
	Insights string  `json:"insights" validate:"required"`
}

// Matcher scores a candidate against a job description.
type Matcher interface {
	MatchCandidate(ctx context.Context, jobDescription string, candidate Candidate) (*Match, error)
}

// SeedCandidates is the talent pool the portal starts with.
func SeedCandidates() []Candidate {
	return []Candidate{
		{ID: "1", Name: "Sarah Jenkins", Role: "Fullstack Developer", Experience: "5 years", Match: 96, HasVideo: true, School: "MIT"},
		{ID: "2", Name: "Michael Chen", Role: "Data Engineer", Experience: "3 years", Match: 91, HasVideo: false, School: "Stanford"},
		{ID: "3", Name: "Elena Rodriguez", Role: "Product Manager", Experience: "8 years", Match: 88, HasVideo: true, School: "INSEAD"},
		{ID: "4", Name: "David Kim", Role: "UI/UX Designer", Experience: "4 years", Match: 84, HasVideo: true, School: "RISD"},
	}
}

// Report lists which candidates a matching run updated and which kept their previous values.
type Report struct {
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
}

type State struct {
	JobDescription string      `json:"jobDescription"`
	Candidates     []Candidate `json:"candidates"`
	IsAnalyzingJD  bool        `json:"isAnalyzingJD"`
}

type Portal struct {
	matcher     Matcher
	concurrency int
	logger      *zap.Logger

	mu         sync.Mutex
	jd         string
	candidates []Candidate
	analyzing  bool
}

// NewPortal creates a portal over candidates. A concurrency of zero or less runs every call at once.
func NewPortal(matcher Matcher, candidates []Candidate, concurrency int, logger *zap.Logger) *Portal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Portal{
		matcher:     matcher,
		concurrency: concurrency,
		logger:      logger,
		candidates:  slices.Clone(candidates),
	}
}

func (p *Portal) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Portal) stateLocked() State {
	return State{
		JobDescription: p.jd,
		Candidates:     slices.Clone(p.candidates),
		IsAnalyzingJD:  p.analyzing,
	}
}

// Match re-scores every candidate against jobDescription. Failed calls are logged and reported;
// they never cancel the other calls and never fail the run.
func (p *Portal) Match(ctx context.Context, jobDescription string) (State, Report, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return p.State(), Report{}, errs.Validation("jobDescription", "must not be empty")
	}

	p.mu.Lock()
	if p.analyzing {
		defer p.mu.Unlock()
		return p.stateLocked(), Report{}, nil
	}
	p.analyzing = true
	p.jd = jobDescription
	roster := slices.Clone(p.candidates)
	p.mu.Unlock()

	results := make([]*Match, len(roster))
	failures := make([]error, len(roster))

	// A plain group: a failed call must not cancel its siblings.
	var g errgroup.Group
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, c := range roster {
		g.Go(func() error {
			m, err := p.matcher.MatchCandidate(ctx, jobDescription, c)
			if err == nil && m == nil {
				err = fmt.Errorf("empty match")
			}
			if err != nil {
				failures[i] = errs.Capability("candidate match", err)
				return nil
			}
			results[i] = m
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.analyzing = false

	report := Report{Updated: []string{}, Failed: []string{}}
	for i, c := range roster {
		if failures[i] != nil {
			p.logger.Warn("candidate match failed",
				zap.String("candidate_id", c.ID),
				zap.String("candidate", c.Name),
				zap.Error(failures[i]),
			)
			report.Failed = append(report.Failed, c.ID)
			continue
		}
		p.apply(c.ID, *results[i])
		report.Updated = append(report.Updated, c.ID)
	}

	p.logger.Info("job description matched",
		zap.Int("updated", len(report.Updated)),
		zap.Int("failed", len(report.Failed)),
	)

	return p.stateLocked(), report, nil
}

// apply overwrites the match fields of the candidate with id.
func (p *Portal) apply(id string, m Match) {
	for i := range p.candidates {
		if p.candidates[i].ID == id {
			p.candidates[i].Match = m.Score
			p.candidates[i].Insights = m.Insights
			return
		}
	}
}
