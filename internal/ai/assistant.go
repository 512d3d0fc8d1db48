// Package ai names the generative capabilities the platform depends on. Each view-model declares
// the narrow interface it needs; Assistant is what a provider has to implement to serve them all.
package ai

import (
	"github.com/spigell/nexaforge/internal/insights"
	"github.com/spigell/nexaforge/internal/interview"
	"github.com/spigell/nexaforge/internal/jobs"
	"github.com/spigell/nexaforge/internal/profile"
	"github.com/spigell/nexaforge/internal/recruiter"
)

type Assistant interface {
	jobs.Searcher
	profile.Extractor
	profile.Translator
	interview.QuestionGenerator
	interview.Evaluator
	insights.Generator
	recruiter.Matcher
}
