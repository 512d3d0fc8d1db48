// Package gemini implements every generative capability of the platform on top of the Gemini API.
// Each call sends a prompt with a response schema and accepts the answer only after it parsed,
// matched the capability's JSON schema and passed struct validation.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/ai"
	"github.com/spigell/nexaforge/internal/errs"
	"github.com/spigell/nexaforge/internal/i18n"
	"github.com/spigell/nexaforge/internal/insights"
	"github.com/spigell/nexaforge/internal/interview"
	"github.com/spigell/nexaforge/internal/jobs"
	"github.com/spigell/nexaforge/internal/logger"
	"github.com/spigell/nexaforge/internal/profile"
	"github.com/spigell/nexaforge/internal/recruiter"
	"github.com/spigell/nexaforge/internal/utils"
)

const (
	provider            = "gemini"
	defaultMaxLogLength = 200
	questionCount       = 5
)

var _ ai.Assistant = (*Assistant)(nil)

type contentGenerator interface {
	GenerateContent(ctx context.Context, req Request) (string, error)
	Model() string
}

// Observer is told when a capability call starts and once it settled.
type Observer interface {
	Start(capability string) (done func())
	Observe(capability string, took time.Duration, err error)
}

type Config struct {
	// ReasoningModel is used for question generation.
	ReasoningModel string
	MaxLogLength   int
}

type Assistant struct {
	generator      contentGenerator
	reasoningModel string
	maxLogLen      int
	logger         *zap.Logger
	observer       Observer
	validate       *validator.Validate
	schemas        map[string]*gojsonschema.Schema
}

func NewAssistant(generator contentGenerator, cfg Config, log *zap.Logger, observer Observer) (*Assistant, error) {
	if generator == nil {
		return nil, fmt.Errorf("gemini generator is required")
	}

	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	reasoningModel := strings.TrimSpace(cfg.ReasoningModel)
	if reasoningModel == "" {
		reasoningModel = defaultReasoningModel
	}

	return &Assistant{
		generator:      generator,
		reasoningModel: reasoningModel,
		maxLogLen:      maxLogLen,
		logger:         logger.WithFields(log),
		observer:       observer,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		schemas:        schemas,
	}, nil
}

// call sends req and decodes the response of capability into out. Every failure is returned as
// a CapabilityError.
func (a *Assistant) call(ctx context.Context, capability string, req Request, out any) (err error) {
	started := time.Now()
	if a.observer != nil {
		defer a.observer.Start(capability)()
	}
	defer func() {
		if err != nil {
			err = errs.Capability(capability, err)
		}
		if a.observer != nil {
			a.observer.Observe(capability, time.Since(started), err)
		}
	}()

	model := req.Model
	if model == "" {
		model = a.generator.Model()
	}
	log := logger.Call{Provider: provider, Model: model, Capability: capability}.With(a.logger)

	log.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(req.Prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, req)
	if err != nil {
		return err
	}

	log.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
		zap.Duration("took", time.Since(started)),
	)

	schema, ok := a.schemas[capability]
	if !ok {
		return fmt.Errorf("no schema for %s", capability)
	}
	return decodePayload(schema, a.validate, raw, out)
}

func (a *Assistant) prompt(capability string, values map[string]string) (string, error) {
	prompt, err := buildPrompt(capability, values)
	if err != nil {
		return "", errs.Capability(capability, err)
	}
	return prompt, nil
}

func (a *Assistant) SearchJobs(ctx context.Context, query string) ([]jobs.Listing, error) {
	prompt, err := a.prompt(capJobSearch, map[string]string{"QUERY": query})
	if err != nil {
		return nil, err
	}

	var listings []jobs.Listing
	if err := a.call(ctx, capJobSearch, Request{Prompt: prompt, Search: true}, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (a *Assistant) ExtractProfile(ctx context.Context, raw string) (*profile.Profile, error) {
	prompt, err := a.prompt(capCVExtraction, map[string]string{"RAW_TEXT": raw})
	if err != nil {
		return nil, err
	}

	var extracted profile.Profile
	if err := a.call(ctx, capCVExtraction, Request{Prompt: prompt, Schema: profileResponseSchema()}, &extracted); err != nil {
		return nil, err
	}
	return &extracted, nil
}

func (a *Assistant) GenerateQuestions(ctx context.Context, draft interview.Draft) ([]interview.Question, error) {
	prompt, err := a.prompt(capQuestionGeneration, map[string]string{
		"COUNT":           fmt.Sprint(questionCount),
		"ROLE":            draft.Role,
		"LEVEL":           string(draft.Level),
		"CV":              draft.CV,
		"JOB_DESCRIPTION": draft.JobDescription,
	})
	if err != nil {
		return nil, err
	}

	req := Request{Model: a.reasoningModel, Prompt: prompt, Schema: questionsResponseSchema()}
	var questions []interview.Question
	if err := a.call(ctx, capQuestionGeneration, req, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (a *Assistant) EvaluateAnswer(ctx context.Context, question, answer string) (*interview.Evaluation, error) {
	prompt, err := a.prompt(capAnswerEvaluation, map[string]string{"QUESTION": question, "ANSWER": answer})
	if err != nil {
		return nil, err
	}

	var evaluation interview.Evaluation
	if err := a.call(ctx, capAnswerEvaluation, Request{Prompt: prompt, Schema: evaluationResponseSchema()}, &evaluation); err != nil {
		return nil, err
	}

	if score, clamped := clamp(evaluation.Score, 0, 10); clamped {
		logger.Call{Provider: provider, Capability: capAnswerEvaluation}.With(a.logger).Warn("evaluation score out of range",
			zap.Float64("score", evaluation.Score),
			zap.Float64("clamped", score),
		)
		evaluation.Score = score
	}
	return &evaluation, nil
}

func (a *Assistant) CareerInsights(ctx context.Context, dataset string) ([]insights.Insight, error) {
	prompt, err := a.prompt(capCareerInsights, map[string]string{"DATASET": dataset})
	if err != nil {
		return nil, err
	}

	var out []insights.Insight
	if err := a.call(ctx, capCareerInsights, Request{Prompt: prompt, Schema: insightsResponseSchema()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Assistant) MatchCandidate(ctx context.Context, jobDescription string, candidate recruiter.Candidate) (*recruiter.Match, error) {
	candidateJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candidate payload: %w", err)
	}

	prompt, err := a.prompt(capCandidateMatch, map[string]string{
		"JOB_DESCRIPTION": jobDescription,
		"CANDIDATE":       string(candidateJSON),
	})
	if err != nil {
		return nil, err
	}

	var match recruiter.Match
	if err := a.call(ctx, capCandidateMatch, Request{Prompt: prompt, Schema: matchResponseSchema()}, &match); err != nil {
		return nil, err
	}

	if score, clamped := clamp(match.Score, 0, 100); clamped {
		logger.Call{Provider: provider, Capability: capCandidateMatch}.With(a.logger).Warn("match score out of range",
			zap.String("candidate_id", candidate.ID),
			zap.Float64("score", match.Score),
			zap.Float64("clamped", score),
		)
		match.Score = score
	}
	return &match, nil
}

type translation struct {
	Lang string `json:"lang" validate:"required"`
	Text string `json:"text"`
}

type translationPayload struct {
	Translations []translation `json:"translations" validate:"dive"`
}

// Translate returns the translations of text for the requested languages. Languages the model
// did not answer for are missing from the result.
func (a *Assistant) Translate(ctx context.Context, text string, langs []i18n.Language) (map[i18n.Language]string, error) {
	codes := make([]string, 0, len(langs))
	for _, lang := range langs {
		codes = append(codes, string(lang))
	}

	prompt, err := a.prompt(capTranslation, map[string]string{
		"LANGUAGES": strings.Join(codes, ", "),
		"TEXT":      text,
	})
	if err != nil {
		return nil, err
	}

	var payload translationPayload
	if err := a.call(ctx, capTranslation, Request{Prompt: prompt, Schema: translationResponseSchema()}, &payload); err != nil {
		return nil, err
	}

	out := make(map[i18n.Language]string, len(langs))
	for _, t := range payload.Translations {
		lang, err := i18n.Parse(t.Lang)
		if err != nil || !requested(langs, lang) {
			a.logger.Debug("ignoring unrequested translation", zap.String("lang", t.Lang))
			continue
		}
		out[lang] = t.Text
	}
	return out, nil
}

func requested(langs []i18n.Language, lang i18n.Language) bool {
	for _, l := range langs {
		if l == lang {
			return true
		}
	}
	return false
}
