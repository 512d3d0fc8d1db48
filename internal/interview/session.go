package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/errs"
	"github.com/spigell/nexaforge/internal/utils"
)

// QuestionGenerator produces the interview questions for a draft.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, draft Draft) ([]Question, error)
}

// Evaluator scores one answer.
type Evaluator interface {
	EvaluateAnswer(ctx context.Context, question, answer string) (*Evaluation, error)
}

// Session drives the state machine: it applies events, performs the effects they request and
// feeds the outcome back as new events. The lock is only held while applying an event.
type Session struct {
	generator QuestionGenerator
	evaluator Evaluator
	delay     time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	state State

	// presenting carries the pending next-question presentation, if any.
	presenting sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

type Option func(*Session)

// WithNextQuestionDelay sets the pause between an evaluation and the next question.
func WithNextQuestionDelay(d time.Duration) Option {
	return func(s *Session) {
		s.delay = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSession(generator QuestionGenerator, evaluator Evaluator, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		generator: generator,
		evaluator: evaluator,
		logger:    zap.NewNop(),
		state:     NewState(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) apply(ev Event) (State, Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, effect, err := Transition(s.state, ev)
	if err != nil {
		return s.state, Effect{}, err
	}
	if next.Phase != s.state.Phase {
		s.logger.Debug("interview phase changed",
			zap.String("from", string(s.state.Phase)),
			zap.String("to", string(next.Phase)),
		)
	}
	s.state = next
	return next, effect, nil
}

// emit applies ev for operations that never request an effect.
func (s *Session) emit(ev Event) (State, error) {
	state, _, err := s.apply(ev)
	return state, err
}

func (s *Session) UpdateDraft(draft Draft) (State, error) {
	return s.emit(DraftUpdated{Draft: draft})
}

func (s *Session) DraftAnswer(text string) (State, error) {
	return s.emit(AnswerDrafted{Text: text})
}

// Start generates the questions and opens the interview.
func (s *Session) Start(ctx context.Context) (State, error) {
	state, effect, err := s.apply(StartRequested{})
	if err != nil {
		s.logger.Debug("interview start rejected", zap.Error(err))
		return state, err
	}
	if effect.Kind != EffectGenerate {
		return state, nil
	}

	started := time.Now()
	questions, err := s.generator.GenerateQuestions(ctx, effect.Draft)
	if err == nil && len(questions) == 0 {
		err = fmt.Errorf("no questions generated")
	}
	if err != nil {
		err = errs.Capability("question generation", err)
		s.logger.Warn("question generation failed", zap.Error(err))
		state, _, _ = s.apply(GenerationFailed{Reason: err})
		return state, err
	}

	s.logger.Info("interview started",
		zap.String("role", effect.Draft.Role),
		zap.String("level", string(effect.Draft.Level)),
		zap.Int("questions", len(questions)),
		zap.Duration("took", time.Since(started)),
	)

	return s.emit(GenerationSucceeded{Questions: questions})
}

// Submit sends an answer for evaluation. Blank text submits the drafted answer. When the
// evaluation moves on to another question, that question is shown after the configured delay.
func (s *Session) Submit(ctx context.Context, text string) (State, error) {
	state, effect, err := s.apply(AnswerSubmitted{Text: text})
	if err != nil || effect.Kind != EffectEvaluate {
		return state, err
	}

	evaluation, err := s.evaluator.EvaluateAnswer(ctx, effect.Question.Text, effect.Answer)
	if err == nil && evaluation == nil {
		err = fmt.Errorf("empty evaluation")
	}
	if err != nil {
		err = errs.Capability("answer evaluation", err)
		s.logger.Warn("answer evaluation failed", zap.Int("question", state.Current), zap.Error(err))
		state, _, _ = s.apply(EvaluationFailed{Reason: err})
		return state, err
	}

	state, effect, err = s.apply(EvaluationSucceeded{Evaluation: *evaluation})
	if err != nil {
		return state, err
	}

	s.logger.Info("answer evaluated",
		zap.Int("question", len(state.Scores)),
		zap.Float64("score", evaluation.Score),
	)

	if effect.Kind == EffectPresentNext {
		s.presentLater()
	}
	if state.Phase == Complete {
		s.logger.Info("interview complete", zap.String("mean_score", state.FormatMean()))
	}

	return state, nil
}

func (s *Session) presentLater() {
	s.presenting.Add(1)
	go func() {
		defer s.presenting.Done()
		if err := utils.WaitFor(s.ctx, s.delay); err != nil {
			return
		}
		_, _, _ = s.apply(QuestionPresented{})
	}()
}

// WaitPresented blocks until a pending next question has been shown.
func (s *Session) WaitPresented() {
	s.presenting.Wait()
}

// Restart discards the finished interview together with its drafts.
func (s *Session) Restart() (State, error) {
	return s.emit(RestartRequested{})
}

// Close drops a pending next-question presentation.
func (s *Session) Close() {
	s.cancel()
	s.presenting.Wait()
}
