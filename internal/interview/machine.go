// Package interview runs the mock interview: a pure transition function over the session state
// and a Session that performs the generation and evaluation calls the transitions ask for.
package interview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/nexaforge/internal/errs"
)

type Phase string

const (
	Preparation Phase = "preparation"
	Active      Phase = "active"
	Complete    Phase = "complete"
)

type Level string

const (
	Junior       Level = "Junior"
	Intermediate Level = "Intermediate"
	Senior       Level = "Senior"
	Lead         Level = "Expert/Lead"
)

// Levels lists the seniority levels in ascending order.
var Levels = []Level{Junior, Intermediate, Senior, Lead}

// ParseLevel accepts a level name case-insensitively; "lead" and "expert" both mean Lead.
func ParseLevel(s string) (Level, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "lead", "expert":
		return Lead, nil
	}
	for _, l := range Levels {
		if strings.ToLower(string(l)) == v {
			return l, nil
		}
	}
	return "", errs.Validation("level", fmt.Sprintf("unknown level %q", s))
}

const DefaultRole = "Senior Product Engineer"

// Draft is what the candidate fills in before starting.
type Draft struct {
	Role           string `json:"role"`
	Level          Level  `json:"level"`
	CV             string `json:"cv"`
	JobDescription string `json:"jobDescription"`
}

func DefaultDraft() Draft {
	return Draft{Role: DefaultRole, Level: Senior}
}

type Question struct {
	Text    string `json:"question" validate:"required"`
	Context string `json:"context"`
}

type Evaluation struct {
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback" validate:"required"`
	ModelAnswer string  `json:"modelAnswer,omitempty"`
}

type Speaker string

const (
	Bot  Speaker = "bot"
	User Speaker = "user"
)

// Turn is one transcript entry.
type Turn struct {
	Speaker    Speaker `json:"type"`
	Content    string  `json:"content"`
	Context    string  `json:"context,omitempty"`
	Evaluation bool    `json:"isEvaluation,omitempty"`
}

// State is the whole interview. Values are treated as immutable by Transition: every event
// yields a new State and never touches the slices of the old one.
type State struct {
	Phase      Phase      `json:"phase"`
	Draft      Draft      `json:"draft"`
	Questions  []Question `json:"questions"`
	Current    int        `json:"currentIndex"`
	Transcript []Turn     `json:"transcript"`
	Scores     []float64  `json:"scores"`
	Answer     string     `json:"answer"`

	Generating bool `json:"isGenerating"`
	Evaluating bool `json:"isEvaluating"`
	// Presenting is set between a successful evaluation and the next question being shown.
	Presenting bool `json:"isPresenting"`
}

func NewState() State {
	return State{Phase: Preparation, Draft: DefaultDraft()}
}

// MeanScore is the arithmetic mean of the recorded scores, 0 without any.
func (s State) MeanScore() float64 {
	if len(s.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.Scores {
		sum += v
	}
	return sum / float64(len(s.Scores))
}

// FormatMean renders the mean with one fraction digit, or "0" when nothing was scored.
func (s State) FormatMean() string {
	if len(s.Scores) == 0 {
		return "0"
	}
	return strconv.FormatFloat(s.MeanScore(), 'f', 1, 64)
}

func (s State) QuestionCount() int {
	return len(s.Questions)
}

// CurrentQuestion returns the question awaiting an answer.
func (s State) CurrentQuestion() (Question, bool) {
	if s.Phase != Active || s.Current < 0 || s.Current >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Current], true
}

// Event is an input to Transition.
type Event interface {
	event()
}

type (
	DraftUpdated        struct{ Draft Draft }
	StartRequested      struct{}
	GenerationSucceeded struct{ Questions []Question }
	GenerationFailed    struct{ Reason error }
	AnswerDrafted       struct{ Text string }
	// AnswerSubmitted submits Text, or the drafted answer when Text is blank.
	AnswerSubmitted     struct{ Text string }
	EvaluationSucceeded struct{ Evaluation Evaluation }
	EvaluationFailed    struct{ Reason error }
	QuestionPresented   struct{}
	RestartRequested    struct{}
)

func (DraftUpdated) event()        {}
func (StartRequested) event()      {}
func (GenerationSucceeded) event() {}
func (GenerationFailed) event()    {}
func (AnswerDrafted) event()       {}
func (AnswerSubmitted) event()     {}
func (EvaluationSucceeded) event() {}
func (EvaluationFailed) event()    {}
func (QuestionPresented) event()   {}
func (RestartRequested) event()    {}

type EffectKind int

const (
	EffectNone EffectKind = iota
	// EffectGenerate asks for questions for Draft.
	EffectGenerate
	// EffectEvaluate asks for Answer to Question to be scored.
	EffectEvaluate
	// EffectPresentNext asks for QuestionPresented once the pause before the next question is over.
	EffectPresentNext
)

// Effect is the I/O a transition requests from its driver.
type Effect struct {
	Kind     EffectKind
	Draft    Draft
	Question Question
	Answer   string
}

// Transition applies ev to s. Events that do not apply in the current state leave it unchanged
// and request nothing; preconditions the user has to fix are reported as ValidationError.
func Transition(s State, ev Event) (State, Effect, error) {
	none := Effect{}

	switch e := ev.(type) {
	case DraftUpdated:
		if s.Phase != Preparation || s.Generating {
			return s, none, errs.Validation("draft", "the session has already started")
		}
		draft := e.Draft
		if strings.TrimSpace(string(draft.Level)) == "" {
			// a draft without a level keeps the one already chosen
			draft.Level = s.Draft.Level
		} else {
			level, err := ParseLevel(string(draft.Level))
			if err != nil {
				return s, none, err
			}
			draft.Level = level
		}
		s.Draft = draft
		return s, none, nil

	case StartRequested:
		if s.Phase != Preparation || s.Generating {
			return s, none, nil
		}
		if strings.TrimSpace(s.Draft.CV) == "" {
			return s, none, errs.Validation("cv", "provide CV content for a personalized session")
		}
		s.Generating = true
		return s, Effect{Kind: EffectGenerate, Draft: s.Draft}, nil

	case GenerationFailed:
		if s.Phase != Preparation || !s.Generating {
			return s, none, nil
		}
		s.Generating = false
		return s, none, nil

	case GenerationSucceeded:
		if s.Phase != Preparation || !s.Generating {
			return s, none, nil
		}
		if len(e.Questions) == 0 {
			s.Generating = false
			return s, none, errs.Capability("question generation", fmt.Errorf("no questions generated"))
		}

		first := e.Questions[0]
		s.Questions = append([]Question(nil), e.Questions...)
		s.Current = 0
		s.Scores = []float64{}
		s.Answer = ""
		s.Transcript = []Turn{{
			Speaker: Bot,
			Content: greeting(s.Draft.Role, first.Text),
			Context: first.Context,
		}}
		s.Generating = false
		s.Phase = Active
		return s, none, nil

	case AnswerDrafted:
		if s.Phase != Active {
			return s, none, nil
		}
		s.Answer = e.Text
		return s, none, nil

	case AnswerSubmitted:
		if s.Phase != Active || s.Evaluating || s.Presenting {
			return s, none, nil
		}
		answer := e.Text
		if strings.TrimSpace(answer) == "" {
			answer = s.Answer
		}
		if strings.TrimSpace(answer) == "" {
			return s, none, nil
		}

		question := s.Questions[s.Current]
		s.Transcript = appendTurn(s.Transcript, Turn{Speaker: User, Content: answer})
		s.Answer = ""
		s.Evaluating = true
		return s, Effect{Kind: EffectEvaluate, Question: question, Answer: answer}, nil

	case EvaluationFailed:
		if s.Phase != Active || !s.Evaluating {
			return s, none, nil
		}
		s.Evaluating = false
		return s, none, nil

	case EvaluationSucceeded:
		if s.Phase != Active || !s.Evaluating {
			return s, none, nil
		}
		s.Evaluating = false
		s.Scores = append(append([]float64(nil), s.Scores...), e.Evaluation.Score)
		s.Transcript = appendTurn(s.Transcript, Turn{
			Speaker:    Bot,
			Content:    feedback(e.Evaluation),
			Evaluation: true,
		})

		if s.Current+1 < len(s.Questions) {
			s.Current++
			s.Presenting = true
			return s, Effect{Kind: EffectPresentNext}, nil
		}

		s.Phase = Complete
		return s, none, nil

	case QuestionPresented:
		if s.Phase != Active || !s.Presenting {
			return s, none, nil
		}
		next := s.Questions[s.Current]
		s.Transcript = appendTurn(s.Transcript, Turn{Speaker: Bot, Content: next.Text, Context: next.Context})
		s.Presenting = false
		return s, none, nil

	case RestartRequested:
		if s.Phase != Complete {
			return s, none, errs.Validation("session", "restart is available once the interview is complete")
		}
		return NewState(), none, nil
	}

	return s, none, fmt.Errorf("unknown interview event %T", ev)
}

// appendTurn copies before appending so earlier states keep their own transcript.
func appendTurn(transcript []Turn, turn Turn) []Turn {
	out := make([]Turn, len(transcript), len(transcript)+1)
	copy(out, transcript)
	return append(out, turn)
}

func greeting(role, question string) string {
	if strings.TrimSpace(role) == "" {
		role = DefaultRole
	}
	return fmt.Sprintf("Preparing you for the %s role. I've gone through your CV and the job requirements, so let's begin.\n\n%s", role, question)
}

func feedback(ev Evaluation) string {
	return fmt.Sprintf("Score: %s/10. %s", strconv.FormatFloat(ev.Score, 'f', -1, 64), strings.TrimSpace(ev.Feedback))
}
