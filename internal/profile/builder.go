package profile

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/errs"
	"github.com/spigell/nexaforge/internal/i18n"
	"github.com/spigell/nexaforge/internal/storage"
)

// Extractor turns free CV text into a structured profile.
type Extractor interface {
	ExtractProfile(ctx context.Context, raw string) (*Profile, error)
}

// Translator renders text into the requested languages.
type Translator interface {
	Translate(ctx context.Context, text string, langs []i18n.Language) (map[i18n.Language]string, error)
}

type View string

const (
	ViewEdit    View = "edit"
	ViewPreview View = "preview"
)

// Field keys accepted by UpdateField.
const (
	FieldFullName  = "fullName"
	FieldLocation  = "location"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldGithub    = "github"
	FieldLinkedin  = "linkedin"
	FieldPortfolio = "portfolio"
	FieldAvatar    = "avatar"
)

// State is what the CV builder renders.
type State struct {
	Profile       Profile `json:"profile"`
	View          View    `json:"view"`
	IsExtracting  bool    `json:"isExtracting"`
	IsTranslating bool    `json:"isTranslating"`
}

type Builder struct {
	store      storage.Store
	extractor  Extractor
	translator Translator
	logger     *zap.Logger

	mu          sync.Mutex
	profile     Profile
	view        View
	extracting  bool
	translating bool
}

// NewBuilder restores the persisted profile, falling back to the empty one.
func NewBuilder(store storage.Store, extractor Extractor, translator Translator, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Builder{
		store:      store,
		extractor:  extractor,
		translator: translator,
		logger:     logger,
		profile:    Empty(),
		view:       ViewEdit,
	}

	saved := Empty()
	if storage.LoadJSON(store, StorageKey, &saved, logger) {
		b.profile = saved.withDefaults()
	}

	return b
}

func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Builder) stateLocked() State {
	return State{
		Profile:       b.profile.Clone(),
		View:          b.view,
		IsExtracting:  b.extracting,
		IsTranslating: b.translating,
	}
}

func (b *Builder) SetView(view View) (State, error) {
	if view != ViewEdit && view != ViewPreview {
		return State{}, errs.Validation("view", fmt.Sprintf("unknown view %q", view))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.view = view
	return b.stateLocked(), nil
}

// UpdateField sets one field. Localized fields only change the entry for locale; scalar fields
// are replaced. The whole profile is written through to the store before the change is kept.
func (b *Builder) UpdateField(key string, locale i18n.Language, value string) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.profile.Clone()

	switch key {
	case FieldFullName, FieldLocation:
		lang, err := i18n.Parse(string(locale))
		if err != nil {
			return State{}, err
		}
		if key == FieldFullName {
			next.FullName = next.FullName.With(lang, value)
		} else {
			next.Location = next.Location.With(lang, value)
		}
	case FieldEmail:
		next.Email = value
	case FieldPhone:
		next.Phone = value
	case FieldGithub:
		next.Github = value
	case FieldLinkedin:
		next.Linkedin = value
	case FieldPortfolio:
		next.Portfolio = value
	case FieldAvatar:
		next.Avatar = value
	default:
		return State{}, errs.Validation("key", fmt.Sprintf("unknown profile field %q", key))
	}

	if err := storage.SaveJSON(b.store, StorageKey, next); err != nil {
		return State{}, err
	}

	b.profile = next
	return b.stateLocked(), nil
}

// Extract replaces the profile with one extracted from raw text. Blank input and calls made
// while an extraction is running are ignored.
func (b *Builder) Extract(ctx context.Context, raw string) (State, error) {
	b.mu.Lock()
	if strings.TrimSpace(raw) == "" || b.extracting {
		defer b.mu.Unlock()
		return b.stateLocked(), nil
	}
	b.extracting = true
	b.mu.Unlock()

	extracted, err := b.extractor.ExtractProfile(ctx, raw)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.extracting = false

	if err != nil {
		b.logger.Warn("cv extraction failed", zap.Error(err))
		return b.stateLocked(), errs.Capability("cv extraction", err)
	}
	if extracted == nil {
		return b.stateLocked(), errs.Capability("cv extraction", fmt.Errorf("empty extraction"))
	}

	next := mergeOverEmpty(*extracted)
	id, err := uuid.NewV7()
	if err != nil {
		return b.stateLocked(), fmt.Errorf("generate profile id: %w", err)
	}
	next.ID = id.String()

	if err := storage.SaveJSON(b.store, StorageKey, next); err != nil {
		return b.stateLocked(), err
	}

	b.profile = next
	b.view = ViewPreview

	b.logger.Info("cv extracted",
		zap.String("profile_id", next.ID),
		zap.Int("skills", len(next.Skills)),
		zap.Int("experience", len(next.Experience)),
	)

	return b.stateLocked(), nil
}

// Translate fills the languages in langs that the localized field key is missing, translating
// from its English (or first) value. An empty langs means every supported language.
func (b *Builder) Translate(ctx context.Context, key string, langs []i18n.Language) (State, error) {
	if len(langs) == 0 {
		langs = i18n.Supported
	}

	b.mu.Lock()
	if b.translating {
		defer b.mu.Unlock()
		return b.stateLocked(), nil
	}

	var field i18n.Text
	switch key {
	case FieldFullName:
		field = b.profile.FullName
	case FieldLocation:
		field = b.profile.Location
	default:
		b.mu.Unlock()
		return State{}, errs.Validation("key", fmt.Sprintf("field %q is not localized", key))
	}

	source := strings.TrimSpace(i18n.Resolve(field, i18n.English))
	if source == "" {
		b.mu.Unlock()
		return State{}, errs.Validation(key, "nothing to translate")
	}

	missing := field.Missing(langs)
	if len(missing) == 0 {
		defer b.mu.Unlock()
		return b.stateLocked(), nil
	}

	b.translating = true
	b.mu.Unlock()

	translated, err := b.translator.Translate(ctx, source, missing)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.translating = false

	if err != nil {
		b.logger.Warn("translation failed", zap.String("field", key), zap.Error(err))
		return b.stateLocked(), errs.Capability("translation", err)
	}

	next := b.profile.Clone()
	for _, lang := range missing {
		value, ok := translated[lang]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if key == FieldFullName {
			next.FullName = next.FullName.With(lang, value)
		} else {
			next.Location = next.Location.With(lang, value)
		}
	}

	if err := storage.SaveJSON(b.store, StorageKey, next); err != nil {
		return b.stateLocked(), err
	}
	b.profile = next

	return b.stateLocked(), nil
}

// Reset discards the profile and its stored snapshot.
func (b *Builder) Reset() (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.store.Delete(StorageKey); err != nil {
		return State{}, fmt.Errorf("delete %s: %w", StorageKey, err)
	}

	b.profile = Empty()
	b.view = ViewEdit
	return b.stateLocked(), nil
}

// AddSkill appends a skill given in one language.
func (b *Builder) AddSkill(locale i18n.Language, value string) (State, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return State{}, errs.Validation("skill", "must not be empty")
	}
	lang, err := i18n.Parse(string(locale))
	if err != nil {
		return State{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.profile.Clone()
	next.Skills = append(next.Skills, i18n.Of(lang, value))

	if err := storage.SaveJSON(b.store, StorageKey, next); err != nil {
		return State{}, err
	}
	b.profile = next
	return b.stateLocked(), nil
}

// RemoveSkill drops the skill at index.
func (b *Builder) RemoveSkill(index int) (State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.profile.Skills) {
		return State{}, errs.Validation("skill", fmt.Sprintf("no skill at index %d", index))
	}

	next := b.profile.Clone()
	next.Skills = slices.Delete(next.Skills, index, index+1)

	if err := storage.SaveJSON(b.store, StorageKey, next); err != nil {
		return State{}, err
	}
	b.profile = next
	return b.stateLocked(), nil
}
