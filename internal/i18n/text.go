// Package i18n holds the multi-language text bag used by every user-facing field and the
// accessor that picks a display string for a locale.
package i18n

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/nexaforge/internal/errs"
)

type Language string

const (
	English Language = "en"
	French  Language = "fr"
	Urdu    Language = "ur"
	Arabic  Language = "ar"
	Spanish Language = "es"
)

// Supported lists the languages the platform renders, in display order.
var Supported = []Language{English, French, Urdu, Arabic, Spanish}

// Parse normalizes a language code and rejects anything outside Supported.
func Parse(code string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(code)))
	for _, l := range Supported {
		if l == lang {
			return lang, nil
		}
	}
	return "", errs.Validation("lang", fmt.Sprintf("unsupported language %q", code))
}

// IsRTL reports whether the language is written right to left.
func (l Language) IsRTL() bool {
	return l == Arabic || l == Urdu
}

type entry struct {
	lang  Language
	value string
}

// Text maps languages to strings and remembers insertion order. The zero value is empty.
// A Text is never modified in place: With returns a new value.
type Text struct {
	entries []entry
}

// Of returns a Text holding a single entry.
func Of(lang Language, value string) Text {
	return Text{entries: []entry{{lang: lang, value: value}}}
}

// With returns a copy of t where lang maps to value. Other entries and their order are kept;
// a new language is appended.
func (t Text) With(lang Language, value string) Text {
	out := make([]entry, len(t.entries), len(t.entries)+1)
	copy(out, t.entries)
	for i := range out {
		if out[i].lang == lang {
			out[i].value = value
			return Text{entries: out}
		}
	}
	return Text{entries: append(out, entry{lang: lang, value: value})}
}

// Get returns the value stored for lang.
func (t Text) Get(lang Language) (string, bool) {
	for _, e := range t.entries {
		if e.lang == lang {
			return e.value, true
		}
	}
	return "", false
}

func (t Text) Len() int { return len(t.entries) }

// Languages returns the languages present, in insertion order.
func (t Text) Languages() []Language {
	out := make([]Language, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.lang)
	}
	return out
}

// Missing returns the languages from want that have no non-blank value in t.
func (t Text) Missing(want []Language) []Language {
	var out []Language
	for _, lang := range want {
		if v, ok := t.Get(lang); !ok || strings.TrimSpace(v) == "" {
			out = append(out, lang)
		}
	}
	return out
}

// Resolve picks the display string: the requested language, then English, then the first
// inserted entry, then the empty string.
func Resolve(t Text, lang Language) string {
	if v, ok := t.Get(lang); ok && v != "" {
		return v
	}
	if v, ok := t.Get(English); ok && v != "" {
		return v
	}
	if len(t.entries) > 0 {
		return t.entries[0].value
	}
	return ""
}

// FromMap builds a Text from an unordered map. Supported languages come first in display order,
// any other codes follow alphabetically.
func FromMap(m map[string]string) Text {
	var t Text
	seen := make(map[string]bool, len(m))
	for _, lang := range Supported {
		if v, ok := m[string(lang)]; ok {
			t.entries = append(t.entries, entry{lang: lang, value: v})
			seen[string(lang)] = true
		}
	}

	rest := make([]string, 0, len(m))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		t.entries = append(t.entries, entry{lang: Language(k), value: m[k]})
	}
	return t
}

// MarshalJSON encodes the text as a JSON object with keys in insertion order.
func (t Text) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(e.lang))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the document.
func (t *Text) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Text{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("localized text must be a JSON object")
	}

	var out Text
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("localized text %q: %w", key, err)
		}
		out = out.With(Language(key), value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = out
	return nil
}
