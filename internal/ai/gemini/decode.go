package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"
	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/nexaforge/internal/i18n"
)

var textType = reflect.TypeOf(i18n.Text{})

// decodePayload runs a raw model response through the boundary checks: JSON parsing, the
// capability's JSON schema, decoding into out and struct validation.
func decodePayload(schema *gojsonschema.Schema, validate *validator.Validate, raw string, out any) error {
	doc, err := parseJSON(extractJSON(raw))
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate gemini response: %w", err)
	}
	if !result.Valid() {
		return schemaViolation(result.Errors())
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: localizedTextHook,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}

	return validatePayload(validate, out)
}

// parseJSON parses text, repairing syntax slips such as trailing commas or single quotes when the
// strict parse fails. A repaired document still has to pass the schema.
func parseJSON(text string) (any, error) {
	var doc any
	err := json.Unmarshal([]byte(text), &doc)
	if err == nil {
		return doc, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(text)
	if repairErr != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, fmt.Errorf("parse repaired gemini response: %w", err)
	}
	return doc, nil
}

func schemaViolation(results []gojsonschema.ResultError) error {
	msgs := make([]string, 0, len(results))
	for _, desc := range results {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("gemini response does not match schema: %s", strings.Join(msgs, "; "))
}

// validatePayload checks a decoded struct, or every struct of a decoded slice.
func validatePayload(validate *validator.Validate, out any) error {
	v := reflect.Indirect(reflect.ValueOf(out))

	check := func(item reflect.Value) error {
		if reflect.Indirect(item).Kind() != reflect.Struct {
			return nil
		}
		if err := validate.Struct(item.Interface()); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				return fmt.Errorf("invalid gemini response: %w", fieldErrs)
			}
			return fmt.Errorf("validate gemini response: %w", err)
		}
		return nil
	}

	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			if err := check(v.Index(i)); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	}
	return check(v)
}

// localizedTextHook decodes a language-keyed object into i18n.Text.
func localizedTextHook(from, to reflect.Type, data any) (any, error) {
	if to != textType {
		return data, nil
	}

	raw, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}

	values := make(map[string]string, len(raw))
	for lang, value := range raw {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("localized value for %q is %T, not a string", lang, value)
		}
		values[lang] = s
	}
	return i18n.FromMap(values), nil
}

// extractJSON strips the code fences models like to wrap JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// clamp bounds v to [lo, hi] and reports whether it had to.
func clamp(v, lo, hi float64) (float64, bool) {
	switch {
	case v < lo:
		return lo, true
	case v > hi:
		return hi, true
	}
	return v, false
}
