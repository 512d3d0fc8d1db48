package gemini

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

// Capability names. They double as the base name of the embedded prompt and schema files.
const (
	capJobSearch          = "job_search"
	capCVExtraction       = "cv_extraction"
	capQuestionGeneration = "question_generation"
	capAnswerEvaluation   = "answer_evaluation"
	capCareerInsights     = "career_insights"
	capCandidateMatch     = "candidate_match"
	capTranslation        = "translation"
)

var capabilities = []string{
	capJobSearch,
	capCVExtraction,
	capQuestionGeneration,
	capAnswerEvaluation,
	capCareerInsights,
	capCandidateMatch,
	capTranslation,
}

//go:embed schemas/*.json
var schemaFiles embed.FS

//go:embed prompts/*.md
var promptFiles embed.FS

var loadSchemas = sync.OnceValues(func() (map[string]*gojsonschema.Schema, error) {
	out := make(map[string]*gojsonschema.Schema, len(capabilities))
	for _, name := range capabilities {
		data, err := schemaFiles.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read %s schema: %w", name, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		out[name] = schema
	}
	return out, nil
})

// buildPrompt fills the {{KEY}} placeholders of the named prompt template.
func buildPrompt(name string, values map[string]string) (string, error) {
	data, err := promptFiles.ReadFile("prompts/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("read %s prompt: %w", name, err)
	}

	prompt := string(data)
	for key, value := range values {
		prompt = strings.ReplaceAll(prompt, "{{"+key+"}}", value)
	}
	return prompt, nil
}

func str() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func arrayOf(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

// localized describes a language-keyed text. Gemini schemas cannot express open maps, so every
// supported language is listed.
func localized() *genai.Schema {
	return object(nil, map[string]*genai.Schema{
		"en": str(), "fr": str(), "ur": str(), "ar": str(), "es": str(),
	})
}

func profileResponseSchema() *genai.Schema {
	return object(nil, map[string]*genai.Schema{
		"fullName":  localized(),
		"email":     str(),
		"phone":     str(),
		"location":  localized(),
		"github":    str(),
		"linkedin":  str(),
		"portfolio": str(),
		"skills":    arrayOf(localized()),
		"experience": arrayOf(object(nil, map[string]*genai.Schema{
			"company": localized(),
			"role":    localized(),
			"period": object([]string{"start"}, map[string]*genai.Schema{
				"start": str(),
				"end":   str(),
			}),
			"location":    localized(),
			"description": localized(),
		})),
		"education": arrayOf(object(nil, map[string]*genai.Schema{
			"institution": localized(),
			"degree":      localized(),
			"year":        {Type: genai.TypeInteger},
			"gpa":         str(),
		})),
	})
}

func questionsResponseSchema() *genai.Schema {
	return arrayOf(object([]string{"question", "context"}, map[string]*genai.Schema{
		"question": str(),
		"context":  str(),
	}))
}

func evaluationResponseSchema() *genai.Schema {
	return object([]string{"score", "feedback", "modelAnswer"}, map[string]*genai.Schema{
		"score":       {Type: genai.TypeNumber},
		"feedback":    str(),
		"modelAnswer": str(),
	})
}

func insightsResponseSchema() *genai.Schema {
	return arrayOf(object([]string{"title", "insight", "priority"}, map[string]*genai.Schema{
		"title":    str(),
		"insight":  str(),
		"priority": {Type: genai.TypeString, Enum: []string{"Low", "Medium", "High"}},
	}))
}

func matchResponseSchema() *genai.Schema {
	return object([]string{"score", "insights"}, map[string]*genai.Schema{
		"score":    {Type: genai.TypeNumber},
		"insights": str(),
	})
}

func translationResponseSchema() *genai.Schema {
	return object([]string{"translations"}, map[string]*genai.Schema{
		"translations": arrayOf(object([]string{"lang", "text"}, map[string]*genai.Schema{
			"lang": str(),
			"text": str(),
		})),
	})
}
