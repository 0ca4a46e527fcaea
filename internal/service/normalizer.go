package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/richn23/student-voice/internal/model"
)

// Normalizer validates parsed answers against the questionnaire and shapes
// them into durable responses. The questionnaire is authoritative: a type
// declared by the generator never widens bounds or options.
type Normalizer struct {
	translator *Translator // nil disables back-translation of free text
}

func NewNormalizer(translator *Translator) *Normalizer {
	return &Normalizer{translator: translator}
}

// Normalize turns one parsed answer into a persistable response, or returns
// an error when the value fails validation. lang is the session language;
// free text in a non-English session is back-translated best effort.
func (n *Normalizer) Normalize(ctx context.Context, ans model.ParsedAnswer, q *model.Question, lang string) (*model.Response, error) {
	resp := &model.Response{
		QuestionID: q.ID,
		QKey:       q.QKey,
		Type:       q.Type,
	}
	if string(q.Type) != ans.Type {
		log.Printf("normalizer: generator declared type %q for %s, questionnaire says %q; using questionnaire", ans.Type, q.QKey, q.Type)
	}

	switch q.Type {
	case model.QuestionTypeScale, model.QuestionTypeSlider, model.QuestionTypeNPS:
		value, err := strconv.ParseFloat(strings.TrimSpace(ans.RawValue), 64)
		if err != nil {
			return nil, fmt.Errorf("answer for %s is not a number: %q", q.QKey, ans.RawValue)
		}
		min, max := q.Bounds()
		if value < float64(min) || value > float64(max) {
			return nil, fmt.Errorf("answer for %s out of range: %v not in [%d, %d]", q.QKey, value, min, max)
		}
		resp.Response = model.ResponseData{Value: value}
		resp.Score = &value

	case model.QuestionTypeChoice:
		if q.Config.SelectMode == model.SelectMulti {
			picked, err := matchOptions(splitMulti(ans.RawValue), q.Config.Options)
			if err != nil {
				return nil, fmt.Errorf("answer for %s: %w", q.QKey, err)
			}
			resp.Response = model.ResponseData{Value: picked}
		} else {
			picked, err := matchOption(strings.TrimSpace(ans.RawValue), q.Config.Options)
			if err != nil {
				return nil, fmt.Errorf("answer for %s: %w", q.QKey, err)
			}
			resp.Response = model.ResponseData{Value: picked}
		}

	case model.QuestionTypeOpenText:
		text := strings.TrimSpace(ans.RawValue)
		if text == "" {
			return nil, fmt.Errorf("answer for %s is empty", q.QKey)
		}
		if lang != "" && lang != "en" {
			resp.ResponseOriginal = text
			resp.ResponseLanguage = lang
			resp.Response = model.ResponseData{Text: text}
			// English fields stay empty unless the back-translation really
			// happened; aggregation must not mistake the original for English.
			if n.translator != nil {
				if translated, err := n.translator.ToEnglish(ctx, text); err == nil {
					resp.Response.TextEnglish = translated
					resp.ResponseText = &translated
				} else {
					log.Printf("normalizer: back-translation for %s failed, storing original only: %v", q.QKey, err)
				}
			}
		} else {
			resp.Response = model.ResponseData{Text: text, TextEnglish: text}
			resp.ResponseText = &text
		}

	default:
		return nil, fmt.Errorf("unsupported question type %q for %s", q.Type, q.QKey)
	}

	return resp, nil
}

// matchOption matches a value against the canonical English options,
// case-insensitively, returning the canonical spelling.
func matchOption(value string, options []string) (string, error) {
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(opt)) {
			return opt, nil
		}
	}
	return "", fmt.Errorf("value %q does not match any option", value)
}

// matchOptions matches every element; one miss rejects the whole answer.
func matchOptions(values []string, options []string) ([]string, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no options selected")
	}
	picked := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		opt, err := matchOption(v, options)
		if err != nil {
			return nil, err
		}
		if !seen[opt] {
			seen[opt] = true
			picked = append(picked, opt)
		}
	}
	return picked, nil
}

func splitMulti(raw string) []string {
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
