package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/richn23/student-voice/internal/model"
)

// Questionnaire is the immutable, ordered question list of one published
// survey version, with key lookup. It is the contract a conversation must
// satisfy.
type Questionnaire struct {
	questions []model.Question
	byKey     map[string]*model.Question
}

// NewQuestionnaire builds a questionnaire from a version's questions. Input
// order is normalized by the authored order field; duplicate keys keep the
// first occurrence.
func NewQuestionnaire(questions []model.Question) *Questionnaire {
	sorted := make([]model.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	q := &Questionnaire{
		questions: sorted,
		byKey:     make(map[string]*model.Question, len(sorted)),
	}
	for i := range q.questions {
		if _, ok := q.byKey[q.questions[i].QKey]; !ok {
			q.byKey[q.questions[i].QKey] = &q.questions[i]
		}
	}
	return q
}

// Questions returns the ordered question sequence
func (q *Questionnaire) Questions() []model.Question {
	return q.questions
}

// ByKey looks up a question by its stable key
func (q *Questionnaire) ByKey(key string) (*model.Question, bool) {
	question, ok := q.byKey[key]
	return question, ok
}

// Len returns the number of questions
func (q *Questionnaire) Len() int {
	return len(q.questions)
}

// Describe renders one question as the prompt compiler presents it to the
// generator: key, type tag and bounds/options description.
func (q *Questionnaire) Describe(index int) string {
	question := &q.questions[index]
	desc := fmt.Sprintf("Q%d [%s] (%s): Ask about: %q", index+1, question.QKey, question.Type, question.PromptEN())

	switch question.Type {
	case model.QuestionTypeScale:
		min, max := question.Bounds()
		desc += fmt.Sprintf(" — score %d to %d", min, max)
	case model.QuestionTypeSlider:
		min, max := question.Bounds()
		desc += fmt.Sprintf(" — number %d to %d", min, max)
	case model.QuestionTypeNPS:
		desc += " — number 0 to 10"
	case model.QuestionTypeChoice:
		opts := strings.Join(question.Config.Options, "|")
		if question.Config.SelectMode == model.SelectMulti {
			desc += fmt.Sprintf(" — MUST include: <multichoices>%s</multichoices>", opts)
		} else {
			desc += fmt.Sprintf(" — MUST include: <choices>%s</choices>", opts)
		}
	case model.QuestionTypeOpenText:
		desc += " — ask them to write"
	}

	desc += ` [Keep the SAME topic/meaning as the prompt - rephrase slightly in simple A2 English but do NOT change what the question is asking about. If it says "breakfast" ask about breakfast, not "today".]`
	return desc
}
