package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/richn23/student-voice/internal/model"
)

// The generator hides machine-readable tags inside its conversational output.
// This file is the only place that knows the tag syntax. Parsing is lenient
// end to end: a tag that is absent, malformed or repeated never fails a turn,
// it is simply not extracted.

var (
	responseTagRe = regexp.MustCompile(`<response\s+qKey="([^"]+)"\s+type="([^"]+)"\s+value="([^"]*)"[^/]*/>`)
	widgetTagRe   = regexp.MustCompile(`<widget\s+type="([^"]+)"\s+min="([^"]+)"\s+max="([^"]+)"(?:\s+lowLabel="([^"]*)")?(?:\s+highLabel="([^"]*)")?\s*/>`)
	choicesTagRe  = regexp.MustCompile(`<choices>([^<]*)</choices>`)
	multiTagRe    = regexp.MustCompile(`<multichoices>([^<]*)</multichoices>`)
	completeTagRe = regexp.MustCompile(`<survey_complete\s*/>`)

	// Stripping is broader than extraction so that even tags too mangled to
	// parse never reach the student. Attribute values may contain "/".
	stripResponseRe = regexp.MustCompile(`<response[^>]*/>`)
	stripWidgetRe   = regexp.MustCompile(`<widget[^>]*/>`)
	blankRunsRe     = regexp.MustCompile(`\n{3,}`)
)

// Reply is the structured view of one generator output
type Reply struct {
	Text         string               // human-visible text, all tags stripped
	Answers      []model.ParsedAnswer // zero or more extracted answer tags, in emission order
	Widget       *model.Widget        // control to render for the next answer, if any
	Choices      []string             // single-choice options (display language)
	MultiChoices []string             // multi-choice options (display language)
	Complete     bool                 // terminal completion marker present
}

// ParseReply extracts all hidden tags from raw generator output and strips
// them from the student-visible text. It never fails.
func ParseReply(raw string) Reply {
	reply := Reply{
		Complete: completeTagRe.MatchString(raw),
	}

	for _, m := range responseTagRe.FindAllStringSubmatch(raw, -1) {
		reply.Answers = append(reply.Answers, model.ParsedAnswer{
			QKey:     m[1],
			Type:     m[2],
			RawValue: m[3],
		})
	}

	reply.Widget = parseWidget(raw)
	reply.Choices = parseOptions(choicesTagRe, raw)
	reply.MultiChoices = parseOptions(multiTagRe, raw)
	reply.Text = stripTags(raw)
	return reply
}

func parseWidget(raw string) *model.Widget {
	m := widgetTagRe.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	kind := model.QuestionType(m[1])
	switch kind {
	case model.QuestionTypeScale, model.QuestionTypeSlider, model.QuestionTypeNPS:
	default:
		return nil // unknown widget kind, treat the tag as malformed
	}

	min, err := strconv.Atoi(m[2])
	if err != nil {
		min = 0
	}
	max, err := strconv.Atoi(m[3])
	if err != nil {
		max = 3
	}
	return &model.Widget{
		Type:      kind,
		Min:       min,
		Max:       max,
		LowLabel:  m[4],
		HighLabel: m[5],
	}
}

func parseOptions(re *regexp.Regexp, raw string) []string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	var options []string
	for _, opt := range strings.Split(m[1], "|") {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	return options
}

func stripTags(raw string) string {
	text := stripResponseRe.ReplaceAllString(raw, "")
	text = completeTagRe.ReplaceAllString(text, "")
	text = choicesTagRe.ReplaceAllString(text, "")
	text = multiTagRe.ReplaceAllString(text, "")
	text = stripWidgetRe.ReplaceAllString(text, "")
	text = blankRunsRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
