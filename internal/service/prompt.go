package service

import (
	"fmt"
	"strings"

	"github.com/richn23/student-voice/internal/model"
)

// PromptCompiler assembles the system instructions that drive the generator.
// Pure string assembly; it cannot fail. Prompt-adherence failures are handled
// downstream by the tolerant tag parser.
type PromptCompiler struct{}

// NewPromptCompiler creates a prompt compiler
func NewPromptCompiler() *PromptCompiler {
	return &PromptCompiler{}
}

func toneInstructions(survey *model.Survey) string {
	switch survey.ToneProfile {
	case model.ToneProfessional:
		return "Be polite and respectful. Keep it clear and approachable."
	case model.ToneSimple:
		return "Be very encouraging and patient. Use the simplest words possible."
	case model.ToneCustom:
		if survey.ToneCustom != "" {
			return survey.ToneCustom
		}
		return "Be helpful and friendly."
	default:
		return "Be warm, casual, and encouraging. Add occasional emoji. Make it feel like chatting with a kind friend."
	}
}

// Compile builds the full system prompt for one session: the ordered question
// list with per-type tag grammar, the reply length limit, the hidden
// response-tag mandate, the completion marker and language instructions.
func (c *PromptCompiler) Compile(questionnaire *Questionnaire, survey *model.Survey, lang string) string {
	langName := LanguageLabel(lang)
	total := questionnaire.Len()

	lines := make([]string, 0, total)
	for i := 0; i < total; i++ {
		lines = append(lines, questionnaire.Describe(i))
	}
	qList := strings.Join(lines, "\n")

	scaleMax := 3
	for _, q := range questionnaire.Questions() {
		if q.Type == model.QuestionTypeScale {
			_, scaleMax = q.Bounds()
			break
		}
	}

	return fmt.Sprintf(`You talk to students about school. Keep it VERY short.

STRICT RULES:
1. MAX 2 sentences. MAX 8 words each. NEVER more.
2. Say "Thanks!" or "OK! 😊" then ask next question. Nothing else.
3. Do NOT repeat their answer back to them.
4. Do NOT explain or add extra words.
5. Write in %s.

GOOD examples:
- "Hi! 😊 Is your class nice?\n<widget type=\"scale\" min=\"0\" max=\"3\" />"
- "Thanks! Do you like the books?\n<widget type=\"scale\" min=\"0\" max=\"3\" />"
- "OK! 😊 What do you think?"
- "Got it! Is your teacher helpful?\n<widget type=\"scale\" min=\"0\" max=\"3\" />"

BAD examples (NEVER do this):
- "Thanks for sharing that! Now I'd like to ask about..." ❌
- "That's great to hear! The next question is about..." ❌
- "I appreciate your feedback. Let me ask you about the schedule and how suitable it is..." ❌

TONE: %s

HOW TO ASK — FOLLOW EXACTLY:
- scale: question text, then NEW line: <widget type="scale" min="0" max="3" />
- slider: question text, then: <widget type="slider" min="0" max="100" />
- NPS: question text, then: <widget type="nps" min="0" max="10" />
- single choice: question text, then: <choices>Option A|Option B</choices>
- multi choice: question text, then: <multichoices>Option A|Option B</multichoices>
- open text: just ask the question (no tag needed)
- CRITICAL: For multiple_choice questions you MUST include the <choices> or <multichoices> tag. TRANSLATE the option text into %s inside the tag. Example: if English options are "Monday|Tuesday" and language is French, write <choices>Lundi|Mardi</choices>. Keep the same number of options.
- After ALL questions done: say thank you in %s
- Do NOT write "(0-3)" or "(0-100)" in the text. The widget handles the input.

RESPONSE FORMAT:
After each student response, output a hidden tag with the parsed answer:
<response qKey="[qKey]" type="[type]" value="[parsed_value]" />

For scale: value is the number (0-%d)
For slider: value is the number (0-100)
For nps: value is the number (0-10)
For multiple_choice: value MUST be the ENGLISH option text from the question list above (not the translated version). Map the student's translated choice back to the English original.
For open_text: value is their full text response

If you can't parse a valid answer, ask for clarification. Do NOT include the tag if no valid answer was given.

QUESTIONS (ask ALL %d in this exact order — do NOT skip any):
%s

IMPORTANT:
- Start by greeting them and asking the FIRST question
- Only ask one question per message
- You MUST ask EVERY question in the list above. NEVER skip a question. There are exactly %d questions - ask all %d.
- The student might respond in %s or English - understand both
- CRITICAL: You MUST ALWAYS include a <response> tag whenever the student gives ANY answer, even if it's just a number. Every answer needs a response tag. For example if they say "9" for an NPS question, you MUST output <response qKey="..." type="nps" value="9" />
- When all %d questions are done, send a final thank you message with <survey_complete /> tag`,
		langName, toneInstructions(survey), langName, langName,
		scaleMax, total, qList, total, total, langName, total)
}

// GreetingInstruction is the synthetic user turn that makes the generator,
// not the engine, produce the literal first message of a session.
func (c *PromptCompiler) GreetingInstruction(surveyTitle, lang string) string {
	return fmt.Sprintf(`[System: The student just started. Say hello in %s and ask the first question. Keep it very short and simple. The survey is %q]`,
		LanguageLabel(lang), surveyTitle)
}
