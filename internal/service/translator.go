package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/richn23/student-voice/internal/cache"
	"github.com/richn23/student-voice/internal/generator"
)

// SourceText is one string needing translation, with a stable key so ordering
// survives generator formatting drift.
type SourceText struct {
	Key  string
	Text string
}

// ChatUI is the pack of fixed strings the chat client renders, translated per
// session language.
type ChatUI struct {
	ThankYou          string `json:"thankYou"`
	DefaultCompletion string `json:"defaultCompletion"`
	TapAll            string `json:"tapAll"`
	Done              string `json:"done"`
	TypeAnswer        string `json:"typeAnswer"`
}

func defaultChatUI() ChatUI {
	return ChatUI{
		ThankYou:          "Thank you!",
		DefaultCompletion: "Your feedback has been submitted. It helps us improve your experience.",
		TapAll:            "Tap all that apply, then press Done",
		Done:              "Done ✓",
		TypeAnswer:        "Type your answer...",
	}
}

var numberedPrefixRe = regexp.MustCompile(`^\d+\.\s*`)

// Translator performs best-effort, never-blocking translation of UI strings
// and questionnaire content. Overlays are memoized in-process and in Redis
// per (survey version, language); English sessions never touch it.
type Translator struct {
	gen      generator.Generator
	overlays cache.OverlayCache // may be nil when Redis is unavailable

	mu   sync.Mutex
	memo map[string]map[string]string // versionID:lang -> key -> translation
}

// NewTranslator creates a translator. overlays may be nil; the in-process
// memo still applies.
func NewTranslator(gen generator.Generator, overlays cache.OverlayCache) *Translator {
	return &Translator{
		gen:      gen,
		overlays: overlays,
		memo:     make(map[string]map[string]string),
	}
}

// TranslateBatch translates all items in one generator call and returns a
// key-to-translation map. A generator error or an uneven line count falls
// back to the source text for the unmatched keys. A cached (version,
// language) pair returns without a generator call.
func (t *Translator) TranslateBatch(ctx context.Context, versionID, lang string, items []SourceText) map[string]string {
	result := make(map[string]string, len(items))
	for _, item := range items {
		result[item.Key] = item.Text
	}
	if lang == "" || lang == "en" || len(items) == 0 {
		return result
	}

	if overlay := t.cachedOverlay(ctx, versionID, lang); overlay != nil {
		covered := true
		for _, item := range items {
			if translated, ok := overlay[item.Key]; ok {
				result[item.Key] = translated
			} else {
				covered = false
			}
		}
		if covered {
			return result
		}
	}

	numbered := make([]string, len(items))
	for i, item := range items {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, item.Text)
	}

	text, err := t.gen.Generate(ctx, generator.Request{
		System:   fmt.Sprintf("Translate each numbered line to %s. Return ONLY the translations, one per line, numbered the same way. Keep it simple. Do not add anything else.", LanguageLabel(lang)),
		Messages: []generator.Message{{Role: generator.RoleUser, Content: strings.Join(numbered, "\n")}},
		Fast:     true,
	})
	if err != nil {
		log.Printf("translator: batch translation to %s failed, using source text: %v", lang, err)
		return result
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(numberedPrefixRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != len(items) {
		log.Printf("translator: expected %d lines, got %d; unmatched keys keep source text", len(items), len(lines))
	}

	overlay := make(map[string]string, len(items))
	for i, item := range items {
		if i < len(lines) {
			result[item.Key] = lines[i]
			overlay[item.Key] = lines[i]
		}
	}
	t.storeOverlay(ctx, versionID, lang, overlay)
	return result
}

// UIStrings returns the chat UI string pack for a language
func (t *Translator) UIStrings(ctx context.Context, versionID, lang string) ChatUI {
	ui := defaultChatUI()
	if lang == "" || lang == "en" {
		return ui
	}
	translated := t.TranslateBatch(ctx, versionID, lang, []SourceText{
		{Key: "ui.thankYou", Text: ui.ThankYou},
		{Key: "ui.defaultCompletion", Text: ui.DefaultCompletion},
		{Key: "ui.tapAll", Text: ui.TapAll},
		{Key: "ui.done", Text: ui.Done},
		{Key: "ui.typeAnswer", Text: ui.TypeAnswer},
	})
	ui.ThankYou = translated["ui.thankYou"]
	ui.DefaultCompletion = translated["ui.defaultCompletion"]
	ui.TapAll = translated["ui.tapAll"]
	ui.Done = translated["ui.done"]
	ui.TypeAnswer = translated["ui.typeAnswer"]
	return ui
}

// TranslateText translates one free string, falling back to the source on
// any failure.
func (t *Translator) TranslateText(ctx context.Context, text, lang string) string {
	if lang == "" || lang == "en" || strings.TrimSpace(text) == "" {
		return text
	}
	translated, err := t.gen.Generate(ctx, generator.Request{
		System:   fmt.Sprintf("Translate to %s. Return ONLY the translation.", LanguageLabel(lang)),
		Messages: []generator.Message{{Role: generator.RoleUser, Content: text}},
		Fast:     true,
	})
	if err != nil || strings.TrimSpace(translated) == "" {
		return text
	}
	return strings.TrimSpace(translated)
}

// ToEnglish translates student free text back to canonical English. Unlike
// the other methods this surfaces the error, so the normalizer can record
// the original-only degraded outcome.
func (t *Translator) ToEnglish(ctx context.Context, text string) (string, error) {
	translated, err := t.gen.Generate(ctx, generator.Request{
		System:   "Translate the following text to English. Return ONLY the translation, nothing else.",
		Messages: []generator.Message{{Role: generator.RoleUser, Content: text}},
		Fast:     true,
	})
	if err != nil {
		return "", err
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", fmt.Errorf("translator: empty translation")
	}
	return translated, nil
}

// cachedOverlay returns a snapshot of the memoized overlay. Overlay maps in
// the memo are immutable once stored; storeOverlay swaps in a fresh merged
// map instead of mutating one a caller may still be reading.
func (t *Translator) cachedOverlay(ctx context.Context, versionID, lang string) map[string]string {
	memoKey := versionID + ":" + lang
	t.mu.Lock()
	overlay := t.memo[memoKey]
	t.mu.Unlock()
	if overlay != nil {
		return overlay
	}
	if t.overlays == nil {
		return nil
	}
	overlay, err := t.overlays.Get(ctx, versionID, lang)
	if err != nil {
		log.Printf("translator: overlay cache read failed: %v", err)
		return nil
	}
	if overlay != nil {
		t.mu.Lock()
		if existing := t.memo[memoKey]; existing != nil {
			overlay = existing
		} else {
			t.memo[memoKey] = overlay
		}
		t.mu.Unlock()
	}
	return overlay
}

func (t *Translator) storeOverlay(ctx context.Context, versionID, lang string, overlay map[string]string) {
	if len(overlay) == 0 {
		return
	}
	memoKey := versionID + ":" + lang
	t.mu.Lock()
	existing := t.memo[memoKey]
	merged := make(map[string]string, len(existing)+len(overlay))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	t.memo[memoKey] = merged
	t.mu.Unlock()

	if t.overlays != nil {
		if err := t.overlays.Set(ctx, versionID, lang, merged); err != nil {
			log.Printf("translator: overlay cache write failed: %v", err)
		}
	}
}
