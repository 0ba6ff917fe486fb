package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	SummaryBrief    = "brief"
	SummaryDetailed = "detailed"
	SummaryBullets  = "bullets"
)

var languageNames = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"ja": "Japanese",
}

type SummarizerConfig struct {
	Timeout       int
	MaxInputChars int
}

type Summarizer struct {
	gen IGenerator
	cfg SummarizerConfig
}

func NewSummarizer(gen IGenerator, cfg SummarizerConfig) *Summarizer {
	return &Summarizer{gen: gen, cfg: cfg}
}

// Summarize returns a markdown summary of text shaped by summaryType and written in language.
func (s *Summarizer) Summarize(ctx context.Context, text, summaryType, language string) (string, error) {
	if s.gen == nil {
		return "", ErrUnavailable
	}
	text = truncateRunes(strings.TrimSpace(text), s.cfg.MaxInputChars)
	if text == "" {
		return "", fmt.Errorf("nothing to summarize")
	}
	prompt := buildSummaryPrompt(text, summaryType, language)
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(resp)
	if out == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return out, nil
}

func buildSummaryPrompt(text, summaryType, language string) string {
	var shape string
	switch summaryType {
	case SummaryDetailed:
		shape = "Write a detailed summary with short sections covering every key point."
	case SummaryBullets:
		shape = "Write the summary as a markdown bullet list, one key point per bullet."
	default:
		shape = "Write a brief summary of at most three sentences."
	}
	lang, ok := languageNames[language]
	if !ok {
		lang = languageNames["en"]
	}
	return fmt.Sprintf(`You are a document summarization assistant.
%s
- Write the summary in %s.
- Output ONLY markdown, no explanations.

DOCUMENT:
%s`, shape, lang, text)
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
