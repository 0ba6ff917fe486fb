package service

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/xxxsen/docshare/internal/ai"
)

type DocumentSummary struct {
	DocumentID  string `json:"document_id"`
	SummaryType string `json:"summary_type"`
	Language    string `json:"language"`
	Markdown    string `json:"markdown"`
	HTML        string `json:"html"`
}

type SummaryService struct {
	docs          *DocumentService
	prefs         *PreferenceService
	summarizer    *ai.Summarizer
	maxInputChars int
	md            goldmark.Markdown
}

func NewSummaryService(docs *DocumentService, prefs *PreferenceService, summarizer *ai.Summarizer, maxInputChars int) *SummaryService {
	return &SummaryService{
		docs:          docs,
		prefs:         prefs,
		summarizer:    summarizer,
		maxInputChars: maxInputChars,
		md:            goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Summarize uses the owner's summary_type and language preferences.
func (s *SummaryService) Summarize(ctx context.Context, ownerID, docID string) (*DocumentSummary, error) {
	prefs, err := s.prefs.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	text, err := s.docs.ReadText(ctx, ownerID, docID, s.maxInputChars)
	if err != nil {
		return nil, err
	}
	markdown, err := s.summarizer.Summarize(ctx, text, prefs[PrefSummaryType], prefs[PrefLanguage])
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, err
	}
	return &DocumentSummary{
		DocumentID:  docID,
		SummaryType: prefs[PrefSummaryType],
		Language:    prefs[PrefLanguage],
		Markdown:    markdown,
		HTML:        buf.String(),
	}, nil
}
