// Package subtitle parses classroom transcripts and renders them as text,
// SRT or WebVTT.
package subtitle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"classroom_fetcher/internal/domain"
)

var ErrNoContent = errors.New("subtitle has no content")

// Entry is one transcribed utterance.
type Entry struct {
	BeginSec  float64
	EndSec    float64
	Text      string
	TransText string
}

type rawEntry struct {
	BeginSec  seconds `json:"BeginSec"`
	EndSec    seconds `json:"EndSec"`
	Text      string  `json:"Text"`
	TransText string  `json:"TransText"`
}

// seconds accepts a JSON number or numeric string; anything else reads as 0.
type seconds float64

func (s *seconds) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*s = seconds(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*s = seconds(f)
			return nil
		}
	}
	*s = 0
	return nil
}

type Subtitle struct {
	Entries []Entry
}

type document struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	List []struct {
		AllContent []rawEntry `json:"all_content"`
	} `json:"list"`
}

// Parse decodes the transcript document returned by the classroom API.
// Entries without text are dropped.
func Parse(data []byte) (*Subtitle, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode subtitle: %w", err)
	}
	if doc.Code != 0 {
		return nil, fmt.Errorf("subtitle api error %d: %s", doc.Code, doc.Msg)
	}
	if len(doc.List) == 0 {
		return nil, ErrNoContent
	}

	sub := &Subtitle{}
	for _, e := range doc.List[0].AllContent {
		if e.Text == "" {
			continue
		}
		sub.Entries = append(sub.Entries, Entry{
			BeginSec:  float64(e.BeginSec),
			EndSec:    float64(e.EndSec),
			Text:      e.Text,
			TransText: e.TransText,
		})
	}
	return sub, nil
}

// Render formats the subtitle in the requested format.
func (s *Subtitle) Render(format domain.SubtitleFormat) (string, error) {
	switch format {
	case domain.FormatTXT:
		return s.PlainText(), nil
	case domain.FormatTXTTimestamp:
		return s.TimestampedText(), nil
	case domain.FormatSRT:
		return s.SRT(), nil
	case domain.FormatSRTBilingual:
		return s.BilingualSRT(), nil
	case domain.FormatVTT:
		return s.VTT(), nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", format)
	}
}

func (s *Subtitle) PlainText() string {
	var b strings.Builder
	for _, e := range s.Entries {
		b.WriteString(e.Text)
	}
	return b.String()
}

// EnglishText concatenates the translations, skipping untranslated entries.
func (s *Subtitle) EnglishText() string {
	var b strings.Builder
	for _, e := range s.Entries {
		b.WriteString(e.TransText)
	}
	return b.String()
}

func (s *Subtitle) TimestampedText() string {
	lines := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		lines = append(lines, fmt.Sprintf("[%s - %s] %s", clock(e.BeginSec), clock(e.EndSec), e.Text))
	}
	return strings.Join(lines, "\n")
}

func (s *Subtitle) SRT() string {
	return s.srt(false)
}

// BilingualSRT adds the translation below the original line when one exists.
func (s *Subtitle) BilingualSRT() string {
	return s.srt(true)
}

func (s *Subtitle) srt(bilingual bool) string {
	blocks := make([]string, 0, len(s.Entries))
	for i, e := range s.Entries {
		block := fmt.Sprintf("%d\n%s --> %s\n%s\n", i+1, timecode(e.BeginSec, ','), timecode(e.EndSec, ','), e.Text)
		if bilingual && e.TransText != "" {
			block += e.TransText + "\n"
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n")
}

func (s *Subtitle) VTT() string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, e := range s.Entries {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, timecode(e.BeginSec, '.'), timecode(e.EndSec, '.'), e.Text)
	}
	return b.String()
}

// clock formats seconds as MM:SS, minutes unbounded.
func clock(seconds float64) string {
	total := uint64(max(seconds, 0))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// timecode formats seconds as HH:MM:SS<sep>mmm.
func timecode(seconds float64, sep byte) string {
	ms := uint64(max(seconds, 0) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		ms/3_600_000,
		ms%3_600_000/60_000,
		ms%60_000/1000,
		sep,
		ms%1000,
	)
}
