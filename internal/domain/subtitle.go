package domain

import (
	"fmt"
	"strings"
)

// SubtitleFormat is shared by every session of one batch.
type SubtitleFormat string

const (
	FormatTXT          SubtitleFormat = "txt"
	FormatTXTTimestamp SubtitleFormat = "txt_timestamp"
	FormatSRT          SubtitleFormat = "srt"
	FormatSRTBilingual SubtitleFormat = "srt_bilingual"
	FormatVTT          SubtitleFormat = "vtt"

	DefaultSubtitleFormat = FormatSRT
)

// SubtitleFormats lists the formats in the order they are offered.
func SubtitleFormats() []SubtitleFormat {
	return []SubtitleFormat{FormatTXT, FormatTXTTimestamp, FormatSRT, FormatSRTBilingual, FormatVTT}
}

func ParseSubtitleFormat(s string) (SubtitleFormat, error) {
	f := SubtitleFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SubtitleFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown subtitle format %q", s)
}

// Extension returns the file extension including the dot.
func (f SubtitleFormat) Extension() string {
	switch f {
	case FormatTXT, FormatTXTTimestamp:
		return ".txt"
	case FormatVTT:
		return ".vtt"
	default:
		return ".srt"
	}
}

func (f SubtitleFormat) Label() string {
	switch f {
	case FormatTXT:
		return "纯文本 (.txt)"
	case FormatTXTTimestamp:
		return "时间戳文本 (.txt)"
	case FormatSRT:
		return "SRT 字幕 (.srt)"
	case FormatSRTBilingual:
		return "双语 SRT (.srt)"
	case FormatVTT:
		return "WebVTT (.vtt)"
	default:
		return string(f)
	}
}

type SubtitleRequest struct {
	SubID      int64  `json:"sub_id"`
	CourseName string `json:"course_name"`
	SubName    string `json:"sub_name"`
	Path       string `json:"path"`
}

// BatchSubtitleResult is the aggregate outcome of one subtitle batch.
type BatchSubtitleResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

func (r BatchSubtitleResult) Total() int {
	return r.Success + r.Failed
}

// Normalize makes Success+Failed equal requested. Sessions the collaborator
// did not account for are counted as failed; an over-report is clamped.
func (r BatchSubtitleResult) Normalize(requested int) BatchSubtitleResult {
	if r.Success < 0 {
		r.Success = 0
	}
	if r.Failed < 0 {
		r.Failed = 0
	}
	if r.Success > requested {
		r.Success = requested
	}
	r.Failed = requested - r.Success
	return r
}
