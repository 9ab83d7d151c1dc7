package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"classroom_fetcher/internal/domain"
)

// DingTalk posts notices to a DingTalk robot webhook. Info notices are not
// forwarded.
type DingTalk struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
}

func NewDingTalk(url string, timeout time.Duration, logger *slog.Logger) *DingTalk {
	return &DingTalk{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     logger.With("notifier", "dingtalk"),
	}
}

type dingMessage struct {
	MsgType string   `json:"msgtype"`
	Text    dingText `json:"text"`
}

type dingText struct {
	Content string `json:"content"`
}

type dingResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (d *DingTalk) Notify(ctx context.Context, notice domain.Notice) {
	if notice.Level == domain.NoticeInfo {
		return
	}
	if err := d.send(ctx, notice); err != nil {
		d.logger.Warn("send notice failed", "title", notice.Title, "error", err)
	}
}

func (d *DingTalk) send(ctx context.Context, notice domain.Notice) error {
	content := notice.Title
	if notice.Description != "" {
		content += "\n" + notice.Description
	}

	body, err := json.Marshal(dingMessage{MsgType: "text", Text: dingText{Content: content}})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var result dingResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("dingtalk error %d: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}
