package zhiyun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"classroom_fetcher/internal/domain"
)

const SourceID = "zhiyun"

// Config holds classroom API client configuration.
type Config struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source is the HTTP client of the classroom platform.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// errPermanent marks failures that retrying cannot fix.
var errPermanent = errors.New("permanent failure")

// New creates a new classroom API client.
func New(cfg Config, logger *slog.Logger) *Source {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// FetchRangeSessions returns the caller's sessions between startAt and endAt (YYYY-MM-DD).
func (s *Source) FetchRangeSessions(ctx context.Context, startAt, endAt string) ([]domain.Session, error) {
	q := url.Values{}
	q.Set("start_at", startAt)
	q.Set("end_at", endAt)

	var contents []SubContent
	if err := s.getList(ctx, "/api/subs", q, &contents); err != nil {
		return nil, err
	}
	return transformSubs(contents), nil
}

// FetchCourseSessions returns every session of the given courses, with slides.
func (s *Source) FetchCourseSessions(ctx context.Context, courseIDs []int64) ([]domain.Session, error) {
	ids := make([]string, len(courseIDs))
	for i, id := range courseIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	q := url.Values{}
	q.Set("course_ids", strings.Join(ids, ","))

	var contents []SubContent
	if err := s.getList(ctx, "/api/courses/subs", q, &contents); err != nil {
		return nil, err
	}
	return transformSubs(contents), nil
}

// SearchCourses searches all courses by name and lecturer.
func (s *Source) SearchCourses(ctx context.Context, courseName, teacherName string) ([]domain.Course, error) {
	q := url.Values{}
	q.Set("course_name", courseName)
	q.Set("teacher_name", teacherName)

	var contents []CourseContent
	if err := s.getList(ctx, "/api/courses/search", q, &contents); err != nil {
		return nil, err
	}

	courses := make([]domain.Course, 0, len(contents))
	for _, c := range contents {
		courses = append(courses, domain.Course{
			CourseID:     c.CourseID,
			CourseName:   c.CourseName,
			LecturerName: c.LecturerName,
		})
	}
	return courses, nil
}

// FetchSubtitle returns the raw subtitle document of one session.
func (s *Source) FetchSubtitle(ctx context.Context, subID int64) ([]byte, error) {
	return s.getWithRetry(ctx, s.endpoint(fmt.Sprintf("/api/subs/%d/subtitle", subID), nil))
}

func (s *Source) endpoint(path string, q url.Values) string {
	if len(q) == 0 {
		return s.baseURL + path
	}
	return s.baseURL + path + "?" + q.Encode()
}

func (s *Source) getList(ctx context.Context, path string, q url.Values, out any) error {
	body, err := s.getWithRetry(ctx, s.endpoint(path, q))
	if err != nil {
		return err
	}

	var resp APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Code != 0 {
		return fmt.Errorf("api error %d: %s", resp.Code, resp.Msg)
	}
	if len(resp.List) == 0 || string(resp.List) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.List, out); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	return nil
}

func (s *Source) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		body, err = s.doRequest(ctx, url)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, errPermanent) || attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ClassroomFetcher/1.0")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, errPermanent)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func transformSubs(contents []SubContent) []domain.Session {
	sessions := make([]domain.Session, 0, len(contents))
	for _, c := range contents {
		urls := c.PPTImageURLs
		if urls == nil {
			urls = []string{}
		}
		sessions = append(sessions, domain.Session{
			SubID:        c.SubID,
			CourseID:     c.CourseID,
			CourseName:   c.CourseName,
			SubName:      c.SubName,
			LecturerName: c.LecturerName,
			Path:         domain.SanitizeName(c.CourseName),
			PPTImageURLs: urls,
		})
	}
	return sessions
}
