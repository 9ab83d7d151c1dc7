package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"classroom_fetcher/internal/config"
	"classroom_fetcher/internal/domain"
	"classroom_fetcher/internal/metrics"
	"classroom_fetcher/internal/selection"
	"classroom_fetcher/internal/window"
)

const (
	listSource = "source"
	listTarget = "target"
)

// Workspace owns the course and session lists, their selections and the
// subtitle dialog. Collaborator calls run outside the lock; each list keeps
// the token of its newest request and responses carrying an older token are
// discarded.
type Workspace struct {
	source    Source
	queue     TaskQueue
	subtitles *SubtitleExecutor
	recorder  *Recorder
	notifier  Notifier
	logger    *slog.Logger
	render    domain.RenderOptions
	now       window.Clock

	mu        sync.Mutex
	state     State
	sourceReq string
	targetReq string
}

func NewWorkspace(
	source Source,
	queue TaskQueue,
	subtitles *SubtitleExecutor,
	recorder *Recorder,
	notifier Notifier,
	logger *slog.Logger,
	cfg config.DownloadConfig,
	now window.Clock,
) *Workspace {
	if now == nil {
		now = time.Now
	}
	format, err := domain.ParseSubtitleFormat(cfg.SubtitleFormat)
	if err != nil {
		format = domain.DefaultSubtitleFormat
	}

	return &Workspace{
		source:    source,
		queue:     queue,
		subtitles: subtitles,
		recorder:  recorder,
		notifier:  notifier,
		logger:    logger.With("component", "workspace"),
		render:    renderOptions(cfg.ToPDF, cfg.EnableImageDedup, cfg.DedupThreshold),
		now:       now,
		state: State{
			Mode:           domain.RangeMine,
			Window:         window.ForNow(domain.GranularityWeek, now),
			SubtitleFormat: format,
		},
	}
}

// Snapshot returns a copy of the current state.
func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

func (w *Workspace) Summary() Summary {
	return w.Snapshot().Summary()
}

// SetSourceRange switches between "my" sessions and searching all courses.
// Both lists and selections are cleared and in-flight responses are
// discarded. Switching to RangeMine fetches immediately.
func (w *Workspace) SetSourceRange(ctx context.Context, mode domain.SourceRangeMode) error {
	w.mu.Lock()
	w.state = withRangeMode(w.state, mode)
	w.sourceReq, w.targetReq = "", ""
	w.mu.Unlock()

	w.observeSizes(State{})
	w.logger.Info("course range changed", "mode", mode)

	if mode == domain.RangeMine {
		return w.FetchMine(ctx)
	}
	return nil
}

// SetGranularity re-anchors the window to today, this week or this month,
// dropping any custom anchor, and refetches in RangeMine.
func (w *Workspace) SetGranularity(ctx context.Context, g domain.Granularity) error {
	return w.changeWindow(ctx, window.ForNow(g, w.now))
}

// SetAnchor moves the window to the period containing anchor under the
// current granularity.
func (w *Workspace) SetAnchor(ctx context.Context, anchor time.Time) error {
	w.mu.Lock()
	g := w.state.Window.Granularity
	w.mu.Unlock()
	return w.changeWindow(ctx, window.Resolve(g, anchor))
}

// SetDayRange selects an explicit day range.
func (w *Workspace) SetDayRange(ctx context.Context, start, end time.Time) error {
	return w.changeWindow(ctx, window.Custom(start, end))
}

func (w *Workspace) changeWindow(ctx context.Context, win domain.DateWindow) error {
	w.mu.Lock()
	w.state = withWindow(w.state, win)
	mode := w.state.Mode
	w.mu.Unlock()

	w.logger.Debug("date window changed", "window", win.String())

	if mode == domain.RangeMine {
		return w.FetchMine(ctx)
	}
	return nil
}

// Refresh reloads the target list from the source that produced it.
func (w *Workspace) Refresh(ctx context.Context) error {
	w.mu.Lock()
	mode := w.state.Mode
	w.mu.Unlock()

	if mode == domain.RangeAll {
		return w.DeriveFromCourses(ctx)
	}
	return w.FetchMine(ctx)
}

// FetchMine loads the caller's sessions within the current window and
// selects all of them.
func (w *Workspace) FetchMine(ctx context.Context) error {
	w.mu.Lock()
	win := w.state.Window
	token := w.issue(&w.targetReq, &w.state.LoadingTarget)
	w.mu.Unlock()

	sessions, err := w.source.FetchRangeSessions(ctx, win.StartDate(), win.EndDate())

	w.mu.Lock()
	current := w.settle(&w.targetReq, &w.state.LoadingTarget, token)
	if current && err == nil {
		w.state = withTargetLoaded(w.state, sessions)
	}
	snapshot := w.state
	w.mu.Unlock()

	const op = "fetch_mine"
	switch {
	case !current:
		return w.stale(listTarget, op)
	case err != nil:
		metrics.ListRefreshTotal.WithLabelValues(listTarget, op, metrics.OutcomeError).Inc()
		w.logger.Error("fetch range sessions failed", "window", win.String(), "error", err)
		w.notify(ctx, domain.NoticeError, "获取课程列表失败", err.Error())
		return fmt.Errorf("fetch range sessions: %w", err)
	}

	metrics.ListRefreshTotal.WithLabelValues(listTarget, op, metrics.OutcomeOK).Inc()
	w.observeSizes(snapshot)
	w.logger.Info("fetched sessions", "window", win.String(), "count", len(sessions))
	return nil
}

// SetSearchTerms updates the course search inputs.
func (w *Workspace) SetSearchTerms(courseName, teacherName string) {
	w.mu.Lock()
	w.state = withSearchTerms(w.state, courseName, teacherName)
	w.mu.Unlock()
}

// SearchCourses searches all courses by the current terms. The course
// selection is cleared on success.
func (w *Workspace) SearchCourses(ctx context.Context) error {
	const op = "search_courses"

	w.mu.Lock()
	courseName, teacherName := w.state.CourseName, w.state.TeacherName
	if strings.TrimSpace(courseName) == "" && strings.TrimSpace(teacherName) == "" {
		w.mu.Unlock()
		return w.reject(ctx, listSource, op, ErrEmptySearch, "请输入搜索关键字")
	}
	token := w.issue(&w.sourceReq, &w.state.LoadingSource)
	w.mu.Unlock()

	courses, err := w.source.SearchCourses(ctx, courseName, teacherName)

	w.mu.Lock()
	current := w.settle(&w.sourceReq, &w.state.LoadingSource, token)
	if current && err == nil {
		w.state = withSourceLoaded(w.state, courses)
	}
	snapshot := w.state
	w.mu.Unlock()

	switch {
	case !current:
		return w.stale(listSource, op)
	case err != nil:
		metrics.ListRefreshTotal.WithLabelValues(listSource, op, metrics.OutcomeError).Inc()
		w.logger.Error("search courses failed",
			"course_name", courseName,
			"teacher_name", teacherName,
			"error", err,
		)
		w.notify(ctx, domain.NoticeError, "搜索课程失败", err.Error())
		return fmt.Errorf("search courses: %w", err)
	}

	metrics.ListRefreshTotal.WithLabelValues(listSource, op, metrics.OutcomeOK).Inc()
	w.observeSizes(snapshot)
	w.logger.Info("searched courses", "count", len(courses))
	return nil
}

// DeriveFromCourses loads every slide-bearing session of the checked
// courses into the target list and selects all of them.
func (w *Workspace) DeriveFromCourses(ctx context.Context) error {
	const op = "derive_from_courses"

	w.mu.Lock()
	courses := w.state.SelectedCourses()
	if len(courses) == 0 {
		w.mu.Unlock()
		return w.reject(ctx, listTarget, op, ErrNoCoursesSelected, "请选择课程")
	}
	token := w.issue(&w.targetReq, &w.state.LoadingTarget)
	w.mu.Unlock()

	ids := make([]int64, len(courses))
	for i, c := range courses {
		ids[i] = c.CourseID
	}

	sessions, err := w.source.FetchCourseSessions(ctx, ids)
	withSlides := sessionsWithSlides(sessions)

	w.mu.Lock()
	current := w.settle(&w.targetReq, &w.state.LoadingTarget, token)
	if current && err == nil {
		w.state = withTargetLoaded(w.state, withSlides)
	}
	snapshot := w.state
	w.mu.Unlock()

	switch {
	case !current:
		return w.stale(listTarget, op)
	case err != nil:
		metrics.ListRefreshTotal.WithLabelValues(listTarget, op, metrics.OutcomeError).Inc()
		w.logger.Error("fetch course sessions failed", "courses", ids, "error", err)
		w.notify(ctx, domain.NoticeError, "获取课件列表失败", err.Error())
		return fmt.Errorf("fetch course sessions: %w", err)
	}

	w.observeSizes(snapshot)
	w.logger.Info("derived sessions from courses",
		"courses", len(ids),
		"fetched", len(sessions),
		"with_slides", len(withSlides),
	)

	if len(withSlides) == 0 {
		metrics.ListRefreshTotal.WithLabelValues(listTarget, op, metrics.OutcomeEmpty).Inc()
		w.notify(ctx, domain.NoticeInfo, "没有发现智云 PPT", "")
		return nil
	}
	metrics.ListRefreshTotal.WithLabelValues(listTarget, op, metrics.OutcomeOK).Inc()
	return nil
}

// SetSourceChecked replaces the checked courses.
func (w *Workspace) SetSourceChecked(keys []int64) {
	w.mu.Lock()
	w.state = withSourceChecked(w.state, keys)
	w.mu.Unlock()
}

// SetTargetChecked replaces the checked sessions.
func (w *Workspace) SetTargetChecked(keys []int64) {
	w.mu.Lock()
	w.state = withTargetChecked(w.state, keys)
	w.mu.Unlock()
}

// SubmitSlideJobs hands one slide job per checked session to the task queue
// and removes the submitted sessions from the target list. Only one
// submission runs at a time; others are rejected with ErrBusy.
func (w *Workspace) SubmitSlideJobs(ctx context.Context) ([]domain.Job, error) {
	w.mu.Lock()
	switch {
	case w.state.LoadingTarget:
		w.mu.Unlock()
		return nil, w.reject(ctx, listTarget, "submit_slides", ErrBusy, "课件列表加载中")
	case w.state.SubmittingSlides:
		w.mu.Unlock()
		return nil, w.reject(ctx, listTarget, "submit_slides", ErrBusy, "正在添加下载任务")
	}
	selected := w.state.SelectedSessions()
	if len(selected) == 0 {
		w.mu.Unlock()
		return nil, w.reject(ctx, listTarget, "submit_slides", ErrNothingSelected, "请选择课件")
	}
	w.state.SubmittingSlides = true
	w.mu.Unlock()

	jobs := BuildSlideJobs(selected, w.render, w.now())
	if err := w.queue.Enqueue(ctx, jobs); err != nil {
		w.mu.Lock()
		w.state.SubmittingSlides = false
		w.mu.Unlock()
		w.logger.Error("enqueue slide jobs failed", "jobs", len(jobs), "error", err)
		w.notify(ctx, domain.NoticeError, "添加下载任务失败", err.Error())
		return nil, fmt.Errorf("enqueue slide jobs: %w", err)
	}
	metrics.JobsSubmittedTotal.WithLabelValues(string(domain.JobSlides)).Add(float64(len(jobs)))

	w.mu.Lock()
	w.state = withSubmitted(w.state, selection.All(selected, domain.SessionKey))
	w.state.SubmittingSlides = false
	snapshot := w.state
	w.mu.Unlock()
	w.observeSizes(snapshot)

	if _, err := w.recorder.Record(ctx, domain.JobSlides, "", jobs, nil); err != nil {
		w.logger.Warn("record slide batch failed", "error", err)
	}

	pages := 0
	for _, s := range selected {
		pages += s.PageCount()
	}
	w.logger.Info("submitted slide jobs", "jobs", len(jobs), "pages", pages, "to_pdf", w.render.ToPDF)
	w.notify(ctx, domain.NoticeSuccess, "已添加下载任务", fmt.Sprintf("共 %d 个课件 %d 页", len(jobs), pages))
	return jobs, nil
}

// OpenSubtitleDialog opens the format dialog for the checked sessions.
func (w *Workspace) OpenSubtitleDialog(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.state.LoadingTarget:
		w.mu.Unlock()
		return w.reject(ctx, listTarget, "open_subtitles", ErrBusy, "课件列表加载中")
	case w.state.TargetChecked.Empty():
		w.mu.Unlock()
		return w.reject(ctx, listTarget, "open_subtitles", ErrNothingSelected, "请选择课程")
	}
	w.state = withSubtitleDialog(w.state, true)
	w.mu.Unlock()
	return nil
}

func (w *Workspace) CloseSubtitleDialog() {
	w.mu.Lock()
	w.state = withSubtitleDialog(w.state, false)
	w.mu.Unlock()
}

func (w *Workspace) SetSubtitleFormat(f domain.SubtitleFormat) {
	w.mu.Lock()
	w.state = withSubtitleFormat(w.state, f)
	w.mu.Unlock()
}

// ConfirmSubtitleDownload runs one subtitle batch for the checked sessions.
// Whatever the outcome, the dialog is closed and the busy flag cleared.
func (w *Workspace) ConfirmSubtitleDownload(ctx context.Context) (SubtitleOutcome, error) {
	w.mu.Lock()
	if w.state.DownloadingSubtitles {
		w.mu.Unlock()
		return SubtitleOutcome{State: SubtitleRequesting}, w.reject(ctx, listTarget, "download_subtitles", ErrBusy, "字幕正在下载")
	}
	selected := w.state.SelectedSessions()
	format := w.state.SubtitleFormat
	if len(selected) == 0 {
		w.mu.Unlock()
		return SubtitleOutcome{State: SubtitleIdle}, w.reject(ctx, listTarget, "download_subtitles", ErrNothingSelected, "请选择课程")
	}
	w.state.DownloadingSubtitles = true
	w.mu.Unlock()

	outcome := w.subtitles.Execute(ctx, selected, format)

	w.mu.Lock()
	w.state.DownloadingSubtitles = false
	w.state = withSubtitleDialog(w.state, false)
	w.mu.Unlock()

	if outcome.Err == nil {
		jobs := BuildSubtitleJobs(selected, format, w.now())
		if _, err := w.recorder.Record(ctx, domain.JobSubtitle, string(format), jobs, &outcome.Result); err != nil {
			w.logger.Warn("record subtitle batch failed", "error", err)
		}
	}

	if w.notifier != nil {
		w.notifier.Notify(ctx, outcome.Notice)
	}
	return outcome, outcome.Err
}

// issue records a new request token for a list and marks it busy.
// Callers hold w.mu.
func (w *Workspace) issue(slot *string, busy *bool) string {
	token := uuid.NewString()
	*slot = token
	*busy = true
	return token
}

// settle reports whether token is still the newest request for the list
// and, if so, clears its busy flag. Callers hold w.mu.
func (w *Workspace) settle(slot *string, busy *bool, token string) bool {
	if *slot != token {
		return false
	}
	*slot = ""
	*busy = false
	return true
}

func (w *Workspace) stale(list, op string) error {
	metrics.ListRefreshTotal.WithLabelValues(list, op, metrics.OutcomeStale).Inc()
	w.logger.Debug("discarded stale response", "list", list, "operation", op)
	return ErrStaleResponse
}

func (w *Workspace) reject(ctx context.Context, list, op string, err error, title string) error {
	metrics.ListRefreshTotal.WithLabelValues(list, op, metrics.OutcomeRejected).Inc()
	w.logger.Debug("rejected action", "operation", op, "reason", err)
	w.notify(ctx, domain.NoticeError, title, "")
	return err
}

func (w *Workspace) notify(ctx context.Context, level domain.NoticeLevel, title, description string) {
	if w.notifier == nil {
		return
	}
	w.notifier.Notify(ctx, domain.Notice{Level: level, Title: title, Description: description})
}

func (w *Workspace) observeSizes(s State) {
	metrics.ListSize.WithLabelValues(listSource).Set(float64(len(s.Courses)))
	metrics.ListSize.WithLabelValues(listTarget).Set(float64(len(s.Sessions)))
}
