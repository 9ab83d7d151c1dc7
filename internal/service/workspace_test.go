package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"classroom_fetcher/internal/config"
	"classroom_fetcher/internal/domain"
	"classroom_fetcher/internal/service/mocks"
)

type noticeSink struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *noticeSink) Notify(_ context.Context, notice domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeSink) all() []domain.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notice(nil), n.notices...)
}

func (n *noticeSink) last() domain.Notice {
	all := n.all()
	if len(all) == 0 {
		return domain.Notice{}
	}
	return all[len(all)-1]
}

func session(id int64, pages int) domain.Session {
	urls := make([]string, pages)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://cdn.example.edu/ppt/%d/%d.jpg", id, i)
	}
	return domain.Session{
		SubID:        id,
		CourseID:     id / 100,
		CourseName:   "Linear Algebra",
		SubName:      fmt.Sprintf("2024-03-%02d 第1节", id%28+1),
		LecturerName: "Wang",
		Path:         "Linear Algebra",
		PPTImageURLs: urls,
	}
}

type WorkspaceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source     *mocks.MockSource
	queue      *mocks.MockTaskQueue
	downloader *mocks.MockSubtitleDownloader
	batches    *mocks.MockBatchStore
	jobs       *mocks.MockJobStore
	txManager  *mocks.MockTransactionManager
	notices    *noticeSink

	ws     *Workspace
	ctx    context.Context
	logger *slog.Logger
}

func (s *WorkspaceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = context.Background()

	s.source = mocks.NewMockSource(s.ctrl)
	s.queue = mocks.NewMockTaskQueue(s.ctrl)
	s.downloader = mocks.NewMockSubtitleDownloader(s.ctrl)
	s.batches = mocks.NewMockBatchStore(s.ctrl)
	s.jobs = mocks.NewMockJobStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.notices = &noticeSink{}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	clock := func() time.Time { return time.Date(2024, time.March, 13, 9, 30, 0, 0, time.UTC) }

	s.ws = NewWorkspace(
		s.source,
		s.queue,
		NewSubtitleExecutor(s.downloader, s.logger),
		NewRecorder(s.batches, s.jobs, s.txManager, s.logger),
		s.notices,
		s.logger,
		config.DownloadConfig{ToPDF: true, SubtitleFormat: "srt"},
		clock,
	)
}

func (s *WorkspaceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestWorkspaceTestSuite(t *testing.T) {
	suite.Run(t, new(WorkspaceTestSuite))
}

func (s *WorkspaceTestSuite) expectRecord(kind domain.JobKind, jobs int) {
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
	s.batches.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, b *domain.Batch) error {
			s.Equal(kind, b.Kind)
			s.Equal(jobs, b.Requested)
			return nil
		},
	)
	s.jobs.EXPECT().InsertBatch(gomock.Any(), gomock.Any(), gomock.Len(jobs)).Return(nil)
}

func (s *WorkspaceTestSuite) loadMine(sessions ...domain.Session) {
	s.source.EXPECT().FetchRangeSessions(gomock.Any(), "2024-03-11", "2024-03-17").Return(sessions, nil)
	s.Require().NoError(s.ws.FetchMine(s.ctx))
}

func (s *WorkspaceTestSuite) TestNewWorkspace_DefaultsToThisWeek() {
	st := s.ws.Snapshot()

	s.Equal(domain.RangeMine, st.Mode)
	s.Equal("2024-03-11", st.Window.StartDate())
	s.Equal("2024-03-17", st.Window.EndDate())
	s.Equal(domain.FormatSRT, st.SubtitleFormat)
	s.False(st.LoadingTarget)
}

func (s *WorkspaceTestSuite) TestFetchMine_SelectsAllReturned() {
	s.loadMine(session(101, 3), session(102, 0), session(103, 12))

	st := s.ws.Snapshot()
	s.Len(st.Sessions, 3)
	s.Equal(3, st.TargetChecked.Len())
	for _, id := range []int64{101, 102, 103} {
		s.True(st.TargetChecked.Has(id))
	}
	s.False(st.LoadingTarget)
	s.Empty(s.notices.all())
}

func (s *WorkspaceTestSuite) TestFetchMine_FailureKeepsList() {
	s.loadMine(session(101, 3))
	s.ws.SetTargetChecked(nil)

	s.source.EXPECT().FetchRangeSessions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("token expired"))

	err := s.ws.FetchMine(s.ctx)

	s.Error(err)
	s.Contains(err.Error(), "fetch range sessions")
	st := s.ws.Snapshot()
	s.Len(st.Sessions, 1)
	s.True(st.TargetChecked.Empty())
	s.False(st.LoadingTarget)
	s.Equal(domain.NoticeError, s.notices.last().Level)
	s.Equal("获取课程列表失败", s.notices.last().Title)
	s.Equal("token expired", s.notices.last().Description)
}

func (s *WorkspaceTestSuite) TestFetchMine_LoadingFlagWhileInFlight() {
	s.source.EXPECT().FetchRangeSessions(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string, string) ([]domain.Session, error) {
			s.True(s.ws.Snapshot().LoadingTarget)
			return nil, nil
		},
	)

	s.NoError(s.ws.FetchMine(s.ctx))
	s.False(s.ws.Snapshot().LoadingTarget)
}

func (s *WorkspaceTestSuite) TestFetchMine_DiscardsStaleResponse() {
	gomock.InOrder(
		s.source.EXPECT().FetchRangeSessions(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _, _ string) ([]domain.Session, error) {
				// A newer request is issued and resolves before this one.
				s.NoError(s.ws.FetchMine(ctx))
				return []domain.Session{session(1, 1)}, nil
			},
		),
		s.source.EXPECT().FetchRangeSessions(gomock.Any(), gomock.Any(), gomock.Any()).Return(
			[]domain.Session{session(2, 1), session(3, 1)}, nil,
		),
	)

	err := s.ws.FetchMine(s.ctx)

	s.ErrorIs(err, ErrStaleResponse)
	st := s.ws.Snapshot()
	s.Len(st.Sessions, 2)
	s.Equal(int64(2), st.Sessions[0].SubID)
	s.False(st.LoadingTarget)
}

func (s *WorkspaceTestSuite) TestSetSourceRange_ClearsEverything() {
	s.loadMine(session(101, 3))

	s.NoError(s.ws.SetSourceRange(s.ctx, domain.RangeAll))

	st := s.ws.Snapshot()
	s.Equal(domain.RangeAll, st.Mode)
	s.Empty(st.Sessions)
	s.Empty(st.Courses)
	s.True(st.SourceChecked.Empty())
	s.True(st.TargetChecked.Empty())
}

func (s *WorkspaceTestSuite) TestSetSourceRange_MineFetchesImmediately() {
	s.NoError(s.ws.SetSourceRange(s.ctx, domain.RangeAll))

	s.source.EXPECT().FetchRangeSessions(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, string, string) ([]domain.Session, error) {
			st := s.ws.Snapshot()
			s.Empty(st.Sessions)
			s.Empty(st.Courses)
			return []domain.Session{session(7, 2)}, nil
		},
	)

	s.NoError(s.ws.SetSourceRange(s.ctx, domain.RangeMine))
	s.Len(s.ws.Snapshot().Sessions, 1)
}

func (s *WorkspaceTestSuite) TestSetSourceRange_DiscardsInFlightFetch() {
	s.source.EXPECT().FetchRangeSessions(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _, _ string) ([]domain.Session, error) {
			s.NoError(s.ws.SetSourceRange(ctx, domain.RangeAll))
			return []domain.Session{session(1, 1)}, nil
		},
	)

	s.ErrorIs(s.ws.FetchMine(s.ctx), ErrStaleResponse)
	st := s.ws.Snapshot()
	s.Empty(st.Sessions)
	s.False(st.LoadingTarget)
}

func (s *WorkspaceTestSuite) TestSetGranularity_ReanchorsToNow() {
	s.source.EXPECT().FetchRangeSessions(gomock.Any(), "2024-01-08", "2024-01-14").Return(nil, nil)
	s.NoError(s.ws.SetAnchor(s.ctx, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)))

	s.source.EXPECT().FetchRangeSessions(gomock.Any(), "2024-03-01", "2024-03-31").Return(nil, nil)
	s.NoError(s.ws.SetGranularity(s.ctx, domain.GranularityMonth))

	st := s.ws.Snapshot()
	s.Equal(domain.GranularityMonth, st.Window.Granularity)
	s.Equal("2024-03-01", st.Window.StartDate())
}

func (s *WorkspaceTestSuite) TestSetDayRange() {
	s.source.EXPECT().FetchRangeSessions(gomock.Any(), "2024-03-04", "2024-03-06").Return(nil, nil)

	s.NoError(s.ws.SetDayRange(s.ctx,
		time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
	))
}

func (s *WorkspaceTestSuite) TestSetAnchor_AllModeDoesNotFetch() {
	s.NoError(s.ws.SetSourceRange(s.ctx, domain.RangeAll))

	s.NoError(s.ws.SetAnchor(s.ctx, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)))
	s.Equal("2024-04-29", s.ws.Snapshot().Window.StartDate())
}

func (s *WorkspaceTestSuite) TestSearchCourses_EmptyTermsRejected() {
	s.ws.SetSearchTerms("", "")

	err := s.ws.SearchCourses(s.ctx)

	s.ErrorIs(err, ErrEmptySearch)
	s.True(IsValidation(err))
	s.False(s.ws.Snapshot().LoadingSource)
	s.Equal("请输入搜索关键字", s.notices.last().Title)
}

func (s *WorkspaceTestSuite) TestSearchCourses_ResetsSelection() {
	s.NoError(s.ws.SetSourceRange(s.ctx, domain.RangeAll))
	s.ws.SetSearchTerms("线性代数", "")

	courses := []domain.Course{
		{CourseID: 1, CourseName: "线性代数", LecturerName: "Wang"},
		{CourseID: 2, CourseName: "线性代数(H)", LecturerName: "Li"},
	}
	s.source.EXPECT().SearchCourses(gomock.Any(), "线性代数", "").Return(courses, nil)
	s.NoError(s.ws.SearchCourses(s.ctx))
	s.ws.SetSourceChecked([]int64{1, 2})

	s.source.EXPECT().SearchCourses(gomock.Any(), "线性代数", "").Return(courses[:1], nil)
	s.NoError(s.ws.SearchCourses(s.ctx))

	st := s.ws.Snapshot()
	s.Len(st.Courses, 1)
	s.True(st.SourceChecked.Empty())
	s.False(st.LoadingSource)
}

func (s *WorkspaceTestSuite) TestSearchCourses_FailureKeepsList() {
	s.ws.SetSearchTerms("", "Wang")
	s.source.EXPECT().SearchCourses(gomock.Any(), "", "Wang").Return([]domain.Course{{CourseID: 1}}, nil)
	s.NoError(s.ws.SearchCourses(s.ctx))

	s.source.EXPECT().SearchCourses(gomock.Any(), "", "Wang").Return(nil, errors.New("gateway timeout"))
	err := s.ws.SearchCourses(s.ctx)

	s.ErrorContains(err, "search courses")
	s.Len(s.ws.Snapshot().Courses, 1)
	s.Equal("搜索课程失败", s.notices.last().Title)
}

func (s *WorkspaceTestSuite) searchAndCheck(ids ...int64) {
	s.NoError(s.ws.SetSourceRange(s.ctx, domain.RangeAll))
	s.ws.SetSearchTerms("Linear", "")
	courses := []domain.Course{{CourseID: 1, CourseName: "Linear Algebra"}, {CourseID: 2, CourseName: "Calculus"}}
	s.source.EXPECT().SearchCourses(gomock.Any(), "Linear", "").Return(courses, nil)
	s.Require().NoError(s.ws.SearchCourses(s.ctx))
	s.ws.SetSourceChecked(ids)
}

func (s *WorkspaceTestSuite) TestDeriveFromCourses_FiltersSessionsWithoutSlides() {
	s.searchAndCheck(1)
	s1, s2 := session(101, 3), session(102, 0)
	s.source.EXPECT().FetchCourseSessions(gomock.Any(), []int64{1}).Return([]domain.Session{s1, s2}, nil)

	s.NoError(s.ws.DeriveFromCourses(s.ctx))

	st := s.ws.Snapshot()
	s.Equal([]domain.Session{s1}, st.Sessions)
	s.Equal(1, st.TargetChecked.Len())
	s.True(st.TargetChecked.Has(101))
	s.Empty(s.notices.all())
}

func (s *WorkspaceTestSuite) TestDeriveFromCourses_NoSlidesIsInfo() {
	s.searchAndCheck(1, 2)
	s.source.EXPECT().FetchCourseSessions(gomock.Any(), []int64{1, 2}).Return([]domain.Session{session(102, 0)}, nil)

	s.NoError(s.ws.DeriveFromCourses(s.ctx))

	s.Empty(s.ws.Snapshot().Sessions)
	s.Equal(domain.NoticeInfo, s.notices.last().Level)
	s.Equal("没有发现智云 PPT", s.notices.last().Title)
}

func (s *WorkspaceTestSuite) TestDeriveFromCourses_NoCoursesSelected() {
	s.searchAndCheck()

	err := s.ws.DeriveFromCourses(s.ctx)

	s.ErrorIs(err, ErrNoCoursesSelected)
	s.False(s.ws.Snapshot().LoadingTarget)
	s.Equal("请选择课程", s.notices.last().Title)
}

func (s *WorkspaceTestSuite) TestDeriveFromCourses_FailureKeepsList() {
	s.searchAndCheck(2)
	s.source.EXPECT().FetchCourseSessions(gomock.Any(), []int64{2}).Return([]domain.Session{session(201, 4)}, nil)
	s.NoError(s.ws.DeriveFromCourses(s.ctx))

	s.source.EXPECT().FetchCourseSessions(gomock.Any(), []int64{2}).Return(nil, errors.New("boom"))
	s.Error(s.ws.DeriveFromCourses(s.ctx))

	st := s.ws.Snapshot()
	s.Len(st.Sessions, 1)
	s.True(st.TargetChecked.Has(201))
	s.Equal("获取课件列表失败", s.notices.last().Title)
}

func (s *WorkspaceTestSuite) TestRefresh_AllModeDerives() {
	s.searchAndCheck(1)
	s.source.EXPECT().FetchCourseSessions(gomock.Any(), []int64{1}).Return([]domain.Session{session(101, 1)}, nil)

	s.NoError(s.ws.Refresh(s.ctx))
	s.Len(s.ws.Snapshot().Sessions, 1)
}

func (s *WorkspaceTestSuite) TestSetTargetChecked_PrunesUnknownKeys() {
	s.loadMine(session(101, 3), session(102, 1))

	s.ws.SetTargetChecked([]int64{102, 999})

	st := s.ws.Snapshot()
	s.Equal(1, st.TargetChecked.Len())
	s.True(st.TargetChecked.Has(102))
}

func (s *WorkspaceTestSuite) TestSummary() {
	s.loadMine(session(101, 3), session(102, 5), session(103, 2))
	s.ws.SetTargetChecked([]int64{101, 102})

	sum := s.ws.Summary()
	s.Equal(3, sum.Sessions)
	s.Equal(2, sum.SelectedSubs)
	s.Equal(8, sum.SelectedPages)
}

func (s *WorkspaceTestSuite) TestSubmitSlideJobs_EmptySelection() {
	s.loadMine(session(101, 3))
	s.ws.SetTargetChecked(nil)

	jobs, err := s.ws.SubmitSlideJobs(s.ctx)

	s.ErrorIs(err, ErrNothingSelected)
	s.Nil(jobs)
	s.Len(s.ws.Snapshot().Sessions, 1)
	s.Equal("请选择课件", s.notices.last().Title)
}

func (s *WorkspaceTestSuite) TestSubmitSlideJobs_RemovesSubmitted() {
	s.loadMine(session(101, 3), session(102, 4), session(103, 1))
	s.ws.SetTargetChecked([]int64{101, 103})

	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, jobs []domain.Job) error {
			s.Len(jobs, 2)
			for _, j := range jobs {
				s.Equal(domain.JobSlides, j.Kind)
				s.Require().NotNil(j.Render)
				s.True(j.Render.ToPDF)
				s.NotEmpty(j.ID)
			}
			return nil
		},
	)
	s.expectRecord(domain.JobSlides, 2)

	jobs, err := s.ws.SubmitSlideJobs(s.ctx)

	s.NoError(err)
	s.Len(jobs, 2)
	st := s.ws.Snapshot()
	s.Equal([]domain.Session{session(102, 4)}, st.Sessions)
	s.True(st.TargetChecked.Empty())
	s.Equal(domain.NoticeSuccess, s.notices.last().Level)
}

func (s *WorkspaceTestSuite) TestSubmitSlideJobs_QueueFailureKeepsState() {
	s.loadMine(session(101, 3))
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("channel closed"))

	_, err := s.ws.SubmitSlideJobs(s.ctx)

	s.ErrorContains(err, "enqueue slide jobs")
	st := s.ws.Snapshot()
	s.Len(st.Sessions, 1)
	s.True(st.TargetChecked.Has(101))
	s.Equal(domain.NoticeError, s.notices.last().Level)
}

func (s *WorkspaceTestSuite) TestSubmitSlideJobs_RejectsConcurrentSubmission() {
	s.loadMine(session(101, 3), session(102, 4))

	entered := make(chan struct{})
	release := make(chan struct{})
	var enqueued atomic.Int32
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, jobs []domain.Job) error {
			enqueued.Add(int32(len(jobs)))
			close(entered)
			<-release
			return nil
		},
	).Times(1)
	s.expectRecord(domain.JobSlides, 2)

	done := make(chan error, 1)
	go func() {
		_, err := s.ws.SubmitSlideJobs(s.ctx)
		done <- err
	}()
	<-entered

	s.True(s.ws.Snapshot().SubmittingSlides)
	jobs, err := s.ws.SubmitSlideJobs(s.ctx)
	s.ErrorIs(err, ErrBusy)
	s.Nil(jobs)
	s.Equal("正在添加下载任务", s.notices.last().Title)

	close(release)
	s.Require().NoError(<-done)

	s.Equal(int32(2), enqueued.Load())
	st := s.ws.Snapshot()
	s.False(st.SubmittingSlides)
	s.Empty(st.Sessions)
}

func (s *WorkspaceTestSuite) TestSubmitSlideJobs_QueueFailureClearsBusyFlag() {
	s.loadMine(session(101, 3))
	gomock.InOrder(
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("nack")),
		s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Len(1)).Return(nil),
	)
	s.expectRecord(domain.JobSlides, 1)

	_, err := s.ws.SubmitSlideJobs(s.ctx)
	s.Error(err)
	s.False(s.ws.Snapshot().SubmittingSlides)

	jobs, err := s.ws.SubmitSlideJobs(s.ctx)
	s.NoError(err)
	s.Len(jobs, 1)
}

func (s *WorkspaceTestSuite) TestSubmitSlideJobs_HistoryFailureIsNotFatal() {
	s.loadMine(session(101, 3))
	s.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	_, err := s.ws.SubmitSlideJobs(s.ctx)

	s.NoError(err)
	s.Empty(s.ws.Snapshot().Sessions)
}

func (s *WorkspaceTestSuite) openDialogWith(sessions ...domain.Session) {
	s.loadMine(sessions...)
	s.Require().NoError(s.ws.OpenSubtitleDialog(s.ctx))
	s.True(s.ws.Snapshot().SubtitleDialogOpen)
}

func (s *WorkspaceTestSuite) TestOpenSubtitleDialog_NothingSelected() {
	s.loadMine(session(101, 3))
	s.ws.SetTargetChecked(nil)

	s.ErrorIs(s.ws.OpenSubtitleDialog(s.ctx), ErrNothingSelected)
	s.False(s.ws.Snapshot().SubtitleDialogOpen)
}

func (s *WorkspaceTestSuite) TestConfirmSubtitleDownload_PartialFailure() {
	s.openDialogWith(session(101, 3), session(102, 0), session(103, 1))
	s.ws.SetSubtitleFormat(domain.FormatVTT)

	s.downloader.EXPECT().DownloadSubtitles(gomock.Any(), gomock.Len(3), domain.FormatVTT).DoAndReturn(
		func(context.Context, []domain.SubtitleRequest, domain.SubtitleFormat) (domain.BatchSubtitleResult, error) {
			st := s.ws.Snapshot()
			s.True(st.DownloadingSubtitles)
			return domain.BatchSubtitleResult{Success: 2, Failed: 1}, nil
		},
	)
	s.expectRecord(domain.JobSubtitle, 3)

	outcome, err := s.ws.ConfirmSubtitleDownload(s.ctx)

	s.NoError(err)
	s.Equal(SubtitleCompleted, outcome.State)
	s.Equal(3, outcome.Result.Total())
	notice := s.notices.last()
	s.Equal(domain.NoticeWarning, notice.Level)
	s.Equal("成功 2 个，失败 1 个", notice.Description)

	st := s.ws.Snapshot()
	s.False(st.SubtitleDialogOpen)
	s.False(st.DownloadingSubtitles)
	s.Len(st.Sessions, 3)
}

func (s *WorkspaceTestSuite) TestConfirmSubtitleDownload_Success() {
	s.openDialogWith(session(101, 3), session(102, 1))

	s.downloader.EXPECT().DownloadSubtitles(gomock.Any(), []domain.SubtitleRequest{
		session(101, 3).SubtitleRequest(),
		session(102, 1).SubtitleRequest(),
	}, domain.FormatSRT).Return(domain.BatchSubtitleResult{Success: 2}, nil)
	s.expectRecord(domain.JobSubtitle, 2)

	_, err := s.ws.ConfirmSubtitleDownload(s.ctx)

	s.NoError(err)
	s.Equal(domain.NoticeSuccess, s.notices.last().Level)
	s.Equal("成功下载 2 个字幕", s.notices.last().Description)
	s.False(s.ws.Snapshot().SubtitleDialogOpen)
}

func (s *WorkspaceTestSuite) TestConfirmSubtitleDownload_TransportError() {
	s.openDialogWith(session(101, 3))

	s.downloader.EXPECT().DownloadSubtitles(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.BatchSubtitleResult{}, errors.New("connection reset"))

	outcome, err := s.ws.ConfirmSubtitleDownload(s.ctx)

	s.Error(err)
	s.Equal(SubtitleFailed, outcome.State)
	s.Equal(domain.NoticeError, s.notices.last().Level)
	s.Equal("connection reset", s.notices.last().Description)
	st := s.ws.Snapshot()
	s.False(st.SubtitleDialogOpen)
	s.False(st.DownloadingSubtitles)
}

func (s *WorkspaceTestSuite) TestConfirmSubtitleDownload_NothingSelected() {
	s.openDialogWith(session(101, 3))
	s.ws.SetTargetChecked(nil)

	outcome, err := s.ws.ConfirmSubtitleDownload(s.ctx)

	s.ErrorIs(err, ErrNothingSelected)
	s.Equal(SubtitleIdle, outcome.State)
	s.Equal("请选择课程", s.notices.last().Title)
	s.False(s.ws.Snapshot().DownloadingSubtitles)
}
