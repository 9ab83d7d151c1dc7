package service

import (
	"slices"

	"classroom_fetcher/internal/domain"
	"classroom_fetcher/internal/selection"
)

// State is the selection view owned by a Workspace. Every field is replaced,
// never mutated in place, so a State obtained from Snapshot is safe to keep.
type State struct {
	Mode   domain.SourceRangeMode
	Window domain.DateWindow

	CourseName  string
	TeacherName string

	// Courses is the source list, only populated in RangeAll.
	Courses       []domain.Course
	SourceChecked selection.Set[int64]
	LoadingSource bool

	// Sessions is the target list.
	Sessions      []domain.Session
	TargetChecked selection.Set[int64]
	LoadingTarget bool

	// SubmittingSlides is set while a slide batch is being handed to the queue.
	SubmittingSlides bool

	SubtitleDialogOpen   bool
	SubtitleFormat       domain.SubtitleFormat
	DownloadingSubtitles bool
}

// Summary is the header line of the target list.
type Summary struct {
	Sessions        int
	SelectedCourses int
	SelectedSubs    int
	SelectedPages   int
}

func (s State) SelectedSessions() []domain.Session {
	return selection.Selected(s.Sessions, s.TargetChecked, domain.SessionKey)
}

func (s State) SelectedCourses() []domain.Course {
	return selection.Selected(s.Courses, s.SourceChecked, domain.CourseKey)
}

func (s State) Summary() Summary {
	sum := Summary{
		Sessions:        len(s.Sessions),
		SelectedCourses: s.SourceChecked.Len(),
	}
	for _, sub := range s.SelectedSessions() {
		sum.SelectedSubs++
		sum.SelectedPages += sub.PageCount()
	}
	return sum
}

func (s State) clone() State {
	s.Courses = slices.Clone(s.Courses)
	s.Sessions = slices.Clone(s.Sessions)
	return s
}

func withRangeMode(s State, mode domain.SourceRangeMode) State {
	s.Mode = mode
	s.Courses = nil
	s.SourceChecked = selection.Set[int64]{}
	s.Sessions = nil
	s.TargetChecked = selection.Set[int64]{}
	s.LoadingSource = false
	s.LoadingTarget = false
	return s
}

func withWindow(s State, w domain.DateWindow) State {
	s.Window = w
	return s
}

func withSearchTerms(s State, courseName, teacherName string) State {
	s.CourseName = courseName
	s.TeacherName = teacherName
	return s
}

// withTargetLoaded replaces the target list and selects every row.
func withTargetLoaded(s State, sessions []domain.Session) State {
	s.Sessions = slices.Clone(sessions)
	s.TargetChecked = selection.All(s.Sessions, domain.SessionKey)
	return s
}

// withSourceLoaded replaces the source list and clears its selection.
func withSourceLoaded(s State, courses []domain.Course) State {
	s.Courses = slices.Clone(courses)
	s.SourceChecked = selection.Set[int64]{}
	return s
}

func withSourceChecked(s State, keys []int64) State {
	s.SourceChecked = selection.Replace(s.Courses, domain.CourseKey, keys)
	return s
}

func withTargetChecked(s State, keys []int64) State {
	s.TargetChecked = selection.Replace(s.Sessions, domain.SessionKey, keys)
	return s
}

// withSubmitted drops submitted rows from the target list. Submitted rows
// are not offered again until the next fetch.
func withSubmitted(s State, submitted selection.Set[int64]) State {
	s.Sessions = selection.Without(s.Sessions, submitted, domain.SessionKey)
	s.TargetChecked = s.TargetChecked.Minus(submitted)
	return s
}

func withSubtitleDialog(s State, open bool) State {
	s.SubtitleDialogOpen = open
	return s
}

func withSubtitleFormat(s State, f domain.SubtitleFormat) State {
	s.SubtitleFormat = f
	return s
}

// sessionsWithSlides keeps sessions that have a downloadable slide deck.
func sessionsWithSlides(sessions []domain.Session) []domain.Session {
	out := make([]domain.Session, 0, len(sessions))
	for _, sub := range sessions {
		if sub.HasSlides() {
			out = append(out, sub)
		}
	}
	return out
}
