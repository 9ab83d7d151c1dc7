package domain

import "strings"

// Course is a teaching unit returned by course search.
type Course struct {
	CourseID     int64  `json:"course_id" db:"course_id"`
	CourseName   string `json:"course_name" db:"course_name"`
	LecturerName string `json:"lecturer_name" db:"lecturer_name"`
}

// Session is one recorded lecture occurrence ("sub").
type Session struct {
	SubID        int64    `json:"sub_id"`
	CourseID     int64    `json:"course_id"`
	CourseName   string   `json:"course_name"`
	SubName      string   `json:"sub_name"`
	LecturerName string   `json:"lecturer_name"`
	Path         string   `json:"path"` // files are saved under Path + SubName
	PPTImageURLs []string `json:"ppt_image_urls"`
}

// PageCount returns the number of slide pages.
func (s Session) PageCount() int {
	return len(s.PPTImageURLs)
}

// HasSlides reports whether the session has a downloadable slide deck.
func (s Session) HasSlides() bool {
	return len(s.PPTImageURLs) > 0
}

// SubtitleRequest builds the subtitle request for this session.
func (s Session) SubtitleRequest() SubtitleRequest {
	return SubtitleRequest{
		SubID:      s.SubID,
		CourseName: s.CourseName,
		SubName:    s.SubName,
		Path:       s.Path,
	}
}

func SessionKey(s Session) int64 { return s.SubID }

func CourseKey(c Course) int64 { return c.CourseID }

var nameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeName turns a course or session name into a single file name segment.
func SanitizeName(name string) string {
	return strings.TrimSpace(nameReplacer.Replace(name))
}
