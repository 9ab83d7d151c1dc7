package zhiyun

import "encoding/json"

// APIResponse is the envelope of every classroom API response.
type APIResponse struct {
	Code  int             `json:"code"`
	Msg   string          `json:"msg"`
	Total int             `json:"total"`
	List  json.RawMessage `json:"list"`
}

type SubContent struct {
	SubID        int64    `json:"sub_id"`
	CourseID     int64    `json:"course_id"`
	CourseName   string   `json:"course_name"`
	SubName      string   `json:"sub_name"`
	LecturerName string   `json:"lecturer_name"`
	PPTImageURLs []string `json:"ppt_image_urls"`
}

type CourseContent struct {
	CourseID     int64  `json:"course_id"`
	CourseName   string `json:"course_name"`
	LecturerName string `json:"lecturer_name"`
}
