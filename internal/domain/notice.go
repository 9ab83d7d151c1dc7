package domain

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message produced at the point of an action.
type Notice struct {
	Level       NoticeLevel `json:"level"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
}
