package dto

import "time"

// AnnotatedImage is a highlight PNG waiting in the archive buffer.
type AnnotatedImage struct {
	Timestamp string
	SessionID string
	NDFilter  string
	Data      []byte
}

// AnnotatedInfo describes one archived highlight image.
type AnnotatedInfo struct {
	Name      string    `json:"name"`
	SessionID string    `json:"session_id"`
	NDFilter  string    `json:"nd_filter"`
	Date      time.Time `json:"date"`
	Size      int64     `json:"size"`
}

// AnnotatedList is the response of GET /api/annotated.
type AnnotatedList struct {
	Images      []AnnotatedInfo `json:"images"`
	Length      int             `json:"length"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Limit       int             `json:"limit"`
}
