package dto

// FeedMessage is broadcast to websocket viewers after each analysis.
type FeedMessage struct {
	SessionID      string  `json:"session_id"`
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"stddev"`
	NDFilter       string  `json:"nd_filter"`
	WhiteBalance   string  `json:"white_balance"`
	ISO            int     `json:"iso"`
	HighlightImage string  `json:"image"`
}
