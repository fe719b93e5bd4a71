package model

// Shutter speeds offered by the recommendation policy and the feedback form.
const (
	Shutter1000 = "1/1000s"
	Shutter500  = "1/500s"
	Shutter250  = "1/250s"
	Shutter125  = "1/125s"
	Shutter60   = "1/60s"
)

// NDFilter names a neutral-density filter strength.
type NDFilter string

const (
	NDNone NDFilter = "Ingen/None"
	ND4    NDFilter = "ND4"
	ND8    NDFilter = "ND8"
	ND16   NDFilter = "ND16"
	ND32   NDFilter = "ND32"
	ND64   NDFilter = "ND64"
)

// WhiteBalance is a color-temperature preset.
type WhiteBalance string

const (
	WhiteBalanceDaylight WhiteBalance = "Daylight"
	WhiteBalanceDusk     WhiteBalance = "Dusk"
	WhiteBalanceSunset   WhiteBalance = "Sunset"
	WhiteBalanceAuto     WhiteBalance = "Auto"
)

// DefaultAperture is used when the camera has no fixed aperture.
const DefaultAperture = "f/5.6"

// RecommendationSet is one complete group of camera settings.
type RecommendationSet struct {
	ISO          int          `json:"iso"`
	ShutterSpeed string       `json:"shutter_speed"`
	Aperture     string       `json:"aperture"`
	WhiteBalance WhiteBalance `json:"white_balance"`
	NDFilter     NDFilter     `json:"nd_filter"`
}
