package dto

import (
	"exposureserver/internal/model"
	"exposureserver/internal/service/exposure"
)

// AnalysisResult is the response of POST /api/analyze.
type AnalysisResult struct {
	SessionID      string                  `json:"session_id"`
	Width          int                     `json:"width"`
	Height         int                     `json:"height"`
	Format         string                  `json:"format"`
	Statistics     exposure.Statistics     `json:"statistics"`
	BrightnessMap  exposure.BrightnessMap  `json:"brightness_map"`
	Color          exposure.RGB            `json:"color"`
	BaselineISO    int                     `json:"baseline_iso"`
	WithoutFilter  model.RecommendationSet `json:"without_filter"`
	WithFilter     model.RecommendationSet `json:"with_filter"`
	HighlightImage string                  `json:"highlight_image"`
	Labels         []string                `json:"labels,omitempty"`
	Notices        []string                `json:"notices,omitempty"`
}
