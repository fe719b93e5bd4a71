package service

import (
	"fmt"
	"strings"

	"exposureserver/internal/config"
	"exposureserver/internal/dto"
	"exposureserver/internal/logger"
	"exposureserver/internal/service/exposure"
	"exposureserver/internal/service/feedback"
	"exposureserver/internal/service/imaging"
	"exposureserver/internal/service/storage"
	"exposureserver/internal/service/websocket"
)

// SceneLabeler names the objects in an encoded photograph.
type SceneLabeler interface {
	Label(imageBytes []byte) ([]string, error)
}

// Manager orchestrates one analysis and the feedback that follows it.
type Manager struct {
	aggregator       exposure.Aggregator
	maxPixels        int
	feedbackStore    *feedback.Store
	sessions         *SessionStore
	labeler          SceneLabeler
	bufferService    *storage.BufferService
	websocketService *websocket.HubService
	logger           *logger.Logger
}

// NewManager wires the analysis pipeline. labeler, bufferService and
// websocketService are optional.
func NewManager(config *config.Config, feedbackStore *feedback.Store, sessions *SessionStore, labeler SceneLabeler,
	bufferService *storage.BufferService, websocketService *websocket.HubService, logger *logger.Logger) *Manager {
	sampler := exposure.NewSampler(config.GridCols, config.GridRows)
	if config.GridCols < 1 || config.GridRows < 1 {
		sampler = exposure.Sampler{Grid: exposure.DefaultGrid()}
	}

	manager := &Manager{
		aggregator:       exposure.NewAggregator(sampler, config.SamplingRounds),
		maxPixels:        config.MaxImagePixels,
		feedbackStore:    feedbackStore,
		sessions:         sessions,
		labeler:          labeler,
		bufferService:    bufferService,
		websocketService: websocketService,
		logger:           logger,
	}

	manager.logger.Info("🎬 Manager started - %dx%d grid, %d sampling rounds",
		sampler.Grid.Cols, sampler.Grid.Rows, manager.aggregator.Rounds)
	return manager
}

// Analyze measures one uploaded photograph and recommends settings for it.
// An empty or unknown sessionID starts a new session. Errors wrapping
// exposure.ErrInvalidImage mean the upload could not be analyzed at all.
func (m *Manager) Analyze(data []byte, aperture, sessionID string) (*dto.AnalysisResult, error) {
	decoded, err := imaging.DecodeWithLimit(data, m.maxPixels)
	if err != nil {
		return nil, err
	}
	img := decoded.Image

	stats, brightness, err := m.aggregator.Aggregate(img)
	if err != nil {
		return nil, err
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", exposure.ErrInvalidImage, err)
	}

	avgColor, err := exposure.SummarizeColor(img)
	if err != nil {
		return nil, err
	}

	var notices []string
	baseline, err := m.feedbackStore.AverageISO()
	if err != nil {
		notices = append(notices, fmt.Sprintf("Feedback history is unavailable; using the default ISO %d.", baseline))
	}

	rec := exposure.Recommend(exposure.PolicyInput{
		Stats:         stats,
		Color:         avgColor,
		FixedAperture: strings.TrimSpace(aperture),
		BaselineISO:   baseline,
	})

	overlay, err := exposure.RenderHighlights(img, brightness)
	if err != nil {
		return nil, fmt.Errorf("failed to render highlights: %w", err)
	}
	overlayPNG, err := imaging.EncodePNG(overlay)
	if err != nil {
		return nil, fmt.Errorf("failed to encode highlights: %w", err)
	}

	var labels []string
	if m.labeler != nil {
		labels, err = m.labeler.Label(data)
		if err != nil {
			m.logger.Warning("Scene labeling failed: %v", err)
			labels = nil
		}
	}

	session := m.sessions.GetOrCreate(sessionID)
	if err := m.sessions.RecordAnalysis(session.ID, rec); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	result := &dto.AnalysisResult{
		SessionID:      session.ID,
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		Format:         decoded.Format,
		Statistics:     stats,
		BrightnessMap:  brightness,
		Color:          avgColor,
		BaselineISO:    baseline,
		WithoutFilter:  rec.WithoutFilter,
		WithFilter:     rec.WithFilter,
		HighlightImage: imaging.DataURI(overlayPNG),
		Labels:         labels,
		Notices:        notices,
	}

	m.logger.Info("📷 Session %s: %dx%d %s, mean %.3f, stddev %.3f -> %s, ISO %d",
		session.ID, result.Width, result.Height, decoded.Format, stats.Mean, stats.StdDev,
		rec.WithFilter.NDFilter, baseline)

	if m.bufferService != nil {
		m.bufferService.AddImage(overlayPNG, session.ID, string(rec.WithFilter.NDFilter))
	}
	m.sendToViewers(result)

	return result, nil
}

// sendToViewers publishes a short summary of the analysis on the live feed.
func (m *Manager) sendToViewers(result *dto.AnalysisResult) {
	if m.websocketService == nil {
		return
	}
	err := m.websocketService.BroadcastJSON(dto.FeedMessage{
		SessionID:      result.SessionID,
		Mean:           result.Statistics.Mean,
		StdDev:         result.Statistics.StdDev,
		NDFilter:       string(result.WithFilter.NDFilter),
		WhiteBalance:   string(result.WithFilter.WhiteBalance),
		ISO:            result.WithoutFilter.ISO,
		HighlightImage: result.HighlightImage,
	})
	if err != nil {
		m.logger.Error("Failed to encode feed message: %v", err)
	}
}

// SubmitFeedback stores the settings a user actually shot with. Each
// analysis accepts at most one submission; a failed write can be retried.
func (m *Manager) SubmitFeedback(req dto.FeedbackRequest) error {
	if req.SessionID == "" {
		return ErrUnknownSession
	}
	rec := req.Record()
	if err := feedback.Validate(rec); err != nil {
		return err
	}

	if err := m.sessions.BeginFeedback(req.SessionID); err != nil {
		return err
	}
	if err := m.feedbackStore.Append(rec); err != nil {
		m.sessions.Release(req.SessionID)
		return err
	}
	return nil
}

// FeedbackSummary reports the ledger size and the learned ISO baseline.
func (m *Manager) FeedbackSummary() (dto.FeedbackSummary, error) {
	count, err := m.feedbackStore.Count()
	if err != nil {
		return dto.FeedbackSummary{}, err
	}
	iso, err := m.feedbackStore.AverageISO()
	if err != nil {
		return dto.FeedbackSummary{}, err
	}
	return dto.FeedbackSummary{Count: count, AverageISO: iso}, nil
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetBufferService() *storage.BufferService {
	return m.bufferService
}

func (m *Manager) GetSessions() *SessionStore {
	return m.sessions
}
