package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exposureserver/internal/config"
	"exposureserver/internal/dto"
	"exposureserver/internal/logger"
	"exposureserver/internal/middleware"
	"exposureserver/internal/model"
	"exposureserver/internal/repository/file"
	"exposureserver/internal/service"
	"exposureserver/internal/service/feedback"
	"exposureserver/internal/service/storage"
	"exposureserver/internal/service/websocket"
)

func newTestManager(t *testing.T, ledgerPath string, opts ...func(*config.Config)) (*service.Manager, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		ImageDirectory:       filepath.Join(t.TempDir(), "annotated"),
		ArchiveBufferLimit:   5,
		ArchiveFlushInterval: 30,
		GridCols:             20,
		GridRows:             20,
		SamplingRounds:       5,
		DefaultISO:           400,
		MaxUploadMB:          1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := logger.Discard()
	store := feedback.NewStore(file.NewLedgerRepository(ledgerPath), cfg.DefaultISO, log)
	t.Cleanup(func() { store.Close() })

	m := service.NewManager(cfg, store, service.NewSessionStore(), nil,
		storage.NewBufferService(cfg, log), websocket.NewHubService(log), log)
	return m, cfg
}

func blackPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, fields map[string]string, imageData []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if imageData != nil {
		fw, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func analyze(t *testing.T, h http.Handler, fields map[string]string) dto.AnalysisResult {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, fields, blackPNG(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result dto.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func postFeedback(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeHandler_BlackImage(t *testing.T) {
	m, cfg := newTestManager(t, filepath.Join(t.TempDir(), "feedback.json"))
	h := AnalyzeHandler(m, cfg, logger.Discard())

	result := analyze(t, h, map[string]string{"aperture": "f/11"})

	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, 400, result.WithoutFilter.ISO)
	assert.Equal(t, model.Shutter250, result.WithoutFilter.ShutterSpeed)
	assert.Equal(t, 800, result.WithFilter.ISO)
	assert.Equal(t, model.ND4, result.WithFilter.NDFilter)
	assert.Equal(t, "f/11", result.WithFilter.Aperture)
	assert.Equal(t, 20, result.BrightnessMap.Cols)
	assert.True(t, strings.HasPrefix(result.HighlightImage, "data:image/png;base64,"))
}

func TestAnalyzeHandler_Errors(t *testing.T) {
	m, cfg := newTestManager(t, filepath.Join(t.TempDir(), "feedback.json"))
	h := AnalyzeHandler(m, cfg, logger.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, map[string]string{"aperture": "f/8"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, nil, []byte("plain text")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, nil, bytes.Repeat([]byte{0}, 2<<20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeHandler_PixelBudget(t *testing.T) {
	m, cfg := newTestManager(t, filepath.Join(t.TempDir(), "feedback.json"), func(c *config.Config) {
		c.MaxImagePixels = 1000
	})
	h := AnalyzeHandler(m, cfg, logger.Discard())

	// blackPNG is 40x30 = 1200 pixels
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartRequest(t, nil, blackPNG(t)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, m.GetSessions().Len())
}

func TestFeedbackHandlers_Flow(t *testing.T) {
	m, cfg := newTestManager(t, filepath.Join(t.TempDir(), "feedback.json"))
	log := logger.Discard()
	analyzeH := AnalyzeHandler(m, cfg, log)
	feedbackH := SubmitFeedbackHandler(m, log)
	summaryH := FeedbackSummaryHandler(m, log)

	rec := postFeedback(feedbackH, `{"session_id":"nope","iso":800,"shutter_speed":"1/125s","nd_filter":"ND8"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	session := analyze(t, analyzeH, nil).SessionID

	rec = postFeedback(feedbackH, `{"session_id":"`+session+`","iso":99999,"shutter_speed":"1/125s","nd_filter":"ND8"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "iso")

	rec = postFeedback(feedbackH, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postFeedback(feedbackH, `{"session_id":"`+session+`","iso":800,"shutter_speed":"1/125s","nd_filter":"ND8"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = postFeedback(feedbackH, `{"session_id":"`+session+`","iso":800,"shutter_speed":"1/125s","nd_filter":"ND8"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	summaryH.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feedback/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var summary dto.FeedbackSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, dto.FeedbackSummary{Count: 1, AverageISO: 800}, summary)

	next := analyze(t, analyzeH, map[string]string{"session": session})
	assert.Equal(t, session, next.SessionID)
	assert.Equal(t, 800, next.WithoutFilter.ISO)
}

func TestFeedbackHandler_PersistenceFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	m, cfg := newTestManager(t, filepath.Join(blocker, "feedback.json"))
	log := logger.Discard()

	result := analyze(t, AnalyzeHandler(m, cfg, log), nil)
	assert.NotEmpty(t, result.Notices)
	assert.Equal(t, 400, result.WithoutFilter.ISO)

	rec := postFeedback(SubmitFeedbackHandler(m, log),
		`{"session_id":"`+result.SessionID+`","iso":800,"shutter_speed":"1/125s","nd_filter":"ND8"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not be saved")
}

func TestAnnotatedHandlers(t *testing.T) {
	m, cfg := newTestManager(t, filepath.Join(t.TempDir(), "feedback.json"))
	log := logger.Discard()

	analyze(t, AnalyzeHandler(m, cfg, log), nil)
	require.Equal(t, 1, m.GetBufferService().FlushImages())

	rec := httptest.NewRecorder()
	ListAnnotatedHandler(m, log).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/annotated", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.AnnotatedList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Images, 1)
	assert.Equal(t, "nd4", list.Images[0].NDFilter)

	rec = httptest.NewRecorder()
	ViewAnnotatedHandler(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/annotated/view?image="+list.Images[0].Name, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)

	rec = httptest.NewRecorder()
	ViewAnnotatedHandler(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/annotated/view?image=../../etc/passwd", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	ViewAnnotatedHandler(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/annotated/view", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	ClearAnnotatedHandler(m, log).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/annotated/clear", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLogsHandlers(t *testing.T) {
	tempDir := t.TempDir()
	l := logger.NewLogger(&config.Config{LogDirectory: tempDir})
	l.Error("something broke")

	rec := httptest.NewRecorder()
	ShowLogsHandler(l, logger.ErrorFile).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/error", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "something broke")

	rec = httptest.NewRecorder()
	ClearLogsHandler(l, logger.ErrorFile).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs/error/clear", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	ShowLogsHandler(logger.Discard(), logger.InfoFile).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/info", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	cfg := &config.Config{Password: "secret"}
	tokens := service.NewAuthTokens(time.Hour)
	h := LoginHandler(cfg, tokens, logger.Discard())

	form := func(pw string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("password="+pw))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, form("wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, form("secret"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0].Value
	assert.NotEqual(t, "true", token)
	assert.True(t, tokens.Valid(token))

	logout := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	logout.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})
	rec = httptest.NewRecorder()
	LogoutHandler(tokens).ServeHTTP(rec, logout)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, tokens.Valid(token), "logout revokes the token")
}

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
	}

	for _, tt := range tests {
		if result := atoiDefault(tt.input, tt.def); result != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, result, tt.expected)
		}
	}
}

