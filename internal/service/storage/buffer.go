package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"exposureserver/internal/config"
	"exposureserver/internal/dto"
	"exposureserver/internal/logger"
)

const (
	// DefaultBufferLimit limits how many images per session are buffered before flushing.
	DefaultBufferLimit = 7
	// DefaultFlushInterval defines how often (seconds) buffered images are flushed to disk.
	DefaultFlushInterval = 30

	timestampLayout = "2006-01-02_15-04_05.000"
)

// ErrNotFound is returned for archive names that do not exist or are not archive files.
var ErrNotFound = errors.New("annotated image not found")

// BufferService buffers highlight images in memory and periodically flushes them to disk.
type BufferService struct {
	imagesDir     string
	limit         int
	flushInterval time.Duration
	images        []dto.AnnotatedImage
	bufferCount   map[string]int
	mu            sync.Mutex
	logger        *logger.Logger
}

// NewBufferService creates a new BufferService with the target directory and logger.
func NewBufferService(config *config.Config, logger *logger.Logger) *BufferService {
	limit := config.ArchiveBufferLimit
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	interval := config.ArchiveFlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &BufferService{
		imagesDir:     config.ImageDirectory,
		limit:         limit,
		flushInterval: time.Duration(interval) * time.Second,
		images:        make([]dto.AnnotatedImage, 0),
		bufferCount:   make(map[string]int),
		logger:        logger,
	}
}

// Dir returns the archive directory.
func (s *BufferService) Dir() string {
	return s.imagesDir
}

// Run flushes the buffer on every tick until ctx is done, then flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.FlushImages()
		case <-ctx.Done():
			s.FlushImages()
			return
		}
	}
}

// AddImage appends a highlight PNG to the buffer. Images beyond the
// per-session limit are dropped until the next flush.
func (s *BufferService) AddImage(imageData []byte, sessionID, ndFilter string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bufferCount[sessionID] >= s.limit {
		s.logger.Warning("Archive buffer full for session %s, dropping image", sessionID)
		return false
	}

	s.images = append(s.images, dto.AnnotatedImage{
		Timestamp: time.Now().Format(timestampLayout),
		SessionID: sessionID,
		NDFilter:  ndFilter,
		Data:      imageData,
	})
	s.bufferCount[sessionID]++
	s.logger.Info("Archive buffer for session %s: %d/%d", sessionID, s.bufferCount[sessionID], s.limit)
	return true
}

// Pending returns the number of buffered images.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// FlushImages writes buffered images to disk and resets the buffer and per-session counters.
func (s *BufferService) FlushImages() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.images) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, image := range s.images {
		filename := archiveName(image)
		if err := os.WriteFile(filepath.Join(s.imagesDir, filename), image.Data, 0644); err != nil {
			s.logger.Error("Error saving image %s: %v", filename, err)
			continue
		}
		savedCount++
	}

	s.logger.Info("Flushed %d annotated images to disk", savedCount)
	s.images = s.images[:0]
	s.bufferCount = make(map[string]int)
	return savedCount
}

// List returns one page of archived images, newest first.
func (s *BufferService) List(page, limit int) (dto.AnnotatedList, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 24
	}

	files, err := os.ReadDir(s.imagesDir)
	if err != nil && !os.IsNotExist(err) {
		return dto.AnnotatedList{}, fmt.Errorf("failed to read archive directory: %w", err)
	}

	infos := make([]dto.AnnotatedInfo, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".png" {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		ts, session, nd, err := ParseArchiveName(file.Name())
		if err != nil {
			s.logger.Warning("Skipping %s: %v", file.Name(), err)
			continue
		}
		infos = append(infos, dto.AnnotatedInfo{
			Name:      file.Name(),
			SessionID: session,
			NDFilter:  nd,
			Date:      ts,
			Size:      info.Size(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Date.After(infos[j].Date)
	})

	start := (page - 1) * limit
	end := start + limit
	if start > len(infos) {
		start = len(infos)
	}
	if end > len(infos) {
		end = len(infos)
	}

	return dto.AnnotatedList{
		Images:      infos[start:end],
		Length:      len(infos),
		TotalPages:  (len(infos) + limit - 1) / limit,
		CurrentPage: page,
		Limit:       limit,
	}, nil
}

// Path resolves an archive file name inside the archive directory.
func (s *BufferService) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || filepath.Ext(name) != ".png" {
		return "", ErrNotFound
	}
	path := filepath.Join(s.imagesDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// Clear deletes every archived image and drops the buffer.
func (s *BufferService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.images = s.images[:0]
	s.bufferCount = make(map[string]int)

	files, err := os.ReadDir(s.imagesDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read archive directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".png" {
			continue
		}
		if err := os.Remove(filepath.Join(s.imagesDir, file.Name())); err != nil {
			s.logger.Error("Error deleting file %s: %v", file.Name(), err)
		}
	}

	s.logger.Info("All annotated images cleared from directory: %s", s.imagesDir)
	return nil
}

// archiveName builds "<timestamp>_<session>_<ndfilter>.png".
func archiveName(image dto.AnnotatedImage) string {
	return fmt.Sprintf("%s_%s_%s.png", image.Timestamp, sanitize(image.SessionID), sanitize(image.NDFilter))
}

// ParseArchiveName extracts timestamp, session and filter from an archive file name.
func ParseArchiveName(name string) (time.Time, string, string, error) {
	base := strings.TrimSuffix(name, ".png")
	parts := strings.Split(base, "_")
	if len(parts) != 5 {
		return time.Time{}, "", "", fmt.Errorf("unexpected archive name %q", name)
	}

	ts, err := time.ParseInLocation(timestampLayout, strings.Join(parts[:3], "_"), time.Local)
	if err != nil {
		return time.Time{}, "", "", fmt.Errorf("invalid timestamp in %q: %w", name, err)
	}
	return ts, parts[3], parts[4], nil
}

// sanitize keeps file names portable; "Ingen/None" becomes "none".
func sanitize(s string) string {
	if s == "" {
		return "unknown"
	}
	if strings.Contains(s, "/") {
		s = s[strings.LastIndex(s, "/")+1:]
	}
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
