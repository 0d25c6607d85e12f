package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/david/scholarhub/internal/ingest"
	"github.com/david/scholarhub/internal/storage"
)

const (
	importJobTimeout = 30 * time.Minute
	recentRunsLimit  = 20
)

type backgroundJob struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Status    string             `json:"status"` // running, completed, failed
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at,omitempty"`
	Result    any                `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancel    context.CancelFunc `json:"-"`
}

func (s *Server) handleUpload(c echo.Context) error {
	if s.uploader == nil {
		return unavailable(c, "image storage")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return validationFailed(c, map[string]string{"file": "is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid upload"})
	}
	defer f.Close()

	url, err := s.uploader.Upload(c.Request().Context(), c.FormValue("folder"), f)
	if errors.Is(err, storage.ErrNotImage) {
		return validationFailed(c, map[string]string{"file": err.Error()})
	}
	if err != nil {
		s.logger.Error("image upload failed", "file", fh.Filename, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}

type sourceView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Country  string `json:"country,omitempty"`
	BaseURL  string `json:"base_url"`
	MaxPages int    `json:"max_pages"`
}

func (s *Server) handleImportSources(c echo.Context) error {
	if s.importer == nil {
		return unavailable(c, "importer")
	}
	sources := s.importer.Sources()
	out := make([]sourceView, len(sources))
	for i, src := range sources {
		out[i] = sourceView{
			ID:       src.ID,
			Name:     src.Name,
			Type:     string(src.Type),
			Country:  src.Country,
			BaseURL:  src.BaseURL,
			MaxPages: src.MaxPages,
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleImportRuns(c echo.Context) error {
	runs, err := s.store.RecentImportRuns(c.Request().Context(), recentRunsLimit)
	if err != nil {
		return s.storeError(c, "import runs", err)
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) knownSource(id string) bool {
	for _, src := range s.importer.Sources() {
		if src.ID == id {
			return true
		}
	}
	return false
}

// handleImport starts an import of one source in the background. Only one
// job runs at a time.
func (s *Server) handleImport(c echo.Context) error {
	if s.importer == nil {
		return unavailable(c, "importer")
	}
	sourceID := c.Param("source")
	if !s.knownSource(sourceID) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown import source: " + sourceID})
	}

	s.jobMu.Lock()
	if s.runningJob != nil && s.runningJob.Status == "running" {
		job := s.runningJob
		s.jobMu.Unlock()
		return c.JSON(http.StatusConflict, map[string]any{
			"error":  "An import job is already running",
			"job_id": job.ID,
		})
	}

	jobCtx, jobCancel := context.WithTimeout(
		context.WithoutCancel(c.Request().Context()), importJobTimeout,
	)

	jobID := uuid.New().String()[:8]
	job := &backgroundJob{
		ID:        jobID,
		Kind:      "import:" + sourceID,
		Status:    "running",
		StartedAt: time.Now(),
		Cancel:    jobCancel,
	}
	s.runningJob = job
	s.jobMu.Unlock()

	go func() {
		defer jobCancel()
		res, err := s.importer.Import(jobCtx, sourceID)

		s.jobMu.Lock()
		job.EndedAt = time.Now()
		if res != nil {
			job.Result = res
		}
		if err != nil {
			job.Status = "failed"
			job.Error = err.Error()
		} else {
			job.Status = "completed"
		}
		s.jobMu.Unlock()

		if err != nil {
			s.logger.Error("import job failed", "job", jobID, "source", sourceID, "error", err)
			return
		}
		s.logger.Info("import job completed", "job", jobID, "source", sourceID, "status", res.Status, "saved", res.Stats.Saved)
	}()

	return c.JSON(http.StatusAccepted, map[string]any{
		"message": "Import job started",
		"job_id":  jobID,
		"poll":    fmt.Sprintf("/api/v1/admin/job/%s", jobID),
	})
}

func (s *Server) handleJobStatus(c echo.Context) error {
	queried := c.Param("id")

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	job := s.runningJob
	if job == nil || job.ID != queried {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	resp := map[string]any{
		"id":         job.ID,
		"kind":       job.Kind,
		"status":     job.Status,
		"started_at": job.StartedAt,
	}
	if !job.EndedAt.IsZero() {
		resp["ended_at"] = job.EndedAt
		resp["duration"] = job.EndedAt.Sub(job.StartedAt).String()
	}
	if job.Result != nil {
		resp["result"] = job.Result
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	return c.JSON(http.StatusOK, resp)
}

var _ Importer = (*ingest.Importer)(nil)
