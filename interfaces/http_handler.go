package interfaces

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"interview-prep/domain"
	"interview-prep/infrastructure"
	"interview-prep/usecase"
)

const (
	maxResumeSize  = 10 << 20
	serviceName    = "interview-prep"
	serviceVersion = "1.0.0"
)

// Submitter accepts a validated submission and starts its background run.
type Submitter interface {
	Submit(ctx context.Context, in usecase.SubmitInput) (string, error)
}

type HTTPHandler struct {
	Submitter Submitter
	Tracker   domain.Tracker
	Repo      domain.InterviewRepository
	Log       logrus.FieldLogger
}

func NewHTTPHandler(router *gin.Engine, submitter Submitter, tracker domain.Tracker, repo domain.InterviewRepository, log logrus.FieldLogger) {
	h := &HTTPHandler{Submitter: submitter, Tracker: tracker, Repo: repo, Log: log}

	router.GET("/health", h.Health)

	api := router.Group("/api/interview")
	api.POST("/generate", h.Generate)
	api.GET("/status/:id", h.GetStatus)
	api.GET("/history", h.GetHistory)
	api.GET("/:id", h.GetInterviewPrep)
	api.DELETE("/:id", h.DeleteInterviewPrep)
}

// Generate validates the upload, registers a run and returns its id before any stage executes.
func (h *HTTPHandler) Generate(c *gin.Context) {
	header, err := c.FormFile("resume")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resume file is required"})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !infrastructure.AllowedResumeMimeTypes[mimeType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only Word documents (.doc or .docx) are allowed"})
		return
	}
	if header.Size > maxResumeSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resume file must be 10MB or smaller"})
		return
	}

	jobURL := strings.TrimSpace(c.PostForm("jobUrl"))
	if jobURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job posting URL is required"})
		return
	}
	linkedinURL := strings.TrimSpace(c.PostForm("linkedinUrl"))

	file, err := header.Open()
	if err != nil {
		h.Log.WithError(err).Error("failed to open resume upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process interview preparation request"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxResumeSize+1))
	if err != nil {
		h.Log.WithError(err).Error("failed to read resume upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process interview preparation request"})
		return
	}
	if len(data) > maxResumeSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resume file must be 10MB or smaller"})
		return
	}

	id, err := h.Submitter.Submit(c.Request.Context(), usecase.SubmitInput{
		JobURL:      jobURL,
		LinkedinURL: linkedinURL,
		Document:    data,
		MimeType:    mimeType,
		Filename:    header.Filename,
	})
	if err != nil {
		h.Log.WithError(err).Error("error generating interview prep")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process interview preparation request"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":      id,
		"message": "Interview preparation in progress. Use the provided ID to check status.",
	})
}

func (h *HTTPHandler) GetStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	run, err := h.Tracker.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interview preparation request not found"})
		return
	}
	if err != nil {
		h.Log.WithError(err).WithField("run_id", id).Error("error getting interview status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get interview preparation status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   run.Status,
		"progress": run.Progress,
		"result":   run.Result,
		"error":    run.Error,
	})
}

// GetHistory lists recent preps. A store failure yields an empty list, and expired rows
// are cleaned up in the background after every listing.
func (h *HTTPHandler) GetHistory(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := h.Repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.Log.WithError(err).Error("error getting recent interview preps")
		history = []domain.InterviewPrepSummary{}
	}

	go func() {
		n, err := h.Repo.DeleteExpired(context.Background())
		if err != nil {
			h.Log.WithError(err).Error("error cleaning up expired interview preps")
			return
		}
		if n > 0 {
			h.Log.WithField("deleted", n).Info("expired interview preps removed")
		}
	}()

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *HTTPHandler) GetInterviewPrep(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	prep, err := h.Repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interview preparation not found"})
		return
	}
	if err != nil {
		h.Log.WithError(err).WithField("run_id", id).Error("error getting interview prep")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get interview preparation"})
		return
	}

	c.JSON(http.StatusOK, prep)
}

func (h *HTTPHandler) DeleteInterviewPrep(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		h.Log.WithError(err).WithField("run_id", id).Error("error deleting interview prep")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete interview preparation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Interview preparation deleted"})
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}
