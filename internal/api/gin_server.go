package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"doc-bridge/internal/doc_translator"
	"doc-bridge/internal/segment"
	"doc-bridge/internal/services"
	"doc-bridge/internal/sse"
	"doc-bridge/pkg/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options tunes request limits of the HTTP layer.
type Options struct {
	MaxUploadBytes int64
	JobTimeout     time.Duration
}

type GinServer struct {
	router   *gin.Engine
	logger   *zap.Logger
	services *services.Services
	sseHub   *sse.Hub
	opts     Options
	stop     chan struct{}
}

func NewGinServer(logger *zap.Logger, services *services.Services, opts Options) *GinServer {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 100000
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 10 * time.Minute
	}

	router := gin.Default()
	router.Use(GinLogger(logger))

	// Initialize SSE Hub
	sseHub := sse.NewHub(5 * time.Minute)
	stop := make(chan struct{})
	go sseHub.Run(stop)

	server := &GinServer{
		router:   router,
		logger:   logger,
		services: services,
		sseHub:   sseHub,
		opts:     opts,
		stop:     stop,
	}
	server.SetupRoutes()
	return server
}

// GetRouter returns the Gin router
func (s *GinServer) GetRouter() *gin.Engine {
	return s.router
}

// Close stops background work of the server.
func (s *GinServer) Close() {
	close(s.stop)
}

func (s *GinServer) SetupRoutes() {
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	s.router.GET("/health", s.HealthCheck)

	api := s.router.Group("/api/translate")
	api.POST("/segments", s.BuildSegments)
	api.POST("/text", s.TranslateText)

	docs := api.Group("/documents")
	docs.GET("", s.ListDocuments)
	docs.POST("/translate", s.TranslateDocument)
	docs.GET("/:id", s.DownloadDocument)
	docs.DELETE("", s.DeleteDocuments)

	api.POST("/jobs", s.CreateJob)
	api.GET("/jobs/:id/stream", s.StreamHandler)
}

// GinLogger returns a gin middleware for logging using zap
func GinLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// HealthCheck godoc
// @Summary Health check endpoint
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *GinServer) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "healthy",
		"service": "docbridge-api",
	})
}

// writeError maps core errors onto HTTP statuses.
func (s *GinServer) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrAuth), errors.Is(err, types.ErrProvider):
		status = http.StatusBadGateway
	case doc_translator.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// readUpload returns the content and name of the multipart part "file".
func (s *GinServer) readUpload(c *gin.Context) ([]byte, string, int, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", http.StatusBadRequest, errors.New("no file uploaded")
	}
	if fh.Size > s.opts.MaxUploadBytes {
		return nil, "", http.StatusRequestEntityTooLarge,
			fmt.Errorf("file is %d bytes, limit is %d", fh.Size, s.opts.MaxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", http.StatusBadRequest, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, "", http.StatusBadRequest, err
	}
	return data, fh.Filename, 0, nil
}

// BuildSegments segments an upload without translating it.
// @Summary Dry-run segmentation and character count
// @Accept multipart/form-data
// @Produce json
// @Router /api/translate/segments [post]
func (s *GinServer) BuildSegments(c *gin.Context) {
	data, _, status, err := s.readUpload(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	res := s.services.DocTranslatorService.BuildSegments(data)
	c.JSON(http.StatusOK, gin.H{
		"totalCharLength": res.TotalCharLength,
		"batches":         res.Boundaries() + 1,
		"segments":        res.Segments,
		"text":            segment.Join(res.Rebuild()),
	})
}

// TranslateText translates inline text and returns it synchronously.
// @Summary Translate plain text
// @Accept json
// @Produce json
// @Param request body types.TextTranslateRequest true "Translation request"
// @Router /api/translate/text [post]
func (s *GinServer) TranslateText(c *gin.Context) {
	var req types.TextTranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.services.DocTranslatorService.Translate(c.Request.Context(), []byte(req.Text), req.FromLanguage, req.ToLanguage, nil)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalCharLength": res.TotalCharLength,
		"lines":           res.Lines,
		"text":            res.Text(),
	})
}

// TranslateDocument translates an uploaded file and stores the result
// @Summary Translate and save a plain text document
// @Accept multipart/form-data
// @Produce json
// @Router /api/translate/documents/translate [post]
func (s *GinServer) TranslateDocument(c *gin.Context) {
	var req types.TranslateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, name, status, err := s.readUpload(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("translation request",
		zap.String("owner", req.Owner),
		zap.String("from", req.FromLanguage),
		zap.String("to", req.ToLanguage),
		zap.Int("bytes", len(data)),
	)

	docs := s.services.DocumentService
	if _, err := docs.TranslateAndSave(c.Request.Context(), req.Owner, name, data, req.FromLanguage, req.ToLanguage, nil); err != nil {
		s.writeError(c, err)
		return
	}
	files, err := docs.List(c.Request.Context(), req.Owner)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"translatedFiles": files})
}

// ListDocuments returns the owner's translated files
func (s *GinServer) ListDocuments(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner is required"})
		return
	}
	files, err := s.services.DocumentService.List(c.Request.Context(), owner)
	if err != nil {
		s.writeError(c, err)
		return
	}
	msg := "user has no files"
	if len(files) > 0 {
		msg = "user has files"
	}
	c.JSON(http.StatusOK, gin.H{"msg": msg, "translatedFiles": files})
}

// DownloadDocument sends a stored file as an attachment
func (s *GinServer) DownloadDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}
	doc, err := s.services.DocumentService.Download(c.Request.Context(), c.Query("owner"), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// DeleteDocuments removes files and returns what is left
func (s *GinServer) DeleteDocuments(c *gin.Context) {
	var req types.DeleteDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	files, err := s.services.DocumentService.Delete(c.Request.Context(), req.Owner, req.IDs)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "files deleted", "translatedFiles": files})
}

// CreateJob starts a background translation and returns its stream id
// @Summary Translate a document asynchronously with progress via SSE
// @Accept multipart/form-data
// @Produce json
// @Router /api/translate/jobs [post]
func (s *GinServer) CreateJob(c *gin.Context) {
	var req types.TranslateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, name, status, err := s.readUpload(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	// create job id
	id := fmt.Sprintf("job-%d", time.Now().UnixNano())
	s.sseHub.Create(id)

	s.logger.Info("translation job created", zap.String("id", id))
	c.JSON(http.StatusAccepted, gin.H{"id": id})

	go s.runJob(id, req, name, data)
}

func (s *GinServer) runJob(id string, req types.TranslateRequest, name string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()

	s.logger.Info("starting translation", zap.String("id", id))

	doc, err := s.services.DocumentService.TranslateAndSave(ctx, req.Owner, name, data, req.FromLanguage, req.ToLanguage,
		func(p doc_translator.Progress) {
			_ = s.sseHub.Send(id, sse.Event{Type: sse.EventProgress, Data: p})
		})
	if err != nil {
		s.logger.Error("translation error", zap.String("id", id), zap.Error(err))
		_ = s.sseHub.Send(id, sse.Event{Type: sse.EventError, Data: err.Error()})
	} else {
		_ = s.sseHub.Send(id, sse.Event{Type: sse.EventResult, Data: types.TranslatedFile{
			ID:           doc.ID,
			Name:         doc.FileName,
			FromLanguage: doc.LangFrom,
			ToLanguage:   doc.LangTo,
		}})
	}
	// Always signal end, even on error
	_ = s.sseHub.Send(id, sse.Event{Type: sse.EventDone})
	s.logger.Info("translation job finished", zap.String("id", id))
}

// StreamHandler attaches client to SSE stream
func (s *GinServer) StreamHandler(c *gin.Context) {
	id := c.Param("id")

	client, ok := s.sseHub.AddClient(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	defer s.sseHub.RemoveClient(id, client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		s.logger.Error("streaming not supported")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// the stream lives as long as the job, not the server's write timeout
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	// Send initial connection message to establish the stream
	fmt.Fprintf(c.Writer, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case msg := <-client.Ch:
			fmt.Fprintf(c.Writer, "data: %s\n\n", msg)
			flusher.Flush()

			if isDone(msg) {
				return
			}
		case <-c.Request.Context().Done():
			s.logger.Info("client context cancelled", zap.String("id", id))
			return
		}
	}
}

func isDone(msg string) bool {
	return msg == `{"type":"`+sse.EventDone+`"}`
}
