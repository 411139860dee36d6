package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"receipt-meal-planner/internal/planner"
	"receipt-meal-planner/internal/receipt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes the planning pipeline over HTTP. It is a thin layer: all
// domain rules live in the planner and extractor.
type Server struct {
	planner   *planner.Planner
	extractor *receipt.Extractor
	logger    *zap.Logger
}

// NewServer creates a new Server.
func NewServer(p *planner.Planner, e *receipt.Extractor, logger *zap.Logger) *Server {
	return &Server{
		planner:   p,
		extractor: e,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/requests", s.createRequest)
		apiGroup.POST("/receipts", s.scanReceipt)
		apiGroup.GET("/meal-plans/:id", s.getMealPlan)
	}

	return router
}

type createRequestBody struct {
	Ingredients []string `json:"ingredients" binding:"required"`
	PeopleCount int      `json:"people_count" binding:"required"`
}

// createRequest registers a manually entered ingredient list and returns the
// plan identifier for later generation.
func (s *Server) createRequest(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := s.planner.CreateRequest(c.Request.Context(), body.Ingredients, body.PeopleCount, planner.SourceManual)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// scanReceipt accepts a receipt image, extracts its ingredient list and
// registers a scan-sourced request.
func (s *Server) scanReceipt(c *gin.Context) {
	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing receipt file"})
		return
	}

	peopleCount := 2
	if raw := c.PostForm("people_count"); raw != "" {
		peopleCount, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid people_count"})
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable receipt file"})
		return
	}
	defer file.Close()

	document, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable receipt file"})
		return
	}

	ingredients, err := s.extractor.Extract(c.Request.Context(), document)
	if err != nil {
		s.respondError(c, err)
		return
	}

	id, err := s.planner.CreateRequest(c.Request.Context(), ingredients, peopleCount, planner.SourceScan)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "ingredients": ingredients})
}

// getMealPlan returns the plan for an id, generating and caching it on first
// request.
func (s *Server) getMealPlan(c *gin.Context) {
	doc, err := s.planner.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// respondError maps the pipeline error taxonomy to HTTP statuses. Raw model
// text never reaches the client; it is already logged for operators.
func (s *Server) respondError(c *gin.Context, err error) {
	var formatErr *planner.PlanFormatError
	var svcErr *planner.ExternalServiceError

	switch {
	case errors.Is(err, planner.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "meal plan request not found"})
	case errors.Is(err, planner.ErrEmptyGeneration), errors.As(err, &formatErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not build your plan"})
	case errors.As(err, &svcErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "a required service is unavailable"})
	default:
		s.logger.Error("unhandled pipeline error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
