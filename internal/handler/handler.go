package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/normalize"
	"mhp-content/internal/schema"
	"mhp-content/internal/service"
	"mhp-content/internal/store"
)

const pageSize = 20

// LLM is the part of the LLM service exposed over HTTP.
type LLM interface {
	GetModels(ctx context.Context) ([]string, error)
	TestConnection(ctx context.Context) (string, error)
}

type Scheduler interface {
	GetNextEmbeddingTime() time.Time
	GetNextReliabilityTime() time.Time
}

type Handler struct {
	store      store.ArticleStore
	llm        LLM
	upload     *service.UploadService
	embeddings *service.EmbeddingService
	status     *service.StatusService
	scheduler  Scheduler
	log        *logger.Logger
}

func NewHandler(st store.ArticleStore, llm LLM, embeddings *service.EmbeddingService, log *logger.Logger) *Handler {
	return &Handler{
		store:      st,
		llm:        llm,
		upload:     service.NewUploadService(st, log),
		embeddings: embeddings,
		status:     service.NewStatusService(st),
		log:        log.With("component", "handler"),
	}
}

// SetScheduler attaches the scheduler whose next run times /api/status reports.
func (h *Handler) SetScheduler(s Scheduler) {
	h.scheduler = s
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// Articles
		api.GET("/articles", h.ListArticles)
		api.GET("/articles/:slug", h.GetArticle)
		api.POST("/articles", h.SaveArticle)
		api.DELETE("/articles/:slug", h.DeleteArticle)
		api.POST("/articles/validate", h.ValidateArticle)

		// Schemas
		api.GET("/schemas/:category", h.GetSchema)

		// Search
		api.GET("/search", h.Search)

		// LLM
		api.GET("/llm/models", h.GetLLMModels)
		api.POST("/llm/test", h.TestLLMConnection)

		// Status
		api.GET("/status", h.GetStatus)
	}
}

// ===== Articles =====

func (h *Handler) ListArticles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	filter := store.Filter{NewestFirst: true}
	if v := c.Query("category"); v != "" {
		category := model.Category(v)
		if !category.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category " + v})
			return
		}
		filter.Categories = []model.Category{category}
	}
	if v := c.Query("status"); v != "" {
		status := model.Status(v)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + v})
			return
		}
		filter.Status = status
	}

	total, err := h.store.Count(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	articles, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range articles {
		stripEmbeddings(&articles[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  articles,
		"total": total,
		"page":  page,
	})
}

func (h *Handler) GetArticle(c *gin.Context) {
	article, err := h.store.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	stripEmbeddings(article)
	c.JSON(http.StatusOK, article)
}

func (h *Handler) SaveArticle(c *gin.Context) {
	var raw normalize.Raw
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	article, err := h.upload.Save(c.Request.Context(), raw)
	if err != nil {
		if ve, ok := schema.AsValidationError(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": ve.Result.Errors})
			return
		}
		if isStructural(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("save article failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stripEmbeddings(article)
	c.JSON(http.StatusOK, article)
}

func (h *Handler) DeleteArticle(c *gin.Context) {
	ctx := c.Request.Context()
	article, err := h.store.GetBySlug(ctx, c.Param("slug"))
	if err == nil {
		err = h.store.Delete(ctx, article.ID)
	}
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) ValidateArticle(c *gin.Context) {
	var raw normalize.Raw
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := service.ValidateRaw(raw)
	c.JSON(http.StatusOK, gin.H{
		"valid":  result.Valid(),
		"result": result,
	})
}

// ===== Schemas =====

func (h *Handler) GetSchema(c *gin.Context) {
	category := model.Category(c.Param("category"))
	s, err := schema.SchemaFor(category)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category":    category,
		"variant":     s.Variant,
		"required":    s.Required(),
		"additional":  s.Additional(),
		"json_schema": s.JSONSchema(category),
	})
}

// ===== Search =====

func (h *Handler) Search(c *gin.Context) {
	threshold, _ := strconv.ParseFloat(c.Query("threshold"), 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	matches, err := h.embeddings.Search(c.Request.Context(), c.Query("q"), threshold, limit)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range matches {
		stripEmbeddings(&matches[i].Article)
	}
	c.JSON(http.StatusOK, gin.H{"data": matches})
}

// ===== LLM =====

func (h *Handler) GetLLMModels(c *gin.Context) {
	models, err := h.llm.GetModels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (h *Handler) TestLLMConnection(c *gin.Context) {
	response, err := h.llm.TestConnection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "connected",
		"response": response,
	})
}

// ===== Status =====

func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.status.GetSystemStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.scheduler != nil {
		status.NextEmbeddingTime = h.scheduler.GetNextEmbeddingTime()
		status.NextReliabilityTime = h.scheduler.GetNextReliabilityTime()
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func isStructural(err error) bool {
	return errors.Is(err, schema.ErrUnknownCategory) ||
		errors.Is(err, schema.ErrMissingCategory) ||
		errors.Is(err, normalize.ErrMalformedArticle)
}

// embeddings are large and only meaningful to search
func stripEmbeddings(a *model.Article) {
	a.TitleEmbedding = nil
	a.ContentEmbedding = nil
	a.SummaryEmbedding = nil
}
