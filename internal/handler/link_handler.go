package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/trimlink/trimlink/internal/errors"
	"github.com/trimlink/trimlink/internal/model"
	"github.com/trimlink/trimlink/internal/utils"
)

// LinkService - то, что хэндлеру нужно от сервисного слоя
type LinkService interface {
	CreateLink(ctx context.Context, req *model.CreateLinkRequest) (*model.LinkResponse, error)
	GetLink(ctx context.Context, code string) (*model.LinkResponse, error)
	ListLinks(ctx context.Context, search string) ([]*model.LinkResponse, error)
	DeleteLink(ctx context.Context, code string) error
	ResolveAndRecordClick(ctx context.Context, code string) (*model.Link, error)
}

// Зарезервированные имена путей: инфраструктурные запросы, которые нельзя
// трактовать как коды. Отклоняются до обращения к хранилищу.
var reservedPaths = map[string]bool{
	"favicon.ico": true,
	"robots.txt":  true,
}

type LinkHandler struct {
	linkService LinkService
	startedAt   time.Time
	version     string
}

func NewLinkHandler(linkService LinkService, version string) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
		startedAt:   time.Now(),
		version:     version,
	}
}

func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req model.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format",
		})
		return
	}

	response, err := h.linkService.CreateLink(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *LinkHandler) GetLink(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Short code is required",
		})
		return
	}

	response, err := h.linkService.GetLink(c.Request.Context(), code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	search := c.Query("search")

	responses, err := h.linkService.ListLinks(c.Request.Context(), search)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses)
}

func (h *LinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Short code is required",
		})
		return
	}

	if err := h.linkService.DeleteLink(c.Request.Context(), code); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Redirect - горячий путь. Поиск и инкремент - один атомарный вызов:
// редирект не уходит без записанного клика, клик не записывается без
// существующей (не удаленной конкурентно) записи.
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	// Зарезервированные пути и синтаксически невозможные коды не доходят
	// до хранилища: валидный код - это всегда 6-8 алфавитно-цифровых символов
	if reservedPaths[code] || !utils.IsValidCode(code) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "link_not_found",
			"message": "Link not found",
		})
		return
	}

	link, err := h.linkService.ResolveAndRecordClick(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) || apperrors.IsValidationError(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "link_not_found",
				"message": "Link not found",
			})
			return
		}

		log.Printf("Failed to record click for code %s: %v", code, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
		return
	}

	c.Redirect(http.StatusFound, link.OriginalURL)
}

// Healthz - только liveness, без похода в хранилище
func (h *LinkHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleError обрабатывает ошибки и возвращает соответствующие HTTP коды
func (h *LinkHandler) handleError(c *gin.Context, err error) {
	// Проверяем ValidationError
	if apperrors.IsValidationError(err) {
		validationErr := apperrors.GetValidationError(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": validationErr.Message,
			"field":   validationErr.Field,
		})
		return
	}

	if errors.Is(err, apperrors.ErrCodeExists) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "duplicate_code",
			"message": "Short code already exists",
		})
		return
	}

	if errors.Is(err, apperrors.ErrLinkNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "link_not_found",
			"message": "Link not found",
		})
		return
	}

	// Проверяем BusinessError
	if apperrors.IsBusinessError(err) {
		businessErr := apperrors.GetBusinessError(err)
		log.Printf("Business error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "business_error",
			"message": businessErr.Message,
			"code":    businessErr.Code,
		})
		return
	}

	// Неизвестная ошибка
	log.Printf("Unexpected error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "An unexpected error occurred",
	})
}
