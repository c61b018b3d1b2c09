package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/trimlink/trimlink/internal/errors"
	"github.com/trimlink/trimlink/internal/model"
)

type mockLinkService struct {
	links        map[string]*model.Link
	resolveCalls int
	shouldFail   bool
	failType     string
}

func newMockLinkService() *mockLinkService {
	return &mockLinkService{
		links: make(map[string]*model.Link),
	}
}

func (m *mockLinkService) toResponse(link *model.Link) *model.LinkResponse {
	return &model.LinkResponse{
		Code:          link.Code,
		ShortURL:      "http://localhost:8080/" + link.Code,
		OriginalURL:   link.OriginalURL,
		ClickCount:    link.ClickCount,
		LastClickedAt: link.LastClickedAt,
		CreatedAt:     link.CreatedAt,
	}
}

func (m *mockLinkService) CreateLink(ctx context.Context, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	if m.shouldFail {
		switch m.failType {
		case "validation":
			return nil, apperrors.NewValidationError("url", "invalid URL")
		case "duplicate":
			return nil, apperrors.ErrCodeExists
		case "business":
			return nil, apperrors.NewBusinessError("CODE_GENERATION", "failed to generate short code", nil)
		default:
			return nil, errors.New("service error")
		}
	}

	code := req.Code
	if code == "" {
		code = "abc1234"
	}

	link := &model.Link{
		ID:          int64(len(m.links) + 1),
		Code:        code,
		OriginalURL: req.RawURL(),
		CreatedAt:   time.Now(),
	}

	m.links[code] = link
	return m.toResponse(link), nil
}

func (m *mockLinkService) GetLink(ctx context.Context, code string) (*model.LinkResponse, error) {
	if m.shouldFail {
		return nil, errors.New("service error")
	}

	link, exists := m.links[code]
	if !exists {
		return nil, apperrors.ErrLinkNotFound
	}

	return m.toResponse(link), nil
}

func (m *mockLinkService) ListLinks(ctx context.Context, search string) ([]*model.LinkResponse, error) {
	if m.shouldFail {
		return nil, errors.New("service error")
	}

	responses := make([]*model.LinkResponse, 0, len(m.links))
	for _, link := range m.links {
		responses = append(responses, m.toResponse(link))
	}

	return responses, nil
}

func (m *mockLinkService) DeleteLink(ctx context.Context, code string) error {
	if m.shouldFail {
		return errors.New("service error")
	}

	if _, exists := m.links[code]; !exists {
		return apperrors.ErrLinkNotFound
	}

	delete(m.links, code)
	return nil
}

func (m *mockLinkService) ResolveAndRecordClick(ctx context.Context, code string) (*model.Link, error) {
	m.resolveCalls++

	if m.shouldFail {
		return nil, apperrors.NewBusinessError("DATABASE_ERROR", "failed to record click", nil)
	}

	link, exists := m.links[code]
	if !exists {
		return nil, apperrors.ErrLinkNotFound
	}

	link.ClickCount++
	now := time.Now()
	link.LastClickedAt = &now
	return link, nil
}

func newTestRouter(service LinkService) *gin.Engine {
	h := NewLinkHandler(service, "test")
	router := gin.New()

	router.GET("/healthz", h.Healthz)
	api := router.Group("/api")
	{
		api.POST("/links", h.CreateLink)
		api.GET("/links", h.ListLinks)
		api.GET("/links/:code", h.GetLink)
		api.DELETE("/links/:code", h.DeleteLink)
	}
	router.GET("/:code", h.Redirect)

	return router
}

func TestLinkHandler_CreateLink(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockSetup      func(*mockLinkService)
		expectedStatus int
		expectedFields []string
	}{
		{
			name:           "valid request",
			requestBody:    map[string]string{"url": "https://example.com"},
			expectedStatus: http.StatusCreated,
			expectedFields: []string{"code", "shortUrl", "originalUrl", "clickCount", "createdAt"},
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"error", "message"},
		},
		{
			name:        "validation error",
			requestBody: map[string]string{"url": "not a url"},
			mockSetup: func(m *mockLinkService) {
				m.shouldFail = true
				m.failType = "validation"
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"error", "message", "field"},
		},
		{
			name:        "duplicate code",
			requestBody: map[string]string{"url": "https://example.com", "code": "dup0001"},
			mockSetup: func(m *mockLinkService) {
				m.shouldFail = true
				m.failType = "duplicate"
			},
			expectedStatus: http.StatusConflict,
			expectedFields: []string{"error", "message"},
		},
		{
			name:        "business error",
			requestBody: map[string]string{"url": "https://example.com"},
			mockSetup: func(m *mockLinkService) {
				m.shouldFail = true
				m.failType = "business"
			},
			expectedStatus: http.StatusInternalServerError,
			expectedFields: []string{"error", "message", "code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := newMockLinkService()
			if tt.mockSetup != nil {
				tt.mockSetup(mockService)
			}

			router := newTestRouter(mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("Failed to marshal request body: %v", err)
				}
			}

			req := httptest.NewRequest("POST", "/api/links", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("CreateLink() status = %d, want %d", w.Code, tt.expectedStatus)
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}

			for _, field := range tt.expectedFields {
				if _, exists := response[field]; !exists {
					t.Errorf("CreateLink() response missing field: %s", field)
				}
			}
		})
	}
}

func TestLinkHandler_GetLink(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := newMockLinkService()
	mockService.links["abc1234"] = &model.Link{
		ID:          1,
		Code:        "abc1234",
		OriginalURL: "https://example.com",
		ClickCount:  5,
		CreatedAt:   time.Now(),
	}

	router := newTestRouter(mockService)

	t.Run("existing link", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/links/abc1234", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GetLink() status = %d, want %d", w.Code, http.StatusOK)
		}

		var response model.LinkResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response.Code != "abc1234" {
			t.Errorf("GetLink() response.Code = %s, want abc1234", response.Code)
		}

		if response.ClickCount != 5 {
			t.Errorf("GetLink() response.ClickCount = %d, want 5", response.ClickCount)
		}
	})

	t.Run("non-existing link", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/links/notfound", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("GetLink() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestLinkHandler_ListLinks(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := newMockLinkService()
	mockService.links["abc1234"] = &model.Link{ID: 1, Code: "abc1234", OriginalURL: "https://example.com", CreatedAt: time.Now()}
	mockService.links["xyz9876"] = &model.Link{ID: 2, Code: "xyz9876", OriginalURL: "https://example.org", CreatedAt: time.Now()}

	router := newTestRouter(mockService)

	req := httptest.NewRequest("GET", "/api/links", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ListLinks() status = %d, want %d", w.Code, http.StatusOK)
	}

	var responses []model.LinkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &responses); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(responses) != 2 {
		t.Errorf("ListLinks() returned %d links, want 2", len(responses))
	}
}

func TestLinkHandler_DeleteLink(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := newMockLinkService()
	mockService.links["abc1234"] = &model.Link{ID: 1, Code: "abc1234", OriginalURL: "https://example.com", CreatedAt: time.Now()}

	router := newTestRouter(mockService)

	t.Run("existing link", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/api/links/abc1234", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("DeleteLink() status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if ok, _ := response["ok"].(bool); !ok {
			t.Error("DeleteLink() response.ok != true")
		}
	})

	t.Run("non-existing link", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/api/links/notfound", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("DeleteLink() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestLinkHandler_Redirect(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("successful redirect records click", func(t *testing.T) {
		mockService := newMockLinkService()
		mockService.links["abc1234"] = &model.Link{
			ID:          1,
			Code:        "abc1234",
			OriginalURL: "https://example.com",
			CreatedAt:   time.Now(),
		}

		router := newTestRouter(mockService)

		req := httptest.NewRequest("GET", "/abc1234", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusFound)
		}

		location := w.Header().Get("Location")
		if location != "https://example.com" {
			t.Errorf("Redirect() Location = %s, want https://example.com", location)
		}

		// Клик записан той же операцией
		link := mockService.links["abc1234"]
		if link.ClickCount != 1 {
			t.Errorf("Redirect() ClickCount = %d, want 1", link.ClickCount)
		}

		if link.LastClickedAt == nil {
			t.Error("Redirect() LastClickedAt not set after click")
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		mockService := newMockLinkService()
		router := newTestRouter(mockService)

		req := httptest.NewRequest("GET", "/nosuch1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("reserved path skips the store", func(t *testing.T) {
		mockService := newMockLinkService()
		router := newTestRouter(mockService)

		req := httptest.NewRequest("GET", "/favicon.ico", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusNotFound)
		}

		if mockService.resolveCalls != 0 {
			t.Errorf("Redirect() reserved path reached the store %d times", mockService.resolveCalls)
		}
	})

	t.Run("syntactically invalid code skips the store", func(t *testing.T) {
		mockService := newMockLinkService()
		router := newTestRouter(mockService)

		req := httptest.NewRequest("GET", "/no", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusNotFound)
		}

		if mockService.resolveCalls != 0 {
			t.Errorf("Redirect() invalid code reached the store %d times", mockService.resolveCalls)
		}
	})

	t.Run("store failure returns 500 without redirect", func(t *testing.T) {
		mockService := newMockLinkService()
		mockService.shouldFail = true
		router := newTestRouter(mockService)

		req := httptest.NewRequest("GET", "/abc1234", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusInternalServerError)
		}

		if location := w.Header().Get("Location"); location != "" {
			t.Errorf("Redirect() issued Location %s despite store failure", location)
		}
	})
}

// Сценарий из жизни: create с кастомным кодом -> redirect -> get показывает клик
func TestLinkHandler_CreateRedirectGetScenario(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := newMockLinkService()
	router := newTestRouter(mockService)

	body, _ := json.Marshal(map[string]string{"url": "https://a.com", "code": "abc123"})
	req := httptest.NewRequest("POST", "/api/links", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", w.Code, http.StatusCreated)
	}

	req = httptest.NewRequest("GET", "/abc123", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("redirect status = %d, want %d", w.Code, http.StatusFound)
	}

	if location := w.Header().Get("Location"); location != "https://a.com" {
		t.Fatalf("redirect Location = %s, want https://a.com", location)
	}

	req = httptest.NewRequest("GET", "/api/links/abc123", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}

	var response model.LinkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.ClickCount != 1 {
		t.Errorf("get clickCount = %d, want 1", response.ClickCount)
	}

	if response.LastClickedAt == nil {
		t.Error("get lastClickedAt not set after redirect")
	}
}

func TestLinkHandler_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := newMockLinkService()
	router := newTestRouter(mockService)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Healthz() status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	for _, field := range []string{"ok", "version", "uptime", "timestamp"} {
		if _, exists := response[field]; !exists {
			t.Errorf("Healthz() response missing field: %s", field)
		}
	}

	if ok, _ := response["ok"].(bool); !ok {
		t.Error("Healthz() response.ok != true")
	}
}
