package model

import "time"

// Link - единственная сущность сервиса: код + оригинальный URL + статистика кликов
type Link struct {
	ID            int64      `json:"id"`
	Code          string     `json:"code"`
	OriginalURL   string     `json:"originalUrl"`
	ClickCount    int64      `json:"clickCount"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CreateLinkRequest принимает URL под любым из трех принятых имен поля.
// Клиенты дашборда шлют "url", старые интеграции - "targetUrl"/"originalUrl".
type CreateLinkRequest struct {
	URL         string `json:"url"`
	TargetURL   string `json:"targetUrl"`
	OriginalURL string `json:"originalUrl"`
	Code        string `json:"code"`
}

// RawURL возвращает первое непустое из альтернативных полей URL
func (r *CreateLinkRequest) RawURL() string {
	switch {
	case r.URL != "":
		return r.URL
	case r.TargetURL != "":
		return r.TargetURL
	default:
		return r.OriginalURL
	}
}

type LinkResponse struct {
	Code          string     `json:"code"`
	ShortURL      string     `json:"shortUrl"`
	OriginalURL   string     `json:"originalUrl"`
	ClickCount    int64      `json:"clickCount"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}
