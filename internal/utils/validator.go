package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	apperrors "github.com/trimlink/trimlink/internal/errors"
)

const maxURLLength = 2048

// Коды: 6-8 символов, только ASCII буквы и цифры
var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// NormalizeURL приводит введенный URL к канонической форме:
// обрезает пробелы, подставляет https:// если схема не указана, парсит.
// Вызывается один раз при создании ссылки, не на каждом редиректе.
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	if rawURL == "" {
		return "", apperrors.NewValidationError("url", "URL cannot be empty")
	}

	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		rawURL = "https://" + rawURL
	}

	if len(rawURL) > maxURLLength {
		return "", apperrors.NewValidationError("url", "URL is too long (max 2048 characters)")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", apperrors.NewValidationError("url", fmt.Sprintf("invalid URL format: %v", err))
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", apperrors.NewValidationError("url", "URL must start with http:// or https://")
	}

	if parsedURL.Host == "" {
		return "", apperrors.NewValidationError("url", "URL must contain a valid host")
	}

	return parsedURL.String(), nil
}

func SanitizeInput(input string) string {
	// Удаляем управляющие символы и обрезаем пробелы
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(result)
}
