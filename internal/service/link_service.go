package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/trimlink/trimlink/internal/errors"
	"github.com/trimlink/trimlink/internal/model"
	"github.com/trimlink/trimlink/internal/repository"
	"github.com/trimlink/trimlink/internal/utils"
)

type LinkService struct {
	linkRepo   repository.LinkRepository
	baseURL    string
	codeLength int
	maxRetries int
}

func NewLinkService(linkRepo repository.LinkRepository, baseURL string, codeLength, maxRetries int) *LinkService {
	if codeLength <= 0 {
		codeLength = utils.DefaultCodeLength
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}

	return &LinkService{
		linkRepo:   linkRepo,
		baseURL:    baseURL,
		codeLength: codeLength,
		maxRetries: maxRetries,
	}
}

func (s *LinkService) CreateLink(ctx context.Context, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	rawURL := utils.SanitizeInput(req.RawURL())

	normalizedURL, err := utils.NormalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidURL, err)
	}

	link := &model.Link{
		OriginalURL: normalizedURL,
	}

	if req.Code != "" {
		// Пользовательский код: одна попытка, конфликт отдаем клиенту как 409
		if !utils.IsValidCode(req.Code) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidCode,
				apperrors.NewValidationError("code", "code must be 6-8 alphanumeric characters"))
		}

		// Быстрая проверка занятости (ее может закрыть кэш); окончательно
		// занятость решает constraint при вставке, ошибка проверки не
		// блокирует создание
		if exists, err := s.linkRepo.ExistsByCode(ctx, req.Code); err == nil && exists {
			return nil, apperrors.ErrCodeExists
		}

		link.Code = req.Code
		if err := s.linkRepo.Create(ctx, link); err != nil {
			return nil, err
		}

		return s.toResponse(link), nil
	}

	if err := s.createWithGeneratedCode(ctx, link); err != nil {
		return nil, err
	}

	return s.toResponse(link), nil
}

// createWithGeneratedCode - ограниченный retry-цикл выбора кода: сам insert
// атомарен, при ErrCodeExists генерируем новый код и пробуем снова.
// Коллизии при 62 символах алфавита почти невозможны, но цикл обязан быть конечным.
func (s *LinkService) createWithGeneratedCode(ctx context.Context, link *model.Link) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		code, err := utils.GenerateCodeWithLength(s.codeLength)
		if err != nil {
			return apperrors.NewBusinessError(
				"CODE_GENERATION",
				"failed to generate short code",
				err,
			)
		}

		link.Code = code
		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			return nil
		}

		if errors.Is(err, apperrors.ErrCodeExists) {
			continue
		}

		return err
	}

	return apperrors.NewBusinessError(
		"CODE_GENERATION",
		fmt.Sprintf("failed to generate unique short code after %d attempts", s.maxRetries),
		nil,
	)
}

func (s *LinkService) GetLink(ctx context.Context, code string) (*model.LinkResponse, error) {
	if code == "" {
		return nil, apperrors.NewValidationError("code", "short code cannot be empty")
	}

	link, err := s.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.toResponse(link), nil
}

func (s *LinkService) ListLinks(ctx context.Context, search string) ([]*model.LinkResponse, error) {
	links, err := s.linkRepo.List(ctx, search)
	if err != nil {
		return nil, err
	}

	responses := make([]*model.LinkResponse, 0, len(links))
	for _, link := range links {
		responses = append(responses, s.toResponse(link))
	}

	return responses, nil
}

func (s *LinkService) DeleteLink(ctx context.Context, code string) error {
	if code == "" {
		return apperrors.NewValidationError("code", "short code cannot be empty")
	}

	return s.linkRepo.Delete(ctx, code)
}

// ResolveAndRecordClick - горячий путь редиректа: тонкая обертка над
// атомарной операцией хранилища
func (s *LinkService) ResolveAndRecordClick(ctx context.Context, code string) (*model.Link, error) {
	if code == "" {
		return nil, apperrors.NewValidationError("code", "short code cannot be empty")
	}

	return s.linkRepo.RecordClickAndFetch(ctx, code)
}

func (s *LinkService) toResponse(link *model.Link) *model.LinkResponse {
	return &model.LinkResponse{
		Code:          link.Code,
		ShortURL:      s.buildShortURL(link.Code),
		OriginalURL:   link.OriginalURL,
		ClickCount:    link.ClickCount,
		LastClickedAt: link.LastClickedAt,
		CreatedAt:     link.CreatedAt,
	}
}

func (s *LinkService) buildShortURL(code string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, code)
}
