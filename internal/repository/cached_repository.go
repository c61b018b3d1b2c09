package repository

import (
	"context"
	"errors"
	"log"

	"github.com/trimlink/trimlink/internal/cache"
	"github.com/trimlink/trimlink/internal/model"
)

// CachedLinkRepository - декоратор над Postgres-репозиторием с Redis.
// Кэшируется только неизменяемое (код -> оригинальный URL): быстрый
// pre-check занятости кода при создании. Счетчики кликов, чтения
// изменяемого состояния и весь путь редиректа всегда идут в БД.
type CachedLinkRepository struct {
	inner LinkRepository
	cache cache.Cache
	keys  *cache.KeyBuilder
}

func NewCachedLinkRepository(inner LinkRepository, c cache.Cache) LinkRepository {
	return &CachedLinkRepository{
		inner: inner,
		cache: c,
		keys:  cache.DefaultKeyBuilder,
	}
}

func (r *CachedLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.inner.Create(ctx, link); err != nil {
		return err
	}

	// Ошибки кэша не прерывают операцию: БД - источник истины
	if err := r.cache.SetString(ctx, r.keys.Link(link.Code), link.OriginalURL); err != nil {
		log.Printf("Failed to cache link %s: %v", link.Code, err)
	}

	return nil
}

func (r *CachedLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	// click_count и last_clicked_at изменяемы, отдаем только из БД
	return r.inner.GetByCode(ctx, code)
}

func (r *CachedLinkRepository) List(ctx context.Context, search string) ([]*model.Link, error) {
	return r.inner.List(ctx, search)
}

func (r *CachedLinkRepository) Delete(ctx context.Context, code string) error {
	if err := r.inner.Delete(ctx, code); err != nil {
		return err
	}

	if err := r.cache.Delete(ctx, r.keys.Link(code)); err != nil {
		log.Printf("Failed to invalidate cache for %s: %v", code, err)
	}

	return nil
}

func (r *CachedLinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	exists, err := r.cache.Exists(ctx, r.keys.Link(code))
	if err == nil && exists {
		return true, nil
	}

	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Cache error: %v", err)
	}

	return r.inner.ExistsByCode(ctx, code)
}

// RecordClickAndFetch идет напрямую в БД: атомарность инкремента
// обеспечивает только она, кэш здесь не участвует
func (r *CachedLinkRepository) RecordClickAndFetch(ctx context.Context, code string) (*model.Link, error) {
	return r.inner.RecordClickAndFetch(ctx, code)
}
