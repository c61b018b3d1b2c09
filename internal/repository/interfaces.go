package repository

import (
	"context"

	"github.com/trimlink/trimlink/internal/model"
)

type LinkRepository interface {
	// Create вставляет запись; уникальность кода обеспечивает constraint в БД,
	// при конфликте возвращает ErrCodeExists
	Create(ctx context.Context, link *model.Link) error

	GetByCode(ctx context.Context, code string) (*model.Link, error)

	// List возвращает ссылки newest-first; search - подстрока без учета регистра
	// по коду и оригинальному URL, пустая строка - все ссылки
	List(ctx context.Context, search string) ([]*model.Link, error)

	Delete(ctx context.Context, code string) error

	ExistsByCode(ctx context.Context, code string) (bool, error)

	// RecordClickAndFetch - критическая операция: инкремент счетчика и чтение
	// записи одним атомарным действием. Конкурентные вызовы для одного кода
	// линеаризуются блокировкой строки, ни один клик не теряется.
	RecordClickAndFetch(ctx context.Context, code string) (*model.Link, error)
}
