package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apperrors "github.com/trimlink/trimlink/internal/errors"
	"github.com/trimlink/trimlink/internal/model"
)

type PostgresLinkRepository struct {
	db *sql.DB
}

func NewPostgresLinkRepository(db *sql.DB) LinkRepository {
	return &PostgresLinkRepository{
		db: db,
	}
}

// Create - атомарный check-and-insert: constraint на code решает гонку
// двух конкурентных созданий с одинаковым кодом, отдельной проверки
// существования перед вставкой нет. created_at заполняет DEFAULT now():
// обе временные метки строки живут на часах БД, и last_clicked_at не
// может оказаться раньше created_at при расхождении часов приложения и БД.
func (r *PostgresLinkRepository) Create(ctx context.Context, link *model.Link) error {
	query := `
	INSERT INTO links (code, original_url)
	VALUES ($1, $2)
	ON CONFLICT (code) DO NOTHING
	RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		link.Code,
		link.OriginalURL,
	).Scan(&link.ID, &link.CreatedAt)

	if err == sql.ErrNoRows {
		return apperrors.ErrCodeExists
	}

	if err != nil {
		return apperrors.NewBusinessError(
			"DATABASE_ERROR",
			"failed to create link",
			err,
		)
	}

	return nil
}

func (r *PostgresLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	query := `
	SELECT id, code, original_url, click_count, last_clicked_at, created_at
	FROM links
	WHERE code = $1
	`

	link := &model.Link{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&link.ID,
		&link.Code,
		&link.OriginalURL,
		&link.ClickCount,
		&link.LastClickedAt,
		&link.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewBusinessError(
			"DATABASE_ERROR",
			"failed to get link",
			err,
		)
	}

	return link, nil
}

func (r *PostgresLinkRepository) List(ctx context.Context, search string) ([]*model.Link, error) {
	query := `
	SELECT id, code, original_url, click_count, last_clicked_at, created_at
	FROM links
	ORDER BY created_at DESC
	`

	var rows *sql.Rows
	var err error

	if search != "" {
		query = `
		SELECT id, code, original_url, click_count, last_clicked_at, created_at
		FROM links
		WHERE code ILIKE '%' || $1 || '%' OR original_url ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		`
		rows, err = r.db.QueryContext(ctx, query, EscapeLikePattern(search))
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}

	if err != nil {
		return nil, apperrors.NewBusinessError(
			"DATABASE_ERROR",
			"failed to list links",
			err,
		)
	}
	defer rows.Close()

	links := make([]*model.Link, 0)
	for rows.Next() {
		link := &model.Link{}
		if err := rows.Scan(
			&link.ID,
			&link.Code,
			&link.OriginalURL,
			&link.ClickCount,
			&link.LastClickedAt,
			&link.CreatedAt,
		); err != nil {
			return nil, apperrors.NewBusinessError(
				"DATABASE_ERROR",
				"failed to scan link",
				err,
			)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewBusinessError(
			"DATABASE_ERROR",
			"failed to iterate links",
			err,
		)
	}

	return links, nil
}

func (r *PostgresLinkRepository) Delete(ctx context.Context, code string) error {
	query := `DELETE FROM links WHERE code = $1`

	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return apperrors.NewBusinessError(
			"DATABASE_ERROR",
			"failed to delete link",
			err,
		)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewBusinessError(
			"DATABASE_ERROR",
			"failed to read affected rows",
			err,
		)
	}

	if affected == 0 {
		return fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	return nil
}

func (r *PostgresLinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE code = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, code).Scan(&exists)
	if err != nil {
		return false, apperrors.NewBusinessError(
			"DATABASE_ERROR",
			"failed to check code existence",
			err,
		)
	}

	return exists, nil
}

// RecordClickAndFetch - один UPDATE ... RETURNING: блокировка строки
// линеаризует конкурентные клики, URL и счетчик читаются из того же
// атомарного действия. clock_timestamp() берется после захвата блокировки,
// поэтому last_clicked_at не уходит назад при поздних коммитах.
func (r *PostgresLinkRepository) RecordClickAndFetch(ctx context.Context, code string) (*model.Link, error) {
	query := `
	UPDATE links
	SET click_count = click_count + 1,
	    last_clicked_at = clock_timestamp()
	WHERE code = $1
	RETURNING id, code, original_url, click_count, last_clicked_at, created_at
	`

	link := &model.Link{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&link.ID,
		&link.Code,
		&link.OriginalURL,
		&link.ClickCount,
		&link.LastClickedAt,
		&link.CreatedAt,
	)

	if err == sql.ErrNoRows {
		// Кода нет (или он удален конкурентно) - мутации не было
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	if err != nil {
		return nil, apperrors.NewBusinessError(
			"DATABASE_ERROR",
			"failed to record click",
			err,
		)
	}

	return link, nil
}

// EscapeLikePattern экранирует wildcard-символы ILIKE, чтобы поисковый
// запрос трактовался как подстрока, а не паттерн
func EscapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
