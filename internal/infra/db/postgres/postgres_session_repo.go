package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*PostgresSessionRepo)(nil)

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var sessionColumns = []string{"chat_id", "token", "exp", "created_at", "updated_at"}

const uniqueViolation = "23505"

type PostgresSessionRepo struct {
	db *sql.DB
}

func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

func (r *PostgresSessionRepo) FindByChatID(ctx context.Context, chatID int64) (*model.Session, error) {
	query, args, err := psq.Select(sessionColumns...).
		From("users").
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var (
		s     model.Session
		token sql.NullString
		exp   sql.NullInt32
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&s.ChatID, &token, &exp, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select session %d: %w", chatID, err)
	}
	if token.Valid {
		s.Token = &token.String
	}
	if exp.Valid {
		h := int(exp.Int32)
		s.LifetimeHours = &h
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *PostgresSessionRepo) Create(ctx context.Context, s *model.Session) error {
	query, args, err := psq.Insert("users").
		Columns("chat_id", "created_at", "updated_at").
		Values(s.ChatID, s.CreatedAt.UTC(), s.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert session %d: %w", s.ChatID, err)
	}
	return nil
}

func (r *PostgresSessionRepo) UpdateToken(ctx context.Context, chatID int64, token string, lifetimeHours int, issuedAt time.Time) error {
	query, args, err := psq.Update("users").
		Set("token", token).
		Set("exp", lifetimeHours).
		Set("updated_at", issuedAt.UTC()).
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session %d: %w", chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %d: %w", chatID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *PostgresSessionRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
