package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"searchfuel/internal/domain"
	"searchfuel/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.KeywordRepo = (*Postgres)(nil)
	_ domain.ArticleRepo = (*Postgres)(nil)
)

// pendingDateConstraint — частичный уникальный индекс по
// (account_id, scheduled_date) WHERE status = 'pending'. Он и есть защита
// от гонки «проверили занятость — вставили» между двумя запросами.
const pendingDateConstraint = "scheduled_keywords_account_date_pending_key"

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// CreatePending реализует domain.KeywordRepo. Конфликт по частичному
// уникальному индексу транслируется в domain.ErrDateTaken.
func (p *Postgres) CreatePending(ctx context.Context, kw domain.ScheduledKeyword) (domain.ScheduledKeyword, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO scheduled_keywords (id, account_id, keyword, scheduled_date, status)
VALUES ($1, $2, $3, $4, 'pending')
RETURNING id, account_id, keyword, scheduled_date, status, article_id, created_at, updated_at
`, kw.ID, kw.AccountID, kw.Keyword, domain.DayOf(kw.ScheduledDate))
	created, err := scanKeyword(row)
	metrics.ObserveNetworkRequest("postgres", "insert", "scheduled_keywords", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == pendingDateConstraint {
			return domain.ScheduledKeyword{}, domain.ErrDateTaken
		}
		return domain.ScheduledKeyword{}, err
	}
	return created, nil
}

// GetKeyword реализует domain.KeywordRepo.
func (p *Postgres) GetKeyword(ctx context.Context, accountID, id uuid.UUID) (domain.ScheduledKeyword, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT id, account_id, keyword, scheduled_date, status, article_id, created_at, updated_at
FROM scheduled_keywords
WHERE id = $1 AND account_id = $2
`, id, accountID)
	kw, err := scanKeyword(row)
	metrics.ObserveNetworkRequest("postgres", "select", "scheduled_keywords", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScheduledKeyword{}, domain.ErrKeywordNotFound
	}
	return kw, err
}

// ListPendingDates реализует domain.KeywordRepo.
func (p *Postgres) ListPendingDates(ctx context.Context, accountID uuid.UUID) ([]time.Time, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT scheduled_date FROM scheduled_keywords
WHERE account_id = $1 AND status = 'pending'
`, accountID)
	metrics.ObserveNetworkRequest("postgres", "select", "scheduled_keywords", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// ListDue реализует domain.KeywordRepo: pending записи с датой не позже on.
func (p *Postgres) ListDue(ctx context.Context, on time.Time) ([]domain.ScheduledKeyword, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, account_id, keyword, scheduled_date, status, article_id, created_at, updated_at
FROM scheduled_keywords
WHERE status = 'pending' AND scheduled_date <= $1
ORDER BY scheduled_date, created_at
`, domain.DayOf(on))
	metrics.ObserveNetworkRequest("postgres", "select", "scheduled_keywords", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectKeywords(rows)
}

// MarkConsumed реализует domain.KeywordRepo.
func (p *Postgres) MarkConsumed(ctx context.Context, id, articleID uuid.UUID) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE scheduled_keywords
SET status = 'consumed', article_id = $2, updated_at = now()
WHERE id = $1 AND status = 'pending'
`, id, articleID)
	metrics.ObserveNetworkRequest("postgres", "update", "scheduled_keywords", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrKeywordNotFound
	}
	return nil
}

// CancelKeyword реализует domain.KeywordRepo.
func (p *Postgres) CancelKeyword(ctx context.Context, accountID, id uuid.UUID) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE scheduled_keywords
SET status = 'cancelled', updated_at = now()
WHERE id = $1 AND account_id = $2 AND status = 'pending'
`, id, accountID)
	metrics.ObserveNetworkRequest("postgres", "update", "scheduled_keywords", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrKeywordNotFound
	}
	return nil
}

// GetArticle реализует domain.ArticleRepo.
func (p *Postgres) GetArticle(ctx context.Context, accountID, id uuid.UUID) (domain.Article, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT id, account_id, title, slug, content, publishing_status, scheduled_for,
       last_published_at, external_post_id, external_post_url, created_at, updated_at
FROM articles
WHERE id = $1 AND account_id = $2
`, id, accountID)
	article, err := scanArticle(row)
	metrics.ObserveNetworkRequest("postgres", "select", "articles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	return article, err
}

// CreateArticle реализует domain.ArticleRepo.
func (p *Postgres) CreateArticle(ctx context.Context, article domain.Article) (domain.Article, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO articles (id, account_id, title, slug, content, publishing_status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, account_id, title, slug, content, publishing_status, scheduled_for,
          last_published_at, external_post_id, external_post_url, created_at, updated_at
`, article.ID, article.AccountID, article.Title, article.Slug, article.Content, string(article.PublishingStatus))
	created, err := scanArticle(row)
	metrics.ObserveNetworkRequest("postgres", "insert", "articles", start, err)
	return created, err
}

// UpdateArticle реализует domain.ArticleRepo: сохраняет статус публикации
// и связанные с ним поля.
func (p *Postgres) UpdateArticle(ctx context.Context, article domain.Article) (domain.Article, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var scheduledFor, lastPublishedAt sql.NullTime
	if article.ScheduledFor != nil {
		scheduledFor = sql.NullTime{Time: *article.ScheduledFor, Valid: true}
	}
	if article.LastPublishedAt != nil {
		lastPublishedAt = sql.NullTime{Time: *article.LastPublishedAt, Valid: true}
	}

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
UPDATE articles
SET publishing_status = $2, scheduled_for = $3, last_published_at = $4,
    external_post_id = NULLIF($5, ''), external_post_url = NULLIF($6, ''), updated_at = now()
WHERE id = $1
RETURNING id, account_id, title, slug, content, publishing_status, scheduled_for,
          last_published_at, external_post_id, external_post_url, created_at, updated_at
`, article.ID, string(article.PublishingStatus), scheduledFor, lastPublishedAt,
		article.ExternalPostID, article.ExternalPostURL)
	updated, err := scanArticle(row)
	metrics.ObserveNetworkRequest("postgres", "update", "articles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	return updated, err
}

// ListScheduledDates реализует domain.ArticleRepo.
func (p *Postgres) ListScheduledDates(ctx context.Context, accountID uuid.UUID) ([]time.Time, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT scheduled_for FROM articles
WHERE account_id = $1 AND scheduled_for IS NOT NULL
`, accountID)
	metrics.ObserveNetworkRequest("postgres", "select", "articles", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func scanKeyword(row pgx.Row) (domain.ScheduledKeyword, error) {
	var (
		kw        domain.ScheduledKeyword
		status    string
		articleID *uuid.UUID
	)
	if err := row.Scan(&kw.ID, &kw.AccountID, &kw.Keyword, &kw.ScheduledDate, &status, &articleID, &kw.CreatedAt, &kw.UpdatedAt); err != nil {
		return domain.ScheduledKeyword{}, err
	}
	kw.Status = domain.KeywordStatus(status)
	kw.ArticleID = articleID
	return kw, nil
}

func collectKeywords(rows pgx.Rows) ([]domain.ScheduledKeyword, error) {
	var keywords []domain.ScheduledKeyword
	for rows.Next() {
		kw, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

func scanArticle(row pgx.Row) (domain.Article, error) {
	var (
		article         domain.Article
		status          string
		scheduledFor    sql.NullTime
		lastPublishedAt sql.NullTime
		externalPostID  sql.NullString
		externalPostURL sql.NullString
	)
	if err := row.Scan(&article.ID, &article.AccountID, &article.Title, &article.Slug, &article.Content,
		&status, &scheduledFor, &lastPublishedAt, &externalPostID, &externalPostURL,
		&article.CreatedAt, &article.UpdatedAt); err != nil {
		return domain.Article{}, err
	}
	article.PublishingStatus = domain.PublishingStatus(status)
	if scheduledFor.Valid {
		t := scheduledFor.Time
		article.ScheduledFor = &t
	}
	if lastPublishedAt.Valid {
		t := lastPublishedAt.Time
		article.LastPublishedAt = &t
	}
	article.ExternalPostID = externalPostID.String
	article.ExternalPostURL = externalPostURL.String
	return article, nil
}
