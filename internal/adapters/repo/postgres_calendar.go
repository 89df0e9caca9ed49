package repo

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"searchfuel/internal/domain"
	"searchfuel/internal/infra/metrics"
)

// qb — построитель запросов с позиционными плейсхолдерами Postgres.
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ListKeywordsRange реализует domain.KeywordRepo: записи аккаунта
// с датой в [from, to] включительно, в порядке создания.
func (p *Postgres) ListKeywordsRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]domain.ScheduledKeyword, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	query, args, err := qb.
		Select("id", "account_id", "keyword", "scheduled_date", "status", "article_id", "created_at", "updated_at").
		From("scheduled_keywords").
		Where(sq.Eq{"account_id": accountID}).
		Where(sq.GtOrEq{"scheduled_date": domain.DayOf(from)}).
		Where(sq.LtOrEq{"scheduled_date": domain.DayOf(to)}).
		OrderBy("scheduled_date", "created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "select", "scheduled_keywords", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectKeywords(rows)
}

// ListArticlesRange реализует domain.ArticleRepo: статьи аккаунта, видимые
// в календаре за период — назначенные на дату из диапазона либо
// опубликованные в нём.
func (p *Postgres) ListArticlesRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]domain.Article, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	first := domain.DayOf(from)
	last := domain.DayOf(to).AddDate(0, 0, 1)
	query, args, err := qb.
		Select("id", "account_id", "title", "slug", "content", "publishing_status", "scheduled_for",
			"last_published_at", "external_post_id", "external_post_url", "created_at", "updated_at").
		From("articles").
		Where(sq.Eq{"account_id": accountID}).
		Where(sq.Or{
			sq.And{sq.GtOrEq{"scheduled_for": first}, sq.Lt{"scheduled_for": last}},
			sq.And{sq.GtOrEq{"last_published_at": first}, sq.Lt{"last_published_at": last}},
		}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "select", "articles", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}
