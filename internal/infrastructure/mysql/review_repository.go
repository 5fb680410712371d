package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-marketplace/internal/domain"

	"github.com/go-sql-driver/mysql"
)

type MySQLReviewRepository struct {
	db *sql.DB
}

func NewMySQLReviewRepository(db *sql.DB) *MySQLReviewRepository {
	return &MySQLReviewRepository{db: db}
}

func (r *MySQLReviewRepository) SaveReview(ctx context.Context, review *domain.Review) error {
	query := `
        INSERT INTO reviews (id, auction_id, reviewer_username, reviewed_username,
            review_type, rating, comment, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		review.ID, review.AuctionID, review.ReviewerUsername, review.ReviewedUsername,
		string(review.ReviewType), review.Rating, review.Comment, review.Timestamp)

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateKeyErrNo {
		// unique key on (auction_id, reviewer_username)
		return domain.ErrDuplicateReview
	}
	return err
}

func (r *MySQLReviewRepository) GetReviewsForUser(ctx context.Context, username string) ([]*domain.Review, error) {
	query := `
        SELECT id, auction_id, reviewer_username, reviewed_username, review_type,
            rating, comment, timestamp
        FROM reviews
        WHERE reviewed_username = ?
        ORDER BY timestamp DESC
    `
	return r.queryReviews(ctx, query, username)
}

func (r *MySQLReviewRepository) GetReviewsForAuction(ctx context.Context, auctionID string) ([]*domain.Review, error) {
	query := `
        SELECT id, auction_id, reviewer_username, reviewed_username, review_type,
            rating, comment, timestamp
        FROM reviews
        WHERE auction_id = ?
        ORDER BY timestamp DESC
    `
	return r.queryReviews(ctx, query, auctionID)
}

func (r *MySQLReviewRepository) AverageRating(ctx context.Context, username string) (float64, int, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE reviewed_username = ?`

	var avg float64
	var count int
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

func (r *MySQLReviewRepository) queryReviews(ctx context.Context, query string, arg interface{}) ([]*domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		var review domain.Review
		var reviewType string

		err := rows.Scan(&review.ID, &review.AuctionID, &review.ReviewerUsername,
			&review.ReviewedUsername, &reviewType, &review.Rating, &review.Comment,
			&review.Timestamp)
		if err != nil {
			return nil, err
		}

		review.ReviewType = domain.ReviewType(reviewType)
		reviews = append(reviews, &review)
	}

	return reviews, rows.Err()
}
