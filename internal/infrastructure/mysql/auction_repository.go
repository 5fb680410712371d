package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"auction-marketplace/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

func (r *MySQLAuctionRepository) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, product_name, description, image_url, seller_username,
            start_price, status, start_time, end_time, highest_bid, highest_bidder,
            created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		auction.ID, auction.ProductName, auction.Description, auction.ImageURL,
		auction.SellerUsername, auction.StartPrice, string(auction.Status),
		auction.StartTime, auction.EndTime, auction.HighestBid, auction.HighestBidder,
		auction.CreatedAt, auction.UpdatedAt)
	return err
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `
        SELECT id, product_name, description, image_url, seller_username, start_price,
            status, start_time, end_time, highest_bid, highest_bidder, created_at, updated_at
        FROM auctions WHERE id = ?
    `

	var auction domain.Auction
	var status string

	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&auction.ID, &auction.ProductName, &auction.Description, &auction.ImageURL,
		&auction.SellerUsername, &auction.StartPrice, &status,
		&auction.StartTime, &auction.EndTime, &auction.HighestBid, &auction.HighestBidder,
		&auction.CreatedAt, &auction.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAuctionNotFound
	}
	if err != nil {
		return nil, err
	}

	auction.Status = domain.AuctionStatus(status)
	return &auction, nil
}

func (r *MySQLAuctionRepository) ListAuctions(ctx context.Context) ([]*domain.Auction, error) {
	query := `
        SELECT id, product_name, description, image_url, seller_username, start_price,
            status, start_time, end_time, highest_bid, highest_bidder, created_at, updated_at
        FROM auctions ORDER BY created_at DESC
    `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		var auction domain.Auction
		var status string

		err := rows.Scan(&auction.ID, &auction.ProductName, &auction.Description,
			&auction.ImageURL, &auction.SellerUsername, &auction.StartPrice, &status,
			&auction.StartTime, &auction.EndTime, &auction.HighestBid, &auction.HighestBidder,
			&auction.CreatedAt, &auction.UpdatedAt)
		if err != nil {
			return nil, err
		}

		auction.Status = domain.AuctionStatus(status)
		auctions = append(auctions, &auction)
	}

	return auctions, rows.Err()
}

// CompareAndSetHighestBid is the single serialized mutation in the system: the
// conditional UPDATE only lands when the auction is Live, the amount beats the
// stored highest bid and the amount clears the start price. Concurrent callers
// race on the row; MySQL row locking decides the winner.
func (r *MySQLAuctionRepository) CompareAndSetHighestBid(ctx context.Context, auctionID string, amount float64, bidder string) (bool, error) {
	query := `
        UPDATE auctions
        SET highest_bid = ?, highest_bidder = ?, updated_at = ?
        WHERE id = ? AND status = ? AND highest_bid < ? AND start_price <= ?
    `
	result, err := r.db.ExecContext(ctx, query,
		amount, bidder, time.Now(), auctionID, string(domain.AuctionLive), amount, amount)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *MySQLAuctionRepository) UpdateStatus(ctx context.Context, auctionID string, next domain.AuctionStatus, from ...domain.AuctionStatus) (bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	query := `UPDATE auctions SET status = ?, updated_at = ? WHERE id = ? AND status IN (` + placeholders + `)`

	args := []interface{}{string(next), time.Now(), auctionID}
	for _, s := range from {
		args = append(args, string(s))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
