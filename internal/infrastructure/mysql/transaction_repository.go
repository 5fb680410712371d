package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-marketplace/internal/domain"

	"github.com/go-sql-driver/mysql"
)

const duplicateKeyErrNo = 1062

type MySQLTransactionRepository struct {
	db *sql.DB
}

func NewMySQLTransactionRepository(db *sql.DB) *MySQLTransactionRepository {
	return &MySQLTransactionRepository{db: db}
}

func (r *MySQLTransactionRepository) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
        INSERT INTO transactions (id, auction_id, buyer_username, seller_username,
            amount, payment_method, status, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.AuctionID, tx.BuyerUsername, tx.SellerUsername,
		tx.Amount, tx.PaymentMethod, string(tx.Status), tx.Timestamp)

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateKeyErrNo {
		// unique key on auction_id: at most one transaction per auction
		return domain.ErrAlreadySettled
	}
	return err
}

func (r *MySQLTransactionRepository) CompletedExists(ctx context.Context, auctionID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transactions WHERE auction_id = ? AND status = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, auctionID, string(domain.TransactionCompleted)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *MySQLTransactionRepository) GetByAuction(ctx context.Context, auctionID string) (*domain.Transaction, error) {
	query := `
        SELECT id, auction_id, buyer_username, seller_username, amount,
            payment_method, status, timestamp
        FROM transactions WHERE auction_id = ?
    `

	var tx domain.Transaction
	var status string

	err := r.db.QueryRowContext(ctx, query, auctionID).Scan(
		&tx.ID, &tx.AuctionID, &tx.BuyerUsername, &tx.SellerUsername,
		&tx.Amount, &tx.PaymentMethod, &status, &tx.Timestamp)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tx.Status = domain.TransactionStatus(status)
	return &tx, nil
}
