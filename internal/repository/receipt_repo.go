package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/notafacil/nfce-collector/internal/domain"
)

// ErrDuplicateKey signals that a receipt with the same access key is
// already recorded.
var ErrDuplicateKey = errors.New("receipt already exists")

type ReceiptRepo struct {
	db *sql.DB
}

func NewReceiptRepo(db *sql.DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

// ExistsByKey reports whether a receipt with the given access key is
// already stored. This is the duplicate guard's check half; Insert still
// enforces the primary key, so a lost race surfaces as ErrDuplicateKey
// there instead of a double insert.
func (r *ReceiptRepo) ExistsByKey(accessKey string) (bool, error) {
	var n int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM receipts WHERE access_key = ?", accessKey,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query receipt by key: %w", err)
	}
	return n > 0, nil
}

// Insert stores a receipt and all of its line items in a single
// transaction, so a failure on the item rows rolls the receipt row back.
func (r *ReceiptRepo) Insert(receipt *domain.Receipt) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO receipts
		(access_key, merchant_name, cnpj, address, purchase_timestamp,
		 total_items, total_amount, discount, paid_amount, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		receipt.AccessKey, receipt.MerchantName, receipt.CNPJ, receipt.Address,
		receipt.PurchaseTimestamp.Format(time.RFC3339), receipt.TotalItems,
		receipt.TotalAmount, receipt.Discount, receipt.PaidAmount,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		// modernc.org/sqlite reports primary key conflicts as a plain
		// "UNIQUE constraint failed" error string.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert receipt: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO receipt_items
		(access_key, code, name, quantity, unit_type, unit_price, total_price)
		VALUES (?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare items: %w", err)
	}
	defer stmt.Close()

	for i := range receipt.Items {
		it := &receipt.Items[i]
		if _, err := stmt.Exec(
			it.AccessKey, it.Code, it.Name, it.Quantity,
			it.UnitType, it.UnitPrice, it.TotalPrice,
		); err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByKey loads a receipt and its line items.
func (r *ReceiptRepo) GetByKey(accessKey string) (*domain.Receipt, error) {
	var receipt domain.Receipt
	var ts string
	err := r.db.QueryRow(
		`SELECT access_key, merchant_name, cnpj, address, purchase_timestamp,
		        total_items, total_amount, discount, paid_amount
		 FROM receipts WHERE access_key = ?`, accessKey,
	).Scan(
		&receipt.AccessKey, &receipt.MerchantName, &receipt.CNPJ, &receipt.Address,
		&ts, &receipt.TotalItems, &receipt.TotalAmount, &receipt.Discount,
		&receipt.PaidAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("select receipt: %w", err)
	}
	receipt.PurchaseTimestamp, err = time.Parse(time.RFC3339, ts)
	if err != nil {
		return nil, fmt.Errorf("parse stored timestamp: %w", err)
	}

	rows, err := r.db.Query(
		`SELECT access_key, code, name, quantity, unit_type, unit_price, total_price
		 FROM receipt_items WHERE access_key = ? ORDER BY id`, accessKey,
	)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(
			&it.AccessKey, &it.Code, &it.Name, &it.Quantity,
			&it.UnitType, &it.UnitPrice, &it.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		receipt.Items = append(receipt.Items, it)
	}
	return &receipt, rows.Err()
}

func (r *ReceiptRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM receipts").Scan(&count)
	return count, err
}

// CountItems reports the total number of stored line items, across all
// receipts.
func (r *ReceiptRepo) CountItems() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM receipt_items").Scan(&count)
	return count, err
}
