package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mstgnz/brqpay/ledger"
)

const ledgerColumns = `id, order_id, order_transaction_id, ordernumber, type, transactions, unique_identifier,
	transaction_type, relatedtransaction, transaction_method, statuscode, status, amount, amount_credit,
	currency, is_test, refunded_items, credited_refunds, created_by_engine_at, created_at, updated_at`

// LedgerStore implements ledger.Store on SQLite
type LedgerStore struct {
	db *SQLite
}

var _ ledger.Store = (*LedgerStore)(nil)

func (s *LedgerStore) Upsert(ctx context.Context, tx *ledger.Transaction) error {
	items, err := json.Marshal(nonNilItems(tx.RefundedItems))
	if err != nil {
		return fmt.Errorf("failed to marshal refunded items: %w", err)
	}
	credited, err := json.Marshal(nonNilKeys(tx.CreditedRefunds))
	if err != nil {
		return fmt.Errorf("failed to marshal credited refunds: %w", err)
	}

	query := `
	INSERT INTO ledger_transactions (` + ledgerColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(transactions, unique_identifier)
	DO UPDATE SET
		order_id = excluded.order_id,
		order_transaction_id = excluded.order_transaction_id,
		ordernumber = excluded.ordernumber,
		type = excluded.type,
		transaction_type = excluded.transaction_type,
		relatedtransaction = excluded.relatedtransaction,
		transaction_method = excluded.transaction_method,
		statuscode = excluded.statuscode,
		status = excluded.status,
		amount = excluded.amount,
		amount_credit = excluded.amount_credit,
		currency = excluded.currency,
		is_test = excluded.is_test,
		refunded_items = excluded.refunded_items,
		credited_refunds = excluded.credited_refunds,
		created_by_engine_at = excluded.created_by_engine_at,
		updated_at = excluded.updated_at
	`

	return s.db.retry(ctx, func() error {
		_, err := s.db.db.ExecContext(ctx, query,
			tx.ID, tx.OrderID, tx.OrderTransactionID, tx.OrderNumber, string(tx.Type), tx.TransactionKey, tx.Identifier(),
			tx.TransactionType, tx.RelatedTransaction, tx.ServiceCode, tx.StatusCode, string(tx.Status),
			tx.Amount.String(), tx.AmountCredit.String(), tx.Currency, tx.IsTest, string(items), string(credited),
			formatTime(tx.CreatedByEngineAt), formatTime(tx.CreatedAt), formatTime(tx.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert ledger entry %s: %w", tx.TransactionKey, err)
		}
		return nil
	})
}

func (s *LedgerStore) Find(ctx context.Context, transactionKey, uniqueIdentifier string) (*ledger.Transaction, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_transactions WHERE transactions = ? AND unique_identifier = ?`

	var tx *ledger.Transaction
	err := s.db.retry(ctx, func() error {
		var err error
		tx, err = scanTransaction(s.db.db.QueryRowContext(ctx, query, transactionKey, uniqueIdentifier))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entry %s: %w", transactionKey, err)
	}
	return tx, nil
}

func (s *LedgerStore) FindByTransactionKey(ctx context.Context, transactionKey string) ([]*ledger.Transaction, error) {
	return s.list(ctx, `SELECT `+ledgerColumns+` FROM ledger_transactions WHERE transactions = ? ORDER BY rowid`, transactionKey)
}

func (s *LedgerStore) ListByOrder(ctx context.Context, orderID string) ([]*ledger.Transaction, error) {
	return s.list(ctx, `SELECT `+ledgerColumns+` FROM ledger_transactions WHERE order_id = ? ORDER BY rowid`, orderID)
}

func (s *LedgerStore) list(ctx context.Context, query, arg string) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction
	err := s.db.retry(ctx, func() error {
		out = nil
		rows, err := s.db.db.QueryContext(ctx, query, arg)
		if err != nil {
			return fmt.Errorf("failed to query ledger: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			tx, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			out = append(out, tx)
		}
		return rows.Err()
	})
	return out, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*ledger.Transaction, error) {
	var (
		tx                             ledger.Transaction
		typ, status, items, credited   string
		engineAt, createdAt, updatedAt string
	)
	err := row.Scan(
		&tx.ID, &tx.OrderID, &tx.OrderTransactionID, &tx.OrderNumber, &typ, &tx.TransactionKey, &tx.UniqueIdentifier,
		&tx.TransactionType, &tx.RelatedTransaction, &tx.ServiceCode, &tx.StatusCode, &status,
		&tx.Amount, &tx.AmountCredit, &tx.Currency, &tx.IsTest, &items, &credited,
		&engineAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Type = ledger.Type(typ)
	tx.Status = ledger.Status(status)
	if err := json.Unmarshal([]byte(items), &tx.RefundedItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal refunded items: %w", err)
	}
	if len(tx.RefundedItems) == 0 {
		tx.RefundedItems = nil
	}
	if err := json.Unmarshal([]byte(credited), &tx.CreditedRefunds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credited refunds: %w", err)
	}
	if len(tx.CreditedRefunds) == 0 {
		tx.CreditedRefunds = nil
	}

	if tx.CreatedByEngineAt, err = parseTime(engineAt); err != nil {
		return nil, fmt.Errorf("failed to parse engine time: %w", err)
	}
	if tx.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if tx.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &tx, nil
}

func nonNilItems(items map[string]int) map[string]int {
	if items == nil {
		return map[string]int{}
	}
	return items
}

func nonNilKeys(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
