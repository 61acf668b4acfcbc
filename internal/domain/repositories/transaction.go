package repositories

import "context"

// TxFn runs inside a transaction; repositories pick the transaction up from ctx.
type TxFn func(ctx context.Context) error

// TransactionManager runs multi-step mutations (subtree delete, restore) atomically.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
