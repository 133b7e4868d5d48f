package port

import (
	"context"

	"github.com/garyjia/invoicedesk/internal/domain/entity"
)

// RunRepository records automation runs
type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	ListRecent(ctx context.Context, limit int) ([]*entity.Run, error)
	LastByAction(ctx context.Context, action entity.Action) (*entity.Run, error)
}

// TransactionManager runs fn in a transaction carried by the context;
// nested calls join the outer transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
