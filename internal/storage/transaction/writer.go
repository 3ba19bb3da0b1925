package transaction

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aarondl/opt/null"
	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/storage/sqlerr"
)

// Writer runs transaction statements inside one database transaction.
type Writer struct {
	tx bob.Executor
	Reader
}

var _ ITransactionWriter = (*Writer)(nil)

func NewWriter(tx bob.Executor) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

func (w *Writer) Insert(ctx context.Context, create *TransactionCreate) (*Transaction, error) {
	q := psql.Insert(
		im.Into(TableName,
			"id", "sender_account_id", "receiver_account_id", "amount", "currency",
			"transaction_type", "status", "description",
		),
		im.Values(
			psql.Arg(create.ID),
			psql.Arg(NullID(create.SenderAccountID)),
			psql.Arg(NullID(create.ReceiverAccountID)),
			psql.Arg(create.Amount),
			psql.Arg(create.Currency),
			psql.Arg(string(create.Kind)),
			psql.Arg(string(create.Status)),
			psql.Arg(null.FromPtr(create.Description)),
		),
		im.Returning(selectColumns()...),
	)
	row, err := bob.One(ctx, w.tx, q, scan.StructMapper[Transaction]())
	if err != nil {
		return nil, sqlerr.Translate(err, ledgererr.ErrAccountNotFound)
	}
	return &row, nil
}

// UpdateStatus moves a PENDING row to status. A row that is already terminal
// is left untouched and reported as a ConstraintViolation.
func (w *Writer) UpdateStatus(ctx context.Context, id uuid.UUID, status ledger.Status) (*Transaction, error) {
	if err := ledger.ValidateTransition(ledger.StatusPending, status); err != nil {
		return nil, err
	}

	q := psql.Update(
		um.Table(TableName),
		um.SetCol("status").ToArg(string(status)),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Where(psql.Quote("status").EQ(psql.Arg(string(ledger.StatusPending)))),
		um.Returning(selectColumns()...),
	)
	row, err := bob.One(ctx, w.tx, q, scan.StructMapper[Transaction]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgererr.New(ledgererr.CodeConstraintViolation, "transaction %s is not pending", id)
	}
	if err != nil {
		return nil, sqlerr.Translate(err, ledgererr.ErrTransactionNotFound)
	}
	return &row, nil
}
