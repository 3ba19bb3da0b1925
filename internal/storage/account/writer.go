package account

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/storage/sqlerr"
)

// Writer runs account statements inside one database transaction.
type Writer struct {
	tx bob.Executor
	Reader
}

var _ IAccountWriter = (*Writer)(nil)

func NewWriter(tx bob.Executor) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

// FindByIDForUpdate reads the account with SELECT ... FOR UPDATE. The row
// stays locked until the surrounding transaction commits or rolls back; a
// wait longer than the session lock_timeout surfaces as LockTimeout.
func (w *Writer) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Account, error) {
	q := psql.Select(
		sm.Columns(selectColumns()...),
		sm.From(TableName),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
		sm.ForUpdate(),
	)
	row, err := bob.One(ctx, w.tx, q, scan.StructMapper[Account]())
	if err != nil {
		return nil, sqlerr.Translate(err, ledgererr.ErrAccountNotFound)
	}
	return &row, nil
}

func (w *Writer) Create(ctx context.Context, create *AccountCreate) (*Account, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.CodeInternal, err, "generate account id")
	}

	q := psql.Insert(
		im.Into(TableName, "id", "user_id", "balance", "currency"),
		im.Values(psql.Arg(id), psql.Arg(create.UserID), psql.Arg(money.Zero), psql.Arg(create.Currency)),
		im.Returning(selectColumns()...),
	)
	row, err := bob.One(ctx, w.tx, q, scan.StructMapper[Account]())
	if err != nil {
		return nil, sqlerr.Translate(err, ledgererr.ErrUserNotFound)
	}
	return &row, nil
}

func (w *Writer) UpdateBalance(ctx context.Context, id uuid.UUID, balance money.Amount) error {
	q := psql.Update(
		um.Table(TableName),
		um.SetCol("balance").ToArg(balance),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, w.tx, q)
	if err != nil {
		return sqlerr.Translate(err, ledgererr.ErrAccountNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledgererr.ErrAccountNotFound
	}
	return nil
}
