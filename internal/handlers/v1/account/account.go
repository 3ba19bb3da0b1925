package account

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/service"
)

// Account is the API response model for an account.
type Account struct {
	ID        string `json:"id" doc:"Account UUID"`
	UserID    string `json:"userID" doc:"Owning user UUID"`
	Balance   string `json:"balance" doc:"Decimal balance with 4 fractional digits"`
	Currency  string `json:"currency" doc:"3-letter currency code"`
	CreatedAt string `json:"createdAt" doc:"RFC3339 creation time"`
	UpdatedAt string `json:"updatedAt" doc:"RFC3339 time of the last balance change"`
}

type AccountOutput struct {
	Body Account
}

func fromService(acc *service.Account) Account {
	return Account{
		ID:        acc.ID.String(),
		UserID:    acc.UserID.String(),
		Balance:   acc.Balance.String(),
		Currency:  acc.Currency,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, huma.NewError(http.StatusBadRequest, "invalid "+field, err)
	}
	return id, nil
}
