package account

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/service"
)

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) CreateAccount(ctx context.Context, userID uuid.UUID, currency string) (*service.Account, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Account), args.Error(1)
}

func (m *mockAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*service.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Account), args.Error(1)
}

func (m *mockAccountService) ListUserAccounts(ctx context.Context, userID uuid.UUID) ([]service.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Account), args.Error(1)
}

func newTestAPI(t *testing.T, svc *mockAccountService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewCreateAccountHandler(svc).Register(api)
	NewGetAccountHandler(svc).Register(api)
	NewListAccountsHandler(svc).Register(api)
	return api
}

func testAccount(userID uuid.UUID, balance string) *service.Account {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &service.Account{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    userID,
		Balance:   money.MustParse(balance),
		Currency:  "USD",
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestHTTP_CreateAccount_Success(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	acc := testAccount(userID, "0")

	svc := new(mockAccountService)
	svc.On("CreateAccount", mock.Anything, userID, "usd").Return(acc, nil)

	resp := newTestAPI(t, svc).Post("/v1/accounts", CreateAccountBody{
		UserID:   userID.String(),
		Currency: "usd",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body Account
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, acc.ID.String(), body.ID)
	assert.Equal(t, "0.0000", body.Balance)
	assert.Equal(t, "USD", body.Currency)
	svc.AssertExpectations(t)
}

func TestHTTP_CreateAccount_UnknownUser(t *testing.T) {
	svc := new(mockAccountService)
	svc.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).Return(nil, ledgererr.ErrUserNotFound)

	resp := newTestAPI(t, svc).Post("/v1/accounts", CreateAccountBody{
		UserID:   uuid.Must(uuid.NewV4()).String(),
		Currency: "USD",
	})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "USER_NOT_FOUND")
}

func TestHTTP_CreateAccount_InvalidCurrency(t *testing.T) {
	svc := new(mockAccountService)
	svc.On("CreateAccount", mock.Anything, mock.Anything, "U1D").
		Return(nil, ledgererr.New(ledgererr.CodeInvalidCurrency, "invalid currency code: U1D"))

	resp := newTestAPI(t, svc).Post("/v1/accounts", CreateAccountBody{
		UserID:   uuid.Must(uuid.NewV4()).String(),
		Currency: "U1D",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHTTP_CreateAccount_InvalidUserID(t *testing.T) {
	svc := new(mockAccountService)

	resp := newTestAPI(t, svc).Post("/v1/accounts", CreateAccountBody{
		UserID:   "abc",
		Currency: "USD",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	svc.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTP_GetAccount(t *testing.T) {
	acc := testAccount(uuid.Must(uuid.NewV4()), "60")
	missing := uuid.Must(uuid.NewV4())

	svc := new(mockAccountService)
	svc.On("GetAccount", mock.Anything, acc.ID).Return(acc, nil)
	svc.On("GetAccount", mock.Anything, missing).Return(nil, ledgererr.ErrAccountNotFound)
	api := newTestAPI(t, svc)

	resp := api.Get("/v1/accounts/" + acc.ID.String())
	assert.Equal(t, http.StatusOK, resp.Code)
	var body Account
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "60.0000", body.Balance)

	resp = api.Get("/v1/accounts/" + missing.String())
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHTTP_ListAccounts(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	accounts := []service.Account{*testAccount(userID, "1"), *testAccount(userID, "2")}
	empty := uuid.Must(uuid.NewV4())

	svc := new(mockAccountService)
	svc.On("ListUserAccounts", mock.Anything, userID).Return(accounts, nil)
	svc.On("ListUserAccounts", mock.Anything, empty).Return([]service.Account{}, nil)
	api := newTestAPI(t, svc)

	resp := api.Get("/v1/users/" + userID.String() + "/accounts")
	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListAccountsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Accounts, 2)
	assert.Equal(t, accounts[0].ID.String(), body.Accounts[0].ID)

	resp = api.Get("/v1/users/" + empty.String() + "/accounts")
	assert.Equal(t, http.StatusOK, resp.Code)
	body = ListAccountsResponseBody{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotNil(t, body.Accounts)
	assert.Empty(t, body.Accounts)
}
