package ledger

import (
	"context"

	"orusbank/internal/models"
	"orusbank/internal/money"
	"orusbank/internal/services/notification"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *mockStore) account(args mock.Arguments, i int) *models.Account {
	if a := args.Get(i); a != nil {
		return a.(*models.Account)
	}
	return nil
}

func (m *mockStore) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	args := m.Called(ctx, id)
	return m.account(args, 0), args.Error(1)
}

func (m *mockStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	return m.account(args, 0), args.Error(1)
}

func (m *mockStore) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	args := m.Called(ctx, accountNumber)
	return m.account(args, 0), args.Error(1)
}

func (m *mockStore) ApplyDelta(ctx context.Context, accountNumber string, delta money.Amount) (*models.Account, error) {
	args := m.Called(ctx, accountNumber, delta)
	return m.account(args, 0), args.Error(1)
}

func (m *mockStore) Transfer(ctx context.Context, from, to string, amount money.Amount) (*models.Account, *models.Account, error) {
	args := m.Called(ctx, from, to, amount)
	return m.account(args, 0), m.account(args, 1), args.Error(2)
}

func (m *mockStore) IncrementTokenVersion(ctx context.Context, id uint) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyTopUp(ctx context.Context, event notification.TopUpEvent) error {
	return m.Called(ctx, event).Error(0)
}
