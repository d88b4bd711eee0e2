package giftcard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "giftledger/internal/errors"
	"giftledger/internal/models"
	"giftledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const recipientPhone = "+15551234567"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.Called(operation, duration)
}

func (m *MockMetrics) RecordOperationResult(operation, result string) {
	m.Called(operation, result)
}

func (m *MockMetrics) RecordIssued(amount int64) {
	m.Called(amount)
}

func (m *MockMetrics) RecordRedemption(amount, remaining int64) {
	m.Called(amount, remaining)
}

func (m *MockMetrics) RecordError(operation, code string) {
	m.Called(operation, code)
}

// failingRepo injects a store failure into transactional writes.
type failingRepo struct {
	repositories.GiftCardRepository
	failCreateTransaction bool
	beforeCreate          func()
}

func (f *failingRepo) ExecuteInTransaction(ctx context.Context, fn func(repositories.GiftCardRepository) error) error {
	return f.GiftCardRepository.ExecuteInTransaction(ctx, func(tx repositories.GiftCardRepository) error {
		return fn(&failingRepo{
			GiftCardRepository:    tx,
			failCreateTransaction: f.failCreateTransaction,
			beforeCreate:          f.beforeCreate,
		})
	})
}

func (f *failingRepo) CreateTransaction(ctx context.Context, txn *models.GiftCardTransaction) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	if f.failCreateTransaction {
		return errors.New("disk full")
	}
	return f.GiftCardRepository.CreateTransaction(ctx, txn)
}

type fixture struct {
	svc   Service
	repo  repositories.GiftCardRepository
	clock *testClock
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := repositories.NewTestDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repo := repositories.NewGiftCardRepository(db)
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, Config{Now: clock.Now}, nil, nil)
	return &fixture{svc: svc, repo: repo, clock: clock}
}

func (f *fixture) issue(t *testing.T, balance int64) *models.GiftCard {
	t.Helper()
	card, err := f.svc.Issue(context.Background(), IssueRequest{
		IssuerName:     "Alice Smith",
		RecipientName:  "Bob Jones",
		RecipientPhone: recipientPhone,
		Balance:        balance,
		ExpirationDays: 30,
	})
	require.NoError(t, err)
	return card
}

func (f *fixture) issueAccepted(t *testing.T, balance int64) *models.GiftCard {
	t.Helper()
	card := f.issue(t, balance)
	card, err := f.svc.Accept(context.Background(), card.ID, recipientPhone)
	require.NoError(t, err)
	return card
}

func (f *fixture) assertLedgerConsistent(t *testing.T, cardID uuid.UUID) *models.GiftCard {
	t.Helper()
	ctx := context.Background()
	card, err := f.repo.GetByID(ctx, cardID)
	require.NoError(t, err)
	txns, total, err := f.repo.ListTransactions(ctx, cardID, 0, 1000)
	require.NoError(t, err)
	require.Len(t, txns, int(total))
	var sum int64
	for _, txn := range txns {
		sum += txn.Amount
	}

	assert.GreaterOrEqual(t, card.Balance, int64(0))
	assert.LessOrEqual(t, card.Balance, card.InitialBalance)
	assert.Equal(t, card.InitialBalance-sum, card.Balance)
	if card.IsActive {
		assert.Positive(t, card.Balance)
	}
	if card.Balance == 0 {
		assert.False(t, card.IsActive)
	}
	return card
}

func TestService_Issue(t *testing.T) {
	f := setup(t)

	card := f.issue(t, 5000)

	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, int64(5000), card.Balance)
	assert.Equal(t, card.Balance, card.InitialBalance)
	assert.False(t, card.IsAccepted)
	assert.True(t, card.IsActive)
	assert.True(t, card.ExpirationDate.Equal(f.clock.Now().Add(30*24*time.Hour)))

	stored, err := f.svc.Inspect(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, stored.ID)
	assert.Equal(t, "Alice Smith", stored.IssuerName)
}

func TestService_IssueValidation(t *testing.T) {
	valid := IssueRequest{
		IssuerName:     "Alice",
		RecipientName:  "Bob",
		RecipientPhone: recipientPhone,
		Balance:        5000,
		ExpirationDays: 30,
	}

	tests := []struct {
		name    string
		mutate  func(*IssueRequest)
		wantErr error
	}{
		{"zero balance", func(r *IssueRequest) { r.Balance = 0 }, apperrors.ErrInvalidBalance},
		{"negative balance", func(r *IssueRequest) { r.Balance = -5 }, apperrors.ErrInvalidBalance},
		{"balance over limit", func(r *IssueRequest) { r.Balance = 1_000_001 }, apperrors.ErrBalanceTooLarge},
		{"zero expiration", func(r *IssueRequest) { r.ExpirationDays = 0 }, apperrors.ErrInvalidExpirationDays},
		{"expiration over limit", func(r *IssueRequest) { r.ExpirationDays = 1826 }, apperrors.ErrExpirationTooLong},
		{"bad issuer name", func(r *IssueRequest) { r.IssuerName = "A" }, apperrors.ErrInvalidIssuerName},
		{"bad recipient name", func(r *IssueRequest) { r.RecipientName = "B0b" }, apperrors.ErrInvalidRecipientName},
		{"bad phone", func(r *IssueRequest) { r.RecipientPhone = "555-1234" }, apperrors.ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			req := valid
			tt.mutate(&req)

			card, err := f.svc.Issue(context.Background(), req)
			assert.Nil(t, card)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

			page, err := f.svc.ListByRecipient(context.Background(), recipientPhone, 1, 10)
			require.NoError(t, err)
			assert.Zero(t, page.Total)
		})
	}
}

func TestService_Accept(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	card := f.issue(t, 5000)

	_, err := f.svc.Accept(ctx, card.ID, "+15550000000")
	assert.ErrorIs(t, err, apperrors.ErrPhoneMismatch)
	stored, err := f.svc.Inspect(ctx, card.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAccepted)

	accepted, err := f.svc.Accept(ctx, card.ID, recipientPhone)
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)

	_, err = f.svc.Accept(ctx, card.ID, recipientPhone)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAccepted)

	_, err = f.svc.Accept(ctx, uuid.New(), recipientPhone)
	assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestService_AcceptExpired(t *testing.T) {
	f := setup(t)
	card := f.issue(t, 5000)
	f.clock.Advance(31 * 24 * time.Hour)

	_, err := f.svc.Accept(context.Background(), card.ID, recipientPhone)
	assert.ErrorIs(t, err, apperrors.ErrCardExpired)

	stored, err := f.svc.Inspect(context.Background(), card.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAccepted)
}

func TestService_RedeemScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	card := f.issueAccepted(t, 5000)

	card, err := f.svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 2000, Merchant: "Merchant A"})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), card.Balance)
	assert.True(t, card.IsActive)

	f.clock.Advance(time.Minute)
	card, err = f.svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 3000, Merchant: "Merchant B"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), card.Balance)
	assert.False(t, card.IsActive)

	page, err := f.svc.ListTransactions(ctx, card.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Merchant B", page.Items[0].Merchant)
	assert.Equal(t, "Merchant A", page.Items[1].Merchant)
	assert.Equal(t, int64(5000), page.Items[0].Amount+page.Items[1].Amount)

	_, err = f.svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 1, Merchant: "Merchant C"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	f.assertLedgerConsistent(t, card.ID)
}

func TestService_RedeemRejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture) uuid.UUID
		amount  int64
		wantErr error
	}{
		{
			name:    "unknown card",
			prepare: func(t *testing.T, f *fixture) uuid.UUID { return uuid.New() },
			amount:  100,
			wantErr: apperrors.ErrCardNotFound,
		},
		{
			name:    "not accepted",
			prepare: func(t *testing.T, f *fixture) uuid.UUID { return f.issue(t, 5000).ID },
			amount:  100,
			wantErr: apperrors.ErrCardNotAccepted,
		},
		{
			name: "expired",
			prepare: func(t *testing.T, f *fixture) uuid.UUID {
				id := f.issueAccepted(t, 5000).ID
				f.clock.Advance(30 * 24 * time.Hour)
				return id
			},
			amount:  100,
			wantErr: apperrors.ErrCardExpired,
		},
		{
			name:    "zero amount",
			prepare: func(t *testing.T, f *fixture) uuid.UUID { return f.issueAccepted(t, 5000).ID },
			amount:  0,
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "over balance",
			prepare: func(t *testing.T, f *fixture) uuid.UUID { return f.issueAccepted(t, 5000).ID },
			amount:  5001,
			wantErr: apperrors.ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()
			id := tt.prepare(t, f)

			card, err := f.svc.Redeem(ctx, RedeemRequest{CardID: id, Amount: tt.amount, Merchant: "Merchant A"})
			assert.Nil(t, card)
			assert.ErrorIs(t, err, tt.wantErr)

			if errors.Is(err, apperrors.ErrCardNotFound) {
				return
			}
			stored := f.assertLedgerConsistent(t, id)
			assert.Equal(t, int64(5000), stored.Balance)
		})
	}
}

func TestService_RedeemRequiresMerchant(t *testing.T) {
	f := setup(t)
	card := f.issueAccepted(t, 5000)

	_, err := f.svc.Redeem(context.Background(), RedeemRequest{CardID: card.ID, Amount: 100, Merchant: "   "})
	assert.ErrorIs(t, err, apperrors.ErrMerchantRequired)
}

func TestService_RedeemMerchantLength(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	card := f.issueAccepted(t, 5000)

	_, err := f.svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 100, Merchant: strings.Repeat("m", 101)})
	assert.ErrorIs(t, err, apperrors.ErrMerchantTooLong)
	assert.Equal(t, int64(5000), f.assertLedgerConsistent(t, card.ID).Balance)

	redeemed, err := f.svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 100, Merchant: strings.Repeat("é", 100)})
	require.NoError(t, err)
	assert.Equal(t, int64(4900), redeemed.Balance)
}

func TestService_RedeemInactiveWithBalance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	card := f.issueAccepted(t, 5000)
	require.NoError(t, f.repo.UpdateBalance(ctx, card.ID, 5000, false, f.clock.Now()))

	_, err := f.svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 100, Merchant: "Merchant A"})
	assert.ErrorIs(t, err, apperrors.ErrCardInactive)
}

func TestService_RedeemRollsBackOnStoreFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	card := f.issueAccepted(t, 5000)

	svc := NewService(&failingRepo{GiftCardRepository: f.repo, failCreateTransaction: true}, Config{Now: f.clock.Now}, nil, nil)
	_, err := svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 2000, Merchant: "Merchant A"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindStore, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "disk full")

	stored := f.assertLedgerConsistent(t, card.ID)
	assert.Equal(t, int64(5000), stored.Balance)
	assert.True(t, stored.IsActive)
}

func TestService_RedeemRollsBackOnCancel(t *testing.T) {
	f := setup(t)
	card := f.issueAccepted(t, 5000)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := NewService(&failingRepo{GiftCardRepository: f.repo, beforeCreate: cancel}, Config{Now: f.clock.Now}, nil, nil)

	_, err := svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 2000, Merchant: "Merchant A"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindStore, apperrors.KindOf(err))

	stored := f.assertLedgerConsistent(t, card.ID)
	assert.Equal(t, int64(5000), stored.Balance)
}

func TestService_ConcurrentRedeemsNeverOverspend(t *testing.T) {
	f := setup(t)
	card := f.issueAccepted(t, 5000)

	const workers = 8
	var (
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := f.svc.Redeem(context.Background(), RedeemRequest{CardID: card.ID, Amount: 3000, Merchant: "Merchant A"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrInsufficientBalance):
				rejected++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	stored := f.assertLedgerConsistent(t, card.ID)
	assert.Equal(t, int64(2000), stored.Balance)
}

func TestService_ConcurrentRedeemsDrainExactly(t *testing.T) {
	f := setup(t)
	card := f.issueAccepted(t, 5000)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := f.svc.Redeem(context.Background(), RedeemRequest{CardID: card.ID, Amount: 700, Merchant: "Merchant A"})
			if err != nil && !errors.Is(err, apperrors.ErrInsufficientBalance) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stored := f.assertLedgerConsistent(t, card.ID)
	assert.Equal(t, int64(5000-7*700), stored.Balance)
}

func TestService_BalanceMonotonic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	card := f.issueAccepted(t, 10000)

	prev := card.Balance
	for _, amount := range []int64{1, 999, 2500, 3000, 500, 4000, 1000, 1} {
		got, err := f.svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: amount, Merchant: "Merchant A"})
		if err != nil {
			assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
			stored := f.assertLedgerConsistent(t, card.ID)
			assert.Equal(t, prev, stored.Balance)
			continue
		}
		assert.Less(t, got.Balance, prev)
		prev = got.Balance
		f.assertLedgerConsistent(t, card.ID)
	}
}

func TestService_Verify(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	card := f.issue(t, 5000)

	v, err := f.svc.Verify(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, v.ID)
	assert.False(t, v.IsRedeemable)

	_, err = f.svc.Accept(ctx, card.ID, recipientPhone)
	require.NoError(t, err)
	v, err = f.svc.Verify(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, v.IsRedeemable)
	assert.False(t, v.IsExpired)

	f.clock.Advance(30 * 24 * time.Hour)
	v, err = f.svc.Verify(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, v.IsExpired)
	assert.False(t, v.IsRedeemable)
	assert.True(t, v.IsActive)

	_, err = f.svc.Verify(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
}

func TestService_ListByRecipient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		ids = append(ids, f.issue(t, int64(1000*(i+1))).ID)
		f.clock.Advance(time.Second)
	}

	page, err := f.svc.ListByRecipient(ctx, recipientPhone, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)

	page, err = f.svc.ListByRecipient(ctx, recipientPhone, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)

	_, err = f.svc.ListByRecipient(ctx, "not-a-phone", 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPhone)
}

func TestService_ListTransactionsUnknownCard(t *testing.T) {
	f := setup(t)

	_, err := f.svc.ListTransactions(context.Background(), uuid.New(), 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrCardNotFound)
}

func TestService_RecordsMetrics(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	card := f.issueAccepted(t, 5000)

	metrics := new(MockMetrics)
	metrics.On("RecordOperationDuration", OpRedeem, mock.Anything).Return()
	metrics.On("RecordOperationResult", OpRedeem, ResultSuccess).Return().Once()
	metrics.On("RecordRedemption", int64(2000), int64(3000)).Return().Once()
	metrics.On("RecordOperationResult", OpRedeem, ResultRejected).Return().Once()
	metrics.On("RecordError", OpRedeem, "INSUFFICIENT_BALANCE").Return().Once()

	svc := NewService(f.repo, Config{Now: f.clock.Now}, nil, metrics)
	_, err := svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 2000, Merchant: "Merchant A"})
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 9000, Merchant: "Merchant A"})
	require.Error(t, err)

	metrics.AssertExpectations(t)
}

type recordingNotifier struct {
	issued   []uuid.UUID
	redeemed []int64
	err      error
}

func (n *recordingNotifier) GiftCardIssued(_ context.Context, card *models.GiftCard) error {
	n.issued = append(n.issued, card.ID)
	return n.err
}

func (n *recordingNotifier) GiftCardRedeemed(_ context.Context, _ *models.GiftCard, amount int64, _ string) error {
	n.redeemed = append(n.redeemed, amount)
	return n.err
}

func TestService_NotifiesRecipient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	notifier := &recordingNotifier{err: errors.New("gateway down")}
	svc := NewService(f.repo, Config{Now: f.clock.Now, Notifier: notifier}, nil, nil)

	card, err := svc.Issue(ctx, IssueRequest{
		IssuerName:     "Alice",
		RecipientName:  "Bob",
		RecipientPhone: recipientPhone,
		Balance:        5000,
		ExpirationDays: 30,
	})
	require.NoError(t, err)
	_, err = svc.Accept(ctx, card.ID, recipientPhone)
	require.NoError(t, err)
	card, err = svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 2000, Merchant: "Coffee Shop"})
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, RedeemRequest{CardID: card.ID, Amount: 9000, Merchant: "Coffee Shop"})
	require.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	assert.Equal(t, []uuid.UUID{card.ID}, notifier.issued)
	assert.Equal(t, []int64{2000}, notifier.redeemed)
	assert.Equal(t, int64(3000), card.Balance)
}
