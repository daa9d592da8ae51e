package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "orusbank/internal/errors"
	"orusbank/internal/models"
	"orusbank/internal/money"
	"orusbank/pkg/wal"
)

// accountSlot guards one account. lock is a one-token semaphore so that
// waiting for it can be abandoned when the caller's context ends.
type accountSlot struct {
	lock    chan struct{}
	account models.Account
}

func newAccountSlot(a models.Account) *accountSlot {
	return &accountSlot{lock: make(chan struct{}, 1), account: a}
}

func (s *accountSlot) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperrors.ErrStoreUnavailable.Wrap(ctx.Err())
	}
}

func (s *accountSlot) release() {
	<-s.lock
}

// journalRecord is one committed mutation of the memory store.
type journalRecord struct {
	Op           string          `json:"op"`
	Account      *journalAccount `json:"account,omitempty"`
	From         string          `json:"from,omitempty"`
	To           string          `json:"to,omitempty"`
	Amount       money.Amount    `json:"amount,omitempty"`
	AccountID    uint            `json:"account_id,omitempty"`
	TokenVersion int             `json:"token_version,omitempty"`
}

// journalAccount carries the fields models.Account hides from API output.
type journalAccount struct {
	ID            uint      `json:"id"`
	AccountNumber string    `json:"account_number"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	TokenVersion  int       `json:"token_version"`
	CreatedAt     time.Time `json:"created_at"`
}

func toJournalAccount(a models.Account) *journalAccount {
	return &journalAccount{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Username:      a.Username,
		Email:         a.Email,
		PasswordHash:  a.PasswordHash,
		TokenVersion:  a.TokenVersion,
		CreatedAt:     a.CreatedAt,
	}
}

func (j *journalAccount) account() models.Account {
	return models.Account{
		ID:            j.ID,
		AccountNumber: j.AccountNumber,
		Username:      j.Username,
		Email:         j.Email,
		PasswordHash:  j.PasswordHash,
		TokenVersion:  j.TokenVersion,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.CreatedAt,
	}
}

const (
	opCreate       = "create"
	opDelta        = "delta"
	opTransfer     = "transfer"
	opTokenVersion = "token_version"
)

type memoryAccountStore struct {
	mu         sync.RWMutex
	byNumber   map[string]*accountSlot
	byID       map[uint]*accountSlot
	byEmail    map[string]*accountSlot
	byUsername map[string]*accountSlot
	nextID     uint

	journal *wal.WAL
	draw    AccountNumberGenerator
	now     func() time.Time
}

// MemoryStoreOption customizes NewMemoryAccountStore.
type MemoryStoreOption func(*memoryAccountStore)

// WithJournal makes every committed mutation durable in journal and replays
// its existing records on construction.
func WithJournal(journal *wal.WAL) MemoryStoreOption {
	return func(s *memoryAccountStore) { s.journal = journal }
}

// WithAccountNumberGenerator replaces the random account-number source.
func WithAccountNumberGenerator(g AccountNumberGenerator) MemoryStoreOption {
	return func(s *memoryAccountStore) { s.draw = g }
}

// NewMemoryAccountStore returns an AccountStore kept in process memory.
func NewMemoryAccountStore(opts ...MemoryStoreOption) (AccountStore, error) {
	s := &memoryAccountStore{
		byNumber:   make(map[string]*accountSlot),
		byID:       make(map[uint]*accountSlot),
		byEmail:    make(map[string]*accountSlot),
		byUsername: make(map[string]*accountSlot),
		draw:       RandomAccountNumber,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.journal != nil {
		if err := s.replay(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *memoryAccountStore) replay() error {
	return s.journal.Replay(func(raw json.RawMessage) error {
		var rec journalRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("memory store: decode journal record: %w", err)
		}
		switch rec.Op {
		case opCreate:
			if rec.Account == nil {
				return fmt.Errorf("memory store: create record without account")
			}
			s.index(newAccountSlot(rec.Account.account()))
			if rec.Account.ID >= s.nextID {
				s.nextID = rec.Account.ID
			}
		case opDelta:
			slot, ok := s.byNumber[rec.To]
			if !ok {
				return fmt.Errorf("memory store: delta for unknown account %s", rec.To)
			}
			slot.account.Balance += rec.Amount
			slot.account.Version++
		case opTransfer:
			from, okFrom := s.byNumber[rec.From]
			to, okTo := s.byNumber[rec.To]
			if !okFrom || !okTo {
				return fmt.Errorf("memory store: transfer between unknown accounts %s -> %s", rec.From, rec.To)
			}
			from.account.Balance -= rec.Amount
			from.account.Version++
			to.account.Balance += rec.Amount
			to.account.Version++
		case opTokenVersion:
			if slot, ok := s.byID[rec.AccountID]; ok {
				slot.account.TokenVersion = rec.TokenVersion
			}
		default:
			return fmt.Errorf("memory store: unknown journal op %q", rec.Op)
		}
		return nil
	})
}

func (s *memoryAccountStore) record(rec journalRecord) error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.Append(rec); err != nil {
		return apperrors.ErrStoreUnavailable.Wrap(err)
	}
	return nil
}

func (s *memoryAccountStore) index(slot *accountSlot) {
	a := slot.account
	s.byNumber[a.AccountNumber] = slot
	s.byID[a.ID] = slot
	s.byEmail[normalize(a.Email)] = slot
	s.byUsername[normalize(a.Username)] = slot
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *memoryAccountStore) Create(ctx context.Context, account *models.Account) error {
	if err := ctx.Err(); err != nil {
		return apperrors.ErrStoreUnavailable.Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[normalize(account.Email)]; ok {
		return apperrors.ErrOwnerExists
	}
	if _, ok := s.byUsername[normalize(account.Username)]; ok {
		return apperrors.ErrOwnerExists
	}

	number, err := s.drawUnusedNumber()
	if err != nil {
		return err
	}

	now := s.now()
	created := *account
	created.ID = s.nextID + 1
	created.AccountNumber = number
	created.Balance = money.Zero
	created.Version = 0
	if created.TokenVersion == 0 {
		created.TokenVersion = 1
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := s.record(journalRecord{Op: opCreate, Account: toJournalAccount(created)}); err != nil {
		return err
	}
	s.nextID = created.ID
	s.index(newAccountSlot(created))
	*account = created
	return nil
}

// drawUnusedNumber must be called with s.mu held.
func (s *memoryAccountStore) drawUnusedNumber() (string, error) {
	for i := 0; i < maxAccountNumberDraws; i++ {
		number, err := s.draw()
		if err != nil {
			return "", fmt.Errorf("generate account number: %w", err)
		}
		if _, taken := s.byNumber[number]; !taken {
			return number, nil
		}
	}
	return "", apperrors.ErrConcurrentUpdate.WithMessage("could not allocate a unique account number")
}

func (s *memoryAccountStore) lookup(index map[string]*accountSlot, key string) (*accountSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := index[key]
	return slot, ok
}

// snapshot copies the account under its lock so readers never see a torn
// balance/version pair.
func (s *memoryAccountStore) snapshot(ctx context.Context, slot *accountSlot) (*models.Account, error) {
	if err := slot.acquire(ctx); err != nil {
		return nil, err
	}
	defer slot.release()
	cp := slot.account
	return &cp, nil
}

func (s *memoryAccountStore) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	s.mu.RLock()
	slot, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	return s.snapshot(ctx, slot)
}

func (s *memoryAccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	slot, ok := s.lookup(s.byEmail, normalize(email))
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	return s.snapshot(ctx, slot)
}

func (s *memoryAccountStore) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	slot, ok := s.lookup(s.byNumber, accountNumber)
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	return s.snapshot(ctx, slot)
}

func (s *memoryAccountStore) ApplyDelta(ctx context.Context, accountNumber string, delta money.Amount) (*models.Account, error) {
	slot, ok := s.lookup(s.byNumber, accountNumber)
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}
	if err := slot.acquire(ctx); err != nil {
		return nil, err
	}
	defer slot.release()

	if !money.CanCredit(slot.account.Balance, delta) {
		return nil, apperrors.ErrBalanceLimit
	}
	next := slot.account.Balance + delta
	if next < 0 {
		return nil, apperrors.ErrInsufficientBalance
	}
	if err := s.record(journalRecord{Op: opDelta, To: accountNumber, Amount: delta}); err != nil {
		return nil, err
	}
	slot.account.Balance = next
	slot.account.Version++
	slot.account.UpdatedAt = s.now()

	cp := slot.account
	return &cp, nil
}

func (s *memoryAccountStore) Transfer(ctx context.Context, from, to string, amount money.Amount) (*models.Account, *models.Account, error) {
	if amount <= 0 {
		return nil, nil, apperrors.ErrInvalidAmount
	}
	fromSlot, ok := s.lookup(s.byNumber, from)
	if !ok {
		return nil, nil, apperrors.ErrAccountNotFound.WithMessage("sender account not found")
	}
	toSlot, ok := s.lookup(s.byNumber, to)
	if !ok {
		return nil, nil, apperrors.ErrAccountNotFound.WithMessage("receiver account not found")
	}

	if from == to {
		if err := fromSlot.acquire(ctx); err != nil {
			return nil, nil, err
		}
		defer fromSlot.release()
		if fromSlot.account.Balance < amount {
			return nil, nil, apperrors.ErrInsufficientBalance
		}
		cp := fromSlot.account
		return &cp, &cp, nil
	}

	// Lock in ascending account-number order so opposite transfers between
	// the same pair cannot deadlock.
	ordered := []*accountSlot{fromSlot, toSlot}
	if to < from {
		ordered[0], ordered[1] = toSlot, fromSlot
	}
	for i, slot := range ordered {
		if err := slot.acquire(ctx); err != nil {
			for _, held := range ordered[:i] {
				held.release()
			}
			return nil, nil, err
		}
	}
	defer func() {
		for _, slot := range ordered {
			slot.release()
		}
	}()

	if fromSlot.account.Balance < amount {
		return nil, nil, apperrors.ErrInsufficientBalance
	}
	if !money.CanCredit(toSlot.account.Balance, amount) {
		return nil, nil, apperrors.ErrBalanceLimit
	}
	if err := s.record(journalRecord{Op: opTransfer, From: from, To: to, Amount: amount}); err != nil {
		return nil, nil, err
	}

	now := s.now()
	fromSlot.account.Balance -= amount
	fromSlot.account.Version++
	fromSlot.account.UpdatedAt = now
	toSlot.account.Balance += amount
	toSlot.account.Version++
	toSlot.account.UpdatedAt = now

	sender, receiver := fromSlot.account, toSlot.account
	return &sender, &receiver, nil
}

func (s *memoryAccountStore) IncrementTokenVersion(ctx context.Context, id uint) (int, error) {
	s.mu.RLock()
	slot, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return 0, apperrors.ErrAccountNotFound
	}
	if err := slot.acquire(ctx); err != nil {
		return 0, err
	}
	defer slot.release()

	next := slot.account.TokenVersion + 1
	if err := s.record(journalRecord{Op: opTokenVersion, AccountID: id, TokenVersion: next}); err != nil {
		return 0, err
	}
	slot.account.TokenVersion = next
	return next, nil
}

func (s *memoryAccountStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
