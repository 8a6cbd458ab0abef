package ledger

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnbalancedTransaction = errors.New("ledger transaction does not sum to zero")
	ErrMixedCurrencies       = errors.New("ledger transaction mixes currencies")
	ErrEmptyTransaction      = errors.New("ledger transaction has no entries")
	ErrInsufficientFunds     = errors.New("insufficient funds")
)

// Entry is one signed delta against one account.
type Entry struct {
	Account AccountKey
	Delta   decimal.Decimal
}

// Transaction is an all-or-nothing batch of signed deltas. Money is
// conserved: a transaction may only be applied when its entries sum to
// exactly zero within a single currency.
type Transaction struct {
	ID      uuid.UUID
	Kind    string
	Entries []Entry
}

func NewTransaction(kind string, entries ...Entry) (Transaction, error) {
	tx := Transaction{
		ID:      uuid.New(),
		Kind:    kind,
		Entries: entries,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (t Transaction) Validate() error {
	if len(t.Entries) == 0 {
		return ErrEmptyTransaction
	}
	currency := t.Entries[0].Account.Currency
	sum := decimal.Zero
	for _, e := range t.Entries {
		if e.Account.Currency != currency {
			return ErrMixedCurrencies
		}
		sum = sum.Add(e.Delta)
	}
	if !sum.IsZero() {
		return ErrUnbalancedTransaction
	}
	return nil
}

func (t Transaction) Currency() Currency {
	if len(t.Entries) == 0 {
		return ""
	}
	return t.Entries[0].Account.Currency
}

// Reversed builds the equal-and-opposite compensating transaction. Used when
// a lease commit loses its race after funds already moved.
func (t Transaction) Reversed() Transaction {
	entries := make([]Entry, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = Entry{Account: e.Account, Delta: e.Delta.Neg()}
	}
	return Transaction{
		ID:      uuid.New(),
		Kind:    t.Kind + "_reversal",
		Entries: entries,
	}
}
