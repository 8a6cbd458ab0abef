package ledger

import "github.com/google/uuid"

// Currency distinguishes the two independent denominations the platform
// moves. Coin and token balances never mix inside one transaction.
type Currency string

const (
	CurrencyCoin  Currency = "coin"
	CurrencyToken Currency = "token"
)

func (c Currency) String() string {
	return string(c)
}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyCoin, CurrencyToken:
		return true
	default:
		return false
	}
}

// TreasuryOwnerID is the well-known owner of the platform's own accounts.
// It exists in both currencies and is the counterparty of every sale.
var TreasuryOwnerID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// AccountKey identifies one balance: an owner in one currency.
type AccountKey struct {
	OwnerID  uuid.UUID
	Currency Currency
}

func TreasuryAccount(currency Currency) AccountKey {
	return AccountKey{OwnerID: TreasuryOwnerID, Currency: currency}
}
