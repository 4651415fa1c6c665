package ports

import "github.com/hill399/linkedBtc/internal/core/domain"

type RepoManager interface {
	Events() domain.EventRepository
	Accounts() domain.AccountRepository
	Providers() domain.ProviderRepository
	Withdrawals() domain.WithdrawalRepository
	ConsumedTxs() domain.ConsumedTxRepository
	Close()
}
