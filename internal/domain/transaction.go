package domain

// TransactionType tags a history record with the movement that produced it.
type TransactionType string

const (
	TxTypeDeposit             TransactionType = "DEPOSIT"
	TxTypeCredited            TransactionType = "CREDITED"
	TxTypeDebited             TransactionType = "DEBITED"
	TxTypeWithdraw            TransactionType = "WITHDRAW"
	TxTypeBankToWalletDeposit TransactionType = "BANK_TO_WALLET_DEPOSIT"
	TxTypeWalletTransfer      TransactionType = "WALLET_TO_WALLET_TRANSFER"
)

const (
	TxStatusSuccess = "SUCCESS"
	TxStatusFailed  = "FAILED"
)

// DebtStatus is the lifecycle state of an accrued maintenance fee.
type DebtStatus string

const (
	DebtPending DebtStatus = "PENDING"
	DebtPaid    DebtStatus = "PAID"
	DebtOverdue DebtStatus = "OVERDUE"
)
