package domain

const (
	TxTypeDebit  = "DEBIT"
	TxTypeCredit = "CREDIT"

	TxStatusPending   = "PENDING"
	TxStatusScheduled = "SCHEDULED"
	TxStatusSuccess   = "SUCCESS"
	TxStatusFailed    = "FAILED"

	ChannelNEFT = "NEFT"
	ChannelRTGS = "RTGS"
	ChannelIMPS = "IMPS"

	ScheduleNow   = "NOW"
	ScheduleLater = "LATER"

	AccountTypeSavings = "savings"
	AccountTypeCurrent = "current"

	AccountStatusActive = "active"
	AccountStatusFrozen = "frozen"

	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)
