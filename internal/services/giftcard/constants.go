package giftcard

// Operation names used in logs and metrics
const (
	OpIssue            = "issue"
	OpAccept           = "accept"
	OpRedeem           = "redeem"
	OpInspect          = "inspect"
	OpVerify           = "verify"
	OpListByRecipient  = "list_by_recipient"
	OpListTransactions = "list_transactions"
)

// Operation results
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)
