package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// Date renders a calendar date as YYYY-MM-DD.
type Date time.Time

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(domain.DateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 {
		return domain.ErrValidation
	}
	t, err := domain.ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

func datePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}

// mapSlice converts every element with fn.
func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// BankResponse represents a bank in API responses.
type BankResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	AccountNumber     string          `json:"account_number"`
	BranchName        string          `json:"branch_name,omitempty"`
	AccountHolderName string          `json:"account_holder_name,omitempty"`
	AccountType       string          `json:"account_type,omitempty"`
	OpeningBalance    decimal.Decimal `json:"opening_balance"`
	CurrentBalance    decimal.Decimal `json:"current_balance"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BankFromDomain converts a domain bank to response.
func BankFromDomain(b *domain.Bank) *BankResponse {
	return &BankResponse{
		ID:                b.ID,
		Name:              b.Name,
		AccountNumber:     b.AccountNumber,
		BranchName:        b.BranchName,
		AccountHolderName: b.AccountHolderName,
		AccountType:       b.AccountType,
		OpeningBalance:    b.OpeningBalance,
		CurrentBalance:    b.CurrentBalance,
		Active:            b.Active,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// BanksFromDomain converts domain banks to responses.
func BanksFromDomain(banks []*domain.Bank) []*BankResponse {
	return mapSlice(banks, BankFromDomain)
}

// TotalBalanceResponse is the sum over active banks.
type TotalBalanceResponse struct {
	TotalBalance decimal.Decimal `json:"total_balance"`
}

// BankLedgerEntryResponse represents a bank ledger entry.
type BankLedgerEntryResponse struct {
	ID           string          `json:"id"`
	BankID       string          `json:"bank_id"`
	Date         Date            `json:"date"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Description  string          `json:"description,omitempty"`
	ChequeID     *string         `json:"cheque_id,omitempty"`
	RegisterID   *string         `json:"register_id,omitempty"`
	ReversalOf   *string         `json:"reversal_of,omitempty"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// BankLedgerEntryFromDomain converts a domain ledger entry to response.
func BankLedgerEntryFromDomain(e *domain.BankLedgerEntry) *BankLedgerEntryResponse {
	if e == nil {
		return nil
	}
	return &BankLedgerEntryResponse{
		ID:           e.ID,
		BankID:       e.BankID,
		Date:         Date(e.Date),
		Debit:        e.Debit,
		Credit:       e.Credit,
		BalanceAfter: e.BalanceAfter,
		Description:  e.Description,
		ChequeID:     e.ChequeID,
		RegisterID:   e.RegisterID,
		ReversalOf:   e.ReversalOf,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
	}
}

// BankLedgerEntriesFromDomain converts domain ledger entries to responses.
func BankLedgerEntriesFromDomain(entries []*domain.BankLedgerEntry) []*BankLedgerEntryResponse {
	return mapSlice(entries, BankLedgerEntryFromDomain)
}

// BankReconciliationResponse compares a bank's cached and replayed balance.
type BankReconciliationResponse struct {
	BankID          string          `json:"bank_id"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	CachedBalance   decimal.Decimal `json:"cached_balance"`
	ReplayedBalance decimal.Decimal `json:"replayed_balance"`
	TotalCredits    decimal.Decimal `json:"total_credits"`
	TotalDebits     decimal.Decimal `json:"total_debits"`
	EntryCount      int             `json:"entry_count"`
	FirstMismatchID string          `json:"first_mismatch_id,omitempty"`
	Balanced        bool            `json:"balanced"`
}

// BankReconciliationFromDomain converts a reconciliation to response.
func BankReconciliationFromDomain(r *domain.BankReconciliation) *BankReconciliationResponse {
	return &BankReconciliationResponse{
		BankID:          r.BankID,
		OpeningBalance:  r.OpeningBalance,
		CachedBalance:   r.CachedBalance,
		ReplayedBalance: r.ReplayedBalance,
		TotalCredits:    r.TotalCredits,
		TotalDebits:     r.TotalDebits,
		EntryCount:      r.EntryCount,
		FirstMismatchID: r.FirstMismatchID,
		Balanced:        r.Balanced,
	}
}

// CashBookEntryResponse represents a cash book row.
type CashBookEntryResponse struct {
	ID              string          `json:"id"`
	BranchID        string          `json:"branch_id"`
	Sequence        int64           `json:"sequence"`
	TransactionDate Date            `json:"transaction_date"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	RunningBalance  decimal.Decimal `json:"running_balance"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category,omitempty"`
	ReferenceType   string          `json:"reference_type,omitempty"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	UserID          string          `json:"user_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CashBookEntryFromDomain converts a domain cash book entry to response.
func CashBookEntryFromDomain(e *domain.CashBookEntry) *CashBookEntryResponse {
	if e == nil {
		return nil
	}
	return &CashBookEntryResponse{
		ID:              e.ID,
		BranchID:        e.BranchID,
		Sequence:        e.Sequence,
		TransactionDate: Date(e.TransactionDate),
		Debit:           e.Debit,
		Credit:          e.Credit,
		RunningBalance:  e.RunningBalance,
		Description:     e.Description,
		Category:        e.Category,
		ReferenceType:   e.ReferenceType,
		ReferenceID:     e.ReferenceID,
		UserID:          e.UserID,
		CreatedAt:       e.CreatedAt,
	}
}

// CashBookEntriesFromDomain converts domain cash book entries to responses.
func CashBookEntriesFromDomain(entries []*domain.CashBookEntry) []*CashBookEntryResponse {
	return mapSlice(entries, CashBookEntryFromDomain)
}

// CashBookSummaryResponse totals a branch's cash book over a date range.
type CashBookSummaryResponse struct {
	BranchID       string          `json:"branch_id"`
	StartDate      Date            `json:"start_date"`
	EndDate        Date            `json:"end_date"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalReceipts  decimal.Decimal `json:"total_receipts"`
	TotalPayments  decimal.Decimal `json:"total_payments"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// CashBookSummaryFromDomain converts a summary to response.
func CashBookSummaryFromDomain(s *domain.CashBookSummary) *CashBookSummaryResponse {
	return &CashBookSummaryResponse{
		BranchID:       s.BranchID,
		StartDate:      Date(s.StartDate),
		EndDate:        Date(s.EndDate),
		OpeningBalance: s.OpeningBalance,
		TotalReceipts:  s.TotalReceipts,
		TotalPayments:  s.TotalPayments,
		ClosingBalance: s.ClosingBalance,
	}
}

// CashBookVerificationResponse reports a branch's conservation check.
type CashBookVerificationResponse struct {
	BranchID        string          `json:"branch_id"`
	EntryCount      int             `json:"entry_count"`
	FinalBalance    decimal.Decimal `json:"final_balance"`
	FirstMismatchID string          `json:"first_mismatch_id,omitempty"`
	Valid           bool            `json:"valid"`
}

// CashBookVerificationFromDomain converts a verification to response.
func CashBookVerificationFromDomain(v *domain.CashBookVerification) *CashBookVerificationResponse {
	return &CashBookVerificationResponse{
		BranchID:        v.BranchID,
		EntryCount:      v.EntryCount,
		FinalBalance:    v.FinalBalance,
		FirstMismatchID: v.FirstMismatchID,
		Valid:           v.Valid,
	}
}

// RegisterResponse represents a cash register.
type RegisterResponse struct {
	ID                     string           `json:"id"`
	BranchID               string           `json:"branch_id"`
	RegisterDate           Date             `json:"register_date"`
	Status                 string           `json:"status"`
	OpeningBalance         decimal.Decimal  `json:"opening_balance"`
	ClosingBalance         *decimal.Decimal `json:"closing_balance,omitempty"`
	ExpectedClosingBalance decimal.Decimal  `json:"expected_closing_balance"`
	CashInTotal            decimal.Decimal  `json:"cash_in_total"`
	CashOutTotal           decimal.Decimal  `json:"cash_out_total"`
	SalesTotal             decimal.Decimal  `json:"sales_total"`
	Discrepancy            *decimal.Decimal `json:"discrepancy,omitempty"`
	OpenedBy               string           `json:"opened_by"`
	OpenedAt               time.Time        `json:"opened_at"`
	ClosedBy               *string          `json:"closed_by,omitempty"`
	ClosedAt               *time.Time       `json:"closed_at,omitempty"`
	DepositedBankID        *string          `json:"deposited_bank_id,omitempty"`
	DepositedAmount        *decimal.Decimal `json:"deposited_amount,omitempty"`
	DepositedAt            *time.Time       `json:"deposited_at,omitempty"`
	DepositedBy            *string          `json:"deposited_by,omitempty"`
	Notes                  string           `json:"notes,omitempty"`
}

// RegisterFromDomain converts a domain register to response.
func RegisterFromDomain(r *domain.CashRegister) *RegisterResponse {
	return &RegisterResponse{
		ID:                     r.ID,
		BranchID:               r.BranchID,
		RegisterDate:           Date(r.RegisterDate),
		Status:                 string(r.Status),
		OpeningBalance:         r.OpeningBalance,
		ClosingBalance:         r.ClosingBalance,
		ExpectedClosingBalance: r.ExpectedClosingBalance,
		CashInTotal:            r.CashInTotal,
		CashOutTotal:           r.CashOutTotal,
		SalesTotal:             r.SalesTotal,
		Discrepancy:            r.Discrepancy,
		OpenedBy:               r.OpenedBy,
		OpenedAt:               r.OpenedAt,
		ClosedBy:               r.ClosedBy,
		ClosedAt:               r.ClosedAt,
		DepositedBankID:        r.DepositedBankID,
		DepositedAmount:        r.DepositedAmount,
		DepositedAt:            r.DepositedAt,
		DepositedBy:            r.DepositedBy,
		Notes:                  r.Notes,
	}
}

// RegistersFromDomain converts domain registers to responses.
func RegistersFromDomain(regs []*domain.CashRegister) []*RegisterResponse {
	return mapSlice(regs, RegisterFromDomain)
}

// RegisterTransactionResponse represents one register movement.
type RegisterTransactionResponse struct {
	ID              string          `json:"id"`
	RegisterID      string          `json:"register_id"`
	Type            string          `json:"type"`
	Direction       string          `json:"direction"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	UserID          string          `json:"user_id"`
	CashBookEntryID string          `json:"cash_book_entry_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RegisterTransactionFromDomain converts a movement to response.
func RegisterTransactionFromDomain(t *domain.CashRegisterTransaction) *RegisterTransactionResponse {
	return &RegisterTransactionResponse{
		ID:              t.ID,
		RegisterID:      t.RegisterID,
		Type:            string(t.Type),
		Direction:       string(t.Direction),
		Amount:          t.Amount,
		Description:     t.Description,
		Category:        t.Category,
		Reference:       t.Reference,
		UserID:          t.UserID,
		CashBookEntryID: t.CashBookEntryID,
		CreatedAt:       t.CreatedAt,
	}
}

// RegisterTransactionsFromDomain converts movements to responses.
func RegisterTransactionsFromDomain(txns []*domain.CashRegisterTransaction) []*RegisterTransactionResponse {
	return mapSlice(txns, RegisterTransactionFromDomain)
}

// RecordTransactionResponse is what a cash movement produced.
type RecordTransactionResponse struct {
	Register      *RegisterResponse            `json:"register"`
	Transaction   *RegisterTransactionResponse `json:"transaction"`
	CashBookEntry *CashBookEntryResponse       `json:"cash_book_entry"`
}

// RecordTransactionFromResult converts a use case result to response.
func RecordTransactionFromResult(r *usecase.RecordTransactionResult) *RecordTransactionResponse {
	return &RecordTransactionResponse{
		Register:      RegisterFromDomain(r.Register),
		Transaction:   RegisterTransactionFromDomain(r.Transaction),
		CashBookEntry: CashBookEntryFromDomain(r.CashBookEntry),
	}
}

// DepositResponse is what a register deposit produced.
type DepositResponse struct {
	Register      *RegisterResponse        `json:"register"`
	LedgerEntry   *BankLedgerEntryResponse `json:"ledger_entry"`
	CashBookEntry *CashBookEntryResponse   `json:"cash_book_entry,omitempty"`
}

// DepositFromResult converts a deposit result to response.
func DepositFromResult(r *usecase.DepositResult) *DepositResponse {
	return &DepositResponse{
		Register:      RegisterFromDomain(r.Register),
		LedgerEntry:   BankLedgerEntryFromDomain(r.LedgerEntry),
		CashBookEntry: CashBookEntryFromDomain(r.CashBookEntry),
	}
}

// RegisterDailySummaryResponse aggregates a branch's registers for a day.
type RegisterDailySummaryResponse struct {
	BranchID         string          `json:"branch_id"`
	Date             Date            `json:"date"`
	RegisterCount    int             `json:"register_count"`
	OpenCount        int             `json:"open_count"`
	TotalOpening     decimal.Decimal `json:"total_opening"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalCashIn      decimal.Decimal `json:"total_cash_in"`
	TotalCashOut     decimal.Decimal `json:"total_cash_out"`
	TotalExpected    decimal.Decimal `json:"total_expected"`
	TotalClosing     decimal.Decimal `json:"total_closing"`
	TotalDiscrepancy decimal.Decimal `json:"total_discrepancy"`
	TotalDeposited   decimal.Decimal `json:"total_deposited"`
}

// RegisterDailySummaryFromDomain converts a daily summary to response.
func RegisterDailySummaryFromDomain(s *domain.RegisterDailySummary) *RegisterDailySummaryResponse {
	return &RegisterDailySummaryResponse{
		BranchID:         s.BranchID,
		Date:             Date(s.Date),
		RegisterCount:    s.RegisterCount,
		OpenCount:        s.OpenCount,
		TotalOpening:     s.TotalOpening,
		TotalSales:       s.TotalSales,
		TotalCashIn:      s.TotalCashIn,
		TotalCashOut:     s.TotalCashOut,
		TotalExpected:    s.TotalExpected,
		TotalClosing:     s.TotalClosing,
		TotalDiscrepancy: s.TotalDiscrepancy,
		TotalDeposited:   s.TotalDeposited,
	}
}

// ChequeResponse represents an incoming cheque.
type ChequeResponse struct {
	ID                string          `json:"id"`
	ChequeNumber      string          `json:"cheque_number"`
	Amount            decimal.Decimal `json:"amount"`
	ChequeDate        Date            `json:"cheque_date"`
	DepositDate       *Date           `json:"deposit_date,omitempty"`
	ClearanceDate     *Date           `json:"clearance_date,omitempty"`
	BankID            string          `json:"bank_id"`
	CustomerID        *string         `json:"customer_id,omitempty"`
	SupplierID        *string         `json:"supplier_id,omitempty"`
	ReceivedFrom      string          `json:"received_from,omitempty"`
	ReferenceNumber   string          `json:"reference_number,omitempty"`
	Status            string          `json:"status"`
	RecordedInBank    bool            `json:"recorded_in_bank"`
	BankLedgerEntryID *string         `json:"bank_ledger_entry_id,omitempty"`
	Reconciled        bool            `json:"reconciled"`
	ReconciledDate    *Date           `json:"reconciled_date,omitempty"`
	BounceReason      string          `json:"bounce_reason,omitempty"`
	BounceDate        *Date           `json:"bounce_date,omitempty"`
	Remarks           string          `json:"remarks,omitempty"`
	CreatedBy         string          `json:"created_by"`
	UpdatedBy         string          `json:"updated_by"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ChequeFromDomain converts a domain cheque to response.
func ChequeFromDomain(c *domain.IncomingCheque) *ChequeResponse {
	return &ChequeResponse{
		ID:                c.ID,
		ChequeNumber:      c.ChequeNumber,
		Amount:            c.Amount,
		ChequeDate:        Date(c.ChequeDate),
		DepositDate:       datePtr(c.DepositDate),
		ClearanceDate:     datePtr(c.ClearanceDate),
		BankID:            c.BankID,
		CustomerID:        c.CustomerID,
		SupplierID:        c.SupplierID,
		ReceivedFrom:      c.ReceivedFrom,
		ReferenceNumber:   c.ReferenceNumber,
		Status:            string(c.Status),
		RecordedInBank:    c.RecordedInBank,
		BankLedgerEntryID: c.BankLedgerEntryID,
		Reconciled:        c.Reconciled,
		ReconciledDate:    datePtr(c.ReconciledDate),
		BounceReason:      c.BounceReason,
		BounceDate:        datePtr(c.BounceDate),
		Remarks:           c.Remarks,
		CreatedBy:         c.CreatedBy,
		UpdatedBy:         c.UpdatedBy,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ChequesFromDomain converts domain cheques to responses.
func ChequesFromDomain(cheques []*domain.IncomingCheque) []*ChequeResponse {
	return mapSlice(cheques, ChequeFromDomain)
}

// ChequeBucketResponse is a count and amount total.
type ChequeBucketResponse struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// ChequeStatisticsResponse breaks cheques down by status.
type ChequeStatisticsResponse struct {
	Total      ChequeBucketResponse `json:"total"`
	Pending    ChequeBucketResponse `json:"pending"`
	Deposited  ChequeBucketResponse `json:"deposited"`
	Cleared    ChequeBucketResponse `json:"cleared"`
	Reconciled ChequeBucketResponse `json:"reconciled"`
	Bounced    ChequeBucketResponse `json:"bounced"`
	Cancelled  ChequeBucketResponse `json:"cancelled"`
}

// ChequeStatisticsFromDomain converts statistics to response.
func ChequeStatisticsFromDomain(s domain.ChequeStatistics) *ChequeStatisticsResponse {
	bucket := func(b domain.ChequeBucket) ChequeBucketResponse {
		return ChequeBucketResponse{Count: b.Count, Amount: b.Amount}
	}
	return &ChequeStatisticsResponse{
		Total:      bucket(s.Total),
		Pending:    bucket(s.Pending),
		Deposited:  bucket(s.Deposited),
		Cleared:    bucket(s.Cleared),
		Reconciled: bucket(s.Reconciled),
		Bounced:    bucket(s.Bounced),
		Cancelled:  bucket(s.Cancelled),
	}
}

// ReconciliationReportResponse is the cross-check of banks and cash books.
type ReconciliationReportResponse struct {
	TotalBanks         int                             `json:"total_banks"`
	BalancedBanks      int                             `json:"balanced_banks"`
	BankDiscrepancies  []*BankReconciliationResponse   `json:"bank_discrepancies"`
	BranchesChecked    int                             `json:"branches_checked"`
	CashBookMismatches []*CashBookVerificationResponse `json:"cash_book_mismatches"`
	Consistent         bool                            `json:"consistent"`
	CheckedAt          time.Time                       `json:"checked_at"`
}

// ReconciliationReportFromDomain converts a report to response.
func ReconciliationReportFromDomain(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	return &ReconciliationReportResponse{
		TotalBanks:         r.TotalBanks,
		BalancedBanks:      r.BalancedBanks,
		BankDiscrepancies:  mapSlice(r.BankDiscrepancies, BankReconciliationFromDomain),
		BranchesChecked:    r.BranchesChecked,
		CashBookMismatches: mapSlice(r.CashBookMismatches, CashBookVerificationFromDomain),
		Consistent:         r.Consistent,
		CheckedAt:          r.CheckedAt,
	}
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// AuditLogResponse is one audit trail row.
type AuditLogResponse struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	RequestID    string         `json:"request_id,omitempty"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditLogFromDomain converts an audit row to response.
func AuditLogFromDomain(l *domain.AuditLog) *AuditLogResponse {
	return &AuditLogResponse{
		ID:           l.ID,
		UserID:       l.UserID,
		Action:       l.Action,
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID,
		RequestID:    l.RequestID,
		BeforeState:  l.BeforeState,
		AfterState:   l.AfterState,
		Status:       l.Status,
		ErrorMessage: l.ErrorMessage,
		CreatedAt:    l.CreatedAt,
	}
}

// OutboxEventResponse is one emitted event and its delivery state.
type OutboxEventResponse struct {
	ID            string         `json:"id"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
	Published     bool           `json:"published"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// OutboxEventFromDomain converts an outbox event to response.
func OutboxEventFromDomain(e *domain.OutboxEvent) *OutboxEventResponse {
	return &OutboxEventResponse{
		ID:            e.ID,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		EventType:     e.EventType,
		Payload:       e.Payload,
		Published:     e.Published,
		PublishedAt:   e.PublishedAt,
		CreatedAt:     e.CreatedAt,
	}
}

// AuditLogsFromDomain converts audit rows to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	return mapSlice(logs, AuditLogFromDomain)
}

// OutboxEventsFromDomain converts outbox events to responses.
func OutboxEventsFromDomain(events []*domain.OutboxEvent) []*OutboxEventResponse {
	return mapSlice(events, OutboxEventFromDomain)
}
