package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/auth"
)

var errInconsistent = errors.New("reconciliation FAILED: books are not consistent")

func tokenCmd() *cobra.Command {
	var (
		secret string
		user   domain.User
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed JWT for the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret (or JWT_SECRET) is required")
			}
			user.Role = domain.Role(role)
			if !user.Role.IsValid() {
				return fmt.Errorf("invalid role %q", role)
			}
			if user.ID == "" {
				return errors.New("--user-id is required")
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret")
	cmd.Flags().StringVar(&user.ID, "user-id", "", "User id")
	cmd.Flags().StringVar(&user.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&user.Email, "email", "", "Email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleCashier), "admin, cashier or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func banksCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "banks", Short: "Bank account operations"}

	var activeOnly bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List bank accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if activeOnly {
				q.Set("active", "true")
			}
			var banks []dto.BankResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/banks", q, nil, &banks); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tACCOUNT\tBALANCE\tACTIVE")
			for _, b := range banks {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n", b.ID, truncate(b.Name, 30), b.AccountNumber, b.CurrentBalance.StringFixed(2), b.Active)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&activeOnly, "active", false, "Only active accounts")

	total := &cobra.Command{
		Use:   "total",
		Short: "Sum of all active bank balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.TotalBalanceResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/banks/total-balance", nil, nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total balance: %s\n", resp.TotalBalance.StringFixed(2))
			return nil
		},
	}

	cmd.AddCommand(list, total)
	return cmd
}

func registersCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "registers", Short: "Cash register operations"}

	var branch string
	current := &cobra.Command{
		Use:   "current",
		Short: "Show today's open register for a branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			var reg dto.RegisterResponse
			q := url.Values{"branch_id": {branch}}
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/registers/current", q, nil, &reg); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reg)
		},
	}

	var date string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Daily register summary for a branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"branch_id": {branch}}
			if date != "" {
				q.Set("date", date)
			}
			var resp dto.RegisterDailySummaryResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/registers/summary", q, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	summary.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (default today)")

	var opening, notes string
	open := &cobra.Command{
		Use:   "open",
		Short: "Open today's register for a branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := dto.OpenRegisterRequest{BranchID: branch, OpeningBalance: opening, Notes: notes}
			var reg dto.RegisterResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/registers", nil, body, &reg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened register %s with %s\n", reg.ID, reg.OpeningBalance.StringFixed(2))
			return nil
		},
	}
	open.Flags().StringVar(&opening, "opening", "0", "Opening balance")
	open.Flags().StringVar(&notes, "notes", "", "Notes")

	for _, c := range []*cobra.Command{open, current, summary} {
		c.Flags().StringVar(&branch, "branch", "", "Branch id")
		_ = c.MarkFlagRequired("branch")
	}

	cmd.AddCommand(open, current, summary)
	return cmd
}

func saleCmd(opts *clientOptions) *cobra.Command {
	var body dto.SaleRequest

	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Record a completed sale on the branch's open register",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.RecordTransactionResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/sales", nil, body, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&body.BranchID, "branch", "", "Branch id")
	cmd.Flags().StringVar(&body.Amount, "amount", "", "Sale amount")
	cmd.Flags().StringVar(&body.Reference, "reference", "", "Invoice or receipt reference")
	cmd.Flags().StringVar(&body.Description, "description", "", "Description")
	_ = cmd.MarkFlagRequired("branch")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func chequesCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "cheques", Short: "Incoming cheque operations"}

	var from, to string
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Cheque counts and amounts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if from != "" {
				q.Set("from", from)
			}
			if to != "" {
				q.Set("to", to)
			}
			var resp dto.ChequeStatisticsResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/cheques/statistics", q, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tCOUNT\tAMOUNT")
			for _, row := range []struct {
				name string
				b    dto.ChequeBucketResponse
			}{
				{"PENDING", resp.Pending},
				{"DEPOSITED", resp.Deposited},
				{"CLEARED", resp.Cleared},
				{"RECONCILED", resp.Reconciled},
				{"BOUNCED", resp.Bounced},
				{"CANCELLED", resp.Cancelled},
				{"TOTAL", resp.Total},
			} {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", row.name, row.b.Count, row.b.Amount.StringFixed(2))
			}
			return tw.Flush()
		},
	}
	stats.Flags().StringVar(&from, "from", "", "Received on or after YYYY-MM-DD")
	stats.Flags().StringVar(&to, "to", "", "Received on or before YYYY-MM-DD")

	cmd.AddCommand(stats)
	return cmd
}

func cashBookCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "cash-book", Short: "Branch cash book operations"}

	verify := &cobra.Command{
		Use:   "verify BRANCH_ID",
		Short: "Recompute running balances of a branch cash book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.CashBookVerificationResponse
			path := "/api/v1/cash-book/" + url.PathEscape(args[0]) + "/verify"
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, path, nil, nil, &resp); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries: %d\nFinal balance: %s\n", resp.EntryCount, resp.FinalBalance.StringFixed(2))
			if !resp.Valid {
				fmt.Fprintf(out, "First mismatch: %s\n", resp.FirstMismatchID)
				return errInconsistent
			}
			fmt.Fprintln(out, "Cash book is valid")
			return nil
		},
	}

	cmd.AddCommand(verify)
	return cmd
}

func reconcileCmd(opts *clientOptions) *cobra.Command {
	var branches []string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run the full reconciliation report",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationReportResponse
			body := dto.ReconciliationRequest{BranchIDs: branches}
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/reconciliation/report", nil, body, &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Banks: %d checked, %d balanced\n", report.TotalBanks, report.BalancedBanks)
			for _, d := range report.BankDiscrepancies {
				fmt.Fprintf(out, "  bank %s: cached %s, replayed %s\n", d.BankID, d.CachedBalance.StringFixed(2), d.ReplayedBalance.StringFixed(2))
			}
			fmt.Fprintf(out, "Cash books: %d checked, %d mismatched\n", report.BranchesChecked, len(report.CashBookMismatches))
			for _, m := range report.CashBookMismatches {
				fmt.Fprintf(out, "  branch %s: first mismatch %s\n", m.BranchID, m.FirstMismatchID)
			}

			if !report.Consistent {
				return errInconsistent
			}
			fmt.Fprintln(out, "Reconciliation PASSED")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&branches, "branch", nil, "Branch ids to verify (default: server's configured branches)")
	return cmd
}

func auditCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Audit trail and event history (admin)"}

	var filter struct {
		user, action, resourceType, resourceID, start, end string
		limit                                              int
	}
	logs := &cobra.Command{
		Use:   "logs",
		Short: "List audit rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for key, val := range map[string]string{
				"user_id":       filter.user,
				"action":        filter.action,
				"resource_type": filter.resourceType,
				"resource_id":   filter.resourceID,
				"start":         filter.start,
				"end":           filter.end,
			} {
				if val != "" {
					q.Set(key, val)
				}
			}
			if filter.limit > 0 {
				q.Set("limit", strconv.Itoa(filter.limit))
			}

			var resp dto.ListResponse[dto.AuditLogResponse]
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/audit-logs", q, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTION\tRESOURCE\tUSER\tREQUEST")
			for _, l := range resp.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s/%s\t%s\t%s\n",
					l.CreatedAt.Format(time.RFC3339), l.Action, l.ResourceType, l.ResourceID, l.UserID, l.RequestID)
			}
			return tw.Flush()
		},
	}
	logs.Flags().StringVar(&filter.user, "user", "", "Only rows written by this user id")
	logs.Flags().StringVar(&filter.action, "action", "", "Only this action, e.g. cheque.bounce")
	logs.Flags().StringVar(&filter.resourceType, "resource-type", "", "bank, register or cheque")
	logs.Flags().StringVar(&filter.resourceID, "resource-id", "", "Only rows about this resource")
	logs.Flags().StringVar(&filter.start, "start", "", "Written on or after YYYY-MM-DD")
	logs.Flags().StringVar(&filter.end, "end", "", "Written on or before YYYY-MM-DD")
	logs.Flags().IntVar(&filter.limit, "limit", 0, "Maximum rows (server default when 0)")

	events := &cobra.Command{
		Use:   "events AGGREGATE_TYPE AGGREGATE_ID",
		Short: "List events emitted for a register or cheque",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.ListResponse[dto.OutboxEventResponse]
			path := "/api/v1/events/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1])
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, path, nil, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tEVENT\tPUBLISHED")
			for _, e := range resp.Items {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", e.CreatedAt.Format(time.RFC3339), e.EventType, e.Published)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(logs, events)
	return cmd
}
