package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"legal-fee-tracker-go/internal/api"
	"legal-fee-tracker-go/internal/common"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/schema"
)

// reportError prints err the way the user should see it: one line per
// invalid field, or the mapped message with a retry hint.
func reportError(w io.Writer, err error) {
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(w, "Please correct the following:")
		for _, fe := range ve.Errors {
			fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
		}
		return
	}

	msg, retry := api.UserMessage(err)
	fmt.Fprintf(w, "Error: %s\n", msg)
	if retry {
		fmt.Fprintln(w, "Please try again.")
	}
}

func describeFee(t models.EngagementType) string {
	switch v := t.(type) {
	case models.HourlyFee:
		return common.FormatCurrency(v.Rate) + "/hour"
	case models.FixedFee:
		return "fixed " + common.FormatCurrency(v.Amount)
	case models.MilestoneFee:
		return fmt.Sprintf("%d milestones, %s total", len(v.Milestones), common.FormatCurrency(v.Total()))
	default:
		return "-"
	}
}

func printLawyers(w io.Writer, lawyers []models.LawyerProfile) {
	if len(lawyers) == 0 {
		fmt.Fprintln(w, "No lawyers match your search")
		return
	}
	for i, l := range lawyers {
		isLast := i == len(lawyers)-1
		rate := "rate on request"
		if l.HourlyRate != nil {
			rate = common.FormatCurrency(*l.HourlyRate) + "/hour"
		}
		verified := ""
		if l.Verified {
			verified = " ✓"
		}
		fmt.Fprintf(w, "%s[%s] %s%s, %s\n", common.BoxPrefix(isLast), common.GetInitials(l.Name), l.Name, verified, l.Jurisdiction)
		fmt.Fprintf(w, "%s  %s | %s | %.1f★ (%d reviews)\n",
			common.BoxDetailPrefix(isLast), joinOrDash(l.Specializations), rate, l.Rating, l.ReviewCount)
	}
}

func printEngagementLine(w io.Writer, e models.Engagement, viewer string, isLast bool) {
	other := api.OtherParty(api.PartyRole(viewer, e), e)
	fmt.Fprintf(w, "%s%-28s %-14s %s\n", common.BoxPrefix(isLast), e.Title, common.StatusLabel(e.Status.String()), e.Id)
	fmt.Fprintf(w, "%s  with %s | %s | escrow %s of %s\n",
		common.BoxDetailPrefix(isLast),
		common.TruncatePrincipal(other),
		describeFee(e.EngagementType.EngagementType),
		common.FormatCurrency(e.EscrowBalance()),
		common.FormatCurrency(e.EscrowAmount))
}

func printDashboard(w io.Writer, d *models.Dashboard) {
	fmt.Fprintf(w, "%s (%s)\n", d.DisplayName, d.Role)
	fmt.Fprintf(w, "Active: %d | Pending approvals: %d | Escrow: %s | Spent: %s | Hours: %s\n",
		d.Stats.ActiveEngagements,
		d.Stats.PendingApprovals,
		common.FormatCurrency(d.Stats.TotalEscrow),
		common.FormatCurrency(d.Stats.TotalSpent),
		common.FormatHours(d.Stats.HoursLogged))

	for _, status := range []models.EngagementStatus{
		models.EngagementActive,
		models.EngagementPending,
		models.EngagementPaused,
		models.EngagementDisputed,
		models.EngagementCompleted,
		models.EngagementCancelled,
	} {
		group := d.ByStatus(status)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d)\n", strings.ToUpper(status.String()), len(group))
		for i, e := range group {
			printEngagementLine(w, e, d.Principal, i == len(group)-1)
		}
	}
	if len(d.Engagements) == 0 {
		fmt.Fprintln(w, "\nNo engagements yet")
	}
}

func printEngagementDetail(w io.Writer, detail *models.EngagementDetail) {
	e := detail.Engagement
	fmt.Fprintf(w, "%s  %s\n", e.Title, common.StatusLabel(e.Status.String()))
	fmt.Fprintf(w, "%s\n\n", e.Description)
	fmt.Fprintf(w, "You are the %s. Other party: %s\n", strings.ToLower(detail.ViewerRole.String()), detail.OtherPartyName)
	fmt.Fprintf(w, "Fee: %s\n", describeFee(e.EngagementType.EngagementType))
	if e.CreatedAt != 0 {
		fmt.Fprintf(w, "Created: %s\n", common.FormatDate(e.CreatedAt))
	}

	fees := detail.Fees
	fmt.Fprintf(w, "\nBilled %s (approved %s, pending %s) | Hours %s | Escrow remaining %s of %s\n",
		common.FormatCurrency(fees.TotalBilled),
		common.FormatCurrency(fees.Approved),
		common.FormatCurrency(fees.Pending),
		common.FormatHours(fees.HoursLogged),
		common.FormatCurrency(fees.EscrowBalance),
		common.FormatCurrency(e.EscrowAmount))
	if a := detail.Escrow; a != nil {
		fmt.Fprintf(w, "Escrow account: deposited %s, released %s, refunded %s, balance %s\n",
			common.FormatCurrency(a.TotalDeposited),
			common.FormatCurrency(a.TotalReleased),
			common.FormatCurrency(a.TotalRefunded),
			common.FormatCurrency(a.Balance))
	}

	if m, ok := e.EngagementType.EngagementType.(models.MilestoneFee); ok {
		fmt.Fprintf(w, "\nMILESTONES\n")
		for i, ms := range m.Milestones {
			fmt.Fprintf(w, "%s#%d %s %s %s\n", common.BoxPrefix(i == len(m.Milestones)-1),
				ms.Id, ms.Description, common.FormatCurrency(ms.Amount), common.StatusLabel(ms.Status.String()))
		}
	}

	if len(e.TimeEntries) > 0 {
		fmt.Fprintf(w, "\nTIME ENTRIES\n")
		for i, t := range e.TimeEntries {
			state := "pending"
			if t.Approved {
				state = "approved"
			}
			fmt.Fprintf(w, "%s#%d %s x %s = %s [%s] %s\n", common.BoxPrefix(i == len(e.TimeEntries)-1),
				t.Id, common.FormatHours(t.Hours), common.FormatCurrency(t.Rate), common.FormatCurrency(t.Amount()), state, t.Description)
		}
	}

	if len(detail.Transactions) > 0 {
		fmt.Fprintf(w, "\nTRANSACTIONS\n")
		for i, tx := range detail.Transactions {
			fmt.Fprintf(w, "%s%s %s %s\n", common.BoxPrefix(i == len(detail.Transactions)-1),
				tx.TxType, common.FormatCurrency(tx.Amount), tx.Memo)
		}
	}

	if len(e.Messages) > 0 {
		fmt.Fprintf(w, "\nMESSAGES\n")
		for i, m := range e.Messages {
			when := ""
			if m.Timestamp != 0 {
				when = " (" + common.FormatTimeAgo(m.Timestamp) + ")"
			}
			fmt.Fprintf(w, "%s%s%s: %s\n", common.BoxPrefix(i == len(e.Messages)-1),
				common.TruncatePrincipal(m.Sender), when, m.Content)
		}
	}
}
