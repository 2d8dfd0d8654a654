package main

import (
	"fmt"
	"strconv"
	"strings"

	"legal-fee-tracker-go/internal/common"
	"legal-fee-tracker-go/internal/models"
	"legal-fee-tracker-go/internal/schema"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	engagementTitle       string
	engagementDescription string
	engagementLawyer      string
	engagementClient      string
	feeHourly             string
	feeFixed              string
	feeMilestones         []string
	escrowAmount          string

	entryHours       string
	entryDescription string
)

var engagementsCmd = &cobra.Command{
	Use:   "engagements",
	Short: "Show your dashboard and engagements",
	RunE:  runEngagements,
}

var engagementCmd = &cobra.Command{
	Use:   "engagement <id>",
	Short: "Show an engagement",
	Args:  cobra.ExactArgs(1),
	RunE:  runEngagement,
}

var engagementCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an engagement",
	Long: `Create an engagement with exactly one fee arrangement:

  --hourly-rate 250               hourly billing in USD
  --fixed-fee 5000                a single fixed fee in USD
  --milestone "Draft=1500" ...    one flag per milestone, description=amount

Your own side of the engagement is filled in from your role.`,
	Args: cobra.NoArgs,
	RunE: runEngagementCreate,
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Log and review billable time",
}

var timeAddCmd = &cobra.Command{
	Use:   "add <engagement-id>",
	Short: "Log time on an engagement (lawyer)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimeAdd,
}

var timeApproveCmd = &cobra.Command{
	Use:   "approve <engagement-id> <entry-id>",
	Short: "Approve a pending time entry (client)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTimeApprove,
}

var timeRejectCmd = &cobra.Command{
	Use:   "reject <engagement-id> <entry-id>",
	Short: "Reject a pending time entry (client)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTimeReject,
}

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Exchange messages on an engagement",
}

var messageSendCmd = &cobra.Command{
	Use:   "send <engagement-id> <text>",
	Short: "Send a message to the other party",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMessageSend,
}

func init() {
	f := engagementCreateCmd.Flags()
	f.StringVar(&engagementTitle, "title", "", "Engagement title")
	f.StringVar(&engagementDescription, "description", "", "Scope of work (at least 10 characters)")
	f.StringVar(&engagementLawyer, "lawyer", "", "Lawyer principal (defaults to you when you are a lawyer)")
	f.StringVar(&engagementClient, "client", "", "Client principal (defaults to you when you are a client)")
	f.StringVar(&feeHourly, "hourly-rate", "", "Hourly rate in USD")
	f.StringVar(&feeFixed, "fixed-fee", "", "Fixed fee in USD")
	f.StringArrayVar(&feeMilestones, "milestone", nil, "Milestone as description=amount (repeatable)")
	f.StringVar(&escrowAmount, "escrow", "", "Escrow amount in USD")
	engagementCmd.AddCommand(engagementCreateCmd)

	timeAddCmd.Flags().StringVar(&entryHours, "hours", "", "Hours worked, e.g. 1.5")
	timeAddCmd.Flags().StringVar(&entryDescription, "description", "", "Work performed")
	timeCmd.AddCommand(timeAddCmd, timeApproveCmd, timeRejectCmd)

	messageCmd.AddCommand(messageSendCmd)
}

func runEngagements(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if _, ok := services.Session.Role(); !ok {
		if _, _, err := tracker.ResolveRole(ctx); err != nil {
			return err
		}
	}

	d, err := tracker.Dashboard(ctx)
	if err != nil {
		return err
	}
	printDashboard(cmd.OutOrStdout(), d)
	return nil
}

func runEngagement(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	detail, err := tracker.EngagementDetail(ctx, args[0])
	if err != nil {
		return err
	}
	printEngagementDetail(cmd.OutOrStdout(), detail)
	return nil
}

func runEngagementCreate(cmd *cobra.Command, args []string) error {
	in, err := engagementForm{
		title:       engagementTitle,
		description: engagementDescription,
		lawyer:      engagementLawyer,
		client:      engagementClient,
		hourly:      feeHourly,
		fixed:       feeFixed,
		milestones:  feeMilestones,
		escrow:      escrowAmount,
	}.build()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if _, ok := services.Session.Role(); !ok {
		if _, _, err := tracker.ResolveRole(ctx); err != nil {
			return err
		}
	}

	id, err := tracker.CreateEngagement(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("Created engagement %s\n", id)
	return nil
}

func runTimeAdd(cmd *cobra.Command, args []string) error {
	hours, err := decimal.NewFromString(strings.TrimSpace(entryHours))
	if err != nil {
		return schema.NewValidationError("hours", "must be a number")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := tracker.AddTimeEntry(ctx, models.NewTimeEntry{
		EngagementId: args[0],
		Description:  entryDescription,
		Hours:        hours,
	}); err != nil {
		return err
	}
	fmt.Printf("Logged %s on %s\n", common.FormatHours(hours), args[0])
	return nil
}

func runTimeApprove(cmd *cobra.Command, args []string) error {
	entryId, err := parseEntryId(args[1])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := tracker.ApproveTimeEntry(ctx, args[0], entryId); err != nil {
		return err
	}
	fmt.Printf("Approved time entry %d\n", entryId)
	return nil
}

func runTimeReject(cmd *cobra.Command, args []string) error {
	entryId, err := parseEntryId(args[1])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := tracker.RejectTimeEntry(ctx, args[0], entryId); err != nil {
		return err
	}
	fmt.Printf("Rejected time entry %d\n", entryId)
	return nil
}

func runMessageSend(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := tracker.SendMessage(ctx, models.NewMessage{
		EngagementId: args[0],
		Content:      strings.Join(args[1:], " "),
	}); err != nil {
		return err
	}
	fmt.Println("Message sent")
	return nil
}

func parseEntryId(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, schema.NewValidationError("entry_id", "must be a positive integer")
	}
	return id, nil
}
