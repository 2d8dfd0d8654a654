package main

import (
	"fmt"
	"strings"

	"legal-fee-tracker-go/internal/common"
	"legal-fee-tracker-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	profileName     string
	profileEmail    string
	profileWallet   string
	profileBio      string
	jurisdiction    string
	specializations []string
	hourlyRate      string

	searchSpecialization string
	searchJurisdiction   string
	searchMinRate        string
	searchMaxRate        string
	searchMinRating      float64
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a lawyer or client profile",
}

var registerLawyerCmd = &cobra.Command{
	Use:   "lawyer",
	Short: "Register as a lawyer",
	Example: `  tracker register lawyer --name "Jane Doe" --email jane@x.com --wallet abc \
    --bio "Commercial contracts attorney" --jurisdiction NY --specialization "Contract Law"`,
	RunE: runRegisterLawyer,
}

var registerClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Register as a client",
	RunE:  runRegisterClient,
}

var lawyersCmd = &cobra.Command{
	Use:   "lawyers [query]",
	Short: "Search the lawyer directory",
	Long: `Search the lawyer directory by name, specialization or jurisdiction.
An empty query lists every lawyer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLawyers,
}

func init() {
	for _, c := range []*cobra.Command{registerLawyerCmd, registerClientCmd} {
		c.Flags().StringVar(&profileName, "name", "", "Full name")
		c.Flags().StringVar(&profileEmail, "email", "", "Contact email")
		c.Flags().StringVar(&profileWallet, "wallet", "", "Wallet address for payments")
	}
	registerLawyerCmd.Flags().StringVar(&profileBio, "bio", "", "Short professional bio (at least 10 characters)")
	registerLawyerCmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "Jurisdiction of practice")
	registerLawyerCmd.Flags().StringArrayVar(&specializations, "specialization", nil, "Practice area (repeatable)")
	registerLawyerCmd.Flags().StringVar(&hourlyRate, "hourly-rate", "", "Standard hourly rate in USD")

	registerCmd.AddCommand(registerLawyerCmd, registerClientCmd)

	lawyersCmd.Flags().StringVar(&searchSpecialization, "specialization", "", "Only lawyers with this specialization")
	lawyersCmd.Flags().StringVar(&searchJurisdiction, "jurisdiction", "", "Only lawyers in this jurisdiction")
	lawyersCmd.Flags().StringVar(&searchMinRate, "min-rate", "", "Minimum hourly rate in USD")
	lawyersCmd.Flags().StringVar(&searchMaxRate, "max-rate", "", "Maximum hourly rate in USD")
	lawyersCmd.Flags().Float64Var(&searchMinRating, "min-rating", 0, "Minimum rating (0-5)")
}

func runRegisterLawyer(cmd *cobra.Command, args []string) error {
	in := models.CreateLawyerProfile{
		Name:            profileName,
		Email:           profileEmail,
		WalletAddress:   profileWallet,
		Bio:             profileBio,
		Jurisdiction:    jurisdiction,
		Specializations: specializations,
	}
	rate, err := optionalAmount("hourly_rate", hourlyRate)
	if err != nil {
		return err
	}
	in.HourlyRate = rate

	if unknown := services.Catalog.UnknownSpecializations(specializations); len(unknown) > 0 && len(services.Catalog.Specializations) > 0 {
		zap.L().Info("Specializations not in catalog", zap.Strings("specializations", unknown))
	}
	if len(services.Catalog.Jurisdictions) > 0 && !services.Catalog.KnownJurisdiction(jurisdiction) {
		zap.L().Info("Jurisdiction not in catalog", zap.String("jurisdiction", jurisdiction))
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	profile, err := tracker.RegisterLawyer(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("Registered lawyer %s (%s)\n", profile.Name, profile.Principal)
	return nil
}

func runRegisterClient(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	profile, err := tracker.RegisterClient(ctx, models.CreateClientProfile{
		Name:          profileName,
		Email:         profileEmail,
		WalletAddress: profileWallet,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Registered client %s (%s)\n", profile.Name, profile.Principal)
	return nil
}

func runLawyers(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) == 1 {
		query = args[0]
	}

	filters := models.LawyerSearchFilters{
		Specialization: searchSpecialization,
		Jurisdiction:   searchJurisdiction,
	}
	var err error
	if filters.MinRate, err = optionalAmount("min_rate", searchMinRate); err != nil {
		return err
	}
	if filters.MaxRate, err = optionalAmount("max_rate", searchMaxRate); err != nil {
		return err
	}
	if cmd.Flags().Changed("min-rating") {
		filters.MinRating = &searchMinRating
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	lawyers, err := tracker.FindLawyers(ctx, query, filters)
	if err != nil {
		return err
	}

	common.PrintHeader(fmt.Sprintf("LAWYERS (%d)", len(lawyers)), common.DefaultWidth)
	printLawyers(cmd.OutOrStdout(), lawyers)
	return nil
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
