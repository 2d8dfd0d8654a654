/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"legal-fee-tracker-go/internal/api"
	"legal-fee-tracker-go/internal/common"
	"legal-fee-tracker-go/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	timeout time.Duration

	services      *common.Services
	tracker       *api.TrackerService
	loggerCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Track legal engagements, billable time and escrow",
	Long: `tracker is the command-line front end of the legal fee tracker.

Lawyers and clients log in with their identity, register a profile, create
engagements, log and approve time, and follow escrow balances.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		_, loggerCleanup = common.InitializeLogger(cfg.LogLevel)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		services, err = common.InitializeServices(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		tracker = api.NewTrackerService(services.Backend, services.Session)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(registerCmd, lawyersCmd)
	rootCmd.AddCommand(engagementsCmd, engagementCmd, timeCmd, messageCmd)
}

// commandContext bounds a command by the --timeout flag.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func shutdown() {
	if tracker != nil {
		tracker.Close()
		tracker = nil
	}
	if services != nil {
		services.Close()
		services = nil
	}
	if loggerCleanup != nil {
		loggerCleanup()
		loggerCleanup = nil
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		reportError(os.Stderr, err)
		zap.L().Debug("Command failed", zap.Error(err))
		shutdown()
		os.Exit(1)
	}
}
