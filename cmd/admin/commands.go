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
	"strings"
	"time"

	"luckypaw-payments-go/internal/api"
	"luckypaw-payments-go/internal/common"
	"luckypaw-payments-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print profit/loss per customer over whole days",
		RunE: func(cmd *cobra.Command, args []string) error {
			fromFlag, _ := cmd.Flags().GetString("from")
			toFlag, _ := cmd.Flags().GetString("to")

			from, to, err := parseDateRange(fromFlag, toFlag, time.Now())
			if err != nil {
				return err
			}

			return withServices(cmd, func(ctx context.Context, services *common.Services) error {
				summary, err := services.Ledger.ComputeSummary(ctx, from, to)
				if err != nil {
					return err
				}
				common.PrintSummary(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}

	cmd.Flags().String("from", "", "First day, YYYY-MM-DD (default today)")
	cmd.Flags().String("to", "", "Last day, YYYY-MM-DD (default --from)")

	return cmd
}

func checkLimitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-limit [username]",
		Short: "Show a customer's rolling cashout window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, services *common.Services) error {
				status, err := services.Ledger.CheckLimit(ctx, args[0])
				if err != nil {
					return err
				}
				common.PrintLimit(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func recordCashoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record-cashout [username] [amount]",
		Short: "Record a completed cashout (does not enforce the rolling limit)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			cashoutType, _ := cmd.Flags().GetString("type")
			description, _ := cmd.Flags().GetString("description")

			return withServices(cmd, func(ctx context.Context, services *common.Services) error {
				cashout, err := services.Ledger.RecordCashout(ctx, api.RecordCashoutParams{
					Username:    args[0],
					Amount:      amount,
					Type:        cashoutType,
					Description: description,
				})
				if err != nil {
					return err
				}

				zap.L().Info("Cashout recorded by operator",
					zap.String("cashout_id", cashout.Id),
					zap.String("username", cashout.Username),
					zap.String("amount_usd", cashout.AmountUSD.String()))
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded cashout %s: %s USD for %s\n",
					cashout.Id, cashout.AmountUSD.StringFixed(2), cashout.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringP("type", "t", models.CashoutTypeCashout, "Cashout type (cashout, cashout_lightning)")
	cmd.Flags().StringP("description", "d", "", "Free-form note")

	return cmd
}

func markPaidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-paid [order-id]",
		Short: "Force an order to paid without asking the provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, services *common.Services) error {
				result, err := services.Ledger.MarkPaidManually(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s is %s\n", result.OrderId, result.Status)
				return nil
			})
		},
	}
}

func markReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read [order-id]",
		Short: "Acknowledge an order in the operator queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, services *common.Services) error {
				return services.Ledger.MarkOrderRead(ctx, args[0])
			})
		},
	}
}

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List recent orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			return withServices(cmd, func(ctx context.Context, services *common.Services) error {
				orders, err := services.Ledger.ListOrders(ctx, status, limit)
				if err != nil {
					return err
				}
				common.PrintOrders(cmd.OutOrStdout(), orders)
				return nil
			})
		},
	}

	cmd.Flags().StringP("status", "s", "", "Filter by status (pending, paid)")
	cmd.Flags().IntP("limit", "n", 50, "Maximum orders")

	return cmd
}

// parseDateRange reads YYYY-MM-DD bounds in local time. Empty from means today, empty to means from.
func parseDateRange(fromRaw, toRaw string, now time.Time) (time.Time, time.Time, error) {
	from := now
	if strings.TrimSpace(fromRaw) != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(fromRaw), now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: expected YYYY-MM-DD", fromRaw)
		}
		from = parsed
	}

	to := from
	if strings.TrimSpace(toRaw) != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(toRaw), now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: expected YYYY-MM-DD", toRaw)
		}
		to = parsed
	}

	return from, to, nil
}
