package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paygate/internal/clock"
	"github.com/smallbiznis/paygate/internal/config"
	"github.com/smallbiznis/paygate/internal/customer"
	"github.com/smallbiznis/paygate/internal/events"
	"github.com/smallbiznis/paygate/internal/migration"
	"github.com/smallbiznis/paygate/internal/observability"
	"github.com/smallbiznis/paygate/internal/order"
	"github.com/smallbiznis/paygate/internal/payment"
	"github.com/smallbiznis/paygate/internal/payment/adapters"
	"github.com/smallbiznis/paygate/internal/payment/service"
	"github.com/smallbiznis/paygate/internal/scheduler"
	"github.com/smallbiznis/paygate/internal/seed"
	"github.com/smallbiznis/paygate/internal/server"
	"github.com/smallbiznis/paygate/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "paygate",
		Short:         "Payment orchestration and reconciliation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				return os.Setenv(config.EnvConfigFile, configPath)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides "+config.EnvConfigFile+")")

	cmd.AddCommand(serveCmd(), migrateCmd(), encryptSecretCmd(), deliveriesCmd(), verifyPendingCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				appModules(),
				fx.Invoke(bootstrap),
				server.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	var withSeed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			conn, err := db.Open(cfg.Database)
			if err != nil {
				return err
			}
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if withSeed {
				if err := seed.EnsureDemoData(cmd.Context(), conn); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSeed, "seed", false, "Also insert the demo customer and order")
	return cmd
}

func encryptSecretCmd() *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "encrypt-secret <value>",
		Short: "Seal a provider setting for use in config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("PAYMENT_PROVIDER_CONFIG_SECRET")
			}
			if strings.TrimSpace(secret) == "" {
				return errors.New("provider config secret is required (--secret or PAYMENT_PROVIDER_CONFIG_SECRET)")
			}
			sealed, err := adapters.NewSecretBox(secret).Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Provider config secret")
	return cmd
}

func deliveriesCmd() *cobra.Command {
	var provider, transactionID string
	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "Print the webhook delivery log for one provider transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *service.Service
			app := fx.New(
				appModules(),
				fx.NopLogger,
				fx.Populate(&svc),
			)
			if err := app.Err(); err != nil {
				return err
			}
			deliveries, err := svc.ListDeliveries(cmd.Context(), provider, transactionID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(deliveries)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Provider id")
	cmd.Flags().StringVar(&transactionID, "transaction", "", "Provider transaction id")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("transaction")
	return cmd
}

func verifyPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-pending",
		Short: "Verify payments stuck in pending or processing with their provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sched *scheduler.Scheduler
			app := fx.New(
				appModules(),
				scheduler.Module,
				fx.NopLogger,
				fx.Populate(&sched),
			)
			if err := app.Err(); err != nil {
				return err
			}
			result, err := sched.RunPendingVerification(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d settled=%d failures=%d\n", result.Checked, result.Settled, result.Failures)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "paygate %s\n", version)
		},
	}
}

func appModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		events.Module,
		order.Module,
		customer.Module,
		payment.Module,
	)
}

func bootstrap(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if cfg.Bootstrap.RunMigrations {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := migration.RunMigrations(sqlDB); err != nil {
			return err
		}
	}
	if cfg.Bootstrap.SeedDemoData {
		if err := seed.EnsureDemoData(context.Background(), conn); err != nil {
			return err
		}
		log.Info("demo data ensured", zap.String("order_id", seed.DemoOrderID))
	}
	return nil
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
