package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"merchant-analytics-layer/internal/application"
	"merchant-analytics-layer/internal/application/backfill"
	"merchant-analytics-layer/internal/infrastructure/amazon"
	"merchant-analytics-layer/internal/infrastructure/encryption"
	"merchant-analytics-layer/internal/infrastructure/posthog"
	"merchant-analytics-layer/internal/infrastructure/repository"
	shopifyinfra "merchant-analytics-layer/internal/infrastructure/shopify"
	"merchant-analytics-layer/internal/ports"
)

// defaultRangeDays is the window backfilled when no --start/--since is given.
const defaultRangeDays = 7

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Each provider gets its own default inter-date delay: the Ads API
	// tolerates 5s, SP-API report generation wants a bigger gap, Shopify's
	// leaky bucket refills fast.
	rangeFlags := func(delayMs int64) []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "start", Usage: "first date to backfill (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "end", Usage: "last date to backfill (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "since", Usage: "shorthand for --start=<since> --end=<yesterday>"},
			&cli.UintFlag{Name: "org", Value: 1, Usage: "organisation id"},
			&cli.IntFlag{Name: "delay", Value: int(delayMs), Usage: "delay between dates in milliseconds"},
			&cli.BoolFlag{Name: "dry-run", Usage: "print the work list without processing it"},
		}
	}

	cmd := &cli.Command{
		Name:  "backfill",
		Usage: "Backfill historical analytics data from external providers",
		Commands: []*cli.Command{
			{
				Name:   "amazon-ads",
				Usage:  "Backfill Amazon Ads campaign metrics",
				Flags:  rangeFlags(5000),
				Action: runAmazonAds(logger),
			},
			{
				Name:   "sales-traffic",
				Usage:  "Backfill Amazon SP-API sales & traffic metrics",
				Flags:  rangeFlags(65000),
				Action: runSalesTraffic(logger),
			},
			{
				Name:   "shopify-orders",
				Usage:  "Backfill Shopify orders with attribution",
				Flags:  rangeFlags(2000),
				Action: runShopifyOrders(logger),
			},
			{
				Name:  "import-ads",
				Usage: "Import a manually exported advertising spreadsheet",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "path to a .csv or .xlsx export"},
					&cli.UintFlag{Name: "org", Value: 1, Usage: "organisation id"},
				},
				Action: runImportAds(logger),
			},
		},
	}

	// Setup failures surface here and exit non-zero; per-date errors inside
	// a run are contained by the driver and still exit zero.
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Fatal().Err(err).Msg("Backfill failed")
	}
}

// deps is everything a backfill subcommand needs after setup.
type deps struct {
	db          *gorm.DB
	credentials *application.CredentialsService
	logger      zerolog.Logger
}

func setup(logger zerolog.Logger) (*deps, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY environment variable is required")
	}

	db, err := repository.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	encryptionService, err := encryption.NewService(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption service: %w", err)
	}

	return &deps{
		db:          db,
		credentials: application.NewCredentialsService(repository.NewCredentialRepository(db), encryptionService, logger),
		logger:      logger,
	}, nil
}

// resolveRange turns the flags into an inclusive [start, end] pair. With no
// flags the last full week ending yesterday is backfilled.
func resolveRange(cmd *cli.Command) (string, string) {
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	start := cmd.String("start")
	end := cmd.String("end")
	if since := cmd.String("since"); since != "" && start == "" {
		start = since
	}
	if end == "" {
		end = yesterday
	}
	if start == "" {
		start = time.Now().AddDate(0, 0, -defaultRangeDays).Format("2006-01-02")
	}
	return start, end
}

func newDriver(cmd *cli.Command, logger zerolog.Logger) *backfill.Driver {
	return &backfill.Driver{
		Delay:  time.Duration(cmd.Int("delay")) * time.Millisecond,
		Logger: logger,
	}
}

// runBackfill computes the work list, honors --dry-run, and runs the driver.
func runBackfill(ctx context.Context, cmd *cli.Command, logger zerolog.Logger, existing []string, job backfill.Job) error {
	start, end := resolveRange(cmd)
	dates, err := backfill.WorkList(start, end, existing)
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		for _, date := range dates {
			fmt.Println(date)
		}
		logger.Info().Int("dates", len(dates)).Msg("Dry run, nothing processed")
		return nil
	}

	summary := newDriver(cmd, logger).Run(ctx, dates, job)
	fmt.Println(summary.String())
	return nil
}

func runAmazonAds(logger zerolog.Logger) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		d, err := setup(logger)
		if err != nil {
			return err
		}
		orgID := uint(cmd.Uint("org"))

		creds, err := d.credentials.GetAmazonAdsCredentials(ctx, orgID)
		if err != nil {
			return err
		}

		tokens := amazon.NewTokenSource(creds.ClientID, creds.ClientSecret, creds.RefreshToken, logger)
		client := amazon.NewAdsClient(tokens, creds.ProfileID, amazon.SPCampaignsReport(), logger)
		svc := application.NewAdsIngestService(client, repository.NewMetricRepository(d.db), logger)

		existing, err := svc.ExistingDates(ctx, orgID)
		if err != nil {
			return err
		}

		return runBackfill(ctx, cmd, logger, existing, func(ctx context.Context, date string) error {
			_, err := svc.IngestDate(ctx, orgID, date)
			return err
		})
	}
}

func runSalesTraffic(logger zerolog.Logger) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		d, err := setup(logger)
		if err != nil {
			return err
		}
		orgID := uint(cmd.Uint("org"))

		creds, err := d.credentials.GetSPAPICredentials(ctx, orgID)
		if err != nil {
			return err
		}

		tokens := amazon.NewTokenSource(creds.ClientID, creds.ClientSecret, creds.RefreshToken, logger)
		client := amazon.NewSPAPIClient(tokens, creds.Endpoint, creds.MarketplaceID, logger)
		svc := application.NewSalesTrafficIngestService(
			client,
			repository.NewMetricRepository(d.db),
			repository.NewPendingReportRepository(d.db),
			logger,
		)

		if err := svc.CleanupStale(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to clean up stale pending reports")
		}
		if recovered, err := svc.ResumePending(ctx, orgID); err != nil {
			logger.Warn().Err(err).Msg("Failed to resume pending reports")
		} else if recovered > 0 {
			logger.Info().Int("recovered", recovered).Msg("Resumed pending reports")
		}

		existing, err := svc.ExistingDates(ctx, orgID)
		if err != nil {
			return err
		}

		return runBackfill(ctx, cmd, logger, existing, func(ctx context.Context, date string) error {
			_, err := svc.IngestDate(ctx, orgID, date)
			return err
		})
	}
}

func runShopifyOrders(logger zerolog.Logger) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		d, err := setup(logger)
		if err != nil {
			return err
		}
		orgID := uint(cmd.Uint("org"))

		creds, err := d.credentials.GetShopifyCredentials(ctx, orgID)
		if err != nil {
			return err
		}
		shopifyClient := shopifyinfra.NewClient(creds, logger)

		// Visit attribution is optional; orders fall back to discount-code
		// and referrer resolution when PostHog is not configured.
		var traffic ports.TrafficClient
		if phCreds, err := d.credentials.GetPostHogCredentials(ctx, orgID); err == nil {
			traffic = posthog.NewClient(phCreds, logger)
		} else {
			logger.Warn().Err(err).Msg("PostHog not configured, visit attribution disabled")
		}

		svc := application.NewOrderIngestService(
			shopifyClient,
			traffic,
			repository.NewOrderRepository(d.db),
			repository.NewCustomerRepository(d.db),
			logger,
		)

		if err := svc.Probe(ctx); err != nil {
			return fmt.Errorf("shopify credential check failed: %w", err)
		}

		return runBackfill(ctx, cmd, logger, nil, func(ctx context.Context, date string) error {
			_, err := svc.IngestDate(ctx, orgID, date)
			return err
		})
	}
}

func runImportAds(logger zerolog.Logger) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		d, err := setup(logger)
		if err != nil {
			return err
		}
		orgID := uint(cmd.Uint("org"))

		svc := application.NewAdImportService(repository.NewMetricRepository(d.db), logger)
		result, err := svc.ImportFile(ctx, orgID, cmd.String("file"))
		if err != nil {
			return err
		}
		fmt.Println(result.String())
		return nil
	}
}
