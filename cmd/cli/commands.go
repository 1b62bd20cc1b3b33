package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/db"
	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/Dosada05/meetbasket/services"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	ratingsCmd.AddCommand(ratingsRecomputeCmd)
	premiumCmd.AddCommand(premiumExpireCmd)
	tournamentsCmd.AddCommand(tournamentsRefreshCmd)

	rootCmd.AddCommand(migrateCmd, ratingsCmd, premiumCmd, tournamentsCmd, healthCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: withDB(func(ctx context.Context, conn *sql.DB, _ []string) error {
		return db.Migrate(ctx, conn)
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: withDB(func(ctx context.Context, conn *sql.DB, _ []string) error {
		return db.MigrateDown(ctx, conn)
	}),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the migration status",
	RunE: withDB(func(ctx context.Context, conn *sql.DB, _ []string) error {
		return db.MigrationStatus(ctx, conn)
	}),
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Rating maintenance",
}

var ratingsRecomputeCmd = &cobra.Command{
	Use:       "recompute <court|team|player>",
	Short:     "Rebuild stored rating aggregates from the individual ratings",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(models.RatingTargetCourt), string(models.RatingTargetTeam), string(models.RatingTargetPlayer)},
	RunE: withDB(func(ctx context.Context, conn *sql.DB, args []string) error {
		target, err := parseRatingTarget(args[0])
		if err != nil {
			return err
		}
		svc := services.NewRatingService(
			repositories.NewPostgresRatingRepository(conn),
			repositories.NewTransactor(conn),
			openInvalidator(ctx),
			metrics.NewMock(),
		)
		n, err := svc.RecomputeAll(ctx, target)
		if err != nil {
			return err
		}
		fmt.Printf("recomputed %d %s ratings\n", n, target)
		return nil
	}),
}

var premiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Premium membership maintenance",
}

var premiumExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Clear premium flags whose expiry has passed",
	RunE: withDB(func(ctx context.Context, conn *sql.DB, _ []string) error {
		svc := services.NewPremiumService(
			repositories.NewPostgresUserRepository(conn),
			repositories.NewPostgresCheckoutRepository(conn),
			repositories.NewTransactor(conn),
			openInvalidator(ctx),
			metrics.NewMock(),
			clockwork.NewRealClock(),
			logger,
		)
		n, err := svc.ExpireMemberships(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("expired %d memberships\n", n)
		return nil
	}),
}

var tournamentsCmd = &cobra.Command{
	Use:   "tournaments",
	Short: "Tournament maintenance",
}

var tournamentsRefreshCmd = &cobra.Command{
	Use:   "refresh-statuses",
	Short: "Move tournaments to ongoing/completed by their dates",
	RunE: withDB(func(ctx context.Context, conn *sql.DB, _ []string) error {
		svc := services.NewTournamentService(
			repositories.NewPostgresTournamentRepository(conn),
			repositories.NewPostgresTeamRepository(conn),
			repositories.NewTransactor(conn),
			clockwork.NewRealClock(),
			logger,
		)
		return svc.AutoUpdateTournamentStatusesByDates(ctx)
	}),
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(cmd.Context(), "/health")
	},
}

func parseRatingTarget(raw string) (models.RatingTarget, error) {
	switch t := models.RatingTarget(strings.ToLower(raw)); t {
	case models.RatingTargetCourt, models.RatingTargetTeam, models.RatingTargetPlayer:
		return t, nil
	}
	return "", fmt.Errorf("unknown rating target %q (want court, team or player)", raw)
}

// withDB открывает соединение на время команды.
func withDB(run func(ctx context.Context, conn *sql.DB, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			return errors.New("database url is not set: use --database-url or DATABASE_URL")
		}
		conn, err := db.Connect(databaseURL, 5*time.Second)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return run(ctx, conn, args)
	}
}

// openInvalidator подключается к Redis, если сервер использует его как кэш,
// чтобы изменения из CLI сбрасывали общие записи. In-memory кэш живет в
// процессе сервера, там записи истекут по TTL.
func openInvalidator(ctx context.Context) *services.Invalidator {
	if !strings.EqualFold(os.Getenv("CACHE_BACKEND"), "redis") {
		return nil
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	client, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: redisDB})
	if err != nil {
		logger.Warn("redis unavailable, cache entries will expire by TTL", "error", err)
		return nil
	}
	c := cache.New(cache.NewRedisStore(client, "meetbasket:"), nil, logger)
	return services.NewInvalidator(c, logger)
}

func performGetRequest(ctx context.Context, endpoint string) error {
	url := strings.TrimRight(host, "/") + endpoint
	fmt.Printf("Making request to %s\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println(string(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server is unhealthy: %s", resp.Status)
	}
	return nil
}
