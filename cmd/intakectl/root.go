// cmd/intakectl/root.go
package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"talent-intake/internal/common/config"
	"talent-intake/internal/common/database"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/sheets"
	"talent-intake/internal/dashboard"
	"talent-intake/internal/models"
	"talent-intake/internal/platform"
)

// cli carries the flags shared by every command and the factories that open backends.
type cli struct {
	configPath string
	verbose    bool

	filter selection

	loadConfig func(path string) (*config.Config, error)
	openStore  func(ctx context.Context, cfg *config.Config, log logger.Logger) (dashboard.ApplicationStore, func(), error)
	openSheets func(ctx context.Context, cfg *config.Config) (dashboard.SheetWriter, error)
}

// selection is the candidate subset an export works on.
type selection struct {
	ids        []string
	roles      []string
	experience []string
	education  []string
	employment []string
	workTypes  []string
	statuses   []string
	minRatings []int
	search     string
}

func newCLI() *cli {
	return &cli{
		loadConfig: func(path string) (*config.Config, error) {
			if path == "" {
				return config.Load()
			}
			return config.LoadFromFile(path)
		},
		openStore:  openPostgres,
		openSheets: openSheets,
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, log logger.Logger) (dashboard.ApplicationStore, func(), error) {
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	return platform.NewPostgresRecords(pg.DB, log), func() { _ = pg.Close() }, nil
}

func openSheets(ctx context.Context, cfg *config.Config) (dashboard.SheetWriter, error) {
	return sheets.NewClient(ctx, sheets.Config{CredentialsPath: cfg.Integrations.Sheets.CredentialsPath})
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "intakectl",
		Short:        "Operate the talent intake dashboard from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config.yaml (defaults to ./configs)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newExportCmd(c), newStatsCmd(c))
	return root
}

func addSelectionFlags(cmd *cobra.Command, s *selection) {
	f := cmd.Flags()
	f.StringSliceVar(&s.ids, "ids", nil, "application ids to export (default: every application matching the filters)")
	f.StringSliceVar(&s.roles, "role", nil, "filter by role")
	f.StringSliceVar(&s.experience, "experience", nil, "filter by experience bracket")
	f.StringSliceVar(&s.education, "education", nil, "filter by education level")
	f.StringSliceVar(&s.employment, "employment", nil, "filter by employment status")
	f.StringSliceVar(&s.workTypes, "work-type", nil, "filter by work type")
	f.StringSliceVar(&s.statuses, "status", nil, "filter by screening status")
	f.IntSliceVar(&s.minRatings, "min-rating", nil, "filter by minimum rating")
	f.StringVar(&s.search, "search", "", "free text over name, email and phone")
}

func (s selection) query() url.Values {
	q := url.Values{}
	add := func(key string, values []string) {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	add("role", s.roles)
	add("experience", s.experience)
	add("education", s.education)
	add("employment", s.employment)
	add("workType", s.workTypes)
	add("status", s.statuses)
	for _, r := range s.minRatings {
		q.Add("minRating", strconv.Itoa(r))
	}
	if s.search != "" {
		q.Set("search", s.search)
	}
	return q
}

func (c *cli) logger(cfg *config.Config) logger.Logger {
	if !c.verbose {
		return logger.NewNoOpLogger()
	}
	return logger.NewStructured(cfg.Logging.Level, "console")
}

// board loads config, opens the store and builds a dashboard board. close must be called.
func (c *cli) board(ctx context.Context) (*dashboard.Board, *config.Config, func(), error) {
	cfg, err := c.loadConfig(c.configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := c.logger(cfg)
	store, closeStore, err := c.openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open records: %w", err)
	}
	board := dashboard.NewBoard(store, nil, dashboard.BoardConfig{Location: cfg.Dashboard.Location()}, log)
	return board, cfg, closeStore, nil
}

// selectedIDs resolves the export selection: explicit ids win, otherwise the filtered
// list in its default order.
func (c *cli) selectedIDs(ctx context.Context, board *dashboard.Board) ([]string, error) {
	if len(c.filter.ids) > 0 {
		ids := make([]string, 0, len(c.filter.ids))
		for _, id := range c.filter.ids {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}

	state, err := dashboard.ParseFilterState(c.filter.query())
	if err != nil {
		return nil, err
	}
	apps, err := board.View(ctx, state, dashboard.SortConfig{})
	if err != nil {
		return nil, err
	}
	return applicationIDs(apps), nil
}

func applicationIDs(apps []models.Application) []string {
	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
	}
	return ids
}
