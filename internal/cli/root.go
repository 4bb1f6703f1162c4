package cli

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alexanderramin/venuealloc/internal/config"
	"github.com/alexanderramin/venuealloc/internal/db"
	"github.com/alexanderramin/venuealloc/internal/repository"
	"github.com/alexanderramin/venuealloc/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App holds references to all service interfaces used by CLI commands.
// Services left nil are wired from configuration before the first command
// runs.
type App struct {
	Types  service.VenueTypeCatalog
	Tree   service.VenueTree
	Ledger service.AllocationLedger
	Engine service.AllocationEngine
	Import service.ImportService

	Config *config.Config
	Logger *slog.Logger

	// Event scopes name lookups and allocation commands. Set from --event or
	// VENUEALLOC_EVENT.
	Event string

	// IsInteractive reports whether prompts may be shown. Nil means never.
	IsInteractive func() bool

	closer io.Closer
}

// NewApp wires repositories and services over an open database. The caller
// keeps ownership of database.
func NewApp(database *sql.DB, observers ...service.UseCaseObserver) *App {
	uow := db.NewSQLiteUnitOfWork(database)
	typeRepo := repository.NewSQLiteVenueTypeRepo(database)
	nodeRepo := repository.NewSQLiteVenueNodeRepo(database)
	assignRepo := repository.NewSQLiteAssignmentRepo(database)

	catalog := service.NewVenueTypeCatalog(typeRepo, uow, observers...)
	tree := service.NewVenueTree(nodeRepo, typeRepo, assignRepo, uow, observers...)
	ledger := service.NewAllocationLedger(nodeRepo, assignRepo, catalog, uow, observers...)

	return &App{
		Types:  catalog,
		Tree:   tree,
		Ledger: ledger,
		Engine: service.NewAllocationEngine(uow, catalog, tree, ledger, observers...),
		Import: service.NewImportService(uow, observers...),
		Logger: slog.Default(),
	}
}

// Close releases the database opened by the root command, if any.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// open loads configuration and wires services unless they are already set.
func (a *App) open(v *viper.Viper, configFile string) error {
	if a.Event == "" {
		a.Event = v.GetString("EVENT")
	}
	if a.Engine != nil {
		return nil
	}

	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	database, err := db.OpenDB(cfg.DatabasePath, db.Options{
		BusyTimeoutMs: cfg.BusyTimeoutMs,
		MaxOpenConns:  cfg.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewSlogUseCaseObserver(logger))
	}

	wired := NewApp(database, observers...)
	a.Types, a.Tree, a.Ledger, a.Engine, a.Import = wired.Types, wired.Tree, wired.Ledger, wired.Engine, wired.Import
	a.Config, a.Logger, a.closer = cfg, logger, database
	return nil
}

// event returns the event scope or an error naming how to set it.
func (a *App) event() (string, error) {
	if a.Event == "" {
		return "", fmt.Errorf("event is required (use --event or %s_EVENT)", config.EnvPrefix)
	}
	return a.Event, nil
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "venuealloc" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	v := config.New()
	var configFile string

	root := &cobra.Command{
		Use:          "venuealloc",
		Short:        "Venue hierarchy and seat allocation",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(v, configFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./venuealloc.yaml)")
	flags.String("db", "", "SQLite database path (env "+config.EnvPrefix+"_DATABASE_PATH)")
	flags.StringVarP(&app.Event, "event", "e", "", "Event ID (env "+config.EnvPrefix+"_EVENT)")
	_ = v.BindPFlag("DATABASE_PATH", flags.Lookup("db"))

	root.AddCommand(
		newTypeCmd(app),
		newNodeCmd(app),
		newAssignCmd(app),
		newReassignCmd(app),
		newCancelCmd(app),
		newWhoisCmd(app),
		newOccupancyCmd(app),
		newHistoryCmd(app),
		newLayoutCmd(app),
		newServeCmd(app, v),
	)

	return root
}
