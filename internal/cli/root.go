package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/moviepost/internal/config"
	"github.com/pfrederiksen/moviepost/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// rootFlags are the persistent flags shared by every command
type rootFlags struct {
	envFile  string
	verbose  bool
	dataDir  string
	mongoURI string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "moviepost",
		Short: "Turn \"Title | link\" messages into movie posts",
		Long: `moviepost looks up movie metadata (TMDb, OMDb, or the linked page),
renders it as HTML and replies on Telegram or publishes to Blogger.
It also serves a small web catalogue of the stored movies.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVar(&a.flags.envFile, "env-file", ".env", "Path to a .env file (missing file is ignored)")
	cmd.PersistentFlags().BoolVar(&a.flags.verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "Data directory for the file store (overrides DATA_DIR)")
	cmd.PersistentFlags().StringVar(&a.flags.mongoURI, "mongo-uri", "", "MongoDB connection string (overrides MONGO_URI)")

	cmd.AddCommand(
		newBotCmd(a),
		newWebCmd(a),
		newServeCmd(a),
		newPostCmd(a),
		newLookupCmd(a),
	)

	return cmd
}

// setup loads configuration and configures logging before any command runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.flags.envFile)
	if err != nil {
		return err
	}
	if a.flags.dataDir != "" {
		cfg.DataDir = a.flags.dataDir
	}
	if a.flags.mongoURI != "" {
		cfg.MongoURI = a.flags.mongoURI
	}
	a.cfg = cfg

	level := logger.ParseLevel(cfg.LogLevel)
	if a.flags.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	if level != logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	return nil
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
