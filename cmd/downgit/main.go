package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantmind-br/downgit-go/internal/cache"
	"github.com/quantmind-br/downgit-go/internal/config"
	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/quantmind-br/downgit-go/internal/download"
	"github.com/quantmind-br/downgit-go/internal/fetcher"
	"github.com/quantmind-br/downgit-go/internal/github"
	"github.com/quantmind-br/downgit-go/internal/utils"
	"github.com/quantmind-br/downgit-go/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "downgit <url>",
	Short: "Download a directory or file from a GitHub repository",
	Long: `downgit fetches any file or directory of a GitHub repository at a given
branch, tag or commit, without cloning it, and writes it as a directory tree
or as a single zip archive.

Examples:
  downgit https://github.com/acme/widgets/tree/main/src
  downgit -z https://github.com/acme/widgets/tree/main/docs
  downgit --root-folder=false acme/widgets/tree/v1.2.0/examples`,
	Version:      version.Short(),
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.downgit/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Output flags
	rootCmd.Flags().StringP("output-name", "n", "", "Name of the output file or archive (default: last URL segment)")
	rootCmd.Flags().String("root-folder", "", `Wrapper folder: "true" (subject name), "false" (none) or a custom name`)
	rootCmd.Flags().StringP("dir", "C", ".", "Directory to write output into")
	rootCmd.Flags().BoolP("zip", "z", false, "Write a single <output-name>.zip instead of a directory tree")
	rootCmd.Flags().Bool("json", false, "Print the result as JSON")
	rootCmd.Flags().Bool("no-progress", false, "Disable the progress indicator")

	// Network flags
	rootCmd.Flags().String("token", "", "GitHub token (default: $GITHUB_TOKEN)")
	rootCmd.Flags().String("proxy", "", "Proxy URL for all requests")
	rootCmd.Flags().IntP("concurrency", "j", config.DefaultWorkers, "Number of concurrent file downloads")
	rootCmd.Flags().Duration("timeout", config.DefaultTimeout, "Per-request timeout")
	rootCmd.Flags().Int("retries", config.DefaultMaxRetries, "Retries for transient gateway errors")
	rootCmd.Flags().Bool("cache", false, "Cache raw file contents between runs")

	// Bind flags to viper
	_ = viper.BindPFlag("output.directory", rootCmd.Flags().Lookup("dir"))
	_ = viper.BindPFlag("output.zip", rootCmd.Flags().Lookup("zip"))
	_ = viper.BindPFlag("output.root_folder", rootCmd.Flags().Lookup("root-folder"))
	_ = viper.BindPFlag("github.token", rootCmd.Flags().Lookup("token"))
	_ = viper.BindPFlag("http.proxy", rootCmd.Flags().Lookup("proxy"))
	_ = viper.BindPFlag("http.max_retries", rootCmd.Flags().Lookup("retries"))
	_ = viper.BindPFlag("concurrency.workers", rootCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("concurrency.timeout", rootCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("cache.enabled", rootCmd.Flags().Lookup("cache"))

	// Add subcommands
	configCmd.AddCommand(configShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(versionCmd, configCmd, cacheCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func newLogger(cfg *config.Config) *utils.Logger {
	return utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	subject := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log = newLogger(cfg)

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := newDependencies(cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	outputName, _ := cmd.Flags().GetString("output-name")
	jsonOut, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	progress := download.NewProgress()
	opts := download.Options{
		OutputName: outputName,
		RootFolder: cfg.Output.RootFolder,
		OutputDir:  utils.ExpandPath(cfg.Output.Directory),
		Zip:        cfg.Output.Zip,
		Progress:   progress,
	}

	result, err := runWithProgress(ctx, cmd.ErrOrStderr(), !noProgress && !jsonOut, progress, func(ctx context.Context) (*domain.Result, error) {
		return deps.downloader.Download(ctx, subject, opts)
	})
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), result, jsonOut)
}

// runWithProgress runs download while a progress bar polls progress, and
// returns once the download finished and the bar was rendered a last time.
func runWithProgress(ctx context.Context, out io.Writer, show bool, progress *download.Progress, fn func(context.Context) (*domain.Result, error)) (*domain.Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	trackCtx, stopTracking := context.WithCancel(gctx)
	defer stopTracking()

	var result *domain.Result
	g.Go(func() error {
		defer stopTracking()
		var err error
		result, err = fn(gctx)
		return err
	})

	if show {
		bar := utils.NewProgressBar(-1, utils.DescListing, out)
		g.Go(func() error {
			utils.TrackProgress(trackCtx, bar, 100*time.Millisecond, progress.Snapshot)
			_ = bar.Finish()
			fmt.Fprintln(out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func printResult(out io.Writer, result *domain.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	switch result.Mode {
	case domain.ModeArchive:
		fmt.Fprintf(out, "Saved %s\n", result.Output)
	default:
		fmt.Fprintf(out, "Wrote %d files to %s\n", len(result.Files), result.Output)
	}

	if len(result.Failures) > 0 {
		fmt.Fprintf(out, "%d item(s) could not be downloaded:\n", len(result.Failures))
		for _, f := range result.Failures {
			fmt.Fprintf(out, "  [%s] %s: %v\n", f.Kind, f.Path, f.Err)
		}
	}
	return nil
}

// dependencies holds everything a download needs that must be closed afterwards
type dependencies struct {
	downloader *download.Downloader
	client     *fetcher.Client
	cache      *cache.BadgerCache
}

func newDependencies(cfg *config.Config, logger *utils.Logger) (*dependencies, error) {
	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	httpClient, err := fetcher.NewHTTPClient(fetcher.TransportOptions{
		Token:     cfg.GitHub.Token,
		ProxyURL:  cfg.HTTP.Proxy,
		NoProxy:   cfg.HTTP.NoProxy,
		UserAgent: userAgent,
		Timeout:   cfg.Concurrency.Timeout,
	})
	if err != nil {
		return nil, err
	}

	deps := &dependencies{}
	clientOpts := fetcher.DefaultClientOptions()
	clientOpts.HTTPClient = httpClient
	clientOpts.MaxRetries = cfg.HTTP.MaxRetries
	clientOpts.MaxBodySize = cfg.MaxFileSizeBytes()
	if cfg.Cache.TTL > 0 {
		clientOpts.CacheTTL = cfg.Cache.TTL
	}
	if cfg.Cache.Enabled {
		store, err := cache.NewBadgerCache(cache.DefaultOptions(utils.ExpandPath(cfg.Cache.Directory)))
		if err != nil {
			logger.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		} else {
			deps.cache = store
			clientOpts.EnableCache = true
			clientOpts.Cache = store
		}
	}
	deps.client = fetcher.NewClient(clientOpts)

	gh, err := github.NewClient(httpClient, cfg.GitHub.APIURL)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.downloader = download.NewDownloader(github.NewLister(gh), deps.client, download.DownloaderOptions{
		APIURL:  cfg.GitHub.APIURL,
		Host:    cfg.GitHub.Host,
		Workers: cfg.Concurrency.Workers,
		Listers: cfg.Concurrency.Listers,
		Logger:  logger,
	})
	return deps, nil
}

func (d *dependencies) Close() {
	if d.client != nil {
		_ = d.client.Close()
	}
	if d.cache != nil {
		_ = d.cache.Close()
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		data, err := config.MarshalYAML(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the content cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached file body",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		dir := utils.ExpandPath(cfg.Cache.Directory)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty")
			return nil
		}

		store, err := cache.NewBadgerCache(cache.DefaultOptions(dir))
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer store.Close()

		n := store.Size()
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries from %s\n", n, dir)
		return nil
	},
}
