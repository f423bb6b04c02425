package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/bakermat/steelconnect-node-status/pkg/config"
	"github.com/bakermat/steelconnect-node-status/pkg/report"
	"github.com/bakermat/steelconnect-node-status/pkg/scm"
	"github.com/bakermat/steelconnect-node-status/pkg/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via -ldflags "-X main.version=x.y.z"
var version = "dev"

// clientFactory builds the API client for one realm.
type clientFactory func(rc types.RealmCredentials, logger *zap.Logger) *scm.Client

func defaultClient(rc types.RealmCredentials, logger *zap.Logger) *scm.Client {
	return scm.NewClient(rc.Realm, rc.Username, rc.Password, scm.WithLogger(logger))
}

func main() {
	rootCmd := newRootCmd(config.NewTerminalPrompter(os.Stdin, os.Stderr), defaultClient)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, scm.Pretty(err))
		os.Exit(1)
	}
}

func newRootCmd(prompter config.Prompter, newClient clientFactory) *cobra.Command {
	var (
		opts    config.Options
		format  string
		noColor bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "scm-node-status",
		Short: "Show the online/offline status of SteelConnect nodes",
		Long: `Displays node status of SteelConnect nodes: green = online, red = offline.

When a CSV file is used for multiple realms, the following headers are required:
    scm,username,password,org (optional)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unsupported output format %q (expected text, table, json or yaml)", format)
			}

			logger := setupLogger(verbose)
			defer logger.Sync()

			realms, err := config.Resolve(opts, prompter)
			if err != nil {
				return fmt.Errorf("failed to load credentials: %w", err)
			}

			// Keep stdout a clean document for machine-readable formats.
			progress := cmd.OutOrStdout()
			if structuredFormat(format) {
				progress = cmd.ErrOrStderr()
			}

			rep, err := collect(cmd.Context(), progress, realms, newClient, logger)
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), rep, format, !noColor)
		},
	}

	cmd.Flags().StringVarP(&opts.Realm, "scm", "s", "", "domain name of SteelConnect Manager")
	cmd.Flags().StringVarP(&opts.Organisation, "organisation", "o", "", "name of target organisation")
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "username for SteelConnect Manager: prompted if not supplied")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "password for SteelConnect Manager: prompted if not supplied")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "CSV file to import")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text, table, json, yaml")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	cmd.AddCommand(versionCmd())
	return cmd
}

// collect queries every realm in turn and joins the results, printing one
// progress line per realm to out. The first failing realm aborts the run.
func collect(ctx context.Context, out io.Writer, realms []types.RealmCredentials, newClient clientFactory, logger *zap.Logger) (report.Report, error) {
	var (
		sites []types.Site
		nodes []types.Node
	)
	for _, rc := range realms {
		client := newClient(rc, logger)

		realm, realmSites, realmNodes, err := queryRealm(ctx, client, rc.Org)
		if err != nil {
			return report.Report{}, fmt.Errorf("realm %s: %w", rc.Realm, err)
		}
		sites = append(sites, realmSites...)
		nodes = append(nodes, realmNodes...)

		logger.Debug("Realm queried",
			zap.String("realm", realm.Name),
			zap.String("version", realm.Version),
			zap.Int("sites", len(realmSites)),
			zap.Int("nodes", len(realmNodes)))

		fmt.Fprintf(out, "Checking %s, version %s (%sms)...\n", realm.Name, realm.Version, formatLatency(realm.Latency))
	}

	return report.Build(sites, nodes), nil
}

func queryRealm(ctx context.Context, client *scm.Client, orgName string) (types.Realm, []types.Site, []types.Node, error) {
	realm := types.Realm{Name: client.Realm()}

	start := time.Now()
	org, err := client.FindOrganization(ctx, orgName)
	if err != nil {
		return realm, nil, nil, err
	}
	realm.Latency = time.Since(start)

	if realm.Version, err = client.RealmVersion(ctx); err != nil {
		return realm, nil, nil, err
	}
	sites, err := client.Sites(ctx, org)
	if err != nil {
		return realm, nil, nil, err
	}
	nodes, err := client.Nodes(ctx, org)
	if err != nil {
		return realm, nil, nil, err
	}
	return realm, sites, nodes, nil
}

// formatLatency renders d in milliseconds rounded to two decimals.
func formatLatency(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	return strconv.FormatFloat(math.Round(ms*100)/100, 'f', -1, 64)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scm-node-status %s\n", version)
		},
	}
}

func setupLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
