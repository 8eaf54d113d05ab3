// Package cmd implements the root command for Cobra.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/simonwong/mcp-servers/lib/build"
	"github.com/simonwong/mcp-servers/lib/tools"
)

// ErrTokenMissing indicates that no GitLab access token was configured.
var ErrTokenMissing = errors.New("GITLAB_TOKEN is not set")

// New creates a new command hierarchy for Cobra.
func New() *cobra.Command {
	cmd := newRootCommand()

	cmd.AddCommand(newVersionCommand())

	return cmd
}

// newRootCommand returns the root command for the CLI. Flags are bound
// through Viper so that each of them can also be set via a GITLAB_*
// environment variable.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gitlab-mcp-server",
		Short: "GitLab MCP server",
		Long:  "A command-line tool that provides an MCP server for managing GitLab projects.",
		RunE:  run,
		Args:  cobra.NoArgs,
	}

	cmd.PersistentFlags().String("gitlab-url", "", "Base URL of the GitLab instance, for self-managed installations")
	cmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
	cmd.PersistentFlags().Bool("read-only", false, "Only register tools that cannot modify the GitLab instance")

	viper.SetEnvPrefix("gitlab")
	viper.AutomaticEnv()

	_ = viper.BindPFlag("url", cmd.PersistentFlags().Lookup("gitlab-url"))
	_ = viper.BindPFlag("log_file", cmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("read_only", cmd.PersistentFlags().Lookup("read-only"))

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	if path := viper.GetString("log_file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}

		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	}

	token := viper.GetString("token")
	if token == "" {
		return ErrTokenMissing
	}

	opts := []gitlab.ClientOptionFunc{
		gitlab.WithRequestOptions(
			gitlab.WithHeader("User-Agent", "gitlab-mcp-server/"+build.Version()),
		),
	}

	if baseURL := viper.GetString("url"); baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}

	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return fmt.Errorf("NewClient: %w", err)
	}

	// Fail early on a bad or expired token rather than on the first tool call.
	user, _, err := client.Users.CurrentUser(gitlab.WithContext(cmd.Context()))
	if err != nil {
		return fmt.Errorf("CurrentUser: %w", err)
	}

	readOnly := viper.GetBool("read_only")

	log.Info().
		Str("user", user.Username).
		Bool("read_only", readOnly).
		Msg("starting GitLab MCP server")

	s := server.NewMCPServer(
		"GitLab",
		build.Version(),
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	tools.New(client, readOnly).AddTo(s)

	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("ServeStdio: %w", err)
	}

	return nil
}
