package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/qiniu/commitmcp/internal/config"
	"github.com/qiniu/commitmcp/internal/git"
	"github.com/qiniu/commitmcp/internal/guides"
	"github.com/qiniu/commitmcp/internal/lint"
	"github.com/qiniu/commitmcp/internal/mcp"
	"github.com/qiniu/commitmcp/internal/mcp/servers"
	"github.com/qiniu/commitmcp/pkg/models"
)

const (
	serverName    = "commitmcp"
	serverVersion = "1.0.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var logFile string

	cmd := &cobra.Command{
		Use:           "mcp-server",
		Short:         "MCP server for conventional commit tooling",
		Long:          "Serves conventional commit context gathering, commit message validation and documentation style guides over the MCP stdio protocol.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, logFile)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "path to log file (in addition to stderr)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", serverName, serverVersion)
		},
	})

	return cmd
}

func serve(configPath, logFileFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logFileFlag != "" {
		cfg.Server.LogFile = logFileFlag
	}

	// stdout carries the protocol; logs go to stderr and, when
	// writable, the configured log file.
	logOutput := io.Writer(os.Stderr)
	if cfg.Server.LogFile != "" {
		f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			defer f.Close()
			logOutput = io.MultiWriter(os.Stderr, f)
		}
	}
	log.SetOutput(logOutput)
	log.SetPrefix("[MCP Server] ")

	log.Printf("Starting %s %s...", serverName, serverVersion)

	manager := mcp.NewManager()

	loader := guides.NewLoader(cfg.Guides.BaseDir)
	commitsServer := servers.NewConventionalCommitsServer(
		git.NewService(cfg.Git.Binary),
		lint.NewRunner(cfg.Lint.Binary),
		loader,
	)
	if err := manager.RegisterServer("conventional-commits", commitsServer); err != nil {
		return fmt.Errorf("failed to register conventional-commits server: %w", err)
	}

	docsServer := servers.NewPythonDocsServer(loader)
	if err := manager.RegisterServer("python-docs", docsServer); err != nil {
		return fmt.Errorf("failed to register python-docs server: %w", err)
	}

	tc := buildToolContext()

	log.Printf("Registered %d tool servers", len(manager.GetServers()))

	// Matches the startup line of the official reference servers.
	fmt.Fprintln(os.Stderr, "commitmcp MCP Server running on stdio")

	server := mcp.NewStdioServer(serverName, serverVersion, manager, tc, os.Stdin, os.Stdout)
	return server.Serve()
}

// buildToolContext grants the full read-only permission set. Handlers
// are stateless; the context only pins the fallback working directory.
func buildToolContext() *models.ToolContext {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &models.ToolContext{
		WorkDir:  wd,
		Metadata: make(map[string]string),
		Permissions: []string{
			mcp.PermGitRead,
			mcp.PermExecRun,
			mcp.PermFSRead,
		},
	}
}
