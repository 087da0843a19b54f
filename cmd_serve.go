package main

import (
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/planboard/pkg/mcp"
)

// version is reported to MCP clients.
var version = "dev"

var serveInput inputFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning table to MCP clients over stdio",
	Long: `Loads the workbook once and answers MCP tool calls on stdin/stdout until
stdin closes. Expected progress and delay follow the current date unless
--as-of is given.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveInput.register(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := serveInput.load(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting MCP stdio server", zap.Int("rows", s.Len()))
	return mcp.New(s, logger).MCP(version).Run(ctx, &sdkmcp.StdioTransport{})
}
