package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/shell"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the run_line tool over MCP on stdio",
	Long: `Serve a Model Context Protocol tool, run_line, on stdin/stdout. Each call
runs one line with stdin at /dev/null and returns what it wrote along with
its exit status. Calls run one at a time.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	sh, _, err := openShell(cmd)
	if err != nil {
		return err
	}
	defer sh.Close()
	return server.ServeStdio(newMCPServer(sh, cmd.Root().Version))
}

func newMCPServer(sh *shell.Shell, version string) *server.MCPServer {
	s := server.NewMCPServer("pipesh", version, server.WithToolCapabilities(false))
	s.AddTool(mcp.NewTool("run_line",
		mcp.WithDescription("Run one pipesh command line. Stages are separated by '|'; "+
			"'>' '>>' and '<' redirect. Builtins: cd, pwd, kill, ps, help, exit, quit."),
		mcp.WithString("line", mcp.Required(), mcp.Description("The command line to run")),
	), runLineHandler(sh))
	return s
}

func runLineHandler(sh *shell.Shell) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		line, err := req.RequireString("line")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := sh.Capture(ctx, line)
		if err != nil {
			if out == nil {
				return nil, err
			}
			msg := err.Error()
			if out.Stderr != "" {
				msg += "\n" + out.Stderr
			}
			return mcp.NewToolResultError(msg), nil
		}
		return mcp.NewToolResultStructured(out, formatOutput(out)), nil
	}
}

func formatOutput(out *shell.Output) string {
	var b strings.Builder
	b.WriteString(out.Stdout)
	if out.Stderr != "" {
		fmt.Fprintf(&b, "[stderr]\n%s", out.Stderr)
	}
	switch {
	case out.Quit:
		b.WriteString("[quit]\n")
	case out.Status != 0:
		fmt.Fprintf(&b, "[exit status %d]\n", out.Status)
	}
	return b.String()
}
