package cmd

import (
	"context"

	"github.com/rubiojr/catalog/pkg/mcp"
	"github.com/urfave/cli/v3"
)

// MCPCommand creates the mcp command
func MCPCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve catalog search as MCP tools over stdio",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c.String("config"))
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			srv, err := mcp.NewServer(newService(cfg, store))
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}
