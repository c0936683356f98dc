package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/catalog/pkg/version"
	"github.com/urfave/cli/v3"
)

func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show the catalog release and API revision",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print version information as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return printVersion(os.Stdout, version.Current(), c.Bool("json"), isTerminal(os.Stdout))
		},
	}
}

func printVersion(w io.Writer, info version.Info, asJSON, styled bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(info)
	}
	if !styled {
		_, err := fmt.Fprintln(w, info)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%s%s\n%s%s\n",
		titleStyle.Render("catalog "+info.Version),
		labelStyle.Render("API"), info.API,
		labelStyle.Render("Go"), info.Go)
	return err
}
