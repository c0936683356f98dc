package main

import (
	"context"
	"log"
	"os"

	"github.com/rubiojr/catalog/cmd"
	"github.com/rubiojr/catalog/pkg/config"
)

func main() {
	if err := cmd.App(getDefaultConfigPathOrExit()).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
