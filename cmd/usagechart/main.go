package main

import (
	"os"

	"github.com/ncecere/usage_dashboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
