package main

import (
	"os"

	"github.com/jar-analysis/jar-analysis-go/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
