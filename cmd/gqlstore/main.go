// Command gqlstore serves and queries the consumable-material dataset.
package main

import (
	"fmt"
	"os"

	"github.com/CoMatu/test-gql-server/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
