// Command housingctl runs maintenance tasks against the housing
// database: schema migration and refresh token cleanup.
package main

import (
	"os"

	"github.com/iliyamo/campus-housing/internal/utils"
)

func main() {
	utils.InitLogger("housingctl")
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
