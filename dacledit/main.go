package main

import (
	"os"

	"github.com/lkarlslund/dacledit/modules/cli"
	_ "github.com/lkarlslund/dacledit/modules/integrations/activedirectory/modify"
	"github.com/lkarlslund/dacledit/modules/ui"
)

func main() {
	err := cli.CliMainEntryPoint()

	if err != nil {
		ui.Error().Msg(err.Error())
		os.Exit(1)
	}
}
