package main

import (
	"github.com/illarion/lockpass/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		cmd.HandleError(err)
	}
}
