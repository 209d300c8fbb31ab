package main

import (
	"fmt"
	"os"

	"github.com/Tropical8818/iProTalk/cmd/relayctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "relayctl: %v\n", err)
		os.Exit(1)
	}
}
