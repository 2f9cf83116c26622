package main

import (
	"os"

	"github.com/isdelr/voting-be/cmd"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("voting-be failed")
		os.Exit(1)
	}
}
