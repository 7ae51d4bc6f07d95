package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"retreat/config"
	"retreat/infras/jwt"
	"retreat/shared/constant"
	"retreat/shared/logger"

	"github.com/rs/zerolog/log"
)

// Mints an access token for an operator or a traveler, e.g.
//
//	go run ./cmd/token -sub ops@example.com -role admin -ttl 12h
func main() {
	subject := flag.String("sub", "", "token subject (operator or traveler id)")
	role := flag.String("role", constant.RoleAdmin, "admin or traveler")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")

	flag.Parse()

	cfg := config.Get()

	logger.Init(cfg)

	if *subject == "" {
		log.Fatal().Msg("-sub is required")
	}

	if !slices.Contains([]string{constant.RoleAdmin, constant.RoleTraveler}, *role) {
		log.Fatal().Str("role", *role).Msg("role must be admin or traveler")
	}

	token, err := jwt.New(cfg).Sign(*subject, *role, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	fmt.Fprintln(os.Stdout, token)
}
