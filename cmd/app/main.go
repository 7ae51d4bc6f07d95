package main

import (
	"retreat/config"
	"retreat/di"
	"retreat/helper"
	"retreat/shared/logger"

	"github.com/rs/zerolog/log"
)

// @title Retreat Booking API
// @version 1.0
// @description Trip catalogue, booking checkout, booking intents and provider webhooks.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.Init(cfg)

	if err := helper.AutoMigrate(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	http := di.InitializeService()
	http.Serve()
}
