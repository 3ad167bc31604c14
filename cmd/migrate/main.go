package main

import (
	"context"
	"os"
	"time"

	"github.com/0x13a/campusjobs/internal/database"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	godotenv.Load()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal().Msg("DATABASE_URL cannot be empty")
	}
	conn, err := database.GetDbConn(databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to connect to postgres")
	}
	defer database.CloseDbConn(conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.Migrate(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("schema applied")
}
