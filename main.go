package main

import (
	"os"
	"time"

	"github.com/0x13a/campusjobs/internal/application"
	"github.com/0x13a/campusjobs/internal/config"
	"github.com/0x13a/campusjobs/internal/database"
	"github.com/0x13a/campusjobs/internal/email"
	"github.com/0x13a/campusjobs/internal/handler"
	"github.com/0x13a/campusjobs/internal/job"
	"github.com/0x13a/campusjobs/internal/media"
	"github.com/0x13a/campusjobs/internal/server"
	"github.com/0x13a/campusjobs/internal/session"
	"github.com/0x13a/campusjobs/internal/user"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("unable to read .env file")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load config")
	}
	conn, err := database.GetDbConn(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to connect to postgres")
	}
	defer database.CloseDbConn(conn)

	svr := server.NewServer(
		cfg,
		mux.NewRouter(),
		session.NewManager(cfg.SessionKey, cfg.JwtSigningKey, cfg.SiteURL()),
		log,
	)

	emailClient := email.NewClient(cfg.EmailAPIKey, cfg.NoReplyEmail, cfg.SiteName, cfg.SiteURL())
	if !emailClient.Enabled() {
		log.Info().Msg("EMAIL_API_KEY not set, applicant notifications disabled")
	}

	handler.RegisterRoutes(svr, handler.Deps{
		Users:        user.NewRepository(conn),
		Jobs:         job.NewRepository(conn),
		Applications: application.NewRepository(conn),
		Media:        media.NewDBStore(conn, cfg.SiteURL()),
		Notifier:     emailClient,
		DB:           conn,
	})

	if err := svr.Run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
