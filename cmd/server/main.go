package main

import (
	"context"
	"flag"
	"fmt"
	"log/syslog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/djportal/accounts"
	"github.com/djportal/accounts/blob"
	"github.com/djportal/accounts/events"
	"github.com/djportal/accounts/persistent"
	"github.com/djportal/accounts/profile"
	"github.com/djportal/accounts/thumbnail"
	"github.com/djportal/accounts/transport/rest"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	logrusys "github.com/sirupsen/logrus/hooks/syslog"
	"github.com/tidwall/buntdb"
	"github.com/uptrace/bun"
)

// Image uploads are read whole into memory.
const maxBodySize = 16 * 1024 * 1024

type services struct {
	bdb    *buntdb.DB
	db     *bun.DB
	images accounts.ImageStore
	events accounts.EventPublisher
}

func listenAndServe(cfg config, s services) func() error {
	userStore := &persistent.UserStore{DB: s.db}
	profileStore := &persistent.ProfileStore{DB: s.db}
	changeStore := &persistent.ChangeStore{DB: s.db}
	sessionStore := &persistent.SessionStore{Buntdb: s.bdb}
	if err := sessionStore.CreateIndexes(); err != nil {
		logrus.WithError(err).Fatalln("Could not create session indexes.")
	}

	authController := rest.AuthController{
		SessionStore: sessionStore,
		UserStore:    userStore,
	}
	sessionController := rest.SessionController{
		Profiles: profileStore,
		Images:   s.images,
	}
	profileController := rest.ProfileController{
		Updater: &profile.Updater{
			Profiles:    profileStore,
			Images:      s.images,
			Thumbnailer: thumbnail.New(),
			Events:      s.events,
		},
		Profiles: profileStore,
		Changes:  changeStore,
		Images:   s.images,
	}

	server := fiber.New(appConfig())
	server.Use(rest.LogHandler())
	server.Use(rest.MetricsHandler())
	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := fiber.New(appConfig())
	api.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	requestAuthorizer := rest.RequestAuthorizer(sessionStore, userStore)
	api.Get("/status", monitor.New())
	authController.InstallTo(requestAuthorizer, api)
	sessionController.InstallTo(requestAuthorizer, api)
	profileController.InstallTo(requestAuthorizer, api)
	api.Use(rest.NotFoundHandler)

	server.Mount("/api", api)

	if cfg.Blob.Backend == "disk" {
		server.Static("/media", cfg.Blob.DiskRoot, fiber.Static{Browse: false})
	}
	server.Use(rest.NotFoundHandler)

	go func() {
		if err := server.Listen(cfg.Addr); err != nil {
			logrus.WithError(err).Fatalln("Could not listen.")
		}
	}()

	return func() error {
		return server.ShutdownWithTimeout(10 * time.Second)
	}
}

// appConfig configures both the root app and the mounted api. Limits and
// timeouts only take effect on the root app, which owns the listener.
func appConfig() fiber.Config {
	return fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		BodyLimit:    maxBodySize,
		ErrorHandler: rest.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	}
}

func setupLogger(verbose bool, useSyslog bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.Stamp,
		FullTimestamp:   true,
	})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if !useSyslog {
		return
	}

	syslogHook, err := logrusys.NewSyslogHook("", "", syslog.LOG_USER, "accounts_backend")
	if err != nil {
		logrus.WithError(err).Fatalln("Could not create syslog hook.")
		return
	}
	logrus.AddHook(syslogHook)
}

func openImageStore(ctx context.Context, cfg blobConfig) (accounts.ImageStore, error) {
	if cfg.Backend == "s3" {
		store, err := blob.NewS3(ctx, blob.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessId:  cfg.S3AccessId,
			AccessKey: cfg.S3AccessKey,
			Endpoint:  cfg.S3Endpoint,
			KeyPrefix: cfg.S3KeyPrefix,
			PublicURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	if err := os.MkdirAll(cfg.DiskRoot, 0o755); err != nil {
		return nil, err
	}
	return &blob.Disk{Root: cfg.DiskRoot, BaseURL: cfg.BaseURL}, nil
}

func awaitInterruption() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

func main() {
	flag.Parse()
	cfg, err := loadConfig()
	if err != nil {
		logrus.WithError(err).Fatalln("Invalid configuration.")
	}
	setupLogger(cfg.Debug, cfg.LogSyslog)
	logrus.Infoln("Starting backend.")
	ctx := context.Background()

	bdb, err := buntdb.Open(cfg.SessionsDb)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open buntdb.")
	}
	defer bdb.Close()

	logrus.Infoln("Opening database.")
	db, err := persistent.PgOpen(ctx, cfg.PostgresDsn, cfg.DbVerbose)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open database.")
	}
	defer db.Close()
	if err := persistent.CreateSchema(ctx, db); err != nil {
		logrus.WithError(err).Fatalln("Could not create database schema.")
	}

	if *seedUsername != "" {
		userStore := &persistent.UserStore{DB: db}
		sessionStore := &persistent.SessionStore{Buntdb: bdb}
		_, session, err := seedSession(ctx, userStore, sessionStore, *seedUsername, *seedEmail)
		if err != nil {
			logrus.WithError(err).Fatalln("Could not seed user.")
		}
		fmt.Println(session.Token)
		return
	}

	images, err := openImageStore(ctx, cfg.Blob)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open image store.")
	}

	var publisher accounts.EventPublisher = events.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logrus.
			WithField("brokers", strings.Join(cfg.Kafka.Brokers, ",")).
			WithField("topic", cfg.Kafka.Topic).
			Infoln("Publishing profile events to kafka.")
	}

	logrus.Infoln("Starting listening... To shut down use ^C")
	shutdown := listenAndServe(cfg, services{
		bdb:    bdb,
		db:     db,
		images: images,
		events: publisher,
	})

	awaitInterruption()

	logrus.Infoln("Shutting down...")
	if err := shutdown(); err != nil {
		logrus.WithError(err).Warningln("Fiber shutdown failed.")
	}
}
