package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rpupo63/fieldlens-backend/annotation"
	"github.com/rpupo63/fieldlens-backend/api"
	"github.com/rpupo63/fieldlens-backend/capture"
	"github.com/rpupo63/fieldlens-backend/config"
	"github.com/rpupo63/fieldlens-backend/database"
	"github.com/rpupo63/fieldlens-backend/events"
	"github.com/rpupo63/fieldlens-backend/fixtures"
	"github.com/rpupo63/fieldlens-backend/metrics"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/rpupo63/fieldlens-backend/services"
	"github.com/rpupo63/fieldlens-backend/storage"
	"github.com/rpupo63/fieldlens-backend/views"
)

func main() {
	fmt.Println("Initializing app...")

	config.Load()
	c := config.New()

	if config.GetBool(c, "DEBUG", false) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if prefix := config.GetString(c, "SSM_PARAMETER_PATH", ""); prefix != "" {
		client, err := config.NewSSMClient(ctx, config.GetString(c, "AWS_REGION", ""))
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating SSM client")
		}
		loaded, err := config.LoadSSM(ctx, client, c, prefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading SSM parameters")
		}
		log.Info().Int("parameters", loaded).Str("path", prefix).Msg("Loaded configuration from SSM")
	}

	seed, err := loadSeed(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading fixtures")
	}

	storeDriver := strings.ToLower(config.GetString(c, "STORE_DRIVER", database.DriverMemory))
	currentDB, db, err := openDatabase(ctx, c, storeDriver, seed)
	if err != nil {
		log.Fatal().Err(err).Str("driver", storeDriver).Msg("Error opening store")
	}

	// If generating models, run generation and exit
	if config.GetBool(c, "GENERATE_MODELS", false) {
		if db == nil {
			log.Fatal().Msg("GENERATE_MODELS needs a relational STORE_DRIVER")
		}
		fmt.Println("Generating models and query helpers...")
		if err := models.GenerateModels(db); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}

	store, blobs, err := openPhotoStore(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring photo storage")
	}

	cameraDriver := config.GetString(c, "CAMERA_DRIVER", "synthetic")
	device, err := capture.NewDevice(cameraDriver)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring camera")
	}

	appMetrics, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		log.Fatal().Err(err).Msg("Error registering metrics")
	}

	hub := events.NewHub(config.GetList(c, "ACCEPTED_ORIGINS"))
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	opts := []services.Option{
		services.WithLatency(services.DefaultLatency(config.GetFloat(c, "SIMULATED_LATENCY_SCALE", 1))),
		services.WithPublisher(hub),
		services.WithRecorder(appMetrics),
	}
	mailer, err := services.NewResendMailerFromConfig(c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error configuring invite mailer")
	}
	if mailer != nil {
		opts = append(opts, services.WithMailer(mailer))
	} else {
		log.Info().Msg("RESEND_API_KEY not set, invitations will not be e-mailed")
	}
	svc := services.New(currentDB, opts...)

	overlay := annotation.NewOverlay(svc.Photos,
		config.GetDuration(c, "ANNOTATION_DRAFT_TTL", annotation.DefaultDraftTTL),
		annotation.WithDraftCount(appMetrics.SetAnnotationDrafts),
	)

	sessions := capture.NewManager(device, store, svc.Photos, capture.Config{
		Width:    config.GetInt(c, "CAMERA_WIDTH", capture.DefaultWidth),
		Height:   config.GetInt(c, "CAMERA_HEIGHT", capture.DefaultHeight),
		AckDelay: config.GetDuration(c, "CAPTURE_ACK", capture.DefaultAckDelay),
		Recorder: appMetrics,
	},
		capture.WithSessionTTL(config.GetDuration(c, "CAPTURE_SESSION_TTL", capture.DefaultSessionTTL)),
		capture.WithSessionCount(appMetrics.SetCaptureSessions),
	)
	sessionsDone := make(chan struct{})
	go func() {
		defer close(sessionsDone)
		sessions.Run(ctx)
	}()

	server, err := api.NewServer(api.Dependencies{
		Services:     svc,
		Overlay:      overlay,
		Sessions:     sessions,
		Views:        views.New(svc.Projects, svc.Photos, svc.Team, overlay),
		Store:        store,
		Blobs:        blobs,
		Hub:          hub,
		Metrics:      appMetrics,
		StoreDriver:  storeDriver,
		CameraDriver: device.Name(),
	}, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	errChannel := make(chan error)

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)

	// Closes every capture session and disconnects websocket subscribers
	cancel()
	<-sessionsDone
	<-hubDone
}

func loadSeed(c map[string]string) (fixtures.Seed, error) {
	if dir := config.GetString(c, "FIXTURES_DIR", ""); dir != "" {
		return fixtures.LoadDir(dir)
	}
	return fixtures.Load()
}

// openDatabase returns the repositories for the configured driver. The gorm handle is nil for
// the memory driver.
func openDatabase(ctx context.Context, c map[string]string, driver string, seed fixtures.Seed) (database.Database, *gorm.DB, error) {
	if driver == database.DriverMemory {
		db, err := database.NewMemory(seed)
		return db, nil, err
	}

	db, err := database.Open(database.Options{
		Driver:          driver,
		DSN:             config.GetString(c, "DATABASE_URL", "fieldlens.db"),
		ReadReplicaDSNs: config.GetList(c, "DB_READ_REPLICA_DSN"),
		SlowThreshold:   config.GetDuration(c, "DB_SLOW_THRESHOLD", 10*time.Second),
	})
	if err != nil {
		return database.Database{}, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return database.Database{}, nil, err
	}
	if err := database.Seed(ctx, db, seed); err != nil {
		return database.Database{}, nil, err
	}
	return database.NewGorm(db), db, nil
}

// openPhotoStore writes photos to S3 when PHOTO_BUCKET is set and to short-lived in-memory
// blobs otherwise. The transient store is also returned so /blob can serve it.
func openPhotoStore(ctx context.Context, c map[string]string) (storage.Store, *storage.TransientStore, error) {
	if bucket := config.GetString(c, "PHOTO_BUCKET", ""); bucket != "" {
		s3Store, err := storage.NewS3StoreFromEnv(ctx, storage.S3Config{
			Bucket:        bucket,
			Region:        config.GetString(c, "AWS_REGION", "us-east-1"),
			Prefix:        config.GetString(c, "PHOTO_PREFIX", "photos"),
			PublicBaseURL: config.GetString(c, "PHOTO_PUBLIC_BASE_URL", ""),
		})
		if err != nil {
			return nil, nil, err
		}
		return s3Store, nil, nil
	}

	baseURL := config.GetString(c, "PUBLIC_BASE_URL", "http://localhost:"+config.GetString(c, "PORT", "8080"))
	blobs := storage.NewTransientStore(baseURL, config.GetDuration(c, "BLOB_TTL", time.Hour))
	return blobs, blobs, nil
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
