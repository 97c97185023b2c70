package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/ExamFox/app/controllers"
	"github.com/ManuelReschke/ExamFox/app/repository"
	"github.com/ManuelReschke/ExamFox/internal/pkg/archive"
	"github.com/ManuelReschke/ExamFox/internal/pkg/billing"
	"github.com/ManuelReschke/ExamFox/internal/pkg/cache"
	"github.com/ManuelReschke/ExamFox/internal/pkg/completion"
	"github.com/ManuelReschke/ExamFox/internal/pkg/database"
	"github.com/ManuelReschke/ExamFox/internal/pkg/env"
	"github.com/ManuelReschke/ExamFox/internal/pkg/generation"
	"github.com/ManuelReschke/ExamFox/internal/pkg/metrics"
	"github.com/ManuelReschke/ExamFox/internal/pkg/notify"
	"github.com/ManuelReschke/ExamFox/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/examfox to project root
		"../../../", // Fallback
	}

	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		panic("Could not find project root directory")
	}

	// metrics
	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)
	daily := metrics.NewDailyCounter(cache.GetClient())

	// generation
	pipelineOpts := generation.Options{
		DB:        db,
		Completer: completion.NewOpenAIClientFromEnv(),
		Recorder:  metrics.NewRecorder(m, daily),
		Timeout:   env.GetEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
	}
	archiveCfg, err := archive.LoadConfig()
	if err != nil {
		panic(err)
	}
	if archiveCfg.IsEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := archive.NewClient(ctx, archiveCfg)
		cancel()
		if err != nil {
			panic(err)
		}
		pipelineOpts.Archiver = client
		fiberlog.Infof("[Archive] archiving exams to bucket %s", archiveCfg.BucketName)
	}

	// billing
	if env.GetEnv("WEBHOOK_HMAC_SECRET", "") == "" && env.GetEnv("ASAAS_WEBHOOK_TOKEN", "") == "" {
		fiberlog.Warn("[Billing] no webhook secret configured, payment notifications will be rejected")
	}

	deps := controllers.APIDeps{
		Repos:     repository.GetGlobalFactory().GetRepositories(),
		Checkout:  billing.NewCheckoutServiceFromDB(db),
		Webhooks:  billing.NewSynchronizerFromDB(db, notify.NewOverdueMailer(nil)),
		Verifier:  billing.VerifierFromEnv(),
		Generator: generation.NewPipeline(pipelineOpts),
		Metrics:   m,
		Daily:     daily,
	}
	controllers.InitializeAPIController(deps)

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, router.Options{
		Controller:           controllers.GetAPIController(),
		Registry:             registry,
		LimiterStorage:       router.NewLimiterStorage(),
		APIRequestsPerMinute: env.GetEnvInt("API_RATE_LIMIT_PER_MINUTE", 60),
		SignupsPerHour:       env.GetEnvInt("SIGNUP_RATE_LIMIT_PER_HOUR", 5),
	})

	return app
}
