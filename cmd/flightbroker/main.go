package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"flightbroker/cfg"
	"flightbroker/internal/booking"
	"flightbroker/internal/flight"
	"flightbroker/internal/user"
	"flightbroker/pkg/cache"
	"flightbroker/pkg/db"
	"flightbroker/pkg/gds"
	"flightbroker/pkg/idgen"
	"flightbroker/pkg/logger"
	"flightbroker/pkg/oauth2"
	"flightbroker/pkg/telemetry"

	_ "flightbroker/cmd/flightbroker/docs" // swagger docs

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// @title           Flight Broker API
// @version         1.0
// @description     Flight search, fare lookups and two-phase booking against a GDS supplier.
// @BasePath        /
// @schemes         http https
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ============
	// config
	// ============
	config, errCfg := cfg.Load()
	if errCfg != nil {
		log.Fatal(errCfg)
	}

	// ============
	// logger
	// ============
	zlogger := logger.NewZeroLog(config.AppEnv)

	// ============
	// Otel
	// ============
	shutdownOtel, err := telemetry.Init(ctx, config.Observability, zlogger)
	if err != nil {
		log.Fatal(err)
	}

	// ============
	// Cache
	// ============
	redisAddr := config.Redis.Host + ":" + config.Redis.Port
	redis := cache.NewRedisCache(redisAddr, config.Redis.Password)

	// ============
	// DB
	// ============
	pg := db.PostgresConfig{
		Host:     config.Postgres.Host,
		Port:     config.Postgres.Port,
		User:     config.Postgres.User,
		Password: config.Postgres.Password,
		DBName:   config.Postgres.DBName,
		SSLMode:  config.Postgres.SSLMode,
	}
	sqlClient, err := db.NewSQLClient("postgres", pg.DSN())
	if err != nil {
		log.Fatal(err)
	}
	defer sqlClient.Close()

	ids, err := idgen.NewSnowflakeGenerator(config.SnowflakeNodeID)
	if err != nil {
		log.Fatal(err)
	}

	// ============
	// External Service
	// ============
	httpClient := gds.NewHTTPClient(time.Duration(config.GDS.TimeoutSeconds)*time.Second, zlogger)
	tokens := gds.NewSessionTokens(
		httpClient,
		config.GDS.AuthURL,
		gds.Credentials{
			ClientID:  config.GDS.ClientID,
			UserName:  config.GDS.UserName,
			Password:  config.GDS.Password,
			EndUserIP: config.GDS.EndUserIP,
		},
		redis,
		time.Duration(config.GDS.TokenTTLHours)*time.Hour,
		zlogger,
	)
	gdsClient, err := gds.NewClient(httpClient, gds.Endpoints{
		Authenticate: config.GDS.AuthURL,
		Search:       config.GDS.SearchURL,
		FareRule:     config.GDS.FareRuleURL,
		FareQuote:    config.GDS.FareQuoteURL,
		SSR:          config.GDS.SSRURL,
		Book:         config.GDS.BookURL,
		Ticket:       config.GDS.TicketURL,
	}, config.GDS.EndUserIP, tokens, zlogger)
	if err != nil {
		log.Fatal(err)
	}

	// ============
	// Internal Service
	// ============
	users := user.NewDirectory(sqlClient, ids)
	bookings := booking.NewPostgresStore(sqlClient, ids)
	orchestrator := booking.NewOrchestrator(gdsClient, bookings, zlogger)

	flightHandler := flight.NewFlightHandler(flight.NewService(gdsClient, zlogger), tokens)
	bookingHandler := booking.NewBookingHandler(orchestrator, bookings, booking.NewPayloadStore(redis), users, tokens, zlogger)

	// ============
	// HTTP
	// ============
	if config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(config.Observability.ServiceName))
	r.Use(telemetry.RequestIDMiddleware())
	r.Use(telemetry.TraceLoggerMiddleware(zlogger))

	if config.OAuth2.GoogleClientID != "" && config.OAuth2.GoogleClientSecret != "" {
		google, err := oauth2.NewGoogleOIDCProvider(ctx,
			config.OAuth2.GoogleClientID,
			config.OAuth2.GoogleClientSecret,
			config.OAuth2.GoogleRedirectUrl,
		)
		if err != nil {
			log.Fatal(err)
		}
		oauth2mgr := oauth2.NewManager(google, redis, users, oauth2.ManagerConfig{
			FrontendURL: config.OAuth2.FrontendURL,
		}, zlogger)
		r.Use(oauth2.SessionMiddleware(oauth2mgr))
		oauth2.NewHandler(oauth2mgr, config.AppEnv == "production").RegisterRoutes(r)
	} else {
		zlogger.Warn("google sign-in disabled, GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Server is running"})
	})
	flightHandler.RegisterRoutes(r)
	bookingHandler.RegisterRoutes(r)
	initSwagger(r)

	// The first request retries through GetToken when this fails.
	if _, err := tokens.Authenticate(ctx); err != nil {
		zlogger.Error("initial GDS authentication failed", logger.Field{Key: "err", Value: err})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlogger.Info("server listening", logger.Field{Key: "addr", Value: srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	zlogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlogger.Error("http shutdown failed", logger.Field{Key: "err", Value: err})
	}
	orchestrator.Wait()
	if err := shutdownOtel(shutdownCtx); err != nil {
		zlogger.Error("failed to shutdown OpenTelemetry", logger.Field{Key: "err", Value: err})
	}
}

func initSwagger(r *gin.Engine) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		html := `<!DOCTYPE html>
<html>
<head>
    <title>Flight Broker API</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <script id="api-reference" data-url="/swagger/doc.json"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
		c.String(200, html)
	})
}
