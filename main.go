package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"roamwyth/internal/config"
	"roamwyth/internal/db"
	grpcsvc "roamwyth/internal/grpc"
	"roamwyth/internal/handlers"
	"roamwyth/internal/mailer"
	"roamwyth/internal/metrics"
	"roamwyth/internal/middleware"
	"roamwyth/internal/notifier"
	"roamwyth/internal/observability"
	"roamwyth/internal/rabbitmq"
	"roamwyth/internal/repositories"
	"roamwyth/internal/services"
	"roamwyth/internal/telemetry"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

var migrateOnStart bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "roamwyth",
	Short:         "Roamwyth trip planning API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply database migrations before serving")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("roamwyth " + version)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		database, err := db.Connect(cfg.DSN)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.Migrate(cmd.Context(), database); err != nil {
			return err
		}
		log.Printf("migrations applied")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func newPublisher(amqpURL, exchange, purpose string) rabbitmq.Publisher {
	if amqpURL == "" {
		log.Printf("warning: AMQP_URL not set; %s publishing disabled", purpose)
		return rabbitmq.NewNoopPublisher()
	}
	pub, err := rabbitmq.NewPublisher(amqpURL, exchange)
	if err != nil {
		log.Printf("warning: failed to initialize RabbitMQ %s publisher: %v", purpose, err)
		return rabbitmq.NewNoopPublisher()
	}
	return pub
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg.DSN)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()
	if migrateOnStart {
		if err := db.Migrate(ctx, database); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	}

	observability.InitMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterSocialMetrics()

	publisher := newPublisher(cfg.AMQPURL, cfg.EventsExchange, "event")
	defer publisher.Close()
	auditPublisher := newPublisher(cfg.AMQPURL, cfg.LogsExchange, "audit")
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, cfg.ServiceName, cfg.Environment)

	friendRepo := repositories.NewFriendRepository(database)
	profileRepo := repositories.NewProfileRepository(database)
	tripRepo := repositories.NewTripRepository(database)
	tripBitRepo := repositories.NewTripBitRepository(database)
	inviteRepo := repositories.NewInviteRepository(database)
	messageRepo := repositories.NewMessageRepository(database)
	notificationRepo := repositories.NewNotificationRepository(database)
	wanderlistRepo := repositories.NewWanderlistRepository(database)
	recommendationRepo := repositories.NewRecommendationRepository(database)

	if cfg.AMQPURL != "" {
		consumer, err := rabbitmq.NewConsumer(cfg.AMQPURL, cfg.EventsExchange, cfg.NotifierQueue, notifier.Bindings)
		if err != nil {
			log.Printf("warning: failed to start notification consumer: %v", err)
		} else {
			defer consumer.Close()
			n := notifier.New(notificationRepo)
			go func() {
				if err := consumer.Run(ctx, n.Handle); err != nil {
					log.Printf("warning: notification consumer stopped: %v", err)
				}
			}()
		}
	}

	var mail mailer.Sender = mailer.NoEmail{}
	if cfg.SMTP.Configured() {
		mail = mailer.NewSMTP(cfg.SMTP.Server, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		log.Printf("warning: SMTP not configured; invite emails disabled")
	}

	scraper := services.NewMetadataScraper()
	profileService := services.NewProfileService(profileRepo)
	friendService := services.NewFriendService(friendRepo, profileRepo, publisher)
	tripService := services.NewTripService(tripRepo, tripBitRepo, friendRepo, profileRepo, publisher)
	inviteService := services.NewInviteService(inviteRepo, tripRepo, profileRepo, publisher, mail, cfg.AppURL)
	chatService := services.NewChatService(tripRepo, messageRepo, publisher)
	aiService := services.NewAIService(services.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel), scraper, tripRepo)
	placesClient := services.NewPlacesClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey)
	paymentService := services.NewPaymentService(profileRepo, cfg.PaymentWebhookSecret)

	userHandler := handlers.NewUserHandler(profileService, friendService, tripService, profileRepo, cfg.AvatarDir)
	friendHandler := handlers.NewFriendHandler(friendService, auditEmitter)
	tripHandler := handlers.NewTripHandler(tripService)
	inviteHandler := handlers.NewInviteHandler(inviteService, auditEmitter)
	messageHandler := handlers.NewMessageHandler(chatService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	wanderlistHandler := handlers.NewWanderlistHandler(wanderlistRepo, recommendationRepo, tripService)
	aiHandler := handlers.NewAIHandler(aiService)
	placesHandler := handlers.NewPlacesHandler(placesClient, scraper)
	paymentHandler := handlers.NewPaymentHandler(paymentService, auditEmitter)
	healthHandler := handlers.NewHealthHandler(database)

	if _, err := grpcsvc.StartGRPCServer(ctx, cfg.GRPCAddr, database); err != nil {
		log.Fatalf("failed to start gRPC server: %v", err)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.Metrics("/metrics", "/healthz"))

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/uploads/avatars", cfg.AvatarDir)
	r.GET("/invites/:code", inviteHandler.Preview)
	r.GET("/i/:code", inviteHandler.PreviewPage)
	r.POST("/webhooks/payments", paymentHandler.Webhook)

	auth := r.Group("", middleware.JWTAuth(cfg.JWTSecret))

	auth.GET("/users/me", userHandler.GetMe)
	auth.GET("/users/search", userHandler.Search)
	auth.POST("/users/me/avatar", userHandler.UploadAvatar)
	auth.DELETE("/users/me/avatar", userHandler.DeleteAvatar)
	auth.GET("/users/:id", userHandler.GetUserByID)
	auth.GET("/users/:id/trips", userHandler.ListTrips)

	auth.POST("/friends/requests", friendHandler.SendRequest)
	auth.GET("/friends/requests", friendHandler.ListRequests)
	auth.POST("/friends/requests/:id/accept", friendHandler.AcceptRequest)
	auth.POST("/friends/requests/:id/decline", friendHandler.DeclineRequest)
	auth.GET("/friends", friendHandler.ListFriends)
	auth.DELETE("/friends/:id", friendHandler.DeleteFriendship)

	auth.GET("/trips", tripHandler.Roster)
	auth.POST("/trips", tripHandler.Create)
	auth.GET("/trips/:id", tripHandler.Get)
	auth.PATCH("/trips/:id", tripHandler.Update)
	auth.DELETE("/trips/:id", tripHandler.Delete)
	auth.POST("/trips/:id/locations", tripHandler.AddLocation)
	auth.DELETE("/trips/:id/locations/:locationID", tripHandler.RemoveLocation)
	auth.POST("/trips/:id/participants", tripHandler.InviteUser)
	auth.DELETE("/trips/:id/participants/:userID", tripHandler.RemoveParticipant)
	auth.POST("/trips/:id/respond", tripHandler.Respond)
	auth.GET("/trips/:id/bits", tripHandler.ListBits)
	auth.POST("/trips/:id/bits", tripHandler.AddBit)
	auth.DELETE("/trips/:id/bits/:bitID", tripHandler.DeleteBit)

	auth.POST("/invites/:code/accept", inviteHandler.Accept)
	auth.POST("/trips/:id/invites", inviteHandler.CreateLink)
	auth.GET("/trips/:id/invites", inviteHandler.ListLinks)
	auth.DELETE("/trips/:id/invites/:inviteID", inviteHandler.RevokeLink)
	auth.POST("/trips/:id/invites/:inviteID/email", inviteHandler.EmailLink)

	auth.POST("/trips/:id/messages", messageHandler.Send)
	auth.GET("/trips/:id/messages", messageHandler.List)
	auth.POST("/trips/:id/read", messageHandler.MarkRead)
	auth.GET("/messages/unread", messageHandler.Unread)

	auth.GET("/notifications", notificationHandler.List)
	auth.POST("/notifications/:id/read", notificationHandler.MarkRead)
	auth.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	auth.GET("/wanderlist", wanderlistHandler.List)
	auth.POST("/wanderlist", wanderlistHandler.Add)
	auth.DELETE("/wanderlist/:id", wanderlistHandler.Remove)
	auth.GET("/recommendations", wanderlistHandler.ListRecommendations)
	auth.POST("/recommendations", wanderlistHandler.AddRecommendation)
	auth.DELETE("/recommendations/:id", wanderlistHandler.RemoveRecommendation)
	auth.GET("/trips/:id/recommendations", wanderlistHandler.ListTripRecommendations)

	auth.POST("/ai/bookings/parse", aiHandler.ParseBooking)
	auth.POST("/ai/recommendations", aiHandler.Recommend)
	auth.POST("/trips/:id/ai/recommendations", aiHandler.RecommendForTrip)

	auth.GET("/places/autocomplete", placesHandler.Autocomplete)
	auth.GET("/places/:placeID", placesHandler.Details)
	auth.GET("/metadata", placesHandler.Metadata)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("roamwyth %s listening on :%s", version, cfg.Port)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	return nil
}
