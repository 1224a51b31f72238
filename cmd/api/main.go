package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"lapakchat/internal/adapter/api"
	"lapakchat/internal/adapter/api/handler"
	apimiddleware "lapakchat/internal/adapter/api/middleware"
	"lapakchat/internal/adapter/api/router"
	"lapakchat/internal/adapter/repository"
	"lapakchat/internal/infrastructure/eventbus"
	"lapakchat/internal/infrastructure/ratelimit"
	"lapakchat/internal/infrastructure/websocket"
	"lapakchat/internal/usecase"
	"lapakchat/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	storeRepo := repository.NewFirestoreStoreRepository(firestoreClient)
	itemRepo := repository.NewFirestoreItemRepository(firestoreClient)
	analyticsRepo := repository.NewFirestoreAnalyticsRepository(firestoreClient)
	deletionRepo := repository.NewFirestoreDeletionRequestRepository(firestoreClient)

	wsManager := websocket.NewManager(cfg.TypingTimeout)
	wsManager.Start(ctx)

	rateLimiter := ratelimit.NewRateLimiter(cfg.MessageBudget, cfg.RateWindow)
	rateLimiter.StartSweepRoutine(time.Minute)

	bus := eventbus.NewBus()

	conversationUseCase := usecase.NewConversationUseCase(
		conversationRepo,
		userRepo,
		storeRepo,
		itemRepo,
		deletionRepo,
		wsManager,
		bus,
		rateLimiter,
	)

	analyticsUseCase := usecase.NewAnalyticsUseCase(analyticsRepo, storeRepo)
	analyticsUseCase.SubscribeTo(bus)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	conversationHandler := handler.NewConversationHandler(conversationUseCase)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, conversationUseCase, authMiddleware)

	router.Setup(e, conversationHandler, analyticsHandler, wsHandler, authMiddleware)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
