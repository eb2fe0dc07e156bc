package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/browser-chat/config"
	"github.com/example/browser-chat/modules/activity"
	"github.com/example/browser-chat/modules/api"
	"github.com/example/browser-chat/modules/broadcast"
	"github.com/example/browser-chat/modules/presence"
	"github.com/example/browser-chat/modules/wsserver"
)

func main() {
	log.Println("=== Browser Chat - Fiber WebSocket + Presence Engine ===")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if cfg.Log.Level == "error" {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	catalog, err := presence.NewRoomCatalog(cfg.Chat.Rooms, cfg.Chat.DefaultRoom)
	if err != nil {
		log.Fatalf("Failed to build room catalog: %v", err)
	}

	// Create modules
	presenceModule := presence.NewModule(catalog, cfg.Chat.QueueSize, logger.WithModule("presence"))
	broadcastModule := broadcast.NewModule(cfg.Chat.SendBufferSize, logger.WithModule("broadcast"))
	activityModule := activity.NewModule(activity.DefaultRecentLimit, logger.WithModule("activity"))
	apiModule := api.NewModule(cfg.Server.Port, cfg.Server.CORSOrigins, logger.WithModule("api"))

	// The engine and the hub are wired by hand: neither is exposed through
	// the ServiceContainer.
	presenceModule.SetDispatcher(broadcastModule.GetHub())
	apiModule.SetWebSocketHandler(wsserver.NewHandlers(
		presenceModule.Engine(),
		broadcastModule.GetHub(),
		broadcastModule.SendBuffer(),
		cfg.Chat.MaxMessageSize,
		logger.WithModule("wsserver"),
	))
	apiModule.SetClientCounter(broadcastModule.GetHub())

	// Register modules with the framework.
	// - presence: engine, request/reply views, activity event emitter
	// - broadcast: delivery hub writing emissions to sockets
	// - activity: event consumer keeping counters and a recent log
	// - api: Fiber HTTP/WebSocket server, depends on presence and activity
	app.Register(presenceModule)
	app.Register(broadcastModule)
	app.Register(activityModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg, catalog)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config, catalog *presence.RoomCatalog) {
	port := cfg.Server.Port

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Rooms: %v (default %q)", catalog.Rooms(), catalog.Default())
	log.Printf("Engine queue: %d, per-client send buffer: %d", cfg.Chat.QueueSize, cfg.Chat.SendBufferSize)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                      - Health check")
	log.Println("  GET    /api/v1/rooms                - Rooms with member counts")
	log.Println("  GET    /api/v1/rooms/:room/users    - Users in a room")
	log.Println("  GET    /api/v1/users                - Connected users")
	log.Println("  GET    /api/v1/activity             - Presence activity summary")
	log.Println("  POST   /set_name                    - Store a username cookie")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Printf("  Connect with: ws://localhost:%s/ws?username=yourname", port)
	log.Println("  Events: join, leave, message, set_username, heartbeat, get_active_users,")
	log.Println("          get_room_users, private_chat_request, private_chat_response")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
