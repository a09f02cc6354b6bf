package main

import (
	"fmt"
	"log"
	"net/http"

	cmdDeveloper "github.com/Mwoyoungo/lokal-s-hub/cmd/developer-service"
	cmdRequest "github.com/Mwoyoungo/lokal-s-hub/cmd/request-service"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/auth"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/bus"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/config"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/db"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/websocket"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	cfg.Print()

	pg, err := db.NewPostgres(
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pg.Close()

	if err := pg.RunMigrations("migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	rmq, err := mq.NewRabbitMQ(
		cfg.RabbitMQ.Host, cfg.RabbitMQ.Port,
		cfg.RabbitMQ.User, cfg.RabbitMQ.Password,
	)
	if err != nil {
		log.Fatalf("rabbitmq error: %v", err)
	}
	defer rmq.Close()

	jwtManager := auth.NewManager(cfg.Auth.JWTSecret)
	hub := websocket.NewHub()
	events := bus.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", websocket.Handler(hub, jwtManager))

	registry, err := cmdDeveloper.Run(cfg, pg.Conn, rmq, mux, hub, events, jwtManager)
	if err != nil {
		log.Fatalf("developer service error: %v", err)
	}

	if _, err := cmdRequest.Run(cfg, pg.Conn, rmq, mux, hub, events, registry, jwtManager); err != nil {
		log.Fatalf("request service error: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Services.RequestServicePort)
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
