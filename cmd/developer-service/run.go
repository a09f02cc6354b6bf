package developer_service

import (
	"encoding/json"
	"net/http"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/auth"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/bus"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/config"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	commonmq "github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/websocket"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/handler"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/repository"
	devrmq "github.com/Mwoyoungo/lokal-s-hub/internal/developer/rmq"
	"github.com/Mwoyoungo/lokal-s-hub/internal/developer/service"

	"github.com/jackc/pgx/v5"
)

// Run wires the availability registry and the assignment push path.
func Run(
	cfg *config.Config,
	conn *pgx.Conn,
	commonMq *commonmq.RabbitMQ,
	mux *http.ServeMux,
	hub *websocket.Hub,
	events *bus.Bus,
	jwtManager *auth.Manager,
) (*service.AvailabilityRegistry, error) {
	logger.SetServiceName("developer-service")

	rmqClient, err := devrmq.NewClient(commonMq.URL, "request_topic")
	if err != nil {
		return nil, err
	}

	repo := repository.NewAvailabilityRepository(conn)
	registry := service.NewAvailabilityRegistry(repo, rmqClient, events, cfg.Matching.LocationTTL)

	// New assignments reach connected developers over the websocket hub.
	if err := rmqClient.ConsumeAssignments("developer_assignments", func(msg commonmq.RequestAssignedMessage) {
		payload, err := json.Marshal(msg)
		if err != nil {
			logger.Warn("forward_assignment", "Failed to marshal assignment", "", msg.RequestID, err.Error())
			return
		}
		if !hub.SendToClient("developer_"+msg.DeveloperID, payload) {
			logger.Debug("forward_assignment", "Developer not connected, skipping push", "", msg.DeveloperID)
		}
	}); err != nil {
		return nil, err
	}

	h := handler.NewHandler(registry, jwtManager)
	mux.Handle("POST /developers/{developer_id}/availability",
		auth.Middleware(jwtManager, http.HandlerFunc(h.SetAvailability)))
	mux.Handle("POST /developers/{developer_id}/location",
		auth.Middleware(jwtManager, http.HandlerFunc(h.UpdateLocation)))
	mux.HandleFunc("GET /developers/available", h.ListAvailable)

	logger.Info("developer_service_started", "Developer service routes registered", "", "")
	return registry, nil
}
