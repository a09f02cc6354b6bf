package request_service

import (
	"net/http"

	"github.com/Mwoyoungo/lokal-s-hub/internal/common/auth"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/bus"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/config"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/logger"
	commonmq "github.com/Mwoyoungo/lokal-s-hub/internal/common/mq"
	"github.com/Mwoyoungo/lokal-s-hub/internal/common/websocket"
	devservice "github.com/Mwoyoungo/lokal-s-hub/internal/developer/service"
	matching "github.com/Mwoyoungo/lokal-s-hub/internal/matching/service"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/handler"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/repository"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/rmq"
	"github.com/Mwoyoungo/lokal-s-hub/internal/request/service"

	"github.com/jackc/pgx/v5"
)

// Run wires the request lifecycle and proximity matcher onto the shared mux.
func Run(
	cfg *config.Config,
	conn *pgx.Conn,
	commonMq *commonmq.RabbitMQ,
	mux *http.ServeMux,
	hub *websocket.Hub,
	events *bus.Bus,
	registry *devservice.AvailabilityRegistry,
	jwtManager *auth.Manager,
) (*service.RequestLifecycle, error) {
	logger.SetServiceName("request-service")

	rmqClient, err := rmq.NewClient(commonMq.URL, "request_topic")
	if err != nil {
		return nil, err
	}

	repo := repository.NewRequestRepository(conn)
	lifecycle := service.NewRequestLifecycle(repo, rmqClient, hub, events)
	matcher := matching.NewProximityMatcher(registry, lifecycle, lifecycle, cfg.Matching.MaxDistanceKm)

	h := handler.NewHandler(lifecycle, matcher, jwtManager)
	handler.SetupRoutes(mux, h, jwtManager)

	logger.Info("request_service_started", "Request service routes registered", "", "")
	return lifecycle, nil
}
