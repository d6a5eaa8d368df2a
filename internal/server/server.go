package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
	"github.com/thirdweb-dev/substrate-sink/api"
	"github.com/thirdweb-dev/substrate-sink/docs"
	"github.com/thirdweb-dev/substrate-sink/internal/handlers"
	sinklog "github.com/thirdweb-dev/substrate-sink/internal/log"
	"github.com/thirdweb-dev/substrate-sink/internal/metrics"
	"github.com/thirdweb-dev/substrate-sink/internal/middleware"
)

// Status is what the server reports about the running sink.
type Status struct {
	Sink     string
	Modules  []string
	Plan     handlers.Plan
	Speed    *metrics.Speed
	Progress *metrics.Progress
}

// @title Substrate Sink
// @version v0.1.0
// @description Status and handler plan of a running Substrate block sink
// @BasePath /
// @securityDefinitions.basic BasicAuth
func NewRouter(status *Status) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", getHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/openapi.json", getOpenAPI)
	r.GET("/status", status.get)

	protected := r.Group("/")
	protected.Use(middleware.Authorization)
	protected.GET("/plan", status.getPlan)

	return r
}

// @Summary Health check
// @Tags status
// @Produce plain
// @Success 200 {string} string "ok"
// @Router /health [get]
func getHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func getOpenAPI(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read Swagger documentation")
		api.InternalErrorHandler(c)
		return
	}
	c.Header("Content-Type", "application/json")
	c.String(http.StatusOK, doc)
}

// @Summary Get sink status
// @Description Sink type, registered handler modules and throughput
// @Tags status
// @Produce json
// @Success 200 {object} api.StatusResponse
// @Router /status [get]
func (s *Status) get(c *gin.Context) {
	resp := api.StatusResponse{
		Sink:    s.Sink,
		Modules: s.Modules,
	}
	if resp.Modules == nil {
		resp.Modules = []string{}
	}
	if s.Speed != nil {
		resp.RowsPerSecond = s.Speed.Speed()
	}
	if s.Progress != nil {
		resp.ProcessedRows = s.Progress.Total()
		resp.AverageRate = s.Progress.Rate()
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get handler plan
// @Description Merged handler plan, or one section of it when section (and name) are given
// @Tags plan
// @Produce json
// @Security BasicAuth
// @Param section query string false "Plan section" Enums(pre, post, events, calls, evmLogs, contractsContractEmitted)
// @Param name query string false "Key inside the section, e.g. an event name or contract address"
// @Success 200 {object} handlers.Plan
// @Failure 400 {object} api.Error
// @Failure 401 {object} api.Error
// @Failure 404 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /plan [get]
func (s *Status) getPlan(c *gin.Context) {
	params, err := api.ParsePlanQueryParams(c.Request)
	if err != nil {
		api.BadRequestErrorHandler(c, err)
		return
	}

	section, err := s.Plan.Section(params.Section, params.Name)
	switch {
	case errors.Is(err, handlers.ErrUnknownKey):
		api.NotFoundErrorHandler(c, err)
		return
	case errors.Is(err, handlers.ErrUnknownSection):
		api.BadRequestErrorHandler(c, err)
		return
	case err != nil:
		log.Error().Err(err).Msg("Failed to read plan section")
		api.InternalErrorHandler(c)
		return
	}
	c.JSON(http.StatusOK, section)
}

// Run serves h on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger := sinklog.Component("server")
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Starting status server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info().Msg("Status server stopped")
		return nil
	}
}
