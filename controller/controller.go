package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/middelware"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/repository"
	"github.com/demariano/php-suite-sub002/services"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/demariano/php-suite-sub002/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "catalog"

type Controller struct {
	User           *EntityController[*models.User]
	Category       *EntityController[*models.Category]
	Product        *EntityController[*models.Product]
	Infrastructure *InfrastructureController

	config   *models.Config
	logger   logger.Logger
	db       dal.DatabaseClientInterface
	worker   *worker.Worker
	registry *prometheus.Registry
	server   *http.Server
}

// NewController wires the store, repositories, services and the provisioning worker
func NewController(cfg *models.Config, log logger.Logger) (*Controller, error) {
	db, err := dal.NewDatabaseClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store client: %w", err)
	}

	registry := prometheus.NewRegistry()
	if cfg.MetricsEnabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := dal.NewMetrics(metricsNamespace, registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register store metrics: %w", err)
		}
		db = dal.NewInstrumentedClient(db, metrics)
	}

	return newController(cfg, db, registry, log)
}

func newController(cfg *models.Config, db dal.DatabaseClientInterface, registry *prometheus.Registry, log logger.Logger) (*Controller, error) {
	repos, err := repository.NewContainer(db, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	w, err := worker.NewWorker(cfg, db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create provisioning worker: %w", err)
	}

	svc := services.NewService(repos, db, w, log, cfg)
	return &Controller{
		User:           NewEntityController(svc.GetUserService(), func() *models.User { return &models.User{} }, repos.User.Schema().Resource, cfg, log),
		Category:       NewEntityController(svc.GetCategoryService(), func() *models.Category { return &models.Category{} }, repos.Category.Schema().Resource, cfg, log),
		Product:        NewEntityController(svc.GetProductService(), func() *models.Product { return &models.Product{} }, repos.Product.Schema().Resource, cfg, log),
		Infrastructure: NewInfrastructureController(svc.GetInfrastructureService(), cfg, log),
		config:         cfg,
		logger:         log,
		db:             db,
		worker:         w,
		registry:       registry,
	}, nil
}

// Start provisions the table and schedules its health check
func (c *Controller) Start() error {
	return c.worker.Start()
}

// Router builds the gin engine with middleware and all routes
func (c *Controller) Router() *gin.Engine {
	r := gin.New()
	logging := middelware.NewLoggingMiddleware(c.logger, c.config.BasePath+"/health", "/metrics")
	r.Use(logging.Recovery(), logging.StructuredLogger(), middelware.NewCORSMiddleware(c.config).CORS())
	c.RegisterRoutes(r, c.config.BasePath)
	return r
}

func (c *Controller) RegisterRoutes(r *gin.Engine, basePath string) {
	v1 := r.Group(basePath)

	v1.GET("/health", c.Infrastructure.Health)
	v1.GET("/health/infrastructure", c.Infrastructure.TableHealth)
	v1.POST("/health/infrastructure/provision", c.Infrastructure.Provision)

	c.User.RegisterRoutes(v1)
	c.Category.RegisterRoutes(v1)
	c.Product.RegisterRoutes(v1)

	if c.config.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})))
	}
}

// ListenAndServe serves HTTP until Shutdown is called
func (c *Controller) ListenAndServe() error {
	c.server = &http.Server{
		Addr:              c.config.AppHost + ":" + c.config.AppPort,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	c.logger.Infof("Starting server on %s:%s", c.config.AppHost, c.config.AppPort)
	if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server and the worker and closes the store
func (c *Controller) Shutdown(ctx context.Context) error {
	var errs []error
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.worker.Stop()
	if closer, ok := storeCloser(c.db); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func storeCloser(db dal.DatabaseClientInterface) (io.Closer, bool) {
	if inst, ok := db.(*dal.InstrumentedClient); ok {
		db = inst.Unwrap()
	}
	closer, ok := db.(io.Closer)
	return closer, ok
}
