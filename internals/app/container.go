package app

import (
	"context"

	"watchpost/config"
	middle "watchpost/internals/middleware"
	"watchpost/internals/modules/account"
	"watchpost/internals/modules/engine"
	"watchpost/internals/modules/executor"
	"watchpost/internals/modules/incident"
	"watchpost/internals/modules/monitor"
	"watchpost/internals/modules/notify"
	"watchpost/internals/modules/probe"
	"watchpost/internals/modules/scheduler"
	"watchpost/internals/modules/screenshot"
	"watchpost/internals/security"
	"watchpost/pkg/httpclient"
	"watchpost/pkg/rabbitmq"
	"watchpost/pkg/redisstore"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	RabbitConn  *amqp091.Connection
	Publisher   *rabbitmq.Publisher
	Consumer    *rabbitmq.Consumer
	Logger      *zerolog.Logger

	Scheduler *scheduler.Scheduler
	Reclaimer *scheduler.Reclaimer
	Executor  *executor.Executor

	accountHandler  *account.Handler
	monitorHandler  *monitor.Handler
	incidentHandler *incident.Handler
	checkHandler    *engine.Handler
	authMW          *middle.AuthMiddleware

	eventHandler *notify.EventHandler
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {
	redisClient, err := redisstore.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.NewConnection(cfg.RabbitMQ)
	if err != nil {
		return nil, err
	}
	if err := rabbitmq.SetupTopology(rabbitConn, cfg.RabbitMQ); err != nil {
		return nil, err
	}
	publisher, err := rabbitmq.NewPublisher(rabbitConn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		return nil, err
	}
	consumer, err := rabbitmq.NewConsumer(rabbitConn, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.WorkerCount)
	if err != nil {
		return nil, err
	}

	validate := validator.New()
	tokenSvc := security.NewTokenService(cfg.Auth)

	probeClient := httpclient.NewProbeClient()
	sendClient := httpclient.NewSendClient(cfg.Notify.SendTimeout)
	prober := probe.NewProber(probeClient)

	monitorRepo := monitor.NewRepository(db, logger)
	incidentRepo := incident.NewRepository(db, logger)
	resultRepo := engine.NewRepository(db, logger)
	dispatchRepo := notify.NewRepository(db, logger)
	accountRepo := account.NewRepository(db, logger)

	monitorSvc := monitor.NewService(monitorRepo, redisClient)
	accountSvc := account.NewService(accountRepo, tokenSvc)

	var capturer incident.Capturer
	if sc := screenshot.New(cfg.Screenshot, sendClient); sc != nil {
		capturer = sc
	}
	incidentSvc := incident.NewService(incidentRepo, capturer, logger)

	eng := engine.New(monitorSvc, incidentSvc, resultRepo, redisClient, publisher, prober, logger)

	dispatcher := notify.NewDispatcher(dispatchRepo, logger,
		notify.NewEmailSender(cfg.Notify.EmailEndpoint, sendClient),
		notify.NewChatSender(sendClient),
		notify.NewPagerSender(cfg.Notify.PagerEndpoint, sendClient),
		notify.NewMessagingSender(cfg.Notify.MessagingEndpoint, sendClient),
		notify.NewTicketSender(cfg.Notify.TicketEndpoint, sendClient),
	)
	eventHandler := notify.NewEventHandler(dispatcher, accountSvc, logger)

	jobChan := make(chan scheduler.JobPayload, 1000)
	sch := scheduler.NewScheduler(ctx, cfg.Scheduler, jobChan, redisClient, logger)
	rec := scheduler.NewReclaimer(ctx, cfg.Reclaimer, redisClient, logger)
	exec := executor.NewExecutor(ctx, cfg.Executor, jobChan, monitorSvc, eng, redisClient, logger)

	authMW := middle.NewAuthMiddleware(tokenSvc)

	return &Container{
		DB:              db,
		RedisClient:     redisClient,
		RabbitConn:      rabbitConn,
		Publisher:       publisher,
		Consumer:        consumer,
		Logger:          logger,
		Scheduler:       sch,
		Reclaimer:       rec,
		Executor:        exec,
		accountHandler:  account.NewHandler(accountSvc, validate),
		monitorHandler:  monitor.NewHandler(monitorSvc, validate),
		incidentHandler: incident.NewHandler(incidentSvc, incidentRepo, monitorSvc),
		checkHandler:    engine.NewHandler(resultRepo, monitorSvc),
		authMW:          authMW,
		eventHandler:    eventHandler,
	}, nil
}

// Shutdown releases infra in dependency order: broker first so no new
// events arrive, then redis, then the pool.
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Consumer != nil {
		if err := c.Consumer.Shutdown(ctx); err != nil {
			c.Logger.Error().Err(err).Msg("consumer shutdown failed")
		}
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("publisher close failed")
		}
	}
	if c.RabbitConn != nil && !c.RabbitConn.IsClosed() {
		if err := c.RabbitConn.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("rabbitmq connection close failed")
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("redis close failed")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
