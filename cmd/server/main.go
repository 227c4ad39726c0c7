package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"despatch-advice-service/internal/config"
	"despatch-advice-service/internal/controller"
	"despatch-advice-service/internal/events"
	"despatch-advice-service/internal/logging"
	"despatch-advice-service/internal/metrics"
	"despatch-advice-service/internal/rabbit"
	"despatch-advice-service/internal/repository"
	"despatch-advice-service/internal/service"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fatal sólo aquí: dentro de run los defers siempre se ejecutan
	if err := run(ctx, cfg, log); err != nil {
		stop()
		log.WithError(err).Fatal("despatch advice service stopped")
	}
}

// run arranca el servicio y bloquea hasta que ctx se cancela o el servidor
// HTTP falla.
func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	// Repositorios según STORE_BACKEND
	despatchRepo, userRepo, closeStore, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer closeStore()

	// Publisher de eventos
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.WithField("topic", cfg.KafkaTopic).Info("publishing events to Kafka")
	}

	// Servicios
	reg := metrics.NewRegistry()
	despatchService := service.NewDespatchService(despatchRepo, publisher, reg, log)
	authService := service.NewAuthService(userRepo, cfg.SecretKey, cfg.TokenTTL)

	// Conexión a RabbitMQ (opcional)
	if cfg.RabbitURL != "" {
		conn, err := amqp091.Dial(cfg.RabbitURL)
		if err != nil {
			return fmt.Errorf("conectando a RabbitMQ: %w", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("creando canal en RabbitMQ: %w", err)
		}
		if err := rabbit.SetupConsumers(ctx, ch, despatchService, log); err != nil {
			return fmt.Errorf("configurando consumers: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           controller.NewRouter(despatchService, authService, reg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Despatch Advice Service ejecutándose en puerto %s (store: %s)", cfg.Port, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.DespatchRepository, service.UserRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn("using in-memory store, documents are lost on restart")
		return repository.NewMemoryDespatchRepository(), repository.NewMemoryUserRepository(), func() {}, nil

	case config.BackendPebble:
		// Pebble guarda los documentos; los usuarios quedan en memoria
		repo, err := repository.NewPebbleDespatchRepository(cfg.PebbleDir)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := repo.Close(); err != nil {
				log.WithError(err).Warn("pebble close")
			}
		}
		return repo, repository.NewMemoryUserRepository(), closeFn, nil

	default:
		// Conexión a MongoDB
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, nil, err
		}
		db := client.Database(cfg.MongoDBName)

		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("mongo disconnect")
			}
		}

		despatchRepo := repository.NewMongoDespatchRepository(db)
		userRepo := repository.NewMongoUserRepository(db)
		if err := prepareIndexes(connectCtx, closeFn, despatchRepo, userRepo); err != nil {
			return nil, nil, nil, err
		}
		return despatchRepo, userRepo, closeFn, nil
	}
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// prepareIndexes crea los índices de cada repositorio; si alguno falla
// cierra la conexión antes de devolver el error.
func prepareIndexes(ctx context.Context, closeFn func(), repos ...indexer) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			closeFn()
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return nil
}
