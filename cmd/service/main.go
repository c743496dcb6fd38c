package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-api/internal/service"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
)

const connectTimeout = 15 * time.Second

// Usage example on the command line:
// > PORT=3000 MONGODB_URI=mongodb://localhost:27017 GIN_MODE=release GIN_LOGGING=OFF go run ./cmd/service
// > PORT=3000 STORE=mysql DBUSER=dirk DBPWD=bullo92 go run ./cmd/service
func main() {
	conf, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(conf.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, log); err != nil {
		log.Fatal("contacts api failed", "error", err)
	}
}

// run connects to the configured store and serves HTTP requests until ctx is cancelled.
func run(ctx context.Context, conf *config.Config, log *logger.Logger) error {
	backend, closeStore, err := openStore(ctx, conf, log)
	if err != nil {
		return err
	}
	defer closeStore()

	contacts := store.NewContacts(backend)
	router := service.New(contacts, log).SetupHttpRouter(conf.GinLoggingEnabled())
	server := &http.Server{
		Addr:              conf.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "address", conf.Address(), "store", conf.Store)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server stopped")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down", "timeout", conf.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "could not shut down http server")
	}
	log.Info("Server stopped")
	return nil
}

// openStore connects to the store selected by the configuration. The returned function releases
// the connection.
func openStore(ctx context.Context, conf *config.Config, log *logger.Logger) (store.Backend, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch conf.Store {
	case config.StoreMySQL:
		sqlDB, err := store.ConnectMySQL(ctx, conf.MySQL.DSN())
		if err != nil {
			return nil, nil, err
		}
		backend, err := store.NewSQLBackend(sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		log.Info("Connected to MySQL", "host", conf.MySQL.Host, "database", conf.MySQL.Name)
		return backend, func() {
			if err := backend.Close(); err != nil {
				log.Warn("could not close prepared statements", "error", err)
			}
			if err := sqlDB.Close(); err != nil {
				log.Warn("could not close mysql database", "error", err)
			}
		}, nil
	default:
		conn, err := store.ConnectMongo(ctx, conf.Mongo.URI, conf.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		backend, err := store.NewMongoBackend(conn)
		if err != nil {
			_ = conn.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Info("Connected to MongoDB", "database", conf.Mongo.Database)
		return backend, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
			defer cancel()
			if err := conn.Disconnect(disconnectCtx); err != nil {
				log.Warn("could not disconnect from mongodb", "error", err)
			}
		}, nil
	}
}
