package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/gotagger/internal/api"
	config "github.com/mwantia/gotagger/internal/config/server"
	"github.com/mwantia/gotagger/internal/dataset"
	"github.com/mwantia/gotagger/pkg/log"
)

type GoTaggerAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg    *config.BaseServerConfig
	sc     *container.ServiceContainer
	log    log.LoggerService
	server *api.Server
}

func NewAgent(cfg *config.BaseServerConfig) *GoTaggerAgent {
	return &GoTaggerAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("gotagger", cfg.Log),
	}
}

// DatasetOptions converts the dataset configuration into session options
func DatasetOptions(cfg config.DatasetServerConfig) dataset.Options {
	return dataset.Options{
		DatabaseFile:   cfg.DatabaseFile,
		PageSize:       cfg.PageSize,
		SQLiteLogLevel: cfg.SQLite.LogLevel,
	}
}

func (gta *GoTaggerAgent) setupServices() error {
	errs := container.Errors{}

	gta.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](gta.sc,
		container.With[log.LoggerService](),
		container.WithInstance(gta.log)))

	gta.log.Debug("Registering 'Manager'...")
	manager := dataset.NewManager(DatasetOptions(gta.cfg.Dataset), gta.log.Named("dataset"))
	errs.Add(container.Register[dataset.ManagerImpl](gta.sc,
		container.With[dataset.Manager](),
		container.WithInstance(manager)))

	return errs.Errors()
}

func (gta *GoTaggerAgent) resolveManager(ctx context.Context) (dataset.Manager, error) {
	ok, resolved := gta.sc.ResolveByType(ctx, reflect.TypeOf((*dataset.Manager)(nil)).Elem())
	if !ok {
		return nil, fmt.Errorf("failed to resolve dataset manager: no manager registered")
	}

	manager, ok := resolved.(dataset.Manager)
	if !ok {
		return nil, fmt.Errorf("resolved service is not a dataset manager")
	}
	return manager, nil
}

func (gta *GoTaggerAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	gta.mutex.Lock()

	if err := gta.setupServices(); err != nil {
		gta.mutex.Unlock()
		return err
	}

	manager, err := gta.resolveManager(ctx)
	if err != nil {
		gta.mutex.Unlock()
		return err
	}
	defer manager.Close()

	if path := gta.cfg.Dataset.Path; path != "" {
		report, err := manager.Open(ctx, path)
		if err != nil {
			gta.mutex.Unlock()
			return fmt.Errorf("failed to open dataset '%s': %w", path, err)
		}
		gta.log.Info("Opened dataset '%s': %s", path, report)
	}

	gta.server = api.NewServer(manager, api.NewNativePicker(), gta.cfg.Server, gta.log.Named("api"))
	errCh := make(chan error, 1)

	gta.wait.Add(1)
	go func() {
		defer gta.wait.Done()
		if err := gta.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	if gta.cfg.Server.OpenBrowser {
		url := fmt.Sprintf("http://%s", gta.cfg.Server.Address)
		if err := api.OpenBrowser(ctx, url); err != nil {
			gta.log.Warn("Failed to open browser, visit %s manually: %v", url, err)
		}
	}

	gta.mutex.Unlock()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		gta.log.Error("HTTP server stopped: %v", serveErr)
	}

	timeout, err := time.ParseDuration(gta.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := gta.server.Shutdown(shutdown); err != nil {
		gta.log.Warn("Failed to shut down HTTP server: %v", err)
	}

	if err := gta.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	gta.wait.Wait()
	return serveErr
}
