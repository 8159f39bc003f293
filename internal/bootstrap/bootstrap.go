package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/travel-diary/internal/config"
	"github.com/kirillkom/travel-diary/internal/core/ports"
	"github.com/kirillkom/travel-diary/internal/core/usecase"
	"github.com/kirillkom/travel-diary/internal/infrastructure/classifier/keyword"
	"github.com/kirillkom/travel-diary/internal/infrastructure/classifier/process"
	"github.com/kirillkom/travel-diary/internal/infrastructure/exif"
	"github.com/kirillkom/travel-diary/internal/infrastructure/queue/nats"
	"github.com/kirillkom/travel-diary/internal/infrastructure/repository/memory"
	"github.com/kirillkom/travel-diary/internal/infrastructure/repository/mongo"
	"github.com/kirillkom/travel-diary/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/travel-diary/internal/infrastructure/resilience"
	"github.com/kirillkom/travel-diary/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/travel-diary/internal/infrastructure/storage/minio"
	"github.com/kirillkom/travel-diary/internal/infrastructure/thumbnail"
	"github.com/kirillkom/travel-diary/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	// Queue is nil when events are disabled.
	Queue *nats.Queue

	ImagesUC     ports.ImageService
	DiariesUC    ports.DiaryService
	LayoutsUC    ports.LayoutService
	PrintablesUC ports.PrintableService

	closers []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{
		Config:  cfg,
		Metrics: metrics.NewHTTPServerMetrics("api"),
	}

	store, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	storage, err := openStorage(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	var events ports.EventPublisher = nats.Discard{}
	if cfg.EventsEnabled {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
		app.closers = append(app.closers, queue.Close)
		events = queue
	}

	location := cfg.Location()
	classifier := app.newClassifier()

	imagesUC := usecase.NewImageUseCase(store.Images, storage, exif.NewExtractor(location), cfg.MaxUploadBytes)
	diariesUC := usecase.NewDiaryUseCase(store, storage, location)
	layoutsUC := usecase.NewLayoutUseCase(store, classifier, diariesUC)
	printablesUC := usecase.NewPrintableUseCase(store, events, thumbnail.NewRenderer(cfg.ThumbnailSize))

	app.ImagesUC = imagesUC
	app.DiariesUC = diariesUC
	app.LayoutsUC = layoutsUC
	app.PrintablesUC = printablesUC
	return app, nil
}

func (a *App) openStore(ctx context.Context) (ports.Store, error) {
	cfg := a.Config
	switch cfg.StoreDriver {
	case "mongo", "mongodb":
		client, err := mongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return ports.Store{}, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		db := client.Database(cfg.MongoDatabase)
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			return ports.Store{}, fmt.Errorf("ensure indexes: %w", err)
		}
		return mongo.NewStore(db), nil
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return ports.Store{}, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return ports.Store{}, fmt.Errorf("ensure schema: %w", err)
		}
		return postgres.NewStore(db), nil
	case "memory":
		slog.Warn("store_in_memory", "detail", "data is lost on restart")
		return memory.New().Ports(), nil
	default:
		return ports.Store{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func openStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch cfg.StorageDriver {
	case "localfs", "":
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		return storage, nil
	case "minio":
		storage, err := minio.New(minio.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func (a *App) newClassifier() ports.CategoryClassifier {
	cfg := a.Config
	if cfg.ClassifierMode == "keyword" {
		return keyword.New()
	}
	return process.New(process.Config{
		Command: cfg.ClassifierCommand,
		Script:  cfg.ClassifierScript,
		Timeout: cfg.ClassifierTimeout,
	}, resilience.NewExecutor(resilience.ProcessPolicy()), a.Metrics)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
