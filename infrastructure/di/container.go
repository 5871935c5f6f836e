package di

import (
	"context"

	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/application/ports"
	"github.com/indiafamilytree/familytree/application/services"
	"github.com/indiafamilytree/familytree/domain/core/aggregates"
	"github.com/indiafamilytree/familytree/infrastructure/config"
	"github.com/indiafamilytree/familytree/infrastructure/persistence/snapshot"
	"github.com/indiafamilytree/familytree/pkg/observability"
)

// Container holds all initialized application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *observability.Collector
	TreeService   *services.TreeService
	FamilyBuilder *services.FamilyBuilder
	SyncService   *services.SyncService
}

// InitializeContainer builds the full dependency graph: clients, the
// tree loaded from the blob store, and the services around it. A
// missing or unreadable remote snapshot degrades to an empty tree
// rather than failing startup.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	metrics := ProvideMetrics()

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	blobStore := ProvideBlobStore(ProvideS3Client(awsCfg), cfg, logger)
	dataService := ProvideDataService(cfg, logger)
	mirror := ProvideGraphMirror(cfg, logger)

	tree, snap := loadTree(ctx, blobStore, logger)
	treeService := services.NewTreeService(tree, logger)

	syncService := services.NewSyncService(
		treeService,
		dataService,
		blobStore,
		mirror,
		metrics,
		cfg.SyncDebounce,
		logger,
	)
	if snap != nil {
		syncService.LoadBaseline(snap)
	}
	tree.SetChangeHook(syncService.MarkDirty)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Metrics:       metrics,
		TreeService:   treeService,
		FamilyBuilder: services.NewFamilyBuilder(treeService, logger),
		SyncService:   syncService,
	}, nil
}

// loadTree fetches and rebuilds the persisted tree. Every failure path
// falls back to an empty tree; the snapshot is returned alongside so the
// sync engine can seed its baseline from it.
func loadTree(ctx context.Context, blobStore ports.BlobStore, logger *zap.Logger) (*aggregates.Tree, *snapshot.Snapshot) {
	data, err := blobStore.GetSnapshot(ctx)
	if err != nil {
		logger.Warn("Could not fetch stored snapshot, starting empty", zap.Error(err))
		return aggregates.NewTree(), nil
	}
	if data == nil {
		return aggregates.NewTree(), nil
	}

	snap, err := snapshot.Decode(data)
	if err != nil {
		logger.Warn("Stored snapshot is malformed, starting empty", zap.Error(err))
		return aggregates.NewTree(), nil
	}
	tree, err := snap.BuildTree()
	if err != nil {
		logger.Warn("Stored snapshot could not be rebuilt, starting empty", zap.Error(err))
		return aggregates.NewTree(), nil
	}

	logger.Info("Loaded tree from snapshot",
		zap.Int("persons", len(snap.Persons)),
		zap.Int("families", len(snap.Families)),
	)
	return tree, snap
}

// Shutdown flushes pending work and releases resources
func (c *Container) Shutdown(ctx context.Context) {
	c.SyncService.Stop()
	if err := c.SyncService.Flush(ctx); err != nil {
		c.Logger.Warn("Final sync pass incomplete", zap.Error(err))
	}
	c.Logger.Sync()
}
