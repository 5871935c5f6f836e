package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/application/ports"
	"github.com/indiafamilytree/familytree/infrastructure/appsync"
	"github.com/indiafamilytree/familytree/infrastructure/blob"
	"github.com/indiafamilytree/familytree/infrastructure/config"
	"github.com/indiafamilytree/familytree/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideS3Client creates an S3 client
func ProvideS3Client(awsCfg aws.Config) *awss3.Client {
	return awss3.NewFromConfig(awsCfg)
}

// ProvideBlobStore creates the snapshot blob store
func ProvideBlobStore(client *awss3.Client, cfg *config.Config, logger *zap.Logger) ports.BlobStore {
	return blob.NewS3Store(client, cfg.S3Bucket, cfg.SnapshotSessionID, logger)
}

// ProvideDataService creates the GraphQL data service client
func ProvideDataService(cfg *config.Config, logger *zap.Logger) ports.DataService {
	return appsync.NewClient(cfg.GraphQLEndpoint, cfg.GraphQLAPIKey, logger)
}

// ProvideGraphMirror creates the graph mirror client, or nil when the
// mirror is disabled.
func ProvideGraphMirror(cfg *config.Config, logger *zap.Logger) ports.GraphMirror {
	if !cfg.MirrorEnabled {
		return nil
	}
	return appsync.NewMirror(cfg.GraphQLEndpoint, cfg.GraphQLAPIKey, logger)
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("familytree")
}
