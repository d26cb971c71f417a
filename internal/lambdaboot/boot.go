// Package lambdaboot holds the cold-start bootstrap shared by the mediameta
// Lambda entry points: settings from the environment, logging, and the S3
// client used for ranged reads.
package lambdaboot

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/mediameta/internal/config"
	"github.com/fpang/mediameta/internal/logging"
)

// Clients is what a Lambda's init() needs to serve requests.
type Clients struct {
	Config *config.Config
	AWS    aws.Config
	S3     *s3.Client
}

// Init loads settings from the environment, configures the global logger
// and builds the AWS clients. Any failure is fatal: a Lambda that cannot
// boot should fail its cold start.
func Init(name string) Clients {
	initStart := time.Now()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load settings")
	}
	logging.Init(cfg.Log)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}

	logging.NewRunSummary(name).
		Message("Cold start complete").
		Config("region", awsCfg.Region).
		Config("namespace", cfg.Metrics.Namespace).
		Config("initDuration", time.Since(initStart).String()).
		Feature("emf", cfg.Metrics.Emit).
		Log()

	return Clients{
		Config: cfg,
		AWS:    awsCfg,
		S3:     s3.NewFromConfig(awsCfg),
	}
}
