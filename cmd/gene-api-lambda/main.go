// Package main provides the AWS Lambda entrypoint for the gene API.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/chr21-gene-api/internal/duckdb"
	"github.com/inodb/chr21-gene-api/internal/event"
	"github.com/inodb/chr21-gene-api/internal/query"
	"github.com/inodb/chr21-gene-api/internal/seed"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	viper.SetEnvPrefix("GENE_API")
	viper.AutomaticEnv()
	// /tmp is the only writable path in the Lambda filesystem.
	viper.SetDefault("database", "/tmp/chr21.duckdb")
	viper.SetDefault("data", "mart_export.txt")

	store, err := duckdb.Open(viper.GetString("database"))
	if err != nil {
		logger.Fatal("open gene store", zap.Error(err))
	}

	// Seed during the cold start so warm invocations pay nothing.
	if err := seed.Run(context.Background(), store, viper.GetString("data"), logger); err != nil {
		logger.Fatal("initialize gene store", zap.Error(err))
	}

	engine := query.New(store)
	engine.SetLogger(logger)

	h := event.NewHandler(engine)
	h.SetLogger(logger)

	lambda.Start(h.Handle)
}
