// Package main provides a Lambda entry point that decodes the metadata of
// videos as they land in S3.
//
// The function is subscribed to s3:ObjectCreated notifications. Each record
// is read in place with ranged GetObject calls (the decoder touches only
// atom headers and a few small payloads), logged as one structured event,
// and, when MEDIAMETA_EMIT_METRICS is set, written as an EMF line so
// CloudWatch picks up per-file metrics.
//
// Memory: 128 MB
// Timeout: 30 seconds
package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/fpang/mediameta/internal/lambdaboot"
)

func main() {
	clients := lambdaboot.Init("metadata-lambda")

	h := &handler{
		objects:   clients.S3,
		namespace: clients.Config.Metrics.Namespace,
		emit:      clients.Config.Metrics.Emit,
		out:       os.Stdout,
	}
	lambda.Start(h.handle)
}
