// Package main runs capture file shadowing as an S3-notified Lambda function.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/config"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/logging"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/shadow"
)

// Response is returned to the Lambda runtime.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type responseBody struct {
	Message string `json:"message"`
	Detail  int    `json:"detail"`
}

type notificationHandler interface {
	HandleNotifications(ctx context.Context, notifications []shadow.Notification) (*shadow.Summary, error)
}

func main() {
	cfg, err := config.Load(os.Getenv("SHADOW_CONFIG_FILE"))
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("configure logging")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.WithFields(logrus.Fields{
		"capture_bucket":  cfg.CaptureBucket,
		"capture_prefix":  cfg.CapturePrefix,
		"training_bucket": cfg.TrainingBucket,
		"training_prefix": cfg.TrainingPrefix,
		"endpoint":        cfg.HydrosphereEndpoint,
	}).Debug("configuration loaded")

	services := shadow.NewServices(cfg, logger)
	defer services.Close()

	lambda.Start(newHandler(shadow.NewHandler(services), logger))
}

func newHandler(h notificationHandler, logger logrus.FieldLogger) func(context.Context, events.S3Event) (Response, error) {
	return func(ctx context.Context, event events.S3Event) (Response, error) {
		notifications, err := toNotifications(event)
		if err != nil {
			return Response{}, err
		}
		summary, err := h.HandleNotifications(ctx, notifications)
		if err != nil {
			logger.WithError(err).Error("shadowing failed")
			return Response{}, err
		}
		return respond(summary.Processed())
	}
}

func toNotifications(event events.S3Event) ([]shadow.Notification, error) {
	out := make([]shadow.Notification, 0, len(event.Records))
	for _, rec := range event.Records {
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("decode object key %q: %w", rec.S3.Object.Key, err)
		}
		out = append(out, shadow.Notification{
			Bucket: rec.S3.Bucket.Name,
			Key:    key,
			Size:   rec.S3.Object.Size,
		})
	}
	return out, nil
}

func respond(processed int) (Response, error) {
	body, err := json.Marshal(responseBody{
		Message: fmt.Sprintf("Processed %d requests", processed),
		Detail:  processed,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: 200, Body: string(body)}, nil
}
