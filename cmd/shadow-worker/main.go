// Package main runs the traffic shadowing Temporal worker.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/activities"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/config"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/logging"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/shadow"
)

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
		"address":   cfg.TemporalAddress,
		"namespace": cfg.TemporalNamespace,
		"queue":     cfg.TaskQueue,
	}).Info("starting shadow worker")

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		logger.WithError(err).Fatal("create temporal client")
	}
	defer c.Close()

	services := shadow.NewServices(cfg, logger)
	defer services.Close()

	w := worker.New(c, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: cfg.Concurrency,
	})
	acts := activities.NewActivities(shadow.NewHandler(services))
	w.RegisterActivity(acts.ShadowCaptureFile)
	logger.Info("registered activities: ShadowCaptureFile")

	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.WithError(err).Error("worker failed")
		os.Exit(1)
	}
}
