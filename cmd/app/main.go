package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/oneee-playground/r2d2-rtsim/internal/api"
	conf "github.com/oneee-playground/r2d2-rtsim/internal/config"
	"github.com/oneee-playground/r2d2-rtsim/internal/event"
	"github.com/oneee-playground/r2d2-rtsim/internal/exec"
	"github.com/oneee-playground/r2d2-rtsim/internal/history/storage"
	"github.com/oneee-playground/r2d2-rtsim/internal/job"
	"github.com/oneee-playground/r2d2-rtsim/internal/metric"
	"github.com/oneee-playground/r2d2-rtsim/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	conf.LoadFromEnv()

	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout), zap.InfoLevel,
	))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsConfig := aws.Config{
		Region:      conf.AWSRegion,
		Credentials: credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
	}

	sqsClient := sqs.NewFromConfig(awsConfig)

	publishers := []event.Publisher{event.NewLogPublisher(logger)}
	if conf.EventQueueURL != "" {
		publishers = append(publishers, event.NewSQSEventPublisher(sqsClient, logger, conf.EventQueueURL))
	}

	execOpts := exec.ExecOpts{
		Log:            logger,
		Publisher:      event.Fanout(publishers...),
		HistoryStorage: storage.NewFSStorage(conf.HistoryStoragePath),
	}

	if conf.InfluxURL != "" {
		influxClient := influxdb2.NewClientWithOptions(conf.InfluxURL, conf.InfluxToken, influxdb2.DefaultOptions())
		defer influxClient.Close()

		session, errchan := metric.NewStorage(influxClient).WriteSession(conf.InfluxOrg, conf.InfluxBucket)
		defer session.Close()

		go func() {
			for err := range errchan {
				logger.Error("failed to write metrics", zap.Error(err))
			}
		}()

		execOpts.Metrics = &metric.Exporter{
			Session: session,
			Clock:   metric.Clock{Epoch: time.Now()},
		}
	}

	executor := exec.NewExecutor(execOpts)

	if conf.HTTPAddr != "" {
		httpServer := &http.Server{
			Addr: conf.HTTPAddr,
			Handler: api.New(api.Opts{
				Log:            logger,
				Executor:       executor,
				HistoryStorage: execOpts.HistoryStorage,
			}).Handler(),
		}

		go func() {
			logger.Info("HTTP API listening", zap.String("addr", conf.HTTPAddr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP API stopped", zap.Error(err))
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()
	}

	if conf.JobQueueURL == "" {
		logger.Info("no job queue configured, serving HTTP only")
		<-ctx.Done()
		return
	}

	srv := server.New(logger, server.ServerOpts{
		JobPoller:    job.NewPoller(sqsClient, conf.JobQueueURL),
		PollInterval: 10 * time.Second,
		Executor:     executor,
	})

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("serve failed", zap.Error(err))
	}
}
