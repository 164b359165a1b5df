// Package metrics publishes API request telemetry to AWS CloudWatch.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"airline/internal/config"
)

const (
	metricRequestCount   = "RequestCount"
	metricRequestLatency = "RequestLatency"

	dimMethod   = "Method"
	dimEndpoint = "Endpoint"
	dimStatus   = "Status"

	// publishTimeout bounds each PutMetricData call so a slow CloudWatch
	// endpoint cannot back up the publisher goroutine indefinitely.
	publishTimeout = 5 * time.Second

	// queueSize is the buffered channel capacity. When the queue is full,
	// new datapoints are dropped rather than blocking request handling.
	queueSize = 256
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchCollector records per-endpoint request counts and latency to
// CloudWatch. Publishing is asynchronous so the request path never waits on
// the metrics backend.
type CloudWatchCollector struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger

	queue chan []cwtypes.MetricDatum
	done  chan struct{}
}

// NewCloudWatchCollector loads AWS configuration for the configured region
// and starts the publisher goroutine. Call Close to flush and stop it.
func NewCloudWatchCollector(ctx context.Context, cfg config.ObservabilityConfig, logger *slog.Logger) (*CloudWatchCollector, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, err
	}
	return NewCloudWatchCollectorWithClient(cloudwatch.NewFromConfig(awsCfg), cfg.MetricNamespace, logger), nil
}

// NewCloudWatchCollectorWithClient creates a collector with a caller-provided
// client. Useful for testing or sharing a client across collectors.
func NewCloudWatchCollectorWithClient(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCollector {
	if logger == nil {
		logger = slog.Default()
	}

	c := &CloudWatchCollector{
		client:    client,
		namespace: namespace,
		logger:    logger,
		queue:     make(chan []cwtypes.MetricDatum, queueSize),
		done:      make(chan struct{}),
	}

	go c.publishLoop()
	return c
}

// RecordRequest enqueues a count and latency datapoint for the endpoint.
// Never blocks; datapoints are dropped when the queue is full.
func (c *CloudWatchCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		{Name: aws.String(dimMethod), Value: aws.String(method)},
		{Name: aws.String(dimEndpoint), Value: aws.String(endpoint)},
		{Name: aws.String(dimStatus), Value: aws.String(status)},
	}

	data := []cwtypes.MetricDatum{
		{
			MetricName: aws.String(metricRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		{
			MetricName: aws.String(metricRequestLatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	}

	select {
	case c.queue <- data:
	default:
		c.logger.Warn("metrics queue full; dropping datapoints",
			slog.String("endpoint", endpoint),
		)
	}
}

// Close stops the publisher after draining queued datapoints.
func (c *CloudWatchCollector) Close() {
	close(c.queue)
	<-c.done
}

func (c *CloudWatchCollector) publishLoop() {
	defer close(c.done)

	for data := range c.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(c.namespace),
			MetricData: data,
		})
		cancel()
		if err != nil {
			c.logger.Error("failed to publish metrics",
				slog.String("error", err.Error()),
			)
		}
	}
}
