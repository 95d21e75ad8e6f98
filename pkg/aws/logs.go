package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// CloudWatchLogsAPI is the subset of the CloudWatch Logs client used here.
type CloudWatchLogsAPI interface {
	CreateLogGroup(ctx context.Context, in *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

const (
	logBatchMax      = 500
	logFlushInterval = 2 * time.Second
)

// LogShipper is an io.Writer that batches log lines into CloudWatch Logs.
// Writes never block on the network; when the buffer is full lines are dropped.
type LogShipper struct {
	client CloudWatchLogsAPI
	group  string
	stream string

	lines   chan types.InputLogEvent
	closing chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewLogShipper returns nil when CLOUDWATCH_ENABLED is not "true".
func NewLogShipper(ctx context.Context, serviceName string) (*LogShipper, error) {
	if os.Getenv("CLOUDWATCH_ENABLED") != "true" {
		return nil, nil
	}
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	group := os.Getenv("CLOUDWATCH_LOG_GROUP")
	if group == "" {
		group = "/marketplace/services"
	}
	return StartLogShipper(ctx, cloudwatchlogs.NewFromConfig(cfg), group, fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()))
}

// StartLogShipper ensures the group and stream exist and starts the flush loop.
func StartLogShipper(ctx context.Context, api CloudWatchLogsAPI, group, stream string) (*LogShipper, error) {
	if _, err := api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: aws.String(group)}); err != nil {
		var exists *types.ResourceAlreadyExistsException
		if !errors.As(err, &exists) {
			return nil, fmt.Errorf("failed to create log group: %w", err)
		}
	}
	if _, err := api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(stream),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}

	s := &LogShipper{
		client:  api,
		group:   group,
		stream:  stream,
		lines:   make(chan types.InputLogEvent, 4*logBatchMax),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Write implements io.Writer.
func (s *LogShipper) Write(p []byte) (int, error) {
	ev := types.InputLogEvent{
		Message:   aws.String(string(p)),
		Timestamp: aws.Int64(time.Now().UnixMilli()),
	}
	select {
	case <-s.closing:
	case s.lines <- ev:
	default:
	}
	return len(p), nil
}

// Close flushes what is buffered and stops the loop.
func (s *LogShipper) Close() {
	s.once.Do(func() {
		close(s.closing)
		<-s.done
	})
}

func (s *LogShipper) run() {
	defer close(s.done)
	ticker := time.NewTicker(logFlushInterval)
	defer ticker.Stop()

	batch := make([]types.InputLogEvent, 0, logBatchMax)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := s.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(s.group),
			LogStreamName: aws.String(s.stream),
			LogEvents:     batch,
		})
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cloudwatch logs flush failed: %v\n", err)
		}
		batch = make([]types.InputLogEvent, 0, logBatchMax)
	}

	for {
		select {
		case ev := <-s.lines:
			batch = append(batch, ev)
			if len(batch) >= logBatchMax {
				flush()
			}
		case <-s.closing:
			for {
				select {
				case ev := <-s.lines:
					batch = append(batch, ev)
					if len(batch) >= logBatchMax {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case <-ticker.C:
			flush()
		}
	}
}
