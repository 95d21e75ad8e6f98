package aws_test

import (
	"context"
	"sync"
	"testing"
	"time"

	awspkg "github.com/yashrajoria/freelance-marketplace/pkg/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetricsClient_RecordCount(t *testing.T) {
	api := &fakeCloudWatch{}
	m := awspkg.NewMetricsClientWithAPI(api, "Test")

	err := m.RecordCount(context.Background(), awspkg.MetricOrdersPublished, map[string]string{"b": "2", "a": "1"})

	require.NoError(t, err)
	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "Test", aws.ToString(in.Namespace))
	assert.Equal(t, awspkg.MetricOrdersPublished, aws.ToString(in.MetricData[0].MetricName))
	assert.Equal(t, "a", aws.ToString(in.MetricData[0].Dimensions[0].Name))
}

func TestMetricsClient_NilIsDisabled(t *testing.T) {
	var m *awspkg.MetricsClient
	assert.False(t, m.IsEnabled())
	assert.NoError(t, m.RecordCount(context.Background(), "x", nil))
}

type fakeLogs struct {
	mu     sync.Mutex
	events []types.InputLogEvent
}

func (f *fakeLogs) CreateLogGroup(context.Context, *cloudwatchlogs.CreateLogGroupInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	return nil, &types.ResourceAlreadyExistsException{}
}

func (f *fakeLogs) CreateLogStream(context.Context, *cloudwatchlogs.CreateLogStreamInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogs) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, in.LogEvents...)
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func TestLogShipper_FlushesOnClose(t *testing.T) {
	api := &fakeLogs{}
	s, err := awspkg.StartLogShipper(context.Background(), api, "/g", "s")
	require.NoError(t, err)

	_, _ = s.Write([]byte(`{"msg":"one"}`))
	_, _ = s.Write([]byte(`{"msg":"two"}`))
	s.Close()

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.events, 2)
	assert.Equal(t, `{"msg":"one"}`, aws.ToString(api.events[0].Message))
	assert.WithinDuration(t, time.Now(), time.UnixMilli(aws.ToInt64(api.events[1].Timestamp)), time.Minute)

	// writes after close are dropped, not panics
	_, err = s.Write([]byte("late"))
	assert.NoError(t, err)
}

type fakeSecrets struct {
	calls int
	out   *secretsmanager.GetSecretValueOutput
	err   error
}

func (f *fakeSecrets) GetSecretValue(context.Context, *secretsmanager.GetSecretValueInput, ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	return f.out, f.err
}

func TestSecretsClient_CachesWithinTTL(t *testing.T) {
	api := &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("s3cret")}}
	sc := awspkg.NewSecretsClientWithAPI(api, time.Hour)

	for range 3 {
		v, err := sc.GetSecret(context.Background(), "gateway/JWT_SECRET")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", v)
	}
	assert.Equal(t, 1, api.calls)
}

func TestSecretsClient_RefetchesAfterTTL(t *testing.T) {
	api := &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{SecretBinary: []byte("raw")}}
	sc := awspkg.NewSecretsClientWithAPI(api, time.Millisecond)

	v, err := sc.GetSecret(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "raw", v)

	time.Sleep(5 * time.Millisecond)
	_, err = sc.GetSecret(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)
}

func TestSecretsClient_Empty(t *testing.T) {
	api := &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{}}
	_, err := awspkg.NewSecretsClientWithAPI(api, 0).GetSecret(context.Background(), "x")
	assert.Error(t, err)
}
