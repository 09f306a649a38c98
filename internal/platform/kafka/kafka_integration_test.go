//go:build integration

package kafka_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"custodian/internal/platform/kafka"
	"custodian/pkg/testutil/containers"
)

type KafkaSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
}

func (s *KafkaSuite) TestEnsureTopicsIsIdempotentAndProduceConsume() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := kafka.NewClient(ctx, s.brokers, "custodian-test")
	s.Require().NoError(err)
	defer client.Close()

	s.Require().NoError(kafka.EnsureTopics(ctx, client, logger, "custodian.test"))
	s.Require().NoError(kafka.EnsureTopics(ctx, client, logger, "custodian.test"))

	res := client.ProduceSync(ctx, &kgo.Record{Topic: "custodian.test", Key: []byte("k"), Value: []byte("v")})
	s.Require().NoError(res.FirstErr())

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics("custodian.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal("v", string(records[0].Value))
}

func (s *KafkaSuite) TestNoBrokersMeansNoClient() {
	client, err := kafka.NewClient(context.Background(), nil, "custodian-test")
	s.NoError(err)
	s.Nil(client)
}
