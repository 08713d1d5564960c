//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"personlens/internal/notify"
	id "personlens/pkg/domain"
	"personlens/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	brokers   []string
	publisher *notify.KafkaPublisher
	ctx       context.Context
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	mgr := containers.GetManager()
	redpanda := mgr.GetRedpanda(s.T())
	s.brokers = redpanda.Brokers
	s.ctx = context.Background()

	var err error
	s.publisher, err = notify.NewKafka(s.brokers)
	s.Require().NoError(err)

	// Pre-create the topics so the first produce does not race topic creation.
	admin, err := kgo.NewClient(kgo.SeedBrokers(s.brokers...))
	s.Require().NoError(err)
	defer admin.Close()

	adm := kadm.NewClient(admin)
	_, err = adm.CreateTopics(s.ctx, 1, 1, nil, notify.DefaultAlertTopic, notify.DefaultEventTopic)
	s.Require().NoError(err)
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (s *KafkaPublisherSuite) consumeOne(topic string) notify.Event {
	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	var event notify.Event
	s.Require().NoError(json.Unmarshal(records[len(records)-1].Value, &event))
	return event
}

func (s *KafkaPublisherSuite) TestMonitoringAlertRoundTrip() {
	userID := id.NewUserID()
	subID := id.NewSubscriptionID()

	err := s.publisher.SendMonitoringAlert(s.ctx, userID, subID, "email", "ada@example.com",
		[]string{"new phone found: 5551234567"})
	s.Require().NoError(err)

	event := s.consumeOne(notify.DefaultAlertTopic)
	s.Equal(notify.EventMonitoringAlert, event.Type)
	s.Equal(userID.String(), event.UserID)
	s.Equal(subID.String(), event.Payload["subscriptionId"])
}

func (s *KafkaPublisherSuite) TestWebhookRoundTrip() {
	userID := id.NewUserID()

	err := s.publisher.SendWebhookNotification(s.ctx, userID, "monitoring.changes_detected",
		map[string]any{"confidence": 0.9})
	s.Require().NoError(err)

	event := s.consumeOne(notify.DefaultEventTopic)
	s.Equal(notify.EventWebhook, event.Type)
	s.Equal("monitoring.changes_detected", event.Payload["event"])
}
