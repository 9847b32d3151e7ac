package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerPublish(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "pricing.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "apt-1" {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "content-type" {
			return errors.New("headers not sorted")
		}
		return nil
	})

	p := NewProducerFrom(mock)
	err := p.Publish(context.Background(), "pricing.events.v1", "apt-1", []byte(`{}`), map[string]string{
		"traceparent":  "00-abc",
		"content-type": "application/cloudevents+json",
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducerPublishError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerFrom(mock)
	err := p.Publish(context.Background(), "booking.events.v1", "apt-1", []byte(`{}`), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Contains(t, err.Error(), "booking.events.v1")
	require.NoError(t, p.Close())
}

func TestProducerPublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("stayrates-test")
	assert.Equal(t, "stayrates-test", cfg.ClientID)
	assert.True(t, cfg.Producer.Idempotent)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.NoError(t, cfg.Validate())
}
