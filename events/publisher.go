package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/golang/glog"
	kafka "github.com/segmentio/kafka-go"

	"minichat/store"
)

const (
	kafkaWriteTimeout = 10 * time.Second
	publishTimeout    = 15 * time.Second
)

// Record is the value written to the topic, one JSON object per event.
type Record struct {
	Kind           string         `json:"kind"` // message_sent, presence_changed
	ConversationId int64          `json:"conversationId,omitempty"`
	Message        *store.Message `json:"message,omitempty"`
	UserId         int64          `json:"userId,omitempty"`
	IsOnline       bool           `json:"isOnline,omitempty"`
	Time           int64          `json:"time"` // unix millis
}

// Publisher streams chat domain events to a kafka topic for downstream
// consumers (notification and feed services). Implements `chat.EventSink`.
// Publishing is fire-and-forget: a broker outage loses events but never
// blocks or fails the chat path.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Dialer: &kafka.Dialer{
				Timeout:   kafkaWriteTimeout,
				DualStack: true,
			},
		}),
	}
}

func (p *Publisher) MessageSent(conversationId int64, m *store.Message) {
	p.publish(strconv.FormatInt(conversationId, 10), &Record{
		Kind:           "message_sent",
		ConversationId: conversationId,
		Message:        m,
		Time:           time.Now().UnixMilli(),
	})
}

func (p *Publisher) PresenceChanged(uid int64, online bool) {
	p.publish(strconv.FormatInt(uid, 10), &Record{
		Kind:     "presence_changed",
		UserId:   uid,
		IsOnline: online,
		Time:     time.Now().UnixMilli(),
	})
}

func (p *Publisher) publish(key string, rec *Record) {
	value, err := json.Marshal(rec)
	if err != nil {
		glog.Errorf("events: marshal err: %v", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: value,
		}); err != nil {
			glog.Errorf("events: write err, kind: %s, err: %v", rec.Kind, err)
		}
	}()
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
