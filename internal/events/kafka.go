package events

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/metinatakli/cinex-booking/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	DefaultPayoutTopic  = "refund-payouts"
	DefaultInvoiceTopic = "invoice-events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher streams payout instructions and invoice lifecycle events.
// Messages are keyed so every record of one refund or invoice lands on the
// same partition.
type KafkaPublisher struct {
	payouts  messageWriter
	invoices messageWriter
}

func NewKafkaPublisher(brokers []string, payoutTopic, invoiceTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		payouts:  newWriter(brokers, payoutTopic),
		invoices: newWriter(brokers, invoiceTopic),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

type payoutMessage struct {
	PayoutID        int             `json:"payoutId"`
	RefundRequestID int             `json:"refundRequestId"`
	Amount          decimal.Decimal `json:"amount"`
	BankName        string          `json:"bankName"`
	AccountNumber   string          `json:"accountNumber"`
	AccountHolder   string          `json:"accountHolder"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func (p *KafkaPublisher) PublishPayout(ctx context.Context, payout domain.PayoutInstruction) error {
	value, err := json.Marshal(payoutMessage{
		PayoutID:        payout.ID,
		RefundRequestID: payout.RefundRequestID,
		Amount:          payout.Amount,
		BankName:        payout.Destination.BankName,
		AccountNumber:   payout.Destination.AccountNumber,
		AccountHolder:   payout.Destination.AccountHolder,
		CreatedAt:       payout.CreatedAt,
	})
	if err != nil {
		return err
	}

	return p.payouts.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(payout.RefundRequestID)),
		Value: value,
	})
}

type invoiceMessage struct {
	Type          domain.InvoiceEventType `json:"type"`
	InvoiceID     int                     `json:"invoiceId"`
	InvoiceCode   string                  `json:"invoiceCode"`
	TransactionID int                     `json:"transactionId"`
	BuyerEmail    string                  `json:"buyerEmail"`
	Amount        decimal.Decimal         `json:"amount"`
	Reason        string                  `json:"reason,omitempty"`
	OccurredAt    time.Time               `json:"occurredAt"`
}

func (p *KafkaPublisher) PublishInvoiceEvent(ctx context.Context, event domain.InvoiceEvent) error {
	value, err := json.Marshal(invoiceMessage(event))
	if err != nil {
		return err
	}

	return p.invoices.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(event.InvoiceID)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return errors.Join(p.payouts.Close(), p.invoices.Close())
}

// EnsureTopics creates the topics on the cluster controller when they are
// missing.
func EnsureTopics(ctx context.Context, brokers []string, topics ...string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}

	err = controllerConn.CreateTopics(configs...)
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return err
	}

	return nil
}
