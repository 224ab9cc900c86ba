package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"ragsync/internal/model"
)

type ReportPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewReportPublisher(conn *amqp.Connection, queueName string) *ReportPublisher {
	return &ReportPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ReportPublisher) PublishReport(ctx context.Context, report model.SyncReport) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish report failed: %w", err)
	}
	return nil
}
