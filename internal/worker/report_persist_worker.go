package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"ragsync/internal/cache"
	"ragsync/internal/model"
	"ragsync/internal/repository"
)

// ReportPersistWorker drains the sync-report queue into the audit table and
// refreshes the last-report cache. Reconcilers publish fire-and-forget; this
// worker is the only writer of sync_reports.
type ReportPersistWorker struct {
	conn        *amqp.Connection
	repo        *repository.SyncReportRepository
	reportCache *cache.ReportCache
	queueName   string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReportPersistWorker(conn *amqp.Connection, repo *repository.SyncReportRepository, reportCache *cache.ReportCache, queueName string) *ReportPersistWorker {
	return &ReportPersistWorker{
		conn:        conn,
		repo:        repo,
		reportCache: reportCache,
		queueName:   queueName,
	}
}

func (w *ReportPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var report model.SyncReport
				if err := json.Unmarshal(d.Body, &report); err != nil {
					log.Printf("worker decode report failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.repo.Create(&report); err != nil {
					log.Printf("worker persist report failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if w.reportCache != nil {
					if err := w.reportCache.SetLast(workerCtx, report); err != nil {
						log.Printf("worker cache report failed: %v", err)
					}
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *ReportPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
