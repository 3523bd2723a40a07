package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"devconnector/internal/logging"
	"devconnector/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second

	readRetryDelay = time.Second
)

// ManagerConfig tunes how the timeline workers read the posts stream.
type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64         // XREADGROUP COUNT
	BlockTimeout time.Duration // XREADGROUP BLOCK
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = DefaultBlockTimeout
	}
	return c
}

// Manager runs a pool of consumers in the timeline group of the posts stream.
// Each consumer first replays its own unacknowledged messages, then blocks on
// new ones until the manager is stopped.
type Manager struct {
	consumer queue.Consumer
	handler  *Handler
	cfg      ManagerConfig
	log      zerolog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	return &Manager{
		consumer: consumer,
		handler:  handler,
		cfg:      cfg.withDefaults(),
		log:      logging.Component("Manager"),
	}
}

// Start creates the consumer group if needed and launches the workers.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx, queue.StreamPosts, queue.ConsumerGroupTimeline); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	for i := 1; i <= m.cfg.WorkerCount; i++ {
		m.wg.Add(1)
		go func(name string) {
			defer m.wg.Done()
			m.run(ctx, name)
		}("worker-" + strconv.Itoa(i))
	}

	m.log.Info().
		Int("workers", m.cfg.WorkerCount).
		Str("stream", queue.StreamPosts).
		Str("group", queue.ConsumerGroupTimeline).
		Msg("workers started")
	return nil
}

// Stop cancels the workers and waits for in-flight batches to finish.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.log.Info().Msg("all workers stopped")
}

func (m *Manager) run(ctx context.Context, name string) {
	log := m.log.With().Str("consumer", name).Logger()

	// Messages delivered to this consumer before a restart are still pending.
	for ctx.Err() == nil {
		msgs, err := m.consumer.ReadPending(ctx, queue.StreamPosts, queue.ConsumerGroupTimeline, name, m.cfg.BatchSize)
		if err != nil {
			log.Error().Err(err).Msg("read pending failed")
			break
		}
		if len(msgs) == 0 {
			break
		}
		log.Info().Int("count", len(msgs)).Msg("replaying pending messages")
		m.dispatch(ctx, log, msgs)
	}

	for ctx.Err() == nil {
		msgs, err := m.consumer.Read(ctx, queue.StreamPosts, queue.ConsumerGroupTimeline, name, m.cfg.BatchSize, m.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("read failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}
		m.dispatch(ctx, log, msgs)
	}
}

// dispatch handles then acknowledges each message. Failed events are acked
// too; the handler has already invalidated the timeline.
func (m *Manager) dispatch(ctx context.Context, log zerolog.Logger, msgs []queue.Message) {
	for _, msg := range msgs {
		if err := m.handler.HandleEvent(ctx, msg.Event); err != nil {
			log.Error().Err(err).Str("msg_id", msg.ID).Str("type", msg.Event.Type).Msg("handler error")
		}
		if err := m.consumer.Ack(ctx, queue.StreamPosts, queue.ConsumerGroupTimeline, msg.ID); err != nil {
			log.Error().Err(err).Str("msg_id", msg.ID).Msg("ack failed")
		}
	}
}
