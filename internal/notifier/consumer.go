package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/store"
	"github.com/srhoton/step-alb-poc/internal/utils"
)

// Consumer reads the store's change feed in batches through a consumer
// group and hands them to the Processor. Entries are acked once the batch
// summary is produced; unacked entries are the feed's redelivery path.
type Consumer struct {
	log       *logger.Logger
	rdb       *goredis.Client
	processor *Processor

	stream    string
	group     string
	consumer  string
	batchSize int64
	block     time.Duration
}

func NewConsumer(baseLog *logger.Logger, rdb *goredis.Client, table string, processor *Processor) (*Consumer, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor required")
	}

	group := utils.GetEnv("NOTIFIER_GROUP", "stream-notifier", baseLog)
	consumerName, _ := os.Hostname()
	if strings.TrimSpace(consumerName) == "" {
		consumerName = "notifier"
	}
	consumerName = consumerName + "-" + uuid.NewString()[:8]

	var log *logger.Logger
	if baseLog != nil {
		log = baseLog.With("component", "ChangeFeedConsumer", "group", group, "consumer", consumerName)
	}
	return &Consumer{
		log:       log,
		rdb:       rdb,
		processor: processor,
		stream:    store.ChangeStreamKey(table),
		group:     group,
		consumer:  consumerName,
		batchSize: int64(utils.GetEnvAsInt("NOTIFIER_BATCH_SIZE", 100, baseLog)),
		block:     5 * time.Second,
	}, nil
}

// Run blocks until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}
	if c.log != nil {
		c.log.Info("Consuming change feed", "stream", c.stream)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		streams, err := c.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.consumer,
			Streams:  []string{c.stream, ">"},
			Count:    c.batchSize,
			Block:    c.block,
		}).Result()
		if err != nil {
			if err == goredis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.log != nil {
				c.log.Warn("Change feed read failed; retrying", "error", err)
			}
			time.Sleep(time.Second)
			continue
		}

		for _, str := range streams {
			c.handleBatch(ctx, str.Messages)
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.rdb.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (c *Consumer) handleBatch(ctx context.Context, msgs []goredis.XMessage) {
	records := make([]store.ChangeRecord, 0, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
		raw, ok := msg.Values["record"].(string)
		if !ok {
			if c.log != nil {
				c.log.Warn("Change feed entry missing record payload", "id", msg.ID)
			}
			continue
		}
		var rec store.ChangeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			if c.log != nil {
				c.log.Warn("Bad change feed payload", "id", msg.ID, "error", err)
			}
			continue
		}
		records = append(records, rec)
	}

	result := c.processor.Process(ctx, records)

	// Per-record failures are already in the summary; acking here makes the
	// engine's duplicate-name rejection, not redelivery, the dedupe line.
	if len(ids) > 0 {
		if err := c.rdb.XAck(ctx, c.stream, c.group, ids...).Err(); err != nil && c.log != nil {
			c.log.Warn("Ack failed; entries will be redelivered", "error", err)
		}
	}

	if len(result.Errors) > 0 && c.log != nil {
		c.log.Warn("Batch finished with errors", "errors", result.Errors)
	}
}
