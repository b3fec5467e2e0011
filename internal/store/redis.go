package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/types"
	"github.com/srhoton/step-alb-poc/internal/utils"
)

// ChangeStreamKey is the change feed stream for a table.
func ChangeStreamKey(table string) string {
	return table + ":changes"
}

// NewRedisClient dials the Redis instance backing the widget table. The
// client is stateless and safe to share across invocations, so callers
// construct it once at process start and inject it.
func NewRedisClient(log *logger.Logger) (*goredis.Client, error) {
	addr, err := utils.RequireEnv("REDIS_ADDR")
	if err != nil {
		return nil, err
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if log != nil {
		log.Info("Connected to Redis", "addr", addr)
	}
	return rdb, nil
}

type redisStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	table  string
	stream string
}

// NewRedisStore wraps a Redis client as a WidgetStore. Rows live at
// {table}:{id}:{state} and change records go to {table}:changes.
func NewRedisStore(baseLog *logger.Logger, rdb *goredis.Client, table string) (WidgetStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("table name required")
	}
	var log *logger.Logger
	if baseLog != nil {
		log = baseLog.With("store", "RedisWidgetStore", "table", table)
	}
	return &redisStore{
		log:    log,
		rdb:    rdb,
		table:  table,
		stream: ChangeStreamKey(table),
	}, nil
}

func (s *redisStore) rowKey(widgetID, state string) string {
	return s.table + ":" + widgetID + ":" + state
}

func (s *redisStore) Get(ctx context.Context, widgetID, state string) (*types.Widget, error) {
	key := s.rowKey(widgetID, state)
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get widget row: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	w, err := rowFromFields(key, fields)
	if err != nil {
		return nil, err
	}
	// IDs are opaque and may contain ':', so distinct (id, state) pairs can
	// share a key. The stored fields are authoritative.
	if w.ID != widgetID || w.State != state {
		return nil, nil
	}
	return &w, nil
}

func (s *redisStore) Put(ctx context.Context, w types.Widget) error {
	raw, err := json.Marshal(insertRecord(w))
	if err != nil {
		return fmt.Errorf("encode change record: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.rowKey(w.ID, w.State), rowFields(w))
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"record": raw},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put widget row: %w", err)
	}
	return nil
}

func (s *redisStore) Move(ctx context.Context, old, updated types.Widget) error {
	removed, err := json.Marshal(removeRecord(old))
	if err != nil {
		return fmt.Errorf("encode change record: %w", err)
	}
	inserted, err := json.Marshal(insertRecord(updated))
	if err != nil {
		return fmt.Errorf("encode change record: %w", err)
	}

	// Single MULTI/EXEC so concurrent updates never observe zero or two rows.
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.rowKey(old.ID, old.State))
	pipe.HSet(ctx, s.rowKey(updated.ID, updated.State), rowFields(updated))
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"record": removed},
	})
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"record": inserted},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("move widget row: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, w types.Widget) error {
	raw, err := json.Marshal(removeRecord(w))
	if err != nil {
		return fmt.Errorf("encode change record: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.rowKey(w.ID, w.State))
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"record": raw},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete widget row: %w", err)
	}
	return nil
}

func (s *redisStore) Scan(ctx context.Context, widgetID string) ([]types.Widget, error) {
	// The ID is matched literally; a key-level prefix match alone would let
	// widget "a" see widget "a:b"'s rows, so rows are also filtered on the
	// stored id field below.
	pattern := s.table + ":" + escapeMatch(widgetID) + ":*"
	var (
		widgets []types.Widget
		cursor  uint64
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan widget rows: %w", err)
		}
		for _, key := range keys {
			fields, err := s.rdb.HGetAll(ctx, key).Result()
			if err != nil {
				return nil, fmt.Errorf("scan widget rows: %w", err)
			}
			if len(fields) == 0 {
				continue
			}
			w, err := rowFromFields(key, fields)
			if err != nil {
				return nil, err
			}
			if w.ID != widgetID {
				continue
			}
			widgets = append(widgets, w)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return widgets, nil
}

// escapeMatch quotes glob metacharacters so MATCH treats the ID literally.
func escapeMatch(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '*', '?', '[', ']', '^':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func rowFields(w types.Widget) map[string]interface{} {
	fields := map[string]interface{}{
		"id":           w.ID,
		"state":        w.State,
		"transitionAt": w.TransitionAt,
	}
	if w.CreatedAt != 0 {
		fields["createdAt"] = w.CreatedAt
	}
	if w.UpdatedAt != 0 {
		fields["updatedAt"] = w.UpdatedAt
	}
	return fields
}

func rowFromFields(key string, fields map[string]string) (types.Widget, error) {
	w := types.Widget{ID: fields["id"], State: fields["state"]}
	if w.ID == "" || w.State == "" {
		return w, fmt.Errorf("row %s missing id/state fields", key)
	}
	var err error
	if v, ok := fields["transitionAt"]; ok {
		if w.TransitionAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			return w, fmt.Errorf("malformed transitionAt at %s: %w", key, err)
		}
	}
	if v, ok := fields["createdAt"]; ok {
		if w.CreatedAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			return w, fmt.Errorf("malformed createdAt at %s: %w", key, err)
		}
	}
	if v, ok := fields["updatedAt"]; ok {
		if w.UpdatedAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			return w, fmt.Errorf("malformed updatedAt at %s: %w", key, err)
		}
	}
	return w, nil
}
