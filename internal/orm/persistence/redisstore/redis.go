// Package redisstore implements model.Persistence on Redis hashes.
//
// A record lives in the hash <prefix>:<table>:<id>, one JSON-encoded hash
// field per model field. Every table keeps its identities in the set
// <prefix>:<table>:ids and its integer sequence in <prefix>:<table>:seq.
package redisstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/conduit-lang/datamap/internal/orm/model"
)

// ErrDuplicateID is returned when inserting a record whose identity is taken
var ErrDuplicateID = errors.New("duplicate id")

// Config holds Redis connection settings
type Config struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix namespaces every key
	Prefix string
	// UUIDs assigns random UUID strings instead of sequential integers
	UUIDs bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Addr:   "localhost:6379",
		Prefix: "datamap",
	}
}

// Store is a Redis-backed persistence
type Store struct {
	client *redis.Client
	prefix string
	uuids  bool
	logger *zap.Logger
}

// New connects to Redis and verifies the connection
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, cfg Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultConfig().Prefix
	}
	return &Store{client: client, prefix: prefix, uuids: cfg.UUIDs, logger: logger}
}

// Close closes the client
func (s *Store) Close() error {
	return s.client.Close()
}

// Load reads the record hash for id
func (s *Store) Load(ctx context.Context, t model.Table, id any) (model.Row, error) {
	key := s.recordKey(t, id)
	s.logger.Debug("hgetall", zap.String("key", key))

	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s %v: %w", t.Name, id, model.ErrNotFound)
	}

	row := make(model.Row, len(raw))
	for name, encoded := range raw {
		v, err := decode(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s.%s: %w", key, name, err)
		}
		row[name] = v
	}
	return row, nil
}

// LoadBy scans the table's identities in order and returns the first record
// whose field equals value.
func (s *Store) LoadBy(ctx context.Context, t model.Table, field string, value any) (model.Row, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey(t)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.Name, err)
	}
	sortIDs(ids)

	for _, id := range ids {
		encoded, err := s.client.HGet(ctx, s.recordKey(t, id), field).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s.%s: %w", t.Name, field, err)
		}
		v, err := decode(encoded)
		if err != nil {
			return nil, err
		}
		if equal(v, value) {
			return s.Load(ctx, t, id)
		}
	}
	return nil, fmt.Errorf("%s where %s = %v: %w", t.Name, field, value, model.ErrNotFound)
}

// Insert writes a new record hash and registers its identity
func (s *Store) Insert(ctx context.Context, t model.Table, row model.Row) (any, error) {
	id := row[t.IDField]
	if id == nil {
		next, err := s.nextID(ctx, t)
		if err != nil {
			return nil, err
		}
		id = next
	}

	key := s.recordKey(t, id)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", key, err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%s %v: %w", t.Name, id, ErrDuplicateID)
	}

	stored := row.Clone()
	stored[t.IDField] = id
	values, err := encodeRow(stored)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("insert", zap.String("key", key))
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.SAdd(ctx, s.idsKey(t), cast.ToString(id))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", key, err)
	}
	return id, nil
}

// Update overwrites the given hash fields of an existing record
func (s *Store) Update(ctx context.Context, t model.Table, id any, row model.Row) error {
	key := s.recordKey(t, id)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", key, err)
	}
	if exists == 0 {
		return fmt.Errorf("%s %v: %w", t.Name, id, model.ErrNotFound)
	}
	if len(row) == 0 {
		return nil
	}

	values, err := encodeRow(row)
	if err != nil {
		return err
	}
	s.logger.Debug("update", zap.String("key", key))
	if err := s.client.HSet(ctx, key, values).Err(); err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return nil
}

// Delete removes the record hash and its identity
func (s *Store) Delete(ctx context.Context, t model.Table, id any) error {
	key := s.recordKey(t, id)
	s.logger.Debug("delete", zap.String("key", key))

	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, key)
		pipe.SRem(ctx, s.idsKey(t), cast.ToString(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%s %v: %w", t.Name, id, model.ErrNotFound)
	}
	return nil
}

func (s *Store) nextID(ctx context.Context, t model.Table) (any, error) {
	if s.uuids {
		return uuid.NewString(), nil
	}
	for {
		n, err := s.client.Incr(ctx, s.seqKey(t)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate id for %s: %w", t.Name, err)
		}
		taken, err := s.client.SIsMember(ctx, s.idsKey(t), strconv.FormatInt(n, 10)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate id for %s: %w", t.Name, err)
		}
		if !taken {
			return n, nil
		}
	}
}

func (s *Store) recordKey(t model.Table, id any) string {
	return s.prefix + ":" + t.Name + ":" + cast.ToString(id)
}

func (s *Store) idsKey(t model.Table) string {
	return s.prefix + ":" + t.Name + ":ids"
}

func (s *Store) seqKey(t model.Table) string {
	return s.prefix + ":" + t.Name + ":seq"
}

func encodeRow(row model.Row) (map[string]any, error) {
	values := make(map[string]any, len(row))
	for name, v := range row {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		values[name] = string(b)
	}
	return values, nil
}

// decode reads a JSON hash value, keeping integers as int64
func decode(encoded string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(encoded)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	}
	return v, nil
}

// sortIDs orders numeric identities numerically and the rest lexically
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.ParseInt(ids[i], 10, 64)
		b, errB := strconv.ParseInt(ids[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, errA := cast.ToStringE(a)
	bs, errB := cast.ToStringE(b)
	return errA == nil && errB == nil && as == bs
}
