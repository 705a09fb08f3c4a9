package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for namespacing in Redis
const (
	keyBridgeState       = "bridge:state:main"
	keyPrefixTransaction = "bridge:tx:"
	keySchemaVersion     = "bridge:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Redis has no native prefix iteration, so transaction hashes are tracked in a set
	keySetTransactions = "bridge:tx:index"
)

const pingTimeout = 5 * time.Second

// RedisPersistence stores bridge state in Redis, for deployments where
// several replicas or restarts on different hosts need the same journal.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "story:" gives "story:bridge:tx:0x..".
	KeyPrefix string
}

// NewRedisPersistence connects to Redis and validates the schema version.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized",
		"address", cfg.Address,
		"db", cfg.DB,
		"key_prefix", cfg.KeyPrefix,
	)
	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) transactionKey(hash string) string {
	return r.prefixKey(keyPrefixTransaction + persistence.NormalizeHash(hash))
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisPersistence) SaveBridgeState(state *persistence.BridgeState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil BridgeState")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalBridgeState(state)
	if err != nil {
		return fmt.Errorf("failed to marshal BridgeState: %w", err)
	}
	if err := r.client.Set(context.Background(), r.prefixKey(keyBridgeState), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save BridgeState: %w", err)
	}
	return nil
}

func (r *RedisPersistence) LoadBridgeState() (*persistence.BridgeState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	data, err := r.client.Get(context.Background(), r.prefixKey(keyBridgeState)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load BridgeState: %w", err)
	}
	return persistence.UnmarshalBridgeState(data)
}

// SaveTransaction writes the record and its index entry in one pipeline
func (r *RedisPersistence) SaveTransaction(record *persistence.TransactionRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil TransactionRecord")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalTransactionRecord(record)
	if err != nil {
		return fmt.Errorf("failed to marshal TransactionRecord: %w", err)
	}

	ctx := context.Background()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.transactionKey(record.Hash), data, 0)
	pipe.SAdd(ctx, r.prefixKey(keySetTransactions), persistence.NormalizeHash(record.Hash))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save TransactionRecord: %w", err)
	}
	return nil
}

func (r *RedisPersistence) LoadTransaction(hash string) (*persistence.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	data, err := r.client.Get(context.Background(), r.transactionKey(hash)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load TransactionRecord: %w", err)
	}
	return persistence.UnmarshalTransactionRecord(data)
}

// ListTransactions reads the index set and fetches every record with MGET
func (r *RedisPersistence) ListTransactions() ([]*persistence.TransactionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx := context.Background()
	indexKey := r.prefixKey(keySetTransactions)

	hashes, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction hashes: %w", err)
	}
	if len(hashes) == 0 {
		return []*persistence.TransactionRecord{}, nil
	}

	keys := make([]string, len(hashes))
	for i, hash := range hashes {
		keys[i] = r.transactionKey(hash)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	records := make([]*persistence.TransactionRecord, 0, len(values))
	for i, val := range values {
		if val == nil {
			// index entry without a record; drop it
			r.client.SRem(ctx, indexKey, hashes[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for TransactionRecord", "key", keys[i])
			continue
		}

		record, err := persistence.UnmarshalTransactionRecord([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal TransactionRecord, skipping",
				"key", keys[i], "error", err)
			continue
		}
		records = append(records, record)
	}

	persistence.SortTransactions(records)
	return records, nil
}

func (r *RedisPersistence) DeleteTransaction(hash string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx := context.Background()
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.transactionKey(hash))
	pipe.SRem(ctx, r.prefixKey(keySetTransactions), persistence.NormalizeHash(hash))

	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck pings Redis and checks the schema marker is present
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}
