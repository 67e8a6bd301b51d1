package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "jobportal/pkg/domain-errors"
)

// numApplyShards spreads in-memory apply locks across jobs so applies to
// different jobs do not contend.
const numApplyShards = 64

// defaultApplyTxTimeout is the maximum duration for an apply transaction.
const defaultApplyTxTimeout = 5 * time.Second

type shardedApplyTx struct {
	shards  [numApplyShards]sync.Mutex
	stores  TxStores
	timeout time.Duration
}

// NewShardedTx serialises applies per job over stores that have no native
// transactions.
func NewShardedTx(stores TxStores, timeout time.Duration) ApplyTx {
	return &shardedApplyTx{stores: stores, timeout: timeout}
}

func (t *shardedApplyTx) RunInTx(ctx context.Context, fn func(stores TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultApplyTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(t.stores)
}

// selectShard picks a shard from the key set by withTxShardKey, or shard 0.
func (t *shardedApplyTx) selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(txShardKeyCtx).(string); ok && key != "" {
		h := fnv.New32a()
		_, _ = h.Write([]byte(key))
		return int(h.Sum32() % numApplyShards)
	}
	return 0
}

type txShardKey struct{}

var txShardKeyCtx = txShardKey{}

func withTxShardKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, txShardKeyCtx, key)
}
