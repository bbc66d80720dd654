package messaging

import (
	"context"
	"fmt"
	"time"

	"CareGene/tools/ids"

	"github.com/redis/go-redis/v9"
)

// ClientMsgIndex maps client-supplied message ids to server-assigned
// ones inside a dedupe window, so a retried recordMessage call neither
// double-appends to the stream nor double-bumps unread counters.
type ClientMsgIndex struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	genSID func() string
}

type IndexOption func(*ClientMsgIndex)

func WithPrefix(prefix string) IndexOption {
	return func(m *ClientMsgIndex) { m.prefix = prefix }
}

func WithTTL(ttl time.Duration) IndexOption {
	return func(m *ClientMsgIndex) { m.ttl = ttl }
}

func WithSIDGenerator(gen func() string) IndexOption {
	return func(m *ClientMsgIndex) { m.genSID = gen }
}

func NewClientMsgIndex(rdb redis.UniversalClient, opts ...IndexOption) *ClientMsgIndex {
	m := &ClientMsgIndex{
		rdb:    rdb,
		prefix: "caregene:cmid",
		ttl:    48 * time.Hour,
		genSID: ids.MessageID,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// key layout: caregene:cmid:{sender}:{clientMsgID}
func (m *ClientMsgIndex) key(sender, clientMsgID string) string {
	return fmt.Sprintf("%s:%s:%s", m.prefix, sender, clientMsgID)
}

// Ensure resolves the idempotent mapping:
//   - already present: returns (serverMsgID, existed=true, nil)
//   - absent: generates a serverMsgID, stores it, returns existed=false
//
// Atomic SETNX + PEXPIRE via Lua; GET returns the old value on a hit.
func (m *ClientMsgIndex) Ensure(ctx context.Context, sender, clientMsgID string) (string, bool, error) {
	key := m.key(sender, clientMsgID)
	sid := m.genSID()

	const lua = `
local k = KEYS[1]
local v = ARGV[1]
local ttl_ms = tonumber(ARGV[2])
local ok = redis.call('SETNX', k, v)
if ok == 1 then
  redis.call('PEXPIRE', k, ttl_ms)
  return {0, v}
else
  local old = redis.call('GET', k)
  return {1, old}
end
`
	res, err := m.rdb.Eval(ctx, lua, []string{key}, sid, m.ttl.Milliseconds()).Result()
	if err != nil {
		return "", false, err
	}
	arr, ok := res.([]any)
	if !ok || len(arr) != 2 {
		return "", false, fmt.Errorf("msgindex: unexpected eval reply %T", res)
	}
	hit, _ := arr[0].(int64)
	got, _ := arr[1].(string)
	if got == "" {
		got = sid
	}
	return got, hit == 1, nil
}
