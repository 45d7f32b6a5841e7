package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// joinSlots bounds the join-order component packed into each sorted-set score
const joinSlots = 1024

// DefaultTTL is how long mirrored standings stay readable after the last write
const DefaultTTL = 24 * time.Hour

// RedisStore mirrors standings into a redis sorted set per room
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func scoresKey(roomCode string) string { return fmt.Sprintf("room:%s:lb", roomCode) }
func namesKey(roomCode string) string  { return fmt.Sprintf("room:%s:names", roomCode) }

// packScore orders equal scores by join order when read back highest first
func packScore(score, joinOrder int) float64 {
	if joinOrder < 0 {
		joinOrder = 0
	}
	if joinOrder >= joinSlots {
		joinOrder = joinSlots - 1
	}
	return float64(score*joinSlots + (joinSlots - 1 - joinOrder))
}

func unpackScore(v float64) (score, joinOrder int) {
	n := int(v)
	return n / joinSlots, joinSlots - 1 - n%joinSlots
}

// Record replaces the room's standings
func (s *RedisStore) Record(ctx context.Context, roomCode string, standings []Standing) error {
	if len(standings) == 0 {
		return nil
	}
	members := make([]redis.Z, len(standings))
	names := make(map[string]any, len(standings))
	for i, st := range standings {
		members[i] = redis.Z{Score: packScore(st.Score, st.JoinOrder), Member: st.PlayerID}
		names[st.PlayerID] = st.Nickname
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, scoresKey(roomCode))
		pipe.ZAdd(ctx, scoresKey(roomCode), members...)
		pipe.HSet(ctx, namesKey(roomCode), names)
		pipe.Expire(ctx, scoresKey(roomCode), s.ttl)
		pipe.Expire(ctx, namesKey(roomCode), s.ttl)
		return nil
	})
	return err
}

// Top returns the best n standings for a room; n <= 0 returns all of them
func (s *RedisStore) Top(ctx context.Context, roomCode string, n int) ([]Standing, error) {
	stop := int64(n - 1)
	if n <= 0 {
		stop = -1
	}
	entries, err := s.client.ZRevRangeWithScores(ctx, scoresKey(roomCode), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []Standing{}, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = fmt.Sprint(e.Member)
	}
	nicknames, err := s.client.HMGet(ctx, namesKey(roomCode), ids...).Result()
	if err != nil {
		return nil, err
	}

	rows := make([]Standing, len(entries))
	for i, e := range entries {
		score, joinOrder := unpackScore(e.Score)
		rows[i] = Standing{PlayerID: ids[i], Score: score, JoinOrder: joinOrder}
		if name, ok := nicknames[i].(string); ok {
			rows[i].Nickname = name
		}
	}
	assignRanks(rows)
	return rows, nil
}

// Clear removes a room's standings
func (s *RedisStore) Clear(ctx context.Context, roomCode string) error {
	return s.client.Del(ctx, scoresKey(roomCode), namesKey(roomCode)).Err()
}
