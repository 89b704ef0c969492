package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"court-watcher/types"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "calendar:"

// Storage keeps the last calendar of every court in redis
type Storage struct {
	client redis.UniversalClient
}

func New(addr, password string, db int) *Storage {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Storage{client: rdb}
}

// NewWithClient wraps an existing client
func NewWithClient(client redis.UniversalClient) *Storage {
	return &Storage{client: client}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Storage) Close() error {
	return s.client.Close()
}

// Restore returns the stored calendar of name, or nil when there is none
func (s *Storage) Restore(ctx context.Context, name string) (*types.Calendar, error) {
	log.Debug().Str("court", name).Msg("restoring calendar")

	val, err := s.client.Get(ctx, keyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		log.Info().Str("court", name).Msg("📭 No stored calendar")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return decode(name, val)
}

// Store overwrites the stored calendar of cal.Name
func (s *Storage) Store(ctx context.Context, cal *types.Calendar) error {
	data, err := encode(cal)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+cal.Name, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", cal.Name, err)
	}
	log.Debug().Str("court", cal.Name).Int("days", len(cal.Days)).Msg("calendar stored")
	return nil
}

// Names lists the courts that have a stored calendar, sorted
func (s *Storage) Names(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan calendars: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func encode(cal *types.Calendar) ([]byte, error) {
	data, err := json.Marshal(cal.Rows())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cal.Name, err)
	}
	return data, nil
}

func decode(name string, data []byte) (*types.Calendar, error) {
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return types.CalendarFromRows(name, rows)
}
