package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisSessionResolver looks up sessions written by the citizen-facing app.
// Each key holds the JSON encoded principal for one token.
type RedisSessionResolver struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionResolver(ctx context.Context, cfg RedisConfig) (*RedisSessionResolver, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "session:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisSessionResolver{client: client, prefix: cfg.Prefix}, nil
}

func (r *RedisSessionResolver) Resolve(ctx context.Context, token string) (domain.PrincipalRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.PrincipalRecord{}, domain.ErrUnauthenticated
	}
	payload, err := r.client.Get(ctx, r.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PrincipalRecord{}, domain.ErrPrincipalNotFound
	}
	if err != nil {
		return domain.PrincipalRecord{}, fmt.Errorf("read session: %w", err)
	}
	return DecodeSession(payload)
}

func (r *RedisSessionResolver) Close() error {
	return r.client.Close()
}

// DecodeSession parses a stored session. Payloads that do not describe a
// usable principal are treated as unknown credentials.
func DecodeSession(payload []byte) (domain.PrincipalRecord, error) {
	var record domain.PrincipalRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.PrincipalRecord{}, fmt.Errorf("%w: malformed session", domain.ErrPrincipalNotFound)
	}
	record.Role = domain.Role(strings.ToLower(strings.TrimSpace(string(record.Role))))
	if _, err := record.Principal(); err != nil {
		return domain.PrincipalRecord{}, fmt.Errorf("%w: %v", domain.ErrPrincipalNotFound, err)
	}
	return record, nil
}
