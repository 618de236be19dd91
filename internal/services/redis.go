package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caffeinepub/ace8win-3/internal/config"
	"github.com/caffeinepub/ace8win-3/internal/models"
)

// SessionService keeps login sessions and rate-limit counters in redis.
// These records are ephemeral operational state; everything durable about
// the platform stays with the remote authority.
type SessionService struct {
	client *redis.Client
	ctx    context.Context
}

func NewSessionService(cfg *config.Config) (*SessionService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &SessionService{
		client: client,
		ctx:    ctx,
	}, nil
}

func (s *SessionService) StoreSession(session *models.UserSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeySession, session.Principal, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(s.ctx, key, data, expiry).Err()
}

func (s *SessionService) GetSession(principal models.Principal, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeySession, principal, sessionID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	err = json.Unmarshal([]byte(data), &session)
	if err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now()
	updatedData, _ := json.Marshal(session)
	s.client.Set(s.ctx, key, updatedData, TTLUserSession)

	return &session, nil
}

func (s *SessionService) DeleteSession(principal models.Principal, sessionID string) error {
	key := fmt.Sprintf(KeySession, principal, sessionID)
	return s.client.Del(s.ctx, key).Err()
}

func (s *SessionService) CheckRateLimit(principal models.Principal, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, principal, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *SessionService) ClearRateLimit(principal models.Principal, action string) error {
	key := fmt.Sprintf(KeyRateLimit, principal, action)
	return s.client.Del(s.ctx, key).Err()
}

func (s *SessionService) Close() error {
	return s.client.Close()
}
