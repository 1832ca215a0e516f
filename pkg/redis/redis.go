package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ikkim/reviewfunnel-backend/config"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance, nil before Init
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// TokenBlacklist stores revoked session tokens until they would have expired anyway
type TokenBlacklist struct {
	client *redis.Client
}

func NewTokenBlacklist(c *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: c}
}

// tokens are hashed so raw JWTs never sit in Redis
func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}

// Revoke adds a token to the blacklist
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}

	if err := b.client.Set(ctx, blacklistKey(token), "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}

	logger.Debug("Token successfully blacklisted", map[string]interface{}{
		"expiry": expiry.String(),
	})
	return nil
}

// IsRevoked checks if a token is in the blacklist
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	val, err := b.client.Get(ctx, blacklistKey(token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}
	return val == "revoked", nil
}
