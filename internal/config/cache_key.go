package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// ExamLeaderboardKey returns the cache key for an exam's top-K leaderboard
func (r *CacheKeyStruct) ExamLeaderboardKey(examID string) string {
	return fmt.Sprintf("exam:%s:leaderboard:top", examID)
}

// GlobalLeaderboardKey returns the cache key for the global top-K leaderboard
func (r *CacheKeyStruct) GlobalLeaderboardKey() string {
	return "leaderboard:global:top"
}

// ExamLeaderboardChannel returns the Redis PubSub channel name for an exam's
// leaderboard change events
func (r *CacheKeyStruct) ExamLeaderboardChannel(examID string) string {
	return fmt.Sprintf("exam:%s:leaderboard:events", examID)
}

var CacheKey = NewCacheKeyStruct()
