package ratelimit

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// Group is the counter store group shared by every rate limit counter
const Group = "toolgate_rate"

const (
	executionPrefix = "exec_"
	discoveryPrefix = "disc_"
)

// ExecutionKey returns the per-operation counter key for a user
func ExecutionKey(userID int64, operation string) string {
	return executionPrefix + strconv.FormatInt(userID, 10) + "_" + hashName(operation)
}

// GlobalKey returns the counter key shared by all operations of a user
func GlobalKey(userID int64) string {
	return executionPrefix + strconv.FormatInt(userID, 10) + "_global"
}

// DiscoveryKey returns the counter key for a network identity
func DiscoveryKey(ip string) string {
	return discoveryPrefix + hashName(ip)
}

// hashName keeps keys short and free of separator characters.
func hashName(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
