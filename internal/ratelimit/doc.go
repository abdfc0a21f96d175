// Package ratelimit implements admission control for tool execution and
// discovery requests.
//
// Counters live in a cache.Store under the group "toolgate_rate":
//
//	exec_{user_id}_{md5(operation)}   per-operation execution counter
//	exec_{user_id}_global             per-user execution counter
//	disc_{md5(ip)}                    per-IP discovery counter
//
// A check reads the counters, rejects when any count has reached its limit,
// and otherwise increments them with the expiry reset to the full window.
// Because every admitted request pushes the expiry out again, an identity
// that keeps calling faster than the window never sees its counter expire.
//
// Limits come from a Policy. DefaultPolicy enforces 30 calls per operation,
// 60 calls per user and 100 discovery calls per IP in a 60 second window.
//
// Usage:
//
//	store := cache.NewLocalCache(time.Minute)
//	guard, err := ratelimit.NewGuard(store, ratelimit.DefaultPolicy{}, ratelimit.DefaultConfig())
//	if !guard.CheckExecution(ctx, userID, "wp/search-posts") {
//		ratelimit.WriteRejection(w, limit, time.Minute)
//		return
//	}
package ratelimit
