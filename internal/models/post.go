package models

import "math"

// Field and collection names shared by every store backend. commentsCount
// is derived from the comments sub-collection and only the comment trigger
// writes it.
const (
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	CommentsCountField = "commentsCount"
)

// DecrementedCount returns the comments count after removing one comment.
// The stored value may be missing or of an unexpected type; both count as 0.
// A fractional count is truncated toward zero first, NaN and infinities count
// as 0. The result never goes below zero.
func DecrementedCount(stored any) int64 {
	current := numberOf(stored)
	if current <= 0 {
		return 0
	}
	return current - 1
}

func numberOf(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float32:
		return floatCount(float64(n))
	case float64:
		return floatCount(n)
	default:
		return 0
	}
}

func floatCount(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(f)
}
