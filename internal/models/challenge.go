package models

import (
	"math"
	"time"
)

const (
	ChallengesCollection = "challenges"
	StartAtField         = "startAt"
	EndAtField           = "endAt"
	TitleField           = "title"
)

// ChallengeState is derived from the lifecycle fields, it is never stored.
type ChallengeState string

const (
	ChallengeDraft  ChallengeState = "DRAFT"
	ChallengeActive ChallengeState = "ACTIVE"
	ChallengeEnded  ChallengeState = "ENDED"
)

// ChallengeStateOf derives the lifecycle state of a challenge document.
func ChallengeStateOf(data map[string]any, now time.Time) ChallengeState {
	if !Truthy(data[StartAtField]) {
		return ChallengeDraft
	}
	if end, ok := timeOf(data[EndAtField]); ok && end.Before(now) {
		return ChallengeEnded
	}
	return ChallengeActive
}

// IsActivation reports whether a write moved a challenge from draft to active,
// i.e. this write is the one that set startAt for the first time.
func IsActivation(before, after map[string]any) bool {
	wasDraft := !Truthy(before[StartAtField])
	nowActive := Truthy(after[StartAtField])
	return wasDraft && nowActive
}

// Truthy treats nil, false, "", and numeric zero as unset. Everything else,
// timestamps and maps included, counts as set.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}

func timeOf(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}
