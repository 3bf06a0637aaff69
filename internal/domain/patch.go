package domain

import "time"

// OptionalTime distinguishes "leave unchanged" from "set to Value" (nil clears).
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// SetTime builds an OptionalTime that writes t (nil means NULL).
func SetTime(t *time.Time) OptionalTime {
	return OptionalTime{Set: true, Value: t}
}

// EnrollmentPatch lists the enrollment fields an update may touch.
// Nil / unset fields are left alone by the persistence layer.
type EnrollmentPatch struct {
	Status          *EnrollmentStatus
	PercentProgress *int
	CompletedAt     OptionalTime
}

// Empty reports whether the patch changes nothing.
func (p EnrollmentPatch) Empty() bool {
	return p.Status == nil && p.PercentProgress == nil && !p.CompletedAt.Set
}

// UserPatch lists the progression fields of a user an update may touch.
// XP is intentionally absent: it only moves through ledger grants.
type UserPatch struct {
	Streak     *int
	LastActive OptionalTime
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Streak == nil && !p.LastActive.Set
}

// Apply returns u with the patch fields written over it.
func (p UserPatch) Apply(u User) User {
	if p.Streak != nil {
		u.Streak = *p.Streak
	}
	if p.LastActive.Set {
		u.LastActive = p.LastActive.Value
	}
	return u
}
