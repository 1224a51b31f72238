package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBucketDate(t *testing.T) {
	at := time.Date(2025, 6, 4, 14, 30, 45, 0, time.UTC) // Wednesday

	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), NormalizeBucketDate(PeriodDaily, at))
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), NormalizeBucketDate(PeriodWeekly, at))
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), NormalizeBucketDate(PeriodMonthly, at))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), NormalizeBucketDate(PeriodYearly, at))
}

func TestNormalizeBucketDateSundayBelongsToPriorMonday(t *testing.T) {
	sunday := time.Date(2025, 6, 8, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), NormalizeBucketDate(PeriodWeekly, sunday))
}

func TestCounterpartRole(t *testing.T) {
	assert.Equal(t, RoleStoreOwner, CounterpartRole(RoleCustomer))
	assert.Equal(t, RoleCustomer, CounterpartRole(RoleStoreOwner))
}

func TestActiveParticipant(t *testing.T) {
	left := time.Now()
	c := &Conversation{Participants: []Participant{
		{UserID: "a", Role: RoleCustomer, IsActive: true},
		{UserID: "b", Role: RoleStoreOwner, IsActive: false, LeftAt: &left},
	}}

	assert.NotNil(t, c.ActiveParticipant("a"))
	assert.Nil(t, c.ActiveParticipant("b"))
	assert.Nil(t, c.ActiveParticipant("c"))

	role, ok := c.ParticipantRole("b")
	assert.True(t, ok)
	assert.Equal(t, RoleStoreOwner, role)
}
