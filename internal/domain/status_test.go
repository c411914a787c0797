package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTraits(t *testing.T) {
	tests := []struct {
		status    Status
		final     bool
		immutable bool
		kitchen   bool
		cashier   bool
		customer  bool
		next      Status
	}{
		{StatusPending, false, false, false, false, false, StatusCheckout},
		{StatusCheckout, false, false, false, false, false, StatusApproving},
		{StatusApproving, false, false, false, false, false, StatusApproved},
		{StatusApproved, true, true, false, false, false, StatusPaid},
		{StatusPaid, true, true, true, false, false, StatusInProgress},
		{StatusInProgress, false, true, true, false, true, StatusReady},
		{StatusReady, false, true, false, true, true, StatusDelivered},
		{StatusDelivered, true, true, false, true, false, StatusDelivered},
		{StatusCancelled, true, true, false, false, false, StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.final, IsFinal(tt.status), "final")
			assert.Equal(t, tt.immutable, IsImmutable(tt.status), "immutable")
			assert.Equal(t, tt.kitchen, IsKitchenVisible(tt.status), "kitchen")
			assert.Equal(t, tt.cashier, IsCashierVisible(tt.status), "cashier")
			assert.Equal(t, tt.customer, IsCustomerVisible(tt.status), "customer")
			assert.Equal(t, tt.next, Advance(tt.status), "advance")
		})
	}
}

func TestFinalIsSubsetOfImmutable(t *testing.T) {
	for _, s := range Statuses() {
		if IsFinal(s) {
			assert.True(t, IsImmutable(s), "final status %s must be immutable", s)
		}
	}
}

func TestImmutableSet(t *testing.T) {
	immutable := map[Status]bool{
		StatusApproved:   true,
		StatusPaid:       true,
		StatusInProgress: true,
		StatusReady:      true,
		StatusDelivered:  true,
		StatusCancelled:  true,
	}
	for _, s := range Statuses() {
		assert.Equal(t, immutable[s], IsImmutable(s), s.String())
	}
}

func TestAdvance_FullChain(t *testing.T) {
	s := StatusPending
	for i := 0; i < 7; i++ {
		next := Advance(s)
		assert.True(t, s.Precedes(next), "%s must precede %s", s, next)
		s = next
	}
	assert.Equal(t, StatusDelivered, s)

	assert.Equal(t, StatusDelivered, Advance(s))
}

func TestAdvance_IdempotentAtTerminals(t *testing.T) {
	assert.Equal(t, StatusCancelled, Advance(StatusCancelled))
	assert.Equal(t, StatusDelivered, Advance(StatusDelivered))
	assert.Equal(t, StatusDelivered, Advance(Advance(StatusDelivered)))
}

func TestAdvance_NeverReachesCancelled(t *testing.T) {
	for _, s := range Statuses() {
		if s == StatusCancelled {
			continue
		}
		assert.NotEqual(t, StatusCancelled, Advance(s))
	}
}

func TestAdvance_UnknownStatusIsNoop(t *testing.T) {
	assert.Equal(t, Status("LOST"), Advance(Status("LOST")))
}

func TestCancel(t *testing.T) {
	tests := []struct {
		from    Status
		wantErr bool
	}{
		{StatusPending, false},
		{StatusCheckout, false},
		{StatusApproving, false},
		{StatusApproved, true},
		{StatusPaid, true},
		{StatusInProgress, false},
		{StatusReady, false},
		{StatusDelivered, true},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, err := Cancel(tt.from)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStatusTransition)
				assert.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusCancelled, got)
		})
	}
}

func TestCancel_UnknownStatus(t *testing.T) {
	_, err := Cancel(Status("LOST"))
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseStatus("in_progress")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestStatuses_ReturnsCopy(t *testing.T) {
	list := Statuses()
	list[0] = StatusCancelled
	assert.Equal(t, StatusPending, Statuses()[0])
	assert.Len(t, list, 9)
}
