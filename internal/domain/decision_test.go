package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDenialMessagesDoNotQuotePolicyValues(t *testing.T) {
	reasons := []DenialReason{
		ReasonDeadlinePassed,
		ReasonQuantityOutOfRange,
		ReasonAmountOutOfRange,
		ReasonMessageTooLong,
		ReasonDailyLimit,
	}
	for _, r := range reasons {
		t.Run(string(r), func(t *testing.T) {
			msg := (&Denial{Reason: r}).Message()
			assert.NotEmpty(t, msg)
			assert.False(t, strings.ContainsAny(msg, "0123456789"), msg)
		})
	}
}

func TestSuspendedMessageNamesEndTime(t *testing.T) {
	until := time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC)
	d := &Denial{Reason: ReasonAccountSuspended, ResetsAt: &until}
	assert.Equal(t, "Your account is suspended until 17 October 2026 09:30.", d.Message())
	assert.Equal(t, "Your account is suspended.", (&Denial{Reason: ReasonAccountSuspended}).Message())
}
