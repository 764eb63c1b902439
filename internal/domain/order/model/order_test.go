package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentMetaMerge(t *testing.T) {
	now := time.Now()

	t.Run("Existing keys survive a merge", func(t *testing.T) {
		meta := PaymentMeta{Extra: map[string]string{"channel": "web", "coupon": "SPRING"}}

		merged := meta.Merge("C1", "COMPLETED", now)

		assert.Equal(t, "C1", merged.CaptureID)
		assert.Equal(t, "COMPLETED", merged.CaptureStatus)
		assert.Equal(t, "web", merged.Extra["channel"])
		assert.Equal(t, "SPRING", merged.Extra["coupon"])
	})

	t.Run("Merge does not mutate the receiver", func(t *testing.T) {
		meta := PaymentMeta{Extra: map[string]string{"channel": "web"}}

		merged := meta.Merge("C1", "COMPLETED", now)
		merged.Extra["channel"] = "app"

		assert.Equal(t, "web", meta.Extra["channel"])
		assert.Empty(t, meta.CaptureID)
	})

	t.Run("Prior capture id is archived", func(t *testing.T) {
		meta := PaymentMeta{CaptureID: "C0", CaptureStatus: "COMPLETED"}

		merged := meta.Merge("C1", "COMPLETED", now)

		assert.Equal(t, "C1", merged.CaptureID)
		assert.Equal(t, "C0", merged.Extra["previousCaptureId"])
	})
}

func TestPaymentMetaScanRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	meta := PaymentMeta{CaptureID: "C1", CaptureStatus: "COMPLETED", CapturedAt: &now, Extra: map[string]string{"k": "v"}}

	value, err := meta.Value()
	assert.NoError(t, err)

	var got PaymentMeta
	assert.NoError(t, got.Scan(value))
	assert.Equal(t, meta.CaptureID, got.CaptureID)
	assert.Equal(t, meta.Extra, got.Extra)

	var empty PaymentMeta
	assert.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty.CaptureID)
}

func TestFulfillmentNext(t *testing.T) {
	// 履约只允许相邻推进，终态与未确认态没有后继
	assert.Equal(t, StatusProcessing, FulfillmentNext[StatusConfirmed])
	assert.Equal(t, StatusShipped, FulfillmentNext[StatusProcessing])
	assert.Equal(t, StatusDelivered, FulfillmentNext[StatusShipped])

	_, ok := FulfillmentNext[StatusPending]
	assert.False(t, ok)
	_, ok = FulfillmentNext[StatusDelivered]
	assert.False(t, ok)
	_, ok = FulfillmentNext[StatusCancelled]
	assert.False(t, ok)
}

func TestOrderPredicates(t *testing.T) {
	order := &Order{Status: StatusPending, PaymentStatus: PaymentUnpaid}
	assert.True(t, order.CanCancel())
	assert.False(t, order.IsPaid())

	order.Status = StatusConfirmed
	order.PaymentStatus = PaymentPaid
	assert.False(t, order.CanCancel())
	assert.True(t, order.IsPaid())
}
