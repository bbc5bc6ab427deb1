package queue

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-booking/internal/model"
)

func TestBookingLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "booking.log")
	l := NewBookingLog(path)

	ev := BookingEvent{
		Type:          BookingCreated,
		BookingID:     "b1",
		UserID:        "u1",
		VenueID:       "v1",
		VenueName:     "Court A",
		Date:          "2025-03-01",
		StartTime:     "09:00",
		EndTime:       "10:00",
		TotalAmount:   25,
		PaymentStatus: "Pending",
		OccurredAt:    time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, l.Handle(context.Background(), body))
	ev.Type = BookingCancelled
	body, _ = json.Marshal(ev)
	require.NoError(t, l.Handle(context.Background(), body))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`[2025-02-01T12:00:00Z] booking.created | booking_id=b1 | user_id=u1 | venue="Court A (v1)" | date=2025-03-01 | slot=09:00-10:00 | total=25.00 | status=Pending`,
		lines[0])
	assert.Contains(t, lines[1], "booking.cancelled")
}

func TestBookingLogRejectsBadBody(t *testing.T) {
	l := NewBookingLog(filepath.Join(t.TempDir(), "booking.log"))
	assert.Error(t, l.Handle(context.Background(), []byte("{")))
	assert.Error(t, l.Handle(context.Background(), []byte(`{"type":"booking.created"}`)))
}

type completerMock struct{ mock.Mock }

func (m *completerMock) CompletePayment(ctx context.Context, id string) (*model.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

var errUnknownBooking = errors.New("unknown booking")

func permanent(err error) bool { return errors.Is(err, errUnknownBooking) }

func TestPaymentHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("completes booking", func(t *testing.T) {
		m := new(completerMock)
		m.On("CompletePayment", ctx, "b1").Return(&model.Booking{ID: "b1"}, nil).Once()
		h := PaymentHandler{Bookings: m, Permanent: permanent}

		require.NoError(t, h.Handle(ctx, []byte(`{"booking_id":"b1"}`)))
		m.AssertExpectations(t)
	})

	t.Run("permanent failure is not retried", func(t *testing.T) {
		m := new(completerMock)
		m.On("CompletePayment", ctx, "gone").Return(nil, errUnknownBooking).Once()
		h := PaymentHandler{Bookings: m, Permanent: permanent}

		err := h.Handle(ctx, []byte(`{"booking_id":"gone"}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRetry)
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		m := new(completerMock)
		m.On("CompletePayment", ctx, "b2").Return(nil, errors.New("db down")).Once()
		h := PaymentHandler{Bookings: m, Permanent: permanent}

		assert.ErrorIs(t, h.Handle(ctx, []byte(`{"booking_id":"b2"}`)), ErrRetry)
	})

	t.Run("bad body", func(t *testing.T) {
		h := PaymentHandler{Bookings: new(completerMock)}
		assert.Error(t, h.Handle(ctx, []byte(`{}`)))
		assert.Error(t, h.Handle(ctx, []byte(`nope`)))
	})
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ uint64, _, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}
func (f *fakeAck) Reject(_ uint64, requeue bool) error { return f.Nack(0, false, requeue) }

type republishMock struct{ mock.Mock }

func (m *republishMock) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, msg).Error(0)
}

func delivery(ack *fakeAck, headers amqp.Table) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, Headers: headers, Body: []byte(`{"booking_id":"b1"}`)}
}

func testConsumer(err error) *Consumer {
	return &Consumer{
		Name:       "test",
		Queue:      "payment.completed",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Handle:     func(context.Context, []byte) error { return err },
	}
}

func TestDispatchAcksSuccess(t *testing.T) {
	ack := &fakeAck{}
	testConsumer(nil).dispatch(context.Background(), new(republishMock), delivery(ack, nil))
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestDispatchDropsPermanentFailure(t *testing.T) {
	ack := &fakeAck{}
	pub := new(republishMock)
	testConsumer(errors.New("boom")).dispatch(context.Background(), pub, delivery(ack, nil))
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	pub.AssertNotCalled(t, "PublishWithContext", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchRetriesWithCountedCopy(t *testing.T) {
	ack := &fakeAck{}
	pub := new(republishMock)
	pub.On("PublishWithContext", "", "payment.completed", mock.MatchedBy(func(msg amqp.Publishing) bool {
		return msg.Headers[retryHeader] == int32(2) && string(msg.Body) == `{"booking_id":"b1"}`
	})).Return(nil).Once()

	testConsumer(Retry(errors.New("db down"))).dispatch(context.Background(), pub, delivery(ack, amqp.Table{retryHeader: int32(1)}))
	pub.AssertExpectations(t)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestDispatchStopsAfterMaxRetries(t *testing.T) {
	ack := &fakeAck{}
	pub := new(republishMock)
	testConsumer(Retry(errors.New("db down"))).dispatch(context.Background(), pub, delivery(ack, amqp.Table{retryHeader: int32(3)}))
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	pub.AssertNotCalled(t, "PublishWithContext", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchRequeuesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ack := &fakeAck{}
	c := testConsumer(Retry(errors.New("db down")))
	c.RetryDelay = time.Hour
	c.dispatch(ctx, new(republishMock), delivery(ack, nil))
	assert.True(t, ack.requeued)
}

func TestRetryDelayBackoff(t *testing.T) {
	c := &Consumer{RetryDelay: time.Second}
	assert.Equal(t, time.Second, c.retryDelay(0))
	assert.Equal(t, 4*time.Second, c.retryDelay(2))
	assert.Equal(t, maxRetryDelay, c.retryDelay(30))
	assert.Equal(t, 5, (&Consumer{}).maxRetries())
	assert.Equal(t, 2, retryCount(amqp.Table{retryHeader: int64(2)}))
	assert.Zero(t, retryCount(nil))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Minute))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), BookingCreated, BookingEvent{}))
}

func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	accepted := make(chan net.Conn, 8)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				close(accepted)
				return
			}
			accepted <- c
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		for c := range accepted {
			_ = c.Close()
		}
	})
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestPublisherDialTimeout(t *testing.T) {
	p := NewPublisher(silentListener(t), "events", 200*time.Millisecond)
	defer p.Close()

	began := time.Now()
	err := p.Publish(context.Background(), BookingCreated, BookingEvent{BookingID: "b1"})
	require.Error(t, err)
	assert.Less(t, time.Since(began), 2*time.Second)
}

type blockingSink struct {
	mu   sync.Mutex
	keys []string
	gate chan struct{}
}

func (s *blockingSink) Publish(ctx context.Context, key string, _ any) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return nil
}

func (s *blockingSink) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

func TestAsyncPublisherNeverBlocks(t *testing.T) {
	sink := &blockingSink{gate: make(chan struct{})}
	a := NewAsyncPublisher(sink, 2, time.Second)

	require.NoError(t, a.Publish(context.Background(), BookingCreated, nil))
	require.NoError(t, a.Publish(context.Background(), BookingCancelled, nil))
	assert.ErrorIs(t, a.Publish(context.Background(), BookingCompleted, nil), ErrQueueFull)
}

func TestAsyncPublisherDeliversAndFlushes(t *testing.T) {
	sink := &blockingSink{}
	a := NewAsyncPublisher(sink, 8, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { a.Run(ctx); close(done) }()

	require.NoError(t, a.Publish(context.Background(), BookingCreated, nil))
	assert.Eventually(t, func() bool { return len(sink.got()) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, a.Publish(context.Background(), VenueApproved, nil))
	cancel()
	<-done
	assert.Equal(t, []string{BookingCreated, VenueApproved}, sink.got())
}
