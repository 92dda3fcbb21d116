package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHubDeliversToOwnerOnly(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	ana, stopAna := hub.Subscribe("ana")
	defer stopAna()
	bruno, stopBruno := hub.Subscribe("bruno")
	defer stopBruno()

	hub.Publish(ctx, Change{OwnerID: "ana", Entity: EntityLead, EntityID: 7, Op: OpUpdated})

	select {
	case change := <-ana:
		assert.Equal(t, int64(7), change.EntityID)
		assert.Equal(t, "lead.updated", change.RoutingKey())
	case <-time.After(time.Second):
		t.Fatal("expected a change for ana")
	}

	select {
	case change := <-bruno:
		t.Fatalf("bruno received %v", change)
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe("ana")
	assert.Equal(t, 1, hub.subscribers("ana"))

	unsubscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.subscribers("ana"))

	assert.NotPanics(t, func() {
		hub.Publish(context.Background(), Change{OwnerID: "ana", Entity: EntityLead, Op: OpDeleted})
	})
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	hub := NewHub()

	ch, unsubscribe := hub.Subscribe("ana")
	hub.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.subscribers("ana"))

	// Unsubscribing after Close is a no-op
	unsubscribe()

	late, stop := hub.Subscribe("ana")
	defer stop()
	_, open = <-late
	assert.False(t, open)
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	_, unsubscribe := hub.Subscribe("ana")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*4; i++ {
			hub.Publish(context.Background(), Change{OwnerID: "ana", Entity: EntityTask, EntityID: int64(i), Op: OpCreated})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestHubConcurrentSubscribers(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, unsubscribe := hub.Subscribe("ana")
			hub.Publish(context.Background(), Change{OwnerID: "ana", Entity: EntityLead, Op: OpCreated})
			unsubscribe()
			for range ch {
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.subscribers("ana"))
}

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) Publish(_ context.Context, change Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func TestFanout(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	change := Change{OwnerID: "ana", Entity: EntityProposal, EntityID: 3, Op: OpCreated}

	Fanout{a, Discard{}, b}.Publish(context.Background(), change)

	assert.Equal(t, []Change{change}, a.changes)
	assert.Equal(t, []Change{change}, b.changes)
}

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestAMQPPublisher(t *testing.T) {
	ch := new(mockChannel)
	publisher := &AMQPPublisher{ch: ch}
	at := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	change := Change{OwnerID: "ana", Entity: EntityLead, EntityID: 42, Op: OpCreated, At: at}

	ch.On("PublishWithContext", mock.Anything, ExchangeName, "lead.created", false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
		var got Change
		err := json.Unmarshal(msg.Body, &got)
		return err == nil &&
			got.EntityID == 42 &&
			msg.ContentType == "application/json" &&
			msg.DeliveryMode == amqp.Persistent
	})).Return(nil).Once()

	publisher.Publish(context.Background(), change)

	ch.AssertExpectations(t)
}

func TestAMQPPublisherSwallowsBrokerErrors(t *testing.T) {
	ch := new(mockChannel)
	publisher := &AMQPPublisher{ch: ch}

	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, false, false, mock.Anything).Return(errors.New("channel closed"))
	ch.On("Close").Return(nil)

	assert.NotPanics(t, func() {
		publisher.Publish(context.Background(), Change{OwnerID: "ana", Entity: EntityLead, Op: OpDeleted})
	})
	require.NoError(t, publisher.Close())
}

type fakeConnection struct {
	closed bool
}

func (c *fakeConnection) IsClosed() bool { return c.closed }

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisherRedialsAfterFailure(t *testing.T) {
	broken := new(mockChannel)
	broken.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, false, false, mock.Anything).Return(amqp.ErrClosed).Once()
	broken.On("Close").Return(nil).Once()

	fresh := new(mockChannel)
	fresh.On("PublishWithContext", mock.Anything, ExchangeName, "lead.updated", false, false, mock.Anything).Return(nil).Once()

	dials := 0
	publisher := &AMQPPublisher{
		ch: broken,
		dial: func() (amqpConnection, amqpChannel, error) {
			dials++
			return &fakeConnection{}, fresh, nil
		},
	}

	change := Change{OwnerID: "ana", Entity: EntityLead, EntityID: 1, Op: OpUpdated}
	publisher.Publish(context.Background(), change)
	publisher.Publish(context.Background(), change)

	assert.Equal(t, 1, dials)
	broken.AssertExpectations(t)
	fresh.AssertExpectations(t)
}

func TestAMQPPublisherRedialsClosedConnection(t *testing.T) {
	stale := new(mockChannel)
	stale.On("Close").Return(nil).Once()

	fresh := new(mockChannel)
	fresh.On("PublishWithContext", mock.Anything, ExchangeName, "lead.created", false, false, mock.Anything).Return(nil).Once()

	publisher := &AMQPPublisher{
		conn: &fakeConnection{closed: true},
		ch:   stale,
		dial: func() (amqpConnection, amqpChannel, error) {
			return &fakeConnection{}, fresh, nil
		},
	}

	publisher.Publish(context.Background(), Change{OwnerID: "ana", Entity: EntityLead, Op: OpCreated})

	stale.AssertExpectations(t)
	fresh.AssertExpectations(t)
	stale.AssertNotCalled(t, "PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAMQPPublisherWaitsBetweenRedials(t *testing.T) {
	dials := 0
	publisher := &AMQPPublisher{
		dial: func() (amqpConnection, amqpChannel, error) {
			dials++
			return nil, nil, errors.New("connection refused")
		},
	}

	for range 3 {
		publisher.Publish(context.Background(), Change{OwnerID: "ana", Entity: EntityLead, Op: OpCreated})
	}

	assert.Equal(t, 1, dials)
	assert.False(t, publisher.retryAt.IsZero())
	require.NoError(t, publisher.Close())
}
