package mq

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestPubSub(t *testing.T) (*PubSubClient, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(context.Background(), "staffportal-test", option.WithGRPCConn(conn))
	require.NoError(t, err)

	p := newPubSubClient(client, "-sub")
	t.Cleanup(func() { _ = p.Close() })
	return p, srv
}

func TestPubSubPublishReusesTopic(t *testing.T) {
	p, srv := newTestPubSub(t)
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		id, err := p.Publish(ctx, "mail.outbound", []byte(body), map[string]string{AttrContentType: "application/json"})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	}

	p.mu.Lock()
	assert.Len(t, p.topics, 1)
	p.mu.Unlock()

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", string(msgs[0].Data))
	assert.Equal(t, "application/json", msgs[0].Attributes[AttrContentType])
}

func TestPubSubUsesExistingTopic(t *testing.T) {
	p, _ := newTestPubSub(t)
	ctx := context.Background()

	_, err := p.client.CreateTopic(ctx, "mail.outbound")
	require.NoError(t, err)

	_, err = p.Publish(ctx, "mail.outbound", []byte("hello"), nil)
	require.NoError(t, err)
}

func TestPubSubRejectsEmptyChannel(t *testing.T) {
	p, _ := newTestPubSub(t)
	_, err := p.Publish(context.Background(), " ", []byte("x"), nil)
	assert.Error(t, err)
}

func TestPubSubSubscribeDelivers(t *testing.T) {
	p, _ := newTestPubSub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Create the subscription before publishing so the message is retained.
	topic, err := p.topic(ctx, "mail.outbound")
	require.NoError(t, err)
	_, err = p.subscription(ctx, p.subscriptionName("mail.outbound"), topic)
	require.NoError(t, err)

	_, err = p.Publish(ctx, "mail.outbound", []byte("hello"), nil)
	require.NoError(t, err)

	got := make(chan string, 1)
	err = p.Subscribe(ctx, "mail.outbound", func(_ context.Context, m Message) error {
		select {
		case got <- string(m.Data):
		default:
		}
		cancel()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", <-got)
}
