package eventpublisher

import (
	"strings"
	"testing"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDiscardWriter() *kafka.Writer {
	return &kafka.Writer{Addr: kafka.TCP("127.0.0.1:9092"), Topic: "polymarket-events"}
}

func TestSASLMechanism_Plain(t *testing.T) {
	mech, err := saslMechanism("PLAIN", "user", "pass")
	require.NoError(t, err)
	require.Equal(t, "PLAIN", mech.Name())
}

func TestSASLMechanism_DefaultsToPlain(t *testing.T) {
	mech, err := saslMechanism("", "user", "pass")
	require.NoError(t, err)
	require.Equal(t, "PLAIN", mech.Name())
}

func TestSASLMechanism_ScramSHA256(t *testing.T) {
	mech, err := saslMechanism("SCRAM-SHA-256", "user", "pass")
	require.NoError(t, err)
	require.Equal(t, "SCRAM-SHA-256", mech.Name())
}

func TestSASLMechanism_ScramSHA512(t *testing.T) {
	mech, err := saslMechanism("SCRAM-SHA-512", "user", "pass")
	require.NoError(t, err)
	require.Equal(t, "SCRAM-SHA-512", mech.Name())
}

func TestSASLMechanism_UnsupportedReturnsError(t *testing.T) {
	_, err := saslMechanism("GSSAPI", "user", "pass")
	require.Error(t, err)
}

func TestPublish_OversizedEventRejectedBeforeNetworkCall(t *testing.T) {
	p := &Publisher{topic: "polymarket-events", logger: zap.NewNop()}

	hugePct := strings.Repeat("a", maxMessageBytes+1)
	event := types.PolymarketEvent{
		EventID:  "evt-1",
		MarketID: "m1",
		Question: hugePct,
	}

	err := p.Publish(t.Context(), event)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds max message size")
}

func TestFlush_ZeroMessagesIsANoOp(t *testing.T) {
	p := &Publisher{topic: "polymarket-events", logger: zap.NewNop(), writer: newDiscardWriter()}
	err := p.Flush(50 * time.Millisecond)
	require.NoError(t, err)
}
