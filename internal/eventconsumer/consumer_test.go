package eventconsumer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

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

func TestSASLMechanism_ScramVariants(t *testing.T) {
	mech256, err := saslMechanism("SCRAM-SHA-256", "user", "pass")
	require.NoError(t, err)
	require.Equal(t, "SCRAM-SHA-256", mech256.Name())

	mech512, err := saslMechanism("SCRAM-SHA-512", "user", "pass")
	require.NoError(t, err)
	require.Equal(t, "SCRAM-SHA-512", mech512.Name())
}

func TestSASLMechanism_UnsupportedReturnsError(t *testing.T) {
	_, err := saslMechanism("GSSAPI", "user", "pass")
	require.Error(t, err)
}

func TestDecodeEvent_ValidPayload(t *testing.T) {
	raw := []byte(`{"event_id":"evt-1","market_id":"m1","conviction_direction":"yes","conviction_magnitude":0.2,"conviction_magnitude_pct":0.3}`)

	event, err := decodeEvent(raw)
	require.NoError(t, err)
	require.Equal(t, "evt-1", event.EventID)
	require.Equal(t, "m1", event.MarketID)
	require.Equal(t, "yes", event.ConvictionDirection)
}

func TestDecodeEvent_FiniteMagnitudePct(t *testing.T) {
	raw := []byte(`{"event_id":"evt-2","market_id":"m2","conviction_direction":"yes","conviction_magnitude":0.1,"conviction_magnitude_pct":0.25}`)

	event, err := decodeEvent(raw)
	require.NoError(t, err)
	require.InDelta(t, 0.25, float64(event.ConvictionMagnitudePct), 1e-9)
}

func TestDecodeEvent_MalformedJSONReturnsError(t *testing.T) {
	raw := []byte(`{not valid json`)

	_, err := decodeEvent(raw)
	require.Error(t, err)
}
