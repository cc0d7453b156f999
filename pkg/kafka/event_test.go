package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_RoundTrip(t *testing.T) {
	type payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	evt, err := NewEvent("shop.product.created", "p1", "product", "catalog-service", payload{ID: "p1", Name: "Tai nghe"})
	require.NoError(t, err)
	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, 1, evt.Version)

	raw, err := evt.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, evt.EventID, decoded.EventID)
	assert.Equal(t, "shop.product.created", decoded.EventType)
	assert.Equal(t, "p1", decoded.AggregateID)

	var data payload
	require.NoError(t, decoded.UnmarshalData(&data))
	assert.Equal(t, "Tai nghe", data.Name)
}

func TestUnmarshalEvent_Malformed(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"event_id":`))
	assert.Error(t, err)
}
