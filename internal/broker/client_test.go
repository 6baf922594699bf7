package broker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestAdaptPassesTopicAndPayload(t *testing.T) {
	var gotTopic string
	var gotPayload []byte
	h := adapt(func(topic string, payload []byte) error {
		gotTopic, gotPayload = topic, payload
		return nil
	})

	h(nil, fakeMessage{topic: "washroom/hygiene/data", payload: []byte(`{"washroom_id":"wr-1"}`)})
	assert.Equal(t, "washroom/hygiene/data", gotTopic)
	assert.JSONEq(t, `{"washroom_id":"wr-1"}`, string(gotPayload))
}

func TestAdaptSwallowsHandlerErrors(t *testing.T) {
	calls := 0
	h := adapt(func(string, []byte) error {
		calls++
		return errors.New("malformed payload")
	})

	assert.NotPanics(t, func() {
		h(nil, fakeMessage{topic: "t"})
		h(nil, fakeMessage{topic: "t"})
	})
	assert.Equal(t, 2, calls)
}
