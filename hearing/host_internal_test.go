package hearing

import (
	"testing"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/stretchr/testify/assert"
)

func TestHost_CallStatesExpire(t *testing.T) {
	h := &Host{states: expirable.NewLRU[string, CallState](2, nil, 20*time.Millisecond)}

	h.setState("conf-1", "w", InRoom)
	assert.Equal(t, InRoom, h.CallState("conf-1", "w"))

	assert.Eventually(t, func() bool {
		return h.states.Len() == 0
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, NotCallable, h.CallState("conf-1", "w"))
}

func TestHost_CallStatesAreBounded(t *testing.T) {
	h := &Host{states: expirable.NewLRU[string, CallState](2, nil, time.Hour)}

	h.setState("conf-1", "a", Calling)
	h.setState("conf-1", "b", Calling)
	h.setState("conf-2", "c", InRoom)

	assert.Equal(t, 2, h.states.Len())
	assert.Equal(t, NotCallable, h.CallState("conf-1", "a"))
	assert.Equal(t, InRoom, h.CallState("conf-2", "c"))
}
