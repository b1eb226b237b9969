package eventhistory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserveNewRecordNotChanged(t *testing.T) {
	h := History{}
	h, changed := h.Observe("id-1", map[string]string{"severity": "WARNING"})
	assert.False(t, changed)
	assert.True(t, h.Exists("id-1"))
	assert.Equal(t, Resilience, h["id-1"].Refresh)
}

func TestAgeOneDecrementsUnobserved(t *testing.T) {
	h := History{"id-1": {Refresh: Resilience, Payload: map[string]string{"x": "1"}}}
	h = h.AgeOne(map[string]struct{}{})
	assert.Equal(t, Resilience-1, h["id-1"].Refresh)
}

func TestAgeOneSkipsObserved(t *testing.T) {
	h := History{"id-1": {Refresh: Resilience, Payload: nil}}
	h = h.AgeOne(map[string]struct{}{"id-1": {}})
	assert.Equal(t, Resilience, h["id-1"].Refresh)
}

func TestAgeOneDeletesAtZero(t *testing.T) {
	h := History{"id-1": {Refresh: 1, Payload: nil}}
	h = h.AgeOne(map[string]struct{}{})
	assert.False(t, h.Exists("id-1"))
}

func TestRecordSurvivesResilienceMinusOneMisses(t *testing.T) {
	h := History{}
	h, _ = h.Observe("id-1", map[string]string{"x": "1"})
	for i := 0; i < Resilience-1; i++ {
		h = h.AgeOne(map[string]struct{}{})
		assert.True(t, h.Exists("id-1"), "should still exist after %d misses", i+1)
	}
	h = h.AgeOne(map[string]struct{}{})
	assert.False(t, h.Exists("id-1"))
}

func TestObservePayloadChangeDetection(t *testing.T) {
	h := History{}
	h, _ = h.Observe("id-1", map[string]string{"severity": "WARNING"})
	h = h.AgeOne(map[string]struct{}{})
	h = h.AgeOne(map[string]struct{}{})
	h, changed := h.Observe("id-1", map[string]string{"severity": "CRITICAL"})
	assert.True(t, changed)
}

func TestObserveSamePayloadNotChanged(t *testing.T) {
	h := History{}
	h, _ = h.Observe("id-1", map[string]string{"severity": "WARNING"})
	h = h.AgeOne(map[string]struct{}{})
	h, changed := h.Observe("id-1", map[string]string{"severity": "WARNING"})
	assert.False(t, changed)
}
