package runconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultsOnBlank(t *testing.T) {
	p := Payload{"FOO": ""}
	assert.Equal(t, "fallback", p.Get("FOO", "fallback"))
	assert.Equal(t, "fallback", p.Get("MISSING", "fallback"))

	p["FOO"] = "bar"
	assert.Equal(t, "bar", p.Get("FOO", "fallback"))
}

func TestRequireMissing(t *testing.T) {
	p := Payload{}
	_, err := p.Require("secretRef")
	require.Error(t, err)
}

func TestRequirePresent(t *testing.T) {
	p := Payload{"secretRef": "arn:aws:secretsmanager:..."}
	v, err := p.Require("secretRef")
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:secretsmanager:...", v)
}

func TestGetBool(t *testing.T) {
	p := Payload{"flag": "true", "bad": "nope"}
	assert.True(t, p.GetBool("flag", false))
	assert.False(t, p.GetBool("bad", false))
	assert.True(t, p.GetBool("missing", true))
}

func TestGetInt(t *testing.T) {
	p := Payload{"count": "7", "bad": "x"}
	assert.Equal(t, 7, p.GetInt("count", 0))
	assert.Equal(t, 0, p.GetInt("bad", 0))
	assert.Equal(t, 42, p.GetInt("missing", 42))
}

func TestWithPrefix(t *testing.T) {
	p := Payload{"initialSeverity": "INFO", "initialWindow": "5m", "other": "x"}
	sub := p.WithPrefix("initial")
	assert.Len(t, sub, 2)
	assert.Equal(t, "INFO", sub["initialSeverity"])
	_, ok := sub["other"]
	assert.False(t, ok)
}
