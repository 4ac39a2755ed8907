package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
)

func TestRollbarLogger(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	l := NewRollbarLogger(zap.New(obs), new(core.Config))

	actor := profile.Profile{ID: "auth0|1", Name: "Owner", Email: "owner@example.com"}
	l.Warn("form field not found", map[string]interface{}{"op": "remove", "field_id": "x"}, actor)
	l.Error("saving form schema", errors.New("boom"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "form field not found", entries[0].Message)
	assert.Equal(t, map[string]interface{}{
		"field_id":   "x",
		"op":         "remove",
		"profile_id": "auth0|1",
	}, entries[0].ContextMap())

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
