package groutine

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGo(t *testing.T) {
	var name, label string
	done := Go(nil, "watch-test", func(ctx context.Context) {
		name = GetName(ctx)
		label, _ = pprof.Label(ctx, "goroutine_name")
	})
	<-done

	assert.Equal(t, "watch-test", name)
	assert.Equal(t, "watch-test", label)
}

func TestGetName_Empty(t *testing.T) {
	assert.Equal(t, "", GetName(context.Background()))
	assert.Equal(t, "", GetName(nil)) //nolint:staticcheck
}
