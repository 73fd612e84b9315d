package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	cause := errors.New("quota exceeded")

	err := GenerationError("interpreter", "model call failed", cause)
	assert.Equal(t, "[GenerationError(interpreter)] model call failed: quota exceeded", err.Error())

	plain := RenderError("renderer exited", nil)
	assert.Equal(t, "[RenderError] renderer exited", plain.Error())
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("process paper_x failed: %w", UploadError("put object", errors.New("503")))

	assert.Equal(t, KindUpload, KindOf(err))
	assert.True(t, IsKind(err, KindUpload))
	assert.False(t, IsKind(err, KindFetch))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestIsKindFindsNestedKind(t *testing.T) {
	inner := GenerationError("formatter", "model call failed", errors.New("timeout"))
	outer := NewError(KindRender, "", "wrapped", inner)

	assert.Equal(t, KindRender, KindOf(outer))
	assert.True(t, IsKind(outer, KindGeneration))
	assert.True(t, errors.Is(outer, inner))
}
