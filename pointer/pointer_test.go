package pointer_test

import (
	"testing"

	"deedles.dev/wlbackend/pointer"
	"github.com/stretchr/testify/assert"
)

func TestButton(t *testing.T) {
	assert.Equal(t, pointer.Button(0x110), pointer.ButtonLeft)
	assert.Equal(t, pointer.Button(0x117), pointer.ButtonTask)

	assert.Equal(t, "left", pointer.ButtonLeft.String())
	assert.Equal(t, "middle", pointer.ButtonMiddle.String())
	assert.True(t, pointer.ButtonBack.Known())

	assert.False(t, pointer.Button(0x120).Known())
	assert.Equal(t, "button(0x120)", pointer.Button(0x120).String())
}
