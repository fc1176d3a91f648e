package cnst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppConstants(t *testing.T) {
	assert.Equal(t, "cryptogrammer", AppName)
	assert.Equal(t, "cryptogrammer", CommandName)
	assert.Equal(t, "cryptogrammer.yaml", ServerYaml)
}

func TestErrorConstants(t *testing.T) {
	t.Run("messages", func(t *testing.T) {
		assert.Equal(t, "session not found", ErrSessionNotFound.Error())
		assert.Equal(t, "session id space exhausted", ErrIDSpaceExhausted.Error())
		assert.Equal(t, "malformed payload", ErrMalformedPayload.Error())
	})

	t.Run("errors are distinct", func(t *testing.T) {
		errs := []error{ErrSessionNotFound, ErrIDSpaceExhausted, ErrMalformedPayload, ErrUnknownEvent, ErrConnectionNotFound, ErrQueueFull, ErrHubClosed}
		for i := range errs {
			for j := range errs {
				if i != j {
					assert.NotEqual(t, errs[i], errs[j])
				}
			}
		}
	})
}

func TestWireNames(t *testing.T) {
	assert.Equal(t, "sessionNotFound", ErrorCodeSessionNotFound)
	assert.Equal(t, "joinSession", EventJoinSession)
	assert.Equal(t, "sessionDeleted", EventSessionDeleted)
	assert.Equal(t, "deleted", ActionDeleted.String())
}
