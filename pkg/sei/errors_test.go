package sei

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
)

func TestElementNotFoundErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *ElementNotFoundError
		expected string
	}{
		{
			name:     "role and name",
			err:      &ElementNotFoundError{Role: "button", Name: "Salvar"},
			expected: `sei: element not found (role=button, name="Salvar")`,
		},
		{
			name:     "role only",
			err:      &ElementNotFoundError{Role: "link"},
			expected: "sei: element not found (role=link)",
		},
		{
			name:     "with failed fallback",
			err:      &ElementNotFoundError{Role: "button", Name: "Salvar", Fallback: "#btnSalvar"},
			expected: `sei: element not found (role=button, name="Salvar"), fallback "#btnSalvar" also failed`,
		},
		{
			name:     "bare",
			err:      &ElementNotFoundError{},
			expected: "sei: element not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cause := fmt.Errorf("engine said no")

	notFound := &ElementNotFoundError{Name: "Salvar", Err: cause}
	assert.ErrorIs(t, notFound, cause)

	timeout := &ActionTimeoutError{Op: "wait", Timeout: time.Second, Err: cause}
	assert.ErrorIs(t, timeout, cause)
	assert.Contains(t, timeout.Error(), "timed out after 1s")
}

func TestRemoteOperationFailedErrorMessage(t *testing.T) {
	withMsg := &RemoteOperationFailedError{Op: "forward process", Message: "Unidade inválida."}
	assert.Equal(t, "sei: portal rejected forward process: Unidade inválida.", withMsg.Error())

	bare := &RemoteOperationFailedError{Op: "forward process"}
	assert.Equal(t, "sei: portal rejected forward process", bare.Error())
}

func TestIsTimeout(t *testing.T) {
	assert.False(t, isTimeout(nil))
	assert.False(t, isTimeout(errors.New("element detached")))
	assert.True(t, isTimeout(playwright.ErrTimeout))
	assert.True(t, isTimeout(fmt.Errorf("wrapped: %w", playwright.ErrTimeout)))
	assert.True(t, isTimeout(errors.New("Timeout 30000ms exceeded")))
	assert.True(t, isTimeout(&ElementNotFoundError{Err: errors.New("timeout 500ms exceeded")}))
}
