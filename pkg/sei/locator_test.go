package sei

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformSemanticPathFirst(t *testing.T) {
	root := &stubRoot{
		semantic: &stubNode{name: "semantic"},
		fallback: &stubNode{name: "fallback"},
	}
	c := newStubClient(root)

	var touched []string
	err := c.perform(Locator{
		Role: playwright.AriaRoleButton, Name: "Salvar",
		Fallback: "#btnSalvar",
	}, "click", func(el playwright.Locator) error {
		touched = append(touched, el.(*stubNode).name)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"semantic"}, touched, "fallback must not be consulted when the semantic path works")
}

func TestPerformFallsBackOnSemanticFailure(t *testing.T) {
	root := &stubRoot{
		semantic: &stubNode{name: "semantic"},
		fallback: &stubNode{name: "fallback"},
	}
	c := newStubClient(root)

	var touched []string
	err := c.perform(Locator{
		Role: playwright.AriaRoleButton, Name: "Salvar",
		Fallback: "#btnSalvar",
	}, "click", func(el playwright.Locator) error {
		node := el.(*stubNode)
		touched = append(touched, node.name)
		if node.name == "semantic" {
			return fmt.Errorf("strict mode violation")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"semantic", "fallback"}, touched)
}

func TestPerformReportsBothPaths(t *testing.T) {
	root := &stubRoot{
		semantic: &stubNode{name: "semantic"},
		fallback: &stubNode{name: "fallback"},
	}
	c := newStubClient(root)

	underlying := fmt.Errorf("element detached")
	err := c.perform(Locator{
		Role: playwright.AriaRoleLink, Name: "Enviar Processo",
		Fallback: "img[alt='Enviar Processo']",
	}, "click", func(el playwright.Locator) error {
		return underlying
	})

	var notFound *ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "link", notFound.Role)
	assert.Equal(t, "Enviar Processo", notFound.Name)
	assert.Equal(t, "img[alt='Enviar Processo']", notFound.Fallback)
	assert.ErrorIs(t, err, underlying)

	// The message must name what was looked for, for log forensics.
	assert.Contains(t, err.Error(), "Enviar Processo")
	assert.Contains(t, err.Error(), "img[alt='Enviar Processo']")
}

func TestPerformFallbackOnlyLocator(t *testing.T) {
	root := &stubRoot{
		semantic: &stubNode{name: "semantic"},
		fallback: &stubNode{name: "fallback"},
	}
	c := newStubClient(root)

	var touched []string
	err := c.perform(Locator{Fallback: "#pwdSenha"}, "fill", func(el playwright.Locator) error {
		touched = append(touched, el.(*stubNode).name)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, touched, "a locator without a role must go straight to the selector")
}

func TestPerformEmptyLocator(t *testing.T) {
	c := newStubClient(&stubRoot{})

	err := c.perform(Locator{}, "click", func(playwright.Locator) error { return nil })

	var notFound *ElementNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestPerformWithoutSession(t *testing.T) {
	c := &Client{log: discardLogger()}

	err := c.perform(Locator{Fallback: "#x"}, "click", func(playwright.Locator) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotInitialized)
}

func TestExistsNeverErrors(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		root := &stubRoot{
			semantic: &stubNode{name: "semantic"},
			fallback: &stubNode{name: "fallback"},
		}
		c := newStubClient(root)
		assert.True(t, c.exists(Locator{Role: playwright.AriaRoleLink, Name: "Sair"}))
	})

	t.Run("absent", func(t *testing.T) {
		root := &stubRoot{
			semantic: &stubNode{name: "semantic", waitErr: errors.New("timeout 1500ms exceeded")},
			fallback: &stubNode{name: "fallback", waitErr: errors.New("timeout 1500ms exceeded")},
		}
		c := newStubClient(root)
		assert.False(t, c.exists(Locator{Role: playwright.AriaRoleLink, Name: "Sair", Fallback: "#lnk"}))
	})

	t.Run("no session", func(t *testing.T) {
		c := &Client{log: discardLogger()}
		assert.False(t, c.exists(Locator{Fallback: "#x"}))
	})
}

func TestWaitVisibleTimeoutIsTyped(t *testing.T) {
	root := &stubRoot{
		semantic: &stubNode{name: "semantic", waitErr: errors.New("timeout 500ms exceeded")},
		fallback: &stubNode{name: "fallback", waitErr: errors.New("timeout 500ms exceeded")},
	}
	c := newStubClient(root)

	err := c.waitVisible(Locator{
		Role: playwright.AriaRoleLink, Name: "Sair", Fallback: "#lnk",
	}, 500*time.Millisecond)

	var timeout *ActionTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 500*time.Millisecond, timeout.Timeout)
}

func TestOptionalFieldOutcomes(t *testing.T) {
	t.Run("absent when value empty", func(t *testing.T) {
		c := newStubClient(&stubRoot{})
		out := c.fillOptional("note", Locator{Fallback: "#txtObservacao"}, "")
		assert.True(t, out.Absent)
		assert.False(t, out.Applied)
		assert.NoError(t, out.Err)
	})

	t.Run("absent when field missing", func(t *testing.T) {
		root := &stubRoot{
			semantic: &stubNode{name: "semantic", waitErr: errors.New("timeout")},
			fallback: &stubNode{name: "fallback", waitErr: errors.New("timeout")},
		}
		c := newStubClient(root)
		out := c.selectOptional("org", Locator{Fallback: "#selOrgao"}, "SEFAZ")
		assert.True(t, out.Absent)
		assert.NoError(t, out.Err)
	})
}

func TestDescribeLocator(t *testing.T) {
	assert.Equal(t, `button "Salvar"`, describeLocator(Locator{Role: playwright.AriaRoleButton, Name: "Salvar"}))
	assert.Equal(t, "button", describeLocator(Locator{Role: playwright.AriaRoleButton}))
	assert.Equal(t, "#pwdSenha", describeLocator(Locator{Fallback: "#pwdSenha"}))
}
