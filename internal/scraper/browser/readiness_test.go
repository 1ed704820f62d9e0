package browser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/FilipeCampos25/dashboardSei/internal/scraper/browser"
	"github.com/FilipeCampos25/dashboardSei/internal/scraper/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWaitReady_CompleteDocument(t *testing.T) {
	d := testutil.NewFakeDriver(&testutil.FakePage{})
	require.NoError(t, browser.WaitReady(d, time.Second))
}

func TestWaitReady_TimesOutWhileLoading(t *testing.T) {
	d := testutil.NewFakeDriver(&testutil.FakePage{Loading: true})

	err := browser.WaitReady(d, 150*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrReadyTimeout))
}

func TestDetectGatewayError(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		url    string
		source string
		want   bool
	}{
		{"timeout in title", "504 Gateway Time-out", "http://sei/", "", true},
		{"bad gateway in body", "SEI", "http://sei/", "<html><body><h1>502 Bad Gateway</h1></body></html>", true},
		{"proxy error in body", "SEI", "http://sei/", "<html><body>Proxy Error: the request could not be handled</body></html>", true},
		{"signature only in attribute", "SEI", "http://sei/", `<html><body><div data-msg="bad gateway">tudo certo</div></body></html>`, false},
		{"healthy page", "SEI - Blocos Internos", "http://sei/controlador.php", "<html><body>Bem-vindo</body></html>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, browser.DetectGatewayError(tt.title, tt.url, tt.source))
		})
	}
}

func TestConfirmLogin_ImmediateSuccess(t *testing.T) {
	page := &testutil.FakePage{PageTitle: "SEI"}
	page.Set(`//a[@id='menu-bloco']`, &testutil.FakeElement{})
	d := testutil.NewFakeDriver(page)

	err := browser.ConfirmLogin(d, `//a[@id='menu-bloco']`, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
}

func TestConfirmLogin_RefreshesThroughGatewayErrors(t *testing.T) {
	good := &testutil.FakePage{PageTitle: "SEI"}
	good.Set(`//a[@id='menu-bloco']`, &testutil.FakeElement{})

	gateway := &testutil.FakePage{
		PageTitle: "504 Gateway Time-out",
		Source:    "<html><body><h1>504 Gateway Time-out</h1></body></html>",
	}

	d := testutil.NewFakeDriver(gateway)
	reloads := 0
	d.ReloadFn = func() *testutil.FakePage {
		reloads++
		if reloads >= 2 {
			return good
		}
		return gateway
	}

	err := browser.ConfirmLogin(d, `//a[@id='menu-bloco']`, 10*time.Second, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, reloads)
}

func TestConfirmLogin_BudgetExhausted(t *testing.T) {
	// Never shows the home menu, never looks like a gateway page.
	d := testutil.NewFakeDriver(&testutil.FakePage{PageTitle: "login"})

	err := browser.ConfirmLogin(d, `//a[@id='menu-bloco']`, time.Second, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrManualLoginNotConfirmed))
	assert.False(t, errors.Is(err, browser.ErrGatewayDetected))
}

func TestConfirmLogin_PersistentGatewayEscalates(t *testing.T) {
	gateway := &testutil.FakePage{
		PageTitle: "504 Gateway Time-out",
		Source:    "<html><body><h1>504 Gateway Time-out</h1></body></html>",
	}
	d := testutil.NewFakeDriver(gateway)
	d.ReloadFn = func() *testutil.FakePage { return gateway }

	err := browser.ConfirmLogin(d, `//a[@id='menu-bloco']`, time.Second, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrManualLoginNotConfirmed))
	assert.True(t, errors.Is(err, browser.ErrGatewayDetected))
}
