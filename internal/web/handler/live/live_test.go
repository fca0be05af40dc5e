package live

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logmonitor/logmonitor/internal/web/handler"
	"github.com/logmonitor/logmonitor/internal/web/handler/handlertest"
)

func TestPlainRequestNeedsUpgrade(t *testing.T) {
	f := handlertest.New(t)
	app := f.App()
	require.NoError(t, (&Service{}).Init(app, f.Deps))

	status, _ := handlertest.Do(t, app, httptest.NewRequest(http.MethodGet, Path, nil))
	assert.Equal(t, http.StatusUpgradeRequired, status)
	assert.Zero(t, f.Deps.Hub.Len())
}

func TestInitRequiresHub(t *testing.T) {
	f := handlertest.New(t)
	require.ErrorIs(t, (&Service{}).Init(f.App(), &handler.Deps{}), handler.ErrNilDeps)
}
