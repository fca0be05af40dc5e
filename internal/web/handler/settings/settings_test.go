package settings

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logmonitor/logmonitor/internal/db/controller/appsettings"
	"github.com/logmonitor/logmonitor/internal/secret"
	"github.com/logmonitor/logmonitor/internal/web/handler/handlertest"
)

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestPost(t *testing.T) {
	f := handlertest.New(t)
	app := f.App()
	require.NoError(t, (&Service{}).Init(app, f.Deps))

	status, body := handlertest.Do(t, app, postJSON(`{
		"retention_days": "14",
		"smtp_enabled": "true",
		"smtp_host": "smtp.example.com",
		"smtp_port": "465",
		"smtp_user": "bot@example.com",
		"smtp_password": "hunter2",
		"smtp_from": "alerts@example.com",
		"smtp_tls": false
	}`))
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"success":true}`, body)

	days, err := f.Deps.Settings.RetentionDays()
	require.NoError(t, err)
	assert.Equal(t, 14, days)

	stored, err := f.Deps.Settings.Mail()
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.Equal(t, 465, stored.Port)
	assert.False(t, stored.UseTLS)
	assert.True(t, secret.IsSealed(stored.Password))

	transport, err := f.Deps.Settings.Transport()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", transport.Password)
}

func TestPostPasswordResubmission(t *testing.T) {
	f := handlertest.New(t)
	app := f.App()
	require.NoError(t, (&Service{}).Init(app, f.Deps))

	status, _ := handlertest.Do(t, app, postJSON(`{"smtp_host":"smtp.example.com","smtp_user":"bot","smtp_password":"hunter2"}`))
	require.Equal(t, http.StatusOK, status)

	first, err := f.Deps.Settings.Mail()
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"smtp_host": "smtp.example.com", "smtp_user": "bot", "smtp_password": first.Password,
	})
	require.NoError(t, err)

	status, _ = handlertest.Do(t, app, postJSON(string(raw)))
	require.Equal(t, http.StatusOK, status)

	second, err := f.Deps.Settings.Mail()
	require.NoError(t, err)
	assert.Equal(t, first.Password, second.Password, "sealed password must pass through unchanged")

	status, _ = handlertest.Do(t, app, postJSON(`{"smtp_host":"smtp.example.com","smtp_user":"bot"}`))
	require.Equal(t, http.StatusOK, status)

	third, err := f.Deps.Settings.Mail()
	require.NoError(t, err)
	assert.Equal(t, first.Password, third.Password, "omitted password keeps the stored one")
	assert.Equal(t, appsettings.DefaultMailPort, third.Port)
	assert.True(t, third.UseTLS)
}

func TestPostRejected(t *testing.T) {
	f := handlertest.New(t)
	app := f.App()
	require.NoError(t, (&Service{}).Init(app, f.Deps))

	testCases := []struct {
		name         string
		body         string
		expectedBody string
	}{
		{name: "negative retention", body: `{"retention_days": -1}`, expectedBody: `{"error":"Retention days must be zero or positive"}`},
		{name: "bad port", body: `{"smtp_port": "abc"}`, expectedBody: `{"error":"Invalid request"}`},
		{name: "port out of range", body: `{"smtp_port": 70000}`, expectedBody: `{"error":"Invalid mail settings"}`},
		{name: "not json", body: `retention_days=3`, expectedBody: `{"error":"Invalid request"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := handlertest.Do(t, app, postJSON(tc.body))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.JSONEq(t, tc.expectedBody, body)
		})
	}

	days, err := f.Deps.Settings.RetentionDays()
	require.NoError(t, err)
	assert.Equal(t, appsettings.DefaultRetentionDays, days)
}

func TestGet(t *testing.T) {
	f := handlertest.New(t)
	require.NoError(t, f.Deps.Settings.SaveMail(appsettings.Mail{
		Host: "smtp.example.com", Port: 587, User: "bot", Password: "hunter2", UseTLS: true,
	}))

	app := f.App()
	require.NoError(t, (&Service{}).Init(app, f.Deps))

	status, _ := handlertest.Do(t, app, httptest.NewRequest(http.MethodGet, Path, nil))
	require.Equal(t, http.StatusOK, status)

	name, binding := f.Views.Last()
	assert.Equal(t, TemplateName, name)

	mail, ok := binding["Mail"].(appsettings.Mail)
	require.True(t, ok)
	assert.Equal(t, "hunter2", mail.Password)

	retention, ok := binding["Retention"].(appsettings.Retention)
	require.True(t, ok)
	assert.Equal(t, appsettings.DefaultRetentionDays, retention.Days)
}

func TestRequestScalars(t *testing.T) {
	testCases := []struct {
		name    string
		req     Request
		wantErr bool
		days    int
		mail    appsettings.Mail
	}{
		{
			name: "json scalars",
			req:  Request{RetentionDays: float64(3), SMTPPort: float64(465), SMTPEnabled: true, SMTPTLS: false},
			days: 3,
			mail: appsettings.Mail{Port: 465, Enabled: true},
		},
		{
			name: "strings and checkbox values",
			req:  Request{RetentionDays: " 14 ", SMTPPort: "2525", SMTPEnabled: "on", SMTPTLS: "false", SMTPAllowInsecure: "1"},
			days: 14,
			mail: appsettings.Mail{Port: 2525, Enabled: true, AllowInsecure: true},
		},
		{
			name: "blank values keep defaults",
			req:  Request{RetentionDays: "", SMTPPort: "", SMTPTLS: nil},
			days: appsettings.DefaultRetentionDays,
			mail: appsettings.Mail{UseTLS: true},
		},
		{name: "bad number", req: Request{SMTPPort: "abc"}, wantErr: true},
		{name: "bad bool", req: Request{SMTPEnabled: "maybe"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			retention := appsettings.Retention{Days: appsettings.DefaultRetentionDays}
			mail := appsettings.Mail{UseTLS: true}

			err := tc.req.scalars(&retention, &mail)
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.days, retention.Days)
			assert.Equal(t, tc.mail, mail)
		})
	}
}

func TestPostCheckboxStrings(t *testing.T) {
	f := handlertest.New(t)
	app := f.App()
	require.NoError(t, (&Service{}).Init(app, f.Deps))

	status, body := handlertest.Do(t, app, postJSON(`{"retention_days":"0","smtp_enabled":"on","smtp_host":"mail.example.com","smtp_port":"","smtp_tls":"off","smtp_allow_insecure":"on"}`))
	require.Equal(t, http.StatusOK, status, body)

	days, err := f.Deps.Settings.RetentionDays()
	require.NoError(t, err)
	assert.Equal(t, 0, days)

	stored, err := f.Deps.Settings.Mail()
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.Equal(t, appsettings.DefaultMailPort, stored.Port)
	assert.False(t, stored.UseTLS)
	assert.True(t, stored.AllowInsecure)
}
