package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dilshat/gift-courier/dao"
	"github.com/dilshat/gift-courier/service"
	"github.com/dilshat/gift-courier/service/dto"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const CODE = "A1B2C3D4"

type mockService struct {
	err       error
	lastCode  string
	lastLink  string
	lastKnown int
	lastWait  time.Duration
	commands  []string
}

func (m *mockService) delivery(code string) (dto.Delivery, error) {
	m.lastCode = code
	return dto.Delivery{Code: code}, m.err
}

func (m *mockService) Get(code string) (dto.Delivery, error) {
	return m.delivery(code)
}

func (m *mockService) Open(ctx context.Context, code string) (dto.Order, error) {
	d, err := m.delivery(code)
	return dto.Order{Delivery: d}, err
}

func (m *mockService) TimeUntilDelivery(code string) (dto.Remaining, error) {
	m.lastCode = code
	return dto.Remaining{Remaining: "1 min", Seconds: 60}, m.err
}

func (m *mockService) ForceStart(code string) (dto.Delivery, error) {
	m.commands = append(m.commands, "start")
	return m.delivery(code)
}

func (m *mockService) Pause(code string) (dto.Delivery, error) {
	m.commands = append(m.commands, "pause")
	return m.delivery(code)
}

func (m *mockService) Unpause(code string) (dto.Delivery, error) {
	m.commands = append(m.commands, "unpause")
	return m.delivery(code)
}

func (m *mockService) ClearError(code string) (dto.Delivery, error) {
	m.commands = append(m.commands, "clear")
	return m.delivery(code)
}

func (m *mockService) SetRecipient(ctx context.Context, code, link string) (dto.Delivery, error) {
	m.lastLink = link
	return m.delivery(code)
}

func (m *mockService) CheckForNewStatus(ctx context.Context, code string, known int, wait time.Duration) (dto.StatusChange, error) {
	m.lastCode = code
	m.lastKnown = known
	m.lastWait = wait
	return dto.StatusChange{NewStatus: 2}, m.err
}

func (m *mockService) CheckProfile(ctx context.Context, text string) (dto.Profile, error) {
	m.lastLink = text
	return dto.Profile{URL: text, Public: true}, m.err
}

func (m *mockService) CourierProfile(ctx context.Context) (dto.Profile, error) {
	return dto.Profile{URL: "https://steamcommunity.com/id/courier/", Public: true}, m.err
}

func (m *mockService) Workers() []dto.Worker {
	return []dto.Worker{}
}

func serve(srv service.Service, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	Bind(e, srv)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetDeliveryFunc(t *testing.T) {
	srv := &mockService{}

	rec := serve(srv, http.MethodGet, "/deliveries/"+CODE, "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"A1B2C3D4"`)
	require.Equal(t, CODE, srv.lastCode)
}

func TestRespond_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"invalid", service.NewInvalidPayloadError("Invalid profile link"), http.StatusBadRequest, "Invalid profile link"},
		{"conflict", service.NewConflictError("delivery already started"), http.StatusConflict, "delivery already started"},
		{"not found", dao.ErrNotFound, http.StatusNotFound, "Delivery not found " + CODE},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, malfunction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&mockService{err: tt.err}, http.MethodPost, "/deliveries/"+CODE+"/pause", "")

			require.Equal(t, tt.code, rec.Code)
			require.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestGetCommandFunc(t *testing.T) {
	srv := &mockService{}

	for _, cmd := range []string{"start", "pause", "unpause", "clear"} {
		rec := serve(srv, http.MethodPost, "/deliveries/"+CODE+"/"+cmd, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.Equal(t, []string{"start", "pause", "unpause", "clear"}, srv.commands)
}

func TestGetSetRecipientFunc(t *testing.T) {
	srv := &mockService{}

	rec := serve(srv, http.MethodPut, "/deliveries/"+CODE+"/recipient", `{"link":"https://steamcommunity.com/id/buyer/"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://steamcommunity.com/id/buyer/", srv.lastLink)
}

func TestGetCheckStatusFunc(t *testing.T) {
	srv := &mockService{}

	rec := serve(srv, http.MethodGet, "/deliveries/"+CODE+"/status?known=1&wait=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"newStatus":2}`, rec.Body.String())
	require.Equal(t, 1, srv.lastKnown)
	require.Equal(t, 5*time.Second, srv.lastWait)

	rec = serve(srv, http.MethodGet, "/deliveries/"+CODE+"/status?known=x", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(srv, http.MethodGet, "/deliveries/"+CODE+"/status?known=1&wait=-3", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRemainingFunc(t *testing.T) {
	rec := serve(&mockService{}, http.MethodGet, "/deliveries/"+CODE+"/remaining", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"remaining":"1 min","seconds":60}`, rec.Body.String())
}

func TestProfileRoutes(t *testing.T) {
	srv := &mockService{}

	rec := serve(srv, http.MethodPost, "/profiles/check", `{"link":"see https://steamcommunity.com/id/buyer/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "see https://steamcommunity.com/id/buyer/", srv.lastLink)

	rec = serve(srv, http.MethodGet, "/courier", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "courier")

	rec = serve(srv, http.MethodGet, "/workers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetOpenOrderFunc(t *testing.T) {
	rec := serve(&mockService{err: service.NewInvalidPayloadError("Unknown order code X")}, http.MethodPost, "/deliveries/X/open", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Unknown order code X", rec.Body.String())
}
