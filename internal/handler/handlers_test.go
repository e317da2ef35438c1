package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ArtemMoroz51/quizbox/internal/storage"
	"github.com/ArtemMoroz51/quizbox/internal/ws"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStorageControl struct {
	mock.Mock
}

func (m *mockStorageControl) State() storage.State {
	args := m.Called()
	s, _ := args.Get(0).(storage.State)
	return s
}

func (m *mockStorageControl) Reconnect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newInfraMux(t *testing.T, ctl StorageControl, token string) (*http.ServeMux, *ws.Hub) {
	t.Helper()

	hub := ws.NewHub(zap.NewNop())
	t.Cleanup(hub.Close)

	mux := http.NewServeMux()
	RegisterHandlers(mux, ctl, hub, Info{Title: "Quiz Box", Version: "1.0"}, token, zap.NewNop())
	return mux, hub
}

func TestHandlers_Info(t *testing.T) {
	mux, _ := newInfraMux(t, new(mockStorageControl), "")

	req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"title":"Quiz Box","version":"1.0"}`, w.Body.String())
}

func TestHandlers_StorageState(t *testing.T) {
	ctl := new(mockStorageControl)
	ctl.On("State").Return(storage.UsingFallback).Once()
	mux, _ := newInfraMux(t, ctl, "")

	req := httptest.NewRequest(http.MethodGet, "/api/storage", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"state":"fallback"}`, w.Body.String())
	ctl.AssertExpectations(t)
}

func TestHandlers_StorageState_MethodNotAllowed(t *testing.T) {
	mux, _ := newInfraMux(t, new(mockStorageControl), "")

	req := httptest.NewRequest(http.MethodPut, "/api/storage", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandlers_Reconnect(t *testing.T) {
	ctl := new(mockStorageControl)
	ctl.On("Reconnect", mock.Anything).Return(nil).Once()
	ctl.On("State").Return(storage.UsingPrimary).Once()
	mux, _ := newInfraMux(t, ctl, "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/storage/reconnect", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"state":"primary"}`, w.Body.String())
	ctl.AssertExpectations(t)
}

func TestHandlers_Reconnect_Failure(t *testing.T) {
	ctl := new(mockStorageControl)
	ctl.On("Reconnect", mock.Anything).Return(errors.New("connection refused")).Once()
	mux, _ := newInfraMux(t, ctl, "")

	req := httptest.NewRequest(http.MethodPost, "/api/storage/reconnect", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp["status"], "connection refused")
	ctl.AssertExpectations(t)
}

func TestHandlers_Reconnect_Unauthorized(t *testing.T) {
	ctl := new(mockStorageControl)
	mux, _ := newInfraMux(t, ctl, "secret")

	for _, header := range []string{"", "Bearer wrong", "secret"} {
		req := httptest.NewRequest(http.MethodPost, "/api/storage/reconnect", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	ctl.AssertNotCalled(t, "Reconnect", mock.Anything)
}

func TestHandlers_WebSocketFeed(t *testing.T) {
	mux, hub := newInfraMux(t, new(mockStorageControl), "")
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg ws.Envelope
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.TypeHello, msg.Type)

	hub.NotifyChanged()
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.TypeDataChanged, msg.Type)
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{errBadJSON, http.StatusBadRequest},
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrNoQuestions, http.StatusNotFound},
		{storage.ErrNotAssociated, http.StatusConflict},
		{storage.ErrImmutable, http.StatusConflict},
		{storage.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		require.Equal(t, c.code, statusCode(c.err), c.err.Error())
	}
}
