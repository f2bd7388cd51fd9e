package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sonnes/lekhak/blob/local"
	"github.com/sonnes/lekhak/core"
	"github.com/sonnes/lekhak/history"
	"github.com/sonnes/lekhak/layout"
	"github.com/sonnes/lekhak/provider"
	"github.com/sonnes/lekhak/render/pdf"
	"github.com/sonnes/lekhak/service"
	"github.com/sonnes/lekhak/store"
	"github.com/sonnes/lekhak/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(io.Discard)

	c, err := layout.NewComposer(layout.Default(), nil, logger)
	require.NoError(t, err)
	st, err := store.New(t.TempDir(), c.Layout.Size(), pdf.NewEncoder(c.Layout.Font), logger)
	require.NoError(t, err)
	bs, err := local.New(t.TempDir(), "https://archive.test")
	require.NoError(t, err)

	svc := &service.Service{
		Config: service.Config{ClearAfterUpload: true},
		Generator: provider.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
			if strings.HasSuffix(prompt, "fail") {
				return "", errors.New("boom")
			}
			if strings.HasSuffix(prompt, "slow") {
				return "", &core.ProviderError{Provider: "gemini", Op: "generate", Retryable: true, Err: context.DeadlineExceeded}
			}
			return "It is 4", nil
		}),
		Speech: provider.SynthesizerFunc(func(_ context.Context, text string) (*provider.Audio, error) {
			return &provider.Audio{Data: []byte("audio"), Encoding: "MP3"}, nil
		}),
		Transcripts:  transcript.New(st, c, logger),
		Store:        st,
		Blob:         bs,
		HistoryStore: history.NewMemory(),
		Logger:       logger,
		Now:          func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) },
	}
	return New(svc, logger)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHello(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/test/testConnection", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Hello"}`, rec.Body.String())
}

func TestGetResponse(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/chat/getResponse", `{"userMessage":"What is 2+2?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[chatResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "It is 4", resp.BotResponse)
	assert.Equal(t, service.DefaultSession, resp.SessionID)
	assert.Equal(t, []byte("audio"), resp.AudioContent)
	assert.True(t, s.Service.Store.Exists(service.DefaultSession))
}

func TestGetResponseWithoutAudio(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/chat/getResponse", `{"userMessage":"hi","sessionId":"s1","audio":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "audioContent")
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		code    int
		message string
	}{
		{"empty message", http.MethodPost, "/chat/getResponse", `{"userMessage":""}`, http.StatusBadRequest, "Bad Request"},
		{"malformed body", http.MethodPost, "/chat/getResponse", `{"userMessage":`, http.StatusBadRequest, "Bad Request"},
		{"bad session id", http.MethodPost, "/chat/getResponse", `{"userMessage":"hi","sessionId":"../x"}`, http.StatusBadRequest, "Bad Request"},
		{"provider failure", http.MethodPost, "/chat/getResponse", `{"userMessage":"fail"}`, http.StatusInternalServerError, "Internal Server Error"},
		{"provider timeout", http.MethodPost, "/chat/getResponse", `{"userMessage":"slow"}`, http.StatusServiceUnavailable, "Internal Server Error"},
		{"missing dealer fields", http.MethodPost, "/dealer/appendDealerInfo", `{"dealerName":"Acme"}`, http.StatusBadRequest, "Bad Request"},
		{"upload missing session", http.MethodPost, "/session/uploadSession", `{"sessionId":"nope"}`, http.StatusNotFound, "Not Found"},
		{"pdf missing session", http.MethodGet, "/session/nope/pdf", "", http.StatusNotFound, "Not Found"},
		{"unknown route", http.MethodGet, "/nope/nope/nope", "", http.StatusNotFound, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code)

			body := decode[errorBody](t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"echo error keeps its code", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed},
		{"missing document", fmt.Errorf("load: %w", core.ErrDocumentNotFound), http.StatusNotFound},
		{"invalid request", fmt.Errorf("%w: question is required", service.ErrInvalidRequest), http.StatusBadRequest},
		{"invalid session id", store.ErrInvalidSessionID, http.StatusBadRequest},
		{"upload disabled", service.ErrUploadDisabled, http.StatusNotImplemented},
		{"provider timeout", &core.ProviderError{Provider: "gemini", Op: "generate", Retryable: true, Err: context.DeadlineExceeded}, http.StatusServiceUnavailable},
		{"provider failure", &core.ProviderError{Provider: "googletts", Op: "synthesize", Err: errors.New("quota")}, http.StatusInternalServerError},
		{"unclassified", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status(tt.err))
		})
	}
}

func TestAppendDealerInfo(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/dealer/appendDealerInfo",
		`{"dealerName":"Acme","dealerInfo":"Open weekdays","dealerNumber":"555-0100","sessionId":"s1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Dealer Information is stored successfully"}`, rec.Body.String())

	d, err := s.Service.Document(context.Background(), "s1")
	require.NoError(t, err)
	assert.Contains(t, d.Pages[0].Texts(), "Acme")
}

func TestUploadAndClear(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/chat/getResponse", `{"userMessage":"hi","sessionId":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/session/uploadSession", `{"sessionId":"s1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	up := decode[uploadResponse](t, rec)
	assert.True(t, up.Success)
	assert.Equal(t, "https://archive.test/session/s1.pdf", up.URL)
	assert.False(t, s.Service.Store.Exists("s1"))

	rec = do(t, s, http.MethodPost, "/session/clear", `{"sessionId":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[clearResponse](t, rec).Cleared)

	rec = do(t, s, http.MethodDelete, "/session/uploads?prefix=session/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"deleted":1}`, rec.Body.String())
}

func TestClearSession(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPost, "/chat/getResponse", `{"userMessage":"hi"}`)
	rec := do(t, s, http.MethodPost, "/session/clear", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[clearResponse](t, rec)
	assert.True(t, resp.Cleared)
	assert.Equal(t, "Session cleared", resp.Message)
	assert.False(t, s.Service.Store.Exists(service.DefaultSession))
}

func TestSessionViews(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/chat/getResponse", `{"userMessage":"hi","sessionId":"s1"}`)

	rec := do(t, s, http.MethodGet, "/session/s1/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, pdf.HasHeader(rec.Body.Bytes()))

	rec = do(t, s, http.MethodGet, "/session/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Session s1")
	assert.Contains(t, rec.Body.String(), "/session/s1/pdf")

	rec = do(t, s, http.MethodGet, "/session/s1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[struct {
		Success bool             `json:"success"`
		History []core.ChatTurn `json:"history"`
	}](t, rec)
	require.Len(t, hist.History, 1)
	assert.Equal(t, "hi", hist.History[0].Question)

	rec = do(t, s, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Sessions []core.ManifestEntry `json:"sessions"`
	}](t, rec)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "s1", list.Sessions[0].SessionID)
	assert.Equal(t, 1, list.Sessions[0].PageCount)

	rec = do(t, s, http.MethodGet, "/sessions/index", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/session/s1"`)
}

func TestSessionsEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"sessions":[]}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://kiosk.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatSocket(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws?sessionId=w1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(socketRequest{UserMessage: "hi"}))
		var resp socketResponse
		require.NoError(t, conn.ReadJSON(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "w1", resp.SessionID)
		assert.Equal(t, "It is 4", resp.BotResponse)
	}

	require.NoError(t, conn.WriteJSON(socketRequest{UserMessage: ""}))
	var resp socketResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Bad Request", resp.Message)

	d, err := s.Service.Document(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.PageCount())
}

func TestChatSocketGeneratesSession(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(socketRequest{UserMessage: "hi"}))
	var resp socketResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.True(t, strings.HasPrefix(resp.SessionID, "ws-"))
	assert.NoError(t, store.ValidateSessionID(resp.SessionID))
}
