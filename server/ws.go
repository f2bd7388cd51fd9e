package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sonnes/lekhak/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type socketRequest struct {
	UserMessage string `json:"userMessage"`
}

type socketResponse struct {
	Success     bool   `json:"success"`
	SessionID   string `json:"sessionId"`
	BotResponse string `json:"botResponse,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// chatSocket answers {userMessage} frames on one connection. All frames of a
// connection go to the same session: ?sessionId= when given, otherwise a
// fresh one.
func (s *Server) chatSocket(c echo.Context) error {
	session := c.QueryParam("sessionId")
	if session == "" {
		session = "ws-" + uuid.NewString()
	}
	if err := store.ValidateSessionID(session); err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := c.Request().Context()
	s.Logger.Info("websocket connected", "session", session)
	for {
		var req socketRequest
		if err := conn.ReadJSON(&req); err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				s.Logger.Warn("websocket read failed", "session", session, "err", err)
			}
			return nil
		}

		resp := socketResponse{Success: true, SessionID: session}
		reply, err := s.Service.Respond(ctx, session, req.UserMessage, false)
		if err != nil {
			code := status(err)
			resp = socketResponse{Success: false, SessionID: session, Message: http.StatusText(code), Error: err.Error()}
			if code >= http.StatusInternalServerError {
				resp.Message = "Internal Server Error"
				s.Logger.Error("websocket chat failed", "session", session, "err", err)
			}
		} else {
			resp.BotResponse = reply.Answer
		}

		if err := conn.WriteJSON(resp); err != nil {
			s.Logger.Warn("websocket write failed", "session", session, "err", err)
			return nil
		}
	}
}
