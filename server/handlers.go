package server

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sonnes/lekhak/core"
)

type chatRequest struct {
	UserMessage string `json:"userMessage"`
	SessionID   string `json:"sessionId"`
	// Audio asks for synthesized speech. Absent means yes.
	Audio *bool `json:"audio"`
}

type chatResponse struct {
	Success      bool   `json:"success"`
	SessionID    string `json:"sessionId"`
	BotResponse  string `json:"botResponse"`
	AudioContent []byte `json:"audioContent,omitempty"`
}

type dealerRequest struct {
	core.DealerInfo
	SessionID string `json:"sessionId"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

type clearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cleared bool   `json:"cleared"`
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return nil
}

func (s *Server) hello(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Hello"})
}

func (s *Server) testConnection(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Hello"})
}

func (s *Server) getResponse(c echo.Context) error {
	var req chatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	audio := req.Audio == nil || *req.Audio

	reply, err := s.Service.Respond(c.Request().Context(), req.SessionID, req.UserMessage, audio)
	if err != nil {
		return err
	}

	resp := chatResponse{Success: true, SessionID: reply.Session, BotResponse: reply.Answer}
	if reply.Audio != nil {
		resp.AudioContent = reply.Audio.Data
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) appendDealerInfo(c echo.Context) error {
	var req dealerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := s.Service.AppendDealerInfo(c.Request().Context(), req.SessionID, req.DealerInfo); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Success: true, Message: "Dealer Information is stored successfully"})
}

func (s *Server) uploadSession(c echo.Context) error {
	var req sessionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	up, err := s.Service.UploadSession(c.Request().Context(), req.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, uploadResponse{Success: true, Message: "File successfully uploaded", URL: up.URL})
}

func (s *Server) clearSession(c echo.Context) error {
	var req sessionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cleared, err := s.Service.ClearSession(c.Request().Context(), req.SessionID)
	if err != nil {
		return err
	}
	msg := "Session cleared"
	if !cleared {
		msg = "Nothing to clear"
	}
	return c.JSON(http.StatusOK, clearResponse{Success: true, Message: msg, Cleared: cleared})
}

func (s *Server) deleteUploads(c echo.Context) error {
	n, err := s.Service.DeleteUploads(c.Request().Context(), c.QueryParam("prefix"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "deleted": n})
}

func (s *Server) sessionHistory(c echo.Context) error {
	turns, err := s.Service.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "history": turns})
}

func (s *Server) sessionPDF(c echo.Context) error {
	data, err := s.Service.PDF(c.Param("id"))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/pdf", data)
}

func (s *Server) sessionPage(c echo.Context) error {
	d, err := s.Service.Document(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.HTML.Render(&buf, d); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) sessions(c echo.Context) error {
	entries, err := s.Service.Sessions()
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []core.ManifestEntry{}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "sessions": entries})
}

func (s *Server) sessionIndex(c echo.Context) error {
	entries, err := s.Service.Sessions()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := s.HTML.RenderIndex(&buf, entries); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
