package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/david/maintenance-analyzer/internal/vocab"
)

type addTermRequest struct {
	Text string `json:"text"`
	Name string `json:"name"`
}

var duplicateMessages = map[vocab.Kind]string{
	vocab.KindFault:    "此故障原因已存在。",
	vocab.KindMaterial: "此材料名稱已存在。",
}

// kindParam reads the vocabulary kind from the path, falling back to the query.
func kindParam(c echo.Context) (vocab.Kind, bool) {
	if kind, ok := vocab.ParseKind(c.Param("kind")); ok {
		return kind, true
	}
	return vocab.ParseKind(c.QueryParam("kind"))
}

func unknownKind(c echo.Context) error {
	return errorJSON(c, http.StatusNotFound, "unknown vocabulary")
}

func (s *Server) handleListTerms(c echo.Context) error {
	kind, ok := kindParam(c)
	if !ok {
		return unknownKind(c)
	}
	entries, err := s.Store.Terms(kind)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleAddTerm(c echo.Context) error {
	kind, ok := kindParam(c)
	if !ok {
		return unknownKind(c)
	}
	var req addTermRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request")
	}
	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = req.Name
	}

	entry, err := s.Store.AddTerm(kind, text)
	if errors.Is(err, vocab.ErrDuplicate) {
		return errorJSON(c, http.StatusConflict, duplicateMessages[kind])
	}
	if err != nil {
		return errorJSON(c, mapHTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleDeleteTerm(c echo.Context) error {
	kind, ok := kindParam(c)
	if !ok {
		return unknownKind(c)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid id")
	}
	if err := s.Store.DeleteTerm(kind, id); err != nil {
		return errorJSON(c, mapHTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleImportTerms(c echo.Context) error {
	kind, ok := kindParam(c)
	if !ok {
		return unknownKind(c)
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	items, err := vocab.ParseImport(body)
	if err != nil {
		return errorJSON(c, mapHTTPStatus(err), err.Error())
	}
	res, err := s.Store.ImportTerms(kind, items)
	if err != nil {
		return errorJSON(c, mapHTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleExportTerms(c echo.Context) error {
	kind, ok := kindParam(c)
	if !ok {
		return unknownKind(c)
	}
	items, err := s.Store.ExportTerms(kind)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+string(kind)+`_list.json"`)
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleUncategorized(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Store.Buckets())
}

// handlePrefill returns the text an uncategorized item would add to a
// vocabulary, without adding it.
func (s *Server) handlePrefill(c echo.Context) error {
	kind, ok := kindParam(c)
	if !ok {
		return unknownKind(c)
	}
	item := c.QueryParam("item")
	if strings.TrimSpace(item) == "" {
		return errorJSON(c, http.StatusBadRequest, "item is required")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"kind": string(kind),
		"text": vocab.Prefill(kind, item),
	})
}
