package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"rumclub/internal/export"
	"rumclub/internal/log"
	"rumclub/internal/storage"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentAuth)
	if err := s.gate.Check(req.Password); err != nil {
		if s.metrics != nil {
			s.metrics.LoginFailures.Inc()
		}
		logger.WarnContext(r.Context(), "Login rejected",
			log.FieldClientIP, s.detector.ExtractClientIP(r))
		writeError(w, r, err)
		return
	}
	token, err := s.tokens.Generate()
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Login accepted",
		log.FieldClientIP, s.detector.ExtractClientIP(r))
	NewJSONResponse().JSON(loginResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}).Write(w)
}

// handleLedger returns the whole document in its stored form.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	l, revision := s.ledger.Current()
	data, err := storage.Encode(l)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Header("X-Ledger-Revision", strconv.FormatInt(revision, 10)).
		JSON(json.RawMessage(data)).
		Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.writeAnnualSummary(w, http.StatusOK)
}

func (s *Server) handleSampleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.SampleSummary(sampleMonth(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(toSampleSummary(sum)).Write(w)
}

func (s *Server) handleTastingSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.TastingSummary(tastingMonth(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(toTastingSummary(sum)).Write(w)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Statement(memberParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(toStatement(st)).Write(w)
}

// Exports are rendered in memory first so a failure still yields a JSON error.

func (s *Server) handleExportZip(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteZip(r.Context(), &buf, s.ledger.Ledger()); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeDownload(w, "application/zip", "zip", buf.Bytes())
}

func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, s.ledger.Ledger()); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeDownload(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", buf.Bytes())
}

func (s *Server) writeDownload(w http.ResponseWriter, contentType, ext string, data []byte) {
	name := fmt.Sprintf("rumclub-%s.%s", s.now().Format("2006-01-02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
