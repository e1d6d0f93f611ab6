package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/docchat/internal/audit"
	"github.com/ziadkadry99/docchat/internal/conversation"
	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/ingest"
	"github.com/ziadkadry99/docchat/internal/logger"
)

type uploadResponse struct {
	Message string         `json:"message"`
	Report  *ingest.Result `json:"report"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, errs.ErrNoFile.Error())
		return
	}
	defer file.Close()

	filename := SanitizeFilename(header.Filename)
	if filename == "" {
		writeError(w, http.StatusBadRequest, "Invalid file name")
		return
	}

	finalPath, err := s.saveUpload(file, filename)
	if err != nil {
		logger.Warn("upload %s: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "Failed to process file: "+err.Error())
		return
	}

	result, err := s.pipeline.Run(r.Context(), s.cfg.DocsDir)
	if err != nil {
		writeError(w, statusFor(err), "Failed to process file: "+err.Error())
		return
	}

	// Other files failing does not fail this upload, but the uploaded file
	// itself must have been ingested.
	abs, _ := filepath.Abs(finalPath)
	for _, f := range result.Failed {
		if f.Path == abs {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "Failed to process file: " + f.Error,
				"report": result,
			})
			return
		}
	}

	s.logAudit(r, audit.Entry{
		Action:  audit.ActionUpload,
		Summary: fmt.Sprintf("uploaded %s", filename),
		Files:   []string{abs},
		Chunks:  result.ChunksAdded,
		Failed:  len(result.Failed),
	})

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "File uploaded and processed successfully",
		Report:  result,
	})
}

// saveUpload saves the upload into the staging directory, then moves it into
// the documents directory.
func (s *Server) saveUpload(src io.Reader, filename string) (string, error) {
	for _, dir := range []string{s.cfg.UploadDir, s.cfg.DocsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	uploadPath := filepath.Join(s.cfg.UploadDir, filename)
	finalPath := filepath.Join(s.cfg.DocsDir, filename)

	out, err := os.Create(uploadPath)
	if err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(uploadPath)
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}

	if err := moveFile(uploadPath, finalPath); err != nil {
		return "", fmt.Errorf("moving upload: %w", err)
	}
	return finalPath, nil
}

// moveFile renames src to dst, copying when the two are on different
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type askResponse struct {
	Answer    string              `json:"answer"`
	Sources   []document.Metadata `json:"sources"`
	SessionID string              `json:"session_id"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, errs.ErrEmptyQuestion.Error())
		return
	}
	sessionID := conversation.SessionOrDefault(req.SessionID)

	answer, err := s.chat.Ask(r.Context(), sessionID, req.Question)
	if err != nil {
		logger.Warn("ask: %v", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:    answer.Text,
		Sources:   answer.Sources,
		SessionID: sessionID,
	})
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	// The body is optional; an empty or malformed one clears the default session.
	var req clearRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	// Clearing always answers 200; a failing history backend is only logged.
	sessionID := conversation.SessionOrDefault(req.SessionID)
	if err := s.chat.Clear(r.Context(), req.SessionID); err != nil {
		logger.Warn("clear %s: %v", sessionID, err)
	} else {
		s.logAudit(r, audit.Entry{
			Action:    audit.ActionHistoryClear,
			SessionID: sessionID,
			Summary:   fmt.Sprintf("cleared session %s", sessionID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat memory cleared successfully"})
}

type statsResponse struct {
	Collection string `json:"collection"`
	Documents  int    `json:"documents"`
	Sessions   int    `json:"sessions"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.chat.Sessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	collection := s.pipeline.Collection()
	writeJSON(w, http.StatusOK, statsResponse{
		Collection: collection,
		Documents:  s.store.Count(collection),
		Sessions:   sessions,
	})
}

// logAudit records entry when auditing is enabled. A failed write is logged
// and does not fail the request.
func (s *Server) logAudit(r *http.Request, entry audit.Entry) {
	if s.audit == nil {
		return
	}
	entry.Actor = audit.ActorHTTP
	if err := s.audit.Log(r.Context(), entry); err != nil {
		logger.Warn("audit: %v", err)
	}
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindIngestion:
		return http.StatusUnprocessableEntity
	case errs.KindEmbedding, errs.KindGeneration:
		if errs.IsRetryable(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case errs.KindRetrieval:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
