package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/ArtemMoroz51/quizbox/internal/service"
	"github.com/ArtemMoroz51/quizbox/internal/storage"
	"go.uber.org/zap"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

var errBadJSON = errors.New("bad json")

type statusResp struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusCode(err error) int {
	var ve *quiz.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, errBadJSON),
		errors.Is(err, service.ErrInvalidID),
		errors.Is(err, quiz.ErrEmptySelection),
		errors.Is(err, quiz.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrNoQuestions):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrNotAssociated),
		errors.Is(err, storage.ErrImmutable),
		errors.Is(err, service.ErrNoSession),
		errors.Is(err, service.ErrBadPhase),
		errors.Is(err, service.ErrWrongQuestion):
		return http.StatusConflict
	case storage.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"status": "<message>"} and logs it.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, msg string, err error) {
	code := statusCode(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("code", code),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		log.Error(msg, fields...)
	} else {
		log.Warn(msg, fields...)
	}

	text := err.Error()
	var ve *quiz.ValidationError
	if errors.As(err, &ve) {
		text = ve.Error()
	}
	writeJSON(w, code, statusResp{Status: text})
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return nil
	}
	return errBadJSON
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidID
	}
	return id, nil
}
