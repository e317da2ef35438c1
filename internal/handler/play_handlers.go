package handler

import (
	"context"
	"net/http"

	"github.com/ArtemMoroz51/quizbox/internal/service"
	"go.uber.org/zap"
)

type startReq struct {
	UserID int64 `json:"userId"`
}

// nextReq selects the theme to draw from; 0 draws from every theme.
type nextReq struct {
	ThemeID int64 `json:"themeId"`
}

type answerReq struct {
	QuestionID int64   `json:"questionId"`
	AnswerIDs  []int64 `json:"answerIds"`
}

func RegisterPlayHandlers(mux *http.ServeMux, play service.PlayService, token string, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	mux.HandleFunc("POST /api/play/start", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		var req startReq
		if err := decode(w, r, &req, true); err != nil {
			writeError(w, r, log, "play start bad json", err)
			return
		}

		state := play.Start(req.UserID)
		log.Info("play started", zap.Int64("user_id", state.UserID))
		writeJSON(w, http.StatusOK, state)
	}))

	// Drawing a question replaces the one being asked, so it is a guarded write.
	mux.HandleFunc("POST /api/play/next", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		var req nextReq
		if err := decode(w, r, &req, true); err != nil {
			writeError(w, r, log, "play next bad json", err)
			return
		}
		if req.ThemeID < 0 {
			writeError(w, r, log, "play next bad theme", service.ErrInvalidID)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		q, err := play.Next(ctx, req.ThemeID)
		if err != nil {
			writeError(w, r, log, "play next failed", err)
			return
		}
		log.Debug("question drawn", zap.Int64("question_id", q.ID), zap.Int64("theme_id", req.ThemeID))
		writeJSON(w, http.StatusOK, q)
	}))

	mux.HandleFunc("POST /api/play/answer", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		var req answerReq
		if err := decode(w, r, &req, false); err != nil {
			writeError(w, r, log, "play answer bad json", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		res, err := play.Submit(ctx, req.QuestionID, req.AnswerIDs)
		if err != nil {
			writeError(w, r, log, "play answer failed", err)
			return
		}
		log.Debug("answer recorded",
			zap.Int64("question_id", res.QuestionID),
			zap.String("outcome", string(res.Outcome)),
		)
		writeJSON(w, http.StatusOK, res)
	}))

	mux.HandleFunc("GET /api/play/current", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, play.Current())
	})

	mux.HandleFunc("POST /api/play/finish", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		summary, err := play.Finish(ctx)
		if err != nil {
			writeError(w, r, log, "play finish failed", err)
			return
		}
		log.Info("play finished",
			zap.Int64("session_id", summary.SessionID),
			zap.Float64("rate", summary.Rate),
		)
		writeJSON(w, http.StatusOK, summary)
	}))

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		report, err := play.History(ctx)
		if err != nil {
			writeError(w, r, log, "stats failed", err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	})
}
