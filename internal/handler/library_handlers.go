package handler

import (
	"context"
	"net/http"

	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/ArtemMoroz51/quizbox/internal/service"
	"go.uber.org/zap"
)

func RegisterLibraryHandlers(mux *http.ServeMux, lib service.LibraryService, token string, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	mux.HandleFunc("GET /api/themes", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		themes, err := lib.ListThemes(ctx)
		if err != nil {
			writeError(w, r, log, "list themes failed", err)
			return
		}
		if themes == nil {
			themes = []quiz.Theme{}
		}
		log.Debug("themes listed", zap.Int("count", len(themes)))
		writeJSON(w, http.StatusOK, themes)
	})

	mux.HandleFunc("POST /api/themes", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		var in quiz.Theme
		if err := decode(w, r, &in, false); err != nil {
			writeError(w, r, log, "save theme bad json", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		out, err := lib.SaveTheme(ctx, in)
		if err != nil {
			writeError(w, r, log, "save theme failed", err)
			return
		}
		log.Info("theme saved", zap.Int64("theme_id", out.ID))
		writeJSON(w, http.StatusOK, out)
	}))

	mux.HandleFunc("DELETE /api/themes/{id}", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, log, "delete theme bad id", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := lib.DeleteTheme(ctx, id); err != nil {
			writeError(w, r, log, "delete theme failed", err)
			return
		}
		log.Info("theme deleted", zap.Int64("theme_id", id))
		writeJSON(w, http.StatusOK, statusResp{Status: "deleted"})
	}))

	mux.HandleFunc("GET /api/themes/{id}/questions", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, log, "list questions bad id", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		questions, err := lib.ListQuestions(ctx, id)
		if err != nil {
			writeError(w, r, log, "list questions failed", err)
			return
		}
		if questions == nil {
			questions = []quiz.Question{}
		}
		writeJSON(w, http.StatusOK, questions)
	})

	// A question posted with answers is saved together with them.
	mux.HandleFunc("POST /api/questions", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		var in quiz.Question
		if err := decode(w, r, &in, false); err != nil {
			writeError(w, r, log, "save question bad json", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var (
			out quiz.Question
			err error
		)
		if len(in.Answers) > 0 {
			out, err = lib.SaveQuestionWithAnswers(ctx, in)
		} else {
			out, err = lib.SaveQuestion(ctx, in)
		}
		if err != nil {
			writeError(w, r, log, "save question failed", err)
			return
		}
		log.Info("question saved",
			zap.Int64("question_id", out.ID),
			zap.Int64("theme_id", out.ThemeID),
			zap.Int("answers", len(out.Answers)),
		)
		writeJSON(w, http.StatusOK, out)
	}))

	mux.HandleFunc("DELETE /api/questions/{id}", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, log, "delete question bad id", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := lib.DeleteQuestion(ctx, id); err != nil {
			writeError(w, r, log, "delete question failed", err)
			return
		}
		log.Info("question deleted", zap.Int64("question_id", id))
		writeJSON(w, http.StatusOK, statusResp{Status: "deleted"})
	}))

	mux.HandleFunc("GET /api/questions/{id}/answers", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, log, "list answers bad id", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		answers, err := lib.ListAnswers(ctx, id)
		if err != nil {
			writeError(w, r, log, "list answers failed", err)
			return
		}
		if answers == nil {
			answers = []quiz.Answer{}
		}
		writeJSON(w, http.StatusOK, answers)
	})

	mux.HandleFunc("POST /api/answers", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		var in quiz.Answer
		if err := decode(w, r, &in, false); err != nil {
			writeError(w, r, log, "save answer bad json", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		out, err := lib.SaveAnswer(ctx, in)
		if err != nil {
			writeError(w, r, log, "save answer failed", err)
			return
		}
		log.Info("answer saved", zap.Int64("answer_id", out.ID), zap.Int64("question_id", out.QuestionID))
		writeJSON(w, http.StatusOK, out)
	}))

	mux.HandleFunc("DELETE /api/answers/{id}", requireToken(token, func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, log, "delete answer bad id", err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		if err := lib.DeleteAnswer(ctx, id); err != nil {
			writeError(w, r, log, "delete answer failed", err)
			return
		}
		log.Info("answer deleted", zap.Int64("answer_id", id))
		writeJSON(w, http.StatusOK, statusResp{Status: "deleted"})
	}))
}
