package controllers

import (
	"net/http"

	"github.com/peacetifal/peacetifal-backend/api/middleware"
	"github.com/peacetifal/peacetifal-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "admin", "status": "ok"}
		if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
			payload["user_id"] = userID
		}
		responses.WriteSuccess(w, payload)
	}
}
