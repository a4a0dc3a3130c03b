package web

import (
	"log/slog"
	"net/http"
	"strings"

	mw "github.com/JonMunkholm/cohort/internal/web/middleware"
	"github.com/JonMunkholm/cohort/internal/web/templates"
)

const loginPath = "/login"

// handleLoginPage shows the access key form.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Security.RequireAPIKey {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderLogin(w, r, http.StatusOK, false)
}

// handleLogin checks the submitted key and opens a page session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Security.RequireAPIKey {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	key := strings.TrimSpace(r.PostFormValue("api_key"))
	if !mw.ValidKey(&s.cfg.Security, key) {
		slog.Warn("auth: login rejected", "remote_addr", r.RemoteAddr)
		renderLogin(w, r, http.StatusUnauthorized, true)
		return
	}

	mw.SetSession(w, r, key)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func renderLogin(w http.ResponseWriter, r *http.Request, status int, failed bool) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Login(failed).Render(r.Context(), w); err != nil {
		slog.Error("render login", "error", err)
	}
}
