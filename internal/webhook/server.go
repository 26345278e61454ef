// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package webhook implements the POST /api/webhook server-mode front-end:
// a thin chi-routed wrapper around the cross-seed generator, meant to be
// called by an external collaborator such as autobrr.
package webhook

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fertilizer/internal/bencode"
	"github.com/autobrr/fertilizer/internal/crossseed"
	"github.com/autobrr/fertilizer/internal/domain"
)

// Server is a minimal chi router exposing the webhook endpoint.
type Server struct {
	Generator *crossseed.Generator
	InputDir  string
	router    chi.Router
}

// NewServer builds a Server with routes mounted.
func NewServer(generator *crossseed.Generator, inputDir string) *Server {
	s := &Server{Generator: generator, InputDir: inputDir}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Post("/api/webhook", s.handleWebhook)
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response{Status: status, Message: message})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, "error", "Could not parse request form")
		return
	}

	infohash := r.FormValue("infohash")
	log.Debug().Str("infohash", infohash).Str("remote", r.RemoteAddr).Msg("webhook: received request")
	if infohash == "" {
		writeJSON(w, http.StatusBadRequest, "error", "Request must include an 'infohash' parameter")
		return
	}
	if !bencode.IsValidInfohash(infohash) {
		writeJSON(w, http.StatusBadRequest, "error", "Invalid infohash")
		return
	}

	sourcePath := filepath.Join(s.InputDir, infohash+".torrent")
	if _, err := os.Stat(sourcePath); err != nil {
		writeJSON(w, http.StatusNotFound, "error", "No torrent found at "+sourcePath)
		return
	}

	outcome, err := s.Generator.Generate(r.Context(), sourcePath, nil, nil)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTorrentNotFound):
			writeJSON(w, http.StatusNotFound, "error", err.Error())
		case errors.Is(err, domain.ErrTorrentAlreadyExists):
			writeJSON(w, http.StatusConflict, "error", err.Error())
		default:
			log.Error().Err(err).Str("infohash", infohash).Msg("webhook: generation failed")
			writeJSON(w, http.StatusInternalServerError, "error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, "success", outcome.OutputPath)
}
