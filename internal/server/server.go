// Package server exposes the transcriber as a JSON REST API.
//
// Endpoints:
//
//	GET /api/transcribe?text=<text>[&all=true][&stress=all|primary|none][&punct=false][&backend=sql|json]
//	GET /api/rhymes?word=<word>[&flat=true][&backend=sql|json]
//	GET /api/known?words=<words>[&backend=sql|json]
//	GET /api/contains?ipa=<fragment>[&backend=sql|json]
//	GET /api/health
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/cors"

	"codeberg.org/snonux/engipa/internal"
	"codeberg.org/snonux/engipa/internal/dictionary"
	"codeberg.org/snonux/engipa/internal/phoneme"
	"codeberg.org/snonux/engipa/internal/rhyme"
	"codeberg.org/snonux/engipa/internal/transcribe"
)

const shutdownTimeout = 5 * time.Second

// Server answers API requests with a transcriber and a rhyme matcher
type Server struct {
	transcriber *transcribe.Transcriber
	matcher     *rhyme.Matcher
	defaults    transcribe.Options
	origins     []string
	logger      *slog.Logger
}

// New creates a server. Query parameters override defaults per request.
func New(tr *transcribe.Transcriber, m *rhyme.Matcher, defaults transcribe.Options, origins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		transcriber: tr,
		matcher:     m,
		defaults:    defaults,
		origins:     origins,
		logger:      logger,
	}
}

// Handler returns the API routes wrapped in request logging and CORS
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/transcribe", s.handleTranscribe)
	mux.HandleFunc("GET /api/rhymes", s.handleRhymes)
	mux.HandleFunc("GET /api/known", s.handleKnown)
	mux.HandleFunc("GET /api/contains", s.handleContains)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	})
	return c.Handler(requestLogger(s.logger)(mux))
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts
// the listener down and waits for running requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// ---- JSON response types ------------------------------------------------

type transcribeResponse struct {
	Text           string                         `json:"text"`
	Transcription  string                         `json:"transcription,omitempty"`
	Transcriptions []string                       `json:"transcriptions,omitempty"`
	Words          []transcribe.WordTranscription `json:"words"`
}

type rhymesResponse struct {
	Word   string   `json:"word"`
	Rhymes []string `json:"rhymes"`
}

type rhymesEachResponse struct {
	Words  []string   `json:"words"`
	Rhymes [][]string `json:"rhymes"`
}

type knownResponse struct {
	Words string `json:"words"`
	Known bool   `json:"known"`
}

type containsResponse struct {
	IPA     string                `json:"ipa"`
	Matches []dictionary.IPAMatch `json:"matches"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- helpers ------------------------------------------------------------

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps an operation error onto a status code
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dictionary.ErrUnknownBackend), errors.Is(err, phoneme.ErrUnknownStressMode):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rhyme.ErrUnknownWord):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rhyme.ErrNoPrimaryStress):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, transcribe.ErrTooManyCombinations):
		s.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// backend returns the backend named by the request, or the default one
func (s *Server) backend(r *http.Request) (dictionary.Kind, error) {
	name := r.URL.Query().Get("backend")
	if name == "" {
		return s.defaults.Backend, nil
	}
	return dictionary.ParseKind(name)
}

// options applies the query parameters of r on top of the defaults
func (s *Server) options(r *http.Request) (transcribe.Options, error) {
	opts := s.defaults
	q := r.URL.Query()

	kind, err := s.backend(r)
	if err != nil {
		return opts, err
	}
	opts.Backend = kind

	if v := q.Get("stress"); v != "" {
		mode, err := phoneme.ParseStressMode(v)
		if err != nil {
			return opts, err
		}
		opts.Stress = mode
	}
	if v := q.Get("punct"); v != "" {
		keep, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid 'punct' value %q", v)
		}
		opts.KeepPunct = keep
	}
	return opts, nil
}

func required(r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	return v, v != ""
}

// ---- handlers -----------------------------------------------------------

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	text, ok := required(r, "text")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "missing 'text' query parameter")
		return
	}
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	words, err := s.transcriber.Words(r.Context(), text, opts)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	lists := make([][]string, len(words))
	for i, word := range words {
		lists[i] = word.Variants
	}

	resp := transcribeResponse{Text: text, Words: words}
	if all {
		resp.Transcriptions, err = transcribe.Combinations(lists)
	} else {
		resp.Transcription, err = transcribe.Best(lists)
	}
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRhymes(w http.ResponseWriter, r *http.Request) {
	word, ok := required(r, "word")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "missing 'word' query parameter")
		return
	}
	kind, err := s.backend(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if flat, _ := strconv.ParseBool(r.URL.Query().Get("flat")); flat {
		kind = dictionary.KindJSON
	}

	words := strings.Fields(word)
	if len(words) > 1 {
		lists, err := s.matcher.FindEach(r.Context(), word, kind)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, rhymesEachResponse{Words: words, Rhymes: lists})
		return
	}

	rhymes, err := s.matcher.Find(r.Context(), word, kind)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rhymesResponse{Word: word, Rhymes: rhymes})
}

func (s *Server) handleKnown(w http.ResponseWriter, r *http.Request) {
	words, ok := required(r, "words")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "missing 'words' query parameter")
		return
	}
	kind, err := s.backend(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	known, err := s.transcriber.WordKnown(r.Context(), words, kind)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, knownResponse{Words: words, Known: known})
}

func (s *Server) handleContains(w http.ResponseWriter, r *http.Request) {
	fragment, ok := required(r, "ipa")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "missing 'ipa' query parameter")
		return
	}
	kind, err := s.backend(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := s.transcriber.WordsContainingIPA(r.Context(), fragment, kind)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if matches == nil {
		matches = []dictionary.IPAMatch{}
	}
	s.writeJSON(w, http.StatusOK, containsResponse{IPA: fragment, Matches: matches})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: internal.Version})
}
