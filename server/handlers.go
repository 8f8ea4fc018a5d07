package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/search"
	"github.com/rishtahq/rishta/storage"
)

const (
	defaultTopK         = 10
	maxTopK             = 50
	defaultAgeTolerance = 5
	maxAgeTolerance     = 20
	minAdultAge         = 18

	// Used as the vector query when neither an explicit query nor any
	// requester free text is available.
	fallbackQuery = "looking for suitable partner"
)

// profilePayload is the wire form of a profile. Field names match the
// canonical dataset column names.
type profilePayload struct {
	Id                core.ID `json:"id,omitempty"`
	Age               int     `json:"Age,omitempty"`
	Gender            string  `json:"Gender,omitempty"`
	MaritalStatus     string  `json:"Marital_Status,omitempty"`
	Caste             string  `json:"Caste,omitempty"`
	Sect              string  `json:"Sect,omitempty"`
	State             string  `json:"State,omitempty"`
	About             string  `json:"About,omitempty"`
	PartnerPreference string  `json:"Partner_Preference,omitempty"`
}

func toPayload(p *core.Profile) profilePayload {
	return profilePayload{
		Id:                p.Id,
		Age:               p.Age,
		Gender:            p.Gender,
		MaritalStatus:     p.MaritalStatus,
		Caste:             p.Caste,
		Sect:              p.Sect,
		State:             p.State,
		About:             p.About,
		PartnerPreference: p.PartnerPreference,
	}
}

// filterView echoes the applied filter back to the caller.
type filterView struct {
	Gender        string `json:"gender,omitempty"`
	MaritalStatus string `json:"marital_status,omitempty"`
	Caste         string `json:"caste,omitempty"`
	Sect          string `json:"sect,omitempty"`
	State         string `json:"state,omitempty"`
	MinAge        *int   `json:"min_age,omitempty"`
	MaxAge        *int   `json:"max_age,omitempty"`
}

type matchResultView struct {
	Profile profilePayload `json:"profile"`
	Score   float32        `json:"score"`
	Content string         `json:"content"`
}

type matchResponse struct {
	Query      string            `json:"query"`
	Filters    filterView        `json:"filters"`
	Candidates int               `json:"candidates"`
	TookMs     float64           `json:"took_ms"`
	Results    []matchResultView `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.svc.Profiles.CountProfiles(r.Context(), storage.Filter{})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	vectors, err := s.svc.Index.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "index unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"profiles": profiles,
		"vectors":  vectors,
	})
}

// handleInsertProfile stores a profile and indexes it immediately, so the
// new profile is matchable without a separate sync run.
func (s *Server) handleInsertProfile(w http.ResponseWriter, r *http.Request) {
	var payload profilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile := &core.Profile{
		Age:               payload.Age,
		Gender:            payload.Gender,
		MaritalStatus:     payload.MaritalStatus,
		Caste:             payload.Caste,
		Sect:              payload.Sect,
		State:             payload.State,
		About:             payload.About,
		PartnerPreference: payload.PartnerPreference,
	}
	if err := profile.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.svc.Profiles.AddProfiles(r.Context(), profile)
	if err != nil {
		s.logger.Error("failed to insert profile", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to insert profile")
		return
	}

	if err := s.svc.Syncer.SyncProfile(r.Context(), stored[0]); err != nil {
		s.logger.Error("failed to index profile", "id", stored[0].Id, "err", err)
		s.writeError(w, http.StatusServiceUnavailable, "profile stored but not indexed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"profile_id": stored[0].Id})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid profile id")
		return
	}

	profile, err := s.svc.Profiles.GetProfile(r.Context(), core.ID(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		s.logger.Error("failed to load profile", "id", id, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	s.writeJSON(w, http.StatusOK, toPayload(profile))
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	query := params.Get("query")
	gender := params.Get("gender")
	sameGender := params.Get("same_gender") == "true"

	topK, err := intParam(params.Get("top_k"), defaultTopK, 1, maxTopK)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid top_k: %v", err))
		return
	}
	ageTolerance, err := intParam(params.Get("age_tolerance"), defaultAgeTolerance, 0, maxAgeTolerance)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid age_tolerance: %v", err))
		return
	}
	minAge, err := optionalIntParam(params.Get("min_age"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid min_age")
		return
	}
	maxAge, err := optionalIntParam(params.Get("max_age"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid max_age")
		return
	}

	// A requester profile supplies defaults for gender, age range and query.
	if rawID := params.Get("profile_id"); rawID != "" {
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid profile_id")
			return
		}
		requester, err := s.svc.Profiles.GetProfile(r.Context(), core.ID(id))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.writeError(w, http.StatusNotFound, "profile_id not found")
				return
			}
			s.logger.Error("failed to load requester", "id", id, "err", err)
			s.writeError(w, http.StatusInternalServerError, "failed to load requester")
			return
		}

		if gender == "" {
			gender = requester.Gender
		}
		if minAge == nil && maxAge == nil && requester.Age != 0 {
			lo := max(minAdultAge, requester.Age-ageTolerance)
			hi := requester.Age + ageTolerance
			minAge, maxAge = &lo, &hi
		}
		if query == "" {
			if requester.PartnerPreference != "" {
				query = requester.PartnerPreference
			} else {
				query = requester.About
			}
		}
	}

	if query == "" {
		query = fallbackQuery
	}

	filter := storage.Filter{
		MaritalStatus: params.Get("marital_status"),
		Caste:         params.Get("caste"),
		Sect:          params.Get("sect"),
		State:         params.Get("state"),
		MinAge:        minAge,
		MaxAge:        maxAge,
	}
	if gender != "" {
		if sameGender {
			filter.Gender = gender
		} else {
			filter.Gender = core.OppositeGender(gender)
		}
	}

	start := time.Now()
	set, err := s.svc.Matcher.Match(r.Context(), query, filter, topK)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, search.ErrInvalidLimit):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("match failed", "err", err)
			s.writeError(w, http.StatusServiceUnavailable, "match unavailable")
		}
		return
	}
	elapsed := time.Since(start)

	results := make([]matchResultView, 0, len(set.Results))
	for _, result := range set.Results {
		results = append(results, matchResultView{
			Profile: toPayload(result.Profile),
			Score:   result.Score,
			Content: result.Text,
		})
	}

	s.writeJSON(w, http.StatusOK, matchResponse{
		Query: query,
		Filters: filterView{
			Gender:        filter.Gender,
			MaritalStatus: filter.MaritalStatus,
			Caste:         filter.Caste,
			Sect:          filter.Sect,
			State:         filter.State,
			MinAge:        filter.MinAge,
			MaxAge:        filter.MaxAge,
		},
		Candidates: set.CandidateCount,
		TookMs:     float64(elapsed.Microseconds()) / 1000.0,
		Results:    results,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Reporter.Analyze(r.Context())
	if err != nil {
		s.logger.Error("stats failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to analyze store")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func intParam(raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return v, nil
}

func optionalIntParam(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
