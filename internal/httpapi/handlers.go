package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/export"
	"github.com/spigell/unifit/internal/filtering"
	"github.com/spigell/unifit/internal/matcher"
	"github.com/spigell/unifit/internal/profile"
	"github.com/spigell/unifit/internal/scoring"
	"github.com/spigell/unifit/internal/selections"
)

type matchRequest struct {
	Profile       profile.Input             `json:"profile"`
	Selections    selections.UserSelections `json:"selections"`
	Limit         int                       `json:"limit,omitempty"`
	SeedShortlist bool                      `json:"seed_shortlist,omitempty"`
	SkipFilters   []string                  `json:"skip_filters,omitempty"`
}

type candidateView struct {
	scoring.Candidate
	NetPrice    *float64 `json:"net_price,omitempty"`
	Explanation []string `json:"explanation,omitempty"`
}

type matchResponse struct {
	ID             string                    `json:"id"`
	CatalogVersion string                    `json:"catalog_version"`
	Profile        *profile.Profile          `json:"profile"`
	Candidates     []candidateView           `json:"candidates"`
	Steps          []filtering.Report        `json:"steps"`
	Considered     int                       `json:"considered"`
	Cached         bool                      `json:"cached"`
	Selections     selections.UserSelections `json:"selections"`
}

type programsResponse struct {
	Programs []string `json:"programs"`
}

type offeringInstitution struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	StateCode string `json:"state_code,omitempty"`
}

type offeringResponse struct {
	Program      string                `json:"program"`
	Institutions []offeringInstitution `json:"institutions"`
}

type statusResponse struct {
	CatalogVersion string             `json:"catalog_version"`
	LoadedAt       time.Time          `json:"loaded_at"`
	Institutions   int                `json:"institutions"`
	Offerings      int                `json:"offerings"`
	Dropped        map[string]int     `json:"dropped_rows"`
	Filters        []filtering.Status `json:"filters"`
}

// decodeMatch reads and normalizes a match request. It writes the error
// response itself and returns false when the request cannot be served.
func (s *Server) decodeMatch(w http.ResponseWriter, r *http.Request) (matcher.Request, bool) {
	var body matchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return matcher.Request{}, false
	}

	p, err := profile.Normalize(body.Profile)
	if err != nil {
		writeProfileErr(w, err)
		return matcher.Request{}, false
	}

	if body.Limit < 0 {
		writeErr(w, http.StatusBadRequest, "limit must not be negative")
		return matcher.Request{}, false
	}

	return matcher.Request{
		Profile:       p,
		Selections:    body.Selections,
		Limit:         body.Limit,
		SeedShortlist: body.SeedShortlist,
		SkipFilters:   body.SkipFilters,
	}, true
}

func (s *Server) match(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMatch(w, r)
	if !ok {
		return
	}

	res, err := s.engine.Match(r.Context(), req)
	if err != nil {
		s.writeMatchErr(w, err)
		return
	}

	views := make([]candidateView, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		v := candidateView{Candidate: c, Explanation: scoring.Explain(c, req.Profile)}
		if price, ok := c.Institution.SelectedNetPrice(req.Profile.IncomeBracket); ok {
			v.NetPrice = &price
		}
		views = append(views, v)
	}

	writeJSON(w, http.StatusOK, matchResponse{
		ID:             res.ID.String(),
		CatalogVersion: res.CatalogVersion.String(),
		Profile:        req.Profile,
		Candidates:     views,
		Steps:          res.Steps,
		Considered:     res.Considered,
		Cached:         res.Cached,
		Selections:     res.Selections,
	})
}

func (s *Server) exportMatches(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMatch(w, r)
	if !ok {
		return
	}

	res, err := s.engine.Match(r.Context(), req)
	if err != nil {
		s.writeMatchErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(s.now())))
	if err := export.WriteCSV(w, res.Candidates, req.Profile.IncomeBracket); err != nil {
		s.logger.Error("writing csv export", zap.Error(err))
	}
}

func (s *Server) programs(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	if snap == nil {
		writeErr(w, http.StatusServiceUnavailable, matcher.ErrNoSnapshot.Error())
		return
	}

	names := snap.Programs.Programs()
	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		names = slices.DeleteFunc(names, func(name string) bool {
			return !strings.Contains(strings.ToLower(name), q)
		})
	}
	writeJSON(w, http.StatusOK, programsResponse{Programs: names})
}

func (s *Server) programInstitutions(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeErr(w, http.StatusBadRequest, "name query parameter is required")
		return
	}

	snap := s.engine.Snapshot()
	if snap == nil {
		writeErr(w, http.StatusServiceUnavailable, matcher.ErrNoSnapshot.Error())
		return
	}

	resp := offeringResponse{Program: name, Institutions: []offeringInstitution{}}
	for _, id := range snap.Programs.Institutions(name) {
		item := offeringInstitution{ID: id}
		if inst, ok := snap.Catalog.Get(id); ok {
			item.Name = inst.Name
			item.StateCode = inst.StateCode
		}
		resp.Institutions = append(resp.Institutions, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) institution(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "institution id must be an integer")
		return
	}

	snap := s.engine.Snapshot()
	if snap == nil {
		writeErr(w, http.StatusServiceUnavailable, matcher.ErrNoSnapshot.Error())
		return
	}

	inst, ok := snap.Catalog.Get(id)
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Sprintf("institution %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Snapshot()
	if snap == nil {
		writeErr(w, http.StatusServiceUnavailable, matcher.ErrNoSnapshot.Error())
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		CatalogVersion: snap.Version.String(),
		LoadedAt:       snap.LoadedAt,
		Institutions:   snap.Catalog.Len(),
		Offerings:      snap.Programs.Len(),
		Dropped: map[string]int{
			"institutions":    snap.CatalogStats.Dropped,
			"fields_of_study": snap.ProgramStats.Dropped,
		},
		Filters: s.engine.Filters(nil),
	})
}

func (s *Server) writeMatchErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrInvalidProfile):
		writeProfileErr(w, err)
	case errors.Is(err, matcher.ErrNoSnapshot):
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("running search", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "search failed")
	}
}

func writeProfileErr(w http.ResponseWriter, err error) {
	resp := errResp{Error: err.Error()}
	var verrs profile.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = profile.ErrInvalidProfile.Error()
		resp.Details = verrs
	}
	writeJSON(w, http.StatusBadRequest, resp)
}
