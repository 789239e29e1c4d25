package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowgraph/pkg/buildinfo"
	"github.com/matzehuels/flowgraph/pkg/cache"
	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/validate"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"build":      buildinfo.Get(),
		"node_types": s.cat.Len(),
	})
}

// categoryGroup is one palette section.
type categoryGroup struct {
	Category  catalog.Category      `json:"category"`
	NodeTypes []*catalog.Descriptor `json:"node_types"`
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	matches := s.cat.Search(r.URL.Query().Get("q"))
	byCat := make(map[catalog.Category][]*catalog.Descriptor)
	for _, d := range matches {
		byCat[d.Category] = append(byCat[d.Category], d)
	}
	groups := make([]categoryGroup, 0, len(byCat))
	for _, c := range catalog.Categories {
		if ds := byCat[c]; len(ds) > 0 {
			groups = append(groups, categoryGroup{Category: c, NodeTypes: ds})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": groups})
}

func (s *Server) getNodeType(w http.ResponseWriter, r *http.Request) {
	d, err := s.cat.Lookup(catalog.TypeID(chi.URLParam(r, "typeID")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) getDefaults(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.cat.DefaultConfig(catalog.TypeID(chi.URLParam(r, "typeID")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// validationReport is the body of POST /definitions/validate.
type validationReport struct {
	Activatable bool                `json:"activatable"`
	Violations  validate.Violations `json:"violations"`
	NodeCount   int                 `json:"node_count"`
	EdgeCount   int                 `json:"edge_count"`
}

func (s *Server) validateDefinition(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	key := s.keyer.ValidationKey(s.catHash, body)
	data, hit, err := cache.Memo(r.Context(), s.cache, key, "validate", s.ttl, func() ([]byte, error) {
		snap, err := flowio.ParseDefinition(body, s.cat)
		if err != nil {
			return nil, err
		}
		vs := validate.Validate(snap, s.cat)
		if vs == nil {
			vs = validate.Violations{}
		}
		return json.Marshal(validationReport{
			Activatable: len(vs) == 0,
			Violations:  vs,
			NodeCount:   snap.NodeCount(),
			EdgeCount:   snap.EdgeCount(),
		})
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeRaw(w, http.StatusOK, data)
}

func (s *Server) definitionToCanvas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	meta := flowio.CanvasMeta{
		ID:          q.Get("id"),
		Name:        q.Get("name"),
		Description: q.Get("description"),
		Status:      workflow.Status(q.Get("status")),
	}
	if meta.Status != "" && !meta.Status.Valid() {
		s.fail(w, r, ferrors.NewField(ferrors.ErrCodeInvalidInput, "status", "unknown status %q", meta.Status))
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	snap, err := flowio.ParseDefinition(body, s.cat)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flowio.ToCanvas(snap, s.cat, meta))
}

func (s *Server) canvasToDefinition(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	snap, _, err := flowio.ParseCanvas(body, s.cat)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flowio.ToDefinition(snap))
}

func (s *Server) migrateDefinition(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	snap, err := flowio.ParseDefinition(body, s.cat)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flowio.ToDefinition(snap))
}

type transitionRequest struct {
	From       workflow.Status `json:"from"`
	To         workflow.Status `json:"to"`
	Definition json.RawMessage `json:"definition"`
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.fail(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "malformed transition request"))
		return
	}

	snap := workflow.NewBuilder(s.cat).Snapshot()
	if len(req.Definition) > 0 && string(req.Definition) != "null" {
		var err error
		if snap, err = flowio.ParseDefinition(req.Definition, s.cat); err != nil {
			s.fail(w, r, err)
			return
		}
	} else if req.To == workflow.StatusActive {
		s.fail(w, r, ferrors.NewField(ferrors.ErrCodeInvalidInput, "definition", "a definition is required to activate a workflow"))
		return
	}

	if err := validate.CheckTransition(req.From, req.To, snap, s.cat); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": req.To,
		"next":   workflow.NextStatuses(req.To),
	})
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	matches := flowio.FilterTemplates(s.templates, q.Get("category"), q.Get("search"))
	summaries := make([]flowio.Template, len(matches))
	for i, t := range matches {
		summaries[i] = t.Summary()
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": summaries})
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := flowio.FindTemplate(s.templates, chi.URLParam(r, "templateID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// instantiateTemplate creates a draft canvas from a template. The body is
// optional.
func (s *Server) instantiateTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := flowio.FindTemplate(s.templates, chi.URLParam(r, "templateID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var meta flowio.CanvasMeta
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &meta); err != nil {
			s.fail(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "malformed instantiate request"))
			return
		}
	}
	c, _, err := flowio.Instantiate(t, s.cat, meta)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Debug("instantiated template", "template", t.ID, "name", c.Name)
	writeJSON(w, http.StatusCreated, c)
}

// readBody reads a bounded request body, answering the request itself on
// failure.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errorBody{
				Code:    ferrors.ErrCodeInvalidInput,
				Message: fmt.Sprintf("request body exceeds %d bytes", MaxBodyBytes),
			})
			return nil, false
		}
		s.fail(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "cannot read request body"))
		return nil, false
	}
	return body, true
}
