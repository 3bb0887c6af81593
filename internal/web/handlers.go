package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvintake/internal/core"
	"github.com/JonMunkholm/csvintake/internal/logging"
	"github.com/JonMunkholm/csvintake/internal/schema"
	"github.com/JonMunkholm/csvintake/internal/store"
)

type fieldView struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Aliases  []string `json:"aliases,omitempty"`
}

type schemaView struct {
	Key    string      `json:"key"`
	Label  string      `json:"label"`
	Match  string      `json:"match"`
	Policy string      `json:"policy"`
	Fields []fieldView `json:"fields"`
}

type importResponse struct {
	core.Report
	Import store.Result `json:"import"`
}

func newSchemaView(s schema.Schema) schemaView {
	v := schemaView{
		Key:    s.Key,
		Label:  s.Label,
		Match:  s.Match.String(),
		Policy: s.Policy.String(),
		Fields: make([]fieldView, len(s.Fields)),
	}
	for i, f := range s.Fields {
		v.Fields[i] = fieldView{
			Name:     f.Name,
			Label:    f.Label,
			Required: f.Has(schema.RuleRequired),
			Aliases:  f.Aliases,
		}
	}
	return v
}

type healthResponse struct {
	Status  string        `json:"status"`
	Uploads LimiterStatus `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Uploads: s.limiter.status()})
}

// handleListSchemas returns every registered schema.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	all := schema.All()
	views := make([]schemaView, len(all))
	for i, sc := range all {
		views[i] = newSchemaView(sc)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.schemaParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSchemaView(sc))
}

// handleValidate parses an uploaded file and returns the report.
// Fatal file errors are part of the report, not HTTP errors.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.schemaParam(w, r)
	if !ok {
		return
	}

	report, _, ok := s.parseUpload(w, r, sc)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleImport parses an uploaded file and, only if the report succeeded,
// copies its rows into the database.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.schemaParam(w, r)
	if !ok {
		return
	}
	if s.importer == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "import is not configured", nil)
		return
	}

	report, fileName, ok := s.parseUpload(w, r, sc)
	if !ok {
		return
	}
	if !report.Success {
		writeJSON(w, http.StatusUnprocessableEntity, report)
		return
	}

	result, err := s.importer.Import(r.Context(), sc.Key, fileName, report)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeImportFailed, "import failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{Report: report, Import: result})
}

// schemaParam resolves the {schemaKey} URL parameter.
func (s *Server) schemaParam(w http.ResponseWriter, r *http.Request) (schema.Schema, bool) {
	key := chi.URLParam(r, "schemaKey")
	sc, ok := schema.Get(key)
	if !ok {
		respondError(w, r, http.StatusNotFound, CodeUnknownSchema, "unknown schema: "+key, nil)
		return schema.Schema{}, false
	}
	return sc, true
}

// parseUpload reads the multipart "file" field and validates it against sc.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request, sc schema.Schema) (core.Report, string, bool) {
	if err := s.limiter.acquire(r.Context()); err != nil {
		w.Header().Set("Retry-After", "5")
		respondError(w, r, http.StatusServiceUnavailable, CodeBusy, errBusy.Error(), err)
		return core.Report{}, "", false
	}
	defer s.limiter.release()

	maxSize := s.intake.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, CodeTooLarge, "file too large", err)
		} else {
			respondError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid multipart form", err)
		}
		return core.Report{}, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, "no file provided", err)
		return core.Report{}, "", false
	}
	defer file.Close()

	parser := core.NewParser(sc, core.WithLogger(logging.FromContext(r.Context())))
	return parser.Parse(file, core.FormatFromName(header.Filename)), header.Filename, true
}
