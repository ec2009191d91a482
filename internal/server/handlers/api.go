package handlers

import (
	"net/http"

	"git.home.luguber.info/inful/texbuilder/internal/build"
	"git.home.luguber.info/inful/texbuilder/internal/compiler"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/lint"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/server/responses"
)

// APIHandlers compile, lint and normalize records posted by clients. They
// never touch the configured workbook or output directory.
type APIHandlers struct {
	cfg          *config.Config
	errorAdapter *errors.HTTPErrorAdapter
}

// NewAPIHandlers creates API handlers using the compiler settings of cfg.
func NewAPIHandlers(cfg *config.Config, adapter *errors.HTTPErrorAdapter) *APIHandlers {
	if cfg == nil {
		cfg = config.Default()
	}
	return &APIHandlers{cfg: cfg, errorAdapter: adapter}
}

// HandleCompile renders a posted record set. ?format= selects the dialect;
// the first configured format is used when it is absent.
func (h *APIHandlers) HandleCompile(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.errorAdapter, http.MethodPost) {
		return
	}

	format, err := h.format(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	var set records.Set
	if err := decodeJSON(w, r, h.cfg.Server.MaxBodyBytes, &set); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	em, _, err := build.Emitter(format, h.cfg.Compiler)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	res, err := compiler.Compile(set, compiler.Options{Emitter: em, AutoPlace: h.cfg.Compiler.AutoPlace})
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	resp := responses.CompileResponse{
		Format:      string(format),
		Text:        res.Text,
		Directory:   res.Directory,
		BackCover:   res.BackCover,
		Diagnostics: res.Diagnostics,
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []diagnostics.Diagnostic{}
	}
	if counts := diagnostics.CountByKind(res.Diagnostics); len(counts) > 0 {
		resp.Counts = make(map[string]int, len(counts))
		for k, n := range counts {
			resp.Counts[string(k)] = n
		}
	}
	writeOrFail(w, r, h.errorAdapter, http.StatusOK, resp, "compile response")
}

func (h *APIHandlers) format(r *http.Request) (config.Format, error) {
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := config.ParseFormat(raw)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryValidation, "unsupported output format").
				WithContext("format", raw).
				WithContext("valid", config.ValidFormats()).
				Build()
		}
		return f, nil
	}
	if len(h.cfg.Output.Formats) > 0 {
		return h.cfg.Output.Formats[0], nil
	}
	return config.FormatLaTeX, nil
}

// HandleLint lints a posted record set and returns the JSON lint report.
// Lint findings are data, so the status is 200 even when errors exist.
func (h *APIHandlers) HandleLint(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.errorAdapter, http.MethodPost) {
		return
	}
	var set records.Set
	if err := decodeJSON(w, r, h.cfg.Server.MaxBodyBytes, &set); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	quiet := r.URL.Query().Get("quiet") == "true"
	result := lint.NewLinter(&lint.Config{Format: "json", Quiet: quiet}).Lint(set)
	writeOrFail(w, r, h.errorAdapter, http.StatusOK, lint.Output(result, set.Document.ID), "lint response")
}

// HandleNormalize returns the normalized form of one section body.
func (h *APIHandlers) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.errorAdapter, http.MethodPost) {
		return
	}
	var req responses.NormalizeRequest
	if err := decodeJSON(w, r, h.cfg.Server.MaxBodyBytes, &req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	normalized := lint.Normalize(req.Text)
	writeOrFail(w, r, h.errorAdapter, http.StatusOK, responses.NormalizeResponse{
		Text:    normalized,
		Changed: normalized != req.Text,
	}, "normalize response")
}
