package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"gastos/internal/core"
	"gastos/internal/export"
	"gastos/internal/ledger"
	"gastos/internal/log"
	"gastos/internal/storage"
)

// handleDraftEdit applies one input-panel change to the draft.
func (s *Server) handleDraftEdit(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	edit, ok := ParseDraftEdit(r)
	if !ok {
		BadRequestError("Missing field").Write(w)
		return
	}

	c, v, err := s.ledger.SetField(edit.Field, edit.Value)
	if err != nil {
		if errors.Is(err, core.ErrUnknownCategory) {
			BadRequestError("Unknown field").Write(w)
			return
		}
		InternalServerError("Could not update the draft").Write(w)
		return
	}
	s.appMetrics.draftEdits.Add(1)

	log.FromContext(r.Context()).DebugContext(r.Context(), "Draft field updated",
		log.FieldCategory, c.String(),
		"value", v,
		log.FieldOperation, log.OpEdit)
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit turns the draft into a ledger record. Category inputs present
// in the form are applied first, as if their change events had fired; a blank
// input clears its field.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := log.FromContext(ctx)

	submitted := SubmittedFields(r.PostForm)
	edits := make([]ledger.FieldEdit, 0, len(submitted))
	for _, e := range submitted {
		edits = append(edits, ledger.FieldEdit{Field: e.Field, Value: e.Value})
	}

	rec, err := s.ledger.SubmitWith(ctx, edits)
	if alert := rejectionAlert(err); alert != "" {
		s.appMetrics.rejected.Add(1)
		if IsHTMX(r) {
			UnprocessableEntityError(alert).
				TriggerAlert(alert).
				Write(w)
			return
		}
		s.renderIndex(w, r, http.StatusUnprocessableEntity, alert)
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to save expense record", log.NewFields().
			WithError(err).
			WithOperation(log.OpSubmit).
			ToSlice()...)
		InternalServerError("Could not save the ledger").Write(w)
		return
	}
	s.appMetrics.submitted.Add(1)

	logger.InfoContext(ctx, "Expense record submitted", log.NewFields().
		WithRecord(rec.ID, rec.Total).
		WithOperation(log.OpSubmit).
		ToSlice()...)

	if !IsHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := s.pageData()
	b := NewHTMXResponse().
		TriggerFormReset().
		TriggerLedgerChanged(len(data.Records))
	s.renderWith(b, w, r, "ledger.html", http.StatusOK, data)
}

// rejectionAlert maps a submit error the user can correct to the alert text.
func rejectionAlert(err error) string {
	switch {
	case errors.Is(err, core.ErrIncompleteDraft):
		return AlertIncomplete
	case errors.Is(err, core.ErrTotalOutOfRange):
		return AlertOutOfRange
	default:
		return ""
	}
}

// handleReset empties the ledger and removes the persisted key.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	if err := s.ledger.Reset(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to reset ledger", log.NewFields().
			WithError(err).
			WithOperation(log.OpReset).
			ToSlice()...)
		InternalServerError("Could not reset the ledger").Write(w)
		return
	}
	s.appMetrics.resets.Add(1)

	if !IsHTMX(r) && r.Method == http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderWith(NewHTMXResponse().TriggerLedgerChanged(0), w, r, "ledger.html", http.StatusOK, s.pageData())
}

// handleLedgerJSON returns the ledger in its persisted document form.
func (s *Server) handleLedgerJSON(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	body, err := storage.EncodeLedger(s.ledger.Records())
	if err != nil {
		InternalServerError("Could not encode the ledger").Write(w)
		return
	}
	NewHTMXResponse().
		Header("Content-Type", "application/json").
		Body(body).
		Write(w)
}

// handleExport streams the ledger as an xlsx workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	snap := s.ledger.Snapshot()
	key := strconv.FormatUint(snap.Version, 10)
	body, ok := s.workbooks.Get(key)
	if !ok {
		var buf bytes.Buffer
		opts := export.Options{Label: s.view.Label}
		if err := export.WriteXLSX(&buf, snap.Records, opts); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
				log.FieldError, err,
				log.FieldOperation, log.OpExport)
			InternalServerError("Could not export the ledger").Write(w)
			return
		}
		body = buf.Bytes()
		s.workbooks.Set(key, body)
	}

	NewHTMXResponse().
		Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet").
		Header("Content-Disposition", `attachment; filename="gastos.xlsx"`).
		Body(body).
		Write(w)
}
