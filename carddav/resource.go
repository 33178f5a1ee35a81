package carddav

import (
	"context"
	"net/http"

	"kith/diff"
	"kith/etag"
	"kith/kerr"
	"kith/models"
	"kith/vcard"
)

func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request, headOnly bool) {
	path := parsePath(r.URL.Path)
	if path.Kind != pathResource {
		http.NotFound(w, r)
		return
	}

	view, err := h.Store.Materialize(r.Context(), path.SubjectID, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if view == nil || len(view.ActiveFacts) == 0 {
		// A subject whose every fact has been retracted is
		// indistinguishable from Absent to clients (spec.md §4.6).
		http.NotFound(w, r)
		return
	}

	body, err := vcard.Serialize(view, "4.0")
	if err != nil {
		h.writeError(w, r, kerr.Wrap(kerr.Internal, "serialize vcard", err))
		return
	}

	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("ETag", etag.ComputeView(view))
	if headOnly {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// handlePut implements spec.md §4.6's create-or-update semantics: an
// existing subject's If-Match is checked against its current ETag before
// anything else, a new subject is created if none exists (any supplied
// If-Match on a nonexistent resource is 412), then the diff pipeline
// reconciles the store with the incoming vCard.
func (h *Handlers) handlePut(w http.ResponseWriter, r *http.Request) {
	path := parsePath(r.URL.Path)
	if path.Kind != pathResource {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	body, err := readLimitedBody(r)
	if err != nil {
		h.writeError(w, r, kerr.Wrap(kerr.ClientInput, "read put body", err))
		return
	}

	ifMatch := r.Header.Get("If-Match")

	currentView, err := h.Store.Materialize(ctx, path.SubjectID, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// A subject whose every fact has been retracted is indistinguishable
	// from Absent to clients (spec.md §4.6): re-PUTting that URL is a
	// create, not an update, regardless of whether the subject row itself
	// still exists from an earlier DELETE.
	absent := currentView == nil || len(currentView.ActiveFacts) == 0

	created := false
	if absent {
		if ifMatch != "" {
			h.writeError(w, r, kerr.New(kerr.Precondition, "If-Match on nonexistent resource"))
			return
		}
		if currentView == nil {
			if _, err := h.Store.AddSubjectWithID(ctx, path.SubjectID, models.SubjectPerson); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
		created = true
		currentView = nil // diff against a clean slate regardless of retracted history
	} else if ifMatch != "" {
		if etag.ComputeView(currentView) != ifMatch {
			h.writeError(w, r, kerr.New(kerr.Precondition, "If-Match mismatch"))
			return
		}
	}

	parsed, err := vcard.Parse(body, "carddav-put")
	if err != nil {
		h.writeError(w, r, kerr.Wrap(kerr.ClientInput, "parse vcard", err))
		return
	}
	for i := range parsed.Facts {
		parsed.Facts[i].SubjectID = path.SubjectID
	}

	result := diff.Diff(parsed.Facts, currentView)
	if err := h.applyDiff(ctx, result); err != nil {
		h.writeError(w, r, err)
		return
	}

	newView, err := h.Store.Materialize(ctx, path.SubjectID, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("ETag", etag.ComputeView(newView))
	if created {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

// applyDiff applies a Result in the three non-transactional phases
// spec.md §4.4 mandates: new facts, then supersessions, then
// retractions. Each call commits independently; a later failure leaves
// earlier phases' commits in place (accepted under the single-writer
// assumption, spec.md §5/§9).
func (h *Handlers) applyDiff(ctx context.Context, result diff.Result) error {
	for _, nf := range result.NewFacts {
		if _, err := h.Store.RecordFact(ctx, nf); err != nil {
			return err
		}
	}
	for _, sup := range result.Supersessions {
		if _, _, err := h.Store.Supersede(ctx, sup.OldFactID, sup.Replacement); err != nil {
			return err
		}
	}
	for _, factID := range result.Retractions {
		if _, err := h.Store.Retract(ctx, factID, nil); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := parsePath(r.URL.Path)
	if path.Kind != pathResource {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	view, err := h.Store.Materialize(ctx, path.SubjectID, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if view == nil || len(view.ActiveFacts) == 0 {
		http.NotFound(w, r)
		return
	}

	reason := "Deleted via CardDAV"
	for _, rf := range view.ActiveFacts {
		if _, err := h.Store.Retract(ctx, rf.FactID, &reason); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
