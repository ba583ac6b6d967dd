package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/satheeshds/repairbook/invoicing"
	"github.com/satheeshds/repairbook/models"
)

// draftView is a draft with its derived totals.
type draftView struct {
	*models.Draft
	Subtotal   float64 `json:"subtotal"`
	GrandTotal float64 `json:"grand_total"`
}

func viewOf(d *models.Draft) draftView {
	return draftView{Draft: d, Subtotal: d.Subtotal(), GrandTotal: d.GrandTotal()}
}

// loadDraft fetches the draft named in the URL, writing a 404 if missing.
func (a *API) loadDraft(w http.ResponseWriter, r *http.Request) (*models.Draft, bool) {
	d, ok := a.Drafts.Get(userID(r), chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "draft not found")
		return nil, false
	}
	return d, true
}

// CreateDraft starts a new invoice draft
// @Summary      Create draft
// @Description  Start an empty invoice draft with the default labor charge.
// @Tags         drafts
// @Produce      json
// @Param        X-Session-Token  header    string  false  "Session token"
// @Success      201              {object}  Response{data=draftView}
// @Router       /drafts [post]
// @Security     BasicAuth
func (a *API) CreateDraft(w http.ResponseWriter, r *http.Request) {
	d := a.Drafts.Create(userID(r))
	writeJSON(w, http.StatusCreated, viewOf(d))
}

// GetDraft retrieves a draft
// @Summary      Get draft
// @Tags         drafts
// @Produce      json
// @Param        id   path      string  true  "Draft ID"
// @Success      200  {object}  Response{data=draftView}
// @Failure      404  {object}  Response{error=string}
// @Router       /drafts/{id} [get]
// @Security     BasicAuth
func (a *API) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := a.loadDraft(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(d))
}

// UpdateDraft sets the customer and charge fields of a draft
// @Summary      Update draft
// @Description  Set any of customer_name, car_details, labor and discount. Omitted fields are left unchanged.
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Param        id     path      string             true  "Draft ID"
// @Param        draft  body      models.DraftInput  true  "Fields to set"
// @Success      200    {object}  Response{data=draftView}
// @Failure      400    {object}  Response{error=string}
// @Failure      404    {object}  Response{error=string}
// @Router       /drafts/{id} [put]
// @Security     BasicAuth
func (a *API) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := a.loadDraft(w, r)
	if !ok {
		return
	}
	var input models.DraftInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	d.Apply(input)
	a.Drafts.Save(userID(r), d)
	writeJSON(w, http.StatusOK, viewOf(d))
}

// DeleteDraft discards a draft
// @Summary      Delete draft
// @Tags         drafts
// @Param        id   path      string  true  "Draft ID"
// @Success      204
// @Failure      404  {object}  Response{error=string}
// @Router       /drafts/{id} [delete]
// @Security     BasicAuth
func (a *API) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if !a.Drafts.Delete(userID(r), chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddDraftItem appends a repair item to a draft
// @Summary      Add draft item
// @Description  Append a repair item. The line total is qty times price.
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Draft ID"
// @Param        item  body      models.RepairItemInput  true  "Item"
// @Success      201   {object}  Response{data=draftView}
// @Failure      400   {object}  Response{error=string}
// @Failure      404   {object}  Response{error=string}
// @Router       /drafts/{id}/items [post]
// @Security     BasicAuth
func (a *API) AddDraftItem(w http.ResponseWriter, r *http.Request) {
	d, ok := a.loadDraft(w, r)
	if !ok {
		return
	}
	var input models.RepairItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := d.AddItem(input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.Drafts.Save(userID(r), d)
	writeJSON(w, http.StatusCreated, viewOf(d))
}

// RemoveDraftItem removes a repair item from a draft
// @Summary      Remove draft item
// @Tags         drafts
// @Produce      json
// @Param        id      path      string  true  "Draft ID"
// @Param        itemID  path      string  true  "Item ID"
// @Success      200     {object}  Response{data=draftView}
// @Failure      404     {object}  Response{error=string}
// @Router       /drafts/{id}/items/{itemID} [delete]
// @Security     BasicAuth
func (a *API) RemoveDraftItem(w http.ResponseWriter, r *http.Request) {
	d, ok := a.loadDraft(w, r)
	if !ok {
		return
	}
	if !d.RemoveItem(chi.URLParam(r, "itemID")) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	a.Drafts.Save(userID(r), d)
	writeJSON(w, http.StatusOK, viewOf(d))
}

// ResetDraft clears a draft back to its defaults
// @Summary      Reset draft
// @Tags         drafts
// @Produce      json
// @Param        id   path      string  true  "Draft ID"
// @Success      200  {object}  Response{data=draftView}
// @Failure      404  {object}  Response{error=string}
// @Router       /drafts/{id}/reset [post]
// @Security     BasicAuth
func (a *API) ResetDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := a.loadDraft(w, r)
	if !ok {
		return
	}
	d.Reset()
	a.Drafts.Save(userID(r), d)
	writeJSON(w, http.StatusOK, viewOf(d))
}

// CommitDraft turns a draft into a numbered invoice
// @Summary      Generate invoice
// @Description  Validate the draft, assign the next invoice number, record it in today's ledger and render the PDF. The draft is discarded once recorded.
// @Tags         drafts
// @Produce      json
// @Param        id   path      string  true  "Draft ID"
// @Success      201  {object}  Response{data=invoicing.Result}
// @Failure      404  {object}  Response{error=string}
// @Failure      422  {object}  Response{error=string}
// @Failure      500  {object}  Response{error=string}
// @Router       /drafts/{id}/commit [post]
// @Security     BasicAuth
func (a *API) CommitDraft(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	// Taking the draft keeps a concurrent commit of the same id out.
	d, ok := a.Drafts.Take(user, chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}
	res, err := a.Invoices.Generate(r.Context(), user, d)
	if res == nil {
		// Nothing was recorded; the draft stays editable.
		a.Drafts.Restore(user, d)
	}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, verr.Msg)
	case errors.Is(err, invoicing.ErrDocument):
		writeError(w, http.StatusInternalServerError, "invoice "+res.Record.InvoiceNumber+" was recorded but its document could not be generated")
	case err != nil:
		a.Log.Error("generating invoice failed", "user", user, "draft", d.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate invoice")
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}
