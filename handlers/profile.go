package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/satheeshds/repairbook/models"
)

// GetProfile returns the caller's workshop profile
// @Summary      Get workshop profile
// @Description  Get the workshop profile printed on invoices. Defaults are returned when none is stored.
// @Tags         profile
// @Produce      json
// @Param        X-Session-Token  header    string  false  "Session token"
// @Success      200              {object}  Response{data=models.WorkshopProfile}
// @Router       /profile [get]
// @Security     BasicAuth
func (a *API) GetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Profiles.Load(r.Context(), userID(r)))
}

// UpdateProfile replaces the caller's workshop profile
// @Summary      Update workshop profile
// @Description  Replace the workshop profile. Omitted fields take their default values.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        X-Session-Token  header    string                  false  "Session token"
// @Param        profile          body      models.WorkshopProfile  true   "Profile contents"
// @Success      200              {object}  Response{data=models.WorkshopProfile}
// @Failure      400              {object}  Response{error=string}
// @Router       /profile [put]
// @Security     BasicAuth
func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p := models.DefaultProfile()
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := p.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := a.Profiles.Save(r.Context(), userID(r), p); err != nil {
		a.Log.Error("saving profile failed", "user", userID(r), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
