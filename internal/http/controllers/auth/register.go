package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
)

// Register maneja POST /auth/register.
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	resp, err := c.Svc.Register(r.Context(), req)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, resp)
}
