package auth

import (
	"net/http"

	"github.com/dropDatabas3/authcore/internal/domain/repository"
	dto "github.com/dropDatabas3/authcore/internal/http/dto/auth"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
)

// Login maneja POST /auth/login. La clave del guard combina email e IP:
// una IP atacando varias cuentas y varias IPs atacando una cuenta cuentan
// por separado.
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	clientKey := repository.NormalizeEmail(req.Email) + "|" + helpers.ClientIP(r)
	resp, err := c.Svc.Login(r.Context(), req, clientKey)
	if err != nil {
		c.handleError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
