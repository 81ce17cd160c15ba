// internal/app/features/home/handler.go
package home

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// AppName is reported by GET /.
const AppName = "School Suite"

// Handler serves the public landing and sign-in bootstrap endpoints.
type Handler struct {
	Log             *zap.Logger
	GoogleClientID  string
	WorkspaceDomain string
	CodeFlowEnabled bool // true when /auth/google can run
}

func NewHandler(googleClientID, workspaceDomain string, codeFlowEnabled bool, logger *zap.Logger) *Handler {
	return &Handler{
		Log:             logger,
		GoogleClientID:  googleClientID,
		WorkspaceDomain: workspaceDomain,
		CodeFlowEnabled: codeFlowEnabled,
	}
}

type rootResponse struct {
	App      string         `json:"app"`
	SignedIn bool           `json:"signedIn"`
	School   *models.School `json:"school,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	resp := rootResponse{App: AppName}
	if s, _ := auth.Guard(r, true); s != nil {
		resp.SignedIn = true
		resp.School = &s.School
	}
	jsonresp.OK(w, r, resp)
}

type signInResponse struct {
	GoogleClientID  string `json:"googleClientId"`
	WorkspaceDomain string `json:"workspaceDomain,omitempty"`
	Return          string `json:"return"`
	GoogleRedirect  string `json:"googleRedirect,omitempty"`
	Error           string `json:"error,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /sign-in – what a client needs to start Google sign-in                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeSignIn(w http.ResponseWriter, r *http.Request) {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "/dashboard")

	resp := signInResponse{
		GoogleClientID:  h.GoogleClientID,
		WorkspaceDomain: h.WorkspaceDomain,
		Return:          ret,
		Error:           query.Get(r, "error"),
	}
	if h.CodeFlowEnabled {
		resp.GoogleRedirect = "/auth/google?return=" + url.QueryEscape(ret)
	}
	jsonresp.OK(w, r, resp)
}
