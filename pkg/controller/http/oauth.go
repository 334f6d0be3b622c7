package http

import (
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/utils/errutil"
	"github.com/secmon-lab/gyges/pkg/utils/safe"
)

const oauthAuthorizeURL = "https://slack.com/oauth/v2/authorize"

// oauthStartHandler redirects the browser to the Slack authorize page
func (s *Server) oauthStartHandler(w http.ResponseWriter, r *http.Request) {
	q := url.Values{}
	q.Set("client_id", s.clientID)
	if s.oauthScopes != "" {
		q.Set("scope", s.oauthScopes)
	}

	http.Redirect(w, r, oauthAuthorizeURL+"?"+q.Encode(), http.StatusFound)
}

// oauthCallbackHandler exchanges the temporary code and installs the
// workspace into the engine
func (s *Server) oauthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(oauthDeniedPage))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing code parameter"), http.StatusBadRequest)
		return
	}

	cred, err := s.uc.CompleteOAuth(ctx, code)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to complete oauth"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	safe.Write(ctx, w, []byte(oauthSuccessPage(string(cred.TeamID))))
}

const oauthDeniedPage = `<!DOCTYPE html>
<html>
<head><title>Installation cancelled</title></head>
<body>
<h1>Installation cancelled</h1>
<p>The authorization request was denied. You can close this window.</p>
</body>
</html>`

func oauthSuccessPage(teamID string) string {
	return `<!DOCTYPE html>
<html>
<head><title>Installed</title></head>
<body>
<h1>Installation complete</h1>
<p>Workspace ` + teamID + ` is now connected. You can close this window.</p>
</body>
</html>`
}
