package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/farzana24/RideN-Bite-sub001/api/responses"
	"github.com/farzana24/RideN-Bite-sub001/internal/realtime"
	pkgAuth "github.com/farzana24/RideN-Bite-sub001/pkg/auth"
	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handshakeToken pulls the access token from the query string or the
// Authorization header. Browsers cannot set custom headers on a websocket
// dial, so the query parameter is the primary channel.
func handshakeToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

// RealtimeChannel upgrades the connection and registers it with the hub. The
// token is verified before any registry mutation; a bad token means the
// connection is refused outright.
func RealtimeChannel(hub *realtime.Hub, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := handshakeToken(r)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		claims, err := pkgAuth.ParseAccessToken(cfg, token)
		if err != nil || claims.UserID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote its own error response.
			if logg != nil {
				logg.Error(r.Context(), "realtime.upgrade_failed", err)
			}
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"user_id": claims.UserID})
			logg.Info(ctx, "realtime.connected")
		}

		session := realtime.NewSession(hub, conn, claims.UserID, logg)
		session.Run(r.Context())
	}
}
