package api

import (
	"database/sql"
	"net/http"

	"github.com/psc-ict/frontdesk/internal/match"
	"github.com/psc-ict/frontdesk/internal/model"
	"github.com/psc-ict/frontdesk/internal/printer"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, engine *match.Engine, prn *printer.Printer, notifier match.Notifier) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	lostFound := &LostFoundHandler{DB: db, Engine: engine, Printer: prn, Notifier: notifier}
	packages := &PackagesHandler{DB: db, Printer: prn}
	keys := &KeysHandler{DB: db}
	settings := &SettingsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireReception := RequireRole(model.RoleReception)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Lost items: read and create (all roles), status changes (reception+).
	mux.Handle("GET /api/lost-items", authMW(http.HandlerFunc(lostFound.ListLost)))
	mux.Handle("POST /api/lost-items", authMW(http.HandlerFunc(lostFound.CreateLost)))
	mux.Handle("GET /api/lost-items/stats", authMW(http.HandlerFunc(lostFound.LostStats)))
	mux.Handle("GET /api/lost-items/track/{tracking_id}", authMW(http.HandlerFunc(lostFound.TrackLost)))
	mux.Handle("GET /api/lost-items/{id}", authMW(http.HandlerFunc(lostFound.GetLost)))
	mux.Handle("POST /api/lost-items/{id}/found", authMW(requireReception(http.HandlerFunc(lostFound.MarkFound))))

	// Found items: read and create (all roles), claims and photos (reception+).
	mux.Handle("GET /api/found-items", authMW(http.HandlerFunc(lostFound.ListFound)))
	mux.Handle("POST /api/found-items", authMW(http.HandlerFunc(lostFound.CreateFound)))
	mux.Handle("GET /api/found-items/{id}", authMW(http.HandlerFunc(lostFound.GetFound)))
	mux.Handle("POST /api/found-items/{id}/pick", authMW(requireReception(http.HandlerFunc(lostFound.Pick))))
	mux.Handle("GET /api/found-items/{id}/pickups", authMW(http.HandlerFunc(lostFound.ListPickups)))
	mux.Handle("PUT /api/found-items/{id}/photo", authMW(requireReception(http.HandlerFunc(lostFound.UploadPhoto))))
	mux.Handle("GET /api/found-items/{id}/photo", authMW(http.HandlerFunc(lostFound.GetPhoto)))

	// Matching.
	mux.Handle("GET /api/matches", authMW(http.HandlerFunc(lostFound.Matches)))
	mux.Handle("POST /api/matches/print", authMW(requireReception(http.HandlerFunc(lostFound.PrintMatches))))

	// Packages.
	mux.Handle("GET /api/packages", authMW(http.HandlerFunc(packages.List)))
	mux.Handle("POST /api/packages", authMW(http.HandlerFunc(packages.Create)))
	mux.Handle("GET /api/packages/stats", authMW(http.HandlerFunc(packages.Stats)))
	mux.Handle("GET /api/packages/export", authMW(requireReception(http.HandlerFunc(packages.Export))))
	mux.Handle("GET /api/packages/code/{code}", authMW(http.HandlerFunc(packages.GetByCode)))
	mux.Handle("GET /api/packages/{id}", authMW(http.HandlerFunc(packages.Get)))
	mux.Handle("POST /api/packages/{id}/pick", authMW(requireReception(http.HandlerFunc(packages.Pick))))

	// Security keys: register (reception+), custody actions (all roles).
	mux.Handle("GET /api/keys", authMW(http.HandlerFunc(keys.List)))
	mux.Handle("POST /api/keys", authMW(requireReception(http.HandlerFunc(keys.Create))))
	mux.Handle("GET /api/keys/{id}", authMW(http.HandlerFunc(keys.Get)))
	mux.Handle("POST /api/keys/{id}/checkout", authMW(http.HandlerFunc(keys.Checkout)))
	mux.Handle("POST /api/keys/{id}/return", authMW(http.HandlerFunc(keys.Return)))
	mux.Handle("POST /api/keys/{id}/lost", authMW(requireReception(http.HandlerFunc(keys.MarkLost))))
	mux.Handle("GET /api/keys/{id}/history", authMW(http.HandlerFunc(keys.History)))

	// Settings (admin only).
	mux.Handle("GET /api/settings", authMW(requireAdmin(http.HandlerFunc(settings.List))))
	mux.Handle("PUT /api/settings/{key}", authMW(requireAdmin(http.HandlerFunc(settings.Update))))

	return mux
}
