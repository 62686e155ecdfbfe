package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alumnet/alumnet-api/internal/authz"
	"github.com/alumnet/alumnet-api/internal/handlers"
	"github.com/alumnet/alumnet-api/internal/models"
)

// NewRouter sets up the API routes
func NewRouter(
	auth *handlers.AuthHandler,
	registration *handlers.RegistrationHandler,
	codes *handlers.CodesHandler,
	schools *handlers.SchoolsHandler,
	admin *handlers.AdminHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check and metrics
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Public auth endpoint
	router.HandleFunc("/api/auth/login", auth.Login).Methods(http.MethodPost)

	// Public signup flow
	router.HandleFunc("/api/schools", schools.ListSchools).Methods(http.MethodGet)
	router.HandleFunc("/api/schools/{schoolID}", schools.GetSchool).Methods(http.MethodGet)
	router.HandleFunc("/api/registration/check-school-promo", registration.CheckSchoolPromo).Methods(http.MethodPost)
	router.HandleFunc("/api/registration/verify-code", registration.VerifyCode).Methods(http.MethodPost)
	router.HandleFunc("/api/registration/complete", registration.CompleteRegistration).Methods(http.MethodPost)
	router.HandleFunc("/api/registration/request-access", registration.SubmitAccessRequest).Methods(http.MethodPost)
	router.HandleFunc("/api/registration/request-code", registration.RequestCodeFromPeer).Methods(http.MethodPost)

	// Admin routes, registered before the broader /api subrouter so the
	// prefix match is unambiguous.
	adminRouter := router.PathPrefix("/api/admin").Subrouter()
	adminRouter.Use(auth.JWTMiddleware, authz.RequireRole(models.RoleAdmin))
	adminRouter.HandleFunc("/access-requests", admin.ListAccessRequests).Methods(http.MethodGet)
	adminRouter.HandleFunc("/access-requests/{requestID}/approve", admin.ApproveAccessRequest).Methods(http.MethodPost)
	adminRouter.HandleFunc("/access-requests/{requestID}/reject", admin.RejectAccessRequest).Methods(http.MethodPost)
	adminRouter.HandleFunc("/users", admin.ListUsers).Methods(http.MethodGet)
	adminRouter.HandleFunc("/users/{userID}/ambassador", admin.SetAmbassador).Methods(http.MethodPut)
	adminRouter.HandleFunc("/users/{userID}/code-limit", admin.IncreaseCodeLimit).Methods(http.MethodPut)
	adminRouter.HandleFunc("/users/{userID}", admin.DeactivateUser).Methods(http.MethodDelete)
	adminRouter.HandleFunc("/codes/universal", admin.CreateUniversalCode).Methods(http.MethodPost)
	adminRouter.HandleFunc("/codes/{codeID}", admin.DeactivateCode).Methods(http.MethodDelete)
	adminRouter.HandleFunc("/stats", admin.Stats).Methods(http.MethodGet)
	adminRouter.HandleFunc("/notifications", admin.ListNotifications).Methods(http.MethodGet)
	adminRouter.HandleFunc("/notifications/{notificationID}/read", admin.MarkNotificationRead).Methods(http.MethodPost)

	// Authenticated member routes
	member := router.PathPrefix("/api").Subrouter()
	member.Use(auth.JWTMiddleware)
	member.HandleFunc("/codes", codes.GenerateCode).Methods(http.MethodPost)
	member.HandleFunc("/codes/mine", codes.MyCodes).Methods(http.MethodGet)

	return router
}
