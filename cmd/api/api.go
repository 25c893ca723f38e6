package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"hanar/docs" //this is required to generate swagger docs
	"hanar/internal/auth"
	"hanar/internal/authz"
	"hanar/internal/domain/adminroles"
	"hanar/internal/domain/storage"
	"hanar/internal/entitlement"
	"hanar/internal/mailer"
	"hanar/internal/notifications"
	"hanar/internal/ratelimiter"
	"hanar/internal/refcode"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	entitlements  *entitlement.Service
	gate          *authz.Gate
	notifier      *notifications.Notifier
	refcodes      *refcode.Codec
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	redis       redisConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}
type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}
type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	exp       time.Duration
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
}

type redisConfig struct {
	addr    string
	pw      string
	db      int
	enabled bool
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
			r.Post("/password/forgot", app.forgotPasswordHandler)
			r.Post("/password/reset", app.resetPasswordHandler)

			// Browser clients authenticate through the session cookie pair.
			r.Post("/web/token", app.createWebTokenHandler)
			r.Post("/web/refresh", app.refreshWebTokenHandler)
			r.Post("/web/logout", app.webLogoutHandler)
		})

		// Route that does NOT require authentication
		r.Put("/users/activate/{token}", app.activateUserHandler)

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getCurrentUserHandler)
			r.Put("/", app.updateUserHandler)
			r.Post("/profile-picture", app.uploadProfilePictureHandler)
			r.Post("/logout", app.logoutHandler)
		})

		r.Route("/businesses", func(r chi.Router) {
			r.Get("/", app.listBusinessesHandler)
			r.Get("/{businessID}", app.getBusinessHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createBusinessHandler)
				r.Get("/mine", app.getOwnBusinessHandler)
				r.Get("/is-business-owner", app.isBusinessOwnerHandler)
				r.Patch("/{businessID}", app.updateBusinessHandler)
				r.Post("/{businessID}/photos", app.uploadBusinessPhotoHandler)
				r.Delete("/{businessID}/photos", app.deleteBusinessPhotoHandler) // DELETE /businesses/{businessID}/photos?photo_url={url}
			})
		})

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", app.browseListingsHandler)
			r.Get("/ref/{code}", app.getListingByCodeHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/", app.createListingHandler)
				r.Get("/mine", app.getOwnListingsHandler)
				r.Get("/limits", app.getListingLimitsHandler)
				r.Delete("/{listingID}", app.deleteListingHandler)
				r.Post("/{listingID}/photos", app.uploadListingPhotoHandler)

				r.Route("/casual-seller-pack", func(r chi.Router) {
					r.Get("/", app.getPackStatusHandler)
					r.Post("/", app.purchasePackHandler)
				})
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listNotificationsHandler)
			r.Get("/unread-count", app.unreadCountHandler)
			r.Put("/{notificationID}/read", app.markNotificationReadHandler)
			r.Put("/read-all", app.markAllNotificationsReadHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.With(app.RequireAdminRoles(authz.NewRoleSet(
				adminroles.RoleOwner, adminroles.RoleAdmin, adminroles.RoleSupport,
			))).Get("/dashboard", app.adminDashboardHandler)

			r.With(app.RequireAdminRoles(authz.NewRoleSet(
				adminroles.RoleOwner, adminroles.RoleAdmin, adminroles.RoleModerator,
			))).Delete("/listings/{listingID}", app.adminDeleteListingHandler)

			r.With(app.RequireAdminRoles(authz.NewRoleSet(
				adminroles.RoleOwner, adminroles.RoleAdmin,
			))).Post("/notifications/broadcast", app.adminBroadcastHandler)

			r.Route("/roles", func(r chi.Router) {
				r.Use(app.RequireAdminRoles(authz.NewRoleSet(adminroles.RoleOwner)))
				r.Get("/", app.listAdminRolesHandler)
				r.Post("/", app.assignAdminRoleHandler)
				r.Delete("/{roleID}", app.removeAdminRoleHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
