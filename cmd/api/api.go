package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paws/docs" //this is required to generate swagger docs
	"paws/internal/auth"
	"paws/internal/cart"
	"paws/internal/catalog"
	"paws/internal/checkout"
	"paws/internal/mailer"
	"paws/internal/pushtokens"
	"paws/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	logger        *zap.SugaredLogger
	carts         *cart.Store
	catalog       *catalog.Client
	checkout      *checkout.Manager
	pushTokens    pushtokens.Store
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   *ratelimiter.FixedWindowRateLimiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	backendURL  string
	catalogURL  string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	mailtrap  mailTrapConfig
}

type mailTrapConfig struct {
	apiKey string
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

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(app.RateLimiterMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Post("/sessions", app.createSessionHandler)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", app.listProductsHandler)
			r.Get("/products/{itemID}", app.getProductHandler)
			r.Get("/services", app.listServicesHandler)
			r.Get("/services/{itemID}", app.getServiceHandler)
		})

		r.Get("/checkout/options", app.checkoutOptionsHandler)

		// Everything below needs a guest session token
		r.Group(func(r chi.Router) {
			r.Use(app.SessionTokenMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", app.getCartHandler)
				r.Delete("/", app.clearCartHandler)
				r.Post("/items", app.addCartItemHandler)
				r.Put("/items/{itemID}", app.updateCartItemHandler)
				r.Delete("/items/{itemID}", app.removeCartItemHandler)
				r.Get("/totals", app.getCartTotalsHandler)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", app.checkoutStateHandler)
				r.Post("/", app.startCheckoutHandler)
				r.Post("/buy-now", app.buyNowHandler)
				r.Post("/confirm", app.confirmPaymentHandler)
				r.Post("/failure", app.paymentFailureHandler)
				r.Post("/cash-on-delivery", app.cashOnDeliveryHandler)
				r.Get("/payment-status", app.paymentStatusHandler)
				r.Post("/reset", app.resetCheckoutHandler)
			})

			r.Route("/push-tokens", func(r chi.Router) {
				r.Post("/", app.savePushTokenHandler)
				r.Delete("/", app.removePushTokenHandler)
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
