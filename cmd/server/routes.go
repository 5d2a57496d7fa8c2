package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crypto-invoice.backend/internal/interfaces/http/handlers"
	"crypto-invoice.backend/internal/interfaces/http/middleware"
	"crypto-invoice.backend/pkg/metrics"
)

const (
	serviceName    = "crypto-invoice-backend"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	invoiceHandler        *handlers.InvoiceHandler
	profileHandler        *handlers.ProfileHandler
	configHandler         *handlers.ConfigHandler
	dataValidationHandler *handlers.DataValidationHandler
	notificationHandler   *handlers.NotificationHandler
	callbackAuth          gin.HandlerFunc
	notificationAuth      gin.HandlerFunc
	rateLimit             gin.HandlerFunc
	metrics               *metrics.Registry
}

func applyCORSMiddleware(r *gin.Engine) {
	cfg := cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:              []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID", "X-Client-Info", "Apikey"},
		ExposeHeaders:             []string{"X-Request-ID", "X-Idempotency-Hit"},
		OptionsResponseStatusCode: http.StatusOK,
	}
	r.Use(cors.New(cfg))
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, m *metrics.Registry) {
	if m == nil {
		return
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/config", d.configHandler.GetConfig)
		v1.POST("/connect", d.invoiceHandler.Connect)

		profiles := v1.Group("/profiles")
		{
			profiles.GET("/:wallet", d.profileHandler.GetProfile)
			profiles.PUT("/:wallet", d.profileHandler.SaveProfile)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.POST("", middleware.IdempotencyMiddleware(), d.invoiceHandler.CreateInvoice)
			invoices.GET("", d.invoiceHandler.ListInvoices)
			invoices.GET("/:id", d.invoiceHandler.GetInvoice)
			invoices.GET("/:id/summary", d.invoiceHandler.GetInvoiceSummary)
			invoices.GET("/:id/qr", d.invoiceHandler.GetInvoiceQR)
			invoices.POST("/:id/payments", d.invoiceHandler.InitiatePayment)
			invoices.POST("/:id/payments/:attemptId/failure", d.invoiceHandler.ReportPaymentFailure)
			invoices.POST("/:id/settlement", middleware.IdempotencyMiddleware(), d.invoiceHandler.SettlePayment)
			invoices.POST("/:id/mark-paid", middleware.IdempotencyMiddleware(), d.invoiceHandler.MarkPaid)
		}
	}
}

// registerFunctionRoutes mounts the wallet-facing callback functions. They
// answer every method themselves so OPTIONS and GET probes get their own bodies.
func registerFunctionRoutes(r *gin.Engine, d routeDeps) {
	fn := r.Group("/functions/v1")
	if d.rateLimit != nil {
		fn.Use(d.rateLimit)
	}

	dataValidation := []gin.HandlerFunc{d.dataValidationHandler.Handle}
	if d.callbackAuth != nil {
		dataValidation = append([]gin.HandlerFunc{d.callbackAuth}, dataValidation...)
	}
	fn.Any("/data-validation", dataValidation...)

	notification := []gin.HandlerFunc{d.notificationHandler.Handle}
	if d.notificationAuth != nil {
		notification = append([]gin.HandlerFunc{d.notificationAuth}, notification...)
	}
	fn.Any("/send-email-notification", notification...)
}
