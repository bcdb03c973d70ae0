package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/middlewares"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/models/reports"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"bitbucket.org/mmdatafocus/pos_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// statusFromError maps the checkout error taxonomy onto HTTP statuses.
// Every kind surfaces its own message; the register UI shows them
// verbatim so the operator knows whether the sale was recorded.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrorStockExceeded),
		errors.Is(err, models.ErrorEmptyCart):
		return http.StatusConflict
	case errors.Is(err, models.ErrorFinalizeInFlight):
		return http.StatusLocked
	case errors.Is(err, models.ErrorPersistTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrorPersistFailed):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrorInvalidQuantity),
		errors.Is(err, models.ErrorMissingCustomerName),
		errors.Is(err, utils.ErrorInvalidDiscount):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), gin.H{"error": err.Error()})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

/* auth */

func loginHandler() gin.HandlerFunc {
	type loginInput struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var input loginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info, err := models.Login(c.Request.Context(), input.Username, input.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

/* shops & users (admin) */

func createShopHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewShop
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		shop, err := models.CreateShop(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, shop)
	}
}

func listShopsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		shops, err := models.ListShops(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, shops)
	}
}

func createUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

/* products */

func listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if term := c.Query("search"); term != "" {
			products, err := models.SearchProducts(ctx, term)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, products)
			return
		}
		products, err := models.ListProducts(ctx)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		product, err := models.CreateProduct(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		product, err := models.GetProduct(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		product, err := models.UpdateProduct(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func deleteProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		product, err := models.DeleteProduct(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

/* customers */

func listCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if phone := c.Query("phone"); phone != "" {
			customer, err := models.GetCustomerByPhone(c.Request.Context(), phone)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, customer)
			return
		}
		customers, err := models.ListCustomers(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func deleteCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		customer, err := models.DeleteCustomer(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

/* expenses */

func listExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		expenses, err := models.ListExpenses(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, expenses)
	}
}

func createExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewExpense
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		expense, err := models.CreateExpense(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, expense)
	}
}

func updateExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewExpense
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		expense, err := models.UpdateExpense(c.Request.Context(), id, &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

func deleteExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		expense, err := models.DeleteExpense(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

/* register (cart + checkout) */

func getCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := models.GetCart(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func addCartItemHandler() gin.HandlerFunc {
	type addInput struct {
		ProductId int `json:"product_id" binding:"required"`
		Qty       int `json:"qty"`
	}
	return func(c *gin.Context) {
		var input addInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Qty == 0 {
			input.Qty = 1
		}
		cart, err := models.AddCartItem(c.Request.Context(), input.ProductId, input.Qty)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func changeCartQuantityHandler() gin.HandlerFunc {
	type changeInput struct {
		Delta int `json:"delta" binding:"required"`
	}
	return func(c *gin.Context) {
		productId, err := strconv.Atoi(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		var input changeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cart, err := models.ChangeCartQuantity(c.Request.Context(), productId, input.Delta)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func removeCartItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productId, err := strconv.Atoi(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}
		cart, err := models.RemoveCartItem(c.Request.Context(), productId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func clearCartHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := models.ClearCart(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func previewPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.PaymentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		preview, err := models.PreviewPayment(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, preview)
	}
}

func checkoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSalesInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoice, err := models.CreateSalesInvoice(c.Request.Context(), &input)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

/* invoices */

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoices, err := models.ListSalesInvoices(c.Request.Context(), c.Query("date"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		invoice, err := models.GetSalesInvoice(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

/* dashboard & reports */

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := models.GetDashboardSummary(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func salesReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to := c.Query("from"), c.Query("to")
		if from == "" || to == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required (YYYY-MM-DD)"})
			return
		}
		report, err := reports.GetSalesSummaryReport(c.Request.Context(), from, to)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func salesReportExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to := c.Query("from"), c.Query("to")
		if from == "" || to == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required (YYYY-MM-DD)"})
			return
		}
		f, err := reports.BuildSalesSummaryExcel(c.Request.Context(), from, to)
		if err != nil {
			abortWithError(c, err)
			return
		}
		filename := fmt.Sprintf("sales_%s_%s.xlsx", from, to)
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "server.go", "salesReportExportHandler", "Write xlsx", filename, err)
		}
	}
}

/* internal ops */

func stockDriftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		shopId := c.Query("shop_id")
		if shopId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shop_id is required"})
			return
		}
		rows, err := workflow.DetectStockDrift(c.Request.Context(), shopId)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"drifted": len(rows), "rows": rows})
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Shop-Id", "X-Session-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))
	r.Use(gin.Recovery())
	r.NoRoute(customNotFoundHandler)

	r.POST("/auth/login", loginHandler())

	api := r.Group("/", middlewares.AuthMiddleware(), middlewares.SessionMiddleware())
	{
		api.GET("/shops", listShopsHandler())

		api.GET("/products", listProductsHandler())
		api.POST("/products", createProductHandler())
		api.GET("/products/:id", getProductHandler())
		api.PUT("/products/:id", updateProductHandler())
		api.DELETE("/products/:id", deleteProductHandler())

		api.GET("/customers", listCustomersHandler())
		api.POST("/customers", createCustomerHandler())
		api.PUT("/customers/:id", updateCustomerHandler())
		api.DELETE("/customers/:id", deleteCustomerHandler())

		api.GET("/expenses", listExpensesHandler())
		api.POST("/expenses", createExpenseHandler())
		api.PUT("/expenses/:id", updateExpenseHandler())
		api.DELETE("/expenses/:id", deleteExpenseHandler())

		api.GET("/pos/cart", getCartHandler())
		api.POST("/pos/cart/items", addCartItemHandler())
		api.POST("/pos/cart/items/:productId/quantity", changeCartQuantityHandler())
		api.DELETE("/pos/cart/items/:productId", removeCartItemHandler())
		api.DELETE("/pos/cart", clearCartHandler())
		api.POST("/pos/payment/preview", previewPaymentHandler())
		api.POST("/pos/checkout", checkoutHandler())

		api.GET("/invoices", listInvoicesHandler())
		api.GET("/invoices/:id", getInvoiceHandler())

		api.GET("/dashboard/summary", dashboardHandler())
		api.GET("/reports/sales", salesReportHandler())
		api.GET("/reports/sales/export", salesReportExportHandler())
	}

	admin := r.Group("/", middlewares.AuthMiddleware(), middlewares.AdminOnly())
	{
		admin.POST("/shops", createShopHandler())
		admin.POST("/users", createUserHandler())
		admin.GET("/internal/ops/stock-drift", stockDriftHandler())
	}

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
