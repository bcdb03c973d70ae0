package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

// Two registers selling the last unit at the same time: exactly one
// checkout may land. The old flow validated against a cached stock
// snapshot before writing, so both sales could pass validation and the
// stock went negative.
func TestCheckoutConcurrentFinalizeNeverOversells(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "pos_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	shop, err := models.CreateShop(ctx, &models.NewShop{Name: "Test Shop"})
	if err != nil {
		t.Fatalf("CreateShop: %v", err)
	}
	shopCtx := utils.SetShopIdInContext(ctx, shop.ID.String())

	product, err := models.CreateProduct(shopCtx, &models.NewProduct{
		Name:      "Last Unit",
		Barcode:   "LAST-001",
		SellPrice: decimal.NewFromInt(500),
		BuyPrice:  decimal.NewFromInt(300),
		Stock:     1,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	// Two independent register sessions, each with the unit in its cart.
	// Both carts pass the add-time ceiling check because neither sale has
	// landed yet; only the finalize decides.
	sessionA := utils.SetSessionIdInContext(shopCtx, "register-a")
	sessionB := utils.SetSessionIdInContext(shopCtx, "register-b")
	if _, err := models.AddCartItem(sessionA, product.ID, 1); err != nil {
		t.Fatalf("AddCartItem session A: %v", err)
	}
	if _, err := models.AddCartItem(sessionB, product.ID, 1); err != nil {
		t.Fatalf("AddCartItem session B: %v", err)
	}

	input := models.NewSalesInvoice{
		CustomerName: "Walk-in",
		CashReceived: decimal.NewFromInt(500),
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, sessionCtx := range []context.Context{sessionA, sessionB} {
		wg.Add(1)
		go func(i int, sessionCtx context.Context) {
			defer wg.Done()
			in := input
			_, results[i] = models.CreateSalesInvoice(sessionCtx, &in)
		}(i, sessionCtx)
	}
	wg.Wait()

	succeeded, exceeded := 0, 0
	for i, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrorStockExceeded):
			exceeded++
		default:
			t.Fatalf("checkout %d: unexpected error: %v", i, err)
		}
	}
	if succeeded != 1 || exceeded != 1 {
		t.Fatalf("expected exactly one sale and one stock rejection, got %d sales / %d rejections", succeeded, exceeded)
	}

	db := config.GetDB()
	var stock int
	if err := db.WithContext(ctx).Model(&models.Product{}).Select("stock").
		Where("id = ?", product.ID).Scan(&stock).Error; err != nil {
		t.Fatalf("read stock: %v", err)
	}
	if stock != 0 {
		t.Fatalf("expected stock 0 after the single sale, got %d", stock)
	}

	var invoiceCount int64
	if err := db.WithContext(ctx).Model(&models.SalesInvoice{}).
		Where("shop_id = ?", shop.ID.String()).Count(&invoiceCount).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if invoiceCount != 1 {
		t.Fatalf("expected exactly one invoice, got %d", invoiceCount)
	}

	// The losing session keeps its cart so the operator can adjust it.
	loser := sessionA
	if results[0] == nil {
		loser = sessionB
	}
	cart, err := models.GetCart(loser)
	if err != nil {
		t.Fatalf("GetCart losing session: %v", err)
	}
	if cart.IsEmpty() {
		t.Fatalf("losing session's cart must survive the rejected checkout")
	}

	// Guard-rail checks on the survivor path share the containers.

	// Empty cart cannot finalize and writes nothing.
	empty := utils.SetSessionIdInContext(shopCtx, "register-empty")
	if _, err := models.CreateSalesInvoice(empty, &input); !errors.Is(err, models.ErrorEmptyCart) {
		t.Fatalf("empty cart expected ErrorEmptyCart, got %v", err)
	}

	// Customer name is required once the cart is non-empty.
	stocked, err := models.CreateProduct(shopCtx, &models.NewProduct{
		Name:      "Stocked",
		SellPrice: decimal.NewFromInt(100),
		BuyPrice:  decimal.NewFromInt(60),
		Stock:     10,
	})
	if err != nil {
		t.Fatalf("CreateProduct stocked: %v", err)
	}
	named := utils.SetSessionIdInContext(shopCtx, "register-named")
	if _, err := models.AddCartItem(named, stocked.ID, 1); err != nil {
		t.Fatalf("AddCartItem named session: %v", err)
	}
	noName := models.NewSalesInvoice{CashReceived: decimal.NewFromInt(100)}
	if _, err := models.CreateSalesInvoice(named, &noName); !errors.Is(err, models.ErrorMissingCustomerName) {
		t.Fatalf("blank customer name expected ErrorMissingCustomerName, got %v", err)
	}

	// Picking a Wholesale customer on the payment step defaults the
	// discount to the tier percent.
	wholesale, err := models.CreateCustomer(shopCtx, &models.NewCustomer{
		Name:  "Bulk Buyer",
		Phone: "+8801712345678",
		Type:  models.CustomerTypeWholesale,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	preview, err := models.PreviewPayment(named, &models.PaymentInput{
		CustomerId:   wholesale.ID,
		CashReceived: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("PreviewPayment: %v", err)
	}
	if !preview.DiscountPercent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("Wholesale default expected 10%%, got %s", preview.DiscountPercent.String())
	}
	if !preview.Payable.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected payable 90, got %s", preview.Payable.String())
	}
	if !preview.ChangeAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected change 10, got %s", preview.ChangeAmount.String())
	}

	// A finalize holding the session lock rejects a second attempt.
	lock, err := config.GetRedisLock().Obtain(ctx, "Checkout:"+shop.ID.String()+":register-named", 30*time.Second, nil)
	if err != nil {
		t.Fatalf("obtain checkout lock: %v", err)
	}
	defer lock.Release(context.Background())
	withName := models.NewSalesInvoice{CustomerName: "Walk-in", CashReceived: decimal.NewFromInt(100)}
	if _, err := models.CreateSalesInvoice(named, &withName); !errors.Is(err, models.ErrorFinalizeInFlight) {
		t.Fatalf("held lock expected ErrorFinalizeInFlight, got %v", err)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("pos-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("pos-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=pos_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
