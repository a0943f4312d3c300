package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/client"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
)

type outcome struct {
	status   int
	replayed bool
}

// scenario runs one shopper against a fresh session.
type scenario func(ctx context.Context, c *client.Client, products []catalog.Product, items int) (outcome, error)

var scenarios = map[string]scenario{
	"checkout": checkoutScenario,
	"replay":   replayScenario,
	"browse":   browseScenario,
}

var benchAddress = domain.Address{
	Name:       "Bench Shopper",
	Line1:      "1 Load Test Way",
	City:       "Springfield",
	PostalCode: "00000",
}

func main() {
	baseURL := flag.String("base-url", getenv("STOREFRONT_URL", "http://localhost:8080"), "storefront base URL")
	name := flag.String("scenario", "checkout", "scenario to run: checkout|replay|browse")
	total := flag.Int("total", 1000, "total number of shopper runs")
	concurrency := flag.Int("concurrency", 10, "number of concurrent shoppers")
	items := flag.Int("items", 3, "distinct products per cart")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	output := flag.String("output", "", "optional output path for JSON result")
	flag.Parse()

	if *total <= 0 {
		fmt.Fprintln(os.Stderr, "total must be > 0")
		os.Exit(1)
	}
	if *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency must be > 0")
		os.Exit(1)
	}
	run, ok := scenarios[*name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *name)
		os.Exit(1)
	}

	ctx := context.Background()
	products, err := shoppable(ctx, *baseURL, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: *timeout}
	m := newMetrics()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)

	start := time.Now()
	for i := 0; i < *total; i++ {
		g.Go(func() error {
			c := client.New(*baseURL, "")
			c.HTTP = httpClient
			t0 := time.Now()
			out, err := run(gctx, c, products, *items)
			m.record(time.Since(t0), out, err)
			return nil
		})
	}
	_ = g.Wait()

	result := m.result(time.Since(start))
	result.Timestamp = time.Now().UTC().Format(time.RFC3339)
	result.BaseURL = *baseURL
	result.Scenario = *name
	result.Transactions = *total
	result.Concurrency = *concurrency
	result.ItemsPerCart = *items

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		if err := writeJSON(*output, result); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
			os.Exit(1)
		}
	}
}

// shoppable returns the in-stock over-the-counter products, which a bench
// cart can check out without prescriptions.
func shoppable(ctx context.Context, baseURL string, timeout time.Duration) ([]catalog.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	otc := false
	page, err := client.New(baseURL, "").ListProducts(ctx, client.ProductQuery{
		Prescription: &otc,
		InStockOnly:  true,
		PageSize:     100,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Products) == 0 {
		return nil, errors.New("no in-stock over-the-counter products")
	}
	return page.Products, nil
}

func fillCart(ctx context.Context, c *client.Client, products []catalog.Product, items int) error {
	for _, i := range rand.Perm(len(products))[:min(items, len(products))] {
		if _, err := c.AddItem(ctx, products[i].ID, 1+rand.IntN(2), "", ""); err != nil {
			return err
		}
	}
	return nil
}

func checkoutScenario(ctx context.Context, c *client.Client, products []catalog.Product, items int) (outcome, error) {
	if err := fillCart(ctx, c, products, items); err != nil {
		return outcome{}, err
	}
	_, replayed, err := c.Checkout(ctx, benchAddress, uuid.NewString())
	if err != nil {
		return outcome{}, err
	}
	return statusOf(replayed), nil
}

// replayScenario checks out twice with one key. The second call must come
// back as a replay of the first order.
func replayScenario(ctx context.Context, c *client.Client, products []catalog.Product, items int) (outcome, error) {
	if err := fillCart(ctx, c, products, items); err != nil {
		return outcome{}, err
	}
	key := uuid.NewString()
	first, _, err := c.Checkout(ctx, benchAddress, key)
	if err != nil {
		return outcome{}, err
	}
	second, replayed, err := c.Checkout(ctx, benchAddress, key)
	if err != nil {
		return outcome{}, err
	}
	if !replayed || second.ID != first.ID {
		return outcome{}, fmt.Errorf("retry placed a second order: %s then %s", first.ID, second.ID)
	}
	return statusOf(true), nil
}

func browseScenario(ctx context.Context, c *client.Client, products []catalog.Product, _ int) (outcome, error) {
	if _, err := c.ListProducts(ctx, client.ProductQuery{Sort: catalog.SortRating}); err != nil {
		return outcome{}, err
	}
	if _, err := c.GetProduct(ctx, products[rand.IntN(len(products))].ID); err != nil {
		return outcome{}, err
	}
	return outcome{status: http.StatusOK}, nil
}

func statusOf(replayed bool) outcome {
	if replayed {
		return outcome{status: http.StatusOK, replayed: true}
	}
	return outcome{status: http.StatusCreated}
}

func writeJSON(path string, result benchResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
