// Package seed loads the initial product catalog and coupon set from YAML
// documents. Sources may be local paths or http(s) URLs; a ".gz" suffix
// marks gzip-compressed content.
package seed

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Data is the decoded seed content
type Data struct {
	Products []models.Product
	Coupons  []models.Coupon
}

type productsDocument struct {
	Products []models.Product `yaml:"products"`
}

type couponsDocument struct {
	Coupons []models.Coupon `yaml:"coupons"`
}

// Load reads both sources concurrently. An empty source leaves that part of Data nil
// so callers can fall back to built-in defaults.
func Load(ctx context.Context, productsSrc, couponsSrc string) (*Data, error) {
	var data Data
	g, ctx := errgroup.WithContext(ctx)

	if productsSrc != "" {
		g.Go(func() error {
			var doc productsDocument
			if err := decode(ctx, productsSrc, &doc); err != nil {
				return fmt.Errorf("failed to load products from %s: %w", productsSrc, err)
			}
			for _, p := range doc.Products {
				if err := p.Validate(); err != nil {
					return fmt.Errorf("product %q in %s: %w", p.ID, productsSrc, err)
				}
			}
			data.Products = doc.Products
			return nil
		})
	}

	if couponsSrc != "" {
		g.Go(func() error {
			var doc couponsDocument
			if err := decode(ctx, couponsSrc, &doc); err != nil {
				return fmt.Errorf("failed to load coupons from %s: %w", couponsSrc, err)
			}
			var coupons []models.Coupon
			for _, c := range doc.Coupons {
				var err error
				if coupons, err = coupon.Add(coupons, c); err != nil {
					return fmt.Errorf("coupon %q in %s: %w", c.Code, couponsSrc, err)
				}
			}
			data.Coupons = coupons
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

// decode opens src, transparently un-gzips it and decodes YAML into out
func decode(ctx context.Context, src string, out interface{}) error {
	rc, err := open(ctx, src)
	if err != nil {
		return err
	}
	defer rc.Close()

	var r io.Reader = rc
	if strings.HasSuffix(src, ".gz") {
		gzReader, err := gzip.NewReader(rc)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	if err := yaml.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("failed to decode yaml: %w", err)
	}
	return nil
}

func open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}
