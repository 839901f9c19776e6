// Package seed loads customer and product fixtures from YAML and writes
// them through the admin service.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/cimillas/order-service/internal/app"
	"github.com/cimillas/order-service/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFixture []byte

type Fixture struct {
	Customers []Customer `yaml:"customers"`
	Products  []Product  `yaml:"products"`
}

type Customer struct {
	ID        int64  `yaml:"id"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

// Product keeps the price as text so YAML floats never touch it.
type Product struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Stock       int    `yaml:"stock"`
}

// Target is the write side the fixture is applied to.
type Target interface {
	UpsertCustomer(ctx context.Context, in app.CustomerInput) (domain.Customer, error)
	UpsertProduct(ctx context.Context, in app.ProductInput) (domain.Product, error)
}

// Default returns the built-in fixture.
func Default() (Fixture, error) {
	return Parse(defaultFixture)
}

// Load reads a fixture file; an empty path selects the built-in one.
func Load(path string) (Fixture, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return f, nil
}

// Result counts what Apply wrote.
type Result struct {
	Customers int
	Products  int
}

// Apply writes customers first, then products. It stops at the first
// record the target rejects.
func Apply(ctx context.Context, target Target, f Fixture) (Result, error) {
	var res Result
	for _, c := range f.Customers {
		if _, err := target.UpsertCustomer(ctx, app.CustomerInput{
			ID:        c.ID,
			Email:     c.Email,
			FirstName: c.FirstName,
			LastName:  c.LastName,
		}); err != nil {
			return res, fmt.Errorf("seed customer %q: %w", c.Email, err)
		}
		res.Customers++
	}
	for _, p := range f.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return res, fmt.Errorf("seed product %q: invalid price %q: %w", p.Name, p.Price, err)
		}
		if _, err := target.UpsertProduct(ctx, app.ProductInput{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Stock:       p.Stock,
		}); err != nil {
			return res, fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		res.Products++
	}
	return res, nil
}
