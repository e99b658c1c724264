// Package seed populates the pedidos table with synthetic delivery orders.
package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/orderlens/orderlens/internal/store"
)

type product struct {
	name     string
	category string
	price    float64
	cost     float64
}

var products = []product{
	{"Pizza Calabresa", "Pizza", 34.00, 16.00},
	{"Pizza Marguerita", "Pizza", 36.00, 18.00},
	{"Pizza Portuguesa", "Pizza", 38.00, 20.00},
	{"Hambúrguer Duplo", "Lanche", 45.00, 15.00},
	{"Combo Burguer + Refri", "Lanche", 55.00, 18.00},
	{"Coca-Cola 2L", "Bebida", 10.00, 4.00},
	{"Pizza Quatro Queijos", "Pizza", 36.00, 18.00},
	{"Esfirra de Carne", "Lanche", 28.00, 12.00},
	{"Água com Gás", "Bebida", 5.00, 1.50},
	{"Suco Natural", "Bebida", 12.00, 3.00},
}

var cities = []string{"São Paulo", "Rio de Janeiro", "Belo Horizonte"}

var neighborhoods = map[string][]string{
	"São Paulo":      {"Moema", "Pinheiros", "Vila Mariana", "Tatuapé", "Itaim Bibi"},
	"Rio de Janeiro": {"Copacabana", "Barra", "Tijuca", "Leblon", "Botafogo"},
	"Belo Horizonte": {"Savassi", "Centro", "Pampulha", "Funcionários", "Serra"},
}

var paymentMethods = []string{"Cartão", "Pix", "Dinheiro"}

var firstNames = []string{
	"Ana", "Bruno", "Camila", "Diego", "Eduarda", "Felipe", "Gabriela",
	"Henrique", "Isabela", "João", "Larissa", "Marcos", "Natália", "Otávio",
	"Patrícia", "Rafael", "Sofia", "Thiago", "Vitória", "William",
}

var lastNames = []string{
	"Almeida", "Barbosa", "Cardoso", "Dias", "Ferreira", "Gomes", "Lima",
	"Martins", "Nascimento", "Oliveira", "Pereira", "Ribeiro", "Santos",
	"Souza", "Teixeira",
}

// Generator produces deterministic synthetic orders for a given seed value.
type Generator struct {
	rnd      *rand.Rand
	baseDate time.Time
	next     int64
}

func NewGenerator(seedValue int64) *Generator {
	return &Generator{
		rnd:      rand.New(rand.NewSource(seedValue)),
		baseDate: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
}

// NextOrder draws one order: a catalog product, a city with one of its
// neighborhoods, a quantity of 1-5, a delivery time of 20-80 minutes and an
// order date within 90 days of the base date. The total is price times
// quantity.
func (g *Generator) NextOrder() store.Order {
	g.next++
	item := products[g.rnd.Intn(len(products))]
	city := cities[g.rnd.Intn(len(cities))]
	bairros := neighborhoods[city]
	quantity := g.rnd.Intn(5) + 1

	return store.Order{
		ID:            g.next,
		Customer:      g.customerName(),
		City:          city,
		Neighborhood:  bairros[g.rnd.Intn(len(bairros))],
		Product:       item.name,
		Category:      item.category,
		OrderDate:     g.baseDate.AddDate(0, 0, g.rnd.Intn(90)),
		TotalValue:    round2(item.price * float64(quantity)),
		DeliveryTime:  g.rnd.Intn(61) + 20,
		Quantity:      quantity,
		UnitCost:      item.cost,
		PaymentMethod: paymentMethods[g.rnd.Intn(len(paymentMethods))],
	}
}

// Orders draws n orders in one batch.
func (g *Generator) Orders(n int) []store.Order {
	orders := make([]store.Order, 0, n)
	for i := 0; i < n; i++ {
		orders = append(orders, g.NextOrder())
	}
	return orders
}

func (g *Generator) customerName() string {
	return fmt.Sprintf("%s %s",
		firstNames[g.rnd.Intn(len(firstNames))],
		lastNames[g.rnd.Intn(len(lastNames))],
	)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
