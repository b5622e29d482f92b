// Package testdata generates realistic seed data for local development
// and load testing. Nothing in here touches production paths.
package testdata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/expenses"
	"github.com/propdeskhq/propdesk/pkg/leads"
	"github.com/propdeskhq/propdesk/pkg/owners"
	"github.com/propdeskhq/propdesk/pkg/properties"
	"github.com/propdeskhq/propdesk/pkg/workorders"
)

// GeneratorConfig controls how much seed data to produce and how
// complete each record should be.
type GeneratorConfig struct {
	Owners          int
	PropertiesPer   int     // properties per owner
	Leads           int
	WorkOrders      int
	Expenses        int
	MessagesPerLead int     // communications generated per lead
	EmailChance     float64 // 0.0-1.0 probability a lead has an email
	PhoneChance     float64
	Seed            int64 // 0 means time-based
}

// DefaultConfig is a sensible size for a local dev database.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Owners:          10,
		PropertiesPer:   3,
		Leads:           50,
		WorkOrders:      25,
		Expenses:        40,
		MessagesPerLead: 4,
		EmailChance:     0.8,
		PhoneChance:     0.95,
	}
}

var leadStages = []string{"new", "contacted", "touring", "applied", "leased", "lost"}

var leadSources = []string{"zillow", "apartments.com", "referral", "website", "walk-in", "ghl"}

var propertyStatuses = []string{"vacant", "listed", "occupied"}

var workOrderTitles = []string{
	"Leaking kitchen faucet",
	"HVAC not cooling",
	"Garbage disposal jammed",
	"Broken window latch",
	"Water heater pilot light out",
	"Smoke detector chirping",
	"Garage door opener dead",
	"Toilet running constantly",
	"Dishwasher not draining",
	"Front door lock sticking",
}

var smsBodies = []string{
	"Hi, is the unit still available?",
	"Thanks for the quick response!",
	"Can we schedule a tour this weekend?",
	"What utilities are included in the rent?",
	"Just sent over the application.",
	"Is the property pet friendly?",
	"Following up on my application status.",
	"The maintenance issue is fixed, thank you.",
}

// Generator produces linked seed records. IDs are assigned
// sequentially so foreign keys line up without a database round trip.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Dataset is everything one generation run produced, with foreign keys
// already consistent across the slices.
type Dataset struct {
	Owners         []owners.Owner
	Properties     []properties.Property
	Leads          []leads.Lead
	WorkOrders     []workorders.WorkOrder
	Expenses       []expenses.Expense
	Communications []comms.Record
}

// Generate builds a full linked dataset.
func (g *Generator) Generate() *Dataset {
	ds := &Dataset{}

	for i := 0; i < g.cfg.Owners; i++ {
		ds.Owners = append(ds.Owners, g.owner(i+1))
	}
	propID := 1
	for _, o := range ds.Owners {
		for j := 0; j < g.cfg.PropertiesPer; j++ {
			ds.Properties = append(ds.Properties, g.property(propID, o.ID))
			propID++
		}
	}
	for i := 0; i < g.cfg.Leads; i++ {
		ds.Leads = append(ds.Leads, g.lead(i+1, ds.Properties))
	}
	for i := 0; i < g.cfg.WorkOrders; i++ {
		ds.WorkOrders = append(ds.WorkOrders, g.workOrder(i+1, ds.Properties))
	}
	for i := 0; i < g.cfg.Expenses; i++ {
		ds.Expenses = append(ds.Expenses, g.expense(i+1, ds.Properties, ds.WorkOrders))
	}
	for _, l := range ds.Leads {
		for j := 0; j < g.cfg.MessagesPerLead; j++ {
			ds.Communications = append(ds.Communications, g.message(l, j))
		}
	}
	return ds
}

func (g *Generator) owner(id int) owners.Owner {
	created := g.pastDate(720)
	return owners.Owner{
		ID:        id,
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Phone:     g.phone(),
		Company:   gofakeit.Company(),
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (g *Generator) property(id, ownerID int) properties.Property {
	created := g.pastDate(720)
	oid := ownerID
	return properties.Property{
		ID:        id,
		OwnerID:   &oid,
		Address:   gofakeit.Street(),
		Unit:      g.maybe(0.3, fmt.Sprintf("Unit %d", g.rng.Intn(20)+1)),
		City:      gofakeit.City(),
		State:     gofakeit.StateAbr(),
		Zip:       gofakeit.Zip(),
		Bedrooms:  g.rng.Intn(4) + 1,
		Bathrooms: float64(g.rng.Intn(5)+2) / 2, // 1.0 to 3.0
		Rent:      float64(g.rng.Intn(2500)+800),
		Status:    propertyStatuses[g.rng.Intn(len(propertyStatuses))],
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (g *Generator) lead(id int, props []properties.Property) leads.Lead {
	created := g.pastDate(90)
	l := leads.Lead{
		ID:        id,
		Name:      gofakeit.Name(),
		Stage:     leadStages[g.rng.Intn(len(leadStages))],
		Source:    leadSources[g.rng.Intn(len(leadSources))],
		CreatedAt: created,
		UpdatedAt: created,
	}
	if g.chance(g.cfg.EmailChance) {
		l.Email = strings.ToLower(gofakeit.Email())
	}
	if g.chance(g.cfg.PhoneChance) {
		l.Phone = g.phone()
	}
	if len(props) > 0 && g.chance(0.6) {
		pid := props[g.rng.Intn(len(props))].ID
		l.PropertyID = &pid
	}
	return l
}

func (g *Generator) workOrder(id int, props []properties.Property) workorders.WorkOrder {
	created := g.pastDate(60)
	wo := workorders.WorkOrder{
		ID:          id,
		Title:       workOrderTitles[g.rng.Intn(len(workOrderTitles))],
		Description: gofakeit.Sentence(12),
		Priority:    []string{"low", "normal", "normal", "high", "emergency"}[g.rng.Intn(5)],
		Status:      []workorders.Status{workorders.StatusOpen, workorders.StatusInProgress, workorders.StatusCompleted}[g.rng.Intn(3)],
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if len(props) > 0 {
		pid := props[g.rng.Intn(len(props))].ID
		wo.PropertyID = &pid
	}
	return wo
}

func (g *Generator) expense(id int, props []properties.Property, orders []workorders.WorkOrder) expenses.Expense {
	categories := []string{"maintenance", "maintenance", "utilities", "taxes", "insurance", "other"}
	e := expenses.Expense{
		ID:          id,
		Category:    categories[g.rng.Intn(len(categories))],
		Description: gofakeit.Sentence(6),
		Amount:      float64(g.rng.Intn(95000)+500) / 100,
		IncurredAt:  g.pastDate(365),
		CreatedAt:   time.Now(),
	}
	if len(props) > 0 && g.chance(0.8) {
		pid := props[g.rng.Intn(len(props))].ID
		e.PropertyID = &pid
	}
	if e.Category == "maintenance" && len(orders) > 0 && g.chance(0.5) {
		wid := orders[g.rng.Intn(len(orders))].ID
		e.WorkOrderID = &wid
	}
	return e
}

func (g *Generator) message(l leads.Lead, n int) comms.Record {
	leadID := l.ID
	direction := comms.DirectionInbound
	status := comms.StatusReceived
	if n%2 == 1 {
		direction = comms.DirectionOutbound
		status = comms.StatusSent
	}
	from, to := l.Phone, "+14045550100"
	if from == "" {
		from = g.phone()
	}
	if direction == comms.DirectionOutbound {
		from, to = to, from
	}
	return comms.Record{
		ID:          gofakeit.UUID(),
		LeadID:      &leadID,
		Type:        comms.TypeSMS,
		Direction:   direction,
		Body:        smsBodies[g.rng.Intn(len(smsBodies))],
		FromAddress: from,
		ToAddress:   to,
		ExternalID:  gofakeit.UUID(),
		Status:      status,
		IsRead:      direction == comms.DirectionOutbound || g.chance(0.5),
		CreatedAt:   l.CreatedAt.Add(time.Duration(n) * time.Hour),
	}
}

func (g *Generator) phone() string {
	return fmt.Sprintf("+1404555%04d", g.rng.Intn(10000))
}

func (g *Generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *Generator) maybe(p float64, v string) string {
	if g.chance(p) {
		return v
	}
	return ""
}

func (g *Generator) pastDate(maxDays int) time.Time {
	return time.Now().Add(-time.Duration(g.rng.Intn(maxDays*24)) * time.Hour)
}
