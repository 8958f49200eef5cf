package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"budgettracker/internal/core"
)

// The budget API is document-store backed: identifiers may arrive as
// "_id" or "id", and a budget's categoryId may be populated with the
// whole category.

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type categoryWire struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

func (c categoryWire) id() string {
	if c.ID != "" {
		return c.ID
	}
	return c.MongoID
}

func (c categoryWire) toCore() core.Category {
	return core.Category{ID: c.id(), Name: c.Name, Color: c.Color}
}

type categoryBody struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// categoryRefWire decodes either "categoryId": "abc" or
// "categoryId": {"_id": "abc", "name": ..., "color": ...}.
type categoryRefWire struct {
	ref core.CategoryRef
}

func (r *categoryRefWire) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		r.ref = core.CategoryRef{}
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		r.ref = core.CategoryRef{ID: id}
		return nil
	case data[0] == '{':
		var c categoryWire
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		r.ref = core.CategoryRef{ID: c.id(), Name: c.Name, Color: c.Color}
		return nil
	default:
		return fmt.Errorf("categoryId: unexpected JSON %s", data)
	}
}

type budgetWire struct {
	ID         string          `json:"id"`
	MongoID    string          `json:"_id"`
	CategoryID categoryRefWire `json:"categoryId"`
	Limit      float64         `json:"limit"`
	Month      string          `json:"month"`
}

func (b budgetWire) toCore() core.Budget {
	id := b.ID
	if id == "" {
		id = b.MongoID
	}
	month, _ := core.ParseMonth(b.Month)
	return core.Budget{
		ID:       id,
		Category: b.CategoryID.ref,
		Limit:    core.FromFloat(b.Limit),
		Month:    month,
	}
}

type budgetBody struct {
	CategoryID string  `json:"categoryId"`
	Limit      float64 `json:"limit"`
	Month      string  `json:"month"`
}

type budgetLimitBody struct {
	Limit float64 `json:"limit"`
}

type expenseBody struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CategoryID  string  `json:"categoryId"`
}

type dashboardWire struct {
	ID        string  `json:"id"`
	MongoID   string  `json:"_id"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	Spent     float64 `json:"spent"`
	Limit     float64 `json:"limit"`
	Remaining float64 `json:"remaining"`
}

func (d dashboardWire) toCore() core.DashboardCategory {
	id := d.ID
	if id == "" {
		id = d.MongoID
	}
	return core.DashboardCategory{
		ID:        id,
		Name:      d.Name,
		Color:     d.Color,
		Spent:     core.FromFloat(d.Spent),
		Limit:     core.FromFloat(d.Limit),
		Remaining: core.FromFloat(d.Remaining),
	}
}

type reportWire struct {
	CategoryID   string  `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
	Spent        float64 `json:"spent"`
	Budget       float64 `json:"budget"`
	Remaining    float64 `json:"remaining"`
}

func (r reportWire) toCore() core.ReportRow {
	return core.ReportRow{
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Spent:        core.FromFloat(r.Spent),
		Budget:       core.FromFloat(r.Budget),
		Remaining:    core.FromFloat(r.Remaining),
	}
}
