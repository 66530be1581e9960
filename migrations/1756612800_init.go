package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		users.Fields.Add(
			&core.BoolField{Name: "is_admin"},
			&core.TextField{Name: "phone"},
		)
		if err := app.Save(users); err != nil {
			return err
		}

		events := core.NewBaseCollection("events")
		events.Fields.Add(
			&core.RelationField{Name: "organizer", CollectionId: users.Id, MaxSelect: 1, Required: true},
			&core.TextField{Name: "name", Required: true, Max: 255},
			&core.TextField{Name: "description", Max: 5000},
			&core.DateField{Name: "start_date", Required: true},
			&core.DateField{Name: "end_date", Required: true},
			&core.SelectField{Name: "status", Values: []string{"draft", "active", "inactive", "ended"}, MaxSelect: 1, Required: true},
			&core.BoolField{Name: "is_published"},
			&core.BoolField{Name: "admin_unpublished"},
			&core.TextField{Name: "custom_ticket_url", Max: 255},
			&core.FileField{Name: "image", MaxSelect: 5, MaxSize: 5242880, MimeTypes: []string{"image/jpeg", "image/png", "image/gif"}},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		// only one live event may claim a custom url at a time
		events.AddIndex("idx_events_custom_url_active", true, "custom_ticket_url",
			"status = 'active' AND custom_ticket_url != ''")
		if err := app.Save(events); err != nil {
			return err
		}

		tickets := core.NewBaseCollection("tickets")
		tickets.Fields.Add(
			&core.RelationField{Name: "event", CollectionId: events.Id, MaxSelect: 1, Required: true, CascadeDelete: true},
			&core.TextField{Name: "name", Required: true, Max: 255},
			&core.NumberField{Name: "price"},
			&core.NumberField{Name: "final_price"},
			&core.BoolField{Name: "transfer_fee"},
			&core.NumberField{Name: "quantity", OnlyInt: true},
			&core.NumberField{Name: "sold", OnlyInt: true},
			&core.TextField{Name: "unique_code", Required: true, Max: 32},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		tickets.AddIndex("idx_tickets_unique_code", true, "unique_code", "")
		if err := app.Save(tickets); err != nil {
			return err
		}

		promos := core.NewBaseCollection("promo_codes")
		promos.Fields.Add(
			&core.RelationField{Name: "event", CollectionId: events.Id, MaxSelect: 1, Required: true, CascadeDelete: true},
			&core.TextField{Name: "code", Required: true, Max: 64},
			&core.SelectField{Name: "discount_type", Values: []string{"percentage", "fixed"}, MaxSelect: 1, Required: true},
			&core.NumberField{Name: "value"},
			&core.NumberField{Name: "usage_limit", OnlyInt: true},
			&core.NumberField{Name: "times_used", OnlyInt: true},
			&core.DateField{Name: "expiry_date"},
			&core.RelationField{Name: "applies_to", CollectionId: tickets.Id, MaxSelect: 999},
			&core.SelectField{Name: "status", Values: []string{"Active", "Closed", "Expired"}, MaxSelect: 1, Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		promos.AddIndex("idx_promo_event_code", true, "`event`, `code`", "")
		if err := app.Save(promos); err != nil {
			return err
		}

		sales := core.NewBaseCollection("ticket_sales")
		sales.Fields.Add(
			&core.RelationField{Name: "event", CollectionId: events.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "ticket", CollectionId: tickets.Id, MaxSelect: 1, Required: true},
			&core.TextField{Name: "buyer_name", Required: true, Max: 255},
			&core.EmailField{Name: "buyer_email", Required: true},
			&core.TextField{Name: "buyer_phone", Max: 32},
			&core.NumberField{Name: "quantity", OnlyInt: true, Required: true},
			&core.NumberField{Name: "unit_price"},
			&core.NumberField{Name: "total_amount"},
			&core.NumberField{Name: "revenue"},
			&core.TextField{Name: "payment_reference", Required: true, Max: 64},
			&core.TextField{Name: "payment_method", Max: 32},
			&core.SelectField{Name: "payment_status", Values: []string{"Pending", "Successful", "Failed"}, MaxSelect: 1, Required: true},
			&core.SelectField{Name: "status", Values: []string{"Paid", "Cancelled", "Refunded"}, MaxSelect: 1, Required: true},
			&core.BoolField{Name: "checked_in"},
			&core.DateField{Name: "check_in_time"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		// idempotency key for gateway confirmations
		sales.AddIndex("idx_sales_payment_reference", true, "payment_reference", "")
		if err := app.Save(sales); err != nil {
			return err
		}

		payouts := core.NewBaseCollection("payouts")
		payouts.Fields.Add(
			&core.RelationField{Name: "event", CollectionId: events.Id, MaxSelect: 1, Required: true},
			&core.RelationField{Name: "organizer", CollectionId: users.Id, MaxSelect: 1, Required: true},
			&core.NumberField{Name: "amount", Required: true},
			&core.SelectField{Name: "status", Values: []string{"Pending", "Processing", "Completed", "Cancelled"}, MaxSelect: 1, Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		if err := app.Save(payouts); err != nil {
			return err
		}

		summaries := core.NewBaseCollection("monthly_summaries")
		summaries.Fields.Add(
			&core.TextField{Name: "month", Required: true, Max: 7},
			&core.NumberField{Name: "total_tickets_sold", OnlyInt: true},
			&core.NumberField{Name: "total_ticket_amount"},
			&core.NumberField{Name: "total_revenue"},
			&core.NumberField{Name: "total_payouts"},
			&core.NumberField{Name: "balance"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		summaries.AddIndex("idx_summaries_month", true, "month", "")
		if err := app.Save(summaries); err != nil {
			return err
		}

		fees := core.NewBaseCollection("platform_fees")
		fees.Fields.Add(
			&core.NumberField{Name: "fee_percentage", Required: true},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		return app.Save(fees)
	}, func(app core.App) error {
		names := []string{
			"platform_fees",
			"monthly_summaries",
			"payouts",
			"ticket_sales",
			"promo_codes",
			"tickets",
			"events",
		}
		for _, name := range names {
			col, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				continue
			}
			if err := app.Delete(col); err != nil {
				return err
			}
		}

		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return nil
		}
		users.Fields.RemoveByName("is_admin")
		users.Fields.RemoveByName("phone")
		return app.Save(users)
	})
}
