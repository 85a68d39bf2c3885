package extract

// Built-in strategy names.
const (
	StrategySydneyCom = "sydney.com"
	StrategyEventCard = "event-card"
)

// BuiltinStrategies returns the strategies shipped with the scraper.
func BuiltinStrategies() []Strategy {
	return []Strategy{SydneyComStrategy(), EventCardStrategy()}
}

// SydneyComStrategy reads the sydney.com event tiles. When the tile grid
// is missing it falls back to generic listing cards. Fields the markup
// lacks stay empty so the normalizer's configured defaults apply.
func SydneyComStrategy() Strategy {
	return Strategy{
		Name: StrategySydneyCom,
		Primary: Layout{
			Container: ".event-tile",
			Fields: Fields{
				Title:       Chain{Text(".event-name")},
				Description: Chain{Text(".event-description, .event-excerpt")},
				Date: Chain{
					Text(".event-date"),
					Text(".date-display"),
					Attr(`[itemprop="startDate"]`, "content"),
				},
				Time:   Chain{Text(".event-time"), Text(".time-display")},
				Venue:  Chain{Text(".event-venue, .event-location")},
				Image:  Chain{Attr(".event-image img, .tile-image img", "src"), Attr("img", "src")},
				Ticket: Chain{Attr(".event-link a, .buy-tickets", "href"), Attr("a", "href")},
				Price:  Chain{Text(".event-price, .ticket-price")},
				ID:     Chain{OwnAttr("data-id"), OwnAttr("id")},
			},
		},
		Secondary: []Layout{{
			Within:    ".event-listing, .events-container .row, .events-list",
			Container: ".event-item, .col-md-4, .card",
			IDTag:     "alt",
			Fields: Fields{
				Title:       Chain{Text("h2, h3, .card-title")},
				Description: Chain{Text("p, .card-text, .description")},
				Time:        Chain{Const("See website for details")},
				Image:       Chain{Attr("img", "src")},
				Ticket:      Chain{Attr("a", "href")},
				ID:          Chain{OwnAttr("data-id")},
			},
		}},
	}
}

// EventCardStrategy reads the plain ".event-card" markup shared by several
// listing sites.
func EventCardStrategy() Strategy {
	return Strategy{
		Name: StrategyEventCard,
		Primary: Layout{
			Container: ".event-card",
			Fields: Fields{
				Title:       Chain{Text(".event-title")},
				Description: Chain{Text(".event-description")},
				Date:        Chain{Text(".event-date")},
				Time:        Chain{Text(".event-time")},
				Venue:       Chain{Text(".event-venue")},
				Image:       Chain{Attr(".event-image", "src")},
				Ticket:      Chain{Attr(".event-link", "href")},
				Price:       Chain{Text(".event-price")},
				ID:          Chain{OwnAttr("data-id")},
			},
		},
	}
}
