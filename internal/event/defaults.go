package event

// Placeholder values substituted when a listing omits a field.
const (
	DefaultDescription = "Check website for event details"
	DefaultTime        = "Check website for time details"
	DefaultPrice       = "See website for pricing"
	DefaultVenue       = "Sydney, Australia"
	DefaultImageURL    = "https://www.sydney.com/sites/sydney/files/styles/hero_item/public/2022-08/opera-house-vivid.jpg"
)

// Defaults is the fallback table applied to empty raw fields.
type Defaults struct {
	Description string `mapstructure:"description"`
	Time        string `mapstructure:"time"`
	Venue       string `mapstructure:"venue"`
	ImageURL    string `mapstructure:"image_url"`
	Price       string `mapstructure:"price"`
}

// StandardDefaults returns the built-in fallback table.
func StandardDefaults() Defaults {
	return Defaults{
		Description: DefaultDescription,
		Time:        DefaultTime,
		Venue:       DefaultVenue,
		ImageURL:    DefaultImageURL,
		Price:       DefaultPrice,
	}
}

// Merge fills empty entries of d from fallback.
func (d Defaults) Merge(fallback Defaults) Defaults {
	if d.Description == "" {
		d.Description = fallback.Description
	}
	if d.Time == "" {
		d.Time = fallback.Time
	}
	if d.Venue == "" {
		d.Venue = fallback.Venue
	}
	if d.ImageURL == "" {
		d.ImageURL = fallback.ImageURL
	}
	if d.Price == "" {
		d.Price = fallback.Price
	}
	return d
}
