package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/inventory"
)

const csvFeedBody = `vin,year,make,model,price,mileage,color,photo_urls
2HGFC2F59LH000001,2020,Honda,Civic,"18,995",32400,Blue,https://cdn.example.com/1.jpg|https://cdn.example.com/2.jpg
4T1B11HK5KU000002,2019,Toyota,Camry,$21500,28000,,
not-a-vin,2018,Ford,Focus,9995,60000,Red,
`

func TestCSVFeedScrape(t *testing.T) {
	t.Parallel()

	dealer := inventory.Dealer{
		ID:      "dealer-1",
		FeedURL: "https://feeds.example.com/dealer-1.csv",
	}
	fetcher := &fakeFetcher{pages: map[string]Page{
		dealer.FeedURL: {StatusCode: 200, Body: []byte(csvFeedBody)},
	}}

	s := NewCSVFeedScraper(fetcher, zap.NewNop())
	vehicles, err := s.Scrape(context.Background(), dealer)
	require.NoError(t, err)
	require.Len(t, vehicles, 2)

	civic := vehicles[0]
	require.Equal(t, "2HGFC2F59LH000001", civic.VIN)
	require.Equal(t, 18995.0, civic.Price)
	require.Equal(t, 32400, civic.Mileage)
	require.Equal(t, "Blue", civic.Color)
	require.Equal(t, 2020, civic.Year)
	require.Equal(t, "Honda", civic.Make)
	require.Equal(t, []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}, civic.PhotoURLs)

	camry := vehicles[1]
	require.Equal(t, "4T1B11HK5KU000002", camry.VIN)
	require.Equal(t, 21500.0, camry.Price)
	require.Equal(t, inventory.ColorUnknown, camry.Color)
	require.Empty(t, camry.PhotoURLs)
}

func TestCSVFeedHeaderAliases(t *testing.T) {
	t.Parallel()

	body := `VIN,Year,Make,Model,Miles,ExteriorColor,SellingPrice,Engine,ImageURLs
2HGFC2F59LH000001,2020,Honda,Civic,32400,Aegean Blue,18995,2.0L 4-Cylinder,https://cdn.example.com/1.jpg
1FTEW1EP5KF000003,2019,Ford,F-150,41000,White,31500,3.0L Power Stroke Diesel,
`
	dealer := inventory.Dealer{ID: "dealer-1", FeedURL: "https://feeds.example.com/dealer-1.csv"}
	fetcher := &fakeFetcher{pages: map[string]Page{
		dealer.FeedURL: {StatusCode: 200, Body: []byte(body)},
	}}

	s := NewCSVFeedScraper(fetcher, zap.NewNop())
	vehicles, err := s.Scrape(context.Background(), dealer)
	require.NoError(t, err)
	require.Len(t, vehicles, 2)

	civic := vehicles[0]
	require.Equal(t, 18995.0, civic.Price)
	require.Equal(t, 32400, civic.Mileage)
	require.Equal(t, "Aegean Blue", civic.Color)
	require.Equal(t, []string{"https://cdn.example.com/1.jpg"}, civic.PhotoURLs)
	require.Empty(t, civic.FuelType)

	truck := vehicles[1]
	require.Equal(t, "Diesel", truck.FuelType)
}

func TestInferFuelType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{text: "3.0L Power Stroke Diesel", want: "Diesel"},
		{text: "2.5L Hybrid Camry", want: "Hybrid"},
		{text: "Plug-In Prius Prime", want: "Hybrid"},
		{text: "Electric Mustang Mach-E", want: "Electric"},
		{text: "3.5L Flex Fuel V6", want: "Flex Fuel"},
		{text: "2.0L 4-Cylinder Civic", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.want, inferFuelType(tc.text))
		})
	}
}

func TestCSVFeedRejectsMissingVINColumn(t *testing.T) {
	t.Parallel()

	dealer := inventory.Dealer{ID: "dealer-1", FeedURL: "https://feeds.example.com/bad.csv"}
	fetcher := &fakeFetcher{pages: map[string]Page{
		dealer.FeedURL: {StatusCode: 200, Body: []byte("stock,price\nA123,9995\n")},
	}}

	s := NewCSVFeedScraper(fetcher, zap.NewNop())
	_, err := s.Scrape(context.Background(), dealer)
	require.Error(t, err)
	require.Contains(t, err.Error(), "vin column")
}

func TestCSVFeedNon2xxFails(t *testing.T) {
	t.Parallel()

	dealer := inventory.Dealer{ID: "dealer-1", FeedURL: "https://feeds.example.com/missing.csv"}
	fetcher := &fakeFetcher{pages: map[string]Page{}}

	s := NewCSVFeedScraper(fetcher, zap.NewNop())
	_, err := s.Scrape(context.Background(), dealer)
	require.Error(t, err)
}
