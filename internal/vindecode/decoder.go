// Package vindecode calls the NHTSA vPIC decode service and normalizes
// its flat variable/value vocabulary into the vehicle taxonomy.
package vindecode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// Config points the decoder at the external service.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Decoder resolves VINs against the external decode service.
type Decoder struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// New builds a Decoder with a bounded-timeout client.
func New(cfg Config, logger *zap.Logger) *Decoder {
	return &Decoder{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// decodeResponse is the service's wire shape: a flat list of named
// fields rather than a structured object.
type decodeResponse struct {
	Results []struct {
		Variable string `json:"Variable"`
		Value    string `json:"Value"`
	} `json:"Results"`
}

// Decode fetches and normalizes one VIN. A decode missing year, make,
// or model is an error; the caller skips that vehicle rather than
// inserting a partial record.
func (d *Decoder) Decode(ctx context.Context, vin string) (inventory.VinDecoded, error) {
	if !inventory.IsValidVIN(vin) {
		return inventory.VinDecoded{}, fmt.Errorf("invalid vin %q", vin)
	}

	fields, err := d.fetchFields(ctx, vin)
	if err != nil {
		return inventory.VinDecoded{}, err
	}

	year, _ := strconv.Atoi(fields["Model Year"])
	make := fields["Make"]
	model := fields["Model"]
	if year == 0 || make == "" || model == "" {
		return inventory.VinDecoded{}, fmt.Errorf("decode for %s missing year/make/model", vin)
	}

	trim := fields["Trim"]
	if trim == "" {
		trim = fields["Trim2"]
	}
	doors, _ := strconv.Atoi(fields["Doors"])

	return inventory.VinDecoded{
		Year:         year,
		Make:         titleCase(make),
		Model:        model,
		Trim:         trim,
		BodyType:     normalizeBodyType(fields["Body Class"]),
		Drivetrain:   normalizeDrivetrain(fields["Drive Type"]),
		FuelType:     normalizeFuelType(fields["Fuel Type - Primary"]),
		Engine:       buildEngine(fields["Displacement (L)"], fields["Engine Number of Cylinders"], fields["Engine Configuration"]),
		Transmission: buildTransmission(fields["Transmission Style"], fields["Transmission Speeds"]),
		Doors:        doors,
	}, nil
}

// fetchFields calls the service with bounded retries and flattens the
// result list into a variable-name lookup.
func (d *Decoder) fetchFields(ctx context.Context, vin string) (map[string]string, error) {
	decodeURL := fmt.Sprintf("%s/%s?format=json", d.endpoint, vin)

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, decodeURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("decode service returned status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("decode vin %s: %w", vin, err)
	}

	var decoded decodeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("parse decode response for %s: %w", vin, err)
	}

	fields := make(map[string]string, len(decoded.Results))
	for _, r := range decoded.Results {
		value := strings.TrimSpace(r.Value)
		if value == "" || strings.EqualFold(value, "Not Applicable") {
			continue
		}
		fields[r.Variable] = value
	}
	return fields, nil
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
