// Package ocidns is a thin signed REST client for the OCI DNS control
// plane, covering the zone and TSIG key operations a migration needs.
// Requests are single HTTP round trips; there is no transport-level retry.
package ocidns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"

	"github.com/dyninc/oci-dns-migration-script/migrate"
)

// apiVersion is the OCI DNS API date version embedded in every path.
const apiVersion = "20180115"

const httpTimeout = 60 * time.Second

// Client talks to the OCI DNS API for one region, signing every request
// with the credentials from the OCI config profile. It implements
// migrate.Destination.
type Client struct {
	endpoint string // https://dns.<region>.oraclecloud.com/20180115
	signer   common.HTTPRequestSigner
	http     *http.Client
}

// RequestError reports a non-2xx response from the OCI DNS API. It carries
// the response body and the opc-request-id correlation header so failures
// can be chased with Oracle support.
type RequestError struct {
	StatusCode   int
	Body         string
	OPCRequestID string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("HTTP %d (opc-request-id: %q): %s", e.StatusCode, e.OPCRequestID, e.Body)
}

// New builds a client for the region named in the OCI configuration.
func New(provider common.ConfigurationProvider) (*Client, error) {
	region, err := provider.Region()
	if err != nil {
		return nil, fmt.Errorf("read region from OCI config: %w", err)
	}
	endpoint := fmt.Sprintf("https://%s/%s", common.StringToRegion(region).Endpoint("dns"), apiVersion)
	return newClient(endpoint, common.DefaultRequestSigner(provider)), nil
}

func newClient(endpoint string, signer common.HTTPRequestSigner) *Client {
	return &Client{
		endpoint: endpoint,
		signer:   signer,
		http:     &http.Client{Timeout: httpTimeout},
	}
}

type resourceSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	LifecycleState string `json:"lifecycleState"`
}

// FindZoneByName implements migrate.Destination. It returns the first zone
// with the given name in the compartment, or nil when there is none.
func (c *Client) FindZoneByName(ctx context.Context, compartment, name string) (*migrate.ZoneSummary, error) {
	query := url.Values{"compartmentId": {compartment}, "name": {name}}
	var zones []resourceSummary
	err := c.doJSON(ctx, http.MethodGet, "/zones", query, nil, http.StatusOK, &zones)
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, nil
	}
	z := zones[0]
	return &migrate.ZoneSummary{ID: z.ID, Name: z.Name, State: z.LifecycleState}, nil
}

// CreateZoneFromFile implements migrate.Destination. The zone-file text is
// posted as-is with the text/dns content type.
func (c *Client) CreateZoneFromFile(ctx context.Context, compartment string, zonefile []byte) (migrate.CreateResult, error) {
	query := url.Values{"compartmentId": {compartment}}
	var created resourceSummary
	err := c.do(ctx, http.MethodPost, "/actions/createZoneFromZoneFile", query, "text/dns", zonefile, http.StatusCreated, &created)
	if err != nil {
		return migrate.CreateResult{}, err
	}
	return migrate.CreateResult{ID: created.ID, State: created.LifecycleState}, nil
}

// CreateSecondaryZone implements migrate.Destination.
func (c *Client) CreateSecondaryZone(ctx context.Context, zone migrate.SecondaryZone) (migrate.CreateResult, error) {
	type externalMaster struct {
		Address   string  `json:"address"`
		TSIGKeyID *string `json:"tsigKeyId"`
	}
	payload := struct {
		Name            string           `json:"name"`
		CompartmentID   string           `json:"compartmentId"`
		ZoneType        string           `json:"zoneType"`
		ExternalMasters []externalMaster `json:"externalMasters"`
	}{
		Name:          zone.Name,
		CompartmentID: zone.Compartment,
		ZoneType:      "SECONDARY",
	}
	for _, m := range zone.Masters {
		em := externalMaster{Address: m.Address}
		if m.TSIGKeyID != "" {
			id := m.TSIGKeyID
			em.TSIGKeyID = &id
		}
		payload.ExternalMasters = append(payload.ExternalMasters, em)
	}

	var created resourceSummary
	err := c.doJSON(ctx, http.MethodPost, "/zones", nil, payload, http.StatusCreated, &created)
	if err != nil {
		return migrate.CreateResult{}, err
	}
	return migrate.CreateResult{ID: created.ID, State: created.LifecycleState}, nil
}

// FindTSIGKeyByName implements migrate.Destination.
func (c *Client) FindTSIGKeyByName(ctx context.Context, compartment, name string) (*migrate.KeySummary, error) {
	query := url.Values{"compartmentId": {compartment}, "name": {name}}
	var keys []resourceSummary
	err := c.doJSON(ctx, http.MethodGet, "/tsigKeys", query, nil, http.StatusOK, &keys)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	k := keys[0]
	return &migrate.KeySummary{ID: k.ID, Name: k.Name, State: k.LifecycleState}, nil
}

// CreateTSIGKey implements migrate.Destination.
func (c *Client) CreateTSIGKey(ctx context.Context, compartment string, key migrate.KeyMaterial) (migrate.CreateResult, error) {
	payload := struct {
		Name          string `json:"name"`
		Algorithm     string `json:"algorithm"`
		Secret        string `json:"secret"`
		CompartmentID string `json:"compartmentId"`
	}{
		Name:          key.Name,
		Algorithm:     key.Algorithm,
		Secret:        key.Secret,
		CompartmentID: compartment,
	}
	var created resourceSummary
	err := c.doJSON(ctx, http.MethodPost, "/tsigKeys", nil, payload, http.StatusCreated, &created)
	if err != nil {
		return migrate.CreateResult{}, err
	}
	return migrate.CreateResult{ID: created.ID, State: created.LifecycleState}, nil
}

// GetLifecycleState implements migrate.LifecycleClient.
func (c *Client) GetLifecycleState(ctx context.Context, kind migrate.ResourceKind, id string) (string, error) {
	var resource resourceSummary
	path := fmt.Sprintf("/%s/%s", kind, url.PathEscape(id))
	err := c.doJSON(ctx, http.MethodGet, path, nil, nil, http.StatusOK, &resource)
	if err != nil {
		return "", err
	}
	return resource.LifecycleState, nil
}

// doJSON marshals payload (when non-nil) and performs the call with an
// application/json content type.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload any, expect int, out any) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = encoded
	}
	return c.do(ctx, method, path, query, "application/json", body, expect, out)
}

// do performs one signed call. Any status other than expect fails with a
// RequestError carrying the body and the opc-request-id header.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body []byte, expect int, out any) error {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	// the signer signs the date header but leaves setting it to the caller
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	if c.signer != nil {
		if err := c.signer.Sign(req); err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != expect {
		return &RequestError{
			StatusCode:   resp.StatusCode,
			Body:         string(bytes.TrimSpace(respBody)),
			OPCRequestID: resp.Header.Get("opc-request-id"),
		}
	}
	if out != nil && len(respBody) > 0 {
		return json.Unmarshal(respBody, out)
	}
	return nil
}
