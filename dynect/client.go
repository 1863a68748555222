// Package dynect is a minimal client for the Dyn Managed DNS REST API,
// covering only what a zone migration needs: session auth, zone and
// secondary-zone lookup, TSIG key material, and zone transfers.
package dynect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dyninc/oci-dns-migration-script/migrate"
)

const (
	// DefaultAPIURL is the Dyn Managed DNS REST endpoint.
	DefaultAPIURL = "https://api.dynect.net"
	// DefaultTransferServer is the Dyn host that answers AXFR for zones
	// with transfers enabled.
	DefaultTransferServer = "xfrout1.dynect.net:53"

	httpTimeout = 30 * time.Second
)

// Config carries the credentials and endpoints for a Dyn session.
type Config struct {
	APIURL         string // defaults to DefaultAPIURL
	Customer       string
	Username       string
	Password       string
	TransferServer string // defaults to DefaultTransferServer
	Log            logrus.FieldLogger
}

// Client is an authenticated Dyn session. It implements migrate.Source.
type Client struct {
	apiURL    string
	xfrServer string
	http      *http.Client
	token     string
	log       logrus.FieldLogger
}

// LookupError reports a zone or resource that could not be read from Dyn,
// either because it does not exist or because the user lacks permission.
type LookupError struct {
	Resource string
	Guidance string
	Err      error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("failed to look up %s in Dynect", e.Resource)
	if e.Guidance != "" {
		msg += ". " + e.Guidance
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LookupError) Unwrap() error { return e.Err }

// Login opens a Dyn API session. The returned client holds the session
// token; call Logout when done with it.
func Login(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{
		apiURL:    cfg.APIURL,
		xfrServer: cfg.TransferServer,
		log:       cfg.Log,
		http: &http.Client{
			Timeout: httpTimeout,
			// Dyn sessions are commonly reached through a corporate
			// proxy; honor the standard proxy environment variables.
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.xfrServer == "" {
		c.xfrServer = DefaultTransferServer
	}

	login := map[string]string{
		"customer_name": cfg.Customer,
		"user_name":     cfg.Username,
		"password":      cfg.Password,
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/REST/Session/", login, &session); err != nil {
		return nil, fmt.Errorf("dynect login: %w", err)
	}
	c.token = session.Token
	return c, nil
}

// Logout closes the API session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/REST/Session/", nil, nil)
}

// Describe implements migrate.Source. For secondary zones the master list
// and TSIG key name are read from the secondary-zone service, which needs
// the "SecondaryGet" permission in Dynect.
func (c *Client) Describe(ctx context.Context, zone string) (migrate.ZoneInfo, error) {
	var zd struct {
		Zone     string `json:"zone"`
		ZoneType string `json:"zone_type"`
	}
	err := c.do(ctx, http.MethodGet, "/REST/Zone/"+pathZone(zone)+"/", nil, &zd)
	if err != nil {
		return migrate.ZoneInfo{}, &LookupError{
			Resource: fmt.Sprintf("the zone %q", zone),
			Guidance: "Verify the zone exists in Dynect and that the user has permission to look up the zone",
			Err:      err,
		}
	}

	info := migrate.ZoneInfo{Name: zone, Kind: migrate.Primary}
	if !strings.EqualFold(zd.ZoneType, "Secondary") {
		return info, nil
	}

	var sd struct {
		Masters     []string `json:"masters"`
		TSIGKeyName string   `json:"tsig_key_name"`
	}
	err = c.do(ctx, http.MethodGet, "/REST/Secondary/"+pathZone(zone)+"/", nil, &sd)
	if err != nil {
		return migrate.ZoneInfo{}, &LookupError{
			Resource: fmt.Sprintf("the secondary zone %q", zone),
			Guidance: `The Dynect user may need the "SecondaryGet" permission in Dynect`,
			Err:      err,
		}
	}

	info.Kind = migrate.Secondary
	for _, addr := range sd.Masters {
		info.Masters = append(info.Masters, migrate.Master{
			Address:     addr,
			TSIGKeyName: sd.TSIGKeyName,
		})
	}
	return info, nil
}

// TSIGKey implements migrate.Source.
func (c *Client) TSIGKey(ctx context.Context, name string) (migrate.KeyMaterial, error) {
	var kd struct {
		Name      string `json:"name"`
		Algorithm string `json:"algorithm"`
		Secret    string `json:"secret"`
	}
	err := c.do(ctx, http.MethodGet, "/REST/TSIGKey/"+url.PathEscape(name)+"/", nil, &kd)
	if err != nil {
		return migrate.KeyMaterial{}, &LookupError{
			Resource: fmt.Sprintf("the tsig key %q", name),
			Err:      err,
		}
	}
	return migrate.KeyMaterial{Name: name, Algorithm: kd.Algorithm, Secret: kd.Secret}, nil
}

// message is one entry of the msgs array every Dyn response carries.
type message struct {
	Info    string `json:"INFO"`
	Source  string `json:"SOURCE"`
	ErrCode string `json:"ERR_CD"`
	Level   string `json:"LVL"`
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Msgs   []message       `json:"msgs"`
}

// do performs one API call and decodes the data portion of the response
// envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Auth-Token", c.token)
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

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("HTTP %d: undecodable response: %s", resp.StatusCode, respBody)
	}
	if resp.StatusCode != http.StatusOK || env.Status != "success" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, messagesText(env.Msgs))
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func messagesText(msgs []message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		text := m.Info
		if m.ErrCode != "" {
			text = m.ErrCode + ": " + text
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "no error details returned"
	}
	return strings.Join(parts, "; ")
}

// pathZone strips the trailing dot before embedding a zone name in an API
// path; Dyn names zones without it.
func pathZone(zone string) string {
	return url.PathEscape(strings.TrimSuffix(zone, "."))
}
