package scm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bakermat/steelconnect-node-status/pkg/types"
)

type orgRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LongName string `json:"longname"`
}

type siteRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LongName string `json:"longname"`
	City     string `json:"city"`
	Org      string `json:"org"`
}

type nodeRecord struct {
	ID              string  `json:"id"`
	Serial          string  `json:"serial"`
	State           string  `json:"state"`
	Model           string  `json:"model"`
	Site            string  `json:"site"`
	Org             string  `json:"org"`
	FirmwareVersion *string `json:"firmware_version"`
}

type statusRecord struct {
	Version string `json:"scm_version"`
	Build   string `json:"scm_build"`
}

// FindOrganization looks up an organization by name, falling back to its
// long name. The first match wins.
func (c *Client) FindOrganization(ctx context.Context, name string) (types.Organization, error) {
	var orgs []orgRecord
	if err := c.getItems(ctx, c.configURL+"orgs", &orgs); err != nil {
		return types.Organization{}, fmt.Errorf("failed to list organisations: %w", err)
	}

	match := func(field func(orgRecord) string) (orgRecord, bool) {
		for _, o := range orgs {
			if field(o) == name {
				return o, true
			}
		}
		return orgRecord{}, false
	}

	org, ok := match(func(o orgRecord) string { return o.Name })
	if !ok {
		org, ok = match(func(o orgRecord) string { return o.LongName })
	}
	if !ok {
		return types.Organization{}, &OrgNotFoundError{Name: name}
	}
	return types.Organization{ID: org.ID, Name: org.Name}, nil
}

// Sites returns the sites of org ordered by long name, ignoring case.
func (c *Client) Sites(ctx context.Context, org types.Organization) ([]types.Site, error) {
	var records []siteRecord
	if err := c.getItems(ctx, c.configURL+"org/"+org.ID+"/sites", &records); err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}

	sites := make([]types.Site, 0, len(records))
	for _, r := range records {
		sites = append(sites, types.Site{
			Realm:    c.realm,
			SiteID:   r.ID,
			Name:     r.Name,
			LongName: r.LongName,
			City:     r.City,
			OrgID:    r.Org,
			OrgName:  org.Name,
		})
	}
	SortSites(sites)
	return sites, nil
}

// SortSites orders sites by long name without regard to case. Sites with
// equal keys keep their relative order.
func SortSites(sites []types.Site) {
	sort.SliceStable(sites, func(i, j int) bool {
		return strings.ToLower(sites[i].LongName) < strings.ToLower(sites[j].LongName)
	})
}

// Nodes returns the nodes of org as reported by the realm.
func (c *Client) Nodes(ctx context.Context, org types.Organization) ([]types.Node, error) {
	var records []nodeRecord
	if err := c.getItems(ctx, c.reportingURL+"org/"+org.ID+"/nodes", &records); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	nodes := make([]types.Node, 0, len(records))
	for _, r := range records {
		firmware := types.NotAvailable
		if r.FirmwareVersion != nil && *r.FirmwareVersion != "" {
			firmware = *r.FirmwareVersion
		}
		nodes = append(nodes, types.Node{
			Realm:           c.realm,
			NodeID:          r.ID,
			Serial:          r.Serial,
			State:           r.State,
			ModelCode:       r.Model,
			SiteID:          r.Site,
			OrgID:           r.Org,
			FirmwareVersion: firmware,
		})
	}
	return nodes, nil
}

// RealmVersion returns "<version>-<build>" for the realm. Realms older than
// 2.9 have no status endpoint, or answer it with an empty object, and report
// LegacyRealmVersion.
func (c *Client) RealmVersion(ctx context.Context) (string, error) {
	var status statusRecord
	found, err := c.getSingle(ctx, c.configURL+"status", &status)
	if err != nil {
		return "", fmt.Errorf("failed to get realm status: %w", err)
	}
	if !found || status == (statusRecord{}) {
		return types.LegacyRealmVersion, nil
	}
	return status.Version + "-" + status.Build, nil
}
