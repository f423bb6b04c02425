package types

import "time"

const (
	// NotAvailable replaces a firmware version the realm did not report.
	NotAvailable = "N/A"

	// LegacyRealmVersion is reported for realms without a status endpoint.
	LegacyRealmVersion = "< 2.9"

	StateOnline = "online"
)

type Organization struct {
	ID   string
	Name string
}

type Site struct {
	Realm    string
	SiteID   string
	Name     string
	LongName string
	City     string
	OrgID    string
	OrgName  string
}

type Node struct {
	Realm           string
	NodeID          string
	Serial          string
	State           string
	ModelCode       string
	SiteID          string
	OrgID           string
	FirmwareVersion string
}

// IsShadow reports whether the node is a placeholder without hardware behind it.
func (n Node) IsShadow() bool {
	return n.Serial == ""
}

func (n Node) Online() bool {
	return n.State == StateOnline
}

// RealmCredentials is one row of the batch credentials file.
type RealmCredentials struct {
	Realm    string
	Username string
	Password string
	Org      string
}

// Realm holds what was learned about a realm while querying it.
type Realm struct {
	Name    string
	Version string
	Latency time.Duration
}
