// Package report joins nodes to their sites and counts them by state.
package report

import "github.com/bakermat/steelconnect-node-status/pkg/types"

// Row is one displayed node.
type Row struct {
	Realm        string `json:"realm" yaml:"realm"`
	Organisation string `json:"organisation" yaml:"organisation"`
	Site         string `json:"site" yaml:"site"`
	Model        string `json:"model" yaml:"model"`
	Firmware     string `json:"firmware" yaml:"firmware"`
	Serial       string `json:"serial" yaml:"serial"`
	State        string `json:"state" yaml:"state"`
	Online       bool   `json:"online" yaml:"online"`
}

type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Online  int `json:"online" yaml:"online"`
	Offline int `json:"offline" yaml:"offline"`
}

type Report struct {
	Rows    []Row   `json:"nodes" yaml:"nodes"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// Build matches every node to its site. Rows follow site order, then node
// order. Shadow nodes and nodes whose site is not in sites are skipped. Sites
// only match nodes of their own realm.
func Build(sites []types.Site, nodes []types.Node) Report {
	r := Report{Rows: []Row{}}
	for _, site := range sites {
		for _, node := range nodes {
			if node.IsShadow() || node.Realm != site.Realm || node.SiteID != site.SiteID {
				continue
			}

			r.Summary.Total++
			online := node.Online()
			if online {
				r.Summary.Online++
			} else {
				r.Summary.Offline++
			}

			r.Rows = append(r.Rows, Row{
				Realm:        node.Realm,
				Organisation: site.OrgName,
				Site:         site.LongName,
				Model:        ModelName(node.ModelCode),
				Firmware:     CleanFirmware(node.FirmwareVersion),
				Serial:       node.Serial,
				State:        node.State,
				Online:       online,
			})
		}
	}
	return r
}
