package report

import "regexp"

// UnknownModel is shown for model codes missing from the product table.
const UnknownModel = "unknown"

// productNames maps appliance codenames to their commercial names.
var productNames = map[string]string{
	"aardvark":   "SDI-S12",
	"baloo":      "SDI-SH",
	"beorn":      "SDI-ZAKSH",
	"booboo":     "SDI-AWS",
	"cx3070":     "3070-SD",
	"cx570":      "570-SD",
	"cx770":      "770-SD",
	"ewok":       "SDI-330",
	"fozzy":      "SDI-USB",
	"grizzly":    "SDI-1030",
	"koala":      "SDI-AP5",
	"kodiak":     "SDI-S48",
	"misha":      "SDI-AZURE-SH",
	"paddington": "SDI-AZURE",
	"panda":      "SDI-130",
	"panther":    "SDI-5030",
	"raccoon":    "SDI-AP3",
	"sloth":      "SDI-S24",
	"tiger1g":    "SDI-2030",
	"ursus":      "SDI-AP5r",
	"xirrusap":   "Xirrus AP",
	"yogi":       "SDI-VGW",
}

// ModelName translates a model codename into a product name.
func ModelName(code string) string {
	if name, ok := productNames[code]; ok {
		return name
	}
	return UnknownModel
}

var codenameSuffix = regexp.MustCompile(`-[a-z]+$`)

// CleanFirmware drops the release codename from a firmware version, so
// "5.2.1-abc123-panther" becomes "5.2.1-abc123".
func CleanFirmware(version string) string {
	return codenameSuffix.ReplaceAllString(version, "")
}
