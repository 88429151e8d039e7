package facilities

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTable returns the built-in alias and region data covering the
// facilities that appear most often in the national press.
func DefaultTable() Table {
	return Table{
		Aliases: map[string][]string{
			"Due Palazzi (Padova)": {
				"due palazzi",
				"padova",
				"casa circondariale due palazzi",
				"casa di reclusione due palazzi",
				"casa circondariale di padova",
				"carcere di padova",
			},
			"Sollicciano (Firenze)": {
				"sollicciano",
				"firenze",
				"casa circondariale di sollicciano",
				"casa circondariale mario gozzini",
				"carcere di firenze",
			},
			"Canton Mombello (Brescia)": {
				"canton mombello",
				"brescia",
				"brescia canton mombello",
				"brescia - canton mombello",
				"brescia nerio fischione",
				"nerio fischione",
				"casa circondariale di brescia",
				"casa circondariale canton mombello",
				"carcere di brescia",
			},
			"Cremona": {
				"cremona",
				"casa circondariale di cremona",
				"carcere di cremona",
			},
			"Rebibbia (Roma)": {
				"rebibbia",
				"casa circondariale di rebibbia",
				"rebibbia nuovo complesso",
				"rebibbia femminile",
				"carcere di rebibbia",
			},
			"Regina Coeli (Roma)": {
				"regina coeli",
				"casa circondariale regina coeli",
				"carcere regina coeli",
			},
			"San Vittore (Milano)": {
				"san vittore",
				"casa circondariale di san vittore",
				"carcere di san vittore",
				"milano san vittore",
			},
			"Poggioreale (Napoli)": {
				"poggioreale",
				"casa circondariale di poggioreale",
				"carcere di poggioreale",
				"napoli poggioreale",
			},
			"Santa Maria Capua Vetere": {
				"santa maria capua vetere",
				"casa circondariale di santa maria capua vetere",
				"smcv",
				"capua vetere",
			},
			"Secondigliano (Napoli)": {
				"secondigliano",
				"casa circondariale di secondigliano",
				"carcere di secondigliano",
			},
			"Asti": {
				"asti",
				"casa circondariale di asti",
				"carcere di asti",
			},
			"Opera (Milano)": {
				"opera",
				"casa di reclusione di opera",
				"carcere di opera",
				"milano opera",
			},
			"Bollate (Milano)": {
				"bollate",
				"casa di reclusione di bollate",
				"carcere di bollate",
				"milano bollate",
			},
		},
		Regions: map[string]string{
			"padova":                   "Veneto",
			"due palazzi":              "Veneto",
			"venezia":                  "Veneto",
			"verona":                   "Veneto",
			"firenze":                  "Toscana",
			"sollicciano":              "Toscana",
			"prato":                    "Toscana",
			"milano":                   "Lombardia",
			"san vittore":              "Lombardia",
			"opera":                    "Lombardia",
			"bollate":                  "Lombardia",
			"cremona":                  "Lombardia",
			"brescia":                  "Lombardia",
			"canton mombello":          "Lombardia",
			"roma":                     "Lazio",
			"rebibbia":                 "Lazio",
			"regina coeli":             "Lazio",
			"napoli":                   "Campania",
			"poggioreale":              "Campania",
			"secondigliano":            "Campania",
			"santa maria capua vetere": "Campania",
			"asti":                     "Piemonte",
			"torino":                   "Piemonte",
		},
	}
}

// LoadTable reads an alias/region table from a YAML file. Missing sections
// fall back to the built-in defaults so a config file can override just the
// aliases or just the regions.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read facilities config: %w", err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("failed to parse facilities config: %w", err)
	}

	defaults := DefaultTable()
	if len(table.Aliases) == 0 {
		table.Aliases = defaults.Aliases
	}
	if len(table.Regions) == 0 {
		table.Regions = defaults.Regions
	}
	return table, nil
}
