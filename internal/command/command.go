// Package command formats outbound gateway commands.
package command

import (
	"fmt"
	"regexp"
	"strings"
)

const lineEnding = "\r\n"

var (
	trailingNewline = regexp.MustCompile(`\r?\n?$`)
	lineBreaks      = regexp.MustCompile(`[\r\n]+`)
)

// Spec describes one command the gateway firmware accepts.
type Spec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []string `json:"params,omitempty"`
	Defaults    []string `json:"defaults,omitempty"`
}

// SysModes are the values accepted by SYS_MODE.
var SysModes = []string{"OFF", "BLESCAN", "ANTSCAN", "ALLSCAN", "BLESCANPARSE", "ALLSCANPARSE", "BLECONN"}

var catalogue = []Spec{
	{Name: "SYS_MODE", Description: "set scan mode", Params: []string{"mode"}},
	{Name: "BLE_PARAMS", Description: "set BLE scan parameters",
		Params:   []string{"type", "interval", "window", "dup", "report"},
		Defaults: []string{"ACTIVE", "100", "50", "FILTER", "0"}},
	{Name: "ANT_PARAMS", Description: "set ANT+ scan parameters",
		Params:   []string{"channel", "devtype", "freq", "period"},
		Defaults: []string{"0", "ALL", "57", "8192"}},
	{Name: "BLE_FILTER", Description: "set BLE name filter", Params: []string{"names"}},
	{Name: "BLE_FILTER_LIST", Description: "query BLE name filter"},
	{Name: "ANT_FILTER", Description: "set ANT+ id filter", Params: []string{"ids"}},
	{Name: "RSSI_THRESHOLD", Description: "set RSSI threshold", Params: []string{"rssi"}, Defaults: []string{"-70"}},
	{Name: "BLE_CLEAR_FILTER", Description: "clear BLE filter"},
	{Name: "ANT_CLEAR_FILTER", Description: "clear ANT+ filter"},
	{Name: "BLE_SCAN", Description: "start or stop BLE scan", Params: []string{"mode"}, Defaults: []string{"START"}},
	{Name: "ANT_SCAN", Description: "start or stop ANT+ scan", Params: []string{"mode"}, Defaults: []string{"START"}},
	{Name: "STATUS", Description: "query system status"},
	{Name: "REBOOT", Description: "reboot the gateway"},
	{Name: "VERSION", Description: "query firmware version"},
	{Name: "BLE_CONN", Description: "set BLE connection targets", Params: []string{"targets"}},
	{Name: "BLE_CONN_LIST", Description: "query BLE connection targets"},
	{Name: "BLE_CONN_CLEAR", Description: "clear BLE connection targets"},
	{Name: "BLE_DISCONN_ALL", Description: "disconnect every BLE link"},
}

// Catalogue returns the known commands.
func Catalogue() []Spec {
	return append([]Spec(nil), catalogue...)
}

// Lookup finds a known command by name, ignoring case.
func Lookup(name string) (Spec, bool) {
	for _, spec := range catalogue {
		if strings.EqualFold(spec.Name, name) {
			return spec, true
		}
	}
	return Spec{}, false
}

// Build renders `NAME:arg1,arg2;` or `NAME;` for known commands, filling
// missing trailing arguments from the catalogue defaults. BLE_CONN targets
// are cleaned with ConnTargets.
func Build(name string, args ...string) (string, error) {
	spec, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown command %q", name)
	}
	if len(args) > len(spec.Params) {
		return "", fmt.Errorf("%s takes %d arguments, got %d", spec.Name, len(spec.Params), len(args))
	}

	values := make([]string, len(spec.Params))
	for i := range spec.Params {
		if i < len(args) && strings.TrimSpace(args[i]) != "" {
			values[i] = strings.TrimSpace(args[i])
		} else if i < len(spec.Defaults) {
			values[i] = spec.Defaults[i]
		}
	}

	if spec.Name == "BLE_CONN" && len(values) > 0 {
		values[0] = ConnTargets(values[0])
	}

	if len(values) == 0 {
		return Normalize(spec.Name + ";"), nil
	}
	return Normalize(spec.Name + ":" + strings.Join(values, ",") + ";"), nil
}

// Normalize forces a single CRLF terminator.
func Normalize(cmd string) string {
	if strings.HasSuffix(cmd, lineEnding) {
		return cmd
	}
	return trailingNewline.ReplaceAllString(cmd, "") + lineEnding
}

// ConnTargets cleans free-form `mac,profile` pairs separated by semicolons
// or line breaks, dropping incomplete pairs.
func ConnTargets(raw string) string {
	raw = lineBreaks.ReplaceAllString(raw, ";")

	pairs := make([]string, 0)
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ",")
		mac := strings.TrimSpace(parts[0])
		profile := ""
		if len(parts) > 1 {
			profile = strings.TrimSpace(parts[1])
		}
		if mac == "" || profile == "" {
			continue
		}
		pairs = append(pairs, mac+","+profile)
	}
	return strings.Join(pairs, ";")
}
