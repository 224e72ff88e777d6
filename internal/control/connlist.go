package control

import "strings"

// ConnTarget is one configured connection target of the gateway.
type ConnTarget struct {
	MAC     string `json:"mac"`
	Profile string `json:"profile"`
}

// ParseConnList splits a BLE_CONN_LIST response, possibly holding several
// `BLE_CONN_LIST:` segments, into its mac/profile pairs.
func ParseConnList(text string) []ConnTarget {
	targets := make([]ConnTarget, 0)
	for _, segment := range strings.Split(text, string(KindConnList)+":") {
		for _, item := range strings.Split(segment, ";") {
			item = strings.TrimSpace(item)
			if item == "" || strings.HasPrefix(item, string(KindConnList)) {
				continue
			}
			mac, profile, _ := strings.Cut(item, ",")
			targets = append(targets, ConnTarget{
				MAC:     strings.TrimSpace(mac),
				Profile: strings.TrimSpace(profile),
			})
		}
	}
	return targets
}
