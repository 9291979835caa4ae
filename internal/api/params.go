// Package api provides a resource-oriented HTTP client for the TransitNet API.
package api

import "strings"

// ApplyPathParams substitutes colon-prefixed identifiers in a path with the
// given values.
//
//	path:    /organizations/:organizationId
//	params:  {"organizationId": "212"}
//	returns: /organizations/212
//
// Each key replaces its first occurrence only. Placeholders without a
// matching key are left literal.
func ApplyPathParams(path string, params map[string]string) string {
	for key, value := range params {
		path = strings.Replace(path, ":"+key, value, 1)
	}
	return path
}
