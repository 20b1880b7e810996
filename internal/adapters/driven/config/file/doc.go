// Package file loads plugin options from configuration files.
//
// Supported formats are chosen by extension:
//   - .toml: TOML
//   - .yaml, .yml: YAML
//   - .json: JSON
//
// Keys use the plugin option names (shopName, accessToken, paginationSize,
// shopifyConnections, ...). Values are decoded onto the defaults, so a file
// only needs the keys it changes. Environment variables override the file.
package file
